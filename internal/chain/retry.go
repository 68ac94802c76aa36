package chain

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

const (
	defaultRetryDelay = 100 * time.Millisecond
	maxRetryDelay     = 5 * time.Second

	// JSON-RPC code for a reverted eth_call.
	codeExecutionReverted = 3
)

// retryPolicy retries transient RPC failures with capped exponential backoff.
type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	logger     *zap.Logger
}

func (p retryPolicy) run(ctx context.Context, op string, fn func(context.Context) error) error {
	maxRetries := p.maxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	delay := p.baseDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	logger := p.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries || !retryable(err) {
			return err
		}

		logger.Warn("rpc call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
}

// retryable is false for cancellations and reverts, which fail the same way
// on every attempt.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == codeExecutionReverted {
		return false
	}
	return true
}
