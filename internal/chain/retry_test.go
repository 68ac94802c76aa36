package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type revertError struct{}

func (revertError) Error() string  { return "execution reverted" }
func (revertError) ErrorCode() int { return codeExecutionReverted }

func TestRetryEventuallySucceeds(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	policy := retryPolicy{maxRetries: 3, baseDelay: time.Millisecond, logger: zap.New(core)}

	calls := 0
	err := policy.run(context.Background(), "eth_call", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}

	entries := logs.FilterMessage("rpc call failed, retrying").All()
	if len(entries) != 2 {
		t.Fatalf("retry logs = %d, want 2", len(entries))
	}
	fields := entries[1].ContextMap()
	if fields["op"] != "eth_call" || fields["attempt"] != int64(2) {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestRetryGivesUp(t *testing.T) {
	want := errors.New("permanent")
	policy := retryPolicy{maxRetries: 2, baseDelay: time.Millisecond}
	calls := 0
	err := policy.run(context.Background(), "eth_blockNumber", func(context.Context) error {
		calls++
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("err = %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetrySkipsRevert(t *testing.T) {
	policy := retryPolicy{maxRetries: 5, baseDelay: time.Millisecond}
	calls := 0
	err := policy.run(context.Background(), "eth_call", func(context.Context) error {
		calls++
		return revertError{}
	})
	if err == nil || calls != 1 {
		t.Fatalf("err = %v, calls = %d", err, calls)
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := retryPolicy{maxRetries: 5, baseDelay: time.Hour}
	calls := 0
	err := policy.run(ctx, "eth_call", func(context.Context) error {
		calls++
		cancel()
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
}
