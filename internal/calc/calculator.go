// Package calc turns user trade requests into price impact calculations
// against the current pool snapshot.
package calc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pairScope/internal/amm"
	"pairScope/internal/model"
)

// Calculation outcomes reported to the Recorder.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeInvalid  = "invalid"
	OutcomeNotReady = "not_ready"
	OutcomeBusy     = "busy"
	OutcomeError    = "error"
)

// Recorder receives calculation metrics.
type Recorder interface {
	ObserveCalculation(outcome string, elapsed time.Duration)
	ObserveImpact(realImpactPct float64)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCalculation(string, time.Duration) {}
func (nopRecorder) ObserveImpact(float64)                    {}

// Calculator runs one calculation at a time against a PoolProvider.
type Calculator struct {
	provider  PoolProvider
	validator *Validator
	lifecycle *Lifecycle
	recorder  Recorder
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*Calculator)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Calculator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(c *Calculator) {
		if r != nil {
			c.recorder = r
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCalculator(provider PoolProvider, opts ...Option) *Calculator {
	c := &Calculator{
		provider:  provider,
		validator: NewValidator(),
		lifecycle: NewLifecycle(),
		recorder:  nopRecorder{},
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Calculator) Lifecycle() *Lifecycle {
	return c.lifecycle
}

func (c *Calculator) Validator() *Validator {
	return c.validator
}

// Pool returns the provider's current snapshot, or ErrNotReady while it is loading.
func (c *Calculator) Pool(ctx context.Context) (*model.PoolSnapshot, error) {
	snap, err := c.provider.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch pool snapshot: %w", err)
	}
	if snap == nil {
		return nil, ErrNotReady
	}
	return snap, nil
}

// Dismiss clears the displayed result and failure.
func (c *Calculator) Dismiss() {
	c.lifecycle.Dismiss()
	c.validator.Reset()
}

// Calculate validates req against the current pool and evaluates it. While
// the pool is loading it returns ErrNotReady and leaves the lifecycle as it was.
func (c *Calculator) Calculate(ctx context.Context, req model.TradeRequest) (*model.Calculation, error) {
	start := c.now()
	if err := c.lifecycle.Begin(); err != nil {
		c.recorder.ObserveCalculation(OutcomeBusy, 0)
		return nil, err
	}

	snap, err := c.Pool(ctx)
	if errors.Is(err, ErrNotReady) {
		c.lifecycle.Abort()
		c.recorder.ObserveCalculation(OutcomeNotReady, c.now().Sub(start))
		c.logger.Debug("pool not ready")
		return nil, err
	}
	if err != nil {
		c.lifecycle.Fail(err)
		c.recorder.ObserveCalculation(OutcomeError, c.now().Sub(start))
		c.logger.Warn("pool snapshot failed", zap.Error(err))
		return nil, err
	}

	result, err := compute(c.validator, req, *snap, c.now)
	elapsed := c.now().Sub(start)
	if err != nil {
		c.lifecycle.Fail(err)
		var verr *ValidationError
		if errors.As(err, &verr) {
			c.recorder.ObserveCalculation(OutcomeInvalid, elapsed)
			c.logger.Info("request rejected", zap.String("input", req.InputToken), zap.String("amount", req.Amount), zap.String("max_impact", req.MaxImpact), zap.String("reason", verr.Message))
		} else {
			c.recorder.ObserveCalculation(OutcomeError, elapsed)
			c.logger.Error("calculation failed", zap.Error(err), zap.String("input", req.InputToken), zap.String("amount", req.Amount))
		}
		return nil, err
	}

	c.lifecycle.Resolve(result)
	outcome := OutcomeAccepted
	if !result.Remediation.Accepted {
		outcome = OutcomeRejected
	}
	c.recorder.ObserveCalculation(outcome, elapsed)
	impact, _ := result.Trade.RealImpactWithoutFee.Float64()
	c.recorder.ObserveImpact(impact)
	c.logger.Info("calculation complete",
		zap.String("input", result.Trade.InputToken.Symbol),
		zap.String("amount", req.Amount),
		zap.String("real_impact", result.Trade.RealImpactWithoutFee.FloatString(4)),
		zap.String("max_impact", req.MaxImpact),
		zap.Bool("accepted", result.Remediation.Accepted),
		zap.Uint64("block_number", snap.BlockNumber),
	)
	return result, nil
}

// Compute evaluates req against snap without touching any lifecycle.
func Compute(req model.TradeRequest, snap model.PoolSnapshot) (*model.Calculation, error) {
	return compute(NewValidator(), req, snap, time.Now)
}

func compute(v *Validator, req model.TradeRequest, snap model.PoolSnapshot, now func() time.Time) (*model.Calculation, error) {
	valid, err := v.Validate(req, snap)
	if err != nil {
		return nil, err
	}
	trade, err := amm.Evaluate(snap, valid.Input, valid.Amount)
	if err != nil {
		return nil, fmt.Errorf("evaluate trade: %w", err)
	}
	remediation, err := amm.Remediate(snap, valid.Input, valid.Amount, valid.MaxImpact, trade.RealImpactWithoutFee)
	if err != nil {
		return nil, fmt.Errorf("solve remediation: %w", err)
	}
	return &model.Calculation{
		Request:     req,
		Snapshot:    snap,
		MaxImpact:   valid.MaxImpact,
		Trade:       trade,
		Remediation: remediation,
		ComputedAt:  now().UTC(),
	}, nil
}
