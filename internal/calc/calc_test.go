package calc

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"pairScope/internal/model"
)

var (
	token0 = model.Token{ChainID: 56, Address: common.HexToAddress("0x0000000000000000000000000000000000000a00"), Decimals: 18, Symbol: "AAA"}
	token1 = model.Token{ChainID: 56, Address: common.HexToAddress("0x0000000000000000000000000000000000000b00"), Decimals: 6, Symbol: "BBB"}
)

func testSnapshot() *model.PoolSnapshot {
	return &model.PoolSnapshot{
		Token0:      token0,
		Token1:      token1,
		Reserve0:    big.NewRat(1_000_000, 1),
		Reserve1:    big.NewRat(1_000_000, 1),
		BlockNumber: 100,
	}
}

func TestValidatorScenarios(t *testing.T) {
	snap := *testSnapshot()
	cases := []struct {
		name    string
		req     model.TradeRequest
		kind    error
		message string
	}{
		{"letters", model.TradeRequest{InputToken: "AAA", Amount: "abc", MaxImpact: "1"}, ErrInvalidAmount, "invalid input"},
		{"exponent", model.TradeRequest{InputToken: "AAA", Amount: "1e3", MaxImpact: "1"}, ErrInvalidAmount, "invalid input"},
		{"negative", model.TradeRequest{InputToken: "AAA", Amount: "-5", MaxImpact: "1"}, ErrInvalidAmount, "invalid input"},
		{"trailing dot", model.TradeRequest{InputToken: "AAA", Amount: "5.", MaxImpact: "1"}, ErrInvalidAmount, "invalid input"},
		{"leading dot", model.TradeRequest{InputToken: "AAA", Amount: ".5", MaxImpact: "1"}, ErrInvalidAmount, "invalid input"},
		{"two dots", model.TradeRequest{InputToken: "AAA", Amount: "1.2.3", MaxImpact: "1"}, ErrInvalidAmount, "invalid input"},
		{"zero", model.TradeRequest{InputToken: "AAA", Amount: "0", MaxImpact: "1"}, ErrInvalidAmount, "invalid input"},
		{"below precision", model.TradeRequest{InputToken: "BBB", Amount: "0.0000001", MaxImpact: "1"}, ErrInvalidAmount, "invalid input"},
		{"bad impact", model.TradeRequest{InputToken: "AAA", Amount: "10", MaxImpact: "x"}, ErrInvalidAmount, "invalid input"},
		{"unknown token", model.TradeRequest{InputToken: "CCC", Amount: "10", MaxImpact: "1"}, ErrInvalidAmount, "invalid input"},
		{"whole reserve", model.TradeRequest{InputToken: "AAA", Amount: "1000000", MaxImpact: "1"}, ErrInsufficientReserve, "input AAA must be < 1000000"},
		{"above reserve", model.TradeRequest{InputToken: "token1", Amount: "2000000.5", MaxImpact: "1"}, ErrInsufficientReserve, "input BBB must be < 1000000"},
		{"impact too high", model.TradeRequest{InputToken: "AAA", Amount: "10", MaxImpact: "20"}, ErrImpactOutOfRange, "impact must be between 0.01 and 15"},
		{"impact at min", model.TradeRequest{InputToken: "AAA", Amount: "10", MaxImpact: "0.01"}, ErrImpactOutOfRange, "impact must be between 0.01 and 15"},
	}
	for _, tc := range cases {
		v := NewValidator()
		_, err := v.Validate(tc.req, snap)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: err = %v, want ValidationError", tc.name, err)
		}
		if !errors.Is(err, tc.kind) {
			t.Fatalf("%s: kind = %v, want %v", tc.name, verr.Kind, tc.kind)
		}
		if verr.Message != tc.message {
			t.Fatalf("%s: message = %q, want %q", tc.name, verr.Message, tc.message)
		}
		if state, _ := v.State(); state != ValidationInvalid {
			t.Fatalf("%s: state = %s", tc.name, state)
		}
	}
}

func TestValidatorAccepts(t *testing.T) {
	v := NewValidator()
	if state, _ := v.State(); state != ValidationEmpty {
		t.Fatalf("initial state = %s", state)
	}
	got, err := v.Validate(model.TradeRequest{InputToken: "BBB", Amount: "999999.999999", MaxImpact: "15"}, *testSnapshot())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !got.Input.Equal(token1) || !got.Output.Equal(token0) {
		t.Fatalf("tokens = %s -> %s", got.Input, got.Output)
	}
	if got.MaxImpact.Cmp(big.NewRat(15, 1)) != 0 {
		t.Fatalf("max impact = %s", got.MaxImpact)
	}
	if state, _ := v.State(); state != ValidationValid {
		t.Fatalf("state = %s", state)
	}
	v.Reset()
	if state, _ := v.State(); state != ValidationEmpty {
		t.Fatalf("state after reset = %s", state)
	}
}

func TestCalculateScenarios(t *testing.T) {
	calc := NewCalculator(NewStaticProvider(testSnapshot()))
	ctx := context.Background()

	res, err := calc.Calculate(ctx, model.TradeRequest{InputToken: "AAA", Amount: "10000", MaxImpact: "1"})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if !res.Remediation.Accepted {
		t.Fatalf("expected accepted, real impact %s", res.Trade.RealImpactWithoutFee.FloatString(4))
	}
	if res.Snapshot.Source != model.SourceStatic {
		t.Fatalf("source = %q", res.Snapshot.Source)
	}

	res, err = calc.Calculate(ctx, model.TradeRequest{InputToken: "AAA", Amount: "100000", MaxImpact: "1"})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if res.Remediation.Accepted {
		t.Fatalf("expected rejected")
	}
	if res.Remediation.AddToInputReserve.Sign() <= 0 || res.Remediation.AddToOutputReserve.Sign() <= 0 {
		t.Fatalf("expected positive injections, got %+v", res.Remediation)
	}
	if snap := calc.Lifecycle().Snapshot(); snap.State != StateResolved || snap.Result != res {
		t.Fatalf("lifecycle = %+v", snap)
	}
}

func TestCalculateFailureKeepsResult(t *testing.T) {
	calc := NewCalculator(NewStaticProvider(testSnapshot()))
	ctx := context.Background()
	first, err := calc.Calculate(ctx, model.TradeRequest{InputToken: "AAA", Amount: "10", MaxImpact: "1"})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	_, err = calc.Calculate(ctx, model.TradeRequest{InputToken: "AAA", Amount: "abc", MaxImpact: "1"})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("err = %v", err)
	}
	snap := calc.Lifecycle().Snapshot()
	if snap.State != StateFailed || snap.Result != first || !errors.Is(snap.Err, ErrInvalidAmount) {
		t.Fatalf("lifecycle = %+v", snap)
	}

	calc.Dismiss()
	snap = calc.Lifecycle().Snapshot()
	if snap.State != StateIdle || snap.Result != nil || snap.Err != nil {
		t.Fatalf("after dismiss = %+v", snap)
	}
}

func TestCalculateNotReady(t *testing.T) {
	provider := NewStaticProvider(nil)
	calc := NewCalculator(provider)
	ctx := context.Background()

	_, err := calc.Calculate(ctx, model.TradeRequest{InputToken: "AAA", Amount: "10", MaxImpact: "1"})
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v, want not ready", err)
	}
	if snap := calc.Lifecycle().Snapshot(); snap.State != StateIdle || snap.Err != nil {
		t.Fatalf("not ready must not fail the lifecycle: %+v", snap)
	}

	provider.Set(testSnapshot())
	if _, err := calc.Calculate(ctx, model.TradeRequest{InputToken: "AAA", Amount: "10", MaxImpact: "1"}); err != nil {
		t.Fatalf("calculate after load: %v", err)
	}
}

type blockingProvider struct {
	entered chan struct{}
	release chan struct{}
}

func (p *blockingProvider) Snapshot(ctx context.Context) (*model.PoolSnapshot, error) {
	close(p.entered)
	select {
	case <-p.release:
		return testSnapshot(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestCalculateBusy(t *testing.T) {
	provider := &blockingProvider{entered: make(chan struct{}), release: make(chan struct{})}
	calc := NewCalculator(provider)
	req := model.TradeRequest{InputToken: "AAA", Amount: "10", MaxImpact: "1"}

	done := make(chan error, 1)
	go func() {
		_, err := calc.Calculate(context.Background(), req)
		done <- err
	}()
	<-provider.entered

	if _, err := calc.Calculate(context.Background(), req); !errors.Is(err, ErrBusy) {
		t.Fatalf("err = %v, want busy", err)
	}
	close(provider.release)
	if err := <-done; err != nil {
		t.Fatalf("first calculation: %v", err)
	}
}

type failingProvider struct{}

func (failingProvider) Snapshot(context.Context) (*model.PoolSnapshot, error) {
	return nil, errors.New("rpc down")
}

func TestCalculateProviderError(t *testing.T) {
	calc := NewCalculator(failingProvider{})
	_, err := calc.Calculate(context.Background(), model.TradeRequest{InputToken: "AAA", Amount: "10", MaxImpact: "1"})
	if err == nil || errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v", err)
	}
	if snap := calc.Lifecycle().Snapshot(); snap.State != StateFailed {
		t.Fatalf("state = %s", snap.State)
	}
}

func TestLifecycleSubscribe(t *testing.T) {
	l := NewLifecycle()
	ctx, cancel := context.WithCancel(context.Background())
	ch := l.Subscribe(ctx)

	first := <-ch
	if first.State != StateIdle {
		t.Fatalf("first = %s", first.State)
	}
	if err := l.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := l.Begin(); !errors.Is(err, ErrBusy) {
		t.Fatalf("second begin = %v", err)
	}
	l.Resolve(&model.Calculation{})

	// only the latest snapshot is kept for a slow reader
	latest := <-ch
	if latest.State != StateResolved || latest.Version != 2 {
		t.Fatalf("latest = %+v", latest)
	}

	cancel()
	timeout := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatalf("channel not closed")
		}
	}
}

func TestLifecycleAbortRestores(t *testing.T) {
	l := NewLifecycle()
	_ = l.Begin()
	l.Fail(errors.New("boom"))
	_ = l.Begin()
	l.Abort()
	if snap := l.Snapshot(); snap.State != StateFailed {
		t.Fatalf("state = %s, want failed", snap.State)
	}
}

func TestCompute(t *testing.T) {
	res, err := Compute(model.TradeRequest{InputToken: "token0", Amount: "100000", MaxImpact: "1"}, *testSnapshot())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if res.Remediation.Accepted {
		t.Fatalf("expected rejection")
	}
	if res.Remediation.AddToInputReserve.Cmp(big.NewRat(8_900_000, 1)) != 0 {
		t.Fatalf("add to input = %s", res.Remediation.AddToInputReserve.FloatString(6))
	}
}

func TestComputeTinyTradeIntoFewerDecimals(t *testing.T) {
	for _, amount := range []string{"0.000001", "0.001"} {
		res, err := Compute(model.TradeRequest{InputToken: "AAA", Amount: amount, MaxImpact: "1"}, *testSnapshot())
		if err != nil {
			t.Fatalf("%s: compute: %v", amount, err)
		}
		if !res.Remediation.Accepted {
			t.Fatalf("%s: expected acceptance", amount)
		}
		if res.Trade.RealImpactWithoutFee.Cmp(big.NewRat(1, 10000)) >= 0 {
			t.Fatalf("%s: real impact = %s, want ~0", amount, res.Trade.RealImpactWithoutFee.FloatString(8))
		}
	}
}
