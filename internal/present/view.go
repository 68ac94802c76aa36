package present

import (
	"time"

	"pairScope/internal/calc"
	"pairScope/internal/model"
	"pairScope/internal/overview"
)

// CalculationView is the JSON form of a calculation.
type CalculationView struct {
	InputToken           model.Token `json:"input_token"`
	OutputToken          model.Token `json:"output_token"`
	AmountIn             string      `json:"amount_in"`
	AmountOut            string      `json:"amount_out"`
	ExecutionPrice       string      `json:"execution_price"`
	PriceImpact          string      `json:"price_impact"`
	RealImpactWithoutFee string      `json:"real_impact_without_fee"`
	MaxImpact            string      `json:"max_impact"`
	Accepted             bool        `json:"accepted"`
	AddToInputReserve    string      `json:"add_to_input_reserve,omitempty"`
	AddToOutputReserve   string      `json:"add_to_output_reserve,omitempty"`
	BlockNumber          uint64      `json:"block_number"`
	ComputedAt           time.Time   `json:"computed_at"`
	Text                 string      `json:"text"`
}

func NewCalculationView(c *model.Calculation) *CalculationView {
	if c == nil {
		return nil
	}
	t := c.Trade
	v := &CalculationView{
		InputToken:           t.InputToken,
		OutputToken:          t.OutputToken,
		AmountIn:             Amount(t.AmountIn),
		AmountOut:            Amount(t.AmountOut),
		ExecutionPrice:       Amount(t.ExecutionPrice),
		PriceImpact:          Percent(t.PriceImpact, PercentPlaces),
		RealImpactWithoutFee: Percent(t.RealImpactWithoutFee, PercentPlaces),
		MaxImpact:            Percent(c.MaxImpact, PercentPlaces),
		Accepted:             c.Remediation.Accepted,
		BlockNumber:          c.Snapshot.BlockNumber,
		ComputedAt:           c.ComputedAt,
		Text:                 Render(c),
	}
	if !c.Remediation.Accepted {
		v.AddToInputReserve = Amount(c.Remediation.AddToInputReserve)
		v.AddToOutputReserve = Amount(c.Remediation.AddToOutputReserve)
	}
	return v
}

// LifecycleView is the JSON form of the request lifecycle.
type LifecycleView struct {
	State        string           `json:"state"`
	Version      uint64           `json:"version"`
	Result       *CalculationView `json:"result,omitempty"`
	Notification *Notification    `json:"notification,omitempty"`
}

func NewLifecycleView(s calc.Snapshot) LifecycleView {
	v := LifecycleView{
		State:   s.State.String(),
		Version: s.Version,
		Result:  NewCalculationView(s.Result),
	}
	if s.Err != nil {
		n := Notify(s.Err)
		v.Notification = &n
	}
	return v
}

// OverviewView is the JSON form of a pair overview.
type OverviewView struct {
	Pair        string      `json:"pair"`
	Token0      model.Token `json:"token0"`
	Token1      model.Token `json:"token1"`
	Reserve0    string      `json:"reserve0"`
	Reserve1    string      `json:"reserve1"`
	Token0Rate  string      `json:"token0_rate"`
	Token1Rate  string      `json:"token1_rate"`
	BlockNumber uint64      `json:"block_number"`
	Timestamp   time.Time   `json:"timestamp"`
	Source      string      `json:"source"`
	Window      *WindowView `json:"window,omitempty"`
}

// WindowView is the JSON form of an overview window.
type WindowView struct {
	Since         time.Time `json:"since"`
	Until         time.Time `json:"until"`
	SwapCount     uint64    `json:"swap_count"`
	Volume0       string    `json:"volume0"`
	Volume1       string    `json:"volume1"`
	Fees0         string    `json:"fees0"`
	Fees1         string    `json:"fees1"`
	FeesEstimated bool      `json:"fees_estimated"`
}

func NewOverviewView(ov *overview.Overview) *OverviewView {
	if ov == nil {
		return nil
	}
	v := &OverviewView{
		Pair:        ov.Pair.Hex(),
		Token0:      ov.Token0,
		Token1:      ov.Token1,
		Reserve0:    Amount(ov.Reserve0),
		Reserve1:    Amount(ov.Reserve1),
		Token0Rate:  rate(ov.Token0Rate),
		Token1Rate:  rate(ov.Token1Rate),
		BlockNumber: ov.BlockNumber,
		Timestamp:   ov.Timestamp,
		Source:      ov.Source,
	}
	if w := ov.Window; w != nil {
		v.Window = &WindowView{
			Since:         w.Since,
			Until:         w.Until,
			SwapCount:     w.SwapCount,
			Volume0:       Amount(w.Volume0),
			Volume1:       Amount(w.Volume1),
			Fees0:         Amount(w.Fees0),
			Fees1:         Amount(w.Fees1),
			FeesEstimated: w.FeesEstimated,
		}
	}
	return v
}
