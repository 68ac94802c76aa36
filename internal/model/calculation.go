package model

import (
	"math/big"
	"time"
)

// Calculation bundles everything produced by one calculator run.
type Calculation struct {
	Request     TradeRequest
	Snapshot    PoolSnapshot
	MaxImpact   *big.Rat
	Trade       TradeResult
	Remediation RemediationResult
	ComputedAt  time.Time
}

// CalculationRecord is the JSONL representation of a calculation or of a
// rejected request.
type CalculationRecord struct {
	InputToken           string `json:"input_token"`
	OutputToken          string `json:"output_token,omitempty"`
	Amount               string `json:"amount"`
	MaxImpact            string `json:"max_impact"`
	AmountOut            string `json:"amount_out,omitempty"`
	AmountOutRaw         string `json:"amount_out_raw,omitempty"`
	PriceImpact          string `json:"price_impact,omitempty"`
	RealImpactWithoutFee string `json:"real_impact_without_fee,omitempty"`
	Accepted             bool   `json:"accepted"`
	AddToInputReserve    string `json:"add_to_input_reserve,omitempty"`
	AddToOutputReserve   string `json:"add_to_output_reserve,omitempty"`
	BlockNumber          uint64 `json:"block_number,omitempty"`
	Error                string `json:"error,omitempty"`
	ComputedAt           string `json:"computed_at"`
}
