package model

import "math/big"

// TradeRequest is a user-submitted calculation request. Amount and MaxImpact
// are the raw strings typed by the user; MaxImpact is in percent.
type TradeRequest struct {
	InputToken string `json:"input_token"`
	Amount     string `json:"amount"`
	MaxImpact  string `json:"max_impact"`
}

// TradeResult is an exact-input swap evaluated against a pool snapshot.
// Impacts are in percent. AmountOutRaw is AmountOut rounded down to the
// output token's smallest unit.
type TradeResult struct {
	InputToken           Token
	OutputToken          Token
	AmountIn             *big.Rat
	AmountOut            *big.Rat
	AmountOutRaw         *big.Int
	MidPrice             *big.Rat
	ExecutionPrice       *big.Rat
	PriceImpact          *big.Rat
	RealImpactWithoutFee *big.Rat
}

// RemediationResult tells whether a trade fits the impact threshold and, if
// not, how much of each token must be added to the pool.
type RemediationResult struct {
	Accepted           bool
	AddToInputReserve  *big.Rat
	AddToOutputReserve *big.Rat
}
