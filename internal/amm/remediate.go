package amm

import (
	"fmt"
	"math/big"

	"pairScope/internal/model"
)

// Impact threshold bounds in percent: MinImpact is exclusive, MaxImpact inclusive.
var (
	MinImpact = big.NewRat(1, 100)
	MaxImpact = big.NewRat(15, 1)
)

// ImpactInRange reports whether maxImpact lies in (MinImpact, MaxImpact].
func ImpactInRange(maxImpact *big.Rat) bool {
	return maxImpact != nil && maxImpact.Cmp(MinImpact) > 0 && maxImpact.Cmp(MaxImpact) <= 0
}

// Remediate decides whether realImpact fits within maxImpact (both in
// percent). When it does not, it solves for the reserve x' of the input
// token at which the same trade would hit the threshold,
//
//	x' = amountIn * (1 - p) / p
//
// and returns x' - x for the input side plus the output-side amount that
// keeps the pool price unchanged.
func Remediate(pool model.PoolSnapshot, inputToken model.Token, amountIn, maxImpact, realImpact *big.Rat) (model.RemediationResult, error) {
	if !ImpactInRange(maxImpact) {
		return model.RemediationResult{}, ErrImpactOutOfRange
	}
	if realImpact == nil {
		return model.RemediationResult{}, fmt.Errorf("real impact is nil")
	}
	if realImpact.Cmp(maxImpact) <= 0 {
		return model.RemediationResult{
			Accepted:           true,
			AddToInputReserve:  new(big.Rat),
			AddToOutputReserve: new(big.Rat),
		}, nil
	}

	outputToken, ok := pool.Opposite(inputToken)
	if !ok {
		return model.RemediationResult{}, fmt.Errorf("%w: %s", ErrUnknownToken, inputToken)
	}
	reserveIn, _ := pool.ReserveOf(inputToken)
	reserveOut, _ := pool.ReserveOf(outputToken)
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return model.RemediationResult{}, ErrEmptyReserves
	}

	p := new(big.Rat).Quo(maxImpact, hundred)
	keep := new(big.Rat).Sub(big.NewRat(1, 1), p)

	addIn := new(big.Rat).Mul(amountIn, keep)
	addIn.Quo(addIn, p)
	addIn.Sub(addIn, reserveIn)
	if addIn.Sign() < 0 {
		return model.RemediationResult{}, fmt.Errorf("%w: input side %s", ErrInternalInconsistency, addIn.FloatString(18))
	}

	// reserveIn/reserveOut is the input token's price in output units; dividing
	// by it keeps the pool ratio.
	rate := new(big.Rat).Quo(reserveIn, reserveOut)
	addOut := new(big.Rat).Quo(addIn, rate)

	return model.RemediationResult{
		Accepted:           false,
		AddToInputReserve:  addIn,
		AddToOutputReserve: addOut,
	}, nil
}
