// Package amm evaluates constant-product swaps and solves for the liquidity
// needed to keep a trade within a price impact threshold.
package amm

import "math/big"

// fee: 0.3% => multiplier 997/1000
var (
	feeMul = big.NewInt(997)
	feeDen = big.NewInt(1000)
)

// FeePercent is the protocol fee expressed in percent.
var FeePercent = big.NewRat(3, 10)

// GetAmountOut returns the raw output of an exact-input swap, mirroring the
// Uniswap V2 router. dst, t1 and t2 are scratch values and may be reused.
func GetAmountOut(dst, t1, t2 *big.Int, amountIn, reserveIn, reserveOut *big.Int) *big.Int {
	// t1 = amountIn * 997
	t1.Mul(amountIn, feeMul)
	// t2 = reserveIn * 1000 + t1
	t2.Mul(reserveIn, feeDen)
	t2.Add(t2, t1)
	// dst = t1 * reserveOut / t2
	dst.Mul(t1, reserveOut)
	return dst.Div(dst, t2)
}
