package amm

import (
	"fmt"
	"math/big"

	"pairScope/internal/model"
)

var hundred = big.NewRat(100, 1)

// Evaluate computes an exact-input swap of amountIn inputToken against pool.
// Impacts are returned in percent and measured on the exact output;
// RealImpactWithoutFee has the flat 0.3% fee taken out so only the
// size-driven slippage remains. AmountOutRaw is what the router would pay
// in the output token's smallest unit.
func Evaluate(pool model.PoolSnapshot, inputToken model.Token, amountIn *big.Rat) (model.TradeResult, error) {
	outputToken, ok := pool.Opposite(inputToken)
	if !ok {
		return model.TradeResult{}, fmt.Errorf("%w: %s", ErrUnknownToken, inputToken)
	}
	reserveIn, _ := pool.ReserveOf(inputToken)
	reserveOut, _ := pool.ReserveOf(outputToken)
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return model.TradeResult{}, ErrEmptyReserves
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return model.TradeResult{}, ErrInvalidAmount
	}
	if amountIn.Cmp(reserveIn) >= 0 {
		return model.TradeResult{}, ErrInsufficientReserve
	}

	rawIn := model.ToRaw(amountIn, inputToken.Decimals)
	if rawIn.Sign() == 0 {
		return model.TradeResult{}, fmt.Errorf("%w: below %d decimals", ErrInvalidAmount, inputToken.Decimals)
	}
	rawReserveIn := model.ToRaw(reserveIn, inputToken.Decimals)
	rawReserveOut := model.ToRaw(reserveOut, outputToken.Decimals)
	if rawReserveIn.Sign() == 0 || rawReserveOut.Sign() == 0 {
		return model.TradeResult{}, ErrEmptyReserves
	}

	var out, t1, t2 big.Int
	rawOut := new(big.Int).Set(GetAmountOut(&out, &t1, &t2, rawIn, rawReserveIn, rawReserveOut))

	amountOut := exactAmountOut(amountIn, reserveIn, reserveOut)
	impact := priceImpact(amountIn, amountOut, reserveIn, reserveOut)

	result := model.TradeResult{
		InputToken:           inputToken,
		OutputToken:          outputToken,
		AmountIn:             new(big.Rat).Set(amountIn),
		AmountOut:            amountOut,
		AmountOutRaw:         rawOut,
		MidPrice:             new(big.Rat).Quo(reserveOut, reserveIn),
		ExecutionPrice:       new(big.Rat).Quo(amountOut, amountIn),
		PriceImpact:          impact,
		RealImpactWithoutFee: new(big.Rat).Sub(impact, FeePercent),
	}
	return result, nil
}

// exactAmountOut is amountIn*997*reserveOut / (reserveIn*1000 + amountIn*997)
// in token units, without rounding to the output token's decimals.
func exactAmountOut(amountIn, reserveIn, reserveOut *big.Rat) *big.Rat {
	inWithFee := new(big.Rat).Mul(amountIn, new(big.Rat).SetFrac(feeMul, feeDen))
	den := new(big.Rat).Add(reserveIn, inWithFee)
	out := new(big.Rat).Mul(inWithFee, reserveOut)
	return out.Quo(out, den)
}

// priceImpact is (quote - out) / quote in percent, where quote is the output
// the trade would get at the pre-trade mid price.
func priceImpact(amountIn, amountOut, reserveIn, reserveOut *big.Rat) *big.Rat {
	quote := new(big.Rat).Mul(amountIn, reserveOut)
	quote.Quo(quote, reserveIn)
	slippage := new(big.Rat).Sub(quote, amountOut)
	slippage.Quo(slippage, quote)
	return slippage.Mul(slippage, hundred)
}
