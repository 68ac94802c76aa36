package model

import (
	"math/big"

	"github.com/shopspring/decimal"
)

var ten = big.NewInt(10)

// Scale returns 10^decimals.
func Scale(decimals uint8) *big.Int {
	return new(big.Int).Exp(ten, big.NewInt(int64(decimals)), nil)
}

// ToRaw converts a token-unit amount into raw integer units, truncating
// anything below the token precision.
func ToRaw(amount *big.Rat, decimals uint8) *big.Int {
	if amount == nil {
		return big.NewInt(0)
	}
	scaled := new(big.Rat).Mul(amount, new(big.Rat).SetInt(Scale(decimals)))
	return new(big.Int).Quo(scaled.Num(), scaled.Denom())
}

// FromRaw converts raw integer units into an exact token-unit amount.
func FromRaw(raw *big.Int, decimals uint8) *big.Rat {
	if raw == nil {
		return new(big.Rat)
	}
	return new(big.Rat).SetFrac(raw, Scale(decimals))
}

// FormatUnits renders amount rounded to the token precision, without
// trailing zeros.
func FormatUnits(amount *big.Rat, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	return ToDecimal(amount, int32(decimals)).String()
}

// ToDecimal converts r to a decimal rounded to places digits after the point.
func ToDecimal(r *big.Rat, places int32) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	num := decimal.NewFromBigInt(r.Num(), 0)
	return num.DivRound(decimal.NewFromBigInt(r.Denom(), 0), places)
}
