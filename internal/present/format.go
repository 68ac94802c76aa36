// Package present formats calculations and overviews for people: amounts to
// six significant digits, percentages to two decimals.
package present

import (
	"math/big"
	"strings"

	"pairScope/internal/model"
)

const (
	AmountDigits   = 6
	PercentPlaces  = 2
	divisionPlaces = 40
)

// Significant renders r rounded to digits significant digits.
func Significant(r *big.Rat, digits int) string {
	if r == nil || r.Sign() == 0 {
		return "0"
	}
	d := model.ToDecimal(r, divisionPlaces)
	if d.IsZero() {
		return "0"
	}
	msd := int32(d.NumDigits()) + d.Exponent()
	return d.Round(int32(digits) - msd).String()
}

// Amount renders a token amount with AmountDigits significant digits.
func Amount(r *big.Rat) string {
	return Significant(r, AmountDigits)
}

// Percent renders r with places decimals. Negative values that round to
// zero are shown as zero.
func Percent(r *big.Rat, places int) string {
	if r == nil {
		return "-"
	}
	s := r.FloatString(places)
	if strings.HasPrefix(s, "-") && strings.Trim(s, "-0.") == "" {
		return s[1:]
	}
	return s
}
