package model

import (
	"math/big"
	"time"
)

// WindowStats sums pool window metrics over a time range. Amounts are in
// token units.
type WindowStats struct {
	Since     time.Time
	Until     time.Time
	SwapCount uint64
	Volume0   *big.Rat
	Volume1   *big.Rat
	Fee0      *big.Rat
	Fee1      *big.Rat
}
