package amm

import "errors"

var (
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInsufficientReserve   = errors.New("insufficient reserve")
	ErrImpactOutOfRange      = errors.New("impact out of range")
	ErrInternalInconsistency = errors.New("internal inconsistency")
	ErrUnknownToken          = errors.New("unknown token")
	ErrEmptyReserves         = errors.New("empty reserves")
)
