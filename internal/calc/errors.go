package calc

import (
	"errors"

	"pairScope/internal/amm"
)

// The arithmetic failures are shared with amm so callers can match either.
var (
	ErrInvalidAmount         = amm.ErrInvalidAmount
	ErrInsufficientReserve   = amm.ErrInsufficientReserve
	ErrImpactOutOfRange      = amm.ErrImpactOutOfRange
	ErrInternalInconsistency = amm.ErrInternalInconsistency
	ErrUnknownToken          = amm.ErrUnknownToken
	ErrEmptyReserves         = amm.ErrEmptyReserves

	ErrNotReady = errors.New("pool reserves not ready")
	ErrBusy     = errors.New("calculation already in progress")
)

// ValidationError is a rejected request. Message is safe to show to users.
type ValidationError struct {
	Kind    error
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func invalid(kind error, message string) *ValidationError {
	return &ValidationError{Kind: kind, Message: message}
}
