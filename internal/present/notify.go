package present

import (
	"errors"

	"pairScope/internal/calc"
)

// Notification levels.
const (
	LevelInfo  = "info"
	LevelError = "error"
)

// Notification is a transient, dismissible message.
type Notification struct {
	Level   string `json:"level"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Notify maps a calculation error to the message shown to users. Internal
// failures never expose details.
func Notify(err error) Notification {
	var verr *calc.ValidationError
	switch {
	case err == nil:
		return Notification{}
	case errors.As(err, &verr):
		return Notification{Level: LevelError, Kind: kindOf(verr.Kind), Message: verr.Message}
	case errors.Is(err, calc.ErrNotReady):
		return Notification{Level: LevelInfo, Kind: "not_ready", Message: "loading pool reserves"}
	case errors.Is(err, calc.ErrBusy):
		return Notification{Level: LevelInfo, Kind: "busy", Message: "calculation in progress"}
	default:
		return Notification{Level: LevelError, Kind: "internal", Message: "calculation failed"}
	}
}

func kindOf(err error) string {
	switch {
	case errors.Is(err, calc.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, calc.ErrInsufficientReserve):
		return "insufficient_reserve"
	case errors.Is(err, calc.ErrImpactOutOfRange):
		return "impact_out_of_range"
	default:
		return "internal"
	}
}
