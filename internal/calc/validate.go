package calc

import (
	"fmt"
	"math/big"
	"regexp"
	"sync"

	"github.com/shopspring/decimal"

	"pairScope/internal/amm"
	"pairScope/internal/model"
)

var amountPattern = regexp.MustCompile(`^[0-9]+([.][0-9]+)?$`)

// ValidationState tracks the validator through one request.
type ValidationState int

const (
	ValidationEmpty ValidationState = iota
	ValidationValidating
	ValidationValid
	ValidationInvalid
)

func (s ValidationState) String() string {
	switch s {
	case ValidationEmpty:
		return "empty"
	case ValidationValidating:
		return "validating"
	case ValidationValid:
		return "valid"
	case ValidationInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("ValidationState(%d)", int(s))
	}
}

// Validated is a request that passed every check, with amounts parsed.
type Validated struct {
	Input     model.Token
	Output    model.Token
	Amount    *big.Rat
	MaxImpact *big.Rat
}

// Validator checks trade requests against a pool snapshot before any
// evaluation runs.
type Validator struct {
	mu    sync.Mutex
	state ValidationState
	err   error
}

func NewValidator() *Validator {
	return &Validator{}
}

// State returns the current state and, when invalid, the failure.
func (v *Validator) State() (ValidationState, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state, v.err
}

// Reset returns the validator to Empty.
func (v *Validator) Reset() {
	v.set(ValidationEmpty, nil)
}

// Validate runs the checks in order: number format, reserve bound, impact
// range. The first failure is returned as a *ValidationError.
func (v *Validator) Validate(req model.TradeRequest, pool model.PoolSnapshot) (Validated, error) {
	v.set(ValidationValidating, nil)
	out, err := validate(req, pool)
	if err != nil {
		v.set(ValidationInvalid, err)
		return Validated{}, err
	}
	v.set(ValidationValid, nil)
	return out, nil
}

func (v *Validator) set(state ValidationState, err error) {
	v.mu.Lock()
	v.state = state
	v.err = err
	v.mu.Unlock()
}

func validate(req model.TradeRequest, pool model.PoolSnapshot) (Validated, error) {
	amount, ok := parseAmount(req.Amount)
	if !ok {
		return Validated{}, invalid(ErrInvalidAmount, "invalid input")
	}
	maxImpact, ok := parseAmount(req.MaxImpact)
	if !ok {
		return Validated{}, invalid(ErrInvalidAmount, "invalid input")
	}
	input, ok := pool.Lookup(req.InputToken)
	if !ok {
		return Validated{}, invalid(ErrInvalidAmount, "invalid input")
	}
	output, _ := pool.Opposite(input)
	if amount.Sign() <= 0 || model.ToRaw(amount, input.Decimals).Sign() == 0 {
		return Validated{}, invalid(ErrInvalidAmount, "invalid input")
	}

	reserve, ok := pool.ReserveOf(input)
	if !ok || amount.Cmp(reserve) >= 0 {
		var shown string
		if reserve != nil {
			shown = model.FormatUnits(reserve, input.Decimals)
		} else {
			shown = "0"
		}
		return Validated{}, invalid(ErrInsufficientReserve, fmt.Sprintf("input %s must be < %s", input, shown))
	}

	if !amm.ImpactInRange(maxImpact) {
		msg := fmt.Sprintf("impact must be between %s and %s", ratText(amm.MinImpact), ratText(amm.MaxImpact))
		return Validated{}, invalid(ErrImpactOutOfRange, msg)
	}

	return Validated{Input: input, Output: output, Amount: amount, MaxImpact: maxImpact}, nil
}

func parseAmount(s string) (*big.Rat, bool) {
	if !amountPattern.MatchString(s) {
		return nil, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, false
	}
	return d.Rat(), true
}

func ratText(r *big.Rat) string {
	return model.ToDecimal(r, 2).String()
}
