package solver

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Solve and the parsing helpers.
var (
	// ErrInvalidMethod is returned for a nil method or an unknown method name.
	ErrInvalidMethod = errors.New("solver: invalid method selected")

	// ErrNilFunction is returned when no function was supplied.
	ErrNilFunction = errors.New("solver: function is nil")

	// ErrMissingDerivative is returned when Newton is run without WithDerivative.
	ErrMissingDerivative = errors.New("solver: newton method requires a derivative")

	// ErrNoStoppingRule is returned when no stopping rule was supplied.
	ErrNoStoppingRule = errors.New("solver: no stopping rule configured")

	// ErrInvalidRule is returned for a stopping rule with unusable parameters.
	ErrInvalidRule = errors.New("solver: invalid stopping rule")

	// ErrInvalidErrorType is returned by ParseErrorType.
	ErrInvalidErrorType = errors.New("solver: error type must be absolute or percentage")

	// ErrNoSignChange is returned when a bracketing method gets f(a) and f(b)
	// without opposite signs.
	ErrNoSignChange = errors.New("solver: f(a) and f(b) must have opposite signs")

	// ErrDivisionByZero is the arithmetic fault of a degenerate update rule.
	ErrDivisionByZero = errors.New("solver: division by zero")

	// ErrStopped is returned by an OnIteration observer to abort a run.
	ErrStopped = errors.New("solver: stopped by callback")
)

// ArithmeticError reports a zero denominator inside an update rule.
type ArithmeticError struct {
	Method    string
	Iteration int
	Term      string // the vanishing denominator, e.g. "f(x1)-f(x0)"
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("solver: %s: division by zero at iteration %d (%s = 0)", e.Method, e.Iteration, e.Term)
}

func (e *ArithmeticError) Unwrap() error {
	return ErrDivisionByZero
}
