package solver

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrorType selects the error metric compared against a tolerance.
type ErrorType int

const (
	// Percentage compares |c - prev| / |c| · 100.
	Percentage ErrorType = iota
	// Absolute compares |c - prev|.
	Absolute
)

func (t ErrorType) String() string {
	if t == Absolute {
		return "absolute"
	}
	return "percentage"
}

// ParseErrorType accepts "absolute" or "percentage"; empty means percentage.
func ParseErrorType(s string) (ErrorType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "percentage", "percent", "relative":
		return Percentage, nil
	case "absolute":
		return Absolute, nil
	}
	return Percentage, fmt.Errorf("%w: %q", ErrInvalidErrorType, s)
}

// StopReason tells which rule ended a run.
type StopReason int

const (
	// Tolerance: the selected error metric dropped to the threshold.
	Tolerance StopReason = iota + 1
	// IterationCap: the iteration budget was used up.
	IterationCap
	// StabilizedDigits: consecutive estimates agree to n decimal places.
	StabilizedDigits
)

func (r StopReason) String() string {
	switch r {
	case Tolerance:
		return "tolerance"
	case IterationCap:
		return "iteration_cap"
	case StabilizedDigits:
		return "stabilized_digits"
	}
	return "unknown"
}

// MarshalText lets the reason appear by name in JSON.
func (r StopReason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// progress is what a stopping rule sees after each iteration.
type progress struct {
	iteration int
	c         float64
	prev      float64
	hasPrev   bool
	absErr    float64 // +Inf when not applicable
	pctErr    float64 // +Inf when not applicable
}

// StoppingRule decides when Solve halts. Variants are ByTolerance,
// ByIterationCap, ByStabilizedDigits and the composite returned by AnyOf.
type StoppingRule interface {
	validate() error
	stop(p progress) (StopReason, bool)
}

// ByTolerance stops once the chosen error metric is <= Threshold.
type ByTolerance struct {
	Threshold float64
	ErrorType ErrorType
}

// ByIterationCap stops after Max iterations.
type ByIterationCap struct {
	Max int
}

// ByStabilizedDigits stops when consecutive estimates share their integer
// part and first Places fractional digits as text.
type ByStabilizedDigits struct {
	Places int
}

type anyOf []StoppingRule

// AnyOf halts on the first of rules that is satisfied, checked in order.
func AnyOf(rules ...StoppingRule) StoppingRule {
	return anyOf(rules)
}

func (r ByTolerance) validate() error {
	if math.IsNaN(r.Threshold) {
		return fmt.Errorf("%w: tolerance is NaN", ErrInvalidRule)
	}
	return nil
}

func (r ByTolerance) stop(p progress) (StopReason, bool) {
	e := p.pctErr
	if r.ErrorType == Absolute {
		e = p.absErr
	}
	return Tolerance, e <= r.Threshold
}

func (ByIterationCap) validate() error { return nil }

func (r ByIterationCap) stop(p progress) (StopReason, bool) {
	return IterationCap, p.iteration >= r.Max
}

func (r ByStabilizedDigits) validate() error {
	if r.Places < 0 {
		return fmt.Errorf("%w: decimal places %d < 0", ErrInvalidRule, r.Places)
	}
	return nil
}

func (r ByStabilizedDigits) stop(p progress) (StopReason, bool) {
	if !p.hasPrev {
		return StabilizedDigits, false
	}
	return StabilizedDigits, truncateDigits(p.c, r.Places) == truncateDigits(p.prev, r.Places)
}

func (rs anyOf) validate() error {
	if len(rs) == 0 {
		return ErrNoStoppingRule
	}
	for _, r := range rs {
		if r == nil {
			return ErrNoStoppingRule
		}
		if err := r.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (rs anyOf) stop(p progress) (StopReason, bool) {
	for _, r := range rs {
		if reason, ok := r.stop(p); ok {
			return reason, true
		}
	}
	return 0, false
}

// truncateDigits renders v in plain decimal notation and cuts it to n
// fractional digits without rounding. Missing digits are padded with zeros,
// so 2 and 2.0001 agree at n=3. Values straddling a rounding boundary, such
// as 1.2349999 and 1.235, do not agree at n=3.
func truncateDigits(v float64, n int) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) < n {
		frac += strings.Repeat("0", n-len(frac))
	}
	return whole + "." + frac[:n]
}
