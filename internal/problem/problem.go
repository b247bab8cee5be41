// Package problem describes a root-finding job declaratively and turns it
// into solver inputs. The same Spec is read from problem files by the CLI and
// from request bodies by the server.
package problem

import (
	"errors"
	"fmt"

	"github.com/adamehabm/Numerical-Project/internal/expression"
	"github.com/adamehabm/Numerical-Project/internal/solver"
)

// ErrMissingPoint is returned when a method lacks its bounds or guesses.
var ErrMissingPoint = errors.New("problem: missing initial point")

// Stop holds the stopping criteria. Unset fields are ignored; when several are
// set they are checked in the order tolerance, max iterations, decimal places.
type Stop struct {
	Tolerance     *float64 `json:"tolerance,omitempty" yaml:"tolerance,omitempty" toml:"tolerance,omitempty"`
	ErrorType     string   `json:"errorType,omitempty" yaml:"error_type,omitempty" toml:"error_type,omitempty"`
	MaxIterations *int     `json:"maxIterations,omitempty" yaml:"max_iterations,omitempty" toml:"max_iterations,omitempty"`
	DecimalPlaces *int     `json:"decimalPlaces,omitempty" yaml:"decimal_places,omitempty" toml:"decimal_places,omitempty"`
}

// Spec is one problem: a function, a method with its starting points and
// the stopping criteria.
type Spec struct {
	Function string   `json:"func" yaml:"function" toml:"function"`
	Method   string   `json:"method" yaml:"method" toml:"method"`
	A        *float64 `json:"a,omitempty" yaml:"a,omitempty" toml:"a,omitempty"`
	B        *float64 `json:"b,omitempty" yaml:"b,omitempty" toml:"b,omitempty"`
	X0       *float64 `json:"x0,omitempty" yaml:"x0,omitempty" toml:"x0,omitempty"`
	X1       *float64 `json:"x1,omitempty" yaml:"x1,omitempty" toml:"x1,omitempty"`
	Stop     Stop     `json:"stop" yaml:"stop" toml:"stop"`
}

// Plan is a validated Spec, ready to solve.
type Plan struct {
	Expr   *expression.Expression
	Method solver.Method
	Rule   solver.StoppingRule
}

// Build parses the function, picks the method and assembles the stopping
// rule. Bracketing methods are checked for a sign change here.
func (s Spec) Build() (Plan, error) {
	expr, err := expression.Parse(s.Function)
	if err != nil {
		return Plan{}, err
	}

	method, err := s.method()
	if err != nil {
		return Plan{}, err
	}
	if m, ok := bracketOf(method); ok {
		if err := solver.CheckBracket(expr, m[0], m[1]); err != nil {
			return Plan{}, err
		}
	}

	rule, err := s.Stop.Rule()
	if err != nil {
		return Plan{}, err
	}

	return Plan{Expr: expr, Method: method, Rule: rule}, nil
}

func (s Spec) method() (solver.Method, error) {
	m, err := solver.ParseMethod(s.Method)
	if err != nil {
		return nil, err
	}

	need := func(name string, v *float64) (float64, error) {
		if v == nil {
			return 0, fmt.Errorf("%w: %s requires %s", ErrMissingPoint, m.Name(), name)
		}
		return *v, nil
	}

	switch m.(type) {
	case solver.Bisection, solver.FalsePosition:
		a, err := need("a", s.A)
		if err != nil {
			return nil, err
		}
		b, err := need("b", s.B)
		if err != nil {
			return nil, err
		}
		return solver.ParseMethod(s.Method, a, b)
	case solver.Secant:
		x0, err := need("x0", s.X0)
		if err != nil {
			return nil, err
		}
		x1, err := need("x1", s.X1)
		if err != nil {
			return nil, err
		}
		return solver.Secant{X0: x0, X1: x1}, nil
	default:
		x0, err := need("x0", s.X0)
		if err != nil {
			return nil, err
		}
		return solver.Newton{X0: x0}, nil
	}
}

func bracketOf(m solver.Method) ([2]float64, bool) {
	switch v := m.(type) {
	case solver.Bisection:
		return [2]float64{v.A, v.B}, true
	case solver.FalsePosition:
		return [2]float64{v.A, v.B}, true
	}
	return [2]float64{}, false
}

// Rule assembles the configured criteria.
func (s Stop) Rule() (solver.StoppingRule, error) {
	var rules []solver.StoppingRule
	if s.Tolerance != nil {
		et, err := solver.ParseErrorType(s.ErrorType)
		if err != nil {
			return nil, err
		}
		rules = append(rules, solver.ByTolerance{Threshold: *s.Tolerance, ErrorType: et})
	}
	if s.MaxIterations != nil {
		rules = append(rules, solver.ByIterationCap{Max: *s.MaxIterations})
	}
	if s.DecimalPlaces != nil {
		rules = append(rules, solver.ByStabilizedDigits{Places: *s.DecimalPlaces})
	}

	switch len(rules) {
	case 0:
		return nil, solver.ErrNoStoppingRule
	case 1:
		return rules[0], nil
	}
	return solver.AnyOf(rules...), nil
}

// Run solves the plan; Newton gets the numeric derivative of the function.
func (p Plan) Run(opts ...solver.Option) (solver.Result, error) {
	opts = append([]solver.Option{solver.WithDerivative(p.Expr.Derivative())}, opts...)
	return solver.Solve(p.Method, p.Expr, p.Rule, opts...)
}
