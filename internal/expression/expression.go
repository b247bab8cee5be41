// Package expression turns the text of f(x) into callable functions for f
// and its first derivative. f is evaluated by govaluate; f' is built
// symbolically from the same text.
package expression

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
	"gonum.org/v1/gonum/floats"
)

// Variable is the only free symbol an expression may use.
const Variable = "x"

var (
	// ErrEmpty is returned for blank input.
	ErrEmpty = errors.New("expression: empty expression")
	// ErrSyntax wraps a parse failure.
	ErrSyntax = errors.New("expression: syntax error")
	// ErrNoVariable is returned when the expression does not mention x.
	ErrNoVariable = errors.New("expression: the function must be in terms of 'x'")
	// ErrForeignVariable is returned when the expression uses other symbols.
	ErrForeignVariable = errors.New("expression: only the variable 'x' is allowed")
	// ErrNotNumeric is returned when evaluation yields a non-number.
	ErrNotNumeric = errors.New("expression: result is not a number")
)

var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

// Expression is a parsed f(x). It is safe for concurrent use.
type Expression struct {
	text   string
	parsed *govaluate.EvaluableExpression
	deriv  Derivative
}

// Parse compiles text. "^" is read as a power, like "**".
func Parse(text string) (*Expression, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmpty
	}

	source := strings.ReplaceAll(text, "^", "**")
	parsed, err := govaluate.NewEvaluableExpressionWithFunctions(source, functions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	var foreign []string
	hasX := false
	for _, v := range parsed.Vars() {
		switch {
		case v == Variable:
			hasX = true
		case isConstant(v):
		default:
			foreign = append(foreign, v)
		}
	}
	if len(foreign) > 0 {
		sort.Strings(foreign)
		return nil, fmt.Errorf("%w: found %s", ErrForeignVariable, strings.Join(foreign, ", "))
	}
	if !hasX {
		return nil, ErrNoVariable
	}

	return &Expression{text: text, parsed: parsed, deriv: differentiate(source)}, nil
}

func isConstant(name string) bool {
	_, ok := constants[name]
	return ok
}

// String returns the source text.
func (e *Expression) String() string { return e.text }

// point supplies x and the named constants to govaluate.
type point float64

func (p point) Get(name string) (interface{}, error) {
	if name == Variable {
		return float64(p), nil
	}
	if c, ok := constants[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrForeignVariable, name)
}

// Eval computes f(x).
func (e *Expression) Eval(x float64) (float64, error) {
	v, err := e.parsed.Eval(point(x))
	if err != nil {
		return math.NaN(), err
	}

	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case bool:
		return math.NaN(), fmt.Errorf("%w: got boolean %v", ErrNotNumeric, t)
	case string:
		parsed, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return math.NaN(), fmt.Errorf("%w: %q", ErrNotNumeric, t)
		}
		return parsed, nil
	default:
		return math.NaN(), fmt.Errorf("%w: %T", ErrNotNumeric, v)
	}
}

// Sample evaluates f at n evenly spaced points of [a, b]. Points where f
// fails or is not finite get NaN.
func (e *Expression) Sample(a, b float64, n int) (xs, ys []float64) {
	if n < 2 {
		n = 2
	}
	xs = floats.Span(make([]float64, n), a, b)
	ys = make([]float64, n)
	for i, x := range xs {
		y, err := e.Eval(x)
		if err != nil || math.IsNaN(y) || math.IsInf(y, 0) {
			y = math.NaN()
		}
		ys[i] = y
	}
	return xs, ys
}
