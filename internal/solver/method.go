package solver

import (
	"fmt"
	"strings"
)

// Func is a real function of one variable.
type Func interface {
	Eval(x float64) (float64, error)
}

// FuncOf adapts a plain Go function to Func.
type FuncOf func(float64) float64

// Eval implements Func.
func (f FuncOf) Eval(x float64) (float64, error) { return f(x), nil }

// Method is one of Bisection, FalsePosition, Secant or Newton. Each variant
// carries only its own state; the set is closed to this package.
type Method interface {
	// Name is the method tag, e.g. "false_position".
	Name() string
	// Columns lists the state columns of a trace record, c included.
	Columns() []string

	check(fn *funcs) error
	estimate(fn *funcs, k int) (float64, error)
	snapshot(fn *funcs, c float64) ([]float64, error)
	advance(fn *funcs, c float64) (Method, error)
}

// funcs bundles f and its optional derivative for the update rules.
type funcs struct {
	f  Func
	df Func
}

func (fn *funcs) at(x float64) (float64, error) {
	y, err := fn.f.Eval(x)
	if err != nil {
		return 0, fmt.Errorf("solver: evaluate f(%g): %w", x, err)
	}
	return y, nil
}

func (fn *funcs) slopeAt(x float64) (float64, error) {
	y, err := fn.df.Eval(x)
	if err != nil {
		return 0, fmt.Errorf("solver: evaluate f'(%g): %w", x, err)
	}
	return y, nil
}

// values evaluates f at every point in order.
func (fn *funcs) values(xs ...float64) ([]float64, error) {
	ys := make([]float64, len(xs))
	for i, x := range xs {
		y, err := fn.at(x)
		if err != nil {
			return nil, err
		}
		ys[i] = y
	}
	return ys, nil
}

// Bisection halves the bracket [A, B] each step.
type Bisection struct {
	A, B float64
}

// FalsePosition cuts the bracket [A, B] where the chord crosses zero.
type FalsePosition struct {
	A, B float64
}

// Secant iterates on the two most recent points X0, X1.
type Secant struct {
	X0, X1 float64
}

// Newton iterates on X0 using the derivative supplied with WithDerivative.
type Newton struct {
	X0 float64
}

var bracketColumns = []string{"a", "b", "f(a)", "f(b)", "c", "f(c)"}

func (Bisection) Name() string     { return "bisection" }
func (FalsePosition) Name() string { return "false_position" }
func (Secant) Name() string        { return "secant" }
func (Newton) Name() string        { return "newton" }

func (Bisection) Columns() []string     { return append([]string(nil), bracketColumns...) }
func (FalsePosition) Columns() []string { return append([]string(nil), bracketColumns...) }
func (Secant) Columns() []string        { return []string{"x0", "f(x0)", "x1", "f(x1)", "c"} }
func (Newton) Columns() []string        { return []string{"x0", "f(x0)", "f'(x0)", "c"} }

// CheckBracket reports ErrNoSignChange unless f(a)·f(b) < 0.
func CheckBracket(f Func, a, b float64) error {
	fn := &funcs{f: f}
	ys, err := fn.values(a, b)
	if err != nil {
		return err
	}
	if !(ys[0]*ys[1] < 0) {
		return fmt.Errorf("%w (f(%g)=%g, f(%g)=%g)", ErrNoSignChange, a, ys[0], b, ys[1])
	}
	return nil
}

// bracket is the shared state handling of the two bracketing methods.
type bracket struct{ a, b float64 }

func (br bracket) snapshot(fn *funcs, c float64) ([]float64, error) {
	ys, err := fn.values(br.a, br.b, c)
	if err != nil {
		return nil, err
	}
	return []float64{br.a, br.b, ys[0], ys[1], c, ys[2]}, nil
}

// shrink keeps the half of the bracket that still holds the sign change.
func (br bracket) shrink(fn *funcs, c float64) (bracket, error) {
	ys, err := fn.values(br.a, c)
	if err != nil {
		return br, err
	}
	if ys[0]*ys[1] < 0 {
		br.b = c
	} else {
		br.a = c
	}
	return br, nil
}

func (m Bisection) check(fn *funcs) error { return CheckBracket(fn.f, m.A, m.B) }

func (m Bisection) estimate(*funcs, int) (float64, error) {
	return (m.A + m.B) / 2, nil
}

func (m Bisection) snapshot(fn *funcs, c float64) ([]float64, error) {
	return bracket{m.A, m.B}.snapshot(fn, c)
}

func (m Bisection) advance(fn *funcs, c float64) (Method, error) {
	br, err := bracket{m.A, m.B}.shrink(fn, c)
	return Bisection{A: br.a, B: br.b}, err
}

func (m FalsePosition) check(fn *funcs) error { return CheckBracket(fn.f, m.A, m.B) }

func (m FalsePosition) estimate(fn *funcs, k int) (float64, error) {
	ys, err := fn.values(m.A, m.B)
	if err != nil {
		return 0, err
	}
	fa, fb := ys[0], ys[1]
	if fb-fa == 0 {
		return 0, &ArithmeticError{Method: m.Name(), Iteration: k, Term: "f(b)-f(a)"}
	}
	return m.A - fa*(m.B-m.A)/(fb-fa), nil
}

func (m FalsePosition) snapshot(fn *funcs, c float64) ([]float64, error) {
	return bracket{m.A, m.B}.snapshot(fn, c)
}

func (m FalsePosition) advance(fn *funcs, c float64) (Method, error) {
	br, err := bracket{m.A, m.B}.shrink(fn, c)
	return FalsePosition{A: br.a, B: br.b}, err
}

func (Secant) check(*funcs) error { return nil }

func (m Secant) estimate(fn *funcs, k int) (float64, error) {
	ys, err := fn.values(m.X0, m.X1)
	if err != nil {
		return 0, err
	}
	f0, f1 := ys[0], ys[1]
	if f1-f0 == 0 {
		return 0, &ArithmeticError{Method: m.Name(), Iteration: k, Term: "f(x1)-f(x0)"}
	}
	return m.X1 - f1*(m.X1-m.X0)/(f1-f0), nil
}

func (m Secant) snapshot(fn *funcs, c float64) ([]float64, error) {
	ys, err := fn.values(m.X0, m.X1)
	if err != nil {
		return nil, err
	}
	return []float64{m.X0, ys[0], m.X1, ys[1], c}, nil
}

func (m Secant) advance(_ *funcs, c float64) (Method, error) {
	return Secant{X0: m.X1, X1: c}, nil
}

func (Newton) check(fn *funcs) error {
	if fn.df == nil {
		return ErrMissingDerivative
	}
	return nil
}

func (m Newton) estimate(fn *funcs, k int) (float64, error) {
	y, err := fn.at(m.X0)
	if err != nil {
		return 0, err
	}
	dy, err := fn.slopeAt(m.X0)
	if err != nil {
		return 0, err
	}
	if dy == 0 {
		return 0, &ArithmeticError{Method: m.Name(), Iteration: k, Term: "f'(x0)"}
	}
	return m.X0 - y/dy, nil
}

func (m Newton) snapshot(fn *funcs, c float64) ([]float64, error) {
	y, err := fn.at(m.X0)
	if err != nil {
		return nil, err
	}
	dy, err := fn.slopeAt(m.X0)
	if err != nil {
		return nil, err
	}
	return []float64{m.X0, y, dy, c}, nil
}

func (Newton) advance(_ *funcs, c float64) (Method, error) {
	return Newton{X0: c}, nil
}

// Bracketing reports whether m needs a sign-changing interval.
func Bracketing(m Method) bool {
	switch m.(type) {
	case Bisection, FalsePosition:
		return true
	}
	return false
}

// Names lists the method tags in menu order.
var Names = []string{"bisection", "false_position", "secant", "newton"}

// ParseMethod builds a method from its tag. Bracketing methods take (a, b),
// Secant (x0, x1) and Newton (x0); missing points default to zero.
func ParseMethod(name string, points ...float64) (Method, error) {
	p := func(i int) float64 {
		if i < len(points) {
			return points[i]
		}
		return 0
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bisection":
		return Bisection{A: p(0), B: p(1)}, nil
	case "false_position", "false position", "falseposition", "regula_falsi":
		return FalsePosition{A: p(0), B: p(1)}, nil
	case "secant":
		return Secant{X0: p(0), X1: p(1)}, nil
	case "newton", "newton_raphson":
		return Newton{X0: p(0)}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, name)
}

// MethodByChoice maps a 1-based menu choice to a method tag.
func MethodByChoice(choice int) (string, error) {
	if choice < 1 || choice > len(Names) {
		return "", fmt.Errorf("%w: choice %d not in 1-%d", ErrInvalidMethod, choice, len(Names))
	}
	return Names[choice-1], nil
}
