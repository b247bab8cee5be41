package expression

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
)

func TestDerivative_Exact(t *testing.T) {
	tests := []struct {
		text string
		x    float64
		want float64
	}{
		{"x**3 - 1", 0, 0},
		{"x**2 - 2", 1.5, 3},
		{"x**3 - x - 2", 1.5, 5.75},
		{"x^2", -3, -6},
		{"pow(x, 3) - 2*x", 2, 10},
		{"sin(x)", 0, 1},
		{"cos(x)", 0, 0},
		{"exp(x)", 0, 1},
		{"ln(x)", 4, 0.25},
		{"abs(x)", -2, -1},
		{"5*x - pi", 7, 5},
		{"-x**2", 3, 6},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			e, err := Parse(tt.text)
			require.NoError(t, err)
			got, err := e.Derivative().Eval(tt.x)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDerivative_MatchesFiniteDifference(t *testing.T) {
	texts := []string{
		"x**3 - x - 2",
		"sin(x)*exp(-x)",
		"tan(x) + atan(x)",
		"asin(x/2) - acos(x/3)",
		"sinh(x) + cosh(x) - tanh(x)",
		"log10(x) + sqrt(x)",
		"x / (1 + x**2)",
		"2**x - x**x",
		"pow(x, 2.5) - x % 2",
		"-(x - 1)**3 + e**x",
	}
	points := []float64{0.3, 0.7, 1.2}

	for _, text := range texts {
		t.Run(text, func(t *testing.T) {
			e, err := Parse(text)
			require.NoError(t, err)
			f := func(x float64) float64 {
				y, err := e.Eval(x)
				require.NoError(t, err)
				return y
			}

			for _, x := range points {
				got, err := e.Derivative().Eval(x)
				require.NoError(t, err)
				want := fd.Derivative(f, x, &fd.Settings{Formula: fd.Central})
				assert.InDelta(t, want, got, 1e-5, "x=%g", x)
			}
		})
	}
}

// The derivative tree must read the text the way govaluate does.
func TestParseTree_AgreesWithGovaluate(t *testing.T) {
	texts := []string{
		"x**3 - x - 2",
		"-x**2 + 3",
		"2*x - 3*x/4 - 1",
		"x - 2 - 3",
		"12 / x / 2",
		"sin(x)*exp(-x)",
		"pow(x, 3) - 2**x",
		"x % 3 + 1",
		"ln(x) + log10(x) - sqrt(abs(x))",
		"(x + 1) * (x - 1) / (x + 2)",
		"2 * pi * x - e",
	}
	points := []float64{0.5, 1.5, 4}

	for _, text := range texts {
		t.Run(text, func(t *testing.T) {
			e, err := Parse(text)
			require.NoError(t, err)
			tree, err := parseTree(text)
			require.NoError(t, err)

			for _, x := range points {
				want, err := e.Eval(x)
				require.NoError(t, err)
				assert.InDelta(t, want, tree.eval(x), 1e-12, "x=%g", x)
			}
		})
	}
}

func TestDerivative_Unsupported(t *testing.T) {
	for _, text := range []string{"x > 1 ? x : 0", "x == 1"} {
		t.Run(text, func(t *testing.T) {
			e, err := Parse(text)
			require.NoError(t, err)
			d, err := e.Derivative().Eval(1)
			assert.ErrorIs(t, err, ErrNotDifferentiable)
			assert.True(t, math.IsNaN(d))
		})
	}
}

func TestSimplify(t *testing.T) {
	assert.Equal(t, num(0), mul(variable{}, num(0)))
	assert.Equal(t, variable{}, mul(num(1), variable{}))
	assert.Equal(t, variable{}, add(num(0), variable{}))
	assert.Equal(t, variable{}, negate(negate(variable{})))
	assert.Equal(t, num(8), power(num(2), num(3)))
	assert.Equal(t, num(1), power(variable{}, num(0)))
	assert.Equal(t, num(0), num(7).diff())
}
