package problem

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamehabm/Numerical-Project/internal/expression"
	"github.com/adamehabm/Numerical-Project/internal/solver"
)

func ptr[T any](v T) *T { return &v }

const yamlDoc = `
problems:
  - function: x^2 - 2
    method: bisection
    a: 1.0
    b: 2.0
    stop:
      tolerance: 0.0001
      error_type: absolute
  - function: x**3 - x - 2
    method: newton
    x0: 1.5
    stop:
      max_iterations: 5
`

const tomlDoc = `
[[problems]]
function = "x**3 - x - 2"
method = "secant"
x0 = 1.0
x1 = 2.0

[problems.stop]
decimal_places = 4
max_iterations = 50
`

const jsonDoc = `{"problems": [{"func": "x - 1", "method": "false_position", "a": 0, "b": 3, "stop": {"maxIterations": 3}}]}`

func TestDecode(t *testing.T) {
	specs, err := Decode(strings.NewReader(yamlDoc), YAML)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "x^2 - 2", specs[0].Function)
	assert.Equal(t, "bisection", specs[0].Method)
	assert.Equal(t, 1.0, *specs[0].A)
	assert.Equal(t, 0.0001, *specs[0].Stop.Tolerance)
	assert.Equal(t, "absolute", specs[0].Stop.ErrorType)
	assert.Equal(t, 5, *specs[1].Stop.MaxIterations)

	specs, err = Decode(strings.NewReader(tomlDoc), TOML)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "secant", specs[0].Method)
	assert.Equal(t, 2.0, *specs[0].X1)
	assert.Equal(t, 4, *specs[0].Stop.DecimalPlaces)

	specs, err = Decode(strings.NewReader(jsonDoc), JSON)
	require.NoError(t, err)
	assert.Equal(t, "false_position", specs[0].Method)

	_, err = Decode(strings.NewReader(`{"problems": []}`), JSON)
	assert.ErrorIs(t, err, ErrNoProblems)

	_, err = Decode(strings.NewReader(""), Format("ini"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "problems.yml")
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	specs, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, specs, 2)

	_, err = Load(filepath.Join(dir, "problems.ini"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestBuildAndRun(t *testing.T) {
	specs, err := Decode(strings.NewReader(yamlDoc), YAML)
	require.NoError(t, err)

	plan, err := specs[0].Build()
	require.NoError(t, err)
	assert.Equal(t, solver.Bisection{A: 1, B: 2}, plan.Method)
	assert.Equal(t, solver.ByTolerance{Threshold: 0.0001, ErrorType: solver.Absolute}, plan.Rule)

	res, err := plan.Run()
	require.NoError(t, err)
	assert.Equal(t, 14, res.Iterations())

	plan, err = specs[1].Build()
	require.NoError(t, err)
	res, err = plan.Run()
	require.NoError(t, err)
	assert.Len(t, res.Trace, 5)
	assert.InDelta(t, 1.5213797, res.Root, 1e-6)
}

func TestRun_NewtonFlatStart(t *testing.T) {
	// f'(0) = 3·0² is exactly zero, so the first Newton step has no slope.
	spec := Spec{Function: "x**3 - 1", Method: "newton", X0: ptr(0.0), Stop: Stop{MaxIterations: ptr(3)}}
	plan, err := spec.Build()
	require.NoError(t, err)

	res, err := plan.Run()
	require.ErrorIs(t, err, solver.ErrDivisionByZero)

	var arith *solver.ArithmeticError
	require.ErrorAs(t, err, &arith)
	assert.Equal(t, "newton", arith.Method)
	assert.Equal(t, 1, arith.Iteration)
	assert.Empty(t, res.Trace)
}

func TestBuild_Errors(t *testing.T) {
	cap5 := Stop{MaxIterations: ptr(5)}
	tests := []struct {
		name string
		spec Spec
		want error
	}{
		{"bad function", Spec{Function: "x + y", Method: "secant", X0: ptr(1.0), X1: ptr(2.0), Stop: cap5}, expression.ErrForeignVariable},
		{"bad method", Spec{Function: "x", Method: "golden", Stop: cap5}, solver.ErrInvalidMethod},
		{"missing bound", Spec{Function: "x", Method: "bisection", A: ptr(-1.0), Stop: cap5}, ErrMissingPoint},
		{"missing guess", Spec{Function: "x", Method: "newton", Stop: cap5}, ErrMissingPoint},
		{"same sign", Spec{Function: "x**2 - 2", Method: "false_position", A: ptr(2.0), B: ptr(3.0), Stop: cap5}, solver.ErrNoSignChange},
		{"no stop", Spec{Function: "x", Method: "newton", X0: ptr(1.0)}, solver.ErrNoStoppingRule},
		{"bad error type", Spec{Function: "x", Method: "newton", X0: ptr(1.0), Stop: Stop{Tolerance: ptr(0.1), ErrorType: "relative-ish"}}, solver.ErrInvalidErrorType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.spec.Build()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStopRule(t *testing.T) {
	rule, err := Stop{Tolerance: ptr(0.5)}.Rule()
	require.NoError(t, err)
	assert.Equal(t, solver.ByTolerance{Threshold: 0.5, ErrorType: solver.Percentage}, rule)

	rule, err = Stop{Tolerance: ptr(0.5), MaxIterations: ptr(9), DecimalPlaces: ptr(2)}.Rule()
	require.NoError(t, err)
	assert.Equal(t, solver.AnyOf(
		solver.ByTolerance{Threshold: 0.5, ErrorType: solver.Percentage},
		solver.ByIterationCap{Max: 9},
		solver.ByStabilizedDigits{Places: 2},
	), rule)
}
