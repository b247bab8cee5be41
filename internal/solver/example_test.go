package solver_test

import (
	"fmt"

	"github.com/adamehabm/Numerical-Project/internal/solver"
)

func ExampleSolve() {
	f := solver.FuncOf(func(x float64) float64 { return x*x - 2 })

	res, err := solver.Solve(
		solver.Bisection{A: 1, B: 2},
		f,
		solver.ByTolerance{Threshold: 0.0001, ErrorType: solver.Absolute},
	)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("root %.3f after %d iterations (%s)\n", res.Root, res.Iterations(), res.Reason)
	// Output: root 1.414 after 14 iterations (tolerance)
}

func ExampleSolve_newton() {
	f := solver.FuncOf(func(x float64) float64 { return x*x*x - x - 2 })
	df := solver.FuncOf(func(x float64) float64 { return 3*x*x - 1 })

	res, _ := solver.Solve(solver.Newton{X0: 1.5}, f, solver.ByIterationCap{Max: 5}, solver.WithDerivative(df))
	for _, rec := range res.Trace[:2] {
		fmt.Println(rec.Iteration, rec.Estimate, rec.AbsError)
	}
	// Output:
	// 1 1.52174 N/A
	// 2 1.52138 0.00036
}
