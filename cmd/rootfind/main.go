// Command rootfind finds a root of f(x) with bisection, false position,
// secant or Newton's method and prints every iteration.
//
// Without arguments it asks for the function, the method, the stopping rule
// and the starting points. With -problems it solves every problem of a
// YAML, TOML or JSON file:
//
//	rootfind -problems problems.yaml
//	rootfind -problems problems.toml -csv out/
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/adamehabm/Numerical-Project/internal/config"
	"github.com/adamehabm/Numerical-Project/internal/logging"
	"github.com/adamehabm/Numerical-Project/internal/problem"
	"github.com/adamehabm/Numerical-Project/internal/report"
	"github.com/adamehabm/Numerical-Project/internal/session"
)

func main() {
	cfg := config.LoadOrDefault()

	problems := flag.String("problems", "", "solve the problems in this YAML, TOML or JSON file")
	csvDir := flag.String("csv", "", "with -problems, also write each trace as CSV into this directory")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *verbose {
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	}
	log, err := logging.New(cfg.Logging.Logger())
	if err != nil {
		log = logging.NewDefault()
	}
	defer log.Sync()

	if *problems == "" {
		if err := session.New(os.Stdin, os.Stdout, log).Run(); err != nil {
			log.Debug("session ended", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	if err := runBatch(*problems, *csvDir, log); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// runBatch solves every problem of the file. A failing problem is reported
// and the rest still run.
func runBatch(path, csvDir string, log *zap.Logger) error {
	specs, err := problem.Load(path)
	if err != nil {
		return err
	}

	var failed error
	for i, spec := range specs {
		if err := solveOne(i+1, spec, csvDir); err != nil {
			log.Warn("problem failed", zap.Int("problem", i+1), zap.String("func", spec.Function), zap.Error(err))
			fmt.Fprintf(os.Stdout, "\nProblem %d (%s): %v\n", i+1, spec.Function, err)
			failed = errors.Join(failed, fmt.Errorf("problem %d: %w", i+1, err))
		}
	}
	return failed
}

func solveOne(n int, spec problem.Spec, csvDir string) error {
	plan, err := spec.Build()
	if err != nil {
		return err
	}
	res, err := plan.Run()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "\nProblem %d: f(x) = %s\n", n, plan.Expr)
	if err := report.WriteTable(os.Stdout, plan.Method, &res); err != nil {
		return err
	}
	if csvDir == "" {
		return nil
	}

	f, err := os.Create(filepath.Join(csvDir, fmt.Sprintf("problem_%d_%s.csv", n, plan.Method.Name())))
	if err != nil {
		return err
	}
	defer f.Close()
	return report.WriteCSV(f, plan.Method, res.Trace)
}
