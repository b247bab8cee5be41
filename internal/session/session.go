// Package session runs the interactive prompt flow: read f(x), a method, a
// stopping rule and the starting points, solve, and print the trace.
package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/adamehabm/Numerical-Project/internal/expression"
	"github.com/adamehabm/Numerical-Project/internal/report"
	"github.com/adamehabm/Numerical-Project/internal/solver"
)

var (
	// ErrInvalidChoice is returned for an out-of-range menu selection.
	ErrInvalidChoice = errors.New("session: invalid choice")
	// ErrInvalidNumber is returned when a numeric answer does not parse.
	ErrInvalidNumber = errors.New("session: invalid number")
)

// ChoiceError reports a menu selection outside 1..Max.
type ChoiceError struct {
	Max int
}

func (e *ChoiceError) Error() string {
	return fmt.Sprintf("Invalid choice. Please select a number between 1 and %d.", e.Max)
}

// Is makes ChoiceError match ErrInvalidChoice.
func (e *ChoiceError) Is(target error) bool { return target == ErrInvalidChoice }

// Session is one interactive run over a reader and a writer.
type Session struct {
	in  *bufio.Scanner
	out io.Writer
	log *zap.Logger
}

// New creates a session. A nil logger disables logging.
func New(in io.Reader, out io.Writer, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{in: bufio.NewScanner(in), out: out, log: log}
}

// Run walks through the prompts once. Every fault is printed before it is
// returned.
func (s *Session) Run() error {
	res, m, err := s.run()
	if err != nil {
		s.fail(err)
		return err
	}
	return report.WriteTable(s.out, m, &res)
}

func (s *Session) run() (solver.Result, solver.Method, error) {
	s.println("Welcome to my Numerical Program!")

	expr, err := s.readExpression()
	if err != nil {
		return solver.Result{}, nil, err
	}

	s.println("Choose a method:")
	s.println("1. Bisection Method")
	s.println("2. False Position Method")
	s.println("3. Secant Method")
	s.println("4. Newton Method")
	choice, err := s.readChoice("Enter your choice (1-4): ", 4)
	if err != nil {
		return solver.Result{}, nil, err
	}
	name, err := solver.MethodByChoice(choice)
	if err != nil {
		return solver.Result{}, nil, err
	}

	rule, err := s.readRule()
	if err != nil {
		return solver.Result{}, nil, err
	}

	m, err := s.readMethod(name, expr)
	if err != nil {
		return solver.Result{}, nil, err
	}

	s.log.Debug("solving",
		zap.String("function", expr.String()),
		zap.String("method", m.Name()))

	res, err := solver.Solve(m, expr, rule, solver.WithDerivative(expr.Derivative()))
	if err != nil {
		return res, m, err
	}

	s.log.Debug("solved",
		zap.Float64("root", res.Root),
		zap.Int("iterations", res.Iterations()),
		zap.Stringer("reason", res.Reason))
	return res, m, nil
}

// readExpression prompts until f(x) parses.
func (s *Session) readExpression() (*expression.Expression, error) {
	for {
		line, err := s.ask("Enter the function f(x): ")
		if err != nil {
			return nil, err
		}
		expr, err := expression.Parse(line)
		if err == nil {
			return expr, nil
		}
		s.printf("Invalid expression: %v. Please try again.\n", err)
	}
}

func (s *Session) readRule() (solver.StoppingRule, error) {
	s.println("Select stopping condition:")
	s.println("1. Tolerance only")
	s.println("2. Maximum iterations only")
	s.println("3. Correct to n decimal places")
	choice, err := s.readChoice("Enter your choice (1-3): ", 3)
	if err != nil {
		return nil, err
	}

	switch choice {
	case 1:
		tol, err := s.readFloat("Enter the tolerance: ")
		if err != nil {
			return nil, err
		}
		s.println("Select the error type:")
		s.println("1. Absolute Error")
		s.println("2. Percentage Error")
		et, err := s.readChoice("Enter your choice (1 or 2): ", 2)
		if err != nil {
			return nil, err
		}
		errorType := solver.Percentage
		if et == 1 {
			errorType = solver.Absolute
		}
		return solver.ByTolerance{Threshold: tol, ErrorType: errorType}, nil
	case 2:
		limit, err := s.readInt("Enter the maximum number of iterations: ")
		if err != nil {
			return nil, err
		}
		return solver.ByIterationCap{Max: limit}, nil
	default:
		n, err := s.readInt("Enter n (up to 5 please): ")
		if err != nil {
			return nil, err
		}
		return solver.ByStabilizedDigits{Places: n}, nil
	}
}

func (s *Session) readMethod(name string, f solver.Func) (solver.Method, error) {
	switch name {
	case "bisection", "false_position":
		a, err := s.readFloat("Enter the lower bound (a): ")
		if err != nil {
			return nil, err
		}
		b, err := s.readFloat("Enter the upper bound (b): ")
		if err != nil {
			return nil, err
		}
		if err := solver.CheckBracket(f, a, b); err != nil {
			return nil, err
		}
		return solver.ParseMethod(name, a, b)
	case "secant":
		x0, err := s.readFloat("Enter the first initial guess (x0): ")
		if err != nil {
			return nil, err
		}
		x1, err := s.readFloat("Enter the second initial guess (x1): ")
		if err != nil {
			return nil, err
		}
		return solver.Secant{X0: x0, X1: x1}, nil
	default:
		x0, err := s.readFloat("Enter the initial guess (x0): ")
		if err != nil {
			return nil, err
		}
		return solver.ParseMethod(name, x0)
	}
}

// fail prints the user-facing message for err.
func (s *Session) fail(err error) {
	var (
		choice *ChoiceError
		arith  *solver.ArithmeticError
	)
	switch {
	case errors.As(err, &choice):
		s.println(choice.Error())
	case errors.Is(err, solver.ErrNoSignChange):
		s.println("Error: f(a) and f(b) must have opposite signs. Please enter valid bounds.")
	case errors.As(err, &arith):
		s.printf("Error: %s method failed at iteration %d: %s is zero. Try different initial values.\n",
			report.DisplayName(arith.Method), arith.Iteration, arith.Term)
	default:
		s.printf("Error: %v\n", err)
	}
}

func (s *Session) ask(prompt string) (string, error) {
	s.printf("%s", prompt)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(s.in.Text()), nil
}

func (s *Session) readChoice(prompt string, n int) (int, error) {
	c, err := s.readInt(prompt)
	if err != nil {
		return 0, err
	}
	if c < 1 || c > n {
		return 0, &ChoiceError{Max: n}
	}
	return c, nil
}

func (s *Session) readInt(prompt string) (int, error) {
	line, err := s.ask(prompt)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidNumber, line)
	}
	return v, nil
}

func (s *Session) readFloat(prompt string) (float64, error) {
	line, err := s.ask(prompt)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidNumber, line)
	}
	return v, nil
}

func (s *Session) println(line string) {
	fmt.Fprintln(s.out, line)
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
