package solver

import (
	"errors"
	"math"
)

// Option configures a Solve call.
type Option func(*options)

type options struct {
	df     Func
	onIter func(Record) error
}

// WithDerivative supplies f', required by Newton and ignored otherwise.
func WithDerivative(df Func) Option {
	return func(o *options) { o.df = df }
}

// OnIteration registers a callback invoked after every appended record.
// A non-nil return aborts the run with that error; ErrStopped is the
// conventional one.
func OnIteration(fn func(Record) error) Option {
	return func(o *options) { o.onIter = fn }
}

// Solve iterates method on f until rule is satisfied and returns the last
// estimate with the full trace.
//
// Bracketing methods must start with f(a)·f(b) < 0, otherwise
// ErrNoSignChange. A zero denominator in an update rule aborts with an
// *ArithmeticError. A rule that is never satisfied never returns: bound the
// run with ByIterationCap when that matters.
func Solve(method Method, f Func, rule StoppingRule, opts ...Option) (Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if method == nil {
		return Result{}, ErrInvalidMethod
	}
	if f == nil {
		return Result{}, ErrNilFunction
	}
	if rule == nil {
		return Result{}, ErrNoStoppingRule
	}
	if err := rule.validate(); err != nil {
		return Result{}, err
	}

	fn := &funcs{f: f, df: o.df}
	if err := method.check(fn); err != nil {
		return Result{}, err
	}

	res := Result{Method: method.Name()}
	state := method
	p := progress{}

	for k := 1; ; k++ {
		c, err := state.estimate(fn, k)
		if err != nil {
			return res, err
		}

		absErr, pctErr := errorsFor(c, p.prev, p.hasPrev)
		p.iteration, p.c = k, c
		p.absErr, p.pctErr = absErr.orInf(), pctErr.orInf()

		values, err := state.snapshot(fn, c)
		if err != nil {
			return res, err
		}
		rec := Record{
			Iteration: k,
			Values:    roundAll(values),
			Estimate:  Round(c),
			AbsError:  roundMeasure(absErr),
			PctError:  roundMeasure(pctErr),
		}
		res.Trace = append(res.Trace, rec)
		res.Root = c

		if o.onIter != nil {
			if err := o.onIter(rec); err != nil {
				if errors.Is(err, ErrStopped) {
					return res, ErrStopped
				}
				return res, err
			}
		}

		if reason, ok := rule.stop(p); ok {
			res.Reason = reason
			return res, nil
		}

		if state, err = state.advance(fn, c); err != nil {
			return res, err
		}
		p.prev, p.hasPrev = c, true
	}
}

// errorsFor computes the absolute and percentage error of c against the
// previous estimate.
func errorsFor(c, prev float64, hasPrev bool) (abs, pct Measure) {
	if !hasPrev {
		return Measure{}, Measure{}
	}
	abs = Some(math.Abs(c - prev))
	if c != 0 {
		pct = Some(abs.Value / math.Abs(c) * 100)
	}
	return abs, pct
}
