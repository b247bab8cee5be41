// Package solver finds a root of a real function of one variable with one of
// four textbook methods and records every iteration.
//
// Methods (sum type Method):
//
//	Bisection{A, B}      c = (a+b)/2
//	FalsePosition{A, B}  c = a - f(a)(b-a)/(f(b)-f(a))
//	Secant{X0, X1}       c = x1 - f(x1)(x1-x0)/(f(x1)-f(x0))
//	Newton{X0}           c = x0 - f(x0)/f'(x0)
//
// Stopping rules (sum type StoppingRule), checked after each record is
// appended and before the state moves on:
//
//	ByTolerance{Threshold, ErrorType}  absolute or percentage error <= threshold
//	ByIterationCap{Max}                iteration count >= Max
//	ByStabilizedDigits{Places}         c and the previous estimate agree as text
//	AnyOf(rules...)                    first satisfied rule, in order
//
// Errors of the first iteration are not applicable and are compared as +Inf.
// Solve never prints or logs; callers render Result.Trace themselves.
package solver
