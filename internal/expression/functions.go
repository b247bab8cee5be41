package expression

import (
	"fmt"
	"math"
	"strconv"

	"github.com/Knetic/govaluate"
)

// unaryFuncs are the one-argument functions available inside expressions.
var unaryFuncs = map[string]func(float64) float64{
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"sinh":  math.Sinh,
	"cosh":  math.Cosh,
	"tanh":  math.Tanh,
	"exp":   math.Exp,
	"log":   math.Log,
	"ln":    math.Log,
	"log10": math.Log10,
	"sqrt":  math.Sqrt,
	"abs":   math.Abs,
}

// functions is the govaluate view of unaryFuncs plus pow.
var functions = govaluateFunctions()

func govaluateFunctions() map[string]govaluate.ExpressionFunction {
	fns := make(map[string]govaluate.ExpressionFunction, len(unaryFuncs)+1)
	for name, fn := range unaryFuncs {
		fns[name] = unary(fn)
	}
	fns["pow"] = func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("pow: want 2 arguments, got %d", len(args))
		}
		return math.Pow(toFloat(args[0]), toFloat(args[1])), nil
	}
	return fns
}

func unary(fn func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("want 1 argument, got %d", len(args))
		}
		return fn(toFloat(args[0])), nil
	}
}

func toFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	default:
		return math.NaN()
	}
}
