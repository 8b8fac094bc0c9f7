package builtins

import (
	"math"
	"math/rand/v2"

	"github.com/alexmckenley/hermes/pkg/vm"
)

var mathConstants = []struct {
	name  string
	value float64
}{
	{"E", math.E},
	{"LN10", math.Ln10},
	{"LN2", math.Ln2},
	{"LOG10E", math.Log10E},
	{"LOG2E", math.Log2E},
	{"PI", math.Pi},
	{"SQRT1_2", math.Sqrt2 / 2},
	{"SQRT2", math.Sqrt2},
}

var mathUnary = []struct {
	name string
	fn   func(float64) float64
}{
	{"abs", math.Abs},
	{"acos", math.Acos},
	{"acosh", math.Acosh},
	{"asin", math.Asin},
	{"asinh", math.Asinh},
	{"atan", math.Atan},
	{"atanh", math.Atanh},
	{"cbrt", math.Cbrt},
	{"ceil", math.Ceil},
	{"cos", math.Cos},
	{"cosh", math.Cosh},
	{"exp", math.Exp},
	{"expm1", math.Expm1},
	{"floor", math.Floor},
	{"fround", func(x float64) float64 { return float64(float32(x)) }},
	{"log", math.Log},
	{"log1p", math.Log1p},
	{"log10", math.Log10},
	{"log2", math.Log2},
	{"round", jsRound},
	{"sign", jsSign},
	{"sin", math.Sin},
	{"sinh", math.Sinh},
	{"sqrt", math.Sqrt},
	{"tan", math.Tan},
	{"tanh", math.Tanh},
	{"trunc", math.Trunc},
}

// jsRound rounds half-way cases towards +Infinity and keeps -0.
func jsRound(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x == 0 {
		return x
	}
	if x < 0 && x >= -0.5 {
		return math.Copysign(0, -1)
	}
	r := math.Floor(x)
	if x-r >= 0.5 {
		r++
	}
	return r
}

func jsSign(x float64) float64 {
	switch {
	case math.IsNaN(x) || x == 0:
		return x
	case x > 0:
		return 1
	}
	return -1
}

func createMathObject(rt *vm.Runtime) (*vm.Object, error) {
	obj, err := rt.NewObject(rt.ObjectPrototype)
	if err != nil {
		return nil, err
	}
	d := defineOn(rt, obj)
	for _, c := range mathConstants {
		d.constant(c.name, vm.NumberValue(c.value))
	}
	for _, u := range mathUnary {
		d.method(u.name, 1, mathUnaryFn(u.fn))
	}
	d.method("atan2", 2, mathBinaryFn(math.Atan2))
	d.method("pow", 2, mathBinaryFn(jsPow))
	d.method("imul", 2, mathImul)
	d.method("max", 2, mathExtremum(math.Inf(-1), math.Max))
	d.method("min", 2, mathExtremum(math.Inf(1), math.Min))
	d.method("hypot", 2, mathHypot)
	d.method("random", 0, func(*vm.Runtime, vm.NativeContext, vm.NativeArgs) (vm.Value, error) {
		return vm.NumberValue(rand.Float64()), nil
	})
	d.toStringTag("Math")
	return obj, d.Err()
}

// jsPow differs from math.Pow where the base has magnitude 1 and the
// exponent is infinite.
func jsPow(x, y float64) float64 {
	if math.IsNaN(y) || (math.Abs(x) == 1 && math.IsInf(y, 0)) {
		return math.NaN()
	}
	return math.Pow(x, y)
}

func mathUnaryFn(fn func(float64) float64) vm.NativeFn {
	return func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		x, err := rt.ToNumber(args.Arg(0))
		if err != nil {
			return vm.Undefined, err
		}
		return vm.NumberValue(fn(x)), nil
	}
}

func mathBinaryFn(fn func(float64, float64) float64) vm.NativeFn {
	return func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		x, err := rt.ToNumber(args.Arg(0))
		if err != nil {
			return vm.Undefined, err
		}
		y, err := rt.ToNumber(args.Arg(1))
		if err != nil {
			return vm.Undefined, err
		}
		return vm.NumberValue(fn(x, y)), nil
	}
}

func mathImul(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	a, err := rt.ToInt32(args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	b, err := rt.ToInt32(args.Arg(1))
	if err != nil {
		return vm.Undefined, err
	}
	return vm.NumberValue(float64(a * b)), nil
}

// mathExtremum converts every argument before comparing; NaN wins.
func mathExtremum(start float64, pick func(a, b float64) float64) vm.NativeFn {
	return func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		result := start
		for _, a := range args.Args {
			n, err := rt.ToNumber(a)
			if err != nil {
				return vm.Undefined, err
			}
			result = pick(result, n)
		}
		return vm.NumberValue(result), nil
	}
}

func mathHypot(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	sum, sawNaN, sawInf := 0.0, false, false
	for _, a := range args.Args {
		n, err := rt.ToNumber(a)
		if err != nil {
			return vm.Undefined, err
		}
		switch {
		case math.IsInf(n, 0):
			sawInf = true
		case math.IsNaN(n):
			sawNaN = true
		default:
			sum = math.Hypot(sum, n)
		}
	}
	switch {
	case sawInf:
		return vm.NumberValue(math.Inf(1)), nil
	case sawNaN:
		return vm.NaNValue(), nil
	}
	return vm.NumberValue(sum), nil
}
