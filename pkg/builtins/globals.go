package builtins

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/alexmckenley/hermes/pkg/vm"
)

func emptyFunction(*vm.Runtime, vm.NativeContext, vm.NativeArgs) (vm.Value, error) {
	return vm.Undefined, nil
}

// throwTypeError is [[ThrowTypeError]]: it raises a TypeError with the
// message bound to it at creation.
func throwTypeError(rt *vm.Runtime, ctx vm.NativeContext, _ vm.NativeArgs) (vm.Value, error) {
	msg, _ := ctx.Message()
	return vm.Undefined, rt.RaiseTypeError(msg)
}

func parseInt(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	str, err := rt.ToString(args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	radix := int32(0)
	if args.Count() > 1 && !args.Arg(1).IsUndefined() {
		if radix, err = rt.ToInt32(args.Arg(1)); err != nil {
			return vm.Undefined, err
		}
	}
	return vm.NumberValue(ParseInt(str, int(radix))), nil
}

// ParseInt implements the string half of the global parseInt. A radix of 0
// means 10 with 0x prefix detection; any radix other than 16 disables the
// prefix; radixes outside [2, 36] yield NaN.
func ParseInt(text string, radix int) float64 {
	stripPrefix := true
	switch {
	case radix == 0:
		radix = 10
	case radix < 2 || radix > 36:
		return math.NaN()
	case radix != 16:
		stripPrefix = false
	}

	view := vm.NewStringView(text)
	n := view.Len()
	i := skipSpace(view, 0)

	sign := 1.0
	if i < n && (view.At(i) == '+' || view.At(i) == '-') {
		if view.At(i) == '-' {
			sign = -1
		}
		i++
	}
	if stripPrefix && i+1 < n && view.At(i) == '0' && view.At(i+1)|0x20 == 'x' {
		i += 2
		radix = 16
	}

	start := i
	for i < n && vm.DigitValue(view.At(i)) < radix {
		i++
	}
	if i == start {
		return math.NaN()
	}
	return sign * vm.DigitsWithRadixToDouble(view.Slice(start, i).String(), radix)
}

func skipSpace(view vm.StringView, i int) int {
	for i < view.Len() && (vm.IsWhiteSpaceChar(view.At(i)) || vm.IsLineTerminatorChar(view.At(i))) {
		i++
	}
	return i
}

func parseFloat(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	str, err := rt.ToString(args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	return vm.NumberValue(ParseFloat(str)), nil
}

var floatLiterals = []struct {
	text  string
	value float64
}{
	{"Infinity", math.Inf(1)},
	{"+Infinity", math.Inf(1)},
	{"-Infinity", math.Inf(-1)},
	{"NaN", math.NaN()},
}

// ParseFloat implements the string half of the global parseFloat: the
// longest prefix of the trimmed text that is a decimal literal, or one of the
// named literals.
func ParseFloat(text string) float64 {
	view := vm.NewStringView(text)
	rest := view.Slice(skipSpace(view, 0), view.Len())

	for _, lit := range floatLiterals {
		if rest.Len() >= len(lit.text) && rest.Slice(0, len(lit.text)).String() == lit.text {
			return lit.value
		}
	}

	buf := make([]byte, 0, rest.Len())
	for i := 0; i < rest.Len(); i++ {
		c := rest.At(i)
		if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-' {
			buf = append(buf, byte(c))
			continue
		}
		break
	}
	if len(buf) == 0 {
		return math.NaN()
	}
	_, consumed := vm.StringToDouble(string(buf))
	if consumed == 0 {
		return math.NaN()
	}
	v, _ := vm.StringToDouble(string(buf[:consumed]))
	return v
}

func isNaN(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	n, err := rt.ToNumber(args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	return vm.BooleanValue(math.IsNaN(n)), nil
}

func isFinite(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	n, err := rt.ToNumber(args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	return vm.BooleanValue(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
}

// printValues is the global print: its arguments as strings, separated by
// spaces and followed by a newline.
func printValues(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	parts := make([]string, len(args.Args))
	for i, a := range args.Args {
		s, err := rt.ToString(a)
		if err != nil {
			return vm.Undefined, err
		}
		parts[i] = s
	}
	if _, err := io.WriteString(rt.Stdout, strings.Join(parts, " ")+"\n"); err != nil {
		return vm.Undefined, fmt.Errorf("print: %w", err)
	}
	return vm.Undefined, nil
}

func eval(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	src := args.Arg(0)
	if !src.IsString() {
		return src, nil
	}
	if rt.Evaluator == nil {
		return vm.Undefined, rt.RaiseError(vm.EvalError, "eval is not available without an attached evaluator")
	}
	return rt.Evaluator.Eval(rt, src.AsString())
}

func gc(rt *vm.Runtime, _ vm.NativeContext, _ vm.NativeArgs) (vm.Value, error) {
	rt.Collect()
	return vm.Undefined, nil
}
