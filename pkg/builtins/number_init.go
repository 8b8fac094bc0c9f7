package builtins

import (
	"math"

	"github.com/alexmckenley/hermes/pkg/vm"
)

type NumberInitializer struct{}

func (n *NumberInitializer) Name() string {
	return "Number"
}

func (n *NumberInitializer) Priority() int {
	return PriorityNumber
}

const maxSafeInteger = 1<<53 - 1

func (n *NumberInitializer) InitRuntime(ctx *RuntimeContext) error {
	rt := ctx.Runtime
	ctor, err := defineConstructor(ctx, constructorSpec{
		Name:      "Number",
		Arity:     1,
		Fn:        numberConstructor,
		Prototype: rt.NumberPrototype,
		Global:    true,
	})
	if err != nil {
		return err
	}

	d := defineOn(rt, ctor)
	d.constant("MAX_VALUE", vm.NumberValue(math.MaxFloat64))
	d.constant("MIN_VALUE", vm.NumberValue(math.SmallestNonzeroFloat64))
	d.constant("NaN", vm.NaNValue())
	d.constant("NEGATIVE_INFINITY", vm.NumberValue(math.Inf(-1)))
	d.constant("POSITIVE_INFINITY", vm.NumberValue(math.Inf(1)))
	d.constant("EPSILON", vm.NumberValue(math.Nextafter(1, 2)-1))
	d.constant("MAX_SAFE_INTEGER", vm.NumberValue(maxSafeInteger))
	d.constant("MIN_SAFE_INTEGER", vm.NumberValue(-maxSafeInteger))
	d.method("isNaN", 1, numberPredicate(math.IsNaN))
	d.method("isFinite", 1, numberPredicate(isFiniteNumber))
	d.method("isInteger", 1, numberPredicate(isIntegral))
	d.method("isSafeInteger", 1, numberPredicate(func(f float64) bool {
		return isIntegral(f) && math.Abs(f) <= maxSafeInteger
	}))
	// Number.parseInt and Number.parseFloat are the global functions.
	d.value("parseInt", vm.ObjectValue(rt.ParseIntFunction), vm.NormalFlags())
	d.value("parseFloat", vm.ObjectValue(rt.ParseFloatFunction), vm.NormalFlags())
	if d.Err() != nil {
		return d.Err()
	}

	p := defineOn(rt, rt.NumberPrototype)
	p.method("toString", 1, numberToString)
	p.method("toLocaleString", 0, numberToString)
	p.method("valueOf", 0, numberValueOf)
	return p.Err()
}

func numberConstructor(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	n := 0.0
	if args.Count() > 0 {
		var err error
		if n, err = rt.ToNumber(args.Arg(0)); err != nil {
			return vm.Undefined, err
		}
	}
	if !args.IsConstructCall() {
		return vm.NumberValue(n), nil
	}
	o, err := rt.NewWrapperFromConstructor(args.NewTarget, rt.NumberPrototype, vm.ClassNumber, vm.NumberValue(n))
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(o), nil
}

func isFiniteNumber(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func isIntegral(f float64) bool { return isFiniteNumber(f) && math.Trunc(f) == f }

// numberPredicate builds the Number.isX statics, which never convert their
// argument.
func numberPredicate(pred func(float64) bool) vm.NativeFn {
	return func(_ *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		v := args.Arg(0)
		return vm.BooleanValue(v.IsNumber() && pred(v.AsNumber())), nil
	}
}

func numberValueOf(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	return thisPrimitive(rt, args.This, vm.TypeNumber, vm.ClassNumber, "Number.prototype.valueOf")
}

func numberToString(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	v, err := thisPrimitive(rt, args.This, vm.TypeNumber, vm.ClassNumber, "Number.prototype.toString")
	if err != nil {
		return vm.Undefined, err
	}
	radix := 10.0
	if r := args.Arg(0); !r.IsUndefined() {
		if radix, err = rt.ToIntegerOrInfinity(r); err != nil {
			return vm.Undefined, err
		}
		if radix < 2 || radix > 36 {
			return vm.Undefined, rt.RaiseRangeError("toString() radix must be between 2 and 36")
		}
	}
	if radix == 10 {
		return vm.NewString(vm.NumberToString(v.AsNumber())), nil
	}
	return vm.NewString(vm.NumberToStringRadix(v.AsNumber(), int(radix))), nil
}
