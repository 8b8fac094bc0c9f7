package builtins

import (
	"math"
	"strings"

	"github.com/alexmckenley/hermes/pkg/vm"
)

type StringInitializer struct{}

func (s *StringInitializer) Name() string {
	return "String"
}

func (s *StringInitializer) Priority() int {
	return PriorityString
}

func (s *StringInitializer) InitRuntime(ctx *RuntimeContext) error {
	rt := ctx.Runtime
	ctor, err := defineConstructor(ctx, constructorSpec{
		Name:      "String",
		Arity:     1,
		Fn:        stringConstructor,
		Prototype: rt.StringPrototype,
		Global:    true,
	})
	if err != nil {
		return err
	}

	d := defineOn(rt, ctor)
	d.method("fromCharCode", 1, stringFromCharCode)
	if d.Err() != nil {
		return d.Err()
	}

	p := defineOn(rt, rt.StringPrototype)
	p.method("toString", 0, stringValueOf)
	p.method("valueOf", 0, stringValueOf)
	p.method("charAt", 1, stringCharAt)
	p.method("charCodeAt", 1, stringCharCodeAt)
	p.method("indexOf", 1, stringIndexOf)
	p.method("slice", 2, stringSlice)
	p.method("toUpperCase", 0, stringCaseMapper(strings.ToUpper))
	p.method("toLowerCase", 0, stringCaseMapper(strings.ToLower))
	p.method("trim", 0, stringTrim)
	p.symbolMethod(rt.Symbols.Iterator, 0, stringIterator)
	return p.Err()
}

func stringConstructor(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	s := ""
	if args.Count() > 0 {
		v := args.Arg(0)
		if v.IsSymbol() && !args.IsConstructCall() {
			return vm.NewString(v.AsSymbol().String()), nil
		}
		var err error
		if s, err = rt.ToString(v); err != nil {
			return vm.Undefined, err
		}
	}
	if !args.IsConstructCall() {
		return vm.NewString(s), nil
	}
	o, err := rt.NewWrapperFromConstructor(args.NewTarget, rt.StringPrototype, vm.ClassString, vm.NewString(s))
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(o), nil
}

func stringFromCharCode(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	units := make([]uint16, len(args.Args))
	for i, a := range args.Args {
		n, err := rt.ToUint32(a)
		if err != nil {
			return vm.Undefined, err
		}
		units[i] = uint16(n)
	}
	return vm.NewString(vm.StringFromUnits(units)), nil
}

func stringValueOf(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	return thisPrimitive(rt, args.This, vm.TypeString, vm.ClassString, "String.prototype.valueOf")
}

// unitAt resolves the position argument of charAt/charCodeAt.
func unitAt(rt *vm.Runtime, args vm.NativeArgs, method string) (vm.StringView, int, bool, error) {
	s, err := thisString(rt, args.This, method)
	if err != nil {
		return vm.StringView{}, 0, false, err
	}
	pos, err := rt.ToIntegerOrInfinity(args.Arg(0))
	if err != nil {
		return vm.StringView{}, 0, false, err
	}
	view := vm.NewStringView(s)
	if pos < 0 || pos >= float64(view.Len()) {
		return view, 0, false, nil
	}
	return view, int(pos), true, nil
}

func stringCharAt(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	view, i, ok, err := unitAt(rt, args, "String.prototype.charAt")
	if err != nil || !ok {
		return vm.NewString(""), err
	}
	return vm.NewString(view.Slice(i, i+1).String()), nil
}

func stringCharCodeAt(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	view, i, ok, err := unitAt(rt, args, "String.prototype.charCodeAt")
	if err != nil {
		return vm.Undefined, err
	}
	if !ok {
		return vm.NaNValue(), nil
	}
	return vm.NumberValue(float64(view.At(i))), nil
}

func stringIndexOf(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	s, err := thisString(rt, args.This, "String.prototype.indexOf")
	if err != nil {
		return vm.Undefined, err
	}
	search, err := rt.ToString(args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	pos, err := rt.ToIntegerOrInfinity(args.Arg(1))
	if err != nil {
		return vm.Undefined, err
	}
	hay, needle := vm.NewStringView(s).Units(), vm.NewStringView(search).Units()
	start := int(math.Min(math.Max(pos, 0), float64(len(hay))))
	for i := start; i+len(needle) <= len(hay); i++ {
		if unitsEqual(hay[i:i+len(needle)], needle) {
			return vm.NumberValue(float64(i)), nil
		}
	}
	return vm.NumberValue(-1), nil
}

func unitsEqual(a, b []uint16) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func stringSlice(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	s, err := thisString(rt, args.This, "String.prototype.slice")
	if err != nil {
		return vm.Undefined, err
	}
	view := vm.NewStringView(s)
	from, err := relativeIndex(rt, args.Arg(0), view.Len(), 0)
	if err != nil {
		return vm.Undefined, err
	}
	to, err := relativeIndex(rt, args.Arg(1), view.Len(), view.Len())
	if err != nil {
		return vm.Undefined, err
	}
	if from >= to {
		return vm.NewString(""), nil
	}
	return vm.NewString(view.Slice(from, to).String()), nil
}

func stringCaseMapper(mapping func(string) string) vm.NativeFn {
	return func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		s, err := thisString(rt, args.This, "String.prototype case conversion")
		if err != nil {
			return vm.Undefined, err
		}
		return vm.NewString(mapping(s)), nil
	}
}

func stringTrim(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	s, err := thisString(rt, args.This, "String.prototype.trim")
	if err != nil {
		return vm.Undefined, err
	}
	return vm.NewString(vm.TrimSpace(s)), nil
}

// stringIteratorState is the payload of %StringIteratorPrototype% instances;
// it yields code points, pairing surrogates.
type stringIteratorState struct {
	view vm.StringView
	pos  int
	done bool
}

func (it *stringIteratorState) next(*vm.Runtime) (vm.Value, bool, error) {
	if it.done || it.pos >= it.view.Len() {
		it.done = true
		return vm.Undefined, true, nil
	}
	end := it.pos + 1
	if c := it.view.At(it.pos); c >= 0xD800 && c <= 0xDBFF && end < it.view.Len() {
		if lo := it.view.At(end); lo >= 0xDC00 && lo <= 0xDFFF {
			end++
		}
	}
	v := vm.NewString(it.view.Slice(it.pos, end).String())
	it.pos = end
	return v, false, nil
}

func stringIterator(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	s, err := thisString(rt, args.This, "String.prototype[Symbol.iterator]")
	if err != nil {
		return vm.Undefined, err
	}
	o, err := rt.NewObjectWithClass(vm.ClassIterator, rt.StringIteratorPrototype, &stringIteratorState{view: vm.NewStringView(s)})
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(o), nil
}
