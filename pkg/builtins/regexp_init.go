package builtins

import (
	"strings"

	"github.com/alexmckenley/hermes/pkg/vm"
)

type RegExpInitializer struct{}

func (r *RegExpInitializer) Name() string {
	return "RegExp"
}

func (r *RegExpInitializer) Priority() int {
	return PriorityRegExp
}

var lastIndexKey = vm.NewStringKey("lastIndex")

func (r *RegExpInitializer) InitRuntime(ctx *RuntimeContext) error {
	rt := ctx.Runtime
	if _, err := defineConstructor(ctx, constructorSpec{
		Name:      "RegExp",
		Arity:     2,
		Fn:        regexpConstructor,
		Prototype: rt.RegExpPrototype,
		Global:    true,
	}); err != nil {
		return err
	}
	rt.RegExpLastInput = vm.Undefined
	rt.RegExpLastRegExp = vm.Undefined

	p := defineOn(rt, rt.RegExpPrototype)
	p.method("exec", 1, regexpExec)
	p.method("test", 1, regexpTest)
	p.method("toString", 0, regexpToString)
	p.getter("source", regexpSource)
	p.getter("flags", regexpFlags)
	for _, f := range []struct {
		name string
		flag byte
	}{
		{"global", 'g'},
		{"ignoreCase", 'i'},
		{"multiline", 'm'},
		{"dotAll", 's'},
		{"unicode", 'u'},
		{"sticky", 'y'},
	} {
		p.getter(f.name, regexpFlagGetter(f.flag))
	}
	return p.Err()
}

// newRegExp allocates a RegExp object with its own lastIndex slot.
func newRegExp(rt *vm.Runtime, newTarget *vm.Object, pattern, flags string) (*vm.Object, error) {
	data, err := rt.CompileRegExp(pattern, flags)
	if err != nil {
		return nil, err
	}
	o, err := rt.OrdinaryCreateFromConstructor(newTarget, rt.RegExpPrototype, vm.ClassRegExp, data)
	if err != nil {
		return nil, err
	}
	lastIndex := vm.DefinePropertyFlags{SetEnumerable: true, SetWritable: true, SetConfigurable: true, SetValue: true, Writable: true}
	if _, err := rt.DefineOwnProperty(o, lastIndexKey, lastIndex, vm.NumberValue(0)); err != nil {
		return nil, err
	}
	return o, nil
}

func regexpConstructor(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	patternArg, flagsArg := args.Arg(0), args.Arg(1)
	var existing *vm.RegExpData
	if patternArg.IsObject() {
		existing, _ = vm.RegExpDataOf(patternArg.AsObject())
	}
	if !args.IsConstructCall() && existing != nil && flagsArg.IsUndefined() {
		return patternArg, nil
	}

	var pattern, flags string
	var err error
	switch {
	case existing != nil:
		pattern, flags = existing.Source, existing.Flags
	case patternArg.IsUndefined():
	default:
		if pattern, err = rt.ToString(patternArg); err != nil {
			return vm.Undefined, err
		}
	}
	if !flagsArg.IsUndefined() {
		if flags, err = rt.ToString(flagsArg); err != nil {
			return vm.Undefined, err
		}
	}
	o, err := newRegExp(rt, args.NewTarget, pattern, flags)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(o), nil
}

func thisRegExp(rt *vm.Runtime, this vm.Value, method string) (*vm.RegExpData, *vm.Object, error) {
	return payloadOf[*vm.RegExpData](rt, this, method)
}

// regexpBuiltinExec runs one match and maintains lastIndex. It returns nil
// when there is no match.
func regexpBuiltinExec(rt *vm.Runtime, o *vm.Object, data *vm.RegExpData, input string) (*vm.RegExpMatch, error) {
	start := 0
	if data.Global || data.Sticky {
		li, err := rt.Get(o, lastIndexKey)
		if err != nil {
			return nil, err
		}
		if start, err = rt.ToLength(li); err != nil {
			return nil, err
		}
	}
	m, err := data.Exec(input, start)
	if err != nil {
		return nil, rt.RaiseError(vm.SyntaxError, err.Error())
	}
	rt.RegExpLastInput = vm.NewString(input)
	rt.RegExpLastRegExp = vm.ObjectValue(o)
	if data.Global || data.Sticky {
		next := 0
		if m != nil {
			next = m.End
		}
		if err := rt.Put(o, lastIndexKey, vm.NumberValue(float64(next)), true); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func regexpExec(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	data, o, err := thisRegExp(rt, args.This, "RegExp.prototype.exec")
	if err != nil {
		return vm.Undefined, err
	}
	input, err := rt.ToString(args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	m, err := regexpBuiltinExec(rt, o, data, input)
	if err != nil || m == nil {
		return vm.Null, err
	}
	arr, err := rt.NewArray(m.Groups)
	if err != nil {
		return vm.Undefined, err
	}
	if _, err := rt.CreateDataProperty(arr, vm.NewStringKey("index"), vm.NumberValue(float64(m.Index))); err != nil {
		return vm.Undefined, err
	}
	if _, err := rt.CreateDataProperty(arr, vm.NewStringKey("input"), vm.NewString(input)); err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(arr), nil
}

func regexpTest(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	data, o, err := thisRegExp(rt, args.This, "RegExp.prototype.test")
	if err != nil {
		return vm.Undefined, err
	}
	input, err := rt.ToString(args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	m, err := regexpBuiltinExec(rt, o, data, input)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.BooleanValue(m != nil), nil
}

func regexpToString(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	if !args.This.IsObject() {
		return vm.Undefined, rt.RaiseTypeError("RegExp.prototype.toString called on non-object")
	}
	if data, ok := vm.RegExpDataOf(args.This.AsObject()); ok {
		return vm.NewString(data.String()), nil
	}
	o := args.This.AsObject()
	src, err := rt.Get(o, vm.NewStringKey("source"))
	if err != nil {
		return vm.Undefined, err
	}
	flags, err := rt.Get(o, vm.NewStringKey("flags"))
	if err != nil {
		return vm.Undefined, err
	}
	s, err := rt.ToString(src)
	if err != nil {
		return vm.Undefined, err
	}
	f, err := rt.ToString(flags)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.NewString("/" + s + "/" + f), nil
}

// The accessors answer for RegExp.prototype itself as if it were an empty
// expression without flags.

func regexpSource(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	if args.This.IsObject() && args.This.AsObject() == rt.RegExpPrototype {
		return vm.NewString("(?:)"), nil
	}
	data, _, err := thisRegExp(rt, args.This, "RegExp.prototype.source")
	if err != nil {
		return vm.Undefined, err
	}
	s := data.String()
	return vm.NewString(s[1 : len(s)-len(data.Flags)-1]), nil
}

func regexpFlags(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	if args.This.IsObject() && args.This.AsObject() == rt.RegExpPrototype {
		return vm.NewString(""), nil
	}
	data, _, err := thisRegExp(rt, args.This, "RegExp.prototype.flags")
	if err != nil {
		return vm.Undefined, err
	}
	var b strings.Builder
	for _, f := range "gimsuy" {
		if strings.ContainsRune(data.Flags, f) {
			b.WriteRune(f)
		}
	}
	return vm.NewString(b.String()), nil
}

func regexpFlagGetter(flag byte) vm.NativeFn {
	return func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		if args.This.IsObject() && args.This.AsObject() == rt.RegExpPrototype {
			return vm.Undefined, nil
		}
		data, _, err := thisRegExp(rt, args.This, "RegExp.prototype flag getter")
		if err != nil {
			return vm.Undefined, err
		}
		return vm.BooleanValue(strings.IndexByte(data.Flags, flag) >= 0), nil
	}
}
