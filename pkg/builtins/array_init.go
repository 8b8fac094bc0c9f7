package builtins

import (
	"strings"

	"github.com/alexmckenley/hermes/pkg/vm"
)

type ArrayInitializer struct{}

func (a *ArrayInitializer) Name() string {
	return "Array"
}

func (a *ArrayInitializer) Priority() int {
	return PriorityArray
}

func (a *ArrayInitializer) InitRuntime(ctx *RuntimeContext) error {
	rt := ctx.Runtime
	ctor, err := defineConstructor(ctx, constructorSpec{
		Name:      "Array",
		Arity:     1,
		Fn:        arrayConstructor,
		Prototype: rt.ArrayPrototype,
		Global:    true,
	})
	if err != nil {
		return err
	}
	rt.ArrayConstructor = ctor

	s := defineOn(rt, ctor)
	s.method("isArray", 1, arrayIsArray)
	s.method("of", 0, arrayOf)
	if s.Err() != nil {
		return s.Err()
	}

	p := defineOn(rt, rt.ArrayPrototype)
	p.method("push", 1, arrayPush)
	p.method("pop", 0, arrayPop)
	p.method("join", 1, arrayJoin)
	p.method("indexOf", 1, arrayIndexOf)
	p.method("toString", 0, arrayToString)
	p.method("keys", 0, arrayIteratorMethod(iterateKeys))
	p.method("entries", 0, arrayIteratorMethod(iterateEntries))
	values := p.method("values", 0, arrayIteratorMethod(iterateValues))
	// Array.prototype[@@iterator] is the same function object as values.
	p.key(vm.NewSymbolKey(rt.Symbols.Iterator), vm.ObjectValue(values), vm.NormalFlags())
	return p.Err()
}

func arrayConstructor(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	proto := rt.ArrayPrototype
	if args.NewTarget != nil && args.NewTarget != rt.ArrayConstructor {
		p, err := rt.Get(args.NewTarget, vm.NewStringKey("prototype"))
		if err != nil {
			return vm.Undefined, err
		}
		if p.IsObject() {
			proto = p.AsObject()
		}
	}
	if args.Count() == 1 && args.Arg(0).IsNumber() {
		n := args.Arg(0).AsNumber()
		if float64(vm.DoubleToUint32(n)) != n {
			return vm.Undefined, rt.RaiseRangeError("Invalid array length")
		}
		o, err := rt.NewArrayWithPrototype(proto, nil)
		if err != nil {
			return vm.Undefined, err
		}
		if err := rt.Put(o, vm.NewStringKey("length"), vm.NumberValue(n), true); err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(o), nil
	}
	o, err := rt.NewArrayWithPrototype(proto, append([]vm.Value(nil), args.Args...))
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(o), nil
}

func arrayIsArray(_ *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	v := args.Arg(0)
	if !v.IsObject() {
		return vm.False, nil
	}
	_, ok := vm.ArrayOf(v.AsObject())
	return vm.BooleanValue(ok), nil
}

func arrayOf(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	o, err := rt.NewArray(append([]vm.Value(nil), args.Args...))
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(o), nil
}

func arrayPush(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	o, err := rt.ToObject(args.This)
	if err != nil {
		return vm.Undefined, err
	}
	n, err := lengthOf(rt, o)
	if err != nil {
		return vm.Undefined, err
	}
	for _, v := range args.Args {
		if err := rt.Put(o, indexKey(n), v, true); err != nil {
			return vm.Undefined, err
		}
		n++
	}
	length := vm.NumberValue(float64(n))
	if err := rt.Put(o, vm.NewStringKey("length"), length, true); err != nil {
		return vm.Undefined, err
	}
	return length, nil
}

func arrayPop(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	o, err := rt.ToObject(args.This)
	if err != nil {
		return vm.Undefined, err
	}
	n, err := lengthOf(rt, o)
	if err != nil {
		return vm.Undefined, err
	}
	if n == 0 {
		return vm.Undefined, rt.Put(o, vm.NewStringKey("length"), vm.NumberValue(0), true)
	}
	last, err := rt.Get(o, indexKey(n-1))
	if err != nil {
		return vm.Undefined, err
	}
	if _, err := rt.Delete(o, indexKey(n-1), true); err != nil {
		return vm.Undefined, err
	}
	return last, rt.Put(o, vm.NewStringKey("length"), vm.NumberValue(float64(n-1)), true)
}

func arrayJoin(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	o, err := rt.ToObject(args.This)
	if err != nil {
		return vm.Undefined, err
	}
	n, err := lengthOf(rt, o)
	if err != nil {
		return vm.Undefined, err
	}
	sep := ","
	if s := args.Arg(0); !s.IsUndefined() {
		if sep, err = rt.ToString(s); err != nil {
			return vm.Undefined, err
		}
	}
	parts := make([]string, n)
	for i := range parts {
		v, err := rt.Get(o, indexKey(i))
		if err != nil {
			return vm.Undefined, err
		}
		if v.IsNullish() {
			continue
		}
		if parts[i], err = rt.ToString(v); err != nil {
			return vm.Undefined, err
		}
	}
	return vm.NewString(strings.Join(parts, sep)), nil
}

func arrayToString(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	o, err := rt.ToObject(args.This)
	if err != nil {
		return vm.Undefined, err
	}
	join, err := rt.Get(o, vm.NewStringKey("join"))
	if err != nil {
		return vm.Undefined, err
	}
	if !join.IsCallable() {
		return objectToString(rt, vm.NoContext(), vm.NativeArgs{This: vm.ObjectValue(o)})
	}
	return rt.Call(join, vm.ObjectValue(o), nil)
}

func arrayIndexOf(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	o, err := rt.ToObject(args.This)
	if err != nil {
		return vm.Undefined, err
	}
	n, err := lengthOf(rt, o)
	if err != nil {
		return vm.Undefined, err
	}
	start, err := relativeIndex(rt, args.Arg(1), n, 0)
	if err != nil {
		return vm.Undefined, err
	}
	target := args.Arg(0)
	for i := start; i < n; i++ {
		key := indexKey(i)
		if !o.HasProperty(key) {
			continue
		}
		v, err := rt.Get(o, key)
		if err != nil {
			return vm.Undefined, err
		}
		if v.StrictEquals(target) {
			return vm.NumberValue(float64(i)), nil
		}
	}
	return vm.NumberValue(-1), nil
}

type arrayIterationKind uint8

const (
	iterateKeys arrayIterationKind = iota
	iterateValues
	iterateEntries
)

// arrayIteratorState is the payload of %ArrayIteratorPrototype% instances.
// It walks any array-like, re-reading the length at every step.
type arrayIteratorState struct {
	target *vm.Object
	kind   arrayIterationKind
	index  int
}

func (it *arrayIteratorState) Trace(mark func(vm.Value)) {
	if it.target != nil {
		mark(vm.ObjectValue(it.target))
	}
}

func (it *arrayIteratorState) next(rt *vm.Runtime) (vm.Value, bool, error) {
	if it.target == nil {
		return vm.Undefined, true, nil
	}
	var n int
	if ta, ok := vm.TypedArrayOf(it.target); ok {
		n = ta.Length
	} else {
		var err error
		if n, err = lengthOf(rt, it.target); err != nil {
			return vm.Undefined, false, err
		}
	}
	if it.index >= n {
		it.target = nil
		return vm.Undefined, true, nil
	}
	i := it.index
	it.index++
	key := vm.NumberValue(float64(i))
	if it.kind == iterateKeys {
		return key, false, nil
	}
	v, err := rt.Get(it.target, indexKey(i))
	if err != nil {
		return vm.Undefined, false, err
	}
	if it.kind == iterateValues {
		return v, false, nil
	}
	pair, err := rt.NewArray([]vm.Value{key, v})
	if err != nil {
		return vm.Undefined, false, err
	}
	return vm.ObjectValue(pair), false, nil
}

func newArrayIterator(rt *vm.Runtime, target *vm.Object, kind arrayIterationKind) (vm.Value, error) {
	o, err := rt.NewObjectWithClass(vm.ClassIterator, rt.ArrayIteratorPrototype, &arrayIteratorState{target: target, kind: kind})
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(o), nil
}

func arrayIteratorMethod(kind arrayIterationKind) vm.NativeFn {
	return func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		o, err := rt.ToObject(args.This)
		if err != nil {
			return vm.Undefined, err
		}
		return newArrayIterator(rt, o, kind)
	}
}
