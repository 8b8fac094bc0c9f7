package builtins

import (
	"fmt"

	"github.com/alexmckenley/hermes/pkg/vm"
)

// TypedArrayBaseInitializer implements %TypedArray%, the abstract parent of
// every typed array constructor. It is not installed on the global object.
type TypedArrayBaseInitializer struct{}

func (t *TypedArrayBaseInitializer) Name() string {
	return "TypedArray"
}

func (t *TypedArrayBaseInitializer) Priority() int {
	return PriorityTypedArrayBase
}

func (t *TypedArrayBaseInitializer) InitRuntime(ctx *RuntimeContext) error {
	rt := ctx.Runtime
	ctor, err := defineConstructor(ctx, constructorSpec{
		Name:      "TypedArray",
		Arity:     0,
		Fn:        typedArrayBaseConstructor,
		Prototype: rt.TypedArrayBasePrototype,
	})
	if err != nil {
		return err
	}
	rt.TypedArrayBaseConstructor = ctor

	p := defineOn(rt, rt.TypedArrayBasePrototype)
	p.getter("buffer", typedArrayGetter(func(ta *vm.TypedArrayData) vm.Value { return vm.ObjectValue(ta.Buffer) }))
	p.getter("byteLength", typedArrayGetter(func(ta *vm.TypedArrayData) vm.Value { return vm.NumberValue(float64(ta.ByteLength())) }))
	p.getter("byteOffset", typedArrayGetter(func(ta *vm.TypedArrayData) vm.Value { return vm.NumberValue(float64(ta.Offset)) }))
	p.getter("length", typedArrayGetter(func(ta *vm.TypedArrayData) vm.Value { return vm.NumberValue(float64(ta.Length)) }))
	p.accessor(vm.NewSymbolKey(rt.Symbols.ToStringTag), "[Symbol.toStringTag]", typedArrayToStringTag)
	p.method("at", 1, typedArrayAt)
	p.method("set", 1, typedArraySet)
	p.method("fill", 1, typedArrayFill)
	p.method("join", 1, arrayJoin)
	p.method("keys", 0, typedArrayIteratorMethod(iterateKeys))
	p.method("entries", 0, typedArrayIteratorMethod(iterateEntries))
	values := p.method("values", 0, typedArrayIteratorMethod(iterateValues))
	p.key(vm.NewSymbolKey(rt.Symbols.Iterator), vm.ObjectValue(values), vm.NormalFlags())
	return p.Err()
}

func typedArrayBaseConstructor(rt *vm.Runtime, _ vm.NativeContext, _ vm.NativeArgs) (vm.Value, error) {
	return vm.Undefined, rt.RaiseTypeError("Abstract class TypedArray not directly constructable")
}

// TypedArraysInitializer implements the concrete typed array constructors.
// They share one native body and tell the kinds apart by their context.
type TypedArraysInitializer struct{}

func (t *TypedArraysInitializer) Name() string {
	return "TypedArrays"
}

func (t *TypedArraysInitializer) Priority() int {
	return PriorityTypedArrays
}

func (t *TypedArraysInitializer) InitRuntime(ctx *RuntimeContext) error {
	rt := ctx.Runtime
	for _, kind := range vm.TypedArrayKinds() {
		proto := rt.TypedArrayPrototypes[kind]
		ctor, err := defineConstructor(ctx, constructorSpec{
			Name:      kind.String(),
			Arity:     3,
			Fn:        typedArrayConstructor,
			Ctx:       vm.TypedArrayContext(kind),
			Prototype: proto,
			Parent:    rt.TypedArrayBaseConstructor,
			Global:    true,
		})
		if err != nil {
			return err
		}
		size := vm.NumberValue(float64(kind.ElementSize()))
		c := defineOn(rt, ctor)
		c.constant("BYTES_PER_ELEMENT", size)
		p := defineOn(rt, proto)
		p.constant("BYTES_PER_ELEMENT", size)
		if c.Err() != nil {
			return c.Err()
		}
		if p.Err() != nil {
			return p.Err()
		}
	}
	return nil
}

func typedArrayConstructor(rt *vm.Runtime, ctx vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	kind, ok := ctx.TypedArrayKind()
	if !ok {
		return vm.Undefined, fmt.Errorf("typed array constructor called without a kind")
	}
	if err := requireNew(rt, args, kind.String()); err != nil {
		return vm.Undefined, err
	}
	proto, err := protoFromNewTarget(rt, args.NewTarget, rt.TypedArrayPrototypes[kind])
	if err != nil {
		return vm.Undefined, err
	}
	size := kind.ElementSize()

	first := args.Arg(0)
	var data *vm.TypedArrayData
	var initial []vm.Value
	switch {
	case first.IsObject() && first.AsObject().Class() == vm.ClassArrayBuffer:
		buf, _ := vm.ArrayBufferOf(first.AsObject())
		offset, err := rt.ToIndex(args.Arg(1))
		if err != nil {
			return vm.Undefined, err
		}
		if offset%size != 0 {
			return vm.Undefined, rt.RaiseRangeError(fmt.Sprintf("start offset of %s should be a multiple of %d", kind, size))
		}
		var byteLength int
		if l := args.Arg(2); l.IsUndefined() {
			if buf.Len()%size != 0 {
				return vm.Undefined, rt.RaiseRangeError(fmt.Sprintf("byte length of %s should be a multiple of %d", kind, size))
			}
			if byteLength = buf.Len() - offset; byteLength < 0 {
				return vm.Undefined, rt.RaiseRangeError("Start offset is outside the bounds of the buffer")
			}
		} else {
			n, err := rt.ToIndex(l)
			if err != nil {
				return vm.Undefined, err
			}
			if byteLength = n * size; offset+byteLength > buf.Len() {
				return vm.Undefined, rt.RaiseRangeError(fmt.Sprintf("Invalid typed array length: %d", n))
			}
		}
		data = &vm.TypedArrayData{Kind: kind, Buffer: first.AsObject(), Offset: offset, Length: byteLength / size}
	case first.IsObject():
		if initial, err = typedArraySource(rt, first); err != nil {
			return vm.Undefined, err
		}
		fallthrough
	default:
		length := len(initial)
		if !first.IsObject() {
			if length, err = rt.ToIndex(first); err != nil {
				return vm.Undefined, err
			}
		}
		buf, err := rt.NewArrayBuffer(rt.ArrayBufferPrototype, length*size)
		if err != nil {
			return vm.Undefined, err
		}
		data = &vm.TypedArrayData{Kind: kind, Buffer: buf, Length: length}
	}

	for i, v := range initial {
		n, err := rt.ToNumber(v)
		if err != nil {
			return vm.Undefined, err
		}
		data.Set(i, n)
	}
	o, err := rt.NewObjectWithClass(vm.ClassTypedArray, proto, data)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(o), nil
}

// typedArraySource collects the initial elements from an iterable or an
// array-like object.
func typedArraySource(rt *vm.Runtime, v vm.Value) ([]vm.Value, error) {
	if ta, ok := vm.TypedArrayOf(v.AsObject()); ok {
		out := make([]vm.Value, ta.Length)
		for i := range out {
			out[i] = vm.NumberValue(ta.Get(i))
		}
		return out, nil
	}
	method, err := rt.Get(v.AsObject(), vm.NewSymbolKey(rt.Symbols.Iterator))
	if err != nil {
		return nil, err
	}
	if method.IsNullish() {
		return listFromArrayLike(rt, v)
	}
	var out []vm.Value
	err = iterate(rt, v, func(item vm.Value) error {
		out = append(out, item)
		return nil
	})
	return out, err
}

func thisTypedArray(rt *vm.Runtime, this vm.Value, method string) (*vm.TypedArrayData, *vm.Object, error) {
	return payloadOf[*vm.TypedArrayData](rt, this, method)
}

func typedArrayGetter(get func(*vm.TypedArrayData) vm.Value) vm.NativeFn {
	return func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		ta, _, err := thisTypedArray(rt, args.This, "%TypedArray%.prototype getter")
		if err != nil {
			return vm.Undefined, err
		}
		return get(ta), nil
	}
}

func typedArrayToStringTag(_ *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	if args.This.IsObject() {
		if ta, ok := vm.TypedArrayOf(args.This.AsObject()); ok {
			return vm.NewString(ta.Kind.String()), nil
		}
	}
	return vm.Undefined, nil
}

func typedArrayAt(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	ta, _, err := thisTypedArray(rt, args.This, "%TypedArray%.prototype.at")
	if err != nil {
		return vm.Undefined, err
	}
	rel, err := rt.ToIntegerOrInfinity(args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	if rel < 0 {
		rel += float64(ta.Length)
	}
	if rel < 0 || rel >= float64(ta.Length) {
		return vm.Undefined, nil
	}
	return vm.NumberValue(ta.Get(int(rel))), nil
}

func typedArraySet(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	ta, _, err := thisTypedArray(rt, args.This, "%TypedArray%.prototype.set")
	if err != nil {
		return vm.Undefined, err
	}
	offset, err := rt.ToIntegerOrInfinity(args.Arg(1))
	if err != nil {
		return vm.Undefined, err
	}
	if offset < 0 {
		return vm.Undefined, rt.RaiseRangeError("offset is out of bounds")
	}
	src, err := rt.ToObject(args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	values, err := typedArraySource(rt, vm.ObjectValue(src))
	if err != nil {
		return vm.Undefined, err
	}
	if offset+float64(len(values)) > float64(ta.Length) {
		return vm.Undefined, rt.RaiseRangeError("offset is out of bounds")
	}
	nums := make([]float64, len(values))
	for i, v := range values {
		if nums[i], err = rt.ToNumber(v); err != nil {
			return vm.Undefined, err
		}
	}
	for i, n := range nums {
		ta.Set(int(offset)+i, n)
	}
	return vm.Undefined, nil
}

func typedArrayFill(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	ta, o, err := thisTypedArray(rt, args.This, "%TypedArray%.prototype.fill")
	if err != nil {
		return vm.Undefined, err
	}
	n, err := rt.ToNumber(args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	from, err := relativeIndex(rt, args.Arg(1), ta.Length, 0)
	if err != nil {
		return vm.Undefined, err
	}
	to, err := relativeIndex(rt, args.Arg(2), ta.Length, ta.Length)
	if err != nil {
		return vm.Undefined, err
	}
	for i := from; i < to; i++ {
		ta.Set(i, n)
	}
	return vm.ObjectValue(o), nil
}

func typedArrayIteratorMethod(kind arrayIterationKind) vm.NativeFn {
	return func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		_, o, err := thisTypedArray(rt, args.This, "%TypedArray%.prototype iterator")
		if err != nil {
			return vm.Undefined, err
		}
		return newArrayIterator(rt, o, kind)
	}
}
