package builtins

import (
	"github.com/alexmckenley/hermes/pkg/vm"
)

type ArrayBufferInitializer struct{}

func (a *ArrayBufferInitializer) Name() string {
	return "ArrayBuffer"
}

func (a *ArrayBufferInitializer) Priority() int {
	return PriorityArrayBuffer
}

func (a *ArrayBufferInitializer) InitRuntime(ctx *RuntimeContext) error {
	rt := ctx.Runtime
	ctor, err := defineConstructor(ctx, constructorSpec{
		Name:      "ArrayBuffer",
		Arity:     1,
		Fn:        arrayBufferConstructor,
		Prototype: rt.ArrayBufferPrototype,
		Global:    true,
	})
	if err != nil {
		return err
	}

	s := defineOn(rt, ctor)
	s.method("isView", 1, arrayBufferIsView)
	if s.Err() != nil {
		return s.Err()
	}

	p := defineOn(rt, rt.ArrayBufferPrototype)
	p.getter("byteLength", arrayBufferByteLength)
	p.method("slice", 2, arrayBufferSlice)
	p.toStringTag("ArrayBuffer")
	return p.Err()
}

func arrayBufferConstructor(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	if err := requireNew(rt, args, "ArrayBuffer"); err != nil {
		return vm.Undefined, err
	}
	size, err := rt.ToIndex(args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	proto, err := protoFromNewTarget(rt, args.NewTarget, rt.ArrayBufferPrototype)
	if err != nil {
		return vm.Undefined, err
	}
	o, err := rt.NewArrayBuffer(proto, size)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(o), nil
}

func arrayBufferIsView(_ *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	v := args.Arg(0)
	if !v.IsObject() {
		return vm.False, nil
	}
	switch v.AsObject().Internal().(type) {
	case *vm.TypedArrayData, *vm.DataViewData:
		return vm.True, nil
	}
	return vm.False, nil
}

func arrayBufferByteLength(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	buf, _, err := payloadOf[*vm.ArrayBufferData](rt, args.This, "ArrayBuffer.prototype.byteLength")
	if err != nil {
		return vm.Undefined, err
	}
	return vm.NumberValue(float64(buf.Len())), nil
}

func arrayBufferSlice(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	buf, _, err := payloadOf[*vm.ArrayBufferData](rt, args.This, "ArrayBuffer.prototype.slice")
	if err != nil {
		return vm.Undefined, err
	}
	from, err := relativeIndex(rt, args.Arg(0), buf.Len(), 0)
	if err != nil {
		return vm.Undefined, err
	}
	to, err := relativeIndex(rt, args.Arg(1), buf.Len(), buf.Len())
	if err != nil {
		return vm.Undefined, err
	}
	size := max(to-from, 0)
	o, err := rt.NewArrayBuffer(rt.ArrayBufferPrototype, size)
	if err != nil {
		return vm.Undefined, err
	}
	dst, _ := vm.ArrayBufferOf(o)
	copy(dst.Bytes(), buf.Bytes()[from:from+size])
	return vm.ObjectValue(o), nil
}
