package builtins

import (
	"strings"

	"github.com/alexmckenley/hermes/pkg/vm"
)

type DataViewInitializer struct{}

func (d *DataViewInitializer) Name() string {
	return "DataView"
}

func (d *DataViewInitializer) Priority() int {
	return PriorityDataView
}

func (d *DataViewInitializer) InitRuntime(ctx *RuntimeContext) error {
	rt := ctx.Runtime
	if _, err := defineConstructor(ctx, constructorSpec{
		Name:      "DataView",
		Arity:     1,
		Fn:        dataViewConstructor,
		Prototype: rt.DataViewPrototype,
		Global:    true,
	}); err != nil {
		return err
	}

	p := defineOn(rt, rt.DataViewPrototype)
	p.getter("buffer", func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		dv, err := thisDataView(rt, args.This, "DataView.prototype.buffer")
		if err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(dv.Buffer), nil
	})
	p.getter("byteLength", func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		dv, err := thisDataView(rt, args.This, "DataView.prototype.byteLength")
		if err != nil {
			return vm.Undefined, err
		}
		return vm.NumberValue(float64(dv.Length)), nil
	})
	p.getter("byteOffset", func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		dv, err := thisDataView(rt, args.This, "DataView.prototype.byteOffset")
		if err != nil {
			return vm.Undefined, err
		}
		return vm.NumberValue(float64(dv.Offset)), nil
	})
	for _, kind := range vm.TypedArrayKinds() {
		if kind == vm.Uint8ClampedArray {
			continue
		}
		name := strings.TrimSuffix(kind.String(), "Array")
		p.method("get"+name, 1, dataViewGetter(kind))
		p.method("set"+name, 2, dataViewSetter(kind))
	}
	p.toStringTag("DataView")
	return p.Err()
}

func dataViewConstructor(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	if err := requireNew(rt, args, "DataView"); err != nil {
		return vm.Undefined, err
	}
	bufVal := args.Arg(0)
	var buf *vm.ArrayBufferData
	if bufVal.IsObject() {
		buf, _ = vm.ArrayBufferOf(bufVal.AsObject())
	}
	if buf == nil {
		return vm.Undefined, rt.RaiseTypeError("First argument to DataView constructor must be an ArrayBuffer")
	}
	offset, err := rt.ToIndex(args.Arg(1))
	if err != nil {
		return vm.Undefined, err
	}
	if offset > buf.Len() {
		return vm.Undefined, rt.RaiseRangeError("Start offset is outside the bounds of the buffer")
	}
	length := buf.Len() - offset
	if l := args.Arg(2); !l.IsUndefined() {
		if length, err = rt.ToIndex(l); err != nil {
			return vm.Undefined, err
		}
		if offset+length > buf.Len() {
			return vm.Undefined, rt.RaiseRangeError("Invalid DataView length")
		}
	}
	proto, err := protoFromNewTarget(rt, args.NewTarget, rt.DataViewPrototype)
	if err != nil {
		return vm.Undefined, err
	}
	o, err := rt.NewObjectWithClass(vm.ClassDataView, proto, &vm.DataViewData{Buffer: bufVal.AsObject(), Offset: offset, Length: length})
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(o), nil
}

func thisDataView(rt *vm.Runtime, this vm.Value, method string) (*vm.DataViewData, error) {
	dv, _, err := payloadOf[*vm.DataViewData](rt, this, method)
	return dv, err
}

// viewWindow resolves the byte range an accessor touches.
func viewWindow(rt *vm.Runtime, args vm.NativeArgs, kind vm.TypedArrayKind, method string) ([]byte, error) {
	dv, err := thisDataView(rt, args.This, method)
	if err != nil {
		return nil, err
	}
	idx, err := rt.ToIndex(args.Arg(0))
	if err != nil {
		return nil, err
	}
	size := kind.ElementSize()
	if idx+size > dv.Length {
		return nil, rt.RaiseRangeError("Offset is outside the bounds of the DataView")
	}
	return dv.Window()[idx : idx+size], nil
}

func dataViewGetter(kind vm.TypedArrayKind) vm.NativeFn {
	return func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		b, err := viewWindow(rt, args, kind, "DataView.prototype.get")
		if err != nil {
			return vm.Undefined, err
		}
		return vm.NumberValue(kind.Decode(b, args.Arg(1).ToBoolean())), nil
	}
}

func dataViewSetter(kind vm.TypedArrayKind) vm.NativeFn {
	return func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		n, err := rt.ToNumber(args.Arg(1))
		if err != nil {
			return vm.Undefined, err
		}
		b, err := viewWindow(rt, args, kind, "DataView.prototype.set")
		if err != nil {
			return vm.Undefined, err
		}
		kind.Encode(b, n, args.Arg(2).ToBoolean())
		return vm.Undefined, nil
	}
}
