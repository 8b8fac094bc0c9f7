package builtins

import (
	"fmt"

	"github.com/alexmckenley/hermes/pkg/vm"
)

// ObjectInitializer implements the Object builtin
type ObjectInitializer struct{}

func (o *ObjectInitializer) Name() string {
	return "Object"
}

func (o *ObjectInitializer) Priority() int {
	return PriorityObject
}

func (o *ObjectInitializer) InitRuntime(ctx *RuntimeContext) error {
	rt := ctx.Runtime

	ctor, err := defineConstructor(ctx, constructorSpec{
		Name:      "Object",
		Arity:     1,
		Fn:        objectConstructor,
		Prototype: rt.ObjectPrototype,
		Global:    true,
	})
	if err != nil {
		return err
	}
	rt.ObjectConstructor = ctor

	d := defineOn(rt, ctor)
	d.method("keys", 1, objectKeys)
	d.method("getPrototypeOf", 1, objectGetPrototypeOf)
	d.method("setPrototypeOf", 2, objectSetPrototypeOf)
	d.method("create", 2, objectCreate)
	d.method("defineProperty", 3, objectDefineProperty)
	d.method("getOwnPropertyDescriptor", 2, objectGetOwnPropertyDescriptor)
	d.method("getOwnPropertyNames", 1, objectGetOwnPropertyNames)
	d.method("preventExtensions", 1, objectPreventExtensions)
	d.method("isExtensible", 1, objectIsExtensible)
	if d.Err() != nil {
		return d.Err()
	}

	p := defineOn(rt, rt.ObjectPrototype)
	p.method("hasOwnProperty", 1, objectHasOwnProperty)
	p.method("isPrototypeOf", 1, objectIsPrototypeOf)
	p.method("propertyIsEnumerable", 1, objectPropertyIsEnumerable)
	p.method("toString", 0, objectToString)
	p.method("toLocaleString", 0, objectToString)
	p.method("valueOf", 0, objectValueOf)
	return p.Err()
}

func objectConstructor(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	if args.IsConstructCall() && args.NewTarget != rt.ObjectConstructor {
		o, err := rt.OrdinaryCreateFromConstructor(args.NewTarget, rt.ObjectPrototype, vm.ClassObject, nil)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(o), nil
	}
	v := args.Arg(0)
	if v.IsNullish() {
		o, err := rt.NewObject(rt.ObjectPrototype)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(o), nil
	}
	o, err := rt.ToObject(v)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(o), nil
}

func objectKeys(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	o, err := rt.ToObject(args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	var names []vm.Value
	for _, k := range o.OwnKeys() {
		if k.IsSymbol() {
			continue
		}
		if desc, ok := o.GetOwnProperty(k); ok && desc.Flags.Enumerable {
			names = append(names, k.ToValue())
		}
	}
	arr, err := rt.NewArray(names)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(arr), nil
}

func objectGetOwnPropertyNames(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	o, err := rt.ToObject(args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	var names []vm.Value
	for _, k := range o.OwnKeys() {
		if !k.IsSymbol() {
			names = append(names, k.ToValue())
		}
	}
	arr, err := rt.NewArray(names)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(arr), nil
}

func objectGetPrototypeOf(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	o, err := rt.ToObject(args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(o.Prototype()), nil
}

func objectSetPrototypeOf(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	target, proto := args.Arg(0), args.Arg(1)
	if target.IsNullish() {
		return vm.Undefined, rt.RaiseTypeError("Object.setPrototypeOf called on null or undefined")
	}
	if !proto.IsObject() && !proto.IsNull() {
		return vm.Undefined, rt.RaiseTypeError("Object prototype may only be an Object or null")
	}
	if !target.IsObject() {
		return target, nil
	}
	var p *vm.Object
	if proto.IsObject() {
		p = proto.AsObject()
	}
	if !target.AsObject().SetPrototype(p) {
		return vm.Undefined, rt.RaiseTypeError("Cyclic __proto__ value or non-extensible object")
	}
	return target, nil
}

func objectCreate(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	proto := args.Arg(0)
	if !proto.IsObject() && !proto.IsNull() {
		return vm.Undefined, rt.RaiseTypeError("Object prototype may only be an Object or null")
	}
	var p *vm.Object
	if proto.IsObject() {
		p = proto.AsObject()
	}
	o, err := rt.NewObject(p)
	if err != nil {
		return vm.Undefined, err
	}
	if props := args.Arg(1); !props.IsUndefined() {
		if err := defineProperties(rt, o, props); err != nil {
			return vm.Undefined, err
		}
	}
	return vm.ObjectValue(o), nil
}

func defineProperties(rt *vm.Runtime, o *vm.Object, props vm.Value) error {
	src, err := rt.ToObject(props)
	if err != nil {
		return err
	}
	for _, k := range src.OwnKeys() {
		desc, ok := src.GetOwnProperty(k)
		if !ok || !desc.Flags.Enumerable {
			continue
		}
		v, err := rt.Get(src, k)
		if err != nil {
			return err
		}
		if err := definePropertyFromDescriptor(rt, o, k, v); err != nil {
			return err
		}
	}
	return nil
}

func objectDefineProperty(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	target := args.Arg(0)
	if !target.IsObject() {
		return vm.Undefined, rt.RaiseTypeError("Object.defineProperty called on non-object")
	}
	key, err := rt.ToPropertyKey(args.Arg(1))
	if err != nil {
		return vm.Undefined, err
	}
	if err := definePropertyFromDescriptor(rt, target.AsObject(), key, args.Arg(2)); err != nil {
		return vm.Undefined, err
	}
	return target, nil
}

// definePropertyFromDescriptor converts a script descriptor object
// (ToPropertyDescriptor) and applies it.
func definePropertyFromDescriptor(rt *vm.Runtime, o *vm.Object, key vm.PropertyKey, descValue vm.Value) error {
	if !descValue.IsObject() {
		return rt.RaiseTypeError("Property description must be an object")
	}
	desc := descValue.AsObject()
	var dpf vm.DefinePropertyFlags
	field := func(name string) (vm.Value, bool, error) {
		k := vm.NewStringKey(name)
		if !desc.HasProperty(k) {
			return vm.Undefined, false, nil
		}
		v, err := rt.Get(desc, k)
		return v, true, err
	}

	if v, ok, err := field("enumerable"); err != nil {
		return err
	} else if ok {
		dpf.SetEnumerable, dpf.Enumerable = true, v.ToBoolean()
	}
	if v, ok, err := field("configurable"); err != nil {
		return err
	} else if ok {
		dpf.SetConfigurable, dpf.Configurable = true, v.ToBoolean()
	}
	value, hasValue, err := field("value")
	if err != nil {
		return err
	}
	dpf.SetValue = hasValue
	if v, ok, err := field("writable"); err != nil {
		return err
	} else if ok {
		dpf.SetWritable, dpf.Writable = true, v.ToBoolean()
	}

	var getter, setter *vm.Object
	accessorFn := func(name string, set *bool) (*vm.Object, error) {
		v, ok, err := field(name)
		if err != nil || !ok {
			return nil, err
		}
		*set = true
		if v.IsUndefined() {
			return nil, nil
		}
		if !v.IsCallable() {
			return nil, rt.RaiseTypeError(fmt.Sprintf("%s must be a function: %s", accessorLabel(name), vm.Inspect(v)))
		}
		return v.AsObject(), nil
	}
	if getter, err = accessorFn("get", &dpf.SetGetter); err != nil {
		return err
	}
	if setter, err = accessorFn("set", &dpf.SetSetter); err != nil {
		return err
	}

	var ok bool
	if dpf.IsAccessor() {
		if dpf.IsData() {
			return rt.RaiseTypeError("Invalid property descriptor. Cannot both specify accessors and a value or writable attribute")
		}
		acc, err := rt.NewPropertyAccessor(getter, setter)
		if err != nil {
			return err
		}
		ok, err = rt.DefineOwnAccessor(o, key, dpf, acc)
		if err != nil {
			return err
		}
	} else {
		ok, err = rt.DefineOwnProperty(o, key, dpf, value)
		if err != nil {
			return err
		}
	}
	if !ok {
		return rt.RaiseTypeError(fmt.Sprintf("Cannot redefine property: %s", key))
	}
	return nil
}

func accessorLabel(name string) string {
	if name == "get" {
		return "Getter"
	}
	return "Setter"
}

func objectGetOwnPropertyDescriptor(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	o, err := rt.ToObject(args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	key, err := rt.ToPropertyKey(args.Arg(1))
	if err != nil {
		return vm.Undefined, err
	}
	desc, ok := o.GetOwnProperty(key)
	if !ok {
		return vm.Undefined, nil
	}
	return fromPropertyDescriptor(rt, desc)
}

func fromPropertyDescriptor(rt *vm.Runtime, desc vm.PropertyDescriptor) (vm.Value, error) {
	res, err := rt.NewObject(rt.ObjectPrototype)
	if err != nil {
		return vm.Undefined, err
	}
	type entry struct {
		name string
		v    vm.Value
	}
	var entries []entry
	if desc.Flags.Accessor {
		entries = []entry{
			{"get", vm.Undefined},
			{"set", vm.Undefined},
		}
		if desc.Getter != nil {
			entries[0].v = vm.ObjectValue(desc.Getter)
		}
		if desc.Setter != nil {
			entries[1].v = vm.ObjectValue(desc.Setter)
		}
	} else {
		entries = []entry{
			{"value", desc.Value},
			{"writable", vm.BooleanValue(desc.Flags.Writable)},
		}
	}
	entries = append(entries,
		entry{"enumerable", vm.BooleanValue(desc.Flags.Enumerable)},
		entry{"configurable", vm.BooleanValue(desc.Flags.Configurable)})
	for _, e := range entries {
		if _, err := rt.CreateDataProperty(res, vm.NewStringKey(e.name), e.v); err != nil {
			return vm.Undefined, err
		}
	}
	return vm.ObjectValue(res), nil
}

func objectPreventExtensions(_ *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	if v := args.Arg(0); v.IsObject() {
		v.AsObject().PreventExtensions()
	}
	return args.Arg(0), nil
}

func objectIsExtensible(_ *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	v := args.Arg(0)
	return vm.BooleanValue(v.IsObject() && v.AsObject().IsExtensible()), nil
}

func objectHasOwnProperty(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	key, err := rt.ToPropertyKey(args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	o, err := rt.ToObject(args.This)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.BooleanValue(o.HasOwnProperty(key)), nil
}

func objectIsPrototypeOf(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	v := args.Arg(0)
	if !v.IsObject() {
		return vm.False, nil
	}
	o, err := rt.ToObject(args.This)
	if err != nil {
		return vm.Undefined, err
	}
	for p := v.AsObject().Prototype(); p != nil; p = p.Prototype() {
		if p == o {
			return vm.True, nil
		}
	}
	return vm.False, nil
}

func objectPropertyIsEnumerable(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	key, err := rt.ToPropertyKey(args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	o, err := rt.ToObject(args.This)
	if err != nil {
		return vm.Undefined, err
	}
	desc, ok := o.GetOwnProperty(key)
	return vm.BooleanValue(ok && desc.Flags.Enumerable), nil
}

// builtinTags maps classes to the tags Object.prototype.toString reports
// before consulting @@toStringTag.
var builtinTags = map[vm.ObjectClass]string{
	vm.ClassArray:    "Array",
	vm.ClassFunction: "Function",
	vm.ClassError:    "Error",
	vm.ClassBoolean:  "Boolean",
	vm.ClassNumber:   "Number",
	vm.ClassString:   "String",
	vm.ClassDate:     "Date",
	vm.ClassRegExp:   "RegExp",
}

func objectToString(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	switch {
	case args.This.IsUndefined():
		return vm.NewString("[object Undefined]"), nil
	case args.This.IsNull():
		return vm.NewString("[object Null]"), nil
	}
	o, err := rt.ToObject(args.This)
	if err != nil {
		return vm.Undefined, err
	}
	tag, ok := builtinTags[o.Class()]
	if !ok {
		tag = "Object"
	}
	if o.Class() == vm.ClassFunction || o.IsCallable() {
		tag = "Function"
	}
	custom, err := rt.Get(o, vm.NewSymbolKey(rt.Symbols.ToStringTag))
	if err != nil {
		return vm.Undefined, err
	}
	if custom.IsString() {
		tag = custom.AsString()
	}
	return vm.NewString("[object " + tag + "]"), nil
}

func objectValueOf(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	o, err := rt.ToObject(args.This)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(o), nil
}
