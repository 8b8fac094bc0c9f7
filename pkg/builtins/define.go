package builtins

import (
	"fmt"
	"strconv"

	"github.com/alexmckenley/hermes/pkg/vm"
)

// definer installs properties on one object and keeps the first failure, so
// a prototype can be populated as a flat list of calls followed by one Err
// check.
type definer struct {
	rt     *vm.Runtime
	target *vm.Object
	err    error
}

func defineOn(rt *vm.Runtime, target *vm.Object) *definer {
	return &definer{rt: rt, target: target}
}

func (d *definer) Err() error { return d.err }

func (d *definer) key(key vm.PropertyKey, v vm.Value, dpf vm.DefinePropertyFlags) {
	if d.err != nil {
		return
	}
	ok, err := d.rt.DefineOwnProperty(d.target, key, dpf, v)
	if err != nil {
		d.err = err
		return
	}
	if !ok {
		d.err = fmt.Errorf("cannot define property %s", key)
	}
}

// value defines a data property with the given descriptor.
func (d *definer) value(name string, v vm.Value, dpf vm.DefinePropertyFlags) {
	d.key(vm.NewStringKey(name), v, dpf)
}

func (d *definer) constant(name string, v vm.Value) {
	d.value(name, v, vm.ConstantFlags())
}

// fn creates a native function and stores it under key with the Normal
// descriptor.
func (d *definer) fn(key vm.PropertyKey, name string, arity int, f vm.NativeFn) *vm.Object {
	if d.err != nil {
		return nil
	}
	obj, err := d.rt.NewFunction(f, name, arity)
	if err != nil {
		d.err = err
		return nil
	}
	d.key(key, vm.ObjectValue(obj), vm.NormalFlags())
	return obj
}

func (d *definer) method(name string, arity int, f vm.NativeFn) *vm.Object {
	return d.fn(vm.NewStringKey(name), name, arity, f)
}

func (d *definer) symbolMethod(sym *vm.Symbol, arity int, f vm.NativeFn) *vm.Object {
	return d.fn(vm.NewSymbolKey(sym), "["+sym.Description+"]", arity, f)
}

func (d *definer) accessor(key vm.PropertyKey, name string, get vm.NativeFn) {
	if d.err != nil {
		return
	}
	getter, err := d.rt.NewFunction(get, "get "+name, 0)
	if err != nil {
		d.err = err
		return
	}
	acc, err := d.rt.NewPropertyAccessor(getter, nil)
	if err != nil {
		d.err = err
		return
	}
	ok, err := d.rt.DefineOwnAccessor(d.target, key, vm.AccessorFlags(true, true), acc)
	if err != nil {
		d.err = err
	} else if !ok {
		d.err = fmt.Errorf("cannot define accessor %s", key)
	}
}

// getter defines a configurable, non-enumerable getter without a setter.
func (d *definer) getter(name string, get vm.NativeFn) {
	d.accessor(vm.NewStringKey(name), name, get)
}

// toStringTag defines the @@toStringTag data property.
func (d *definer) toStringTag(tag string) {
	d.key(vm.NewSymbolKey(d.rt.Symbols.ToStringTag), vm.NewString(tag), vm.DefinePropertyFlags{
		SetEnumerable: true, SetWritable: true, SetConfigurable: true, SetValue: true, Configurable: true,
	})
}

// constructorSpec describes a built-in constructor.
type constructorSpec struct {
	Name      string
	Arity     int
	Fn        vm.NativeFn
	Ctx       vm.NativeContext
	Prototype *vm.Object
	Parent    *vm.Object // [[Prototype]] of the constructor; Function.prototype when nil
	Global    bool       // install on the global object
}

// defineConstructor creates a constructor for an already existing prototype:
// C.prototype is non-writable, non-enumerable, non-configurable and
// prototype.constructor points back with the Normal descriptor.
func defineConstructor(ctx *RuntimeContext, cs constructorSpec) (*vm.Object, error) {
	rt := ctx.Runtime
	parent := cs.Parent
	if parent == nil {
		parent = rt.FunctionPrototype
	}
	ctor, err := rt.NewNativeFunction(parent, cs.Ctx, cs.Fn, cs.Name, cs.Arity)
	if err != nil {
		return nil, err
	}
	vm.MarkConstructor(ctor)

	d := defineOn(rt, ctor)
	d.constant("prototype", vm.ObjectValue(cs.Prototype))
	p := defineOn(rt, cs.Prototype)
	p.value("constructor", vm.ObjectValue(ctor), vm.NormalFlags())
	if d.Err() != nil {
		return nil, d.Err()
	}
	if p.Err() != nil {
		return nil, p.Err()
	}
	if cs.Global {
		if err := ctx.DefineGlobal(cs.Name, vm.ObjectValue(ctor)); err != nil {
			return nil, err
		}
	}
	return ctor, nil
}

// payloadOf checks that this is an object of the given class carrying a T.
func payloadOf[T any](rt *vm.Runtime, this vm.Value, method string) (T, *vm.Object, error) {
	var zero T
	if this.IsObject() {
		if p, ok := this.AsObject().Internal().(T); ok {
			return p, this.AsObject(), nil
		}
	}
	return zero, nil, rt.RaiseTypeError(fmt.Sprintf("%s called on incompatible receiver %s", method, vm.Inspect(this)))
}

func requireNew(rt *vm.Runtime, args vm.NativeArgs, name string) error {
	if !args.IsConstructCall() {
		return rt.RaiseTypeError(fmt.Sprintf("Constructor %s requires 'new'", name))
	}
	return nil
}

func indexKey(i int) vm.PropertyKey {
	return vm.NewStringKey(strconv.Itoa(i))
}

// lengthOf implements LengthOfArrayLike.
func lengthOf(rt *vm.Runtime, o *vm.Object) (int, error) {
	v, err := rt.Get(o, vm.NewStringKey("length"))
	if err != nil {
		return 0, err
	}
	return rt.ToLength(v)
}

// relativeIndex resolves a relative start/end argument against length.
func relativeIndex(rt *vm.Runtime, v vm.Value, length int, dflt int) (int, error) {
	if v.IsUndefined() {
		return dflt, nil
	}
	n, err := rt.ToIntegerOrInfinity(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		n += float64(length)
		if n < 0 {
			n = 0
		}
	} else if n > float64(length) {
		n = float64(length)
	}
	return int(n), nil
}

// newIterResult builds {value, done}.
func newIterResult(rt *vm.Runtime, value vm.Value, done bool) (vm.Value, error) {
	o, err := rt.NewObject(rt.ObjectPrototype)
	if err != nil {
		return vm.Undefined, err
	}
	if _, err := rt.CreateDataProperty(o, vm.NewStringKey("value"), value); err != nil {
		return vm.Undefined, err
	}
	if _, err := rt.CreateDataProperty(o, vm.NewStringKey("done"), vm.BooleanValue(done)); err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(o), nil
}

// iterate drives the iteration protocol over v, calling fn for each value.
func iterate(rt *vm.Runtime, v vm.Value, fn func(vm.Value) error) error {
	method, err := rt.GetV(v, vm.NewSymbolKey(rt.Symbols.Iterator))
	if err != nil {
		return err
	}
	if !method.IsCallable() {
		return rt.RaiseTypeError(fmt.Sprintf("%s is not iterable", vm.Inspect(v)))
	}
	iter, err := rt.Call(method, v, nil)
	if err != nil {
		return err
	}
	if !iter.IsObject() {
		return rt.RaiseTypeError("Result of the Symbol.iterator method is not an object")
	}
	next, err := rt.Get(iter.AsObject(), vm.NewStringKey("next"))
	if err != nil {
		return err
	}
	for {
		res, err := rt.Call(next, iter, nil)
		if err != nil {
			return err
		}
		if !res.IsObject() {
			return rt.RaiseTypeError("Iterator result is not an object")
		}
		done, err := rt.Get(res.AsObject(), vm.NewStringKey("done"))
		if err != nil {
			return err
		}
		if done.ToBoolean() {
			return nil
		}
		item, err := rt.Get(res.AsObject(), vm.NewStringKey("value"))
		if err != nil {
			return err
		}
		if err := fn(item); err != nil {
			if ret, gerr := rt.Get(iter.AsObject(), vm.NewStringKey("return")); gerr == nil && ret.IsCallable() {
				_, _ = rt.Call(ret, iter, nil)
			}
			return err
		}
	}
}

// thisPrimitive unwraps this for the valueOf/toString family: either a
// primitive of type typ or a wrapper object of class.
func thisPrimitive(rt *vm.Runtime, this vm.Value, typ vm.ValueType, class vm.ObjectClass, method string) (vm.Value, error) {
	if this.Type() == typ {
		return this, nil
	}
	if this.IsObject() && this.AsObject().Class() == class {
		if box, ok := this.AsObject().Internal().(*vm.PrimitiveBox); ok {
			return box.Value, nil
		}
	}
	return vm.Undefined, rt.RaiseTypeError(fmt.Sprintf("%s requires that 'this' be a %s", method, class))
}

// thisString implements RequireObjectCoercible(this) followed by ToString.
func thisString(rt *vm.Runtime, this vm.Value, method string) (string, error) {
	if this.IsNullish() {
		return "", rt.RaiseTypeError(fmt.Sprintf("%s called on null or undefined", method))
	}
	return rt.ToString(this)
}

// protoFromNewTarget implements GetPrototypeFromConstructor.
func protoFromNewTarget(rt *vm.Runtime, newTarget *vm.Object, fallback *vm.Object) (*vm.Object, error) {
	if newTarget == nil {
		return fallback, nil
	}
	p, err := rt.Get(newTarget, vm.NewStringKey("prototype"))
	if err != nil {
		return nil, err
	}
	if p.IsObject() {
		return p.AsObject(), nil
	}
	return fallback, nil
}
