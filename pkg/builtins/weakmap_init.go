package builtins

import (
	"fmt"

	"github.com/alexmckenley/hermes/pkg/vm"
)

type WeakMapInitializer struct{}

func (w *WeakMapInitializer) Name() string {
	return "WeakMap"
}

func (w *WeakMapInitializer) Priority() int {
	return PriorityWeakMap
}

func (w *WeakMapInitializer) InitRuntime(ctx *RuntimeContext) error {
	rt := ctx.Runtime
	if _, err := defineConstructor(ctx, constructorSpec{
		Name:      "WeakMap",
		Arity:     0,
		Fn:        weakCollectionConstructor(vm.ClassWeakMap),
		Prototype: rt.WeakMapPrototype,
		Global:    true,
	}); err != nil {
		return err
	}

	p := defineOn(rt, rt.WeakMapPrototype)
	p.method("get", 1, weakMapGet)
	p.method("set", 2, weakMapSet)
	p.method("has", 1, weakHas(vm.ClassWeakMap, "WeakMap.prototype.has"))
	p.method("delete", 1, weakDelete(vm.ClassWeakMap, "WeakMap.prototype.delete"))
	p.toStringTag("WeakMap")
	return p.Err()
}

type WeakSetInitializer struct{}

func (w *WeakSetInitializer) Name() string {
	return "WeakSet"
}

func (w *WeakSetInitializer) Priority() int {
	return PriorityWeakSet
}

func (w *WeakSetInitializer) InitRuntime(ctx *RuntimeContext) error {
	rt := ctx.Runtime
	if _, err := defineConstructor(ctx, constructorSpec{
		Name:      "WeakSet",
		Arity:     0,
		Fn:        weakCollectionConstructor(vm.ClassWeakSet),
		Prototype: rt.WeakSetPrototype,
		Global:    true,
	}); err != nil {
		return err
	}

	p := defineOn(rt, rt.WeakSetPrototype)
	p.method("add", 1, weakSetAdd)
	p.method("has", 1, weakHas(vm.ClassWeakSet, "WeakSet.prototype.has"))
	p.method("delete", 1, weakDelete(vm.ClassWeakSet, "WeakSet.prototype.delete"))
	p.toStringTag("WeakSet")
	return p.Err()
}

func weakCollectionConstructor(class vm.ObjectClass) vm.NativeFn {
	return func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		if err := requireNew(rt, args, class.String()); err != nil {
			return vm.Undefined, err
		}
		fallback := rt.WeakMapPrototype
		if class == vm.ClassWeakSet {
			fallback = rt.WeakSetPrototype
		}
		data := vm.NewWeakData()
		o, err := rt.OrdinaryCreateFromConstructor(args.NewTarget, fallback, class, data)
		if err != nil {
			return vm.Undefined, err
		}
		src := args.Arg(0)
		if src.IsNullish() {
			return vm.ObjectValue(o), nil
		}
		err = iterate(rt, src, func(item vm.Value) error {
			key, value := item, item
			if class == vm.ClassWeakMap {
				if !item.IsObject() {
					return rt.RaiseTypeError(fmt.Sprintf("Iterator value %s is not an entry object", vm.Inspect(item)))
				}
				var err error
				if key, err = rt.Get(item.AsObject(), indexKey(0)); err != nil {
					return err
				}
				if value, err = rt.Get(item.AsObject(), indexKey(1)); err != nil {
					return err
				}
			}
			k, err := weakKey(rt, key)
			if err != nil {
				return err
			}
			data.Set(k, value)
			return nil
		})
		if err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(o), nil
	}
}

func thisWeakCollection(rt *vm.Runtime, this vm.Value, class vm.ObjectClass, method string) (*vm.WeakData, *vm.Object, error) {
	if this.IsObject() && this.AsObject().Class() == class {
		if d, ok := vm.WeakDataOf(this.AsObject()); ok {
			return d, this.AsObject(), nil
		}
	}
	return nil, nil, rt.RaiseTypeError(fmt.Sprintf("%s called on incompatible receiver %s", method, vm.Inspect(this)))
}

func weakKey(rt *vm.Runtime, v vm.Value) (*vm.Object, error) {
	if !v.IsObject() {
		return nil, rt.RaiseTypeError(fmt.Sprintf("Invalid value used as weak collection key: %s", vm.Inspect(v)))
	}
	return v.AsObject(), nil
}

func weakMapGet(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	d, _, err := thisWeakCollection(rt, args.This, vm.ClassWeakMap, "WeakMap.prototype.get")
	if err != nil || !args.Arg(0).IsObject() {
		return vm.Undefined, err
	}
	v, _ := d.Get(args.Arg(0).AsObject())
	return v, nil
}

func weakMapSet(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	d, o, err := thisWeakCollection(rt, args.This, vm.ClassWeakMap, "WeakMap.prototype.set")
	if err != nil {
		return vm.Undefined, err
	}
	k, err := weakKey(rt, args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	d.Set(k, args.Arg(1))
	return vm.ObjectValue(o), nil
}

func weakSetAdd(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	d, o, err := thisWeakCollection(rt, args.This, vm.ClassWeakSet, "WeakSet.prototype.add")
	if err != nil {
		return vm.Undefined, err
	}
	k, err := weakKey(rt, args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	d.Set(k, vm.True)
	return vm.ObjectValue(o), nil
}

func weakHas(class vm.ObjectClass, method string) vm.NativeFn {
	return func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		d, _, err := thisWeakCollection(rt, args.This, class, method)
		if err != nil {
			return vm.Undefined, err
		}
		k := args.Arg(0)
		return vm.BooleanValue(k.IsObject() && d.Has(k.AsObject())), nil
	}
}

func weakDelete(class vm.ObjectClass, method string) vm.NativeFn {
	return func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		d, _, err := thisWeakCollection(rt, args.This, class, method)
		if err != nil {
			return vm.Undefined, err
		}
		k := args.Arg(0)
		return vm.BooleanValue(k.IsObject() && d.Delete(k.AsObject())), nil
	}
}
