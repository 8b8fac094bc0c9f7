package builtins

import (
	"fmt"

	"github.com/alexmckenley/hermes/pkg/vm"
)

type MapInitializer struct{}

func (m *MapInitializer) Name() string {
	return "Map"
}

func (m *MapInitializer) Priority() int {
	return PriorityMap
}

func (m *MapInitializer) InitRuntime(ctx *RuntimeContext) error {
	rt := ctx.Runtime
	if _, err := defineConstructor(ctx, constructorSpec{
		Name:      "Map",
		Arity:     0,
		Fn:        mapConstructor,
		Prototype: rt.MapPrototype,
		Global:    true,
	}); err != nil {
		return err
	}

	p := defineOn(rt, rt.MapPrototype)
	p.method("get", 1, mapGet)
	p.method("set", 2, mapSet)
	p.method("has", 1, collectionHas(vm.ClassMap, "Map.prototype.has"))
	p.method("delete", 1, collectionDelete(vm.ClassMap, "Map.prototype.delete"))
	p.method("clear", 0, collectionClear(vm.ClassMap, "Map.prototype.clear"))
	p.method("forEach", 1, collectionForEach(vm.ClassMap, "Map.prototype.forEach"))
	p.getter("size", collectionSize(vm.ClassMap, "Map.prototype.size"))
	p.method("keys", 0, collectionIteratorMethod(vm.ClassMap, iterateKeys))
	p.method("values", 0, collectionIteratorMethod(vm.ClassMap, iterateValues))
	entries := p.method("entries", 0, collectionIteratorMethod(vm.ClassMap, iterateEntries))
	p.key(vm.NewSymbolKey(rt.Symbols.Iterator), vm.ObjectValue(entries), vm.NormalFlags())
	p.toStringTag("Map")
	return p.Err()
}

func mapConstructor(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	if err := requireNew(rt, args, "Map"); err != nil {
		return vm.Undefined, err
	}
	data := vm.NewMapData()
	o, err := rt.OrdinaryCreateFromConstructor(args.NewTarget, rt.MapPrototype, vm.ClassMap, data)
	if err != nil {
		return vm.Undefined, err
	}
	if src := args.Arg(0); !src.IsNullish() {
		err := iterate(rt, src, func(entry vm.Value) error {
			if !entry.IsObject() {
				return rt.RaiseTypeError(fmt.Sprintf("Iterator value %s is not an entry object", vm.Inspect(entry)))
			}
			k, err := rt.Get(entry.AsObject(), indexKey(0))
			if err != nil {
				return err
			}
			v, err := rt.Get(entry.AsObject(), indexKey(1))
			if err != nil {
				return err
			}
			data.Set(k, v)
			return nil
		})
		if err != nil {
			return vm.Undefined, err
		}
	}
	return vm.ObjectValue(o), nil
}

// thisCollection brand-checks Map and Set receivers, which share storage.
func thisCollection(rt *vm.Runtime, this vm.Value, class vm.ObjectClass, method string) (*vm.MapData, *vm.Object, error) {
	if this.IsObject() && this.AsObject().Class() == class {
		if d, ok := vm.MapDataOf(this.AsObject()); ok {
			return d, this.AsObject(), nil
		}
	}
	return nil, nil, rt.RaiseTypeError(fmt.Sprintf("%s called on incompatible receiver %s", method, vm.Inspect(this)))
}

func mapGet(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	d, _, err := thisCollection(rt, args.This, vm.ClassMap, "Map.prototype.get")
	if err != nil {
		return vm.Undefined, err
	}
	v, _ := d.Get(args.Arg(0))
	return v, nil
}

func mapSet(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	d, o, err := thisCollection(rt, args.This, vm.ClassMap, "Map.prototype.set")
	if err != nil {
		return vm.Undefined, err
	}
	d.Set(args.Arg(0), args.Arg(1))
	return vm.ObjectValue(o), nil
}

func collectionHas(class vm.ObjectClass, method string) vm.NativeFn {
	return func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		d, _, err := thisCollection(rt, args.This, class, method)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.BooleanValue(d.Has(args.Arg(0))), nil
	}
}

func collectionDelete(class vm.ObjectClass, method string) vm.NativeFn {
	return func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		d, _, err := thisCollection(rt, args.This, class, method)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.BooleanValue(d.Delete(args.Arg(0))), nil
	}
}

func collectionClear(class vm.ObjectClass, method string) vm.NativeFn {
	return func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		d, _, err := thisCollection(rt, args.This, class, method)
		if err != nil {
			return vm.Undefined, err
		}
		d.Clear()
		return vm.Undefined, nil
	}
}

func collectionSize(class vm.ObjectClass, method string) vm.NativeFn {
	return func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		d, _, err := thisCollection(rt, args.This, class, method)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.NumberValue(float64(d.Size())), nil
	}
}

func collectionForEach(class vm.ObjectClass, method string) vm.NativeFn {
	return func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		d, o, err := thisCollection(rt, args.This, class, method)
		if err != nil {
			return vm.Undefined, err
		}
		fn := args.Arg(0)
		if !fn.IsCallable() {
			return vm.Undefined, rt.RaiseTypeError(fmt.Sprintf("%s is not a function", vm.Inspect(fn)))
		}
		cursor := d.Cursor()
		for {
			k, v, ok := cursor.Next()
			if !ok {
				return vm.Undefined, nil
			}
			if _, err := rt.Call(fn, args.Arg(1), []vm.Value{v, k, vm.ObjectValue(o)}); err != nil {
				return vm.Undefined, err
			}
		}
	}
}

// collectionIteratorState is the payload of Map and Set iterators. Entries
// added while iterating are visited; deleted ones are skipped.
type collectionIteratorState struct {
	owner  *vm.Object
	cursor *vm.MapCursor
	kind   arrayIterationKind
}

func (it *collectionIteratorState) Trace(mark func(vm.Value)) {
	if it.owner != nil {
		mark(vm.ObjectValue(it.owner))
	}
}

func (it *collectionIteratorState) next(rt *vm.Runtime) (vm.Value, bool, error) {
	if it.cursor == nil {
		return vm.Undefined, true, nil
	}
	k, v, ok := it.cursor.Next()
	if !ok {
		it.owner, it.cursor = nil, nil
		return vm.Undefined, true, nil
	}
	switch it.kind {
	case iterateKeys:
		return k, false, nil
	case iterateValues:
		return v, false, nil
	}
	pair, err := rt.NewArray([]vm.Value{k, v})
	if err != nil {
		return vm.Undefined, false, err
	}
	return vm.ObjectValue(pair), false, nil
}

func collectionIteratorMethod(class vm.ObjectClass, kind arrayIterationKind) vm.NativeFn {
	return func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		d, o, err := thisCollection(rt, args.This, class, "iterator method")
		if err != nil {
			return vm.Undefined, err
		}
		proto := rt.MapIteratorPrototype
		if class == vm.ClassSet {
			proto = rt.SetIteratorPrototype
		}
		it, err := rt.NewObjectWithClass(vm.ClassIterator, proto, &collectionIteratorState{owner: o, cursor: d.Cursor(), kind: kind})
		if err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(it), nil
	}
}

// populateCollectionIteratorPrototype fills %SetIteratorPrototype% or
// %MapIteratorPrototype%.
func populateCollectionIteratorPrototype(rt *vm.Runtime, proto *vm.Object, tag string) error {
	d := defineOn(rt, proto)
	d.method("next", 0, iteratorNext[*collectionIteratorState](tag))
	d.toStringTag(tag)
	return d.Err()
}
