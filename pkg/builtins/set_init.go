package builtins

import (
	"github.com/alexmckenley/hermes/pkg/vm"
)

type SetInitializer struct{}

func (s *SetInitializer) Name() string {
	return "Set"
}

func (s *SetInitializer) Priority() int {
	return PrioritySet
}

// Sets share the Map storage, holding each value as both key and value.
func (s *SetInitializer) InitRuntime(ctx *RuntimeContext) error {
	rt := ctx.Runtime
	if _, err := defineConstructor(ctx, constructorSpec{
		Name:      "Set",
		Arity:     0,
		Fn:        setConstructor,
		Prototype: rt.SetPrototype,
		Global:    true,
	}); err != nil {
		return err
	}

	p := defineOn(rt, rt.SetPrototype)
	p.method("add", 1, setAdd)
	p.method("has", 1, collectionHas(vm.ClassSet, "Set.prototype.has"))
	p.method("delete", 1, collectionDelete(vm.ClassSet, "Set.prototype.delete"))
	p.method("clear", 0, collectionClear(vm.ClassSet, "Set.prototype.clear"))
	p.method("forEach", 1, collectionForEach(vm.ClassSet, "Set.prototype.forEach"))
	p.getter("size", collectionSize(vm.ClassSet, "Set.prototype.size"))
	p.method("entries", 0, collectionIteratorMethod(vm.ClassSet, iterateEntries))
	values := p.method("values", 0, collectionIteratorMethod(vm.ClassSet, iterateValues))
	p.value("keys", vm.ObjectValue(values), vm.NormalFlags())
	p.key(vm.NewSymbolKey(rt.Symbols.Iterator), vm.ObjectValue(values), vm.NormalFlags())
	p.toStringTag("Set")
	return p.Err()
}

func setConstructor(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	if err := requireNew(rt, args, "Set"); err != nil {
		return vm.Undefined, err
	}
	data := vm.NewMapData()
	o, err := rt.OrdinaryCreateFromConstructor(args.NewTarget, rt.SetPrototype, vm.ClassSet, data)
	if err != nil {
		return vm.Undefined, err
	}
	if src := args.Arg(0); !src.IsNullish() {
		err := iterate(rt, src, func(v vm.Value) error {
			data.Set(v, v)
			return nil
		})
		if err != nil {
			return vm.Undefined, err
		}
	}
	return vm.ObjectValue(o), nil
}

func setAdd(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	d, o, err := thisCollection(rt, args.This, vm.ClassSet, "Set.prototype.add")
	if err != nil {
		return vm.Undefined, err
	}
	v := args.Arg(0)
	if !d.Has(v) {
		d.Set(v, v)
	}
	return vm.ObjectValue(o), nil
}
