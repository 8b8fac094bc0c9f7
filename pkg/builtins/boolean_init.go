package builtins

import (
	"github.com/alexmckenley/hermes/pkg/vm"
)

type BooleanInitializer struct{}

func (b *BooleanInitializer) Name() string {
	return "Boolean"
}

func (b *BooleanInitializer) Priority() int {
	return PriorityBoolean
}

func (b *BooleanInitializer) InitRuntime(ctx *RuntimeContext) error {
	rt := ctx.Runtime
	if _, err := defineConstructor(ctx, constructorSpec{
		Name:      "Boolean",
		Arity:     1,
		Fn:        booleanConstructor,
		Prototype: rt.BooleanPrototype,
		Global:    true,
	}); err != nil {
		return err
	}

	p := defineOn(rt, rt.BooleanPrototype)
	p.method("toString", 0, booleanToString)
	p.method("valueOf", 0, booleanValueOf)
	return p.Err()
}

func booleanConstructor(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	v := vm.BooleanValue(args.Arg(0).ToBoolean())
	if !args.IsConstructCall() {
		return v, nil
	}
	o, err := rt.NewWrapperFromConstructor(args.NewTarget, rt.BooleanPrototype, vm.ClassBoolean, v)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(o), nil
}

func booleanToString(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	v, err := thisPrimitive(rt, args.This, vm.TypeBoolean, vm.ClassBoolean, "Boolean.prototype.toString")
	if err != nil {
		return vm.Undefined, err
	}
	if v.AsBoolean() {
		return vm.NewString("true"), nil
	}
	return vm.NewString("false"), nil
}

func booleanValueOf(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	return thisPrimitive(rt, args.This, vm.TypeBoolean, vm.ClassBoolean, "Boolean.prototype.valueOf")
}
