package builtins

import (
	"github.com/alexmckenley/hermes/pkg/vm"
)

// ErrorInitializer implements the Error builtin
type ErrorInitializer struct{}

func (e *ErrorInitializer) Name() string {
	return "Error"
}

func (e *ErrorInitializer) Priority() int {
	return PriorityError
}

func (e *ErrorInitializer) InitRuntime(ctx *RuntimeContext) error {
	rt := ctx.Runtime
	ctor, err := defineConstructor(ctx, constructorSpec{
		Name:      "Error",
		Arity:     1,
		Fn:        errorConstructorFor(func(rt *vm.Runtime) *vm.Object { return rt.ErrorPrototype }),
		Prototype: rt.ErrorPrototype,
		Global:    true,
	})
	if err != nil {
		return err
	}
	rt.ErrorConstructor = ctor

	p := defineOn(rt, rt.ErrorPrototype)
	p.value("name", vm.NewString("Error"), vm.NormalFlags())
	p.value("message", vm.NewString(""), vm.NormalFlags())
	p.method("toString", 0, errorToString)
	return p.Err()
}

// NativeErrorsInitializer implements EvalError, RangeError, ReferenceError,
// SyntaxError, TypeError and URIError. Their constructors inherit from Error.
type NativeErrorsInitializer struct{}

func (n *NativeErrorsInitializer) Name() string {
	return "NativeErrors"
}

func (n *NativeErrorsInitializer) Priority() int {
	return PriorityNativeErrors
}

func (n *NativeErrorsInitializer) InitRuntime(ctx *RuntimeContext) error {
	rt := ctx.Runtime
	for _, kind := range vm.NativeErrorKinds() {
		kind := kind
		proto := rt.NativeErrorPrototypes[kind]
		if _, err := defineConstructor(ctx, constructorSpec{
			Name:      kind.String(),
			Arity:     1,
			Fn:        errorConstructorFor(func(rt *vm.Runtime) *vm.Object { return rt.NativeErrorPrototypes[kind] }),
			Prototype: proto,
			Parent:    rt.ErrorConstructor,
			Global:    true,
		}); err != nil {
			return err
		}
		p := defineOn(rt, proto)
		p.value("name", vm.NewString(kind.String()), vm.NormalFlags())
		p.value("message", vm.NewString(""), vm.NormalFlags())
		if p.Err() != nil {
			return p.Err()
		}
	}
	return nil
}

// errorConstructorFor returns the body shared by Error and the native error
// constructors. Calling without new behaves like new.
func errorConstructorFor(fallback func(rt *vm.Runtime) *vm.Object) vm.NativeFn {
	return func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		o, err := rt.OrdinaryCreateFromConstructor(args.NewTarget, fallback(rt), vm.ClassError, nil)
		if err != nil {
			return vm.Undefined, err
		}
		if msg := args.Arg(0); !msg.IsUndefined() {
			s, err := rt.ToString(msg)
			if err != nil {
				return vm.Undefined, err
			}
			if _, err := rt.DefineOwnProperty(o, vm.NewStringKey("message"), vm.NormalFlags(), vm.NewString(s)); err != nil {
				return vm.Undefined, err
			}
		}
		return vm.ObjectValue(o), nil
	}
}

func errorToString(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	if !args.This.IsObject() {
		return vm.Undefined, rt.RaiseTypeError("Error.prototype.toString called on non-object")
	}
	o := args.This.AsObject()
	field := func(name, dflt string) (string, error) {
		v, err := rt.Get(o, vm.NewStringKey(name))
		if err != nil || v.IsUndefined() {
			return dflt, err
		}
		return rt.ToString(v)
	}
	name, err := field("name", "Error")
	if err != nil {
		return vm.Undefined, err
	}
	msg, err := field("message", "")
	if err != nil {
		return vm.Undefined, err
	}
	switch {
	case name == "":
		return vm.NewString(msg), nil
	case msg == "":
		return vm.NewString(name), nil
	}
	return vm.NewString(name + ": " + msg), nil
}
