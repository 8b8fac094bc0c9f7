package builtins

import (
	"fmt"
	"strings"

	"github.com/alexmckenley/hermes/pkg/vm"
)

type FunctionInitializer struct{}

func (f *FunctionInitializer) Name() string {
	return "Function"
}

func (f *FunctionInitializer) Priority() int {
	return PriorityFunction
}

func (f *FunctionInitializer) InitRuntime(ctx *RuntimeContext) error {
	rt := ctx.Runtime
	ctor, err := defineConstructor(ctx, constructorSpec{
		Name:      "Function",
		Arity:     1,
		Fn:        functionConstructor,
		Prototype: rt.FunctionPrototype,
		Global:    true,
	})
	if err != nil {
		return err
	}
	rt.FunctionConstructor = ctor

	p := defineOn(rt, rt.FunctionPrototype)
	p.method("call", 1, functionCall)
	p.method("apply", 2, functionApply)
	p.method("bind", 1, functionBind)
	p.method("toString", 0, functionToString)
	if p.Err() != nil {
		return p.Err()
	}

	hasInstance, err := rt.NewFunction(functionHasInstance, "[Symbol.hasInstance]", 1)
	if err != nil {
		return err
	}
	p.key(vm.NewSymbolKey(rt.Symbols.HasInstance), vm.ObjectValue(hasInstance), vm.ConstantFlags())

	// Restricted function properties: every access throws.
	restricted := vm.DefinePropertyFlags{SetEnumerable: true, SetConfigurable: true, SetGetter: true, SetSetter: true}
	for _, name := range []string{"caller", "arguments"} {
		ok, err := rt.DefineOwnAccessor(rt.FunctionPrototype, vm.NewStringKey(name), restricted, rt.ThrowTypeErrorAccessor)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("cannot define Function.prototype.%s", name)
		}
	}
	return p.Err()
}

// functionConstructor assembles the source of an anonymous function and
// hands it to the attached evaluator.
func functionConstructor(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	if rt.Evaluator == nil {
		return vm.Undefined, rt.RaiseError(vm.EvalError, "Function constructor is not available without an attached evaluator")
	}
	parts := make([]string, len(args.Args))
	for i, a := range args.Args {
		s, err := rt.ToString(a)
		if err != nil {
			return vm.Undefined, err
		}
		parts[i] = s
	}
	body := ""
	if len(parts) > 0 {
		body = parts[len(parts)-1]
		parts = parts[:len(parts)-1]
	}
	src := fmt.Sprintf("(function anonymous(%s\n) {\n%s\n})", strings.Join(parts, ","), body)
	return rt.Evaluator.Eval(rt, src)
}

func functionCall(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	var rest []vm.Value
	if len(args.Args) > 1 {
		rest = args.Args[1:]
	}
	return rt.Call(args.This, args.Arg(0), rest)
}

func functionApply(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	if !args.This.IsCallable() {
		return vm.Undefined, rt.RaiseTypeError("Function.prototype.apply was called on a non-function")
	}
	list := args.Arg(1)
	if list.IsNullish() {
		return rt.Call(args.This, args.Arg(0), nil)
	}
	callArgs, err := listFromArrayLike(rt, list)
	if err != nil {
		return vm.Undefined, err
	}
	return rt.Call(args.This, args.Arg(0), callArgs)
}

// listFromArrayLike implements CreateListFromArrayLike.
func listFromArrayLike(rt *vm.Runtime, v vm.Value) ([]vm.Value, error) {
	if !v.IsObject() {
		return nil, rt.RaiseTypeError("CreateListFromArrayLike called on non-object")
	}
	o := v.AsObject()
	n, err := lengthOf(rt, o)
	if err != nil {
		return nil, err
	}
	out := make([]vm.Value, n)
	for i := range out {
		if out[i], err = rt.Get(o, indexKey(i)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// boundFunction is the payload of functions created by bind.
type boundFunction struct {
	target vm.Value
	this   vm.Value
	args   []vm.Value
}

func (b *boundFunction) Call(rt *vm.Runtime, _ vm.Value, args []vm.Value) (vm.Value, error) {
	all := append(append([]vm.Value(nil), b.args...), args...)
	return rt.Call(b.target, b.this, all)
}

func (b *boundFunction) Trace(mark func(vm.Value)) {
	mark(b.target)
	mark(b.this)
	for _, a := range b.args {
		mark(a)
	}
}

func functionBind(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	if !args.This.IsCallable() {
		return vm.Undefined, rt.RaiseTypeError("Bind must be called on a function")
	}
	target := args.This.AsObject()
	var bound []vm.Value
	if len(args.Args) > 1 {
		bound = append(bound, args.Args[1:]...)
	}
	o, err := rt.NewObjectWithClass(vm.ClassFunction, target.Prototype(), &boundFunction{
		target: args.This,
		this:   args.Arg(0),
		args:   bound,
	})
	if err != nil {
		return vm.Undefined, err
	}

	length := 0.0
	if l, err := rt.Get(target, vm.NewStringKey("length")); err != nil {
		return vm.Undefined, err
	} else if l.IsNumber() {
		n, _ := rt.ToIntegerOrInfinity(l)
		if length = n - float64(len(bound)); length < 0 {
			length = 0
		}
	}
	name := ""
	if n, err := rt.Get(target, vm.NewStringKey("name")); err != nil {
		return vm.Undefined, err
	} else if n.IsString() {
		name = n.AsString()
	}
	readonly := vm.DefinePropertyFlags{SetEnumerable: true, SetWritable: true, SetConfigurable: true, SetValue: true, Configurable: true}
	d := defineOn(rt, o)
	d.key(vm.NewStringKey("length"), vm.NumberValue(length), readonly)
	d.key(vm.NewStringKey("name"), vm.NewString("bound "+name), readonly)
	if d.Err() != nil {
		return vm.Undefined, d.Err()
	}
	return vm.ObjectValue(o), nil
}

func functionToString(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	if !args.This.IsCallable() {
		return vm.Undefined, rt.RaiseTypeError("Function.prototype.toString requires that 'this' be a Function")
	}
	name := ""
	if f, ok := vm.NativeFunctionOf(args.This.AsObject()); ok {
		name = f.Name
	}
	return vm.NewString("function " + name + "() { [native code] }"), nil
}

// functionHasInstance implements OrdinaryHasInstance.
func functionHasInstance(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	if !args.This.IsCallable() {
		return vm.False, nil
	}
	if b, ok := args.This.AsObject().Internal().(*boundFunction); ok {
		return functionHasInstance(rt, vm.NoContext(), vm.NativeArgs{This: b.target, Args: args.Args})
	}
	v := args.Arg(0)
	if !v.IsObject() {
		return vm.False, nil
	}
	proto, err := rt.Get(args.This.AsObject(), vm.NewStringKey("prototype"))
	if err != nil {
		return vm.Undefined, err
	}
	if !proto.IsObject() {
		return vm.Undefined, rt.RaiseTypeError("Function has non-object prototype in instanceof check")
	}
	for p := v.AsObject().Prototype(); p != nil; p = p.Prototype() {
		if p == proto.AsObject() {
			return vm.True, nil
		}
	}
	return vm.False, nil
}
