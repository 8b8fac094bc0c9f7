package vm

import (
	"fmt"
)

// ContextKind discriminates the payload a native function receives on every
// invocation.
type ContextKind uint8

const (
	ContextNone ContextKind = iota
	ContextMessage
	ContextTypedArray
)

// NativeContext is the fixed context bound to a native function at creation.
type NativeContext struct {
	kind      ContextKind
	message   string
	arrayKind TypedArrayKind
}

// NoContext is the context of ordinary natives.
func NoContext() NativeContext { return NativeContext{} }

// MessageContext carries a fixed diagnostic, e.g. for [[ThrowTypeError]].
func MessageContext(message string) NativeContext {
	return NativeContext{kind: ContextMessage, message: message}
}

// TypedArrayContext selects the element kind for the shared typed array
// constructor body.
func TypedArrayContext(kind TypedArrayKind) NativeContext {
	return NativeContext{kind: ContextTypedArray, arrayKind: kind}
}

func (c NativeContext) Kind() ContextKind { return c.kind }

// Message returns the fixed message if the context carries one.
func (c NativeContext) Message() (string, bool) {
	return c.message, c.kind == ContextMessage
}

// TypedArrayKind returns the element kind if the context carries one.
func (c NativeContext) TypedArrayKind() (TypedArrayKind, bool) {
	return c.arrayKind, c.kind == ContextTypedArray
}

// NativeArgs are the arguments of one native invocation.
type NativeArgs struct {
	This      Value
	Args      []Value
	NewTarget *Object // nil unless invoked as a constructor
}

// Arg returns the i-th argument or undefined.
func (a NativeArgs) Arg(i int) Value {
	if i < len(a.Args) {
		return a.Args[i]
	}
	return Undefined
}

func (a NativeArgs) Count() int            { return len(a.Args) }
func (a NativeArgs) IsConstructCall() bool { return a.NewTarget != nil }

// NativeFn is the signature of every function implemented in Go.
type NativeFn func(rt *Runtime, ctx NativeContext, args NativeArgs) (Value, error)

// NativeFunction is the payload of a function object implemented in Go.
type NativeFunction struct {
	Name        string
	Arity       int
	Fn          NativeFn
	Ctx         NativeContext
	Constructor bool
}

// Callable is implemented by payloads supplied by the interpreter (closures,
// bound functions).
type Callable interface {
	Call(rt *Runtime, this Value, args []Value) (Value, error)
}

// Evaluator compiles and runs source text; it is provided by the host when
// an interpreter is attached.
type Evaluator interface {
	Eval(rt *Runtime, source string) (Value, error)
}

// ResumeMode selects how a suspended generator is resumed.
type ResumeMode uint8

const (
	ResumeNext ResumeMode = iota
	ResumeReturn
	ResumeThrow
)

// GeneratorResumer is the payload of generator objects; the interpreter owns
// the suspended frame.
type GeneratorResumer interface {
	Resume(rt *Runtime, mode ResumeMode, v Value) (result Value, done bool, err error)
}

var (
	lengthKey = NewStringKey("length")
	nameKey   = NewStringKey("name")
)

// NewNativeFunction allocates a function object chained to proto. Its length
// and name are non-writable, non-enumerable, configurable; the function gets
// no "prototype" property.
func (rt *Runtime) NewNativeFunction(proto *Object, ctx NativeContext, fn NativeFn, name string, arity int) (*Object, error) {
	o, err := rt.heap.allocObject(ClassFunction, proto, rt.emptyShape)
	if err != nil {
		return nil, err
	}
	o.internal = &NativeFunction{Name: name, Arity: arity, Fn: fn, Ctx: ctx}
	readonly := DefinePropertyFlags{SetEnumerable: true, SetWritable: true, SetConfigurable: true, SetValue: true, Configurable: true}
	if _, err := rt.DefineOwnProperty(o, lengthKey, readonly, NumberValue(float64(arity))); err != nil {
		return nil, err
	}
	if _, err := rt.DefineOwnProperty(o, nameKey, readonly, NewString(name)); err != nil {
		return nil, err
	}
	return o, nil
}

// NewFunction is NewNativeFunction with Function.prototype and no context.
func (rt *Runtime) NewFunction(fn NativeFn, name string, arity int) (*Object, error) {
	return rt.NewNativeFunction(rt.FunctionPrototype, NoContext(), fn, name, arity)
}

// NewPropertyAccessor allocates a getter/setter pair.
func (rt *Runtime) NewPropertyAccessor(getter, setter *Object) (*PropertyAccessor, error) {
	if err := rt.heap.chargeAccessor(); err != nil {
		return nil, err
	}
	return &PropertyAccessor{Getter: getter, Setter: setter}, nil
}

// Call invokes fn with the given this value and arguments.
func (rt *Runtime) Call(fn Value, this Value, args []Value) (Value, error) {
	if fn.IsObject() {
		switch f := fn.AsObject().internal.(type) {
		case *NativeFunction:
			return f.Fn(rt, f.Ctx, NativeArgs{This: this, Args: args})
		case Callable:
			return f.Call(rt, this, args)
		}
	}
	return Undefined, rt.RaiseTypeError(fmt.Sprintf("%s is not a function", rt.describe(fn)))
}

// Construct invokes fn as a constructor. newTarget defaults to fn.
func (rt *Runtime) Construct(fn Value, args []Value, newTarget *Object) (Value, error) {
	if fn.IsObject() {
		if f, ok := fn.AsObject().internal.(*NativeFunction); ok && f.Constructor {
			if newTarget == nil {
				newTarget = fn.AsObject()
			}
			res, err := f.Fn(rt, f.Ctx, NativeArgs{This: Undefined, Args: args, NewTarget: newTarget})
			if err != nil {
				return Undefined, err
			}
			if !res.IsObject() {
				return Undefined, rt.RaiseTypeError(fmt.Sprintf("%s did not construct an object", f.Name))
			}
			return res, nil
		}
	}
	return Undefined, rt.RaiseTypeError(fmt.Sprintf("%s is not a constructor", rt.describe(fn)))
}

// MarkConstructor allows fn to be invoked with new.
func MarkConstructor(fn *Object) {
	if f, ok := fn.internal.(*NativeFunction); ok {
		f.Constructor = true
	}
}

// NativeFunctionOf returns the native payload of fn, if any.
func NativeFunctionOf(fn *Object) (*NativeFunction, bool) {
	f, ok := fn.internal.(*NativeFunction)
	return f, ok
}

// OrdinaryCreateFromConstructor allocates an object whose prototype is
// newTarget.prototype, falling back to fallback when that is not an object.
func (rt *Runtime) OrdinaryCreateFromConstructor(newTarget *Object, fallback *Object, class ObjectClass, payload any) (*Object, error) {
	proto := fallback
	if newTarget != nil {
		p, err := rt.Get(newTarget, NewStringKey("prototype"))
		if err != nil {
			return nil, err
		}
		if p.IsObject() {
			proto = p.AsObject()
		}
	}
	o, err := rt.NewObjectWithClass(class, proto, payload)
	if err != nil {
		return nil, err
	}
	return o, nil
}
