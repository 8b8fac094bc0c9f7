package builtins

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/alexmckenley/hermes/pkg/errors"
	"github.com/alexmckenley/hermes/pkg/vm"
)

// restrictedMessage is the fixed diagnostic of [[ThrowTypeError]].
const restrictedMessage = "Restricted in strict mode"

type bootstrap struct {
	rt  *vm.Runtime
	ctx *RuntimeContext
	log logrus.FieldLogger
}

// InitGlobalObject populates the global object of a fresh runtime and builds
// every built-in prototype and constructor. Prototype objects are created
// before anything that refers to them and populated afterwards, so no step
// dereferences an object that does not exist yet.
//
// Bootstrap failures are not recoverable: any error (in practice an
// allocation failure) panics with a *errors.BootstrapError naming the phase.
func InitGlobalObject(rt *vm.Runtime) {
	b := &bootstrap{rt: rt, log: rt.Log.WithField("component", "bootstrap")}
	b.ctx = &RuntimeContext{Runtime: rt, DefineGlobal: b.defineGlobal}

	b.run("constants", b.initConstants)
	b.run("object-prototype", b.initObjectPrototype)
	b.run("error-prototypes", b.initErrorPrototypes)
	b.run("function-prototype", b.initFunctionPrototype)
	b.run("number-parsers", b.initParsers)
	b.run("forward-declarations", b.forwardDeclarePrototypes)
	b.run("constructors", b.initConstructors)
	b.run("iterators", b.populateIterators)
	b.run("namespaces", b.initNamespaces)
	b.run("global-functions", b.initGlobalFunctions)

	b.log.WithFields(logrus.Fields{
		"objects": rt.Heap().Objects(),
		"cells":   rt.Heap().Live(),
	}).Debug("global object initialised")
}

func (b *bootstrap) run(phase string, fn func() error) {
	b.log.WithField("phase", phase).Debug("bootstrap phase")
	if err := fn(); err != nil {
		panic(&errors.BootstrapError{Phase: phase, Cause: err})
	}
}

func (b *bootstrap) defineGlobal(name string, v vm.Value) error {
	d := defineOn(b.rt, b.rt.Global)
	d.value(name, v, vm.NormalFlags())
	return d.Err()
}

// defineGlobalFunc installs a native function on the global object with the
// Normal descriptor and returns it.
func (b *bootstrap) defineGlobalFunc(name string, fn vm.NativeFn, arity int) (*vm.Object, error) {
	d := defineOn(b.rt, b.rt.Global)
	f := d.method(name, arity, fn)
	return f, d.Err()
}

func (b *bootstrap) initConstants() error {
	d := defineOn(b.rt, b.rt.Global)
	d.constant("NaN", vm.NaNValue())
	d.constant("Infinity", vm.NumberValue(math.Inf(1)))
	d.constant("undefined", vm.Undefined)
	return d.Err()
}

func (b *bootstrap) initObjectPrototype() error {
	rt := b.rt
	proto, err := rt.NewObject(nil)
	if err != nil {
		return err
	}
	rt.ObjectPrototype = proto
	if !rt.Global.SetPrototype(proto) {
		return fmt.Errorf("global object rejected Object.prototype")
	}
	return nil
}

func (b *bootstrap) initErrorPrototypes() error {
	rt := b.rt
	proto, err := rt.NewObjectWithClass(vm.ClassError, rt.ObjectPrototype, nil)
	if err != nil {
		return err
	}
	rt.ErrorPrototype = proto
	for _, kind := range vm.NativeErrorKinds() {
		p, err := rt.NewObject(rt.ErrorPrototype)
		if err != nil {
			return err
		}
		rt.NativeErrorPrototypes[kind] = p
	}
	return nil
}

func (b *bootstrap) initFunctionPrototype() error {
	rt := b.rt
	fp, err := rt.NewNativeFunction(rt.ObjectPrototype, vm.NoContext(), emptyFunction, "", 0)
	if err != nil {
		return err
	}
	rt.FunctionPrototype = fp
	d := defineOn(rt, fp)
	d.key(vm.NewStringKey("length"), vm.Undefined, vm.ClearConfigurableFlags())
	if d.Err() != nil {
		return d.Err()
	}

	thrower, err := rt.NewNativeFunction(fp, vm.MessageContext(restrictedMessage), throwTypeError, "", 0)
	if err != nil {
		return err
	}
	d = defineOn(rt, thrower)
	d.key(vm.NewStringKey("length"), vm.Undefined, vm.ClearConfigurableFlags())
	if d.Err() != nil {
		return d.Err()
	}
	acc, err := rt.NewPropertyAccessor(thrower, thrower)
	if err != nil {
		return err
	}
	rt.ThrowTypeErrorAccessor = acc
	return nil
}

func (b *bootstrap) initParsers() error {
	var err error
	if b.rt.ParseIntFunction, err = b.defineGlobalFunc("parseInt", parseInt, 2); err != nil {
		return err
	}
	b.rt.ParseFloatFunction, err = b.defineGlobalFunc("parseFloat", parseFloat, 1)
	return err
}

// forwardDeclarePrototypes allocates every remaining prototype with its
// final parent. Properties are filled in by the constructor modules.
func (b *bootstrap) forwardDeclarePrototypes() error {
	rt := b.rt
	op := rt.ObjectPrototype
	var err error
	plain := func(parent *vm.Object) *vm.Object {
		if err != nil {
			return nil
		}
		var o *vm.Object
		o, err = rt.NewObject(parent)
		return o
	}
	wrapper := func(v vm.Value) *vm.Object {
		if err != nil {
			return nil
		}
		var o *vm.Object
		o, err = rt.NewWrapperFromConstructor(nil, op, wrapperClass(v), v)
		return o
	}

	rt.StringPrototype = wrapper(vm.NewString(""))
	rt.NumberPrototype = wrapper(vm.NumberValue(0))
	rt.BooleanPrototype = wrapper(vm.False)
	rt.SymbolPrototype = plain(op)
	rt.DatePrototype = plain(op)
	rt.IteratorPrototype = plain(op)
	if err != nil {
		return err
	}

	// Array.prototype is itself an array, laid out from a class derived from
	// Object.prototype; every other array uses the class derived from
	// Array.prototype.
	protoClass, err := rt.NewArrayClass(op)
	if err != nil {
		return err
	}
	if rt.ArrayPrototype, err = rt.NewArrayFromClass(op, protoClass, nil); err != nil {
		return err
	}
	if rt.ArrayClass, err = rt.NewArrayClass(rt.ArrayPrototype); err != nil {
		return err
	}

	rt.ArrayBufferPrototype = plain(op)
	rt.DataViewPrototype = plain(op)
	rt.TypedArrayBasePrototype = plain(op)
	for _, kind := range vm.TypedArrayKinds() {
		rt.TypedArrayPrototypes[kind] = plain(rt.TypedArrayBasePrototype)
	}
	rt.SetPrototype = plain(op)
	rt.SetIteratorPrototype = plain(rt.IteratorPrototype)
	rt.MapPrototype = plain(op)
	rt.MapIteratorPrototype = plain(rt.IteratorPrototype)
	rt.RegExpPrototype = plain(op)
	rt.WeakMapPrototype = plain(op)
	rt.WeakSetPrototype = plain(op)
	rt.ArrayIteratorPrototype = plain(rt.IteratorPrototype)
	rt.StringIteratorPrototype = plain(rt.IteratorPrototype)
	rt.GeneratorPrototype = plain(rt.IteratorPrototype)
	rt.GeneratorFunctionPrototype = plain(rt.FunctionPrototype)
	if err != nil {
		return err
	}

	// The collection iterator prototypes only depend on Function.prototype
	// and are complete as soon as they exist.
	if err := populateCollectionIteratorPrototype(rt, rt.SetIteratorPrototype, "Set Iterator"); err != nil {
		return err
	}
	return populateCollectionIteratorPrototype(rt, rt.MapIteratorPrototype, "Map Iterator")
}

func wrapperClass(v vm.Value) vm.ObjectClass {
	switch v.Type() {
	case vm.TypeString:
		return vm.ClassString
	case vm.TypeNumber:
		return vm.ClassNumber
	}
	return vm.ClassBoolean
}

func (b *bootstrap) initConstructors() error {
	for _, init := range enabledInitializers(b.rt.Config) {
		b.log.WithField("builtin", init.Name()).Trace("creating constructor")
		if err := init.InitRuntime(b.ctx); err != nil {
			return err
		}
	}
	return nil
}

func (b *bootstrap) populateIterators() error {
	rt := b.rt
	if err := populateIteratorPrototype(rt); err != nil {
		return err
	}
	if err := populateArrayIteratorPrototype(rt); err != nil {
		return err
	}
	if err := populateStringIteratorPrototype(rt); err != nil {
		return err
	}
	return populateGeneratorPrototypes(rt)
}

func (b *bootstrap) initNamespaces() error {
	rt := b.rt
	mathObj, err := createMathObject(rt)
	if err != nil {
		return err
	}
	jsonObj, err := createJSONObject(rt)
	if err != nil {
		return err
	}
	internal, err := createHermesInternalObject(rt)
	if err != nil {
		return err
	}
	d := defineOn(rt, rt.Global)
	d.value("Math", vm.ObjectValue(mathObj), vm.NormalFlags())
	d.value("JSON", vm.ObjectValue(jsonObj), vm.NormalFlags())
	d.constant("HermesInternal", vm.ObjectValue(internal))
	if debuggerEnabled {
		dbg, err := createDebuggerInternalObject(rt)
		if err != nil {
			return err
		}
		d.constant("DebuggerInternal", vm.ObjectValue(dbg))
	}
	return d.Err()
}

func (b *bootstrap) initGlobalFunctions() error {
	funcs := []struct {
		name  string
		fn    vm.NativeFn
		arity int
	}{
		{"print", printValues, 1},
		{"eval", eval, 1},
		{"isNaN", isNaN, 1},
		{"isFinite", isFinite, 1},
		{"escape", escape, 1},
		{"unescape", unescape, 1},
		{"decodeURI", decodeURI, 1},
		{"decodeURIComponent", decodeURIComponent, 1},
		{"encodeURI", encodeURI, 1},
		{"encodeURIComponent", encodeURIComponent, 1},
		{"gc", gc, 0},
	}
	for _, f := range funcs {
		if _, err := b.defineGlobalFunc(f.name, f.fn, f.arity); err != nil {
			return err
		}
	}
	return nil
}
