package builtins

import (
	"fmt"

	"github.com/alexmckenley/hermes/pkg/vm"
)

// iteratorState is implemented by the payloads of the built-in iterators.
type iteratorState interface {
	next(rt *vm.Runtime) (value vm.Value, done bool, err error)
}

// iteratorNext builds the next method of a built-in iterator prototype.
func iteratorNext[T iteratorState](tag string) vm.NativeFn {
	return func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		it, _, err := payloadOf[T](rt, args.This, tag+".prototype.next")
		if err != nil {
			return vm.Undefined, err
		}
		v, done, err := it.next(rt)
		if err != nil {
			return vm.Undefined, err
		}
		return newIterResult(rt, v, done)
	}
}

func returnThis(_ *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	return args.This, nil
}

func populateIteratorPrototype(rt *vm.Runtime) error {
	d := defineOn(rt, rt.IteratorPrototype)
	d.symbolMethod(rt.Symbols.Iterator, 0, returnThis)
	return d.Err()
}

func populateArrayIteratorPrototype(rt *vm.Runtime) error {
	d := defineOn(rt, rt.ArrayIteratorPrototype)
	d.method("next", 0, iteratorNext[*arrayIteratorState]("Array Iterator"))
	d.toStringTag("Array Iterator")
	return d.Err()
}

func populateStringIteratorPrototype(rt *vm.Runtime) error {
	d := defineOn(rt, rt.StringIteratorPrototype)
	d.method("next", 0, iteratorNext[*stringIteratorState]("String Iterator"))
	d.toStringTag("String Iterator")
	return d.Err()
}

// populateGeneratorPrototypes links %GeneratorFunction.prototype% and
// %GeneratorPrototype% and installs the resumption methods. Generator
// objects themselves are created by the interpreter.
func populateGeneratorPrototypes(rt *vm.Runtime) error {
	link := vm.DefinePropertyFlags{SetEnumerable: true, SetWritable: true, SetConfigurable: true, SetValue: true, Configurable: true}

	gf := defineOn(rt, rt.GeneratorFunctionPrototype)
	gf.key(vm.NewStringKey("prototype"), vm.ObjectValue(rt.GeneratorPrototype), link)
	gf.toStringTag("GeneratorFunction")
	if gf.Err() != nil {
		return gf.Err()
	}

	g := defineOn(rt, rt.GeneratorPrototype)
	g.key(vm.NewStringKey("constructor"), vm.ObjectValue(rt.GeneratorFunctionPrototype), link)
	g.method("next", 1, generatorResume(vm.ResumeNext, "next"))
	g.method("return", 1, generatorResume(vm.ResumeReturn, "return"))
	g.method("throw", 1, generatorResume(vm.ResumeThrow, "throw"))
	g.toStringTag("Generator")
	return g.Err()
}

func generatorResume(mode vm.ResumeMode, name string) vm.NativeFn {
	return func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		if !args.This.IsObject() {
			return vm.Undefined, rt.RaiseTypeError(fmt.Sprintf("Generator.prototype.%s called on non-object", name))
		}
		gen, ok := args.This.AsObject().Internal().(vm.GeneratorResumer)
		if !ok {
			return vm.Undefined, rt.RaiseTypeError(fmt.Sprintf("Generator.prototype.%s called on incompatible receiver", name))
		}
		v, done, err := gen.Resume(rt, mode, args.Arg(0))
		if err != nil {
			return vm.Undefined, err
		}
		return newIterResult(rt, v, done)
	}
}
