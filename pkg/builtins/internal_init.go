package builtins

import (
	"sort"

	"github.com/alexmckenley/hermes/pkg/vm"
)

// RuntimeVersion is reported by HermesInternal.getRuntimeProperties.
const RuntimeVersion = "0.1.0"

// createHermesInternalObject builds the diagnostics namespace. Its members
// are non-writable and non-configurable and the object is not extensible.
func createHermesInternalObject(rt *vm.Runtime) (*vm.Object, error) {
	obj, err := rt.NewObject(rt.ObjectPrototype)
	if err != nil {
		return nil, err
	}
	funcs := []struct {
		name  string
		fn    vm.NativeFn
		arity int
	}{
		{"getRuntimeProperties", hermesGetRuntimeProperties, 0},
		{"getInstrumentedStats", hermesGetInstrumentedStats, 0},
		{"isConstructor", hermesIsConstructor, 1},
		{"getPrototypeNames", hermesGetPrototypeNames, 0},
	}
	d := defineOn(rt, obj)
	for _, f := range funcs {
		if d.Err() != nil {
			break
		}
		fn, err := rt.NewFunction(f.fn, f.name, f.arity)
		if err != nil {
			return nil, err
		}
		d.constant(f.name, vm.ObjectValue(fn))
	}
	if d.Err() != nil {
		return nil, d.Err()
	}
	obj.PreventExtensions()
	return obj, nil
}

// newRecord builds a plain object from ordered name/value pairs.
func newRecord(rt *vm.Runtime, names []string, values []vm.Value) (vm.Value, error) {
	o, err := rt.NewObject(rt.ObjectPrototype)
	if err != nil {
		return vm.Undefined, err
	}
	for i, name := range names {
		if _, err := rt.CreateDataProperty(o, vm.NewStringKey(name), values[i]); err != nil {
			return vm.Undefined, err
		}
	}
	return vm.ObjectValue(o), nil
}

func hermesGetRuntimeProperties(rt *vm.Runtime, _ vm.NativeContext, _ vm.NativeArgs) (vm.Value, error) {
	return newRecord(rt,
		[]string{"Runtime Version", "ES6Symbol", "Debugger", "GC"},
		[]vm.Value{
			vm.NewString(RuntimeVersion),
			vm.BooleanValue(rt.Config.ES6Symbol),
			vm.BooleanValue(debuggerEnabled),
			vm.NewString("arena"),
		})
}

func hermesGetInstrumentedStats(rt *vm.Runtime, _ vm.NativeContext, _ vm.NativeArgs) (vm.Value, error) {
	h := rt.Heap()
	return newRecord(rt,
		[]string{"js_heapLive", "js_heapLimit", "js_numObjects", "js_numGCs"},
		[]vm.Value{
			vm.NumberValue(float64(h.Live())),
			vm.NumberValue(float64(h.Limit())),
			vm.NumberValue(float64(h.Objects())),
			vm.NumberValue(float64(h.Collections())),
		})
}

func hermesIsConstructor(_ *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	v := args.Arg(0)
	if !v.IsObject() {
		return vm.False, nil
	}
	if f, ok := vm.NativeFunctionOf(v.AsObject()); ok {
		return vm.BooleanValue(f.Constructor), nil
	}
	return vm.False, nil
}

// hermesGetPrototypeNames lists the intrinsic prototype slots that are
// populated, in name order.
func hermesGetPrototypeNames(rt *vm.Runtime, _ vm.NativeContext, _ vm.NativeArgs) (vm.Value, error) {
	protos := rt.Prototypes()
	names := make([]string, 0, len(protos))
	for name, p := range protos {
		if p != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	elems := make([]vm.Value, len(names))
	for i, n := range names {
		elems[i] = vm.NewString(n)
	}
	arr, err := rt.NewArray(elems)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(arr), nil
}
