package builtins

import (
	"fmt"

	"github.com/alexmckenley/hermes/pkg/vm"
)

type SymbolInitializer struct{}

func (s *SymbolInitializer) Name() string {
	return "Symbol"
}

func (s *SymbolInitializer) Priority() int {
	return PrioritySymbol
}

// Enabled keeps the Symbol constructor off the global object unless ES6
// symbols are configured. The prototype exists either way.
func (s *SymbolInitializer) Enabled(cfg vm.Config) bool {
	return cfg.ES6Symbol
}

func (s *SymbolInitializer) InitRuntime(ctx *RuntimeContext) error {
	rt := ctx.Runtime
	ctor, err := defineConstructor(ctx, constructorSpec{
		Name:      "Symbol",
		Arity:     0,
		Fn:        symbolConstructor,
		Prototype: rt.SymbolPrototype,
		Global:    true,
	})
	if err != nil {
		return err
	}

	d := defineOn(rt, ctor)
	d.method("for", 1, symbolFor)
	d.method("keyFor", 1, symbolKeyFor)
	wellKnown := []struct {
		name string
		sym  *vm.Symbol
	}{
		{"iterator", rt.Symbols.Iterator},
		{"hasInstance", rt.Symbols.HasInstance},
		{"toPrimitive", rt.Symbols.ToPrimitive},
		{"toStringTag", rt.Symbols.ToStringTag},
		{"isConcatSpreadable", rt.Symbols.IsConcatSpreadable},
		{"species", rt.Symbols.Species},
		{"unscopables", rt.Symbols.Unscopables},
		{"match", rt.Symbols.Match},
		{"replace", rt.Symbols.Replace},
		{"search", rt.Symbols.Search},
		{"split", rt.Symbols.Split},
	}
	for _, wk := range wellKnown {
		d.constant(wk.name, vm.SymbolValue(wk.sym))
	}
	if d.Err() != nil {
		return d.Err()
	}

	p := defineOn(rt, rt.SymbolPrototype)
	p.method("toString", 0, symbolToString)
	p.method("valueOf", 0, symbolValueOf)
	p.getter("description", symbolDescription)
	p.toStringTag("Symbol")
	if p.Err() != nil {
		return p.Err()
	}
	toPrimitive, err := rt.NewFunction(symbolValueOf, "[Symbol.toPrimitive]", 1)
	if err != nil {
		return err
	}
	p.key(vm.NewSymbolKey(rt.Symbols.ToPrimitive), vm.ObjectValue(toPrimitive), vm.DefinePropertyFlags{
		SetEnumerable: true, SetWritable: true, SetConfigurable: true, SetValue: true, Configurable: true,
	})
	return p.Err()
}

func symbolConstructor(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	if args.IsConstructCall() {
		return vm.Undefined, rt.RaiseTypeError("Symbol is not a constructor")
	}
	desc := args.Arg(0)
	if desc.IsUndefined() {
		return vm.SymbolValue(vm.NewAnonymousSymbol()), nil
	}
	s, err := rt.ToString(desc)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.SymbolValue(vm.NewSymbol(s)), nil
}

func symbolFor(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	key, err := rt.ToString(args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	return vm.SymbolValue(rt.SymbolFor(key)), nil
}

func symbolKeyFor(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	v := args.Arg(0)
	if !v.IsSymbol() {
		return vm.Undefined, rt.RaiseTypeError(fmt.Sprintf("%s is not a symbol", vm.Inspect(v)))
	}
	if key, ok := rt.SymbolKeyFor(v.AsSymbol()); ok {
		return vm.NewString(key), nil
	}
	return vm.Undefined, nil
}

func thisSymbol(rt *vm.Runtime, this vm.Value, method string) (*vm.Symbol, error) {
	v, err := thisPrimitive(rt, this, vm.TypeSymbol, vm.ClassSymbol, method)
	if err != nil {
		return nil, err
	}
	return v.AsSymbol(), nil
}

func symbolToString(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	sym, err := thisSymbol(rt, args.This, "Symbol.prototype.toString")
	if err != nil {
		return vm.Undefined, err
	}
	return vm.NewString(sym.String()), nil
}

func symbolValueOf(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	sym, err := thisSymbol(rt, args.This, "Symbol.prototype.valueOf")
	if err != nil {
		return vm.Undefined, err
	}
	return vm.SymbolValue(sym), nil
}

func symbolDescription(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	sym, err := thisSymbol(rt, args.This, "Symbol.prototype.description")
	if err != nil {
		return vm.Undefined, err
	}
	if !sym.HasDescription() {
		return vm.Undefined, nil
	}
	return vm.NewString(sym.Description), nil
}
