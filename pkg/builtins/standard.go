package builtins

import (
	"sort"

	"github.com/alexmckenley/hermes/pkg/vm"
)

// GetStandardInitializers returns all constructor initializers sorted by
// priority.
func GetStandardInitializers() []BuiltinInitializer {
	initializers := []BuiltinInitializer{
		&ObjectInitializer{},
		&ErrorInitializer{},
		&NativeErrorsInitializer{},
		&StringInitializer{},
		&FunctionInitializer{},
		&NumberInitializer{},
		&BooleanInitializer{},
		&DateInitializer{},
		&RegExpInitializer{},
		&ArrayInitializer{},
		&ArrayBufferInitializer{},
		&DataViewInitializer{},
		&TypedArrayBaseInitializer{},
		&TypedArraysInitializer{},
		&SetInitializer{},
		&MapInitializer{},
		&WeakMapInitializer{},
		&WeakSetInitializer{},
		&SymbolInitializer{},
	}

	sort.SliceStable(initializers, func(i, j int) bool {
		return initializers[i].Priority() < initializers[j].Priority()
	})
	return initializers
}

// enabledInitializers filters out modules switched off by cfg.
func enabledInitializers(cfg vm.Config) []BuiltinInitializer {
	var out []BuiltinInitializer
	for _, init := range GetStandardInitializers() {
		if c, ok := init.(conditionalInitializer); ok && !c.Enabled(cfg) {
			continue
		}
		out = append(out, init)
	}
	return out
}
