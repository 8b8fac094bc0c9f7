package builtins

import (
	"github.com/alexmckenley/hermes/pkg/vm"
)

// BuiltinInitializer is implemented by each built-in constructor module
type BuiltinInitializer interface {
	// Name returns the constructor name (e.g., "Array", "String")
	Name() string

	// Priority returns the creation order (lower = earlier)
	Priority() int

	// InitRuntime creates the constructor and populates its prototype. The
	// prototype itself already exists.
	InitRuntime(ctx *RuntimeContext) error
}

// conditionalInitializer is implemented by modules that are only installed
// under some configurations.
type conditionalInitializer interface {
	Enabled(cfg vm.Config) bool
}

// RuntimeContext provides everything needed for runtime initialization
type RuntimeContext struct {
	Runtime *vm.Runtime

	// DefineGlobal installs a binding on the global object with the Normal
	// descriptor.
	DefineGlobal func(name string, value vm.Value) error
}

// Priority constants follow the constructor declaration order
const (
	PriorityObject         = 0
	PriorityError          = 1
	PriorityNativeErrors   = 2
	PriorityString         = 3
	PriorityFunction       = 4
	PriorityNumber         = 5
	PriorityBoolean        = 6
	PriorityDate           = 7
	PriorityRegExp         = 8
	PriorityArray          = 9
	PriorityArrayBuffer    = 10
	PriorityDataView       = 11
	PriorityTypedArrayBase = 12
	PriorityTypedArrays    = 13
	PrioritySet            = 14
	PriorityMap            = 15
	PriorityWeakMap        = 16
	PriorityWeakSet        = 17
	PrioritySymbol         = 18
)
