//go:build !debugger

package builtins

import (
	"github.com/alexmckenley/hermes/pkg/vm"
)

const debuggerEnabled = false

func createDebuggerInternalObject(*vm.Runtime) (*vm.Object, error) {
	return nil, nil
}
