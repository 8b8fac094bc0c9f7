//go:build debugger

package builtins

import (
	"github.com/alexmckenley/hermes/pkg/vm"
)

const debuggerEnabled = true

// createDebuggerInternalObject builds the debugger diagnostics namespace.
// No debugger can attach to a runtime that has no interpreter, so
// isDebuggerAttached reports false until one is wired in.
func createDebuggerInternalObject(rt *vm.Runtime) (*vm.Object, error) {
	obj, err := rt.NewObject(rt.ObjectPrototype)
	if err != nil {
		return nil, err
	}
	d := defineOn(rt, obj)
	d.getter("isDebuggerAttached", func(*vm.Runtime, vm.NativeContext, vm.NativeArgs) (vm.Value, error) {
		return vm.False, nil
	})
	d.value("shouldPauseOnThrow", vm.False, vm.NormalFlags())
	return obj, d.Err()
}
