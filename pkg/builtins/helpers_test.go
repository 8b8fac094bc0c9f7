package builtins

import (
	"bytes"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/alexmckenley/hermes/pkg/vm"
)

// newTestRuntime boots a runtime with symbols enabled and a silent logger.
func newTestRuntime(t testing.TB) *vm.Runtime {
	t.Helper()
	return newTestRuntimeWith(t, vm.Config{ES6Symbol: true})
}

func newTestRuntimeWith(t testing.TB, cfg vm.Config) *vm.Runtime {
	t.Helper()
	rt, err := vm.NewRuntime(cfg)
	require.NoError(t, err)
	rt.Log = silentLogger()
	rt.Stdout = &bytes.Buffer{}
	InitGlobalObject(rt)
	return rt
}

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// global reads a binding from the global object.
func global(t testing.TB, rt *vm.Runtime, name string) vm.Value {
	t.Helper()
	v, err := rt.Get(rt.Global, vm.NewStringKey(name))
	require.NoError(t, err)
	return v
}

// member reads path[1:] starting at the global binding path[0].
func member(t testing.TB, rt *vm.Runtime, path ...string) vm.Value {
	t.Helper()
	v := global(t, rt, path[0])
	for _, name := range path[1:] {
		require.Truef(t, v.IsObject(), "%s is not an object", name)
		var err error
		v, err = rt.Get(v.AsObject(), vm.NewStringKey(name))
		require.NoError(t, err)
	}
	return v
}

// call invokes fn with this and args and fails the test on error.
func call(t testing.TB, rt *vm.Runtime, fn vm.Value, this vm.Value, args ...vm.Value) vm.Value {
	t.Helper()
	v, err := rt.Call(fn, this, args)
	require.NoError(t, err)
	return v
}

// callMethod invokes this[name](args...).
func callMethod(t testing.TB, rt *vm.Runtime, this vm.Value, name string, args ...vm.Value) vm.Value {
	t.Helper()
	fn, err := rt.GetV(this, vm.NewStringKey(name))
	require.NoError(t, err)
	return call(t, rt, fn, this, args...)
}

// construct invokes new ctor(args...).
func construct(t testing.TB, rt *vm.Runtime, ctor vm.Value, args ...vm.Value) vm.Value {
	t.Helper()
	v, err := rt.Construct(ctor, args, ctor.AsObject())
	require.NoError(t, err)
	return v
}

// thrownError returns the name of the error object carried by err.
func thrownError(t testing.TB, rt *vm.Runtime, err error) string {
	t.Helper()
	require.Error(t, err)
	exc, ok := vm.AsException(err)
	require.Truef(t, ok, "expected a script exception, got %v", err)
	require.True(t, exc.Value.IsObject())
	name, gerr := rt.Get(exc.Value.AsObject(), vm.NewStringKey("name"))
	require.NoError(t, gerr)
	return name.AsString()
}

func str(s string) vm.Value   { return vm.NewString(s) }
func num(n float64) vm.Value { return vm.NumberValue(n) }
