package vm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject_DefineConstant(t *testing.T) {
	rt := newTestRuntime(t, 0)
	o, err := rt.NewObject(nil)
	require.NoError(t, err)
	key := NewStringKey("NaN")

	ok, err := rt.DefineOwnProperty(o, key, ConstantFlags(), NaNValue())
	require.NoError(t, err)
	require.True(t, ok)

	d, found := o.GetOwnProperty(key)
	require.True(t, found)
	assert.Equal(t, PropertyFlags{}, d.Flags)
	assert.True(t, d.Value.IsNaN())

	// Redefining with looser attributes is rejected.
	ok, err = rt.DefineOwnProperty(o, key, NormalFlags(), NumberValue(1))
	require.NoError(t, err)
	assert.False(t, ok)

	// Redefining with the same value is allowed (SameValue on NaN).
	ok, err = rt.DefineOwnProperty(o, key, ConstantFlags(), NaNValue())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestObject_PutOnConstant(t *testing.T) {
	rt := newTestRuntime(t, 0)
	o, _ := rt.NewObject(nil)
	key := NewStringKey("undefined")
	_, err := rt.DefineOwnProperty(o, key, ConstantFlags(), Undefined)
	require.NoError(t, err)

	require.NoError(t, rt.Put(o, key, NumberValue(5), false), "sloppy assignment fails silently")
	v, _ := rt.Get(o, key)
	assert.True(t, v.IsUndefined())

	err = rt.Put(o, key, NumberValue(5), true)
	ex, ok := AsException(err)
	require.True(t, ok, "strict assignment must throw, got %v", err)
	assert.True(t, strings.HasPrefix(ex.Message, "TypeError"), ex.Message)
}

func TestObject_ClearConfigurable(t *testing.T) {
	rt := newTestRuntime(t, 0)
	o, _ := rt.NewObject(nil)
	key := NewStringKey("length")
	_, err := rt.DefineOwnProperty(o, key, NormalFlags(), NumberValue(0))
	require.NoError(t, err)

	ok, err := rt.DefineOwnProperty(o, key, ClearConfigurableFlags(), Undefined)
	require.NoError(t, err)
	require.True(t, ok)

	d, _ := o.GetOwnProperty(key)
	assert.Equal(t, PropertyFlags{Writable: true}, d.Flags)
	assert.Equal(t, 0.0, d.Value.AsNumber(), "value must be untouched")

	deleted, err := rt.Delete(o, key, false)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestObject_ShapeTransitionsAreShared(t *testing.T) {
	rt := newTestRuntime(t, 0)
	a, _ := rt.NewObject(nil)
	b, _ := rt.NewObject(nil)
	for _, o := range []*Object{a, b} {
		_, err := rt.DefineOwnProperty(o, NewStringKey("x"), NormalFlags(), NumberValue(1))
		require.NoError(t, err)
		_, err = rt.DefineOwnProperty(o, NewStringKey("y"), NormalFlags(), NumberValue(2))
		require.NoError(t, err)
	}
	assert.Same(t, a.Shape(), b.Shape())

	// Attribute changes give the object its own layout.
	_, err := rt.DefineOwnProperty(a, NewStringKey("x"), ClearConfigurableFlags(), Undefined)
	require.NoError(t, err)
	assert.NotSame(t, a.Shape(), b.Shape())
	v, _ := rt.Get(a, NewStringKey("y"))
	assert.Equal(t, 2.0, v.AsNumber())
}

func TestObject_OwnKeysOrder(t *testing.T) {
	rt := newTestRuntime(t, 0)
	o, _ := rt.NewObject(nil)
	sym := NewSymbol("s")
	for _, k := range []PropertyKey{NewStringKey("b"), NewSymbolKey(sym), NewStringKey("2"), NewStringKey("a"), NewStringKey("0")} {
		_, err := rt.CreateDataProperty(o, k, Undefined)
		require.NoError(t, err)
	}
	var got []string
	for _, k := range o.OwnKeys() {
		got = append(got, k.String())
	}
	assert.Equal(t, []string{"0", "2", "b", "a", "[Symbol(s)]"}, got)
}

func TestObject_SetPrototypeRejectsCycles(t *testing.T) {
	rt := newTestRuntime(t, 0)
	a, _ := rt.NewObject(nil)
	b, _ := rt.NewObject(a)
	assert.False(t, a.SetPrototype(b))
	assert.Nil(t, a.Prototype())
	b.PreventExtensions()
	assert.False(t, b.SetPrototype(nil))
}

func TestObject_Accessor(t *testing.T) {
	rt := newTestRuntime(t, 0)
	o, _ := rt.NewObject(nil)
	calls := 0
	getter, err := rt.NewNativeFunction(nil, NoContext(), func(rt *Runtime, _ NativeContext, args NativeArgs) (Value, error) {
		calls++
		return NumberValue(42), nil
	}, "get x", 0)
	require.NoError(t, err)
	acc, err := rt.NewPropertyAccessor(getter, nil)
	require.NoError(t, err)
	_, err = rt.DefineOwnAccessor(o, NewStringKey("x"), AccessorFlags(true, false), acc)
	require.NoError(t, err)

	v, err := rt.Get(o, NewStringKey("x"))
	require.NoError(t, err)
	assert.Equal(t, 42.0, v.AsNumber())
	assert.Equal(t, 1, calls)

	// Getter-only accessors reject strict assignment.
	_, ok := AsException(rt.Put(o, NewStringKey("x"), Null, true))
	assert.True(t, ok)
}

func TestObject_NativeFunctionProperties(t *testing.T) {
	rt := newTestRuntime(t, 0)
	fn, err := rt.NewNativeFunction(nil, MessageContext("boom"), func(rt *Runtime, ctx NativeContext, _ NativeArgs) (Value, error) {
		msg, _ := ctx.Message()
		return Undefined, rt.RaiseTypeError(msg)
	}, "thrower", 3)
	require.NoError(t, err)

	d, ok := fn.GetOwnProperty(NewStringKey("length"))
	require.True(t, ok)
	assert.Equal(t, 3.0, d.Value.AsNumber())
	assert.Equal(t, PropertyFlags{Configurable: true}, d.Flags)
	assert.False(t, fn.HasOwnProperty(NewStringKey("prototype")))

	_, err = rt.Call(ObjectValue(fn), Undefined, nil)
	ex, ok := AsException(err)
	require.True(t, ok)
	assert.Equal(t, "TypeError: boom", ex.Message)

	_, err = rt.Construct(ObjectValue(fn), nil, nil)
	_, ok = AsException(err)
	assert.True(t, ok, "non-constructors reject new")
}

func TestObject_Arrays(t *testing.T) {
	rt := newTestRuntime(t, 0)
	proto, _ := rt.NewObject(nil)
	class, err := rt.NewArrayClass(proto)
	require.NoError(t, err)
	rt.ArrayClass = class
	rt.ArrayPrototype = proto

	arr, err := rt.NewArray([]Value{NumberValue(1), NumberValue(2)})
	require.NoError(t, err)
	assert.Same(t, proto, arr.Prototype())

	length := func() float64 {
		v, err := rt.Get(arr, NewStringKey("length"))
		require.NoError(t, err)
		return v.AsNumber()
	}
	assert.Equal(t, 2.0, length())

	require.NoError(t, rt.Put(arr, IndexKey(5), NewString("x"), true))
	assert.Equal(t, 6.0, length())

	require.NoError(t, rt.Put(arr, NewStringKey("length"), NumberValue(1), true))
	assert.Equal(t, 1.0, length())
	assert.False(t, arr.HasOwnProperty(IndexKey(1)))

	_, ok := AsException(rt.Put(arr, NewStringKey("length"), NumberValue(1.5), true))
	assert.True(t, ok, "fractional length is a RangeError")

	d, _ := arr.GetOwnProperty(NewStringKey("length"))
	assert.Equal(t, PropertyFlags{Writable: true}, d.Flags)
}

func TestObject_StringWrapperIndices(t *testing.T) {
	rt := newTestRuntime(t, 0)
	rt.StringPrototype, _ = rt.NewObject(nil)
	w, err := rt.ToObject(NewString("héllo"))
	require.NoError(t, err)
	v, err := rt.Get(w, IndexKey(1))
	require.NoError(t, err)
	assert.Equal(t, "é", v.AsString())
	l, _ := rt.Get(w, NewStringKey("length"))
	assert.Equal(t, 5.0, l.AsNumber())

	ok, err := rt.DefineOwnProperty(w, IndexKey(0), NormalFlags(), NewString("x"))
	require.NoError(t, err)
	assert.False(t, ok, "string indices are read-only")
}
