package builtins

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexmckenley/hermes/pkg/vm"
)

// collect drains an iterable into a slice.
func collect(t *testing.T, rt *vm.Runtime, iterable vm.Value) []vm.Value {
	t.Helper()
	var out []vm.Value
	require.NoError(t, iterate(rt, iterable, func(v vm.Value) error {
		out = append(out, v)
		return nil
	}))
	return out
}

func inspectAll(vals []vm.Value) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = vm.Inspect(v)
	}
	return out
}

func TestObjectStatics(t *testing.T) {
	rt := newTestRuntime(t)
	proto, err := rt.NewObject(rt.ObjectPrototype)
	require.NoError(t, err)
	o := callMethod(t, rt, global(t, rt, "Object"), "create", vm.ObjectValue(proto))
	assert.Same(t, proto, o.AsObject().Prototype())

	desc, err := rt.NewObject(rt.ObjectPrototype)
	require.NoError(t, err)
	_, err = rt.CreateDataProperty(desc, vm.NewStringKey("value"), num(7))
	require.NoError(t, err)
	callMethod(t, rt, global(t, rt, "Object"), "defineProperty", o, str("x"), vm.ObjectValue(desc))

	d := ownDescriptor(t, o.AsObject(), "x")
	assert.Equal(t, vm.PropertyFlags{}, d.Flags)
	assert.Equal(t, 7.0, d.Value.AsNumber())

	keys := callMethod(t, rt, global(t, rt, "Object"), "keys", o)
	assert.Empty(t, collect(t, rt, keys))
	names := callMethod(t, rt, global(t, rt, "Object"), "getOwnPropertyNames", o)
	assert.Equal(t, []string{`"x"`}, inspectAll(collect(t, rt, names)))

	tag := callMethod(t, rt, vm.ObjectValue(rt.ObjectPrototype), "toString")
	assert.Equal(t, "[object Object]", tag.AsString())
	toString := member(t, rt, "Object", "prototype", "toString")
	assert.Equal(t, "[object Array]", call(t, rt, toString, vm.ObjectValue(rt.ArrayPrototype)).AsString())
	assert.Equal(t, "[object Math]", call(t, rt, toString, global(t, rt, "Math")).AsString())
	assert.Equal(t, "[object Null]", call(t, rt, toString, vm.Null).AsString())
}

func TestErrorConstructors(t *testing.T) {
	rt := newTestRuntime(t)
	e := construct(t, rt, global(t, rt, "RangeError"), str("too big"))
	assert.Same(t, rt.NativeErrorPrototypes[vm.RangeError], e.AsObject().Prototype())
	assert.Equal(t, "RangeError: too big", callMethod(t, rt, e, "toString").AsString())

	plain := call(t, rt, global(t, rt, "Error"), vm.Undefined)
	assert.Equal(t, "Error", callMethod(t, rt, plain, "toString").AsString())
	assert.Same(t, rt.ErrorConstructor, global(t, rt, "TypeError").AsObject().Prototype())
}

func TestStringMethods(t *testing.T) {
	rt := newTestRuntime(t)
	s := str("héllo 😀")
	assert.Equal(t, "é", callMethod(t, rt, s, "charAt", num(1)).AsString())
	assert.Equal(t, 104.0, callMethod(t, rt, s, "charCodeAt", num(0)).AsNumber())
	assert.True(t, callMethod(t, rt, s, "charCodeAt", num(99)).IsNaN())
	assert.Equal(t, 2.0, callMethod(t, rt, s, "indexOf", str("ll")).AsNumber())
	assert.Equal(t, "llo", callMethod(t, rt, s, "slice", num(2), num(-3)).AsString())
	assert.Equal(t, "HÉLLO 😀", callMethod(t, rt, s, "toUpperCase").AsString())
	assert.Equal(t, "x", callMethod(t, rt, str("  x\n"), "trim").AsString())

	parts := collect(t, rt, s)
	require.Len(t, parts, 7)
	assert.Equal(t, "😀", parts[6].AsString())

	wrapped := construct(t, rt, global(t, rt, "String"), str("ab"))
	assert.Equal(t, vm.ClassString, wrapped.AsObject().Class())
	assert.Equal(t, "AB", call(t, rt, member(t, rt, "String", "fromCharCode"), vm.Undefined, num(65), num(66)).AsString())
}

func TestFunctionPrototype(t *testing.T) {
	rt := newTestRuntime(t)
	assert.True(t, call(t, rt, vm.ObjectValue(rt.FunctionPrototype), vm.Undefined).IsUndefined())

	parseInt := global(t, rt, "parseInt")
	bound := callMethod(t, rt, parseInt, "bind", vm.Undefined, str("ff"))
	assert.Equal(t, 255.0, call(t, rt, bound, vm.Undefined, num(16)).AsNumber())
	name, err := rt.Get(bound.AsObject(), vm.NewStringKey("name"))
	require.NoError(t, err)
	assert.Equal(t, "bound parseInt", name.AsString())

	args, err := rt.NewArray([]vm.Value{str("11"), num(2)})
	require.NoError(t, err)
	assert.Equal(t, 3.0, callMethod(t, rt, parseInt, "apply", vm.Undefined, vm.ObjectValue(args)).AsNumber())

	_, err = rt.Call(global(t, rt, "Function"), vm.Undefined, []vm.Value{str("return 1")})
	assert.Equal(t, "EvalError", thrownError(t, rt, err))
}

func TestNumberAndBoolean(t *testing.T) {
	rt := newTestRuntime(t)
	assert.Equal(t, "ff", callMethod(t, rt, num(255), "toString", num(16)).AsString())
	_, err := rt.Call(member(t, rt, "Number", "prototype", "toString"), num(1), []vm.Value{num(37)})
	assert.Equal(t, "RangeError", thrownError(t, rt, err))

	isSafe := member(t, rt, "Number", "isSafeInteger")
	assert.True(t, call(t, rt, isSafe, vm.Undefined, num(1<<53-1)).AsBoolean())
	assert.False(t, call(t, rt, isSafe, vm.Undefined, num(1<<53)).AsBoolean())
	assert.False(t, call(t, rt, member(t, rt, "Number", "isNaN"), vm.Undefined, str("NaN")).AsBoolean())

	b := construct(t, rt, global(t, rt, "Boolean"), num(0))
	assert.Equal(t, "false", callMethod(t, rt, b, "toString").AsString())
	assert.True(t, call(t, rt, global(t, rt, "Boolean"), vm.Undefined, str("x")).AsBoolean())
	assert.Equal(t, 0.0, callMethod(t, rt, vm.ObjectValue(rt.NumberPrototype), "valueOf").AsNumber())
}

func TestArrayMethods(t *testing.T) {
	rt := newTestRuntime(t)
	arr := construct(t, rt, global(t, rt, "Array"), num(1), num(2))
	assert.Equal(t, 3.0, callMethod(t, rt, arr, "push", num(3)).AsNumber())
	assert.Equal(t, "1-2-3", callMethod(t, rt, arr, "join", str("-")).AsString())
	assert.Equal(t, 1.0, callMethod(t, rt, arr, "indexOf", num(2)).AsNumber())
	assert.Equal(t, 3.0, callMethod(t, rt, arr, "pop").AsNumber())
	assert.Equal(t, "1,2", callMethod(t, rt, arr, "toString").AsString())

	sized := construct(t, rt, global(t, rt, "Array"), num(4))
	length, err := rt.Get(sized.AsObject(), vm.NewStringKey("length"))
	require.NoError(t, err)
	assert.Equal(t, 4.0, length.AsNumber())
	_, err = rt.Construct(global(t, rt, "Array"), []vm.Value{num(-1)}, global(t, rt, "Array").AsObject())
	assert.Equal(t, "RangeError", thrownError(t, rt, err))

	entries := collect(t, rt, callMethod(t, rt, arr, "entries"))
	require.Len(t, entries, 2)
	assert.Equal(t, "1,2", callMethod(t, rt, entries[1], "join").AsString())

	values := member(t, rt, "Array", "prototype", "values")
	iter, err := rt.Get(rt.ArrayPrototype, vm.NewSymbolKey(rt.Symbols.Iterator))
	require.NoError(t, err)
	assert.Same(t, values.AsObject(), iter.AsObject())
}

func TestMapAndSet(t *testing.T) {
	rt := newTestRuntime(t)
	m := construct(t, rt, global(t, rt, "Map"))
	callMethod(t, rt, m, "set", str("a"), num(1))
	callMethod(t, rt, m, "set", vm.NaNValue(), num(2))
	callMethod(t, rt, m, "set", str("a"), num(3))
	assert.Equal(t, 3.0, callMethod(t, rt, m, "get", str("a")).AsNumber())
	assert.Equal(t, 2.0, callMethod(t, rt, m, "get", vm.NaNValue()).AsNumber())
	size, err := rt.Get(m.AsObject(), vm.NewStringKey("size"))
	require.NoError(t, err)
	assert.Equal(t, 2.0, size.AsNumber())
	assert.Equal(t, []string{`"a"`, "NaN"}, inspectAll(collect(t, rt, callMethod(t, rt, m, "keys"))))

	_, err = rt.Call(global(t, rt, "Map"), vm.Undefined, nil)
	assert.Equal(t, "TypeError", thrownError(t, rt, err))

	src, err := rt.NewArray([]vm.Value{num(1), num(2), num(1), num(math.Copysign(0, -1)), num(0)})
	require.NoError(t, err)
	s := construct(t, rt, global(t, rt, "Set"), vm.ObjectValue(src))
	assert.Equal(t, []string{"1", "2", "0"}, inspectAll(collect(t, rt, s)))
	assert.True(t, callMethod(t, rt, s, "delete", num(2)).AsBoolean())
	assert.False(t, callMethod(t, rt, s, "has", num(2)).AsBoolean())
}

func TestMapIterationSurvivesDeletes(t *testing.T) {
	rt := newTestRuntime(t)
	newMap := func() vm.Value {
		m := construct(t, rt, global(t, rt, "Map"))
		for i, k := range []string{"a", "b", "c"} {
			callMethod(t, rt, m, "set", str(k), num(float64(i)))
		}
		return m
	}

	m := newMap()
	it := callMethod(t, rt, m, "keys")
	var keys []string
	for {
		res := callMethod(t, rt, it, "next")
		done, err := rt.Get(res.AsObject(), vm.NewStringKey("done"))
		require.NoError(t, err)
		if done.AsBoolean() {
			break
		}
		k, err := rt.Get(res.AsObject(), vm.NewStringKey("value"))
		require.NoError(t, err)
		keys = append(keys, k.AsString())
		callMethod(t, rt, m, "delete", k)
	}
	assert.Equal(t, []string{"a", "b", "c"}, keys)

	m = newMap()
	keys = nil
	visit, err := rt.NewFunction(func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		k := args.Arg(1)
		keys = append(keys, k.AsString())
		callMethod(t, rt, m, "delete", k)
		if k.AsString() == "a" {
			callMethod(t, rt, m, "set", str("d"), num(3))
		}
		return vm.Undefined, nil
	}, "visit", 3)
	require.NoError(t, err)
	callMethod(t, rt, m, "forEach", vm.ObjectValue(visit))
	assert.Equal(t, []string{"a", "b", "c", "d"}, keys)

	s := construct(t, rt, global(t, rt, "Set"))
	for i := 0; i < 20; i++ {
		callMethod(t, rt, s, "add", num(float64(i)))
	}
	var seen []float64
	require.NoError(t, iterate(rt, s, func(v vm.Value) error {
		seen = append(seen, v.AsNumber())
		callMethod(t, rt, s, "delete", num(v.AsNumber()+1))
		return nil
	}))
	assert.Equal(t, []float64{0, 2, 4, 6, 8, 10, 12, 14, 16, 18}, seen)
}

func TestWeakCollections(t *testing.T) {
	rt := newTestRuntime(t)
	wm := construct(t, rt, global(t, rt, "WeakMap"))
	key, err := rt.NewObject(rt.ObjectPrototype)
	require.NoError(t, err)
	callMethod(t, rt, wm, "set", vm.ObjectValue(key), num(5))
	assert.Equal(t, 5.0, callMethod(t, rt, wm, "get", vm.ObjectValue(key)).AsNumber())
	_, err = rt.Call(member(t, rt, "WeakMap", "prototype", "set"), wm, []vm.Value{num(1), num(1)})
	assert.Equal(t, "TypeError", thrownError(t, rt, err))

	ws := construct(t, rt, global(t, rt, "WeakSet"))
	callMethod(t, rt, ws, "add", vm.ObjectValue(key))
	assert.True(t, callMethod(t, rt, ws, "has", vm.ObjectValue(key)).AsBoolean())
}

func TestRegExp(t *testing.T) {
	rt := newTestRuntime(t)
	re := construct(t, rt, global(t, rt, "RegExp"), str(`(\d+)-(\d+)`), str("g"))
	m := callMethod(t, rt, re, "exec", str("a 12-34 5-6"))
	require.True(t, m.IsObject())
	assert.Equal(t, "12-34,12,34", callMethod(t, rt, m, "join").AsString())
	index, err := rt.Get(m.AsObject(), vm.NewStringKey("index"))
	require.NoError(t, err)
	assert.Equal(t, 2.0, index.AsNumber())
	last, err := rt.Get(re.AsObject(), vm.NewStringKey("lastIndex"))
	require.NoError(t, err)
	assert.Equal(t, 7.0, last.AsNumber())

	assert.True(t, callMethod(t, rt, re, "test", str("a 12-34 5-6")).AsBoolean())
	assert.False(t, callMethod(t, rt, re, "test", str("a 12-34 5-6")).AsBoolean())
	assert.Equal(t, "/(\\d+)-(\\d+)/g", callMethod(t, rt, re, "toString").AsString())
	assert.Equal(t, "(?:)", member(t, rt, "RegExp", "prototype", "source").AsString())

	_, err = rt.Construct(global(t, rt, "RegExp"), []vm.Value{str("(")}, global(t, rt, "RegExp").AsObject())
	assert.Equal(t, "SyntaxError", thrownError(t, rt, err))
}

func TestTypedArraysAndDataView(t *testing.T) {
	rt := newTestRuntime(t)
	buf := construct(t, rt, global(t, rt, "ArrayBuffer"), num(8))
	u8 := construct(t, rt, global(t, rt, "Uint8Array"), buf)
	i16 := construct(t, rt, global(t, rt, "Int16Array"), buf, num(2), num(2))

	length, err := rt.Get(i16.AsObject(), vm.NewStringKey("length"))
	require.NoError(t, err)
	assert.Equal(t, 2.0, length.AsNumber())
	require.NoError(t, rt.Put(i16.AsObject(), vm.NewStringKey("0"), num(-2), true))
	assert.Equal(t, "0,0,254,255,0,0,0,0", callMethod(t, rt, u8, "join").AsString())

	for _, strict := range []bool{false, true} {
		require.NoError(t, rt.Put(i16.AsObject(), vm.NewStringKey("5"), num(1), strict), "strict=%v", strict)
	}
	_, has := i16.AsObject().GetOwnProperty(vm.NewStringKey("5"))
	assert.False(t, has, "out-of-range typed array writes are dropped")
	assert.Equal(t, "0,0,254,255,0,0,0,0", callMethod(t, rt, u8, "join").AsString())

	dv := construct(t, rt, global(t, rt, "DataView"), buf)
	assert.Equal(t, -2.0, callMethod(t, rt, dv, "getInt16", num(2), vm.True).AsNumber())
	assert.Equal(t, 0xFEFF+0.0, callMethod(t, rt, dv, "getUint16", num(2)).AsNumber())
	callMethod(t, rt, dv, "setFloat32", num(4), num(1.5))
	assert.Equal(t, 1.5, callMethod(t, rt, dv, "getFloat32", num(4)).AsNumber())

	src, err := rt.NewArray([]vm.Value{num(300), num(-1), num(1.7)})
	require.NoError(t, err)
	clamped := construct(t, rt, global(t, rt, "Uint8ClampedArray"), vm.ObjectValue(src))
	assert.Equal(t, "255,0,2", callMethod(t, rt, clamped, "join").AsString())
	assert.True(t, call(t, rt, member(t, rt, "ArrayBuffer", "isView"), vm.Undefined, dv).AsBoolean())

	tag, err := rt.Get(u8.AsObject(), vm.NewSymbolKey(rt.Symbols.ToStringTag))
	require.NoError(t, err)
	assert.Equal(t, "Uint8Array", tag.AsString())
	bpe := member(t, rt, "Float64Array", "BYTES_PER_ELEMENT")
	assert.Equal(t, 8.0, bpe.AsNumber())

	_, err = rt.Construct(global(t, rt, "Int32Array"), []vm.Value{buf, num(1)}, global(t, rt, "Int32Array").AsObject())
	assert.Equal(t, "RangeError", thrownError(t, rt, err))
}

func TestMathObject(t *testing.T) {
	rt := newTestRuntime(t)
	m := global(t, rt, "Math")
	assert.Equal(t, math.Pi, member(t, rt, "Math", "PI").AsNumber())
	assert.Equal(t, 3.0, callMethod(t, rt, m, "round", num(2.5)).AsNumber())
	assert.True(t, math.Signbit(callMethod(t, rt, m, "round", num(-0.4)).AsNumber()))
	assert.Equal(t, -2.0, callMethod(t, rt, m, "round", num(-2.5)).AsNumber())
	assert.True(t, callMethod(t, rt, m, "max", num(1), vm.NaNValue()).IsNaN())
	assert.Equal(t, math.Inf(-1), callMethod(t, rt, m, "max").AsNumber())
	assert.Equal(t, -6.0, callMethod(t, rt, m, "imul", num(0xFFFFFFFF), num(6)).AsNumber())
	assert.True(t, callMethod(t, rt, m, "pow", num(1), num(math.Inf(1))).IsNaN())
	r := callMethod(t, rt, m, "random").AsNumber()
	assert.True(t, r >= 0 && r < 1)
}

func TestDate(t *testing.T) {
	rt := newTestRuntime(t)
	d := construct(t, rt, global(t, rt, "Date"), num(2020), num(1), num(29), num(12))
	assert.Equal(t, "2020-02-29T12:00:00.000Z", callMethod(t, rt, d, "toISOString").AsString())
	assert.Equal(t, 1.0, callMethod(t, rt, d, "getMonth").AsNumber())
	parsed := call(t, rt, member(t, rt, "Date", "parse"), vm.Undefined, str("2020-02-29T12:00:00.000Z"))
	assert.Equal(t, callMethod(t, rt, d, "getTime").AsNumber(), parsed.AsNumber())

	invalid := construct(t, rt, global(t, rt, "Date"), vm.NaNValue())
	_, err := rt.Call(member(t, rt, "Date", "prototype", "toISOString"), invalid, nil)
	assert.Equal(t, "RangeError", thrownError(t, rt, err))
	assert.True(t, callMethod(t, rt, invalid, "toJSON").IsNull())
}

func TestSymbolRegistry(t *testing.T) {
	rt := newTestRuntime(t)
	a := call(t, rt, member(t, rt, "Symbol", "for"), vm.Undefined, str("k"))
	b := call(t, rt, member(t, rt, "Symbol", "for"), vm.Undefined, str("k"))
	assert.True(t, a.StrictEquals(b))
	assert.Equal(t, "k", call(t, rt, member(t, rt, "Symbol", "keyFor"), vm.Undefined, a).AsString())
	assert.Same(t, rt.Symbols.Iterator, member(t, rt, "Symbol", "iterator").AsSymbol())
	_, err := rt.Construct(global(t, rt, "Symbol"), nil, global(t, rt, "Symbol").AsObject())
	assert.Equal(t, "TypeError", thrownError(t, rt, err))
}

// countdown is a generator payload yielding n, n-1, ..., 1.
type countdown struct {
	n        int
	returned vm.Value
}

func (c *countdown) Resume(rt *vm.Runtime, mode vm.ResumeMode, v vm.Value) (vm.Value, bool, error) {
	switch mode {
	case vm.ResumeReturn:
		c.n, c.returned = 0, v
		return v, true, nil
	case vm.ResumeThrow:
		c.n = 0
		return vm.Undefined, true, rt.RaiseRangeError("thrown into generator")
	}
	if c.n == 0 {
		return vm.Undefined, true, nil
	}
	c.n--
	return num(float64(c.n + 1)), false, nil
}

func TestGeneratorPrototype(t *testing.T) {
	rt := newTestRuntime(t)
	newGen := func(n int) (vm.Value, *countdown) {
		c := &countdown{n: n}
		o, err := rt.NewObjectWithClass(vm.ClassGenerator, rt.GeneratorPrototype, c)
		require.NoError(t, err)
		return vm.ObjectValue(o), c
	}

	gen, _ := newGen(3)
	assert.Equal(t, []string{"3", "2", "1"}, inspectAll(collect(t, rt, gen)))

	gen, c := newGen(5)
	res := callMethod(t, rt, gen, "return", num(42))
	done, err := rt.Get(res.AsObject(), vm.NewStringKey("done"))
	require.NoError(t, err)
	assert.True(t, done.AsBoolean())
	assert.Equal(t, 42.0, c.returned.AsNumber())

	gen, _ = newGen(1)
	throw, err := rt.GetV(gen, vm.NewStringKey("throw"))
	require.NoError(t, err)
	_, err = rt.Call(throw, gen, []vm.Value{vm.Undefined})
	assert.Equal(t, "RangeError", thrownError(t, rt, err))

	next, err := rt.GetV(gen, vm.NewStringKey("next"))
	require.NoError(t, err)
	_, err = rt.Call(next, vm.ObjectValue(rt.ObjectPrototype), nil)
	assert.Equal(t, "TypeError", thrownError(t, rt, err))
}
