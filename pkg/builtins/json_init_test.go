package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexmckenley/hermes/pkg/vm"
)

func jsonCall(t *testing.T, rt *vm.Runtime, method string, args ...vm.Value) (vm.Value, error) {
	t.Helper()
	return rt.Call(member(t, rt, "JSON", method), global(t, rt, "JSON"), args)
}

func TestJSONRoundTrip(t *testing.T) {
	rt := newTestRuntime(t)
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1,"b":[true,false,null],"c":"x"}`, `{"a":1,"b":[true,false,null],"c":"x"}`},
		{` [ 1 , 2.5 , -3e2 ] `, `[1,2.5,-300]`},
		{`"é\n<&>"`, `"é\n<&>"`},
		{`{"2":"b","1":"a","z":0}`, `{"1":"a","2":"b","z":0}`},
		{`{}`, `{}`},
		{`[]`, `[]`},
		{`1e400`, `null`},
	}
	for _, tt := range tests {
		v, err := jsonCall(t, rt, "parse", str(tt.in))
		require.NoErrorf(t, err, "parse %s", tt.in)
		out, err := jsonCall(t, rt, "stringify", v)
		require.NoError(t, err)
		assert.Equalf(t, tt.want, out.AsString(), "round trip of %s", tt.in)
	}
}

func TestJSONParseRejectsInvalidText(t *testing.T) {
	rt := newTestRuntime(t)
	for _, in := range []string{``, `{`, `[1,]`, `01`, `1.`, `-`, `{"a" 1}`, `"abc`, `1 2`, `tru`, `'x'`, `.5`} {
		_, err := jsonCall(t, rt, "parse", str(in))
		assert.Equalf(t, "SyntaxError", thrownError(t, rt, err), "input %q", in)
	}
}

func TestJSONParseReviver(t *testing.T) {
	rt := newTestRuntime(t)
	var seen []string
	reviver, err := rt.NewFunction(func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		key := args.Arg(0).AsString()
		seen = append(seen, key)
		if key == "drop" {
			return vm.Undefined, nil
		}
		if v := args.Arg(1); v.IsNumber() {
			return num(v.AsNumber() * 10), nil
		}
		return args.Arg(1), nil
	}, "reviver", 2)
	require.NoError(t, err)

	v, err := jsonCall(t, rt, "parse", str(`{"a":1,"drop":2,"n":[3]}`), vm.ObjectValue(reviver))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "drop", "0", "n", ""}, seen)

	out, err := jsonCall(t, rt, "stringify", v)
	require.NoError(t, err)
	assert.Equal(t, `{"a":10,"n":[30]}`, out.AsString())
}

func TestJSONStringifyOptions(t *testing.T) {
	rt := newTestRuntime(t)
	v, err := jsonCall(t, rt, "parse", str(`{"a":1,"b":{"c":[1,2]},"d":"x"}`))
	require.NoError(t, err)

	out, err := jsonCall(t, rt, "stringify", v, vm.Null, num(2))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": {\n    \"c\": [\n      1,\n      2\n    ]\n  },\n  \"d\": \"x\"\n}", out.AsString())

	allow, err := rt.NewArray([]vm.Value{str("d"), str("a"), str("d")})
	require.NoError(t, err)
	out, err = jsonCall(t, rt, "stringify", v, vm.ObjectValue(allow))
	require.NoError(t, err)
	assert.Equal(t, `{"d":"x","a":1}`, out.AsString())

	out, err = jsonCall(t, rt, "stringify", v, vm.Undefined, str("--"))
	require.NoError(t, err)
	assert.Contains(t, out.AsString(), "\n--\"a\": 1")
}

func TestJSONStringifySkipsUnserializable(t *testing.T) {
	rt := newTestRuntime(t)
	o, err := rt.NewObject(rt.ObjectPrototype)
	require.NoError(t, err)
	_, err = rt.CreateDataProperty(o, vm.NewStringKey("f"), global(t, rt, "parseInt"))
	require.NoError(t, err)
	_, err = rt.CreateDataProperty(o, vm.NewStringKey("u"), vm.Undefined)
	require.NoError(t, err)
	_, err = rt.CreateDataProperty(o, vm.NewStringKey("n"), vm.NaNValue())
	require.NoError(t, err)

	out, err := jsonCall(t, rt, "stringify", vm.ObjectValue(o))
	require.NoError(t, err)
	assert.Equal(t, `{"n":null}`, out.AsString())

	out, err = jsonCall(t, rt, "stringify", vm.Undefined)
	require.NoError(t, err)
	assert.True(t, out.IsUndefined())
}

func TestJSONStringifyCycle(t *testing.T) {
	rt := newTestRuntime(t)
	o, err := rt.NewObject(rt.ObjectPrototype)
	require.NoError(t, err)
	_, err = rt.CreateDataProperty(o, vm.NewStringKey("self"), vm.ObjectValue(o))
	require.NoError(t, err)
	_, err = jsonCall(t, rt, "stringify", vm.ObjectValue(o))
	assert.Equal(t, "TypeError", thrownError(t, rt, err))
}

func TestJSONStringifyToJSON(t *testing.T) {
	rt := newTestRuntime(t)
	date := construct(t, rt, global(t, rt, "Date"), num(0))
	out, err := jsonCall(t, rt, "stringify", date)
	require.NoError(t, err)
	assert.Equal(t, `"1970-01-01T00:00:00.000Z"`, out.AsString())
}
