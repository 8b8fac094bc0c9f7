package builtins

import (
	"math"
	"strconv"
	"testing"

	"github.com/dop251/goja"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/alexmckenley/hermes/pkg/vm"
)

// sameNumber compares two doubles treating NaN as equal to itself.
func sameNumber(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return a == b
}

func TestParseInt(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		text  string
		radix int
		want  float64
	}{
		{"  +10", 10, 10},
		{"0x1F", 0, 31},
		{"1F", 16, 31},
		{"1F", 0, 1},
		{"", 0, nan},
		{"   ", 10, nan},
		{"5", 37, nan},
		{"5", 1, nan},
		{"-", 0, nan},
		{"+", 10, nan},
		{"-0x1F", 0, -31},
		{"-0X1f", 16, -31},
		{"0x", 16, nan},
		{"0x10", 10, 0},
		{"\t\n\r 42abc", 0, 42},
		{"z", 36, 35},
		{"101", 2, 5},
		{"9007199254740993", 10, 9007199254740992},
		{"ffffffffffffffffffff", 16, 1208925819614629174706176},
	}
	for _, tt := range tests {
		got := ParseInt(tt.text, tt.radix)
		assert.Truef(t, sameNumber(got, tt.want), "ParseInt(%q, %d) = %v, want %v", tt.text, tt.radix, got, tt.want)
	}
}

func TestParseIntNegativeZero(t *testing.T) {
	got := ParseInt("-0", 10)
	assert.Equal(t, 0.0, got)
	assert.True(t, math.Signbit(got))
}

func TestParseFloat(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		text string
		want float64
	}{
		{"3.14abc", 3.14},
		{"   Infinity", math.Inf(1)},
		{"-InfinityXYZ", math.Inf(-1)},
		{"+Infinity", math.Inf(1)},
		{"abc", nan},
		{"1e", 1},
		{"1e+", 1},
		{".5", 0.5},
		{"-.5e1x", -5},
		{"", nan},
		{".", nan},
		{"-", nan},
		{"0x10", 0},
		{"1.5e3.2", 1500},
		{"  7", 7},
	}
	for _, tt := range tests {
		got := ParseFloat(tt.text)
		assert.Truef(t, sameNumber(got, tt.want), "ParseFloat(%q) = %v, want %v", tt.text, got, tt.want)
	}
}

func TestParseIntThroughGlobal(t *testing.T) {
	rt := newTestRuntime(t)
	parse := global(t, rt, "parseInt")

	got := call(t, rt, parse, vm.Undefined, str("ff"), num(16))
	assert.Equal(t, 255.0, got.AsNumber())

	// The radix is truncated to int32 before it is range checked.
	got = call(t, rt, parse, vm.Undefined, str("ff"), num(4294967312))
	assert.Equal(t, 255.0, got.AsNumber())
	got = call(t, rt, parse, vm.Undefined, str("11"), num(2.9))
	assert.Equal(t, 3.0, got.AsNumber())

	// An undefined radix behaves like 0.
	got = call(t, rt, parse, vm.Undefined, str("0x10"), vm.Undefined)
	assert.Equal(t, 16.0, got.AsNumber())

	got = call(t, rt, parse, vm.Undefined, num(123.9))
	assert.Equal(t, 123.0, got.AsNumber())
}

func TestParseFloatThroughGlobal(t *testing.T) {
	rt := newTestRuntime(t)
	got := call(t, rt, global(t, rt, "parseFloat"), vm.Undefined, str("  2.5e2px"))
	assert.Equal(t, 250.0, got.AsNumber())
}

func TestIsNaNAndIsFinite(t *testing.T) {
	rt := newTestRuntime(t)
	isNaN, isFinite := global(t, rt, "isNaN"), global(t, rt, "isFinite")

	assert.True(t, call(t, rt, isNaN, vm.Undefined, str("abc")).AsBoolean())
	assert.False(t, call(t, rt, isNaN, vm.Undefined, str("12")).AsBoolean())
	assert.True(t, call(t, rt, isNaN, vm.Undefined).AsBoolean())
	assert.True(t, call(t, rt, isFinite, vm.Undefined, str("12")).AsBoolean())
	assert.False(t, call(t, rt, isFinite, vm.Undefined, num(math.Inf(-1))).AsBoolean())
	assert.False(t, call(t, rt, isFinite, vm.Undefined, vm.NaNValue()).AsBoolean())
}

func TestParseIntRoundTripsFormattedIntegers(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("ParseInt inverts strconv.FormatInt", prop.ForAll(
		func(n int64, radix int) bool {
			return ParseInt(strconv.FormatInt(n, radix), radix) == float64(n)
		},
		gen.Int64Range(-1<<53, 1<<53),
		gen.IntRange(2, 36),
	))

	properties.Property("leading whitespace and trailing garbage are ignored", prop.ForAll(
		func(n int64) bool {
			return ParseInt(" \t"+strconv.FormatInt(n, 10)+"px", 10) == float64(n)
		},
		gen.Int64Range(-1<<40, 1<<40),
	))

	properties.Property("ParseFloat reads strconv-formatted doubles back", prop.ForAll(
		func(f float64) bool {
			return ParseFloat(strconv.FormatFloat(f, 'g', -1, 64)) == f
		},
		gen.Float64(),
	))

	properties.TestingRun(t)
}

// gojaNumberParser wraps one of goja's global parsers.
func gojaNumberParser(t *testing.T, name string) func(args ...interface{}) float64 {
	t.Helper()
	r := goja.New()
	fn, ok := goja.AssertFunction(r.Get(name))
	if !ok {
		t.Fatalf("goja global %s is not a function", name)
	}
	return func(args ...interface{}) float64 {
		vals := make([]goja.Value, len(args))
		for i, a := range args {
			vals[i] = r.ToValue(a)
		}
		res, err := fn(goja.Undefined(), vals...)
		if err != nil {
			t.Fatalf("goja %s: %v", name, err)
		}
		return res.ToFloat()
	}
}

func TestParsersAgreeWithGoja(t *testing.T) {
	oracleInt := gojaNumberParser(t, "parseInt")
	oracleFloat := gojaNumberParser(t, "parseFloat")

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 1000
	properties := gopter.NewProperties(parameters)

	properties.Property("parseInt", prop.ForAll(
		func(text string, radix int) bool {
			return sameNumber(ParseInt(text, radix), oracleInt(text, radix))
		},
		gen.RegexMatch(`[ \t]{0,2}[+-]?(0[xX])?[0-9a-fA-Fz.]{0,10}`),
		gen.IntRange(0, 40),
	))

	properties.Property("parseFloat", prop.ForAll(
		func(text string) bool {
			return sameNumber(ParseFloat(text), oracleFloat(text))
		},
		gen.RegexMatch(`[ \t]{0,2}[+-]?[0-9]{0,4}\.?[0-9]{0,4}([eE][+-]?[0-9]{0,3})?[a-z]{0,2}`),
	))

	properties.TestingRun(t)
}
