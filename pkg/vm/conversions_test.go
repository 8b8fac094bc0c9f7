package vm

import (
	"math"
	"testing"
)

func TestNumberToString(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{1, "1"},
		{-1.5, "-1.5"},
		{0.1, "0.1"},
		{100, "100"},
		{0.000001, "0.000001"},
		{1e-7, "1e-7"},
		{123e-20, "1.23e-18"},
		{1e21, "1e+21"},
		{123456789012345680000, "123456789012345680000"},
		{1.5e300, "1.5e+300"},
		{math.NaN(), "NaN"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		if got := NumberToString(tt.in); got != tt.want {
			t.Errorf("NumberToString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNumberToStringRadix(t *testing.T) {
	tests := []struct {
		in    float64
		radix int
		want  string
	}{
		{255, 16, "ff"},
		{-255, 2, "-11111111"},
		{0.5, 2, "0.1"},
		{3.75, 2, "11.11"},
		{35, 36, "z"},
		{10, 10, "10"},
	}
	for _, tt := range tests {
		if got := NumberToStringRadix(tt.in, tt.radix); got != tt.want {
			t.Errorf("NumberToStringRadix(%v, %d) = %q, want %q", tt.in, tt.radix, got, tt.want)
		}
	}
}

func TestStringToDouble(t *testing.T) {
	tests := []struct {
		in       string
		want     float64
		consumed int
	}{
		{"3.14abc", 3.14, 4},
		{".5", 0.5, 2},
		{"5.", 5, 2},
		{"1e", 1, 1},
		{"1e+", 1, 1},
		{"1e-2x", 0.01, 4},
		{"-", 0, 0},
		{".e1", 0, 0},
		{"  1", 0, 0},
		{"1e400", math.Inf(1), 5},
		{"-1e400", math.Inf(-1), 6},
	}
	for _, tt := range tests {
		got, n := StringToDouble(tt.in)
		if got != tt.want || n != tt.consumed {
			t.Errorf("StringToDouble(%q) = (%v, %d), want (%v, %d)", tt.in, got, n, tt.want, tt.consumed)
		}
	}

	neg, n := StringToDouble("-0")
	if n != 2 || neg != 0 || !math.Signbit(neg) {
		t.Errorf("StringToDouble(\"-0\") = (%v, %d), want (-0, 2)", neg, n)
	}
}

func TestDigitsWithRadixToDouble(t *testing.T) {
	tests := []struct {
		digits string
		radix  int
		want   float64
	}{
		{"ff", 16, 255},
		{"FF", 16, 255},
		{"z", 36, 35},
		{"777", 8, 511},
		{"18446744073709551615", 10, 18446744073709551615},
		{"123456789012345678901234567890", 10, 1.2345678901234568e29},
		{"11111111111111111111111111111111111111111111111111111111111111111", 2, 36893488147419103232},
	}
	for _, tt := range tests {
		if got := DigitsWithRadixToDouble(tt.digits, tt.radix); got != tt.want {
			t.Errorf("DigitsWithRadixToDouble(%q, %d) = %v, want %v", tt.digits, tt.radix, got, tt.want)
		}
	}
}

func TestStringToNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"  12\n", 12},
		{"0x1F", 31},
		{"0o17", 15},
		{"0b101", 5},
		{"1e3", 1000},
		{"-Infinity", math.Inf(-1)},
	}
	for _, tt := range tests {
		if got := StringToNumber(tt.in); got != tt.want {
			t.Errorf("StringToNumber(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	for _, in := range []string{"abc", "0b102", "-0x10", "1_000", "12px", "inf"} {
		if got := StringToNumber(in); !math.IsNaN(got) {
			t.Errorf("StringToNumber(%q) = %v, want NaN", in, got)
		}
	}
}

func TestDoubleToUint32(t *testing.T) {
	tests := []struct {
		in   float64
		want uint32
	}{
		{-1, 4294967295},
		{4294967296 + 5, 5},
		{2.9, 2},
		{-2.9, 4294967294},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}
	for _, tt := range tests {
		if got := DoubleToUint32(tt.in); got != tt.want {
			t.Errorf("DoubleToUint32(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestToPrimitiveUsesValueOf(t *testing.T) {
	rt := newTestRuntime(t, 0)
	o, _ := rt.NewObject(nil)
	valueOf, _ := rt.NewNativeFunction(nil, NoContext(), func(*Runtime, NativeContext, NativeArgs) (Value, error) {
		return NumberValue(7), nil
	}, "valueOf", 0)
	if _, err := rt.DefineOwnProperty(o, NewStringKey("valueOf"), NormalFlags(), ObjectValue(valueOf)); err != nil {
		t.Fatal(err)
	}
	n, err := rt.ToNumber(ObjectValue(o))
	if err != nil || n != 7 {
		t.Errorf("ToNumber(object) = (%v, %v), want 7", n, err)
	}
	s, err := rt.ToString(ObjectValue(o))
	if err != nil || s != "7" {
		t.Errorf("ToString(object) = (%q, %v), want \"7\"", s, err)
	}

	bare, _ := rt.NewObject(nil)
	if _, err := rt.ToNumber(ObjectValue(bare)); err == nil {
		t.Errorf("expected a TypeError converting an object without methods")
	}
}
