package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapData_SameValueZero(t *testing.T) {
	d := NewMapData()
	d.Set(NaNValue(), NewString("nan"))
	d.Set(NumberValue(math.Copysign(0, -1)), NewString("zero"))

	v, ok := d.Get(NumberValue(math.NaN()))
	assert.True(t, ok)
	assert.Equal(t, "nan", v.AsString())

	v, ok = d.Get(NumberValue(0))
	assert.True(t, ok)
	assert.Equal(t, "zero", v.AsString())

	k, _, _ := cursorSkip(d.Cursor(), 1)
	assert.False(t, math.Signbit(k.AsNumber()), "-0 keys are normalised to +0")

	assert.False(t, d.Has(NewString("0")), "strings and numbers are distinct keys")
}

func TestMapData_InsertionOrder(t *testing.T) {
	d := NewMapData()
	for _, s := range []string{"a", "b", "c"} {
		d.Set(NewString(s), Undefined)
	}
	d.Set(NewString("a"), True)
	assert.True(t, d.Delete(NewString("b")))
	assert.False(t, d.Delete(NewString("b")))

	var keys []string
	_ = d.ForEach(func(k, v Value) error {
		keys = append(keys, k.AsString())
		return nil
	})
	assert.Equal(t, []string{"a", "c"}, keys)

	v, _ := d.Get(NewString("a"))
	assert.True(t, v.AsBoolean(), "update keeps position and replaces value")
	assert.Equal(t, 2, d.Size())

	d.Clear()
	_, _, ok := d.Cursor().Next()
	assert.False(t, ok)
}

// cursorSkip advances c past n entries and returns the next one.
func cursorSkip(c *MapCursor, n int) (Value, Value, bool) {
	for ; n > 0; n-- {
		c.Next()
	}
	return c.Next()
}

func TestMapCursor_DeleteDuringWalk(t *testing.T) {
	d := NewMapData()
	for _, s := range []string{"a", "b", "c"} {
		d.Set(NewString(s), Undefined)
	}
	c := d.Cursor()
	var seen []string
	for k, _, ok := c.Next(); ok; k, _, ok = c.Next() {
		seen = append(seen, k.AsString())
		d.Delete(k)
		if k.AsString() == "b" {
			d.Set(NewString("d"), Undefined)
		}
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, seen)
	assert.Equal(t, 0, d.Size())
}

func TestMapCursor_SurvivesCompaction(t *testing.T) {
	d := NewMapData()
	for i := 0; i < 40; i++ {
		d.Set(NumberValue(float64(i)), Undefined)
	}
	c := d.Cursor()
	cursorSkip(c, 19) // positioned after key 19

	// Deleting enough entries forces compaction while c is open.
	for i := 0; i < 30; i++ {
		if i != 25 {
			d.Delete(NumberValue(float64(i)))
		}
	}
	assert.Less(t, len(d.entries), 40, "tombstones were compacted")

	var rest []float64
	for k, _, ok := c.Next(); ok; k, _, ok = c.Next() {
		rest = append(rest, k.AsNumber())
	}
	assert.Equal(t, []float64{25, 30, 31, 32, 33, 34, 35, 36, 37, 38, 39}, rest)
}

func TestMapCursor_ClearThenAdd(t *testing.T) {
	d := NewMapData()
	d.Set(NewString("a"), Undefined)
	d.Set(NewString("b"), Undefined)
	c := d.Cursor()
	c.Next()
	d.Clear()
	d.Set(NewString("z"), Undefined)

	k, _, ok := c.Next()
	assert.True(t, ok)
	assert.Equal(t, "z", k.AsString())
	_, _, ok = c.Next()
	assert.False(t, ok)
}

func TestWeakData_IdentityKeys(t *testing.T) {
	rt := newTestRuntime(t, 0)
	a, _ := rt.NewObject(nil)
	b, _ := rt.NewObject(nil)
	d := NewWeakData()
	d.Set(a, NumberValue(1))

	assert.True(t, d.Has(a))
	assert.False(t, d.Has(b))
	assert.True(t, d.Delete(a))
	assert.False(t, d.Has(a))
}

func TestStringView(t *testing.T) {
	ascii := NewStringView("hello")
	assert.True(t, ascii.IsASCII())
	assert.Equal(t, 5, ascii.Len())
	assert.Equal(t, "ell", ascii.Slice(1, 4).String())

	v := NewStringView("a😀b")
	assert.Equal(t, 4, v.Len())
	assert.Equal(t, uint16(0xD83D), v.At(1))
	assert.Equal(t, uint16(0xDE00), v.At(2))
	assert.Equal(t, "😀", v.Slice(1, 3).String())
	assert.Equal(t, "�", v.Slice(1, 2).String(), "unpaired surrogates decode to U+FFFD")
	assert.Equal(t, "a😀b", StringFromUnits(v.Units()))
}

func TestWhiteSpaceClassification(t *testing.T) {
	for _, c := range []uint16{'\t', '\v', '\f', ' ', 0xA0, 0xFEFF, 0x1680, 0x2000, 0x3000} {
		assert.True(t, IsWhiteSpaceChar(c), "%#x", c)
	}
	for _, c := range []uint16{'a', 0x200B, '\n'} {
		assert.False(t, IsWhiteSpaceChar(c), "%#x", c)
	}
	for _, c := range []uint16{'\n', '\r', 0x2028, 0x2029} {
		assert.True(t, IsLineTerminatorChar(c), "%#x", c)
	}
}

func TestCompileRegExp_Flags(t *testing.T) {
	rt := newTestRuntime(t, 0)
	d, err := rt.CompileRegExp("^b.c$", "ims")
	assert.NoError(t, err)
	assert.NotNil(t, d)
	matched, err := d.re.MatchString("a\nB\nC")
	assert.NoError(t, err)
	assert.True(t, matched, "ignore-case, multiline and dotAll combine")

	_, err = rt.CompileRegExp("a", "gg")
	_, ok := AsException(err)
	assert.True(t, ok, "duplicate flags raise a SyntaxError")
}
