package vm

import (
	"unicode"

	textunicode "golang.org/x/text/encoding/unicode"
)

// Strings are stored as UTF-8. Script semantics index them by UTF-16 code
// unit, so anything that counts or slices goes through a StringView.
var utf16LE = textunicode.UTF16(textunicode.LittleEndian, textunicode.IgnoreBOM)

// StringView is a read-only UTF-16 code unit view of a string. ASCII strings
// are viewed in place.
type StringView struct {
	s     string
	units []uint16
	ascii bool
}

// NewStringView creates a view of s.
func NewStringView(s string) StringView {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return StringView{s: s, ascii: true}
	}
	b, err := utf16LE.NewEncoder().Bytes([]byte(s))
	if err != nil {
		// The encoder replaces invalid UTF-8; a failure here leaves us with
		// whatever was converted.
		b = b[:len(b)&^1]
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = uint16(b[2*i]) | uint16(b[2*i+1])<<8
	}
	return StringView{s: s, units: units}
}

// ViewOfUnits creates a view over already-encoded code units.
func ViewOfUnits(units []uint16) StringView {
	return StringView{units: units, s: decodeUnits(units)}
}

// Len returns the length in code units.
func (v StringView) Len() int {
	if v.ascii {
		return len(v.s)
	}
	return len(v.units)
}

// At returns the code unit at i.
func (v StringView) At(i int) uint16 {
	if v.ascii {
		return uint16(v.s[i])
	}
	return v.units[i]
}

// Slice returns the view of code units [from, to).
func (v StringView) Slice(from, to int) StringView {
	if v.ascii {
		return StringView{s: v.s[from:to], ascii: true}
	}
	return ViewOfUnits(v.units[from:to])
}

// String converts the view back to a Go string. Unpaired surrogates become
// U+FFFD.
func (v StringView) String() string { return v.s }

// IsASCII reports whether every code unit is below 0x80.
func (v StringView) IsASCII() bool { return v.ascii }

// Units returns a copy of the code units.
func (v StringView) Units() []uint16 {
	if !v.ascii {
		return append([]uint16(nil), v.units...)
	}
	out := make([]uint16, len(v.s))
	for i := 0; i < len(v.s); i++ {
		out[i] = uint16(v.s[i])
	}
	return out
}

func decodeUnits(units []uint16) string {
	b := make([]byte, 2*len(units))
	for i, u := range units {
		b[2*i] = byte(u)
		b[2*i+1] = byte(u >> 8)
	}
	// The decoder substitutes U+FFFD for unpaired surrogates and never fails.
	out, _ := utf16LE.NewDecoder().Bytes(b)
	return string(out)
}

// StringFromUnits builds a string from UTF-16 code units.
func StringFromUnits(units []uint16) string { return decodeUnits(units) }

// IsWhiteSpaceChar reports whether c is a WhiteSpace code point: TAB, VT, FF,
// SP, NBSP, ZWNBSP or any other space separator.
func IsWhiteSpaceChar(c uint16) bool {
	switch c {
	case '\t', '\v', '\f', ' ', 0xA0, 0xFEFF:
		return true
	}
	return c > 0x7F && unicode.Is(unicode.Zs, rune(c))
}

// IsLineTerminatorChar reports whether c is LF, CR, LS or PS.
func IsLineTerminatorChar(c uint16) bool {
	return c == '\n' || c == '\r' || c == 0x2028 || c == 0x2029
}
