package vm

import (
	"math"
	"math/big"
	"strconv"
)

// digitValue returns the value of an ASCII alphanumeric digit in base 36, or
// 36 for anything else.
func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	}
	return 36
}

// DigitValue is digitValue for a UTF-16 code unit.
func DigitValue(c uint16) int {
	if c >= 0x80 {
		return 36
	}
	return digitValue(byte(c))
}

// DigitsWithRadixToDouble converts a non-empty run of digits, all valid in
// radix, to the nearest double. Runs that fit in 64 bits are converted
// directly; longer runs go through arbitrary precision so the result is
// correctly rounded.
func DigitsWithRadixToDouble(digits string, radix int) float64 {
	if u, err := strconv.ParseUint(digits, radix, 64); err == nil {
		return float64(u)
	}
	n, ok := new(big.Int).SetString(digits, radix)
	if !ok {
		return math.NaN()
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	return f
}

// StringToDouble parses the longest prefix of text that is a decimal
// floating point literal ([+-] digits [. digits] [e [+-] digits], with at
// least one mantissa digit) and returns its value and the number of bytes
// consumed. Nothing is consumed when no prefix matches. Overflow yields an
// infinity and underflow a (signed) zero.
func StringToDouble(text string) (float64, int) {
	i := 0
	if i < len(text) && (text[i] == '+' || text[i] == '-') {
		i++
	}
	mantissa := 0
	for i < len(text) && isDecimalDigit(text[i]) {
		i++
		mantissa++
	}
	if i < len(text) && text[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(text) && isDecimalDigit(text[j]) {
			j++
			frac++
		}
		if mantissa > 0 || frac > 0 {
			i = j
			mantissa += frac
		}
	}
	if mantissa == 0 {
		return 0, 0
	}
	if i < len(text) && (text[i] == 'e' || text[i] == 'E') {
		j := i + 1
		if j < len(text) && (text[j] == '+' || text[j] == '-') {
			j++
		}
		exp := 0
		for j < len(text) && isDecimalDigit(text[j]) {
			j++
			exp++
		}
		if exp > 0 {
			i = j
		}
	}
	v, err := strconv.ParseFloat(text[:i], 64)
	if err != nil {
		// ErrRange still carries the correctly signed infinity or zero.
		if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
			return 0, 0
		}
	}
	return v, i
}

func isDecimalDigit(c byte) bool { return c >= '0' && c <= '9' }
