package builtins

import (
	"strings"
	"unicode/utf8"

	"github.com/alexmckenley/hermes/pkg/vm"
)

const (
	uriReserved  = ";/?:@&=+$,"
	uriMark      = "-_.!~*'()"
	escapeAllows = "@*_+-./"
	hexUpper     = "0123456789ABCDEF"
)

func isAlnum(c uint16) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func inSet(set string) func(c uint16) bool {
	return func(c uint16) bool {
		return c < 0x80 && strings.IndexByte(set, byte(c)) >= 0
	}
}

var (
	isURIUnescaped = func(c uint16) bool { return isAlnum(c) || inSet(uriMark)(c) }
	isURIReserved  = inSet(uriReserved + "#")
	isEncodeURISet = func(c uint16) bool { return isURIUnescaped(c) || isURIReserved(c) }
	noneReserved   = func(uint16) bool { return false }
)

func uriError(rt *vm.Runtime) error { return rt.RaiseURIError("URI malformed") }

// encodeURIString escapes every code unit outside keep as UTF-8 percent
// triples. Unpaired surrogates raise a URIError.
func encodeURIString(rt *vm.Runtime, s string, keep func(uint16) bool) (vm.Value, error) {
	view := vm.NewStringView(s)
	var b strings.Builder
	for k := 0; k < view.Len(); k++ {
		c := view.At(k)
		if keep(c) {
			b.WriteByte(byte(c))
			continue
		}
		if c >= 0xDC00 && c <= 0xDFFF {
			return vm.Undefined, uriError(rt)
		}
		cp := rune(c)
		if c >= 0xD800 && c <= 0xDBFF {
			k++
			if k == view.Len() {
				return vm.Undefined, uriError(rt)
			}
			lo := view.At(k)
			if lo < 0xDC00 || lo > 0xDFFF {
				return vm.Undefined, uriError(rt)
			}
			cp = (rune(c)-0xD800)*0x400 + (rune(lo) - 0xDC00) + 0x10000
		}
		var buf [utf8.UTFMax]byte
		for _, octet := range buf[:utf8.EncodeRune(buf[:], cp)] {
			b.WriteByte('%')
			b.WriteByte(hexUpper[octet>>4])
			b.WriteByte(hexUpper[octet&0xF])
		}
	}
	return vm.NewString(b.String()), nil
}

func hexPair(view vm.StringView, i int) (byte, bool) {
	hi, lo := vm.DigitValue(view.At(i)), vm.DigitValue(view.At(i+1))
	if hi >= 16 || lo >= 16 {
		return 0, false
	}
	return byte(hi<<4 | lo), true
}

// decodeURIString reverses percent escapes; escapes that decode to a
// character in reserved are kept verbatim.
func decodeURIString(rt *vm.Runtime, s string, reserved func(uint16) bool) (vm.Value, error) {
	view := vm.NewStringView(s)
	n := view.Len()
	out := make([]uint16, 0, n)
	for k := 0; k < n; k++ {
		c := view.At(k)
		if c != '%' {
			out = append(out, c)
			continue
		}
		start := k
		if k+2 >= n {
			return vm.Undefined, uriError(rt)
		}
		octet, ok := hexPair(view, k+1)
		if !ok {
			return vm.Undefined, uriError(rt)
		}
		k += 2
		if octet < 0x80 {
			if reserved(uint16(octet)) {
				for j := start; j <= k; j++ {
					out = append(out, view.At(j))
				}
			} else {
				out = append(out, uint16(octet))
			}
			continue
		}

		var size int
		switch {
		case octet&0xE0 == 0xC0:
			size = 2
		case octet&0xF0 == 0xE0:
			size = 3
		case octet&0xF8 == 0xF0:
			size = 4
		default:
			return vm.Undefined, uriError(rt)
		}
		if k+3*(size-1) >= n {
			return vm.Undefined, uriError(rt)
		}
		octets := []byte{octet}
		for j := 1; j < size; j++ {
			k++
			if view.At(k) != '%' {
				return vm.Undefined, uriError(rt)
			}
			next, ok := hexPair(view, k+1)
			if !ok || next&0xC0 != 0x80 {
				return vm.Undefined, uriError(rt)
			}
			k += 2
			octets = append(octets, next)
		}
		r, width := utf8.DecodeRune(octets)
		// Invalid sequences (overlong forms, surrogates) decode with width 1.
		if width != len(octets) {
			return vm.Undefined, uriError(rt)
		}
		if r < 0x10000 {
			out = append(out, uint16(r))
		} else {
			r -= 0x10000
			out = append(out, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
		}
	}
	return vm.NewString(vm.StringFromUnits(out)), nil
}

func uriArg(rt *vm.Runtime, args vm.NativeArgs) (string, error) {
	return rt.ToString(args.Arg(0))
}

func encodeURI(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	s, err := uriArg(rt, args)
	if err != nil {
		return vm.Undefined, err
	}
	return encodeURIString(rt, s, isEncodeURISet)
}

func encodeURIComponent(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	s, err := uriArg(rt, args)
	if err != nil {
		return vm.Undefined, err
	}
	return encodeURIString(rt, s, isURIUnescaped)
}

func decodeURI(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	s, err := uriArg(rt, args)
	if err != nil {
		return vm.Undefined, err
	}
	return decodeURIString(rt, s, isURIReserved)
}

func decodeURIComponent(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	s, err := uriArg(rt, args)
	if err != nil {
		return vm.Undefined, err
	}
	return decodeURIString(rt, s, noneReserved)
}

func escape(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	s, err := rt.ToString(args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	view := vm.NewStringView(s)
	var b strings.Builder
	for i := 0; i < view.Len(); i++ {
		c := view.At(i)
		switch {
		case isAlnum(c) || inSet(escapeAllows)(c):
			b.WriteByte(byte(c))
		case c < 256:
			b.WriteByte('%')
			b.WriteByte(hexUpper[c>>4])
			b.WriteByte(hexUpper[c&0xF])
		default:
			b.WriteString("%u")
			for shift := 12; shift >= 0; shift -= 4 {
				b.WriteByte(hexUpper[(c>>shift)&0xF])
			}
		}
	}
	return vm.NewString(b.String()), nil
}

func unescape(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	s, err := rt.ToString(args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	view := vm.NewStringView(s)
	n := view.Len()
	out := make([]uint16, 0, n)
	hexRun := func(from, count int) (uint16, bool) {
		if from+count > n {
			return 0, false
		}
		var v uint16
		for i := from; i < from+count; i++ {
			d := vm.DigitValue(view.At(i))
			if d >= 16 {
				return 0, false
			}
			v = v<<4 | uint16(d)
		}
		return v, true
	}
	for k := 0; k < n; k++ {
		c := view.At(k)
		if c == '%' {
			if k+1 < n && view.At(k+1) == 'u' {
				if v, ok := hexRun(k+2, 4); ok {
					out = append(out, v)
					k += 5
					continue
				}
			}
			if v, ok := hexRun(k+1, 2); ok {
				out = append(out, v)
				k += 2
				continue
			}
		}
		out = append(out, c)
	}
	return vm.NewString(vm.StringFromUnits(out)), nil
}
