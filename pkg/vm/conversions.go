package vm

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// ToPrimitive converts v to a primitive. hint is "default", "number" or
// "string".
func (rt *Runtime) ToPrimitive(v Value, hint string) (Value, error) {
	if !v.IsObject() {
		return v, nil
	}
	o := v.AsObject()
	exotic, err := rt.Get(o, NewSymbolKey(rt.Symbols.ToPrimitive))
	if err != nil {
		return Undefined, err
	}
	if !exotic.IsNullish() {
		if !exotic.IsCallable() {
			return Undefined, rt.RaiseTypeError("Symbol.toPrimitive is not a function")
		}
		res, err := rt.Call(exotic, v, []Value{NewString(hint)})
		if err != nil {
			return Undefined, err
		}
		if res.IsObject() {
			return Undefined, rt.RaiseTypeError("Cannot convert object to primitive value")
		}
		return res, nil
	}
	return rt.OrdinaryToPrimitive(o, hint)
}

// OrdinaryToPrimitive tries valueOf and toString in hint order.
func (rt *Runtime) OrdinaryToPrimitive(o *Object, hint string) (Value, error) {
	methods := [2]string{"valueOf", "toString"}
	if hint == "string" {
		methods = [2]string{"toString", "valueOf"}
	}
	for _, name := range methods {
		m, err := rt.Get(o, NewStringKey(name))
		if err != nil {
			return Undefined, err
		}
		if !m.IsCallable() {
			continue
		}
		res, err := rt.Call(m, ObjectValue(o), nil)
		if err != nil {
			return Undefined, err
		}
		if !res.IsObject() {
			return res, nil
		}
	}
	return Undefined, rt.RaiseTypeError("Cannot convert object to primitive value")
}

// ToNumber implements the abstract operation.
func (rt *Runtime) ToNumber(v Value) (float64, error) {
	switch v.Type() {
	case TypeUndefined:
		return math.NaN(), nil
	case TypeNull:
		return 0, nil
	case TypeBoolean:
		if v.AsBoolean() {
			return 1, nil
		}
		return 0, nil
	case TypeNumber:
		return v.AsNumber(), nil
	case TypeString:
		return StringToNumber(v.AsString()), nil
	case TypeSymbol:
		return 0, rt.RaiseTypeError("Cannot convert a Symbol value to a number")
	}
	prim, err := rt.ToPrimitive(v, "number")
	if err != nil {
		return 0, err
	}
	return rt.ToNumber(prim)
}

// ToString implements the abstract operation.
func (rt *Runtime) ToString(v Value) (string, error) {
	switch v.Type() {
	case TypeUndefined:
		return "undefined", nil
	case TypeNull:
		return "null", nil
	case TypeBoolean:
		if v.AsBoolean() {
			return "true", nil
		}
		return "false", nil
	case TypeNumber:
		return NumberToString(v.AsNumber()), nil
	case TypeString:
		return v.AsString(), nil
	case TypeSymbol:
		return "", rt.RaiseTypeError("Cannot convert a Symbol value to a string")
	}
	prim, err := rt.ToPrimitive(v, "string")
	if err != nil {
		return "", err
	}
	return rt.ToString(prim)
}

// ToInt32 implements the abstract operation.
func (rt *Runtime) ToInt32(v Value) (int32, error) {
	n, err := rt.ToNumber(v)
	if err != nil {
		return 0, err
	}
	return int32(DoubleToUint32(n)), nil
}

// ToUint32 implements the abstract operation.
func (rt *Runtime) ToUint32(v Value) (uint32, error) {
	n, err := rt.ToNumber(v)
	if err != nil {
		return 0, err
	}
	return DoubleToUint32(n), nil
}

// DoubleToUint32 reduces n modulo 2^32 after truncation; NaN and infinities
// map to 0.
func DoubleToUint32(n float64) uint32 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	m := math.Mod(math.Trunc(n), 4294967296)
	if m < 0 {
		m += 4294967296
	}
	return uint32(m)
}

// ToIntegerOrInfinity truncates toward zero; NaN becomes 0.
func (rt *Runtime) ToIntegerOrInfinity(v Value) (float64, error) {
	n, err := rt.ToNumber(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || n == 0 {
		return 0, nil
	}
	return math.Trunc(n), nil
}

const maxSafeInteger = 1<<53 - 1

// ToIndex converts v to a non-negative integer index, raising a RangeError
// when it is out of range.
func (rt *Runtime) ToIndex(v Value) (int, error) {
	if v.IsUndefined() {
		return 0, nil
	}
	n, err := rt.ToIntegerOrInfinity(v)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > maxSafeInteger || n > math.MaxInt {
		return 0, rt.RaiseRangeError("Invalid index")
	}
	return int(n), nil
}

// ToLength clamps v into [0, 2^53-1].
func (rt *Runtime) ToLength(v Value) (int, error) {
	n, err := rt.ToIntegerOrInfinity(v)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, nil
	}
	if n > maxSafeInteger {
		n = maxSafeInteger
	}
	return int(n), nil
}

// ToObject boxes primitives; undefined and null raise a TypeError.
func (rt *Runtime) ToObject(v Value) (*Object, error) {
	switch v.Type() {
	case TypeObject:
		return v.AsObject(), nil
	case TypeUndefined, TypeNull:
		return nil, rt.RaiseTypeError("Cannot convert undefined or null to object")
	}
	return rt.NewPrimitiveWrapper(v)
}

// NewPrimitiveWrapper allocates the Boolean, Number, String or Symbol wrapper
// object for a primitive.
func (rt *Runtime) NewPrimitiveWrapper(v Value) (*Object, error) {
	proto, err := rt.primitivePrototype(v)
	if err != nil {
		return nil, err
	}
	var class ObjectClass
	switch v.Type() {
	case TypeBoolean:
		class = ClassBoolean
	case TypeNumber:
		class = ClassNumber
	case TypeString:
		class = ClassString
	default:
		class = ClassSymbol
	}
	return rt.newWrapper(class, proto, v)
}

func (rt *Runtime) newWrapper(class ObjectClass, proto *Object, v Value) (*Object, error) {
	box := &PrimitiveBox{Value: v}
	o, err := rt.NewObjectWithClass(class, proto, box)
	if err != nil {
		return nil, err
	}
	if class == ClassString {
		length := NumberValue(float64(box.indexedLength()))
		if _, err := rt.DefineOwnProperty(o, lengthKey, ConstantFlags(), length); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// NewWrapperFromConstructor allocates a primitive wrapper whose prototype
// comes from newTarget, for the Boolean/Number/String constructors.
func (rt *Runtime) NewWrapperFromConstructor(newTarget *Object, fallback *Object, class ObjectClass, v Value) (*Object, error) {
	proto := fallback
	if newTarget != nil {
		p, err := rt.Get(newTarget, NewStringKey("prototype"))
		if err != nil {
			return nil, err
		}
		if p.IsObject() {
			proto = p.AsObject()
		}
	}
	return rt.newWrapper(class, proto, v)
}

// ToPropertyKey implements the abstract operation.
func (rt *Runtime) ToPropertyKey(v Value) (PropertyKey, error) {
	prim, err := rt.ToPrimitive(v, "string")
	if err != nil {
		return PropertyKey{}, err
	}
	if prim.IsSymbol() {
		return NewSymbolKey(prim.AsSymbol()), nil
	}
	s, err := rt.ToString(prim)
	if err != nil {
		return PropertyKey{}, err
	}
	return NewStringKey(s), nil
}

// TrimSpace removes leading and trailing WhiteSpace and LineTerminator
// characters.
func TrimSpace(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return r <= 0xFFFF && (IsWhiteSpaceChar(uint16(r)) || IsLineTerminatorChar(uint16(r)))
	})
}

// StringToNumber converts string contents to a number as ToNumber does: the
// whole trimmed text must be a numeric literal.
func StringToNumber(s string) float64 {
	s = TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		radix := 0
		switch s[1] {
		case 'x', 'X':
			radix = 16
		case 'o', 'O':
			radix = 8
		case 'b', 'B':
			radix = 2
		}
		if radix != 0 {
			digits := s[2:]
			for i := 0; i < len(digits); i++ {
				if digitValue(digits[i]) >= radix {
					return math.NaN()
				}
			}
			return DigitsWithRadixToDouble(digits, radix)
		}
	}
	v, consumed := StringToDouble(s)
	if consumed != len(s) {
		return math.NaN()
	}
	return v
}

// NumberToString formats a number the way Number.prototype.toString does
// with radix 10: shortest round-tripping digits, exponent form outside
// [1e-6, 1e21).
func NumberToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case f == 0:
		return "0"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	sign := ""
	if f < 0 {
		sign, f = "-", -f
	}
	// d.ddddde±XX
	e := strconv.FormatFloat(f, 'e', -1, 64)
	mant, expText, _ := strings.Cut(e, "e")
	digits := strings.Replace(mant, ".", "", 1)
	exp, _ := strconv.Atoi(expText)
	k, n := len(digits), exp+1

	var b strings.Builder
	b.WriteString(sign)
	switch {
	case k <= n && n <= 21:
		b.WriteString(digits)
		b.WriteString(strings.Repeat("0", n-k))
	case 0 < n && n <= 21:
		b.WriteString(digits[:n])
		b.WriteByte('.')
		b.WriteString(digits[n:])
	case -6 < n && n <= 0:
		b.WriteString("0.")
		b.WriteString(strings.Repeat("0", -n))
		b.WriteString(digits)
	default:
		b.WriteByte(digits[0])
		if k > 1 {
			b.WriteByte('.')
			b.WriteString(digits[1:])
		}
		b.WriteByte('e')
		if n-1 >= 0 {
			b.WriteByte('+')
		}
		b.WriteString(strconv.Itoa(n - 1))
	}
	return b.String()
}

const radixDigits = "0123456789abcdefghijklmnopqrstuvwxyz"

// NumberToStringRadix formats a number in the given radix (2..36).
func NumberToStringRadix(f float64, radix int) string {
	if radix == 10 || math.IsNaN(f) || math.IsInf(f, 0) || f == 0 {
		return NumberToString(f)
	}
	neg := f < 0
	if neg {
		f = -f
	}
	integer := math.Floor(f)
	fraction := f - integer
	// Half the distance to the next double bounds the digits worth emitting.
	delta := 0.5 * (math.Nextafter(f, math.Inf(1)) - f)
	delta = math.Max(math.Nextafter(0, 1), delta)

	var frac []int
	if fraction >= delta {
		for {
			fraction *= float64(radix)
			delta *= float64(radix)
			digit := int(fraction)
			frac = append(frac, digit)
			fraction -= float64(digit)
			if fraction > 0.5 || (fraction == 0.5 && digit&1 == 1) {
				if fraction+delta > 1 {
					for {
						i := len(frac) - 1
						if i < 0 {
							integer++
							break
						}
						if frac[i]+1 < radix {
							frac[i]++
							break
						}
						frac = frac[:i]
					}
					break
				}
			}
			if fraction < delta {
				break
			}
		}
	}

	intPart, _ := new(big.Float).SetFloat64(integer).Int(nil)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(intPart.Text(radix))
	if len(frac) > 0 {
		b.WriteByte('.')
		for _, d := range frac {
			b.WriteByte(radixDigits[d])
		}
	}
	return b.String()
}

// Inspect renders a value for diagnostics without running script code.
func Inspect(v Value) string {
	switch v.Type() {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		return strconv.FormatBool(v.AsBoolean())
	case TypeNumber:
		return NumberToString(v.AsNumber())
	case TypeString:
		return strconv.Quote(v.AsString())
	case TypeSymbol:
		return v.AsSymbol().String()
	}
	o := v.AsObject()
	if f, ok := o.internal.(*NativeFunction); ok {
		return fmt.Sprintf("function %s", f.Name)
	}
	if o.IsCallable() {
		return "function"
	}
	return fmt.Sprintf("[object %s]", o.class)
}

func (rt *Runtime) describe(v Value) string { return Inspect(v) }
