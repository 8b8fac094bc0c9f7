package vm

import (
	"math"
)

type ValueType uint8

const (
	TypeUndefined ValueType = iota
	TypeNull
	TypeBoolean
	TypeNumber
	TypeString
	TypeSymbol
	TypeObject
)

// String returns a human-readable string representation of the ValueType
func (vt ValueType) String() string {
	switch vt {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeSymbol:
		return "symbol"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

// Symbol is a unique property key. Identity is the pointer.
type Symbol struct {
	Description    string
	hasDescription bool
}

// NewSymbol creates a symbol with the given description.
func NewSymbol(description string) *Symbol {
	return &Symbol{Description: description, hasDescription: true}
}

// NewAnonymousSymbol creates a symbol whose description is undefined.
func NewAnonymousSymbol() *Symbol {
	return &Symbol{}
}

// HasDescription reports whether the description is defined.
func (s *Symbol) HasDescription() bool { return s.hasDescription }

func (s *Symbol) String() string {
	return "Symbol(" + s.Description + ")"
}

// Value is a tagged script value. The zero Value is undefined.
type Value struct {
	typ ValueType
	num float64 // number payload, or 0/1 for booleans
	str string
	sym *Symbol
	obj *Object
}

var (
	Undefined = Value{typ: TypeUndefined}
	Null      = Value{typ: TypeNull}
	True      = Value{typ: TypeBoolean, num: 1}
	False     = Value{typ: TypeBoolean}
)

func NumberValue(value float64) Value {
	return Value{typ: TypeNumber, num: value}
}

// NaNValue returns the canonical NaN number.
func NaNValue() Value {
	return Value{typ: TypeNumber, num: math.NaN()}
}

func BooleanValue(value bool) Value {
	if value {
		return True
	}
	return False
}

func NewString(value string) Value {
	return Value{typ: TypeString, str: value}
}

func SymbolValue(sym *Symbol) Value {
	return Value{typ: TypeSymbol, sym: sym}
}

// ObjectValue wraps an object; a nil object becomes null.
func ObjectValue(obj *Object) Value {
	if obj == nil {
		return Null
	}
	return Value{typ: TypeObject, obj: obj}
}

func (v Value) Type() ValueType    { return v.typ }
func (v Value) IsUndefined() bool  { return v.typ == TypeUndefined }
func (v Value) IsNull() bool       { return v.typ == TypeNull }
func (v Value) IsNullish() bool    { return v.typ == TypeUndefined || v.typ == TypeNull }
func (v Value) IsBoolean() bool    { return v.typ == TypeBoolean }
func (v Value) IsNumber() bool     { return v.typ == TypeNumber }
func (v Value) IsString() bool     { return v.typ == TypeString }
func (v Value) IsSymbol() bool     { return v.typ == TypeSymbol }
func (v Value) IsObject() bool     { return v.typ == TypeObject }
func (v Value) AsBoolean() bool    { return v.num != 0 }
func (v Value) AsNumber() float64  { return v.num }
func (v Value) AsString() string   { return v.str }
func (v Value) AsSymbol() *Symbol  { return v.sym }
func (v Value) AsObject() *Object  { return v.obj }
func (v Value) IsPrimitive() bool  { return v.typ != TypeObject }
func (v Value) IsNaN() bool        { return v.typ == TypeNumber && math.IsNaN(v.num) }

// IsCallable reports whether the value is an object with a [[Call]] slot.
func (v Value) IsCallable() bool {
	return v.typ == TypeObject && v.obj.IsCallable()
}

// TypeOf returns the result of the typeof operator.
func (v Value) TypeOf() string {
	switch v.typ {
	case TypeNull:
		return "object"
	case TypeObject:
		if v.obj.IsCallable() {
			return "function"
		}
		return "object"
	default:
		return v.typ.String()
	}
}

// ToBoolean implements the abstract operation; it never fails.
func (v Value) ToBoolean() bool {
	switch v.typ {
	case TypeUndefined, TypeNull:
		return false
	case TypeBoolean:
		return v.num != 0
	case TypeNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case TypeString:
		return v.str != ""
	default:
		return true
	}
}

// StrictEquals implements ===.
func (v Value) StrictEquals(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case TypeUndefined, TypeNull:
		return true
	case TypeBoolean, TypeNumber:
		return v.num == other.num
	case TypeString:
		return v.str == other.str
	case TypeSymbol:
		return v.sym == other.sym
	default:
		return v.obj == other.obj
	}
}

// SameValue implements Object.is semantics.
func (v Value) SameValue(other Value) bool {
	if v.typ == TypeNumber && other.typ == TypeNumber {
		if math.IsNaN(v.num) && math.IsNaN(other.num) {
			return true
		}
		if v.num == 0 && other.num == 0 {
			return math.Signbit(v.num) == math.Signbit(other.num)
		}
		return v.num == other.num
	}
	return v.StrictEquals(other)
}

// SameValueZero is SameValue with +0 and -0 considered equal.
func (v Value) SameValueZero(other Value) bool {
	if v.typ == TypeNumber && other.typ == TypeNumber {
		if math.IsNaN(v.num) && math.IsNaN(other.num) {
			return true
		}
		return v.num == other.num
	}
	return v.StrictEquals(other)
}

// hashKey normalises a value into a comparable key under SameValueZero.
// NaN is folded into a single key and -0 into +0.
func (v Value) hashKey() Value {
	if v.typ == TypeNumber {
		if math.IsNaN(v.num) {
			return Value{typ: TypeNumber, str: "NaN"}
		}
		if v.num == 0 {
			return Value{typ: TypeNumber}
		}
	}
	return v
}
