package vm

import (
	"sort"
	"strconv"
)

type KeyKind uint8

const (
	KeyKindString KeyKind = iota
	KeyKindSymbol
)

// PropertyKey represents a property key which can be a string or a symbol.
// It is comparable and can be used as a map key.
type PropertyKey struct {
	kind KeyKind
	name string  // for string keys
	sym  *Symbol // for symbol keys
}

// NewStringKey constructs a PropertyKey for string-named properties.
func NewStringKey(name string) PropertyKey { return PropertyKey{kind: KeyKindString, name: name} }

// NewSymbolKey constructs a PropertyKey for symbol-named properties.
func NewSymbolKey(sym *Symbol) PropertyKey { return PropertyKey{kind: KeyKindSymbol, sym: sym} }

func (k PropertyKey) IsSymbol() bool  { return k.kind == KeyKindSymbol }
func (k PropertyKey) Name() string    { return k.name }
func (k PropertyKey) Symbol() *Symbol { return k.sym }

func (k PropertyKey) String() string {
	if k.kind == KeyKindSymbol {
		return "[" + k.sym.String() + "]"
	}
	return k.name
}

// ToValue converts the key back to a script value.
func (k PropertyKey) ToValue() Value {
	if k.kind == KeyKindSymbol {
		return SymbolValue(k.sym)
	}
	return NewString(k.name)
}

// ArrayIndex reports whether the key is a canonical array index in [0, 2^32-2].
func (k PropertyKey) ArrayIndex() (uint32, bool) {
	if k.kind != KeyKindString {
		return 0, false
	}
	s := k.name
	if s == "" || len(s) > 10 || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n >= 1<<32-1 {
		return 0, false
	}
	return uint32(n), true
}

// IndexKey returns the string key for an array index.
func IndexKey(i uint32) PropertyKey {
	return NewStringKey(strconv.FormatUint(uint64(i), 10))
}

// Field describes one named property slot in a Shape.
type Field struct {
	Key   PropertyKey
	Flags PropertyFlags
}

type transitionKey struct {
	key   PropertyKey
	flags PropertyFlags
}

// Shape is a hidden class: an ordered list of fields. Objects with the same
// shape store their property values at the same slot indices. Shapes are
// immutable once published; attribute changes and deletions produce a fresh
// shape that is not shared through transitions.
type Shape struct {
	parent      *Shape
	proto       *Object // prototype recorded on class roots such as the array class
	fields      []Field
	transitions map[transitionKey]*Shape
	version     uint32 // Bumped on any layout/flags change
}

func newRootShape(proto *Object) *Shape {
	return &Shape{proto: proto, transitions: make(map[transitionKey]*Shape)}
}

// Len returns the number of fields.
func (s *Shape) Len() int { return len(s.fields) }

// Field returns the i-th field.
func (s *Shape) Field(i int) Field { return s.fields[i] }

// Prototype returns the prototype a class root was derived from, or nil.
func (s *Shape) Prototype() *Object { return s.proto }

// Version identifies the layout; it changes on every transition.
func (s *Shape) Version() uint32 { return s.version }

func (s *Shape) lookup(key PropertyKey) (int, bool) {
	for i := range s.fields {
		if s.fields[i].Key == key {
			return i, true
		}
	}
	return -1, false
}

func (s *Shape) withField(key PropertyKey, flags PropertyFlags) (*Shape, bool) {
	tk := transitionKey{key: key, flags: flags}
	if next, ok := s.transitions[tk]; ok {
		return next, false
	}
	fields := make([]Field, len(s.fields)+1)
	copy(fields, s.fields)
	fields[len(s.fields)] = Field{Key: key, Flags: flags}
	next := &Shape{parent: s, proto: s.proto, fields: fields, transitions: make(map[transitionKey]*Shape), version: s.version + 1}
	s.transitions[tk] = next
	return next, true
}

func (s *Shape) withFlags(i int, flags PropertyFlags) *Shape {
	fields := make([]Field, len(s.fields))
	copy(fields, s.fields)
	fields[i].Flags = flags
	return &Shape{parent: s.parent, proto: s.proto, fields: fields, transitions: make(map[transitionKey]*Shape), version: s.version + 1}
}

func (s *Shape) without(i int) *Shape {
	fields := make([]Field, 0, len(s.fields)-1)
	fields = append(fields, s.fields[:i]...)
	fields = append(fields, s.fields[i+1:]...)
	return &Shape{parent: s.parent, proto: s.proto, fields: fields, transitions: make(map[transitionKey]*Shape), version: s.version + 1}
}

// ObjectClass is the built-in kind of an object, used for brand checks and
// Object.prototype.toString.
type ObjectClass uint8

const (
	ClassObject ObjectClass = iota
	ClassFunction
	ClassError
	ClassArray
	ClassBoolean
	ClassNumber
	ClassString
	ClassSymbol
	ClassDate
	ClassRegExp
	ClassArrayBuffer
	ClassDataView
	ClassTypedArray
	ClassMap
	ClassSet
	ClassWeakMap
	ClassWeakSet
	ClassIterator
	ClassGenerator
)

var classNames = [...]string{
	ClassObject:      "Object",
	ClassFunction:    "Function",
	ClassError:       "Error",
	ClassArray:       "Array",
	ClassBoolean:     "Boolean",
	ClassNumber:      "Number",
	ClassString:      "String",
	ClassSymbol:      "Symbol",
	ClassDate:        "Date",
	ClassRegExp:      "RegExp",
	ClassArrayBuffer: "ArrayBuffer",
	ClassDataView:    "DataView",
	ClassTypedArray:  "TypedArray",
	ClassMap:         "Map",
	ClassSet:         "Set",
	ClassWeakMap:     "WeakMap",
	ClassWeakSet:     "WeakSet",
	ClassIterator:    "Iterator",
	ClassGenerator:   "Generator",
}

func (c ObjectClass) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return "Object"
}

// Object is a heap cell. Its identity (pointer and Handle) is stable from
// allocation on, independently of whether its properties have been populated.
type Object struct {
	handle     Handle
	class      ObjectClass
	proto      *Object
	shape      *Shape
	slots      []Value // parallel to shape.fields; accessor fields hold Undefined
	accessors  map[PropertyKey]*PropertyAccessor
	extensible bool
	internal   any // class-specific payload
	marked     bool
}

// indexedStorage is implemented by payloads that expose integer-indexed
// elements (arrays, typed arrays, string wrappers).
type indexedStorage interface {
	indexedLength() uint32
	getIndexed(i uint32) Value
	setIndexed(rt *Runtime, i uint32, v Value) (bool, error)
	indexedFlags() PropertyFlags
}

func (o *Object) Handle() Handle       { return o.handle }
func (o *Object) Class() ObjectClass   { return o.class }
func (o *Object) Prototype() *Object   { return o.proto }
func (o *Object) Shape() *Shape        { return o.shape }
func (o *Object) Internal() any        { return o.internal }
func (o *Object) IsExtensible() bool   { return o.extensible }
func (o *Object) PreventExtensions()   { o.extensible = false }
func (o *Object) SetInternal(p any)    { o.internal = p }

// IsCallable reports whether the object has a [[Call]] implementation.
func (o *Object) IsCallable() bool {
	switch o.internal.(type) {
	case *NativeFunction, Callable:
		return true
	}
	return false
}

// SetPrototype implements [[SetPrototypeOf]]. It refuses to create cycles
// and to change the prototype of a non-extensible object.
func (o *Object) SetPrototype(proto *Object) bool {
	if o.proto == proto {
		return true
	}
	if !o.extensible {
		return false
	}
	for p := proto; p != nil; p = p.proto {
		if p == o {
			return false
		}
	}
	o.proto = proto
	return true
}

func (o *Object) indexed() indexedStorage {
	if s, ok := o.internal.(indexedStorage); ok {
		return s
	}
	return nil
}

// PropertyDescriptor is the resolved state of an own property.
type PropertyDescriptor struct {
	Value  Value
	Getter *Object
	Setter *Object
	Flags  PropertyFlags
}

// GetOwnProperty looks up a direct (own) property by key.
func (o *Object) GetOwnProperty(key PropertyKey) (PropertyDescriptor, bool) {
	if st := o.indexed(); st != nil {
		if i, ok := key.ArrayIndex(); ok && i < st.indexedLength() {
			return PropertyDescriptor{Value: st.getIndexed(i), Flags: st.indexedFlags()}, true
		}
	}
	idx, ok := o.shape.lookup(key)
	if !ok {
		return PropertyDescriptor{}, false
	}
	f := o.shape.fields[idx]
	if f.Flags.Accessor {
		acc := o.accessors[key]
		d := PropertyDescriptor{Flags: f.Flags}
		if acc != nil {
			d.Getter, d.Setter = acc.Getter, acc.Setter
		}
		return d, true
	}
	return PropertyDescriptor{Value: o.slots[idx], Flags: f.Flags}, true
}

// HasOwnProperty reports whether an own property with the given key exists.
func (o *Object) HasOwnProperty(key PropertyKey) bool {
	_, ok := o.GetOwnProperty(key)
	return ok
}

// HasProperty walks the prototype chain.
func (o *Object) HasProperty(key PropertyKey) bool {
	for cur := o; cur != nil; cur = cur.proto {
		if cur.HasOwnProperty(key) {
			return true
		}
	}
	return false
}

// OwnKeys returns own keys in ordinary order: integer indices ascending, then
// string keys in insertion order, then symbols in insertion order.
func (o *Object) OwnKeys() []PropertyKey {
	var indices []uint32
	if st := o.indexed(); st != nil {
		for i := uint32(0); i < st.indexedLength(); i++ {
			indices = append(indices, i)
		}
	}
	var names, symbols []PropertyKey
	for _, f := range o.shape.fields {
		if f.Key.IsSymbol() {
			symbols = append(symbols, f.Key)
			continue
		}
		if i, ok := f.Key.ArrayIndex(); ok {
			indices = append(indices, i)
			continue
		}
		names = append(names, f.Key)
	}
	sort.Slice(indices, func(a, b int) bool { return indices[a] < indices[b] })
	keys := make([]PropertyKey, 0, len(indices)+len(names)+len(symbols))
	for _, i := range indices {
		keys = append(keys, IndexKey(i))
	}
	keys = append(keys, names...)
	return append(keys, symbols...)
}

// PrimitiveBox is the payload of Boolean, Number, String and Symbol wrapper
// objects.
type PrimitiveBox struct {
	Value Value
	view  *StringView
}

func (b *PrimitiveBox) stringView() *StringView {
	if b.view == nil {
		v := NewStringView(b.Value.AsString())
		b.view = &v
	}
	return b.view
}

func (b *PrimitiveBox) indexedLength() uint32 {
	if !b.Value.IsString() {
		return 0
	}
	return uint32(b.stringView().Len())
}

func (b *PrimitiveBox) getIndexed(i uint32) Value {
	return NewString(b.stringView().Slice(int(i), int(i)+1).String())
}

func (b *PrimitiveBox) setIndexed(*Runtime, uint32, Value) (bool, error) { return false, nil }

func (b *PrimitiveBox) indexedFlags() PropertyFlags {
	return PropertyFlags{Enumerable: true}
}
