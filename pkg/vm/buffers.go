package vm

import (
	"encoding/binary"
	"math"
)

// maxArrayBufferLength caps a single buffer allocation.
const maxArrayBufferLength = 1 << 31

// TypedArrayKind is the element type of a typed array.
type TypedArrayKind uint8

const (
	Int8Array TypedArrayKind = iota
	Int16Array
	Int32Array
	Uint8Array
	Uint8ClampedArray
	Uint16Array
	Uint32Array
	Float32Array
	Float64Array

	NumTypedArrayKinds = int(Float64Array) + 1
)

var typedArrayNames = [...]string{
	Int8Array:         "Int8Array",
	Int16Array:        "Int16Array",
	Int32Array:        "Int32Array",
	Uint8Array:        "Uint8Array",
	Uint8ClampedArray: "Uint8ClampedArray",
	Uint16Array:       "Uint16Array",
	Uint32Array:       "Uint32Array",
	Float32Array:      "Float32Array",
	Float64Array:      "Float64Array",
}

func (k TypedArrayKind) String() string { return typedArrayNames[k] }

// TypedArrayKinds returns every kind in declaration order.
func TypedArrayKinds() []TypedArrayKind {
	kinds := make([]TypedArrayKind, NumTypedArrayKinds)
	for i := range kinds {
		kinds[i] = TypedArrayKind(i)
	}
	return kinds
}

// ElementSize returns the size of one element in bytes.
func (k TypedArrayKind) ElementSize() int {
	switch k {
	case Int8Array, Uint8Array, Uint8ClampedArray:
		return 1
	case Int16Array, Uint16Array:
		return 2
	case Int32Array, Uint32Array, Float32Array:
		return 4
	}
	return 8
}

func byteOrder(littleEndian bool) binary.ByteOrder {
	if littleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Decode reads one element from b.
func (k TypedArrayKind) Decode(b []byte, littleEndian bool) float64 {
	order := byteOrder(littleEndian)
	switch k {
	case Int8Array:
		return float64(int8(b[0]))
	case Uint8Array, Uint8ClampedArray:
		return float64(b[0])
	case Int16Array:
		return float64(int16(order.Uint16(b)))
	case Uint16Array:
		return float64(order.Uint16(b))
	case Int32Array:
		return float64(int32(order.Uint32(b)))
	case Uint32Array:
		return float64(order.Uint32(b))
	case Float32Array:
		return float64(math.Float32frombits(order.Uint32(b)))
	}
	return math.Float64frombits(order.Uint64(b))
}

// Encode writes n into b using the element conversion of k.
func (k TypedArrayKind) Encode(b []byte, n float64, littleEndian bool) {
	order := byteOrder(littleEndian)
	switch k {
	case Int8Array, Uint8Array:
		b[0] = byte(DoubleToUint32(n))
	case Uint8ClampedArray:
		b[0] = clampUint8(n)
	case Int16Array, Uint16Array:
		order.PutUint16(b, uint16(DoubleToUint32(n)))
	case Int32Array, Uint32Array:
		order.PutUint32(b, DoubleToUint32(n))
	case Float32Array:
		order.PutUint32(b, math.Float32bits(float32(n)))
	default:
		order.PutUint64(b, math.Float64bits(n))
	}
}

func clampUint8(n float64) byte {
	switch {
	case math.IsNaN(n) || n <= 0:
		return 0
	case n >= 255:
		return 255
	}
	return byte(math.RoundToEven(n))
}

// ArrayBufferData is the payload of ArrayBuffer objects.
type ArrayBufferData struct {
	data []byte
}

// Bytes returns the backing store.
func (b *ArrayBufferData) Bytes() []byte { return b.data }

// Len returns the byte length.
func (b *ArrayBufferData) Len() int { return len(b.data) }

// NewArrayBuffer allocates a zeroed buffer chained to proto.
func (rt *Runtime) NewArrayBuffer(proto *Object, size int) (*Object, error) {
	if size < 0 || size > maxArrayBufferLength {
		return nil, rt.RaiseRangeError("Array buffer allocation failed")
	}
	return rt.NewObjectWithClass(ClassArrayBuffer, proto, &ArrayBufferData{data: make([]byte, size)})
}

// ArrayBufferOf returns the payload of o if it is an ArrayBuffer.
func ArrayBufferOf(o *Object) (*ArrayBufferData, bool) {
	b, ok := o.internal.(*ArrayBufferData)
	return b, ok
}

// TypedArrayData is the payload of typed array objects: a window of Length
// elements into a buffer starting at byte Offset.
type TypedArrayData struct {
	Kind   TypedArrayKind
	Buffer *Object
	Offset int
	Length int
}

func (t *TypedArrayData) bytes() []byte { return t.Buffer.internal.(*ArrayBufferData).data }

// ByteLength returns the size of the window in bytes.
func (t *TypedArrayData) ByteLength() int { return t.Length * t.Kind.ElementSize() }

// Get returns element i, which must be in range.
func (t *TypedArrayData) Get(i int) float64 {
	size := t.Kind.ElementSize()
	start := t.Offset + i*size
	return t.Kind.Decode(t.bytes()[start:start+size], true)
}

// Set stores n at element i, which must be in range.
func (t *TypedArrayData) Set(i int, n float64) {
	size := t.Kind.ElementSize()
	start := t.Offset + i*size
	t.Kind.Encode(t.bytes()[start:start+size], n, true)
}

func (t *TypedArrayData) Trace(mark func(Value)) { mark(ObjectValue(t.Buffer)) }

func (t *TypedArrayData) indexedLength() uint32 { return uint32(t.Length) }

func (t *TypedArrayData) getIndexed(i uint32) Value { return NumberValue(t.Get(int(i))) }

func (t *TypedArrayData) setIndexed(rt *Runtime, i uint32, v Value) (bool, error) {
	n, err := rt.ToNumber(v)
	if err != nil {
		return false, err
	}
	if int(i) >= t.Length {
		return false, nil
	}
	t.Set(int(i), n)
	return true, nil
}

func (t *TypedArrayData) indexedFlags() PropertyFlags {
	return PropertyFlags{Enumerable: true, Writable: true}
}

// TypedArrayOf returns the payload of o if it is a typed array.
func TypedArrayOf(o *Object) (*TypedArrayData, bool) {
	t, ok := o.internal.(*TypedArrayData)
	return t, ok
}

// DataViewData is the payload of DataView objects.
type DataViewData struct {
	Buffer *Object
	Offset int
	Length int
}

func (d *DataViewData) Trace(mark func(Value)) { mark(ObjectValue(d.Buffer)) }

// Window returns the viewed bytes.
func (d *DataViewData) Window() []byte {
	return d.Buffer.internal.(*ArrayBufferData).data[d.Offset : d.Offset+d.Length]
}

// DataViewOf returns the payload of o if it is a DataView.
func DataViewOf(o *Object) (*DataViewData, bool) {
	d, ok := o.internal.(*DataViewData)
	return d, ok
}
