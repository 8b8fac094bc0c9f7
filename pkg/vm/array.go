package vm

// maxDenseElements bounds how far a single store may grow an array's element
// storage.
const maxDenseElements = 1 << 26

// ArrayData is the element storage of an Array object. Elements past the
// materialised range but below length are holes.
type ArrayData struct {
	elems  []Value
	length uint32
	owner  *Object
}

// NewArray allocates an array holding elems, starting from the array class.
func (rt *Runtime) NewArray(elems []Value) (*Object, error) {
	return rt.NewArrayWithPrototype(rt.ArrayPrototype, elems)
}

// NewArrayWithPrototype allocates an array chained to proto.
func (rt *Runtime) NewArrayWithPrototype(proto *Object, elems []Value) (*Object, error) {
	if rt.ArrayClass == nil {
		panic("vm: NewArray called before the array class exists")
	}
	return rt.NewArrayFromClass(proto, rt.ArrayClass, elems)
}

// NewArrayFromClass allocates an array with an explicit hidden class, which
// must come from NewArrayClass.
func (rt *Runtime) NewArrayFromClass(proto *Object, class *Shape, elems []Value) (*Object, error) {
	o, err := rt.heap.allocObject(ClassArray, proto, class)
	if err != nil {
		return nil, err
	}
	arr := &ArrayData{elems: elems, length: uint32(len(elems)), owner: o}
	o.internal = arr
	o.slots = []Value{NumberValue(float64(len(elems)))}
	return o, nil
}

// Len returns the array length.
func (a *ArrayData) Len() uint32 { return a.length }

// At returns the element at i, or undefined for holes.
func (a *ArrayData) At(i uint32) Value {
	if int64(i) < int64(len(a.elems)) {
		return a.elems[i]
	}
	return Undefined
}

// Elements returns the materialised elements.
func (a *ArrayData) Elements() []Value { return a.elems }

func (a *ArrayData) Trace(mark func(Value)) {
	for _, v := range a.elems {
		mark(v)
	}
}

func (a *ArrayData) indexedLength() uint32 { return uint32(len(a.elems)) }

func (a *ArrayData) getIndexed(i uint32) Value { return a.elems[i] }

func (a *ArrayData) indexedFlags() PropertyFlags {
	return PropertyFlags{Enumerable: true, Writable: true, Configurable: true}
}

func (a *ArrayData) lengthWritable() bool {
	return a.owner.shape.fields[0].Flags.Writable
}

func (a *ArrayData) setIndexed(rt *Runtime, i uint32, v Value) (bool, error) {
	if int64(i) < int64(len(a.elems)) {
		a.elems[i] = v
		return true, nil
	}
	if !a.owner.extensible || (i >= a.length && !a.lengthWritable()) {
		return false, nil
	}
	if i >= maxDenseElements {
		return false, rt.RaiseRangeError("Array index exceeds the supported length")
	}
	for uint32(len(a.elems)) < i {
		a.elems = append(a.elems, Undefined)
	}
	a.elems = append(a.elems, v)
	if i >= a.length {
		a.length = i + 1
		a.owner.slots[0] = NumberValue(float64(a.length))
	}
	return true, nil
}

// setArrayLength implements the length half of ArraySetLength.
func (rt *Runtime) setArrayLength(o *Object, arr *ArrayData, value Value) error {
	n, err := rt.ToNumber(value)
	if err != nil {
		return err
	}
	u := DoubleToUint32(n)
	if float64(u) != n {
		return rt.RaiseRangeError("Invalid array length")
	}
	if int64(u) < int64(len(arr.elems)) {
		clear(arr.elems[u:])
		arr.elems = arr.elems[:u]
	}
	arr.length = u
	o.slots[0] = NumberValue(float64(u))
	return nil
}

// ArrayOf returns the element storage of o if it is an array.
func ArrayOf(o *Object) (*ArrayData, bool) {
	a, ok := o.internal.(*ArrayData)
	return a, ok
}
