package vm

import (
	"fmt"
)

// PropertyFlags are the stored attributes of a property.
type PropertyFlags struct {
	Enumerable   bool
	Writable     bool
	Configurable bool
	Accessor     bool
}

// DefinePropertyFlags describes a property definition request. The Set* bits
// say which attributes the request carries; attributes whose Set* bit is clear
// keep their previous value on an existing property and default to false on a
// new one.
type DefinePropertyFlags struct {
	SetEnumerable   bool
	SetWritable     bool
	SetConfigurable bool
	SetValue        bool
	SetGetter       bool
	SetSetter       bool

	Enumerable   bool
	Writable     bool
	Configurable bool
}

// ConstantFlags: not enumerable, not writable, not configurable.
func ConstantFlags() DefinePropertyFlags {
	return DefinePropertyFlags{
		SetEnumerable:   true,
		SetWritable:     true,
		SetConfigurable: true,
		SetValue:        true,
	}
}

// NormalFlags: not enumerable, but writable and configurable.
func NormalFlags() DefinePropertyFlags {
	return DefinePropertyFlags{
		SetEnumerable:   true,
		SetWritable:     true,
		SetConfigurable: true,
		SetValue:        true,
		Writable:        true,
		Configurable:    true,
	}
}

// ClearConfigurableFlags only clears the configurable flag.
func ClearConfigurableFlags() DefinePropertyFlags {
	return DefinePropertyFlags{SetConfigurable: true}
}

// DefaultDataFlags are the flags of a property created by plain assignment.
func DefaultDataFlags() DefinePropertyFlags {
	d := NormalFlags()
	d.Enumerable = true
	return d
}

// AccessorFlags: a non-enumerable, configurable getter/setter pair.
func AccessorFlags(getter, setter bool) DefinePropertyFlags {
	return DefinePropertyFlags{
		SetEnumerable:   true,
		SetConfigurable: true,
		SetGetter:       getter,
		SetSetter:       setter,
		Configurable:    true,
	}
}

// IsAccessor reports whether the request defines an accessor property.
func (d DefinePropertyFlags) IsAccessor() bool { return d.SetGetter || d.SetSetter }

// IsData reports whether the request defines a data property.
func (d DefinePropertyFlags) IsData() bool { return d.SetValue || d.SetWritable }

// PropertyAccessor is a getter/setter pair stored in an accessor property.
type PropertyAccessor struct {
	Getter *Object
	Setter *Object
}

// DefineOwnProperty defines or updates a data property. It returns false when
// the request conflicts with the current attributes (a non-configurable
// property cannot be loosened); the only error is allocation failure.
func (rt *Runtime) DefineOwnProperty(o *Object, key PropertyKey, dpf DefinePropertyFlags, value Value) (bool, error) {
	if dpf.IsAccessor() {
		return false, fmt.Errorf("DefineOwnProperty: accessor flags on data definition of %s", key)
	}
	return rt.defineOwn(o, key, dpf, value, nil)
}

// DefineOwnAccessor defines or updates an accessor property.
func (rt *Runtime) DefineOwnAccessor(o *Object, key PropertyKey, dpf DefinePropertyFlags, acc *PropertyAccessor) (bool, error) {
	if dpf.IsData() {
		return false, fmt.Errorf("DefineOwnAccessor: data flags on accessor definition of %s", key)
	}
	if acc == nil {
		acc = &PropertyAccessor{}
	}
	return rt.defineOwn(o, key, dpf, Undefined, acc)
}

func (rt *Runtime) defineOwn(o *Object, key PropertyKey, dpf DefinePropertyFlags, value Value, acc *PropertyAccessor) (bool, error) {
	if st := o.indexed(); st != nil {
		if i, ok := key.ArrayIndex(); ok {
			return rt.defineIndexed(o, st, i, dpf, value)
		}
	}

	idx, exists := o.shape.lookup(key)
	if !exists {
		if !o.extensible {
			return false, nil
		}
		flags := PropertyFlags{
			Enumerable:   dpf.SetEnumerable && dpf.Enumerable,
			Writable:     dpf.SetWritable && dpf.Writable,
			Configurable: dpf.SetConfigurable && dpf.Configurable,
			Accessor:     dpf.IsAccessor(),
		}
		if flags.Accessor {
			if err := rt.addField(o, key, flags, Undefined); err != nil {
				return false, err
			}
			rt.setAccessor(o, key, &PropertyAccessor{Getter: acc.Getter, Setter: acc.Setter})
			return true, nil
		}
		return true, rt.addField(o, key, flags, value)
	}

	cur := o.shape.fields[idx].Flags
	if !cur.Configurable {
		if dpf.SetConfigurable && dpf.Configurable {
			return false, nil
		}
		if dpf.SetEnumerable && dpf.Enumerable != cur.Enumerable {
			return false, nil
		}
		if (dpf.IsAccessor() && !cur.Accessor) || (dpf.IsData() && cur.Accessor) {
			return false, nil
		}
		if cur.Accessor {
			old := o.accessors[key]
			if dpf.SetGetter && acc.Getter != old.Getter {
				return false, nil
			}
			if dpf.SetSetter && acc.Setter != old.Setter {
				return false, nil
			}
		} else if !cur.Writable {
			if dpf.SetWritable && dpf.Writable {
				return false, nil
			}
			if dpf.SetValue && !value.SameValue(o.slots[idx]) {
				return false, nil
			}
		}
	}

	next := cur
	if dpf.SetEnumerable {
		next.Enumerable = dpf.Enumerable
	}
	if dpf.SetConfigurable {
		next.Configurable = dpf.Configurable
	}
	switch {
	case dpf.IsAccessor() && !cur.Accessor:
		next.Accessor, next.Writable = true, false
		o.slots[idx] = Undefined
		rt.setAccessor(o, key, &PropertyAccessor{Getter: acc.Getter, Setter: acc.Setter})
	case dpf.IsData() && cur.Accessor:
		next.Accessor = false
		next.Writable = dpf.SetWritable && dpf.Writable
		delete(o.accessors, key)
		o.slots[idx] = Undefined
		if dpf.SetValue {
			o.slots[idx] = value
		}
	case cur.Accessor:
		old := o.accessors[key]
		merged := &PropertyAccessor{Getter: old.Getter, Setter: old.Setter}
		if dpf.SetGetter {
			merged.Getter = acc.Getter
		}
		if dpf.SetSetter {
			merged.Setter = acc.Setter
		}
		rt.setAccessor(o, key, merged)
	default:
		if dpf.SetWritable {
			next.Writable = dpf.Writable
		}
		if dpf.SetValue {
			if arr, ok := o.internal.(*ArrayData); ok && key == lengthKey {
				if err := rt.setArrayLength(o, arr, value); err != nil {
					return false, err
				}
			} else {
				o.slots[idx] = value
			}
		}
	}
	if next != cur {
		if err := rt.heap.chargeShape(); err != nil {
			return false, err
		}
		o.shape = o.shape.withFlags(idx, next)
	}
	return true, nil
}

func (rt *Runtime) defineIndexed(o *Object, st indexedStorage, i uint32, dpf DefinePropertyFlags, value Value) (bool, error) {
	// Element attributes are fixed by the storage; only value updates that
	// keep them are accepted.
	want := st.indexedFlags()
	if dpf.IsAccessor() ||
		(dpf.SetEnumerable && dpf.Enumerable != want.Enumerable) ||
		(dpf.SetWritable && dpf.Writable != want.Writable) ||
		(dpf.SetConfigurable && dpf.Configurable != want.Configurable) {
		return false, nil
	}
	if i >= st.indexedLength() {
		if _, isArray := st.(*ArrayData); !isArray || !o.extensible {
			return false, nil
		}
		if !dpf.SetEnumerable || !dpf.SetWritable || !dpf.SetConfigurable {
			return false, nil
		}
	}
	if !dpf.SetValue {
		return true, nil
	}
	return st.setIndexed(rt, i, value)
}

func (rt *Runtime) addField(o *Object, key PropertyKey, flags PropertyFlags, value Value) error {
	next, created := o.shape.withField(key, flags)
	if created {
		if err := rt.heap.chargeShape(); err != nil {
			delete(o.shape.transitions, transitionKey{key: key, flags: flags})
			return err
		}
	}
	o.shape = next
	o.slots = append(o.slots, value)
	return nil
}

func (rt *Runtime) setAccessor(o *Object, key PropertyKey, acc *PropertyAccessor) {
	if o.accessors == nil {
		o.accessors = make(map[PropertyKey]*PropertyAccessor)
	}
	o.accessors[key] = acc
}

// CreateDataProperty defines an enumerable, writable, configurable data
// property, as plain assignment to a fresh key would.
func (rt *Runtime) CreateDataProperty(o *Object, key PropertyKey, value Value) (bool, error) {
	return rt.defineOwn(o, key, DefaultDataFlags(), value, nil)
}

// Get implements [[Get]] with the object itself as receiver.
func (rt *Runtime) Get(o *Object, key PropertyKey) (Value, error) {
	return rt.GetWithReceiver(o, key, ObjectValue(o))
}

// GetWithReceiver walks the prototype chain; getters run with receiver as this.
func (rt *Runtime) GetWithReceiver(o *Object, key PropertyKey, receiver Value) (Value, error) {
	for cur := o; cur != nil; cur = cur.proto {
		d, ok := cur.GetOwnProperty(key)
		if !ok {
			continue
		}
		if d.Flags.Accessor {
			if d.Getter == nil {
				return Undefined, nil
			}
			return rt.Call(ObjectValue(d.Getter), receiver, nil)
		}
		return d.Value, nil
	}
	return Undefined, nil
}

// GetV implements GetV: property access on any value, boxing primitives
// through their prototype without allocating a wrapper.
func (rt *Runtime) GetV(v Value, key PropertyKey) (Value, error) {
	if v.IsObject() {
		return rt.Get(v.AsObject(), key)
	}
	if v.IsString() {
		view := NewStringView(v.AsString())
		if key == lengthKey {
			return NumberValue(float64(view.Len())), nil
		}
		if i, ok := key.ArrayIndex(); ok && int(i) < view.Len() {
			return NewString(view.Slice(int(i), int(i)+1).String()), nil
		}
	}
	proto, err := rt.primitivePrototype(v)
	if err != nil {
		return Undefined, err
	}
	return rt.GetWithReceiver(proto, key, v)
}

// Put implements [[Set]] with the object as receiver. A failed assignment is
// silent unless strict is set, in which case it raises a TypeError.
func (rt *Runtime) Put(o *Object, key PropertyKey, value Value, strict bool) error {
	// Out-of-range typed array writes are dropped in either mode.
	if ta, ok := o.internal.(*TypedArrayData); ok {
		if i, isIndex := key.ArrayIndex(); isIndex && i >= ta.indexedLength() {
			return nil
		}
	}
	for cur := o; cur != nil; cur = cur.proto {
		d, ok := cur.GetOwnProperty(key)
		if !ok {
			continue
		}
		if d.Flags.Accessor {
			if d.Setter == nil {
				return rt.failAssignment(strict, "Cannot set property %s which has only a getter", key)
			}
			_, err := rt.Call(ObjectValue(d.Setter), ObjectValue(o), []Value{value})
			return err
		}
		if !d.Flags.Writable {
			return rt.failAssignment(strict, "Cannot assign to read only property '%s'", key)
		}
		if cur == o {
			ok, err := rt.putOwnValue(o, key, value)
			if err != nil {
				return err
			}
			if !ok {
				return rt.failAssignment(strict, "Cannot assign to property '%s'", key)
			}
			return nil
		}
		break
	}
	ok, err := rt.CreateDataProperty(o, key, value)
	if err != nil {
		return err
	}
	if !ok {
		return rt.failAssignment(strict, "Cannot add property %s, object is not extensible", key)
	}
	return nil
}

func (rt *Runtime) putOwnValue(o *Object, key PropertyKey, value Value) (bool, error) {
	if st := o.indexed(); st != nil {
		if i, ok := key.ArrayIndex(); ok {
			return st.setIndexed(rt, i, value)
		}
	}
	idx, _ := o.shape.lookup(key)
	if arr, ok := o.internal.(*ArrayData); ok && key == lengthKey {
		return true, rt.setArrayLength(o, arr, value)
	}
	o.slots[idx] = value
	return true, nil
}

func (rt *Runtime) failAssignment(strict bool, format string, key PropertyKey) error {
	if !strict {
		return nil
	}
	return rt.RaiseTypeError(fmt.Sprintf(format, key))
}

// Delete implements [[Delete]]. Non-configurable properties are kept; in
// strict mode that raises a TypeError.
func (rt *Runtime) Delete(o *Object, key PropertyKey, strict bool) (bool, error) {
	if st := o.indexed(); st != nil {
		if i, ok := key.ArrayIndex(); ok && i < st.indexedLength() {
			if !st.indexedFlags().Configurable {
				return false, rt.failAssignment(strict, "Cannot delete property '%s'", key)
			}
			_, err := st.setIndexed(rt, i, Undefined)
			return err == nil, err
		}
	}
	idx, ok := o.shape.lookup(key)
	if !ok {
		return true, nil
	}
	if !o.shape.fields[idx].Flags.Configurable {
		return false, rt.failAssignment(strict, "Cannot delete property '%s'", key)
	}
	if err := rt.heap.chargeShape(); err != nil {
		return false, err
	}
	o.shape = o.shape.without(idx)
	o.slots = append(o.slots[:idx], o.slots[idx+1:]...)
	delete(o.accessors, key)
	return true, nil
}
