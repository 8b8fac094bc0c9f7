package vm

import (
	"weak"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

type mapEntry struct {
	key     Value
	value   Value
	deleted bool
}

// compactThreshold is the tombstone count below which Delete never
// compacts the entry list.
const compactThreshold = 8

// MapData is the insertion-ordered storage behind Map and Set. Keys compare
// with SameValueZero. Deleted entries stay in the list as tombstones so
// cursor positions remain stable; compaction moves live cursors.
type MapData struct {
	index      *linkedhashmap.Map // hashKey -> *mapEntry
	entries    []*mapEntry
	tombstones int
	cursors    []weak.Pointer[MapCursor]
}

// NewMapData creates empty storage.
func NewMapData() *MapData {
	return &MapData{index: linkedhashmap.New()}
}

func (d *MapData) lookup(key Value) (*mapEntry, bool) {
	e, ok := d.index.Get(key.hashKey())
	if !ok {
		return nil, false
	}
	return e.(*mapEntry), true
}

func (d *MapData) Get(key Value) (Value, bool) {
	e, ok := d.lookup(key)
	if !ok {
		return Undefined, false
	}
	return e.value, true
}

func (d *MapData) Has(key Value) bool {
	_, ok := d.lookup(key)
	return ok
}

// Set inserts or updates an entry; updates keep the original position. A
// -0 key is stored as +0.
func (d *MapData) Set(key, value Value) {
	if e, ok := d.lookup(key); ok {
		e.value = value
		return
	}
	if key.IsNumber() && key.AsNumber() == 0 {
		key = NumberValue(0)
	}
	e := &mapEntry{key: key, value: value}
	d.entries = append(d.entries, e)
	d.index.Put(key.hashKey(), e)
}

func (d *MapData) Delete(key Value) bool {
	e, ok := d.lookup(key)
	if !ok {
		return false
	}
	d.index.Remove(key.hashKey())
	e.deleted, e.key, e.value = true, Undefined, Undefined
	d.tombstones++
	if d.tombstones >= compactThreshold && d.tombstones > d.index.Size() {
		d.compact()
	}
	return true
}

// Clear removes every entry. Open cursors continue with entries added
// afterwards.
func (d *MapData) Clear() {
	for _, e := range d.entries {
		e.deleted, e.key, e.value = true, Undefined, Undefined
	}
	d.index.Clear()
	d.tombstones = len(d.entries)
	d.compact()
}

func (d *MapData) Size() int { return d.index.Size() }

// compact drops tombstones and moves every live cursor to the position of
// the first entry it has not yet visited.
func (d *MapData) compact() {
	live := make([]int, len(d.entries)+1)
	kept := d.entries[:0]
	for i, e := range d.entries {
		live[i] = len(kept)
		if !e.deleted {
			kept = append(kept, e)
		}
	}
	live[len(d.entries)] = len(kept)
	for i := len(kept); i < len(d.entries); i++ {
		d.entries[i] = nil
	}
	d.entries = kept
	d.tombstones = 0

	cursors := d.cursors[:0]
	for _, wp := range d.cursors {
		if c := wp.Value(); c != nil {
			c.pos = live[c.pos]
			cursors = append(cursors, wp)
		}
	}
	for i := len(cursors); i < len(d.cursors); i++ {
		d.cursors[i] = weak.Pointer[MapCursor]{}
	}
	d.cursors = cursors
}

// MapCursor walks a MapData in insertion order. It visits every entry not
// deleted before it is reached, including entries added during the walk.
type MapCursor struct {
	d   *MapData
	pos int
}

// Cursor opens a cursor at the first entry. The storage holds it weakly, so
// an abandoned cursor costs nothing once it is collected.
func (d *MapData) Cursor() *MapCursor {
	c := &MapCursor{d: d}
	d.cursors = append(d.cursors, weak.Make(c))
	return c
}

// Next returns the next live entry, or ok=false at the end.
func (c *MapCursor) Next() (key, value Value, ok bool) {
	for c.pos < len(c.d.entries) {
		e := c.d.entries[c.pos]
		c.pos++
		if !e.deleted {
			return e.key, e.value, true
		}
	}
	return Undefined, Undefined, false
}

// ForEach visits entries in insertion order.
func (d *MapData) ForEach(fn func(key, value Value) error) error {
	c := d.Cursor()
	for {
		k, v, ok := c.Next()
		if !ok {
			return nil
		}
		if err := fn(k, v); err != nil {
			return err
		}
	}
}

func (d *MapData) Trace(mark func(Value)) {
	for _, e := range d.entries {
		if !e.deleted {
			mark(e.key)
			mark(e.value)
		}
	}
}

// MapDataOf returns the storage of a Map or Set object.
func MapDataOf(o *Object) (*MapData, bool) {
	d, ok := o.internal.(*MapData)
	return d, ok
}

type weakEntry struct {
	ref   weak.Pointer[Object]
	value Value
}

// WeakData is the storage behind WeakMap and WeakSet. Keys are held through
// weak pointers; entries whose key has been reclaimed are pruned by Collect.
type WeakData struct {
	entries map[Handle]weakEntry
}

func NewWeakData() *WeakData {
	return &WeakData{entries: make(map[Handle]weakEntry)}
}

func (d *WeakData) lookup(key *Object) (weakEntry, bool) {
	e, ok := d.entries[key.handle]
	if !ok || e.ref.Value() != key {
		return weakEntry{}, false
	}
	return e, true
}

func (d *WeakData) Get(key *Object) (Value, bool) {
	e, ok := d.lookup(key)
	return e.value, ok
}

func (d *WeakData) Has(key *Object) bool {
	_, ok := d.lookup(key)
	return ok
}

func (d *WeakData) Set(key *Object, value Value) {
	d.entries[key.handle] = weakEntry{ref: weak.Make(key), value: value}
}

func (d *WeakData) Delete(key *Object) bool {
	if _, ok := d.lookup(key); !ok {
		return false
	}
	delete(d.entries, key.handle)
	return true
}

// Len returns the number of entries, including ones not yet pruned.
func (d *WeakData) Len() int { return len(d.entries) }

// Values stay strongly reachable while their entry exists.
func (d *WeakData) Trace(mark func(Value)) {
	for _, e := range d.entries {
		mark(e.value)
	}
}

func (d *WeakData) pruneDead() int {
	n := 0
	for h, e := range d.entries {
		if e.ref.Value() == nil {
			delete(d.entries, h)
			n++
		}
	}
	return n
}

// WeakDataOf returns the storage of a WeakMap or WeakSet object.
func WeakDataOf(o *Object) (*WeakData, bool) {
	d, ok := o.internal.(*WeakData)
	return d, ok
}
