package vm

import (
	goruntime "runtime"

	"github.com/alexmckenley/hermes/pkg/errors"
)

// Handle is the stable identity of a heap object. Handles are never reused
// within one heap.
type Handle uint32

// Heap is the allocation arena for one runtime. It hands out stable object
// identities and accounts for every cell (objects, hidden classes and
// accessor pairs) against an optional limit. Memory itself belongs to the Go
// collector; Collect only drops unreachable cells from the arena and prunes
// dead weak-collection entries.
type Heap struct {
	objects    []*Object
	nextHandle Handle
	shapes     int // hidden classes allocated since the last collection
	accessors  int
	limit      int // 0 means unlimited

	collections int
}

// NewHeap creates a heap with the given cell limit (0 for unlimited).
func NewHeap(limit int) *Heap {
	return &Heap{limit: limit, objects: make([]*Object, 0, 256)}
}

// Live returns the number of cells currently accounted for.
func (h *Heap) Live() int {
	return len(h.objects) + h.shapes + h.accessors
}

// Limit returns the configured cell limit.
func (h *Heap) Limit() int { return h.limit }

// Objects returns the number of live objects.
func (h *Heap) Objects() int { return len(h.objects) }

// Collections returns how many times Collect has run.
func (h *Heap) Collections() int { return h.collections }

func (h *Heap) reserve(what string) error {
	if h.limit > 0 && h.Live() >= h.limit {
		return &errors.OutOfMemoryError{Limit: h.limit, Live: h.Live(), What: what}
	}
	return nil
}

func (h *Heap) allocObject(class ObjectClass, proto *Object, shape *Shape) (*Object, error) {
	if err := h.reserve("object"); err != nil {
		return nil, err
	}
	h.nextHandle++
	o := &Object{
		handle:     h.nextHandle,
		class:      class,
		proto:      proto,
		shape:      shape,
		extensible: true,
	}
	h.objects = append(h.objects, o)
	return o, nil
}

func (h *Heap) chargeShape() error {
	if err := h.reserve("hidden class"); err != nil {
		return err
	}
	h.shapes++
	return nil
}

func (h *Heap) chargeAccessor() error {
	if err := h.reserve("property accessor"); err != nil {
		return err
	}
	h.accessors++
	return nil
}

// Tracer is implemented by object payloads that hold references to other
// objects.
type Tracer interface {
	Trace(mark func(Value))
}

// weakPruner is implemented by payloads with weakly held entries.
type weakPruner interface {
	pruneDead() int
}

// CollectStats summarises one collection.
type CollectStats struct {
	Before     int
	After      int
	Shapes     int
	WeakPruned int
}

// collect marks everything reachable from roots and drops the rest.
func (h *Heap) collect(roots []Value) CollectStats {
	stats := CollectStats{Before: len(h.objects)}

	var stack []*Object
	mark := func(v Value) {
		if v.IsObject() && v.obj != nil && !v.obj.marked {
			v.obj.marked = true
			stack = append(stack, v.obj)
		}
	}
	for _, r := range roots {
		mark(r)
	}
	shapes := make(map[*Shape]struct{})
	accessors := 0
	for len(stack) > 0 {
		o := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if o.proto != nil {
			mark(ObjectValue(o.proto))
		}
		for s := o.shape; s != nil; s = s.parent {
			shapes[s] = struct{}{}
		}
		for _, v := range o.slots {
			mark(v)
		}
		for _, acc := range o.accessors {
			accessors++
			if acc.Getter != nil {
				mark(ObjectValue(acc.Getter))
			}
			if acc.Setter != nil {
				mark(ObjectValue(acc.Setter))
			}
		}
		if t, ok := o.internal.(Tracer); ok {
			t.Trace(mark)
		}
	}

	live := h.objects[:0]
	for _, o := range h.objects {
		if o.marked {
			o.marked = false
			live = append(live, o)
		}
	}
	for i := len(live); i < len(h.objects); i++ {
		h.objects[i] = nil
	}
	h.objects = live
	h.shapes = len(shapes)
	h.accessors = accessors

	// Let the Go collector clear weak pointers to the cells we just dropped.
	goruntime.GC()
	for _, o := range h.objects {
		if p, ok := o.internal.(weakPruner); ok {
			stats.WeakPruned += p.pruneDead()
		}
	}

	h.collections++
	stats.After = len(h.objects)
	stats.Shapes = h.shapes
	return stats
}
