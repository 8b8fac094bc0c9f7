package vm

import (
	"errors"
	"testing"

	hermeserrors "github.com/alexmckenley/hermes/pkg/errors"
)

func newTestRuntime(t *testing.T, limit int) *Runtime {
	t.Helper()
	rt, err := NewRuntime(Config{MaxHeapCells: limit})
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	return rt
}

func TestHeap_NewRuntimeAllocatesGlobal(t *testing.T) {
	rt := newTestRuntime(t, 0)
	if rt.Global == nil {
		t.Fatal("expected a global object")
	}
	if rt.Global.Prototype() != nil {
		t.Errorf("global object should start with a null prototype")
	}
	if rt.Heap().Objects() != 1 {
		t.Errorf("expected 1 live object, got %d", rt.Heap().Objects())
	}
}

func TestHeap_HandlesAreStable(t *testing.T) {
	rt := newTestRuntime(t, 0)
	a, err := rt.NewObject(nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := rt.NewObject(a)
	if err != nil {
		t.Fatal(err)
	}
	if a.Handle() == b.Handle() {
		t.Errorf("handles must be distinct, both are %d", a.Handle())
	}
	h := a.Handle()
	if _, err := rt.DefineOwnProperty(a, NewStringKey("x"), NormalFlags(), NumberValue(1)); err != nil {
		t.Fatal(err)
	}
	if a.Handle() != h {
		t.Errorf("populating an object changed its handle")
	}
	if b.Prototype() != a {
		t.Errorf("prototype identity lost")
	}
}

func TestHeap_LimitYieldsOutOfMemory(t *testing.T) {
	rt := newTestRuntime(t, 6)
	var err error
	for i := 0; i < 10 && err == nil; i++ {
		_, err = rt.NewObject(nil)
	}
	var oom *hermeserrors.OutOfMemoryError
	if !errors.As(err, &oom) {
		t.Fatalf("expected OutOfMemoryError, got %v", err)
	}
	if oom.Limit != 6 {
		t.Errorf("expected limit 6 in error, got %d", oom.Limit)
	}
	if rt.Heap().Live() != 6 {
		t.Errorf("expected 6 live cells at the limit, got %d", rt.Heap().Live())
	}
}

func TestHeap_CollectDropsUnreachable(t *testing.T) {
	rt := newTestRuntime(t, 0)
	kept, _ := rt.NewObject(nil)
	if _, err := rt.DefineOwnProperty(rt.Global, NewStringKey("kept"), NormalFlags(), ObjectValue(kept)); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if _, err := rt.NewObject(kept); err != nil {
			t.Fatal(err)
		}
	}
	stats := rt.Collect()
	if stats.Before != 7 {
		t.Errorf("expected 7 objects before collection, got %d", stats.Before)
	}
	if stats.After != 2 {
		t.Errorf("expected 2 objects after collection, got %d", stats.After)
	}
	if rt.Heap().Collections() != 1 {
		t.Errorf("expected one collection, got %d", rt.Heap().Collections())
	}
}

func addWeakEntry(rt *Runtime, wd *WeakData) {
	key, _ := rt.NewObject(nil)
	wd.Set(key, True)
}

func TestHeap_CollectPrunesWeakEntries(t *testing.T) {
	rt := newTestRuntime(t, 0)
	wd := NewWeakData()
	holder, _ := rt.NewObjectWithClass(ClassWeakMap, nil, wd)
	if _, err := rt.DefineOwnProperty(rt.Global, NewStringKey("wm"), NormalFlags(), ObjectValue(holder)); err != nil {
		t.Fatal(err)
	}
	live, _ := rt.NewObject(nil)
	if _, err := rt.DefineOwnProperty(rt.Global, NewStringKey("live"), NormalFlags(), ObjectValue(live)); err != nil {
		t.Fatal(err)
	}
	wd.Set(live, NumberValue(1))
	addWeakEntry(rt, wd)

	if wd.Len() != 2 {
		t.Fatalf("expected 2 entries before collection, got %d", wd.Len())
	}
	stats := rt.Collect()
	if stats.WeakPruned != 1 {
		t.Errorf("expected 1 pruned entry, got %d", stats.WeakPruned)
	}
	if v, ok := wd.Get(live); !ok || v.AsNumber() != 1 {
		t.Errorf("reachable key lost its entry")
	}
}
