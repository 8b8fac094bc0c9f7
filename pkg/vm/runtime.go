package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Config is the part of the host configuration the runtime itself consumes.
type Config struct {
	ES6Symbol    bool // install the Symbol constructor on the global object
	MaxHeapCells int  // 0 means unlimited
}

// NativeErrorKind enumerates the native error constructors that derive from
// Error.
type NativeErrorKind uint8

const (
	EvalError NativeErrorKind = iota
	RangeError
	ReferenceError
	SyntaxError
	TypeError
	URIError

	NumNativeErrorKinds = int(URIError) + 1
)

var nativeErrorNames = [...]string{
	EvalError:      "EvalError",
	RangeError:     "RangeError",
	ReferenceError: "ReferenceError",
	SyntaxError:    "SyntaxError",
	TypeError:      "TypeError",
	URIError:       "URIError",
}

func (k NativeErrorKind) String() string { return nativeErrorNames[k] }

// NativeErrorKinds returns every native error kind in declaration order.
func NativeErrorKinds() []NativeErrorKind {
	kinds := make([]NativeErrorKind, NumNativeErrorKinds)
	for i := range kinds {
		kinds[i] = NativeErrorKind(i)
	}
	return kinds
}

// WellKnownSymbols are the @@-symbols shared by every part of one runtime.
type WellKnownSymbols struct {
	Iterator           *Symbol
	HasInstance        *Symbol
	ToPrimitive        *Symbol
	ToStringTag        *Symbol
	IsConcatSpreadable *Symbol
	Species            *Symbol
	Unscopables        *Symbol
	Match              *Symbol
	Replace            *Symbol
	Search             *Symbol
	Split              *Symbol
}

// Runtime holds the complete state of one script runtime: the heap, the
// global object, and every intrinsic the bootstrap creates. A Runtime must
// not be used from more than one goroutine at a time; separate runtimes share
// nothing.
type Runtime struct {
	Config    Config
	Log       logrus.FieldLogger
	Stdout    io.Writer
	Evaluator Evaluator // optional; eval and Function reject source text without one

	heap       *Heap
	emptyShape *Shape

	// Global is the root namespace object. It exists from NewRuntime on and
	// is chained to ObjectPrototype by the bootstrap.
	Global *Object

	// Built-in prototypes
	ObjectPrototype            *Object
	FunctionPrototype          *Object
	ErrorPrototype             *Object
	NativeErrorPrototypes      [NumNativeErrorKinds]*Object
	StringPrototype            *Object
	NumberPrototype            *Object
	BooleanPrototype           *Object
	SymbolPrototype            *Object
	DatePrototype              *Object
	IteratorPrototype          *Object // %IteratorPrototype%
	ArrayPrototype             *Object
	ArrayBufferPrototype       *Object
	DataViewPrototype          *Object
	TypedArrayBasePrototype    *Object // %TypedArray%.prototype
	TypedArrayPrototypes       [NumTypedArrayKinds]*Object
	SetPrototype               *Object
	SetIteratorPrototype       *Object
	MapPrototype               *Object
	MapIteratorPrototype       *Object
	RegExpPrototype            *Object
	WeakMapPrototype           *Object
	WeakSetPrototype           *Object
	ArrayIteratorPrototype     *Object
	StringIteratorPrototype    *Object
	GeneratorPrototype         *Object
	GeneratorFunctionPrototype *Object // %GeneratorFunction.prototype%

	// Constructors cached for brand checks and species lookups
	ObjectConstructor         *Object
	FunctionConstructor       *Object
	ErrorConstructor          *Object
	ArrayConstructor          *Object
	TypedArrayBaseConstructor *Object

	// ThrowTypeErrorAccessor is the [[ThrowTypeError]] getter/setter pair
	// installed on restricted function properties.
	ThrowTypeErrorAccessor *PropertyAccessor
	// The original parseInt/parseFloat, shared with Number.parseInt and
	// Number.parseFloat.
	ParseIntFunction   *Object
	ParseFloatFunction *Object
	// ArrayClass is the hidden class every new array starts from.
	ArrayClass *Shape

	RegExpLastInput  Value
	RegExpLastRegExp Value

	Symbols        WellKnownSymbols
	symbolRegistry map[string]*Symbol
}

// NewRuntime creates a runtime with an empty global object whose prototype is
// still null. The global object is the only heap object that exists before the
// bootstrap runs.
func NewRuntime(cfg Config) (*Runtime, error) {
	rt := &Runtime{
		Config:           cfg,
		Log:              logrus.StandardLogger(),
		Stdout:           os.Stdout,
		heap:             NewHeap(cfg.MaxHeapCells),
		RegExpLastInput:  Undefined,
		RegExpLastRegExp: Undefined,
		symbolRegistry:   make(map[string]*Symbol),
	}
	rt.Symbols = WellKnownSymbols{
		Iterator:           NewSymbol("Symbol.iterator"),
		HasInstance:        NewSymbol("Symbol.hasInstance"),
		ToPrimitive:        NewSymbol("Symbol.toPrimitive"),
		ToStringTag:        NewSymbol("Symbol.toStringTag"),
		IsConcatSpreadable: NewSymbol("Symbol.isConcatSpreadable"),
		Species:            NewSymbol("Symbol.species"),
		Unscopables:        NewSymbol("Symbol.unscopables"),
		Match:              NewSymbol("Symbol.match"),
		Replace:            NewSymbol("Symbol.replace"),
		Search:             NewSymbol("Symbol.search"),
		Split:              NewSymbol("Symbol.split"),
	}
	if err := rt.heap.chargeShape(); err != nil {
		return nil, err
	}
	rt.emptyShape = newRootShape(nil)
	global, err := rt.heap.allocObject(ClassObject, nil, rt.emptyShape)
	if err != nil {
		return nil, err
	}
	rt.Global = global
	return rt, nil
}

// Heap exposes allocation statistics.
func (rt *Runtime) Heap() *Heap { return rt.heap }

// NewObject allocates an ordinary object chained to proto (nil for a null
// prototype).
func (rt *Runtime) NewObject(proto *Object) (*Object, error) {
	return rt.heap.allocObject(ClassObject, proto, rt.emptyShape)
}

// NewObjectWithClass allocates an object of a built-in class with the given
// payload.
func (rt *Runtime) NewObjectWithClass(class ObjectClass, proto *Object, payload any) (*Object, error) {
	o, err := rt.heap.allocObject(class, proto, rt.emptyShape)
	if err != nil {
		return nil, err
	}
	o.internal = payload
	return o, nil
}

// NewArrayClass creates the hidden class for arrays derived from proto: an
// empty layout followed by a non-enumerable, writable, non-configurable
// "length" field at slot 0.
func (rt *Runtime) NewArrayClass(proto *Object) (*Shape, error) {
	if err := rt.heap.chargeShape(); err != nil {
		return nil, err
	}
	root := newRootShape(proto)
	if err := rt.heap.chargeShape(); err != nil {
		return nil, err
	}
	shape, _ := root.withField(lengthKey, PropertyFlags{Writable: true})
	return shape, nil
}

// SymbolFor implements the global symbol registry.
func (rt *Runtime) SymbolFor(key string) *Symbol {
	if s, ok := rt.symbolRegistry[key]; ok {
		return s
	}
	s := NewSymbol(key)
	rt.symbolRegistry[key] = s
	return s
}

// SymbolKeyFor returns the registry key of a registered symbol.
func (rt *Runtime) SymbolKeyFor(sym *Symbol) (string, bool) {
	for k, s := range rt.symbolRegistry {
		if s == sym {
			return k, true
		}
	}
	return "", false
}

// Prototypes returns every built-in prototype slot by name. Unset slots are
// included as nil.
func (rt *Runtime) Prototypes() map[string]*Object {
	m := map[string]*Object{
		"Object":            rt.ObjectPrototype,
		"Function":          rt.FunctionPrototype,
		"Error":             rt.ErrorPrototype,
		"String":            rt.StringPrototype,
		"Number":            rt.NumberPrototype,
		"Boolean":           rt.BooleanPrototype,
		"Symbol":            rt.SymbolPrototype,
		"Date":              rt.DatePrototype,
		"Iterator":          rt.IteratorPrototype,
		"Array":             rt.ArrayPrototype,
		"ArrayBuffer":       rt.ArrayBufferPrototype,
		"DataView":          rt.DataViewPrototype,
		"TypedArray":        rt.TypedArrayBasePrototype,
		"Set":               rt.SetPrototype,
		"SetIterator":       rt.SetIteratorPrototype,
		"Map":               rt.MapPrototype,
		"MapIterator":       rt.MapIteratorPrototype,
		"RegExp":            rt.RegExpPrototype,
		"WeakMap":           rt.WeakMapPrototype,
		"WeakSet":           rt.WeakSetPrototype,
		"ArrayIterator":     rt.ArrayIteratorPrototype,
		"StringIterator":    rt.StringIteratorPrototype,
		"Generator":         rt.GeneratorPrototype,
		"GeneratorFunction": rt.GeneratorFunctionPrototype,
	}
	for _, k := range NativeErrorKinds() {
		m[k.String()] = rt.NativeErrorPrototypes[k]
	}
	for _, k := range TypedArrayKinds() {
		m[k.String()] = rt.TypedArrayPrototypes[k]
	}
	return m
}

// VerifyPrototypeTree checks that every prototype slot is set and that every
// chain ends at Object.prototype, whose own prototype is null.
func (rt *Runtime) VerifyPrototypeTree() error {
	if rt.ObjectPrototype == nil {
		return fmt.Errorf("Object.prototype is not initialised")
	}
	if rt.ObjectPrototype.proto != nil {
		return fmt.Errorf("Object.prototype has a non-null prototype")
	}
	for name, p := range rt.Prototypes() {
		if p == nil {
			return fmt.Errorf("%s.prototype is not initialised", name)
		}
		seen := make(map[*Object]bool)
		cur := p
		for cur.proto != nil {
			if seen[cur] {
				return fmt.Errorf("prototype chain of %s.prototype has a cycle", name)
			}
			seen[cur] = true
			cur = cur.proto
		}
		if cur != rt.ObjectPrototype {
			return fmt.Errorf("prototype chain of %s.prototype does not end at Object.prototype", name)
		}
	}
	if rt.Global.proto != rt.ObjectPrototype {
		return fmt.Errorf("global object is not chained to Object.prototype")
	}
	return nil
}

func (rt *Runtime) primitivePrototype(v Value) (*Object, error) {
	var proto *Object
	switch v.Type() {
	case TypeBoolean:
		proto = rt.BooleanPrototype
	case TypeNumber:
		proto = rt.NumberPrototype
	case TypeString:
		proto = rt.StringPrototype
	case TypeSymbol:
		proto = rt.SymbolPrototype
	default:
		return nil, rt.RaiseTypeError(fmt.Sprintf("Cannot read properties of %s", v.Type()))
	}
	if proto == nil {
		return nil, fmt.Errorf("%s.prototype is not initialised", v.Type())
	}
	return proto, nil
}

// Collect marks everything reachable from the runtime roots, drops the rest
// from the heap accounting and prunes dead weak-collection entries.
func (rt *Runtime) Collect() CollectStats {
	stats := rt.heap.collect(rt.roots())
	rt.Log.WithFields(logrus.Fields{
		"before":      stats.Before,
		"after":       stats.After,
		"shapes":      stats.Shapes,
		"weak_pruned": stats.WeakPruned,
	}).Debug("heap collected")
	return stats
}

func (rt *Runtime) roots() []Value {
	roots := []Value{ObjectValue(rt.Global), rt.RegExpLastInput, rt.RegExpLastRegExp}
	for _, p := range rt.Prototypes() {
		if p != nil {
			roots = append(roots, ObjectValue(p))
		}
	}
	for _, c := range []*Object{rt.ObjectConstructor, rt.FunctionConstructor, rt.ErrorConstructor,
		rt.ArrayConstructor, rt.TypedArrayBaseConstructor, rt.ParseIntFunction, rt.ParseFloatFunction} {
		if c != nil {
			roots = append(roots, ObjectValue(c))
		}
	}
	if acc := rt.ThrowTypeErrorAccessor; acc != nil && acc.Getter != nil {
		roots = append(roots, ObjectValue(acc.Getter))
	}
	if rt.ArrayClass != nil && rt.ArrayClass.proto != nil {
		roots = append(roots, ObjectValue(rt.ArrayClass.proto))
	}
	return roots
}
