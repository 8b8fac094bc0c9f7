package driver

import (
	"fmt"
	"io"
	"sort"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/alexmckenley/hermes/pkg/builtins"
	"github.com/alexmckenley/hermes/pkg/errors"
	"github.com/alexmckenley/hermes/pkg/vm"
)

// Hermes is a runtime whose global object has been fully bootstrapped.
type Hermes struct {
	rt  *vm.Runtime
	log logrus.FieldLogger
}

// NewHermes validates cfg, creates a runtime and builds its global object.
// A bootstrap failure is returned as an error wrapping the
// *errors.BootstrapError instead of crashing the host.
func NewHermes(cfg Config) (h *Hermes, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.logger()
	rt, err := vm.NewRuntime(cfg.runtimeConfig())
	if err != nil {
		return nil, pkgerrors.Wrap(err, "creating runtime")
	}
	rt.Log = logger
	if cfg.Stdout != nil {
		rt.Stdout = cfg.Stdout
	}

	defer func() {
		if r := recover(); r != nil {
			be, ok := r.(*errors.BootstrapError)
			if !ok {
				panic(r)
			}
			h, err = nil, pkgerrors.Wrap(be, "initialising global object")
		}
	}()
	builtins.InitGlobalObject(rt)

	h = &Hermes{rt: rt, log: logger.WithField("component", "driver")}
	h.log.WithFields(logrus.Fields{
		"es6Symbol": cfg.ES6Symbol,
		"heapCells": rt.Heap().Live(),
	}).Info("runtime ready")
	return h, nil
}

// Runtime returns the underlying runtime.
func (h *Hermes) Runtime() *vm.Runtime { return h.rt }

// CallGlobal invokes the global function name with this undefined.
func (h *Hermes) CallGlobal(name string, args ...vm.Value) (vm.Value, error) {
	fn, err := h.rt.Get(h.rt.Global, vm.NewStringKey(name))
	if err != nil {
		return vm.Undefined, err
	}
	if !fn.IsCallable() {
		return vm.Undefined, fmt.Errorf("global %s is not a function", name)
	}
	return h.rt.Call(fn, vm.Undefined, args)
}

// ParseInt runs the global parseInt on text. A nil radix is passed as
// undefined.
func (h *Hermes) ParseInt(text string, radix *float64) (float64, error) {
	args := []vm.Value{vm.NewString(text)}
	if radix != nil {
		args = append(args, vm.NumberValue(*radix))
	}
	v, err := h.CallGlobal("parseInt", args...)
	if err != nil {
		return 0, err
	}
	return v.AsNumber(), nil
}

// ParseFloat runs the global parseFloat on text.
func (h *Hermes) ParseFloat(text string) (float64, error) {
	v, err := h.CallGlobal("parseFloat", vm.NewString(text))
	if err != nil {
		return 0, err
	}
	return v.AsNumber(), nil
}

// Binding is one own property of the global object.
type Binding struct {
	Name  string
	Flags vm.PropertyFlags
	Value vm.Value
}

// Attributes renders the flags in the order writable, enumerable,
// configurable, e.g. "w-c".
func (b Binding) Attributes() string {
	flag := func(on bool, c byte) byte {
		if on {
			return c
		}
		return '-'
	}
	return string([]byte{
		flag(b.Flags.Writable, 'w'),
		flag(b.Flags.Enumerable, 'e'),
		flag(b.Flags.Configurable, 'c'),
	})
}

// Globals lists the global bindings sorted by name.
func (h *Hermes) Globals() []Binding {
	var out []Binding
	for _, key := range h.rt.Global.OwnKeys() {
		d, ok := h.rt.Global.GetOwnProperty(key)
		if !ok {
			continue
		}
		out = append(out, Binding{Name: key.String(), Flags: d.Flags, Value: d.Value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Dump writes one line per global binding followed by heap statistics.
func (h *Hermes) Dump(w io.Writer) error {
	for _, b := range h.Globals() {
		if _, err := fmt.Fprintf(w, "%-22s %s  %s\n", b.Name, b.Attributes(), vm.Inspect(b.Value)); err != nil {
			return err
		}
	}
	heap := h.rt.Heap()
	_, err := fmt.Fprintf(w, "\n%d objects, %d live cells", heap.Objects(), heap.Live())
	if err == nil && heap.Limit() > 0 {
		_, err = fmt.Fprintf(w, " (limit %d)", heap.Limit())
	}
	if err == nil {
		_, err = fmt.Fprintln(w)
	}
	return err
}

// Verify checks the prototype tree of the bootstrapped runtime.
func (h *Hermes) Verify() error {
	return pkgerrors.Wrap(h.rt.VerifyPrototypeTree(), "prototype tree")
}
