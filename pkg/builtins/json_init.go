package builtins

import (
	"fmt"
	"io"
	"math"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/alexmckenley/hermes/pkg/vm"
)

// jsonStreamConfig quotes strings without HTML escaping, matching
// JSON.stringify output for '<', '>' and '&'.
var jsonStreamConfig = jsoniter.Config{EscapeHTML: false}.Froze()

// createJSONObject builds the JSON namespace.
func createJSONObject(rt *vm.Runtime) (*vm.Object, error) {
	obj, err := rt.NewObject(rt.ObjectPrototype)
	if err != nil {
		return nil, err
	}
	d := defineOn(rt, obj)
	d.method("parse", 2, jsonParse)
	d.method("stringify", 3, jsonStringify)
	d.toStringTag("JSON")
	return obj, d.Err()
}

type jsonParser struct {
	rt   *vm.Runtime
	iter *jsoniter.Iterator
	err  error
}

func jsonParse(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	text, err := rt.ToString(args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	p := &jsonParser{rt: rt, iter: jsoniter.ParseString(jsonStreamConfig, text)}
	v := p.value()
	if p.err != nil {
		return vm.Undefined, p.err
	}
	if p.iterFailed() {
		return vm.Undefined, p.syntaxError(p.iter.Error.Error())
	}
	if p.iter.WhatIsNext() != jsoniter.InvalidValue || p.iter.Error != io.EOF {
		return vm.Undefined, p.syntaxError("unexpected data after the top-level value")
	}

	reviver := args.Arg(1)
	if !reviver.IsCallable() {
		return v, nil
	}
	root, err := rt.NewObject(rt.ObjectPrototype)
	if err != nil {
		return vm.Undefined, err
	}
	if _, err := rt.CreateDataProperty(root, vm.NewStringKey(""), v); err != nil {
		return vm.Undefined, err
	}
	return internalizeJSONProperty(rt, reviver, root, vm.NewStringKey(""))
}

func (p *jsonParser) syntaxError(msg string) error {
	return p.rt.RaiseError(vm.SyntaxError, "JSON Parse error: "+msg)
}

// iterFailed reports a tokenizer error. io.EOF only means the input ended
// and is checked separately.
func (p *jsonParser) iterFailed() bool {
	return p.iter.Error != nil && p.iter.Error != io.EOF
}

// fail records the first error and stops the iterator callbacks.
func (p *jsonParser) fail(err error) bool {
	if p.err == nil {
		p.err = err
	}
	return false
}

func (p *jsonParser) value() vm.Value {
	rt, iter := p.rt, p.iter
	switch iter.WhatIsNext() {
	case jsoniter.StringValue:
		return vm.NewString(iter.ReadString())
	case jsoniter.NumberValue:
		lit := string(iter.ReadNumber())
		if !validJSONNumber(lit) {
			p.fail(p.syntaxError(fmt.Sprintf("invalid number %q", lit)))
			return vm.Undefined
		}
		return vm.NumberValue(vm.StringToNumber(lit))
	case jsoniter.BoolValue:
		return vm.BooleanValue(iter.ReadBool())
	case jsoniter.NilValue:
		iter.ReadNil()
		return vm.Null
	case jsoniter.ArrayValue:
		var elems []vm.Value
		iter.ReadArrayCB(func(*jsoniter.Iterator) bool {
			elems = append(elems, p.value())
			return p.err == nil && !p.iterFailed()
		})
		if p.err != nil || p.iterFailed() {
			return vm.Undefined
		}
		arr, err := rt.NewArray(elems)
		if err != nil {
			p.fail(err)
			return vm.Undefined
		}
		return vm.ObjectValue(arr)
	case jsoniter.ObjectValue:
		obj, err := rt.NewObject(rt.ObjectPrototype)
		if err != nil {
			p.fail(err)
			return vm.Undefined
		}
		iter.ReadObjectCB(func(_ *jsoniter.Iterator, field string) bool {
			v := p.value()
			if p.err != nil || p.iterFailed() {
				return false
			}
			if _, err := rt.CreateDataProperty(obj, vm.NewStringKey(field), v); err != nil {
				return p.fail(err)
			}
			return true
		})
		return vm.ObjectValue(obj)
	}
	if !p.iterFailed() {
		p.fail(p.syntaxError("unexpected token"))
	} else {
		p.fail(p.syntaxError(iter.Error.Error()))
	}
	return vm.Undefined
}

// validJSONNumber checks the JSON number grammar, which is stricter than the
// characters the iterator accepts.
func validJSONNumber(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	digits := func() int {
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		return i - start
	}
	if i < len(s) && s[i] == '0' {
		i++
	} else if digits() == 0 {
		return false
	}
	if i < len(s) && s[i] == '.' {
		i++
		if digits() == 0 {
			return false
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		if digits() == 0 {
			return false
		}
	}
	return i == len(s)
}

func internalizeJSONProperty(rt *vm.Runtime, reviver vm.Value, holder *vm.Object, key vm.PropertyKey) (vm.Value, error) {
	val, err := rt.Get(holder, key)
	if err != nil {
		return vm.Undefined, err
	}
	if val.IsObject() {
		o := val.AsObject()
		var keys []vm.PropertyKey
		if o.Class() == vm.ClassArray {
			n, err := lengthOf(rt, o)
			if err != nil {
				return vm.Undefined, err
			}
			for i := 0; i < n; i++ {
				keys = append(keys, indexKey(i))
			}
		} else {
			keys = enumerableStringKeys(o)
		}
		for _, k := range keys {
			el, err := internalizeJSONProperty(rt, reviver, o, k)
			if err != nil {
				return vm.Undefined, err
			}
			if el.IsUndefined() {
				_, err = rt.Delete(o, k, false)
			} else {
				_, err = rt.CreateDataProperty(o, k, el)
			}
			if err != nil {
				return vm.Undefined, err
			}
		}
	}
	return rt.Call(reviver, vm.ObjectValue(holder), []vm.Value{key.ToValue(), val})
}

// enumerableStringKeys returns the own enumerable string-keyed properties
// in property order.
func enumerableStringKeys(o *vm.Object) []vm.PropertyKey {
	var keys []vm.PropertyKey
	for _, k := range o.OwnKeys() {
		if k.IsSymbol() {
			continue
		}
		if desc, ok := o.GetOwnProperty(k); ok && desc.Flags.Enumerable {
			keys = append(keys, k)
		}
	}
	return keys
}

type jsonSerializer struct {
	rt       *vm.Runtime
	replacer vm.Value
	allow    []vm.PropertyKey
	gap      string
	indent   string
	stack    []*vm.Object
	out      *jsoniter.Stream
}

func jsonStringify(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	s := &jsonSerializer{rt: rt, out: jsoniter.NewStream(jsonStreamConfig, nil, 256)}
	if err := s.setReplacer(args.Arg(1)); err != nil {
		return vm.Undefined, err
	}
	if err := s.setGap(args.Arg(2)); err != nil {
		return vm.Undefined, err
	}

	wrapper, err := rt.NewObject(rt.ObjectPrototype)
	if err != nil {
		return vm.Undefined, err
	}
	if _, err := rt.CreateDataProperty(wrapper, vm.NewStringKey(""), args.Arg(0)); err != nil {
		return vm.Undefined, err
	}
	v, ok, err := s.resolve(wrapper, vm.NewStringKey(""))
	if err != nil || !ok {
		return vm.Undefined, err
	}
	if err := s.write(v); err != nil {
		return vm.Undefined, err
	}
	return vm.NewString(string(s.out.Buffer())), nil
}

func (s *jsonSerializer) setReplacer(r vm.Value) error {
	if r.IsCallable() {
		s.replacer = r
		return nil
	}
	if !r.IsObject() || r.AsObject().Class() != vm.ClassArray {
		return nil
	}
	n, err := lengthOf(s.rt, r.AsObject())
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	s.allow = []vm.PropertyKey{}
	for i := 0; i < n; i++ {
		el, err := s.rt.Get(r.AsObject(), indexKey(i))
		if err != nil {
			return err
		}
		switch {
		case el.IsString(), el.IsNumber():
		case el.IsObject() && (el.AsObject().Class() == vm.ClassString || el.AsObject().Class() == vm.ClassNumber):
		default:
			continue
		}
		name, err := s.rt.ToString(el)
		if err != nil {
			return err
		}
		if !seen[name] {
			seen[name] = true
			s.allow = append(s.allow, vm.NewStringKey(name))
		}
	}
	return nil
}

func (s *jsonSerializer) setGap(space vm.Value) error {
	var err error
	if space.IsObject() {
		switch space.AsObject().Class() {
		case vm.ClassNumber:
			var n float64
			if n, err = s.rt.ToNumber(space); err != nil {
				return err
			}
			space = vm.NumberValue(n)
		case vm.ClassString:
			var str string
			if str, err = s.rt.ToString(space); err != nil {
				return err
			}
			space = vm.NewString(str)
		}
	}
	switch {
	case space.IsNumber():
		n, _ := s.rt.ToIntegerOrInfinity(space)
		if n >= 1 {
			s.gap = strings.Repeat(" ", int(math.Min(n, 10)))
		}
	case space.IsString():
		view := vm.NewStringView(space.AsString())
		if view.Len() > 10 {
			view = view.Slice(0, 10)
		}
		s.gap = view.String()
	}
	return nil
}

// resolve reads holder[key] and applies toJSON, the replacer and primitive
// unwrapping. ok is false when the result has no JSON representation.
func (s *jsonSerializer) resolve(holder *vm.Object, key vm.PropertyKey) (vm.Value, bool, error) {
	rt := s.rt
	v, err := rt.Get(holder, key)
	if err != nil {
		return vm.Undefined, false, err
	}
	if v.IsObject() {
		toJSON, err := rt.GetV(v, vm.NewStringKey("toJSON"))
		if err != nil {
			return vm.Undefined, false, err
		}
		if toJSON.IsCallable() {
			if v, err = rt.Call(toJSON, v, []vm.Value{key.ToValue()}); err != nil {
				return vm.Undefined, false, err
			}
		}
	}
	if !s.replacer.IsUndefined() {
		if v, err = rt.Call(s.replacer, vm.ObjectValue(holder), []vm.Value{key.ToValue(), v}); err != nil {
			return vm.Undefined, false, err
		}
	}
	if v.IsObject() {
		switch v.AsObject().Class() {
		case vm.ClassNumber:
			n, err := rt.ToNumber(v)
			if err != nil {
				return vm.Undefined, false, err
			}
			v = vm.NumberValue(n)
		case vm.ClassString:
			str, err := rt.ToString(v)
			if err != nil {
				return vm.Undefined, false, err
			}
			v = vm.NewString(str)
		case vm.ClassBoolean:
			if box, ok := v.AsObject().Internal().(*vm.PrimitiveBox); ok {
				v = box.Value
			}
		}
	}
	switch {
	case v.IsUndefined(), v.IsSymbol(), v.IsCallable():
		return vm.Undefined, false, nil
	}
	return v, true, nil
}

func (s *jsonSerializer) write(v vm.Value) error {
	switch {
	case v.IsNull():
		s.out.WriteNil()
	case v.IsBoolean():
		s.out.WriteBool(v.AsBoolean())
	case v.IsString():
		s.out.WriteString(v.AsString())
	case v.IsNumber():
		if n := v.AsNumber(); math.IsNaN(n) || math.IsInf(n, 0) {
			s.out.WriteNil()
		} else {
			s.out.WriteRaw(vm.NumberToString(n))
		}
	case v.IsObject():
		o := v.AsObject()
		for _, seen := range s.stack {
			if seen == o {
				return s.rt.RaiseTypeError("Converting circular structure to JSON")
			}
		}
		s.stack = append(s.stack, o)
		stepback := s.indent
		s.indent += s.gap
		var err error
		if o.Class() == vm.ClassArray {
			err = s.writeArray(o)
		} else {
			err = s.writeObject(o)
		}
		s.indent = stepback
		s.stack = s.stack[:len(s.stack)-1]
		return err
	}
	return nil
}

// separator starts the i-th member of a container.
func (s *jsonSerializer) separator(i int) {
	if i > 0 {
		s.out.WriteRaw(",")
	}
	if s.gap != "" {
		s.out.WriteRaw("\n" + s.indent)
	}
}

// closing ends a container with n members.
func (s *jsonSerializer) closing(n int, stepback, bracket string) {
	if n > 0 && s.gap != "" {
		s.out.WriteRaw("\n" + stepback)
	}
	s.out.WriteRaw(bracket)
}

func (s *jsonSerializer) writeObject(o *vm.Object) error {
	stepback := s.indent[:len(s.indent)-len(s.gap)]
	keys := s.allow
	if keys == nil {
		keys = enumerableStringKeys(o)
	}
	s.out.WriteRaw("{")
	n := 0
	for _, k := range keys {
		v, ok, err := s.resolve(o, k)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		s.separator(n)
		n++
		s.out.WriteString(k.Name())
		s.out.WriteRaw(":")
		if s.gap != "" {
			s.out.WriteRaw(" ")
		}
		if err := s.write(v); err != nil {
			return err
		}
	}
	s.closing(n, stepback, "}")
	return nil
}

func (s *jsonSerializer) writeArray(o *vm.Object) error {
	stepback := s.indent[:len(s.indent)-len(s.gap)]
	length, err := lengthOf(s.rt, o)
	if err != nil {
		return err
	}
	s.out.WriteRaw("[")
	for i := 0; i < length; i++ {
		s.separator(i)
		v, ok, err := s.resolve(o, indexKey(i))
		if err != nil {
			return err
		}
		if !ok {
			s.out.WriteNil()
			continue
		}
		if err := s.write(v); err != nil {
			return err
		}
	}
	s.closing(length, stepback, "]")
	return nil
}
