package vm

import (
	"errors"
)

// Exception is a script-level throw travelling through Go error returns.
type Exception struct {
	Value   Value
	Message string
}

func (e *Exception) Error() string { return e.Message }

// AsException unwraps err into a script exception, if it is one.
func AsException(err error) (*Exception, bool) {
	var ex *Exception
	if errors.As(err, &ex) {
		return ex, true
	}
	return nil, false
}

var messageKey = NewStringKey("message")

// NewError allocates an error object chained to proto with an own,
// non-enumerable message property (omitted when message is empty).
func (rt *Runtime) NewError(proto *Object, message string) (*Object, error) {
	o, err := rt.NewObjectWithClass(ClassError, proto, nil)
	if err != nil {
		return nil, err
	}
	if message != "" {
		if _, err := rt.DefineOwnProperty(o, messageKey, NormalFlags(), NewString(message)); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// RaiseError builds a native error of the given kind and returns it as a
// thrown exception. Allocation failures are returned as they are.
func (rt *Runtime) RaiseError(kind NativeErrorKind, message string) error {
	proto := rt.NativeErrorPrototypes[kind]
	text := kind.String()
	if message != "" {
		text += ": " + message
	}
	if proto == nil {
		// Raised before the bootstrap created the error prototypes.
		return &Exception{Value: NewString(text), Message: text}
	}
	o, err := rt.NewError(proto, message)
	if err != nil {
		return err
	}
	return &Exception{Value: ObjectValue(o), Message: text}
}

func (rt *Runtime) RaiseTypeError(message string) error  { return rt.RaiseError(TypeError, message) }
func (rt *Runtime) RaiseRangeError(message string) error { return rt.RaiseError(RangeError, message) }
func (rt *Runtime) RaiseURIError(message string) error   { return rt.RaiseError(URIError, message) }

// Throw wraps an arbitrary script value as an exception.
func (rt *Runtime) Throw(v Value) error {
	return &Exception{Value: v, Message: rt.describeThrown(v)}
}

func (rt *Runtime) describeThrown(v Value) string {
	if v.IsObject() && v.AsObject().Class() == ClassError {
		o := v.AsObject()
		name, msg := "Error", ""
		if n, err := rt.Get(o, nameKey); err == nil && n.IsString() {
			name = n.AsString()
		}
		if m, err := rt.Get(o, messageKey); err == nil && m.IsString() {
			msg = m.AsString()
		}
		if msg == "" {
			return name
		}
		return name + ": " + msg
	}
	return Inspect(v)
}
