package builtins

import (
	"math"
	"time"

	"github.com/alexmckenley/hermes/pkg/vm"
)

type DateInitializer struct{}

func (d *DateInitializer) Name() string {
	return "Date"
}

func (d *DateInitializer) Priority() int {
	return PriorityDate
}

// dateValue is the payload of Date objects: milliseconds since the epoch,
// NaN for an invalid date. Dates are interpreted in UTC.
type dateValue struct {
	ms float64
}

const maxTimeMillis = 8.64e15

func timeClip(ms float64) float64 {
	if math.IsNaN(ms) || math.Abs(ms) > maxTimeMillis {
		return math.NaN()
	}
	return math.Trunc(ms) + 0
}

func nowMillis() float64 {
	return float64(time.Now().UnixMilli())
}

func (dv *dateValue) time() time.Time {
	return time.UnixMilli(int64(dv.ms)).UTC()
}

func (d *DateInitializer) InitRuntime(ctx *RuntimeContext) error {
	rt := ctx.Runtime
	ctor, err := defineConstructor(ctx, constructorSpec{
		Name:      "Date",
		Arity:     7,
		Fn:        dateConstructor,
		Prototype: rt.DatePrototype,
		Global:    true,
	})
	if err != nil {
		return err
	}

	s := defineOn(rt, ctor)
	s.method("now", 0, func(*vm.Runtime, vm.NativeContext, vm.NativeArgs) (vm.Value, error) {
		return vm.NumberValue(nowMillis()), nil
	})
	s.method("parse", 1, dateParse)
	s.method("UTC", 7, dateUTC)
	if s.Err() != nil {
		return s.Err()
	}

	p := defineOn(rt, rt.DatePrototype)
	p.method("getTime", 0, dateGetTime)
	p.method("valueOf", 0, dateGetTime)
	p.method("toISOString", 0, dateToISOString)
	p.method("toString", 0, dateToString)
	p.method("toJSON", 1, dateToJSON)
	p.method("getFullYear", 0, dateField(func(t time.Time) int { return t.Year() }))
	p.method("getMonth", 0, dateField(func(t time.Time) int { return int(t.Month()) - 1 }))
	p.method("getDate", 0, dateField(func(t time.Time) int { return t.Day() }))
	p.method("getDay", 0, dateField(func(t time.Time) int { return int(t.Weekday()) }))
	p.method("getHours", 0, dateField(func(t time.Time) int { return t.Hour() }))
	p.method("getMinutes", 0, dateField(func(t time.Time) int { return t.Minute() }))
	p.method("getSeconds", 0, dateField(func(t time.Time) int { return t.Second() }))
	return p.Err()
}

func dateConstructor(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	if !args.IsConstructCall() {
		return vm.NewString(formatDate(nowMillis())), nil
	}
	var ms float64
	switch args.Count() {
	case 0:
		ms = nowMillis()
	case 1:
		v := args.Arg(0)
		if v.IsObject() {
			if dv, ok := v.AsObject().Internal().(*dateValue); ok {
				ms = dv.ms
				break
			}
		}
		prim, err := rt.ToPrimitive(v, "default")
		if err != nil {
			return vm.Undefined, err
		}
		if prim.IsString() {
			ms = parseDate(prim.AsString())
		} else {
			n, err := rt.ToNumber(prim)
			if err != nil {
				return vm.Undefined, err
			}
			ms = timeClip(n)
		}
	default:
		var err error
		if ms, err = utcFromComponents(rt, args.Args); err != nil {
			return vm.Undefined, err
		}
	}
	o, err := rt.OrdinaryCreateFromConstructor(args.NewTarget, rt.DatePrototype, vm.ClassDate, &dateValue{ms: ms})
	if err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(o), nil
}

// utcFromComponents implements MakeDate over year, month[, day, h, min, s, ms].
func utcFromComponents(rt *vm.Runtime, args []vm.Value) (float64, error) {
	fields := [7]float64{0, 0, 1, 0, 0, 0, 0}
	for i := 0; i < len(args) && i < len(fields); i++ {
		n, err := rt.ToNumber(args[i])
		if err != nil {
			return 0, err
		}
		if !isFiniteNumber(n) {
			return math.NaN(), nil
		}
		fields[i] = math.Trunc(n)
	}
	if y := fields[0]; y >= 0 && y <= 99 {
		fields[0] = 1900 + y
	}
	t := time.Date(int(fields[0]), time.Month(fields[1]+1), int(fields[2]),
		int(fields[3]), int(fields[4]), int(fields[5]), int(fields[6])*int(time.Millisecond), time.UTC)
	return timeClip(float64(t.UnixMilli())), nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006-01",
	"2006",
	time.RFC1123,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
}

// parseDate accepts the ISO formats and the strings produced by toString.
func parseDate(s string) float64 {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return timeClip(float64(t.UnixMilli()))
		}
	}
	return math.NaN()
}

func dateParse(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	s, err := rt.ToString(args.Arg(0))
	if err != nil {
		return vm.Undefined, err
	}
	return vm.NumberValue(parseDate(s)), nil
}

func dateUTC(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	all := args.Args
	if len(all) == 0 {
		return vm.NaNValue(), nil
	}
	ms, err := utcFromComponents(rt, all)
	if err != nil {
		return vm.Undefined, err
	}
	return vm.NumberValue(ms), nil
}

func thisDate(rt *vm.Runtime, this vm.Value, method string) (*dateValue, error) {
	dv, _, err := payloadOf[*dateValue](rt, this, method)
	return dv, err
}

func dateGetTime(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	dv, err := thisDate(rt, args.This, "Date.prototype.getTime")
	if err != nil {
		return vm.Undefined, err
	}
	return vm.NumberValue(dv.ms), nil
}

func dateField(get func(time.Time) int) vm.NativeFn {
	return func(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
		dv, err := thisDate(rt, args.This, "Date.prototype getter")
		if err != nil {
			return vm.Undefined, err
		}
		if math.IsNaN(dv.ms) {
			return vm.NaNValue(), nil
		}
		return vm.NumberValue(float64(get(dv.time()))), nil
	}
}

func dateToISOString(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	dv, err := thisDate(rt, args.This, "Date.prototype.toISOString")
	if err != nil {
		return vm.Undefined, err
	}
	if math.IsNaN(dv.ms) {
		return vm.Undefined, rt.RaiseRangeError("Invalid time value")
	}
	return vm.NewString(dv.time().Format("2006-01-02T15:04:05.000Z")), nil
}

// dateToJSON is generic: any object whose primitive value is a finite number
// is formatted through its own toISOString.
func dateToJSON(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	o, err := rt.ToObject(args.This)
	if err != nil {
		return vm.Undefined, err
	}
	tv, err := rt.ToPrimitive(vm.ObjectValue(o), "number")
	if err != nil {
		return vm.Undefined, err
	}
	if tv.IsNumber() && (math.IsNaN(tv.AsNumber()) || math.IsInf(tv.AsNumber(), 0)) {
		return vm.Null, nil
	}
	toISO, err := rt.Get(o, vm.NewStringKey("toISOString"))
	if err != nil {
		return vm.Undefined, err
	}
	if !toISO.IsCallable() {
		return vm.Undefined, rt.RaiseTypeError("toISOString is not a function")
	}
	return rt.Call(toISO, vm.ObjectValue(o), nil)
}

func formatDate(ms float64) string {
	if math.IsNaN(ms) {
		return "Invalid Date"
	}
	return time.UnixMilli(int64(ms)).UTC().Format("Mon Jan 02 2006 15:04:05 GMT-0700")
}

func dateToString(rt *vm.Runtime, _ vm.NativeContext, args vm.NativeArgs) (vm.Value, error) {
	dv, err := thisDate(rt, args.This, "Date.prototype.toString")
	if err != nil {
		return vm.Undefined, err
	}
	return vm.NewString(formatDate(dv.ms)), nil
}
