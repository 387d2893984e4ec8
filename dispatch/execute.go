package dispatch

import (
	"fmt"
	"reflect"

	"github.com/jonwraymond/tooldispatch/typematch"
)

// Coercion reports how an invocation result was turned into the requested
// type.
type Coercion int

const (
	// Direct means the result already had the requested type.
	Direct Coercion = iota
	// Converted means the result was converted to the requested type.
	Converted
	// Degraded means no conversion existed and the zero value was returned.
	Degraded
)

func (c Coercion) String() string {
	switch c {
	case Direct:
		return "direct"
	case Converted:
		return "converted"
	case Degraded:
		return "degraded"
	default:
		return fmt.Sprintf("coercion(%d)", int(c))
	}
}

// Outcome is the result of Invoke.
type Outcome[T any] struct {
	Value     T
	Coercion  Coercion
	Signature Signature
}

// Execute invokes the best overload of name for args whose result fits T
// and returns the result coerced to T. When the result cannot be coerced the
// zero value of T is returned without error; use Invoke to observe that.
func Execute[T any](r *Registry, name string, args ...any) (T, error) {
	out, err := invokeAs[T](r, request{name: name, args: args})
	return out.Value, err
}

// Invoke is Execute reporting how the result was coerced and which overload
// ran.
func Invoke[T any](r *Registry, name string, args ...any) (Outcome[T], error) {
	return invokeAs[T](r, request{name: name, args: args})
}

// SimpleExecute is Execute over every registered callable regardless of
// name.
func SimpleExecute[T any](r *Registry, args ...any) (T, error) {
	out, err := invokeAs[T](r, request{wildcard: true, args: args})
	return out.Value, err
}

// TryExecute is Execute reporting every failure as false. It also reports
// false when the coerced result is the zero value of T, so a callable
// legitimately returning the zero value is indistinguishable from a
// failure.
func TryExecute[T any](r *Registry, name string, args ...any) (T, bool) {
	out, err := invokeAs[T](r, request{name: name, args: args})
	if err != nil {
		var zero T
		return zero, false
	}
	return out.Value, !isZero(out.Value)
}

// Execute invokes the best no-value overload of name for args.
func (r *Registry) Execute(name string, args ...any) error {
	_, err := r.run(request{name: name, args: args})
	return err
}

// SimpleExecute invokes the best no-value overload among every registered
// callable.
func (r *Registry) SimpleExecute(args ...any) error {
	_, err := r.run(request{wildcard: true, args: args})
	return err
}

// TryExecute is Execute reporting success as a bool.
func (r *Registry) TryExecute(name string, args ...any) bool {
	_, err := r.run(request{name: name, args: args})
	return err == nil
}

func invokeAs[T any](r *Registry, q request) (Outcome[T], error) {
	q.desired = reflect.TypeFor[T]()
	var out Outcome[T]

	res, err := r.run(q)
	if err != nil {
		return out, err
	}
	out.Signature = res.sig
	out.Value, out.Coercion = coerce[T](res.value, q.desired)
	if out.Coercion == Degraded {
		r.log.Warn("result not coercible, returning zero value",
			"name", q.target(), "signature", res.sig.String(), "want", q.desired.String())
	}
	return out, nil
}

type result struct {
	value reflect.Value
	sig   Signature
}

// run resolves q and invokes the selected entry under its lock.
func (r *Registry) run(q request) (result, error) {
	e, err := r.resolve(q)
	if err != nil {
		return result{}, err
	}
	if e == nil {
		return result{}, fmt.Errorf("%w: %s with %d arguments", ErrNotFound, q.target(), len(q.args))
	}
	sig := e.signature()
	r.log.Debug("resolved callable", "name", q.target(), "signature", sig.String())

	v, err := r.call(e, q.args)
	if err != nil {
		return result{}, fmt.Errorf("%w: %s: %w", ErrExecutionFailed, sig, err)
	}
	return result{value: v, sig: sig}, nil
}

func (r *Registry) call(e *entry, args []any) (reflect.Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inv.Call(args...)
}

func coerce[T any](v reflect.Value, desired reflect.Type) (T, Coercion) {
	var zero T
	if !v.IsValid() {
		return zero, Degraded
	}
	if v.Kind() == reflect.Interface && v.IsNil() && v.Type().AssignableTo(desired) {
		return zero, Direct
	}
	if v.Type() == desired || v.Type().AssignableTo(desired) {
		if t, ok := v.Interface().(T); ok {
			return t, Direct
		}
	}
	cv, err := typematch.Convert(v, desired)
	if err != nil {
		return zero, Degraded
	}
	if t, ok := cv.Interface().(T); ok {
		return t, Converted
	}
	return zero, Degraded
}

func isZero[T any](v T) bool {
	rv := reflect.ValueOf(&v).Elem()
	return rv.IsZero()
}
