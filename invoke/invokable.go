package invoke

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"unsafe"

	"github.com/jonwraymond/tooldispatch/typematch"
)

var (
	// ErrInvalidFunc is returned by New for values that cannot be invoked.
	ErrInvalidFunc = errors.New("invalid func")
	// ErrArity is returned by Call when the argument count is wrong.
	ErrArity = errors.New("wrong number of arguments")
	// ErrPanic wraps a value recovered from a panicking function.
	ErrPanic = errors.New("function panicked")
)

var errorType = reflect.TypeFor[error]()

// Invokable is a function prepared for dynamic invocation.
type Invokable struct {
	fn       reflect.Value
	id       uintptr
	name     string
	params   []reflect.Type
	returns  reflect.Type
	fallible bool
}

// New builds an Invokable from fn.
func New(fn any) (*Invokable, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: nil", ErrInvalidFunc)
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %T is not a func", ErrInvalidFunc, fn)
	}
	if v.IsNil() {
		return nil, fmt.Errorf("%w: nil %T", ErrInvalidFunc, fn)
	}
	t := v.Type()
	if t.IsVariadic() {
		return nil, fmt.Errorf("%w: variadic %s", ErrInvalidFunc, t)
	}

	inv := &Invokable{
		fn:     v,
		id:     Identity(fn),
		params: make([]reflect.Type, t.NumIn()),
	}
	for i := range t.NumIn() {
		inv.params[i] = t.In(i)
	}

	outs := t.NumOut()
	if outs > 0 && t.Out(outs-1) == errorType {
		inv.fallible = true
		outs--
	}
	switch outs {
	case 0:
	case 1:
		inv.returns = t.Out(0)
	default:
		return nil, fmt.Errorf("%w: %s returns %d values", ErrInvalidFunc, t, outs)
	}

	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		inv.name = f.Name()
	}
	return inv, nil
}

// Identity returns the identity of a func value: the address of its closure
// object. It returns 0 for nil and non-func values.
func Identity(fn any) uintptr {
	if fn == nil || reflect.TypeOf(fn).Kind() != reflect.Func {
		return 0
	}
	// A func value is pointer shaped, so the interface data word is the
	// closure pointer itself.
	return uintptr((*[2]unsafe.Pointer)(unsafe.Pointer(&fn))[1])
}

// ID returns the identity of the wrapped function.
func (inv *Invokable) ID() uintptr { return inv.id }

// FuncName returns the fully qualified runtime name of the function.
func (inv *Invokable) FuncName() string { return inv.name }

// NumParams returns the number of declared parameters.
func (inv *Invokable) NumParams() int { return len(inv.params) }

// Param returns the i'th declared parameter type.
func (inv *Invokable) Param(i int) reflect.Type { return inv.params[i] }

// Params returns a copy of the declared parameter types.
func (inv *Invokable) Params() []reflect.Type {
	out := make([]reflect.Type, len(inv.params))
	copy(out, inv.params)
	return out
}

// Returns returns the declared result type, or nil when the function
// declares no value.
func (inv *Invokable) Returns() reflect.Type { return inv.returns }

// IsVoid reports whether the function declares no value.
func (inv *Invokable) IsVoid() bool { return inv.returns == nil }

// Fallible reports whether the function returns a trailing error.
func (inv *Invokable) Fallible() bool { return inv.fallible }

// String renders the signature as func(p1, p2) R.
func (inv *Invokable) String() string {
	var b strings.Builder
	b.WriteString("func")
	writeSignature(&b, inv.params, inv.returns)
	return b.String()
}

// DefaultName derives a registration name from the runtime function name.
func (inv *Invokable) DefaultName(b Behavior) string {
	return deriveName(inv.name, b)
}

// Call converts args to the declared parameter types and invokes the
// function. A nil argument becomes the zero value of a nillable parameter.
// Panics are recovered and reported as ErrPanic; a non-nil trailing error is
// returned as is. For functions declaring no value the result is invalid.
func (inv *Invokable) Call(args ...any) (result reflect.Value, err error) {
	if len(args) != len(inv.params) {
		return reflect.Value{}, fmt.Errorf("%w: want %d, got %d", ErrArity, len(inv.params), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		v, err := typematch.Convert(reflect.ValueOf(arg), inv.params[i])
		if err != nil {
			return reflect.Value{}, fmt.Errorf("argument %d: %w", i, err)
		}
		in[i] = v
	}

	defer func() {
		if r := recover(); r != nil {
			result, err = reflect.Value{}, fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	out := inv.fn.Call(in)

	if inv.fallible {
		if e := out[len(out)-1]; !e.IsNil() {
			return reflect.Value{}, e.Interface().(error)
		}
	}
	if inv.returns == nil {
		return reflect.Value{}, nil
	}
	return out[0], nil
}

func writeSignature(b *strings.Builder, params []reflect.Type, returns reflect.Type) {
	b.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteByte(')')
	if returns != nil {
		b.WriteByte(' ')
		b.WriteString(returns.String())
	}
}

// FormatSignature renders name(p1, p2) R.
func FormatSignature(name string, params []reflect.Type, returns reflect.Type) string {
	var b strings.Builder
	b.WriteString(name)
	writeSignature(&b, params, returns)
	return b.String()
}
