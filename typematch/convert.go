package typematch

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// ErrNotConvertible is returned by Convert when no conversion exists.
var ErrNotConvertible = errors.New("not convertible")

// AssignableOrConvertible reports whether a value of type from can be used
// where type to is declared: the types are identical, from is assignable to
// to (including interface satisfaction), to is an embedded base of from, or
// both are native and converting from's zero value to to succeeds.
func AssignableOrConvertible(from, to reflect.Type) bool {
	if from == nil || to == nil {
		return false
	}
	if from == to || from.AssignableTo(to) {
		return true
	}
	if embedsBase(from, to) {
		return true
	}
	if !IsNative(from) || !IsNative(to) {
		return false
	}
	_, err := convertNative(reflect.Zero(from), to)
	return err == nil
}

// Convert converts v to type to. Assignable values are copied, embedded
// bases are extracted from their enclosing struct, and native values are
// converted numerically or textually. Other combinations fail with
// ErrNotConvertible.
func Convert(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	if !v.IsValid() {
		if nillable(to) {
			return reflect.Zero(to), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: nil to %s", ErrNotConvertible, to)
	}
	from := v.Type()
	if from == to {
		return v, nil
	}
	if from.AssignableTo(to) {
		out := reflect.New(to).Elem()
		out.Set(v)
		return out, nil
	}
	if base, ok := extractBase(v, to); ok {
		return base, nil
	}
	if IsNative(from) && IsNative(to) {
		return convertNative(v, to)
	}
	return reflect.Value{}, fmt.Errorf("%w: %s to %s", ErrNotConvertible, from, to)
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

// basic unwraps v into the predeclared Go value of its kind so that named
// types convert like their underlying type.
func basic(v reflect.Value) any {
	if v.Type() == decimalType {
		return v.Interface().(decimal.Decimal)
	}
	switch {
	case isSigned(v.Type()):
		return v.Int()
	case isUnsigned(v.Type()):
		return v.Uint()
	}
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Bool:
		return v.Bool()
	case reflect.String:
		return v.String()
	}
	return v.Interface()
}

// convertNative converts between native types. Conversions to an integer
// type must preserve the value exactly, and conversions to float32 must stay
// finite; overflow and dropped fractions fail with ErrNotConvertible.
func convertNative(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	orig := basic(v)
	src := orig
	if d, ok := src.(decimal.Decimal); ok {
		src = fromDecimal(d, to)
	}
	var (
		out any
		err error
	)
	if to == decimalType {
		out, err = toDecimal(src)
	} else {
		out, err = castKind(src, to.Kind())
	}
	if err == nil {
		switch {
		case isInteger(to):
			err = exactInteger(orig, out)
		case to.Kind() == reflect.Float32:
			err = finiteFloat32(orig, out)
		}
	}
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %s to %s: %v", ErrNotConvertible, v.Type(), to, err)
	}
	return reflect.ValueOf(out).Convert(to), nil
}

// exactInteger fails unless the integer out holds the value of src.
func exactInteger(src, out any) error {
	want, err := toDecimal(src)
	if err != nil {
		return err
	}
	var got decimal.Decimal
	rv := reflect.ValueOf(out)
	if isSigned(rv.Type()) {
		got = decimal.NewFromInt(rv.Int())
	} else {
		got, _ = toDecimal(rv.Uint())
	}
	if !got.Equal(want) {
		return fmt.Errorf("%v does not fit %s", src, rv.Type())
	}
	return nil
}

func finiteFloat32(src, out any) error {
	f, ok := out.(float32)
	if !ok || !math.IsInf(float64(f), 0) {
		return nil
	}
	if in, ok := src.(float64); ok && math.IsInf(in, 0) {
		return nil
	}
	return fmt.Errorf("%v overflows float32", src)
}

// fromDecimal picks the Go value a decimal contributes to a conversion
// towards to.
func fromDecimal(d decimal.Decimal, to reflect.Type) any {
	switch {
	case to == decimalType:
		return d
	case isSigned(to):
		return d.IntPart()
	case isUnsigned(to):
		if d.IsNegative() {
			return d.IntPart()
		}
		return d.BigInt().Uint64()
	case to.Kind() == reflect.String:
		return d.String()
	case to.Kind() == reflect.Bool:
		return !d.IsZero()
	default:
		return d.InexactFloat64()
	}
}

func toDecimal(src any) (decimal.Decimal, error) {
	switch s := src.(type) {
	case decimal.Decimal:
		return s, nil
	case int64:
		return decimal.NewFromInt(s), nil
	case uint64:
		return decimal.NewFromString(strconv.FormatUint(s, 10))
	case float64:
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return decimal.Zero, fmt.Errorf("%v has no decimal value", s)
		}
		return decimal.NewFromFloat(s), nil
	case string:
		if i, err := strconv.ParseInt(s, 0, 64); err == nil {
			return decimal.NewFromInt(i), nil
		}
		if u, err := strconv.ParseUint(s, 0, 64); err == nil {
			return toDecimal(u)
		}
		return decimal.NewFromString(s)
	case bool:
		if s {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, nil
	}
	return decimal.Zero, fmt.Errorf("unsupported source %T", src)
}

func castKind(src any, kind reflect.Kind) (any, error) {
	switch kind {
	case reflect.Int:
		return cast.ToIntE(src)
	case reflect.Int8:
		return cast.ToInt8E(src)
	case reflect.Int16:
		return cast.ToInt16E(src)
	case reflect.Int32:
		return cast.ToInt32E(src)
	case reflect.Int64:
		return cast.ToInt64E(src)
	case reflect.Uint:
		return cast.ToUintE(src)
	case reflect.Uint8:
		return cast.ToUint8E(src)
	case reflect.Uint16:
		return cast.ToUint16E(src)
	case reflect.Uint32:
		return cast.ToUint32E(src)
	case reflect.Uint64:
		return cast.ToUint64E(src)
	case reflect.Uintptr:
		u, err := cast.ToUint64E(src)
		return uintptr(u), err
	case reflect.Float32:
		return cast.ToFloat32E(src)
	case reflect.Float64:
		return cast.ToFloat64E(src)
	case reflect.String:
		return cast.ToStringE(src)
	case reflect.Bool:
		return cast.ToBoolE(src)
	}
	return nil, fmt.Errorf("unsupported kind %s", kind)
}

// embeddedBases lists the struct types embedded in t, nearest first and in
// field order. For a pointer-to-struct t the bases are pointers as well,
// since the embedded fields are addressable through it. Unexported
// embeddings are skipped.
func embeddedBases(t reflect.Type) []reflect.Type {
	var out []reflect.Type
	seen := map[reflect.Type]bool{t: true}
	var walk func(reflect.Type)
	walk = func(t reflect.Type) {
		st, ptr := t, false
		if t.Kind() == reflect.Pointer {
			st, ptr = t.Elem(), true
		}
		if st.Kind() != reflect.Struct {
			return
		}
		var next []reflect.Type
		for i := range st.NumField() {
			f := st.Field(i)
			if !f.Anonymous || !f.IsExported() {
				continue
			}
			base := f.Type
			switch {
			case base.Kind() == reflect.Struct:
				if ptr {
					base = reflect.PointerTo(base)
				}
			case base.Kind() == reflect.Pointer && base.Elem().Kind() == reflect.Struct:
			default:
				continue
			}
			if seen[base] {
				continue
			}
			seen[base] = true
			out = append(out, base)
			next = append(next, base)
		}
		for _, base := range next {
			walk(base)
		}
	}
	walk(t)
	return out
}

func embedsBase(from, to reflect.Type) bool {
	for _, base := range embeddedBases(from) {
		if base == to {
			return true
		}
	}
	return false
}

// extractBase walks the embedded fields of v breadth first and returns the
// first one of type to. Nil embedded pointers end their branch.
func extractBase(v reflect.Value, to reflect.Type) (reflect.Value, bool) {
	if !embedsBase(v.Type(), to) {
		return reflect.Value{}, false
	}
	queue := []reflect.Value{v}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		sv := cur
		if sv.Kind() == reflect.Pointer {
			if sv.IsNil() {
				continue
			}
			sv = sv.Elem()
		}
		if sv.Kind() != reflect.Struct {
			continue
		}
		for i := range sv.NumField() {
			f := sv.Type().Field(i)
			if !f.Anonymous || !f.IsExported() {
				continue
			}
			field := sv.Field(i)
			if field.Type() == to {
				return field, true
			}
			if field.Kind() == reflect.Struct && field.CanAddr() && reflect.PointerTo(field.Type()) == to {
				return field.Addr(), true
			}
			queue = append(queue, addressable(field))
		}
	}
	return reflect.Value{}, false
}

// addressable keeps struct fields reachable through a pointer addressable so
// pointer bases deeper in the chain can still be taken.
func addressable(field reflect.Value) reflect.Value {
	if field.Kind() == reflect.Struct && field.CanAddr() {
		return field.Addr()
	}
	return field
}
