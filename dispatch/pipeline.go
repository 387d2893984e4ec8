package dispatch

import (
	"fmt"
	"reflect"

	"github.com/jonwraymond/tooldispatch/typematch"
)

// request describes one resolution: a name (or every name), the requested
// result type (nil for no value) and the runtime arguments.
type request struct {
	name     string
	wildcard bool
	desired  reflect.Type
	args     []any
}

func (q request) target() string {
	if q.wildcard {
		return "*"
	}
	return q.name
}

// resolve runs the candidate pipeline and returns the selected entry, or nil
// when no candidate survives.
func (r *Registry) resolve(q request) (*entry, error) {
	argTypes := make([]reflect.Type, len(q.args))
	for i, arg := range q.args {
		if arg != nil {
			argTypes[i] = reflect.TypeOf(arg)
		}
	}

	survivors := filterArity(r.candidates(q.name, q.wildcard), len(q.args), q.desired == nil)
	survivors = filterAssignable(survivors, q.desired, argTypes)
	if len(survivors) == 0 {
		return nil, nil
	}

	var err error
	for i, argType := range argTypes {
		if argType == nil || len(survivors) < 2 {
			continue
		}
		survivors, err = r.narrow(survivors, argType, typematch.Specific, func(e *entry) reflect.Type {
			return e.inv.Param(i)
		})
		if err != nil {
			return nil, fmt.Errorf("argument %d of %s: %w", i, q.target(), err)
		}
	}
	if q.desired != nil && len(survivors) > 1 {
		survivors, err = r.narrow(survivors, q.desired, typematch.General, func(e *entry) reflect.Type {
			return e.inv.Returns()
		})
		if err != nil {
			return nil, fmt.Errorf("result of %s: %w", q.target(), err)
		}
	}
	return survivors[0], nil
}

// filterArity keeps entries taking n parameters. A no-value request keeps
// only entries declaring no value.
func filterArity(entries []*entry, n int, void bool) []*entry {
	out := entries[:0:0]
	for _, e := range entries {
		if e.inv.NumParams() != n {
			continue
		}
		if void && !e.inv.IsVoid() {
			continue
		}
		out = append(out, e)
	}
	return out
}

// filterAssignable keeps entries whose result fits desired and whose
// parameters accept the argument types. A nil argument type stands for a nil
// argument and only fits parameters that can hold nil.
func filterAssignable(entries []*entry, desired reflect.Type, argTypes []reflect.Type) []*entry {
	out := entries[:0:0]
	for _, e := range entries {
		if desired != nil {
			ret := e.inv.Returns()
			if ret == nil || !typematch.AssignableOrConvertible(ret, desired) {
				continue
			}
		}
		ok := true
		for i, argType := range argTypes {
			param := e.inv.Param(i)
			if argType == nil {
				ok = canHoldNil(param)
			} else {
				ok = typematch.AssignableOrConvertible(argType, param)
			}
			if !ok {
				break
			}
		}
		if ok {
			out = append(out, e)
		}
	}
	return out
}

// narrow asks the oracle for the declared type closest to want and keeps the
// entries declaring exactly that type. A native query without a winner keeps
// every entry.
func (r *Registry) narrow(entries []*entry, want reflect.Type, dir typematch.Direction, declared func(*entry) reflect.Type) ([]*entry, error) {
	types := make([]reflect.Type, len(entries))
	for i, e := range entries {
		types[i] = declared(e)
	}
	best, err := r.oracle.Best(want, types, dir)
	if err != nil {
		return nil, err
	}
	if best == nil {
		return entries, nil
	}
	out := entries[:0:0]
	for i, e := range entries {
		if types[i] == best {
			out = append(out, e)
		}
	}
	return out, nil
}

func canHoldNil(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}
