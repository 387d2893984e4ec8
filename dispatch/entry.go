package dispatch

import (
	"reflect"
	"slices"
	"sync"

	"github.com/jonwraymond/tooldispatch/invoke"
)

// entry is one registered callable. Entries sharing a name are overloads.
type entry struct {
	mu sync.Mutex

	inv         *invoke.Invokable
	id          string
	name        string
	description string
	seq         uint64
	owner       any
}

func (e *entry) signature() Signature {
	return Signature{
		ID:          e.id,
		Name:        e.name,
		Params:      e.inv.Params(),
		Returns:     e.inv.Returns(),
		Description: e.description,
		Func:        e.inv.FuncName(),
	}
}

// Signature is a read-only view of a registered callable.
type Signature struct {
	ID          string
	Name        string
	Params      []reflect.Type
	Returns     reflect.Type
	Description string
	// Func is the runtime name of the registered function.
	Func string
}

// String renders the signature as Name(p1, p2) R.
func (s Signature) String() string {
	return invoke.FormatSignature(s.Name, s.Params, s.Returns)
}

// IsVoid reports whether the callable declares no value.
func (s Signature) IsVoid() bool { return s.Returns == nil }

func sortBySeq(entries []*entry) {
	slices.SortFunc(entries, func(a, b *entry) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
}
