package dispatch

import (
	"fmt"
	"sync"
)

// store is a concurrent map whose removals retry a bounded number of times.
type store[K comparable, V comparable] struct {
	m        sync.Map
	attempts int
}

func newStore[K comparable, V comparable](attempts int) *store[K, V] {
	return &store[K, V]{attempts: attempts}
}

func (s *store[K, V]) load(k K) (V, bool) {
	v, ok := s.m.Load(k)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

// insert stores v under k unless k is present, reporting whether it did.
// LoadOrStore settles the race in one step, so unlike remove it needs no
// retry budget.
func (s *store[K, V]) insert(k K, v V) bool {
	_, loaded := s.m.LoadOrStore(k, v)
	return !loaded
}

// remove deletes k and returns the removed value. It reports false when k is
// absent and ErrInternalConsistency when the value kept changing underneath.
func (s *store[K, V]) remove(k K) (V, bool, error) {
	var zero V
	for range s.attempts {
		v, ok := s.m.Load(k)
		if !ok {
			return zero, false, nil
		}
		if s.m.CompareAndDelete(k, v) {
			return v.(V), true, nil
		}
	}
	return zero, false, fmt.Errorf("%w: remove %v failed after %d attempts", ErrInternalConsistency, k, s.attempts)
}

func (s *store[K, V]) values() []V {
	var out []V
	s.m.Range(func(_, v any) bool {
		out = append(out, v.(V))
		return true
	})
	return out
}

func (s *store[K, V]) len() int {
	n := 0
	s.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
