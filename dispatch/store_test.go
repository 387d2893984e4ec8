package dispatch

import (
	"errors"
	"sync"
	"testing"
)

func TestStore(t *testing.T) {
	s := newStore[string, *int](DefaultAttempts)
	one, two := new(int), new(int)

	if !s.insert("a", one) {
		t.Fatal("expected first insert to succeed")
	}
	if s.insert("a", two) {
		t.Error("expected insert of present key to fail")
	}
	if v, ok := s.load("a"); !ok || v != one {
		t.Errorf("load = %v, %v", v, ok)
	}
	if s.len() != 1 || len(s.values()) != 1 {
		t.Errorf("unexpected size %d", s.len())
	}

	v, ok, err := s.remove("a")
	if err != nil || !ok || v != one {
		t.Errorf("remove = %v, %v, %v", v, ok, err)
	}
	if _, ok, err := s.remove("a"); ok || err != nil {
		t.Errorf("remove of absent key = %v, %v", ok, err)
	}
}

func TestStore_ExhaustedAttempts(t *testing.T) {
	s := newStore[string, *int](0)
	s.insert("a", new(int))

	_, _, err := s.remove("a")
	if !errors.Is(err, ErrInternalConsistency) {
		t.Errorf("expected ErrInternalConsistency, got %v", err)
	}
	if _, ok := s.load("a"); !ok {
		t.Error("expected value to survive a failed removal")
	}
}

func TestStore_ConcurrentRemove(t *testing.T) {
	s := newStore[int, *int](DefaultAttempts)
	for i := range 64 {
		s.insert(i, new(int))
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		removed int
	)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 64 {
				if _, ok, err := s.remove(i); err == nil && ok {
					mu.Lock()
					removed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	if removed != 64 {
		t.Errorf("removed %d entries, want 64", removed)
	}
	if s.len() != 0 {
		t.Errorf("len() = %d after removal", s.len())
	}
}
