package dispatch

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func writeMethod() {}

func otherMethod() {}

type closer struct {
	closed int
	err    error
}

func (c *closer) Close() error {
	c.closed++
	return c.err
}

func TestNew(t *testing.T) {
	reg := New(Options{})
	if reg == nil {
		t.Fatal("expected non-nil registry")
	}
	if reg.opts.Attempts != DefaultAttempts {
		t.Errorf("expected default attempts %d, got %d", DefaultAttempts, reg.opts.Attempts)
	}
	if reg.Oracle() == nil {
		t.Error("expected oracle to be initialized")
	}
	if _, ok := reg.searcher.(lexicalSearcher); !ok {
		t.Errorf("expected lexical searcher by default, got %T", reg.searcher)
	}
}

func TestRegister_RoundTrip(t *testing.T) {
	reg := New(Options{})

	if err := reg.Register(writeMethod); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	ok, err := reg.IsRegistered(writeMethod)
	if err != nil || !ok {
		t.Fatalf("IsRegistered = %v, %v", ok, err)
	}
	ok, err = reg.IsRegisteredName("dispatch.writeMethod")
	if err != nil || !ok {
		t.Fatalf("IsRegisteredName = %v, %v", ok, err)
	}

	if err := reg.Unregister(writeMethod); err != nil {
		t.Fatalf("Unregister failed: %v", err)
	}
	if ok, _ := reg.IsRegistered(writeMethod); ok {
		t.Error("expected func to be unregistered")
	}
	if err := reg.Unregister(writeMethod); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRegister_ByName(t *testing.T) {
	reg := New(Options{})
	if err := reg.Register(writeMethod, WithName("WriteMethod")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if ok, _ := reg.IsRegistered(writeMethod); !ok {
		t.Error("expected func to be registered")
	}
	if ok, _ := reg.IsRegisteredName("WriteMethod"); !ok {
		t.Error("expected name to be registered")
	}

	if err := reg.UnregisterName("WriteMethod"); err != nil {
		t.Fatalf("UnregisterName failed: %v", err)
	}
	if ok, _ := reg.IsRegistered(writeMethod); ok {
		t.Error("expected func to be gone after UnregisterName")
	}
	if err := reg.UnregisterName("WriteMethod"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRegister_Behavior(t *testing.T) {
	reg := New(Options{Behavior: MethodName})
	if err := reg.Register(writeMethod); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterWithBehavior(otherMethod, ClassAndMethodName); err != nil {
		t.Fatal(err)
	}

	if ok, _ := reg.IsRegisteredName("writeMethod"); !ok {
		t.Error("expected method-only name")
	}
	if ok, _ := reg.IsRegisteredName("dispatch.otherMethod"); !ok {
		t.Error("expected qualified name")
	}
}

func TestRegister_Duplicate(t *testing.T) {
	tests := []struct {
		name string
		opts []RegisterOption
	}{
		{"same name", []RegisterOption{WithName("WriteMethod")}},
		{"different name", []RegisterOption{WithName("WriteMethod2")}},
		{"derived name", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := New(Options{})
			if err := reg.Register(writeMethod, WithName("WriteMethod")); err != nil {
				t.Fatal(err)
			}
			err := reg.Register(writeMethod, tt.opts...)
			if !errors.Is(err, ErrDuplicate) {
				t.Fatalf("expected ErrDuplicate, got %v", err)
			}
			if err := reg.Execute("WriteMethod"); err != nil {
				t.Errorf("first registration should stay invocable: %v", err)
			}
			if reg.Len() != 1 {
				t.Errorf("Len() = %d, want 1", reg.Len())
			}
		})
	}
}

func TestRegister_InvalidArgument(t *testing.T) {
	reg := New(Options{})
	var nilFunc func()
	tests := []struct {
		name string
		fn   any
	}{
		{"nil", nil},
		{"nil func", nilFunc},
		{"not a func", "WriteMethod"},
		{"variadic", func(...int) {}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := reg.Register(tt.fn); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("Register: expected ErrInvalidArgument, got %v", err)
			}
		})
	}

	if _, err := reg.IsRegistered(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("IsRegistered(nil): expected ErrInvalidArgument, got %v", err)
	}
	if _, err := reg.IsRegisteredName(""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("IsRegisteredName(\"\"): expected ErrInvalidArgument, got %v", err)
	}
	if err := reg.Unregister(42); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Unregister(42): expected ErrInvalidArgument, got %v", err)
	}
	if err := reg.UnregisterName(""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("UnregisterName(\"\"): expected ErrInvalidArgument, got %v", err)
	}
}

func TestUnregisterName_RemovesFirstOverload(t *testing.T) {
	reg := New(Options{})
	first := func(int) {}
	second := func(string) {}
	_ = reg.Register(first, WithName("Write"))
	_ = reg.Register(second, WithName("Write"))

	if err := reg.UnregisterName("Write"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := reg.IsRegistered(first); ok {
		t.Error("expected first overload to be removed")
	}
	if ok, _ := reg.IsRegistered(second); !ok {
		t.Error("expected second overload to remain")
	}
}

func TestSignatures(t *testing.T) {
	reg := New(Options{})
	_ = reg.Register(func(a, b int) int { return a + b }, WithName("Add"), WithDescription("adds integers"))
	_ = reg.Register(func(a, b float64) float64 { return a + b }, WithName("Add"))
	_ = reg.Register(writeMethod, WithName("Write"))

	sigs := reg.Signatures("Add")
	if len(sigs) != 2 {
		t.Fatalf("expected 2 overloads, got %d", len(sigs))
	}
	if got := sigs[0].String(); got != "Add(int, int) int" {
		t.Errorf("first signature = %q", got)
	}
	if got := sigs[1].String(); got != "Add(float64, float64) float64" {
		t.Errorf("second signature = %q", got)
	}
	if sigs[0].Description != "adds integers" {
		t.Errorf("description = %q", sigs[0].Description)
	}
	if sigs[0].ID == "" || sigs[0].ID == sigs[1].ID {
		t.Error("expected distinct non-empty IDs")
	}

	all := reg.All()
	if len(all) != 3 || all[2].Name != "Write" || !all[2].IsVoid() {
		t.Errorf("unexpected All(): %v", all)
	}
}

func TestRegisterAll(t *testing.T) {
	reg := New(Options{})
	owner := &closer{}

	err := reg.RegisterAll(owner,
		Registration{Fn: func(a, b int) int { return a + b }, Name: "Add"},
		Registration{Fn: writeMethod, Description: "writes"},
	)
	if err != nil {
		t.Fatalf("RegisterAll failed: %v", err)
	}
	if reg.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", reg.Len())
	}
	if ok, _ := reg.IsRegisteredName("dispatch.writeMethod"); !ok {
		t.Error("expected derived name for unnamed registration")
	}
}

func TestRegisterAll_RollsBack(t *testing.T) {
	reg := New(Options{})
	_ = reg.Register(otherMethod)

	err := reg.RegisterAll(nil,
		Registration{Fn: writeMethod, Name: "Write"},
		Registration{Fn: otherMethod, Name: "Other"},
	)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if ok, _ := reg.IsRegistered(writeMethod); ok {
		t.Error("expected earlier registration of the batch to be rolled back")
	}
	if ok, _ := reg.IsRegistered(otherMethod); !ok {
		t.Error("expected pre-existing registration to survive")
	}
}

func TestRegisterAll_RollbackFailureReported(t *testing.T) {
	reg := New(Options{})
	_ = reg.Register(otherMethod)
	reg.entries.attempts = 0

	err := reg.RegisterAll(nil,
		Registration{Fn: writeMethod, Name: "Write"},
		Registration{Fn: otherMethod, Name: "Other"},
	)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if !errors.Is(err, ErrInternalConsistency) {
		t.Errorf("expected failed rollback to be reported, got %v", err)
	}
}

func TestDispose(t *testing.T) {
	reg := New(Options{})
	owner := &closer{}
	failing := &closer{err: errors.New("close failed")}

	_ = reg.Register(writeMethod, WithName("Write"))
	_ = reg.RegisterAll(owner,
		Registration{Fn: func() int { return 1 }, Name: "One"},
		Registration{Fn: func() int { return 2 }, Name: "Two"},
	)
	_ = reg.RegisterAll(failing, Registration{Fn: otherMethod, Name: "Other"})

	err := reg.Dispose()
	if err == nil || !strings.Contains(err.Error(), "close failed") {
		t.Errorf("expected joined close error, got %v", err)
	}
	if owner.closed != 1 {
		t.Errorf("expected owner closed once, got %d", owner.closed)
	}
	if reg.Len() != 0 {
		t.Errorf("Len() = %d after Dispose", reg.Len())
	}
	for _, name := range []string{"Write", "One", "Two", "Other"} {
		if ok, _ := reg.IsRegisteredName(name); ok {
			t.Errorf("expected %s to be gone", name)
		}
	}
	if ok, _ := reg.IsRegistered(writeMethod); ok {
		t.Error("expected func to be gone")
	}
	if err := reg.Register(writeMethod); err != nil {
		t.Errorf("expected registry to be reusable after Dispose: %v", err)
	}
}

func TestSearch(t *testing.T) {
	reg := New(Options{Logger: slog.Default()})
	_ = reg.Register(func(a, b int) int { return a + b }, WithName("Add"), WithDescription("sum of two numbers"))
	_ = reg.Register(func(s string) string { return strings.ToUpper(s) }, WithName("Upper"))

	results, err := reg.Search("sum", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Add" {
		t.Fatalf("unexpected results %v", results)
	}
	if results[0].Signature != "Add(int, int) int" {
		t.Errorf("signature = %q", results[0].Signature)
	}

	results, _ = reg.Search("string", 10)
	if len(results) != 1 || results[0].Name != "Upper" {
		t.Errorf("expected type search to find Upper, got %v", results)
	}

	results, _ = reg.Search("", 1)
	if len(results) != 1 || results[0].Name != "Add" {
		t.Errorf("expected empty query to list in order, got %v", results)
	}
}
