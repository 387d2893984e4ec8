package dispatch

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/jonwraymond/tooldispatch/invoke"
	"github.com/jonwraymond/tooldispatch/typematch"
)

// Registry holds callables and dispatches invocations to the best matching
// overload.
type Registry struct {
	opts     Options
	log      *slog.Logger
	oracle   *typematch.Oracle
	searcher Searcher

	entries *store[uintptr, *entry]
	seq     atomic.Uint64
}

// New creates a Registry with the given options.
func New(opts Options) *Registry {
	opts = opts.withDefaults()
	return &Registry{
		opts:     opts,
		log:      opts.Logger.With("component", "dispatch"),
		oracle:   opts.Oracle,
		searcher: opts.Searcher,
		entries:  newStore[uintptr, *entry](opts.Attempts),
	}
}

// Oracle returns the type oracle used for resolution.
func (r *Registry) Oracle() *typematch.Oracle { return r.oracle }

// Register adds fn to the registry. Without WithName the name is derived
// from the function's runtime name.
func (r *Registry) Register(fn any, opts ...RegisterOption) error {
	_, err := r.register(fn, applyRegisterOptions(r.opts.Behavior, opts))
	return err
}

// RegisterWithBehavior registers fn deriving its default name with b.
func (r *Registry) RegisterWithBehavior(fn any, b Behavior, opts ...RegisterOption) error {
	return r.Register(fn, append(opts, WithBehavior(b))...)
}

// RegisterAll registers every given callable on behalf of owner. It is all
// or nothing: on the first failure the callables registered by this call are
// removed again. Owners implementing io.Closer are closed by Dispose.
func (r *Registry) RegisterAll(owner any, regs ...Registration) error {
	var added []uintptr
	for i, reg := range regs {
		opts := []RegisterOption{withOwner(owner), WithDescription(reg.Description)}
		if reg.Name != "" {
			opts = append(opts, WithName(reg.Name))
		}
		e, err := r.register(reg.Fn, applyRegisterOptions(r.opts.Behavior, opts))
		if err != nil {
			err = fmt.Errorf("registration %d: %w", i, err)
			for _, id := range added {
				if _, _, rerr := r.entries.remove(id); rerr != nil {
					err = errors.Join(err, rerr)
				}
			}
			return err
		}
		added = append(added, e.inv.ID())
	}
	return nil
}

func (r *Registry) register(fn any, cfg registerConfig) (*entry, error) {
	inv, err := invoke.New(fn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	name := cfg.name
	if name == "" {
		name = inv.DefaultName(cfg.behavior)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: cannot derive a name for %s", ErrInvalidArgument, inv)
	}

	e := &entry{
		inv:         inv,
		id:          uuid.NewString(),
		name:        name,
		description: cfg.description,
		seq:         r.seq.Add(1),
		owner:       cfg.owner,
	}
	if !r.entries.insert(inv.ID(), e) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicate, inv.FuncName())
	}

	r.oracle.Declare(inv.Params()...)
	if ret := inv.Returns(); ret != nil {
		r.oracle.Declare(ret)
	}
	r.log.Debug("registered callable", "name", name, "signature", e.signature().String())
	return e, nil
}

// Unregister removes fn.
func (r *Registry) Unregister(fn any) error {
	id, err := identity(fn)
	if err != nil {
		return err
	}
	e, ok, err := r.entries.remove(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotFound, fn)
	}
	r.log.Debug("unregistered callable", "name", e.name)
	return nil
}

// UnregisterName removes the first callable registered under name.
func (r *Registry) UnregisterName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidArgument)
	}
	e := r.first(name)
	if e == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	_, ok, err := r.entries.remove(e.inv.ID())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	r.log.Debug("unregistered callable", "name", name)
	return nil
}

// IsRegistered reports whether fn is registered.
func (r *Registry) IsRegistered(fn any) (bool, error) {
	id, err := identity(fn)
	if err != nil {
		return false, err
	}
	_, ok := r.entries.load(id)
	return ok, nil
}

// IsRegisteredName reports whether any callable is registered under name.
func (r *Registry) IsRegisteredName(name string) (bool, error) {
	if name == "" {
		return false, fmt.Errorf("%w: empty name", ErrInvalidArgument)
	}
	return r.first(name) != nil, nil
}

// Signatures returns the overloads registered under name in registration
// order.
func (r *Registry) Signatures(name string) []Signature {
	var out []Signature
	for _, e := range r.candidates(name, false) {
		out = append(out, e.signature())
	}
	return out
}

// All returns every registered callable in registration order.
func (r *Registry) All() []Signature {
	var out []Signature
	for _, e := range r.candidates("", true) {
		out = append(out, e.signature())
	}
	return out
}

// Len returns the number of registered callables.
func (r *Registry) Len() int { return r.entries.len() }

// Dispose removes every registration and closes recorded owners that
// implement io.Closer. Close errors are joined.
func (r *Registry) Dispose() error {
	var (
		errs   []error
		owners []any
		seen   = make(map[any]bool)
	)
	for _, e := range r.candidates("", true) {
		if _, _, err := r.entries.remove(e.inv.ID()); err != nil {
			errs = append(errs, err)
			continue
		}
		if e.owner == nil {
			continue
		}
		if reflect.TypeOf(e.owner).Comparable() {
			if seen[e.owner] {
				continue
			}
			seen[e.owner] = true
		}
		owners = append(owners, e.owner)
	}
	for _, owner := range owners {
		if c, ok := owner.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %T: %w", owner, err))
			}
		}
	}
	r.log.Debug("disposed registry", "owners", len(owners))
	return errors.Join(errs...)
}

// candidates returns the entries registered under name, or every entry for
// a wildcard, in registration order.
func (r *Registry) candidates(name string, wildcard bool) []*entry {
	var out []*entry
	for _, e := range r.entries.values() {
		if wildcard || e.name == name {
			out = append(out, e)
		}
	}
	sortBySeq(out)
	return out
}

func (r *Registry) first(name string) *entry {
	if c := r.candidates(name, false); len(c) > 0 {
		return c[0]
	}
	return nil
}

func identity(fn any) (uintptr, error) {
	if fn == nil {
		return 0, fmt.Errorf("%w: nil func", ErrInvalidArgument)
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return 0, fmt.Errorf("%w: %T is not a func", ErrInvalidArgument, fn)
	}
	return invoke.Identity(fn), nil
}
