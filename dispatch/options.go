package dispatch

import (
	"io"
	"log/slog"

	"github.com/jonwraymond/tooldispatch/invoke"
	"github.com/jonwraymond/tooldispatch/typematch"
)

// DefaultAttempts is the default retry budget of the registration store.
const DefaultAttempts = 100

// Options configures a Registry. The zero value is usable.
type Options struct {
	// Behavior derives the default name of callables registered without
	// an explicit name.
	// Default: invoke.ClassAndMethodName.
	Behavior invoke.Behavior

	// Logger receives resolution and coercion events.
	// Default: nil (discard).
	Logger *slog.Logger

	// Attempts bounds the retries of a store removal before it reports
	// ErrInternalConsistency.
	// Default: 100.
	Attempts int

	// Oracle ranks declared types during resolution. Sharing one oracle
	// between registries shares its tree cache.
	// Default: a private oracle with unbounded cache.
	Oracle *typematch.Oracle

	// Searcher ranks signatures for Search.
	// Default: case-insensitive substring matching.
	Searcher Searcher
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.Attempts <= 0 {
		o.Attempts = DefaultAttempts
	}
	if o.Oracle == nil {
		o.Oracle = typematch.New(typematch.Options{})
	}
	if o.Searcher == nil {
		o.Searcher = lexicalSearcher{}
	}
	return o
}

// RegisterOption configures a single registration.
type RegisterOption func(*registerConfig)

type registerConfig struct {
	name        string
	behavior    invoke.Behavior
	description string
	owner       any
}

// WithName registers the callable under name instead of a derived one.
func WithName(name string) RegisterOption {
	return func(c *registerConfig) {
		c.name = name
	}
}

// WithBehavior overrides Options.Behavior for this registration.
func WithBehavior(b Behavior) RegisterOption {
	return func(c *registerConfig) {
		c.behavior = b
	}
}

// WithDescription attaches a human readable description used by search and
// listings.
func WithDescription(desc string) RegisterOption {
	return func(c *registerConfig) {
		c.description = desc
	}
}

func withOwner(owner any) RegisterOption {
	return func(c *registerConfig) {
		c.owner = owner
	}
}

func applyRegisterOptions(defaults invoke.Behavior, opts []RegisterOption) registerConfig {
	cfg := registerConfig{behavior: defaults}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Behavior is re-exported so callers rarely need to import invoke.
type Behavior = invoke.Behavior

// Naming behaviors.
const (
	ClassAndMethodName = invoke.ClassAndMethodName
	MethodName         = invoke.MethodName
)

// Registration describes one callable of a bulk registration.
type Registration struct {
	Fn          any
	Name        string
	Description string
}
