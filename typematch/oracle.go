package typematch

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"
)

// ErrUnreachable is returned when none of the candidate types occurs in the
// hierarchy relating it to the desired type. During overload resolution this
// means a declared type passed the assignability check without being related
// to the runtime type, which is a caller error rather than "no match".
var ErrUnreachable = errors.New("type unreachable in hierarchy")

// Direction selects which end of a hierarchy Closest prefers.
type Direction int

const (
	// Specific prefers the candidate nearest to the desired type's own
	// position: the most derived acceptable type. Used for parameters.
	Specific Direction = iota
	// General prefers the candidate from which the desired type is reached
	// in the fewest steps: the least derived acceptable type. Used for
	// results.
	General
)

func (d Direction) String() string {
	switch d {
	case Specific:
		return "specific"
	case General:
		return "general"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Options configures an Oracle.
type Options struct {
	// MaxTrees bounds the number of cached hierarchy trees.
	// Default: 0 (unbounded).
	MaxTrees int

	// TreeTTL ages cached trees out after the given duration.
	// Default: 0 (trees never expire).
	TreeTTL time.Duration
}

// Oracle answers type compatibility queries and caches hierarchy trees.
type Oracle struct {
	mu       sync.RWMutex
	universe []reflect.Type
	declared map[reflect.Type]bool
	gen      uint64

	trees *treeCache
}

// New creates an Oracle with the given options.
func New(opts Options) *Oracle {
	return &Oracle{
		declared: make(map[reflect.Type]bool),
		trees:    newTreeCache(opts.MaxTrees, opts.TreeTTL),
	}
}

// Declare adds interface types to the universe trees are built against.
// Non-interface and already declared types are ignored.
func (o *Oracle) Declare(types ...reflect.Type) {
	o.mu.RLock()
	missing := false
	for _, t := range types {
		if t != nil && t.Kind() == reflect.Interface && !o.declared[t] {
			missing = true
			break
		}
	}
	o.mu.RUnlock()
	if !missing {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	for _, t := range types {
		if t == nil || t.Kind() != reflect.Interface || o.declared[t] {
			continue
		}
		o.declared[t] = true
		o.universe = append(o.universe, t)
		o.gen++
	}
}

// Interfaces returns the declared interface universe in declaration order.
func (o *Oracle) Interfaces() []reflect.Type {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]reflect.Type, len(o.universe))
	copy(out, o.universe)
	return out
}

// CachedTrees returns the number of trees currently cached.
func (o *Oracle) CachedTrees() int { return o.trees.len() }

// Tree returns the hierarchy tree rooted at t, building it on first use.
func (o *Oracle) Tree(t reflect.Type) *TypeNode {
	o.mu.RLock()
	universe, gen := o.universe, o.gen
	o.mu.RUnlock()
	return o.trees.get(t, gen, func() *TypeNode {
		return buildTree(t, universe)
	})
}

// Closest picks the candidate best related to desired in the given
// direction.
//
// Specific ranks each candidate by its level in the tree rooted at desired,
// then by sibling order. General ranks each candidate by the level at which
// desired appears in the candidate's own tree. Remaining ties keep the
// earlier candidate. Candidates unrelated to desired are ignored; when no
// candidate is related the result is ErrUnreachable.
func (o *Oracle) Closest(desired reflect.Type, candidates []reflect.Type, dir Direction) (reflect.Type, error) {
	if desired == nil {
		return nil, fmt.Errorf("%w: no desired type", ErrUnreachable)
	}
	o.Declare(desired)
	o.Declare(candidates...)

	var root *TypeNode
	if dir == Specific {
		root = o.Tree(desired)
	}

	var (
		best     reflect.Type
		bestNode *TypeNode
	)
	for _, candidate := range candidates {
		if candidate == nil {
			continue
		}
		var node *TypeNode
		if dir == Specific {
			node = root.Find(candidate)
		} else {
			node = o.Tree(candidate).Find(desired)
		}
		if node == nil {
			continue
		}
		if bestNode == nil || closer(node, bestNode, dir) {
			best, bestNode = candidate, node
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: no candidate relates to %s", ErrUnreachable, desired)
	}
	return best, nil
}

func closer(a, b *TypeNode, dir Direction) bool {
	if a.Level != b.Level {
		return a.Level < b.Level
	}
	return dir == Specific && a.Order < b.Order
}

// Best dispatches to native scoring when desired is native and to Closest
// otherwise. A native query without any scoring candidate returns nil and no
// error.
func (o *Oracle) Best(desired reflect.Type, candidates []reflect.Type, dir Direction) (reflect.Type, error) {
	if IsNative(desired) {
		best, _ := o.BestNative(desired, candidates)
		return best, nil
	}
	return o.Closest(desired, candidates, dir)
}
