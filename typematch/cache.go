package typematch

import (
	"reflect"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

type treeEntry struct {
	gen  uint64
	root *TypeNode
}

// treeCache holds built trees per root type. Entries carry the universe
// generation they were built against; older entries are rebuilt on demand.
type treeCache struct {
	trees *expirable.LRU[reflect.Type, *treeEntry]
	group singleflight.Group
}

// newTreeCache creates a cache holding at most size trees for at most ttl.
// Zero values mean unbounded and non-expiring.
func newTreeCache(size int, ttl time.Duration) *treeCache {
	return &treeCache{
		trees: expirable.NewLRU[reflect.Type, *treeEntry](size, nil, ttl),
	}
}

func (c *treeCache) get(t reflect.Type, gen uint64, build func() *TypeNode) *TypeNode {
	if e, ok := c.trees.Get(t); ok && e.gen >= gen {
		return e.root
	}
	v, _, _ := c.group.Do(treeKey(t, gen), func() (any, error) {
		if e, ok := c.trees.Peek(t); ok && e.gen >= gen {
			return e, nil
		}
		e := &treeEntry{gen: gen, root: build()}
		c.trees.Add(t, e)
		return e, nil
	})
	return v.(*treeEntry).root
}

func (c *treeCache) len() int { return c.trees.Len() }

func treeKey(t reflect.Type, gen uint64) string {
	return strconv.FormatUint(uint64(reflect.ValueOf(t).Pointer()), 16) + "/" + strconv.FormatUint(gen, 10)
}
