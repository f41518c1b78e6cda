package equiv

import (
	"fmt"
	"sync"

	"github.com/roach88/cuetest/internal/ir"
)

// treeCache memoizes normalized trees by grammar, options and content
// hash. Concurrent inserts for the same key store equal trees, so the
// loser of a race is simply dropped. Cached trees are never mutated.
// Entries are never evicted: the cache lives as long as its comparator,
// which for Default is the whole process. Long-running callers comparing
// many distinct sources should build their own comparator per batch.
type treeCache struct {
	m sync.Map
}

func cacheKey(g Grammar, opts Options, src ir.Source) string {
	return fmt.Sprintf("%s/%t/%t/%s", g.Name(), opts.IgnoreFieldOrder, opts.IgnoreAttributeArgOrder, src.Hash())
}

func (c *treeCache) load(key string) (*Node, bool) {
	v, ok := c.m.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*Node), true
}

func (c *treeCache) store(key string, n *Node) *Node {
	v, _ := c.m.LoadOrStore(key, n)
	return v.(*Node)
}

func (c *treeCache) len() int {
	n := 0
	c.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
