package services

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/deploymenttheory/go-hammer2/internal/parsers/blockrefs"
	"github.com/deploymenttheory/go-hammer2/internal/types"
)

// DefaultSubtreeCacheSize is the number of physical offsets kept by default.
const DefaultSubtreeCacheSize = 1 << 16

// subtreeEntry is one verified subtree rooted at an offset.
type subtreeEntry struct {
	bref  types.Blockref
	delta subtreeDelta
}

// SubtreeCache memoizes the statistics of fully verified subtrees, keyed by
// physical offset. An entry is only reused for a byte-identical blockref.
type SubtreeCache struct {
	entries *lru.Cache[uint64, []subtreeEntry]
	mu      sync.Mutex

	hits   uint64
	misses uint64
	adds   uint64
}

// SubtreeCacheStats reports cache effectiveness.
type SubtreeCacheStats struct {
	Offsets int    `json:"offsets" yaml:"offsets"`
	Hits    uint64 `json:"hits" yaml:"hits"`
	Misses  uint64 `json:"misses" yaml:"misses"`
	Adds    uint64 `json:"adds" yaml:"adds"`
}

// NewSubtreeCache creates a cache holding at most size offsets.
func NewSubtreeCache(size int) (*SubtreeCache, error) {
	if size <= 0 {
		size = DefaultSubtreeCacheSize
	}
	entries, err := lru.New[uint64, []subtreeEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create subtree cache: %w", err)
	}
	return &SubtreeCache{entries: entries}, nil
}

// lookup returns the cached delta of a subtree rooted at a blockref equal to bref.
func (c *SubtreeCache) lookup(bref *types.Blockref) (subtreeDelta, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if list, ok := c.entries.Get(bref.DataOff); ok {
		for i := range list {
			if blockrefs.Equal(&list[i].bref, bref) {
				c.hits++
				return list[i].delta, true
			}
		}
	}
	c.misses++
	return subtreeDelta{}, false
}

// store records the delta of a verified subtree.
func (c *SubtreeCache) store(bref *types.Blockref, delta subtreeDelta) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list, _ := c.entries.Get(bref.DataOff)
	for i := range list {
		if blockrefs.Equal(&list[i].bref, bref) {
			return
		}
	}
	next := make([]subtreeEntry, len(list), len(list)+1)
	copy(next, list)
	c.entries.Add(bref.DataOff, append(next, subtreeEntry{bref: *bref, delta: delta}))
	c.adds++
}

// Reset drops every entry.
func (c *SubtreeCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
}

// Stats returns a snapshot of the cache counters.
func (c *SubtreeCache) Stats() SubtreeCacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SubtreeCacheStats{
		Offsets: c.entries.Len(),
		Hits:    c.hits,
		Misses:  c.misses,
		Adds:    c.adds,
	}
}
