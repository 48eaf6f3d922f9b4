// Package memo implements the memoised impact-query cache: an LRU store
// keyed by file, with a reverse index enabling O(affected) invalidation
// when the graph changes.
package memo

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Priyans-hu/impactgraph/pkg/types"
)

// Entry is one memoised impact computation (spec §3 memo entry M[f]).
type Entry struct {
	ImpactSet       []types.FileID
	DirectCount     int
	TransitiveCount int
	RiskLevel       types.RiskLevel
	CascadeLevels   map[types.FileID]int
	ComputedAt      time.Time
}

// DefaultMaxSize is the cache's default capacity before LRU eviction.
const DefaultMaxSize = 500

// Cache is the memo cache described in spec §4.D. It wraps
// hashicorp/golang-lru for recency tracking and eviction, and layers a
// bespoke reverse index on top (the library has no reverse-index concept
// of its own).
type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache[types.FileID, *Entry]
	reverse map[types.FileID]map[types.FileID]struct{} // file -> keys whose impact set contains it
	hits    int
	misses  int
}

// New builds a cache with the given capacity (DefaultMaxSize if ≤ 0).
func New(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	c := &Cache{reverse: make(map[types.FileID]map[types.FileID]struct{})}
	// onEvicted runs synchronously inside entries.Add/Remove, which this
	// package only ever calls while already holding c.mu; it must not
	// re-lock.
	l, err := lru.NewWithEvict[types.FileID, *Entry](maxSize, func(key types.FileID, entry *Entry) {
		c.unindexLocked(key, entry)
	})
	if err != nil {
		// Only returns an error for a non-positive size, already guarded
		// above.
		l, _ = lru.New[types.FileID, *Entry](DefaultMaxSize)
	}
	c.entries = l
	return c
}

// Get reports the cached entry for key, bumping recency on hit and the
// hit/miss counters either way.
func (c *Cache) Get(key types.FileID) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries.Get(key)
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return entry, ok
}

// Set overwrites any previous entry for key (first removing its reverse-
// index contributions), stores the new entry, indexes key itself and
// every file in entry.ImpactSet into the reverse index, then lets the LRU
// evict down to capacity.
func (c *Cache) Set(key types.FileID, entry *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.entries.Peek(key); ok {
		c.unindexLocked(key, prev)
	}

	c.entries.Add(key, entry)
	c.indexLocked(key, entry)
}

func (c *Cache) indexLocked(key types.FileID, entry *Entry) {
	c.addReverse(key, key)
	for _, f := range entry.ImpactSet {
		c.addReverse(f, key)
	}
}

func (c *Cache) unindexLocked(key types.FileID, entry *Entry) {
	c.removeReverse(key, key)
	if entry == nil {
		return
	}
	for _, f := range entry.ImpactSet {
		c.removeReverse(f, key)
	}
}

func (c *Cache) addReverse(file, key types.FileID) {
	set, ok := c.reverse[file]
	if !ok {
		set = make(map[types.FileID]struct{})
		c.reverse[file] = set
	}
	set[key] = struct{}{}
}

func (c *Cache) removeReverse(file, key types.FileID) {
	set, ok := c.reverse[file]
	if !ok {
		return
	}
	delete(set, key)
	if len(set) == 0 {
		delete(c.reverse, file)
	}
}

// Invalidate removes every cache key whose entry's impact set (or the key
// itself) intersects files, returning the count removed. This is the
// O(affected) property: cost is proportional to the reverse index union,
// not the full cache size.
func (c *Cache) Invalidate(files []types.FileID) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make(map[types.FileID]struct{})
	for _, f := range files {
		for k := range c.reverse[f] {
			keys[k] = struct{}{}
		}
	}

	for k := range keys {
		c.entries.Remove(k) // triggers unindexLocked via onEvicted
	}
	return len(keys)
}

// InvalidateAll clears the cache and reverse index, preserving hit/miss
// counters for diagnostics.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
	c.reverse = make(map[types.FileID]map[types.FileID]struct{})
}

// Stats reports the cache's diagnostic counters.
func (c *Cache) Stats() types.MemoStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return types.MemoStats{
		Size:   c.entries.Len(),
		Hits:   c.hits,
		Misses: c.misses,
	}
}
