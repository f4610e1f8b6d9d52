// Package cache holds per-document plain text under a hard byte budget.
//
// The cache exists so the query engine can cut context snippets without
// re-reading sources. Eviction is recency-based: hashicorp's simplelru
// supplies the access ordering, and this package layers byte accounting
// on top. Evicting a document never touches the term index; searches
// against an evicted document degrade to term-only snippets instead of
// failing.
//
// simplelru is unsynchronized and Get mutates recency, so every method
// takes the cache's own mutex; logical reads are physical writes here.
package cache

import (
	"log/slog"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/mdlens/mdsearch/internal/errors"
)

type entry struct {
	text string
	size int64
}

// DocumentCache is a byte-budgeted LRU of document texts.
type DocumentCache struct {
	mu     sync.Mutex
	lru    *simplelru.LRU[string, *entry]
	budget int64
	used   int64

	evictions uint64
	logger    *slog.Logger
}

// New creates a DocumentCache with the given byte budget and entry cap.
// Both must be positive.
func New(budgetBytes int64, maxEntries int, logger *slog.Logger) (*DocumentCache, error) {
	if budgetBytes <= 0 {
		return nil, errors.InvalidInput("cache budget must be positive, got %d", budgetBytes)
	}
	if maxEntries <= 0 {
		return nil, errors.InvalidInput("cache entry cap must be positive, got %d", maxEntries)
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &DocumentCache{
		budget: budgetBytes,
		logger: logger.With("component", "doccache"),
	}
	l, err := simplelru.NewLRU[string, *entry](maxEntries, c.onEvict)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "creating lru")
	}
	c.lru = l
	return c, nil
}

// onEvict runs under c.mu for every removal path (Remove, RemoveOldest,
// capacity eviction inside Add).
func (c *DocumentCache) onEvict(documentID string, e *entry) {
	c.used -= e.size
	c.evictions++
}

// Put inserts or replaces the text for documentID and evicts
// least-recently-used entries until the budget holds again. The entry
// just written is never the eviction victim: a caller must always be
// able to search the document it just indexed.
//
// A text larger than the whole budget is not cached at all; its
// searches serve degraded snippets. Caching it would force a choice
// between breaking the budget invariant and evicting the fresh write.
func (c *DocumentCache) Put(documentID, text string) {
	size := int64(len(text))

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.lru.Peek(documentID); ok {
		c.lru.Remove(documentID) // onEvict adjusts used
		c.evictions--            // a replacement is not an eviction
	}

	if size > c.budget {
		c.logger.Warn("document exceeds cache budget, serving degraded snippets",
			"document", documentID, "size", size, "budget", c.budget)
		return
	}

	c.used += size
	c.lru.Add(documentID, &entry{text: text, size: size})

	for c.used > c.budget {
		key, _, ok := c.lru.GetOldest()
		if !ok || key == documentID {
			break
		}
		c.lru.RemoveOldest()
	}

	// Unreachable by construction: the fresh entry fits the budget on
	// its own and everything else is evictable.
	if c.used > c.budget {
		panic(errors.Internal("cache eviction failed to satisfy budget: used=%d budget=%d", c.used, c.budget))
	}
}

// Get returns the text for documentID and refreshes its recency.
func (c *DocumentCache) Get(documentID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lru.Get(documentID)
	if !ok {
		return "", false
	}
	return e.text, true
}

// Contains reports whether documentID is cached without refreshing
// recency.
func (c *DocumentCache) Contains(documentID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.lru.Peek(documentID)
	return ok
}

// Remove drops documentID explicitly, e.g. when a document is closed.
func (c *DocumentCache) Remove(documentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(documentID)
}

// BytesUsed returns the total size of live entries.
func (c *DocumentCache) BytesUsed() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}

// Budget returns the configured byte budget.
func (c *DocumentCache) Budget() int64 {
	return c.budget
}

// Len returns the number of cached documents.
func (c *DocumentCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Evictions returns how many entries have been evicted or removed since
// creation.
func (c *DocumentCache) Evictions() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictions
}
