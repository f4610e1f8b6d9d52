// Package coordinator is the concurrency front door of the engine.
//
// A Coordinator owns the term index, the document cache, and the
// memoized outlines for one workspace. There are no package-level
// singletons: construct a coordinator when a workspace opens and Close
// it when the workspace goes away.
//
// Locking discipline: a single RWMutex covers the index+cache pair.
// Index and Remove take the write lock, so a concurrent search never
// observes a half-removed document; query execution runs under the read
// lock, so searches proceed concurrently with each other and queue
// behind in-flight mutations.
//
// Query supersession uses an explicit generation counter checked at
// every suspension point (after the debounce wait, after execution)
// rather than relying on context cancellation propagation alone.
package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mdlens/mdsearch/internal/cache"
	"github.com/mdlens/mdsearch/internal/config"
	"github.com/mdlens/mdsearch/internal/index"
	"github.com/mdlens/mdsearch/internal/outline"
	"github.com/mdlens/mdsearch/internal/query"
	"github.com/mdlens/mdsearch/internal/telemetry"
	"github.com/mdlens/mdsearch/internal/tokenizer"
)

// Stats is the diagnostics snapshot exposed to callers.
type Stats struct {
	DocumentsIndexed int   `json:"documentsIndexed"`
	DistinctTerms    int   `json:"distinctTerms"`
	CacheBytesUsed   int64 `json:"cacheBytesUsed"`
	CacheBudgetBytes int64 `json:"cacheBudgetBytes"`
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMetrics attaches a query telemetry collector.
func WithMetrics(m *telemetry.QueryMetrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// Coordinator debounces and supersedes queries, serializes index
// mutations against reads, and memoizes outlines.
type Coordinator struct {
	cfg    config.EngineConfig
	logger *slog.Logger

	mu       sync.RWMutex
	idx      *index.TermIndex
	texts    *cache.DocumentCache
	outlines map[string]*outline.Document

	tok     *tokenizer.Tokenizer
	engine  *query.Engine
	metrics *telemetry.QueryMetrics

	// generation distinguishes successive logical queries; only the
	// latest generation's result is ever delivered.
	generation atomic.Int64
	closed     atomic.Bool
}

// New validates cfg and constructs a Coordinator. This is the engine's
// only fail-fast point; all later operations degrade instead of erroring.
func New(cfg config.EngineConfig, logger *slog.Logger, opts ...Option) (*Coordinator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	texts, err := cache.New(cfg.CacheBudgetBytes, cfg.MaxCachedDocuments, logger)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		cfg:      cfg,
		logger:   logger.With("component", "coordinator"),
		idx:      index.New(),
		texts:    texts,
		outlines: make(map[string]*outline.Document),
		tok:      tokenizer.New(cfg.MinTermLength),
	}
	c.engine = query.NewEngine(c.idx, c.texts, outlineFunc(c.outlineLocked), c.tok, query.Config{
		HeadingBoost: cfg.HeadingBoost,
		SnippetWidth: cfg.SnippetWidth,
		MaxResults:   cfg.MaxResults,
	}, logger)

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// outlineFunc adapts a function to query.OutlineSource.
type outlineFunc func(documentID string) *outline.Document

func (f outlineFunc) Outline(documentID string) *outline.Document {
	return f(documentID)
}

// outlineLocked is called by the query engine while c.mu is held for
// reading; no extra locking here.
func (c *Coordinator) outlineLocked(documentID string) *outline.Document {
	return c.outlines[documentID]
}

// Index tokenizes and indexes text under documentID, replacing any
// previous version of the document. The outline is extracted once here,
// never per search, and survives cache eviction. Safe to call from any
// goroutine; mutations for the same document apply in call order.
func (c *Coordinator) Index(documentID, text string) {
	if c.closed.Load() {
		return
	}
	// Tokenize outside the lock; it's the expensive part.
	tokens := c.tok.Tokenize(text)
	ol := outline.Extract(text)

	c.mu.Lock()
	c.idx.AddDocument(documentID, tokens)
	c.texts.Put(documentID, text)
	c.outlines[documentID] = ol
	c.mu.Unlock()

	c.logger.Debug("indexed document",
		"document", documentID, "tokens", len(tokens), "headings", len(ol.Sections()))
}

// Remove drops a document from the index, the cache, and the outline
// store in one critical section, so a concurrent search sees either all
// of the document or none of it.
func (c *Coordinator) Remove(documentID string) {
	c.mu.Lock()
	c.idx.RemoveDocument(documentID)
	c.texts.Remove(documentID)
	delete(c.outlines, documentID)
	c.mu.Unlock()

	c.logger.Debug("removed document", "document", documentID)
}

// Search schedules rawQuery for execution after the configured debounce
// delay and returns a channel that yields the result list at most once.
//
// If a newer Search or a Cancel supersedes this query - during the
// debounce wait or while executing - the channel is closed without a
// value. Supersession is normal, silent behavior, not an error. An
// empty query yields an empty (nil) result list.
func (c *Coordinator) Search(ctx context.Context, rawQuery string, opts query.Options) <-chan []query.Result {
	ch := make(chan []query.Result, 1)
	gen := c.generation.Add(1)

	go func() {
		defer close(ch)

		if !c.debounce(ctx) {
			return
		}
		if c.generation.Load() != gen || c.closed.Load() {
			c.recordSuperseded()
			return
		}

		start := time.Now()
		c.mu.RLock()
		results := c.engine.Execute(ctx, rawQuery, opts)
		c.mu.RUnlock()

		if c.generation.Load() != gen {
			c.recordSuperseded()
			return
		}
		if ctx.Err() != nil {
			return
		}

		// Supersession is checked cooperatively: a newer Search that
		// starts after this check does not retract this delivery. Each
		// query has its own channel, so the newer generation still
		// delivers on its own channel regardless.
		ch <- results
		if c.metrics != nil {
			c.metrics.Record(telemetry.QueryEvent{
				Query:       rawQuery,
				ResultCount: len(results),
				Latency:     time.Since(start),
			})
		}
	}()
	return ch
}

// debounce waits out the configured delay. Returns false if ctx was
// cancelled while waiting.
func (c *Coordinator) debounce(ctx context.Context) bool {
	d := c.cfg.DebounceDelay
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Cancel supersedes any in-flight query immediately. Safe to call from
// any state and idempotent; no partial results are delivered.
func (c *Coordinator) Cancel() {
	c.generation.Add(1)
}

// BuildOutline returns the memoized heading tree for documentID, or nil
// if the document was never indexed. The caller owns the returned tree.
func (c *Coordinator) BuildOutline(documentID string) []outline.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ol, ok := c.outlines[documentID]
	if !ok {
		return nil
	}
	return ol.Items
}

// Statistics returns a diagnostics snapshot.
func (c *Coordinator) Statistics() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		DocumentsIndexed: c.idx.DocumentCount(),
		DistinctTerms:    c.idx.DistinctTerms(),
		CacheBytesUsed:   c.texts.BytesUsed(),
		CacheBudgetBytes: c.texts.Budget(),
	}
}

// Close cancels in-flight work and rejects further indexing. Idempotent.
func (c *Coordinator) Close() {
	c.closed.Store(true)
	c.Cancel()
}

func (c *Coordinator) recordSuperseded() {
	if c.metrics != nil {
		c.metrics.RecordSuperseded()
	}
}
