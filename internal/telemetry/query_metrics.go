// Package telemetry collects local-only query metrics: latency buckets,
// zero-result and superseded counters, and the hottest query patterns.
// Nothing leaves the process; the stats command renders a snapshot.
package telemetry

import (
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LatencyBucket is a coarse latency histogram bucket.
type LatencyBucket string

const (
	BucketUnder10ms  LatencyBucket = "<10ms"
	BucketUnder50ms  LatencyBucket = "10-50ms"
	BucketUnder100ms LatencyBucket = "50-100ms"
	BucketUnder500ms LatencyBucket = "100-500ms"
	BucketSlow       LatencyBucket = ">=500ms"
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 10:
		return BucketUnder10ms
	case ms < 50:
		return BucketUnder50ms
	case ms < 100:
		return BucketUnder100ms
	case ms < 500:
		return BucketUnder500ms
	default:
		return BucketSlow
	}
}

// QueryEvent is one executed (delivered) query.
type QueryEvent struct {
	Query       string
	ResultCount int
	Latency     time.Duration
	Timestamp   time.Time
}

// IsZeroResult reports whether the query matched nothing.
func (e QueryEvent) IsZeroResult() bool {
	return e.ResultCount == 0
}

// Snapshot is a point-in-time copy of the collected metrics.
type Snapshot struct {
	Searches    uint64
	ZeroResults uint64
	Superseded  uint64
	Buckets     map[LatencyBucket]uint64
	Recent      []QueryEvent
	TopPatterns map[string]int
}

// QueryMetrics accumulates query telemetry. All methods are safe for
// concurrent use.
type QueryMetrics struct {
	mu          sync.Mutex
	recent      *circularBuffer[QueryEvent]
	patterns    *lru.Cache[string, int]
	searches    uint64
	zeroResults uint64
	superseded  uint64
	buckets     map[LatencyBucket]uint64
}

// NewQueryMetrics creates a collector keeping recentSize events and up
// to patternSize distinct query patterns.
func NewQueryMetrics(recentSize, patternSize int) *QueryMetrics {
	if recentSize < 1 {
		recentSize = 64
	}
	if patternSize < 1 {
		patternSize = 256
	}
	patterns, _ := lru.New[string, int](patternSize)
	return &QueryMetrics{
		recent:   newCircularBuffer[QueryEvent](recentSize),
		patterns: patterns,
		buckets:  make(map[LatencyBucket]uint64),
	}
}

// Record registers a delivered query.
func (m *QueryMetrics) Record(e QueryEvent) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	pattern := normalizePattern(e.Query)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches++
	if e.IsZeroResult() {
		m.zeroResults++
	}
	m.buckets[LatencyToBucket(e.Latency)]++
	m.recent.add(e)

	count, _ := m.patterns.Get(pattern)
	m.patterns.Add(pattern, count+1)
}

// RecordSuperseded registers a query that was discarded because a newer
// one replaced it. Supersession is normal operation, tracked separately
// from delivered searches.
func (m *QueryMetrics) RecordSuperseded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.superseded++
}

// SnapshotNow returns a copy of the current metrics.
func (m *QueryMetrics) SnapshotNow() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	buckets := make(map[LatencyBucket]uint64, len(m.buckets))
	for k, v := range m.buckets {
		buckets[k] = v
	}
	top := make(map[string]int, m.patterns.Len())
	for _, key := range m.patterns.Keys() {
		if v, ok := m.patterns.Peek(key); ok {
			top[key] = v
		}
	}
	return Snapshot{
		Searches:    m.searches,
		ZeroResults: m.zeroResults,
		Superseded:  m.superseded,
		Buckets:     buckets,
		Recent:      m.recent.items(),
		TopPatterns: top,
	}
}

// normalizePattern folds a raw query into a pattern key: lowercased,
// with whitespace runs collapsed.
func normalizePattern(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// circularBuffer is a fixed-capacity FIFO of the most recent items.
type circularBuffer[T any] struct {
	buf  []T
	head int
	size int
}

func newCircularBuffer[T any](capacity int) *circularBuffer[T] {
	return &circularBuffer[T]{buf: make([]T, capacity)}
}

func (b *circularBuffer[T]) add(item T) {
	b.buf[b.head] = item
	b.head = (b.head + 1) % len(b.buf)
	if b.size < len(b.buf) {
		b.size++
	}
}

// items returns the buffered items oldest-first.
func (b *circularBuffer[T]) items() []T {
	out := make([]T, 0, b.size)
	start := (b.head - b.size + len(b.buf)) % len(b.buf)
	for i := 0; i < b.size; i++ {
		out = append(out, b.buf[(start+i)%len(b.buf)])
	}
	return out
}
