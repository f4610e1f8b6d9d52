package cache

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdlens/mdsearch/internal/errors"
)

func newCache(t *testing.T, budget int64) *DocumentCache {
	t.Helper()
	c, err := New(budget, 128, nil)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsInvalidBudget(t *testing.T) {
	_, err := New(0, 10, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.New(errors.CodeInvalidInput, ""))

	_, err = New(-5, 10, nil)
	assert.Error(t, err)

	_, err = New(100, 0, nil)
	assert.Error(t, err)
}

func TestPutGet(t *testing.T) {
	c := newCache(t, 1024)
	c.Put("a", "hello world")

	text, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "hello world", text)
	assert.Equal(t, int64(len("hello world")), c.BytesUsed())

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestPut_ReplaceAccountsBytesOnce(t *testing.T) {
	c := newCache(t, 1024)
	c.Put("a", strings.Repeat("x", 100))
	c.Put("a", strings.Repeat("y", 40))

	assert.Equal(t, int64(40), c.BytesUsed())
	assert.Equal(t, 1, c.Len())
	text, _ := c.Get("a")
	assert.Equal(t, strings.Repeat("y", 40), text)
}

func TestPut_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newCache(t, 100)
	c.Put("a", strings.Repeat("a", 40))
	c.Put("b", strings.Repeat("b", 40))

	// Touch a so b becomes the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", strings.Repeat("c", 40))

	assert.True(t, c.Contains("a"))
	assert.False(t, c.Contains("b"), "least recently used entry is evicted")
	assert.True(t, c.Contains("c"))
	assert.LessOrEqual(t, c.BytesUsed(), int64(100))
}

func TestPut_NeverEvictsJustInserted(t *testing.T) {
	c := newCache(t, 100)
	c.Put("a", strings.Repeat("a", 60))
	c.Put("b", strings.Repeat("b", 90))

	assert.True(t, c.Contains("b"), "fresh write survives")
	assert.False(t, c.Contains("a"))
}

func TestPut_OversizedDocumentNotCached(t *testing.T) {
	c := newCache(t, 50)
	c.Put("small", strings.Repeat("s", 30))
	c.Put("huge", strings.Repeat("h", 51))

	assert.False(t, c.Contains("huge"))
	assert.True(t, c.Contains("small"), "existing entries untouched")
	assert.LessOrEqual(t, c.BytesUsed(), int64(50))
}

func TestBudgetInvariant_RandomishWorkload(t *testing.T) {
	const budget = 1000
	c := newCache(t, budget)

	for i := 0; i < 200; i++ {
		id := fmt.Sprintf("doc-%d", i%37)
		c.Put(id, strings.Repeat("t", 10+(i*13)%300))
		require.LessOrEqual(t, c.BytesUsed(), int64(budget),
			"budget invariant must hold after every put")
	}
	assert.Positive(t, c.Evictions())
}

func TestRemove(t *testing.T) {
	c := newCache(t, 1024)
	c.Put("a", "text")
	c.Remove("a")

	assert.False(t, c.Contains("a"))
	assert.Zero(t, c.BytesUsed())

	// Removing again is a no-op.
	c.Remove("a")
	assert.Zero(t, c.BytesUsed())
}

func TestGet_RefreshesRecency(t *testing.T) {
	c := newCache(t, 90)
	c.Put("a", strings.Repeat("a", 30))
	c.Put("b", strings.Repeat("b", 30))
	c.Put("c", strings.Repeat("c", 30))

	// a is oldest; touching it promotes it past b.
	_, _ = c.Get("a")
	c.Put("d", strings.Repeat("d", 30))

	assert.True(t, c.Contains("a"))
	assert.False(t, c.Contains("b"))
}
