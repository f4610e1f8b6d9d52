package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(path string, op Operation) FileEvent {
	return FileEvent{Path: path, Operation: op, Timestamp: time.Now()}
}

// waitBatch waits for one batch with a test timeout.
func waitBatch(t *testing.T, d *Debouncer) []FileEvent {
	t.Helper()
	select {
	case batch := <-d.Output():
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for debounced batch")
		return nil
	}
}

func TestDebouncer_EmitsAfterWindow(t *testing.T) {
	d := NewDebouncer(20*time.Millisecond, nil)
	defer d.Stop()

	d.Add(event("a.md", OpModify))

	batch := waitBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, "a.md", batch[0].Path)
	assert.Equal(t, OpModify, batch[0].Operation)
}

func TestDebouncer_CoalescesSaveStorm(t *testing.T) {
	d := NewDebouncer(30*time.Millisecond, nil)
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Add(event("a.md", OpModify))
	}

	batch := waitBatch(t, d)
	assert.Len(t, batch, 1)
}

func TestDebouncer_CreateThenModifyIsCreate(t *testing.T) {
	d := NewDebouncer(20*time.Millisecond, nil)
	defer d.Stop()

	d.Add(event("a.md", OpCreate))
	d.Add(event("a.md", OpModify))

	batch := waitBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, OpCreate, batch[0].Operation)
}

func TestDebouncer_CreateThenDeleteCancels(t *testing.T) {
	d := NewDebouncer(20*time.Millisecond, nil)
	defer d.Stop()

	d.Add(event("ghost.md", OpCreate))
	d.Add(event("ghost.md", OpDelete))
	d.Add(event("real.md", OpModify))

	batch := waitBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, "real.md", batch[0].Path)
}

func TestDebouncer_ModifyThenDeleteIsDelete(t *testing.T) {
	d := NewDebouncer(20*time.Millisecond, nil)
	defer d.Stop()

	d.Add(event("a.md", OpModify))
	d.Add(event("a.md", OpDelete))

	batch := waitBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, OpDelete, batch[0].Operation)
}

func TestDebouncer_DeleteThenCreateIsModify(t *testing.T) {
	d := NewDebouncer(20*time.Millisecond, nil)
	defer d.Stop()

	d.Add(event("a.md", OpDelete))
	d.Add(event("a.md", OpCreate))

	batch := waitBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, OpModify, batch[0].Operation)
}

func TestDebouncer_DistinctPathsStaySeparate(t *testing.T) {
	d := NewDebouncer(20*time.Millisecond, nil)
	defer d.Stop()

	d.Add(event("a.md", OpModify))
	d.Add(event("b.md", OpDelete))

	batch := waitBatch(t, d)
	assert.Len(t, batch, 2)
}

func TestDebouncer_StopIsIdempotent(t *testing.T) {
	d := NewDebouncer(20*time.Millisecond, nil)
	d.Add(event("a.md", OpModify))
	d.Stop()
	d.Stop()

	// Adds after stop are dropped silently.
	d.Add(event("b.md", OpModify))

	_, open := <-d.Output()
	assert.False(t, open, "output closed after stop")
}
