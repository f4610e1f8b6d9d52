package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdlens/mdsearch/internal/config"
)

func newTestWatcher(t *testing.T) (*Watcher, string) {
	t.Helper()
	cfg := config.Default().Watcher
	cfg.DebounceWindow = 50 * time.Millisecond

	w, err := New(cfg, nil)
	require.NoError(t, err)

	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = w.Run(ctx, root) }()
	t.Cleanup(w.Stop)

	// Give the recursive watch registration a moment to settle.
	time.Sleep(100 * time.Millisecond)
	return w, root
}

// nextBatch waits for one event batch.
func nextBatch(t *testing.T, w *Watcher) []FileEvent {
	t.Helper()
	select {
	case batch := <-w.Events():
		return batch
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watcher events")
		return nil
	}
}

func TestWatcher_ReportsMarkdownCreation(t *testing.T) {
	w, root := newTestWatcher(t)

	require.NoError(t, os.WriteFile(filepath.Join(root, "new.md"), []byte("# hi"), 0o644))

	batch := nextBatch(t, w)
	require.NotEmpty(t, batch)
	assert.Equal(t, "new.md", batch[0].Path)
}

func TestWatcher_IgnoresOtherExtensions(t *testing.T) {
	w, root := newTestWatcher(t)

	require.NoError(t, os.WriteFile(filepath.Join(root, "code.go"), []byte("package x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "doc.md"), []byte("# doc"), 0o644))

	batch := nextBatch(t, w)
	for _, e := range batch {
		assert.Equal(t, "doc.md", e.Path)
	}
}

func TestWatcher_ReportsDeletion(t *testing.T) {
	w, root := newTestWatcher(t)

	path := filepath.Join(root, "gone.md")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	batch := nextBatch(t, w)
	require.NotEmpty(t, batch)

	require.NoError(t, os.Remove(path))
	batch = nextBatch(t, w)
	require.NotEmpty(t, batch)
	assert.Equal(t, OpDelete, batch[0].Operation)
}

func TestWatcher_StopWhileForwarding(t *testing.T) {
	cfg := config.Default().Watcher
	cfg.DebounceWindow = time.Millisecond
	w, err := New(cfg, nil)
	require.NoError(t, err)

	// No consumer: the forwarder is kept busy moving batches while Stop
	// lands from another goroutine.
	w.startForward(context.Background())

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			w.deb.Add(event(fmt.Sprintf("f%04d.md", i), OpModify))
			time.Sleep(2 * time.Millisecond)
		}
	}()

	time.Sleep(20 * time.Millisecond)
	w.Stop()
	close(stop)
	wg.Wait()

	// Stop returns only after the forwarder exits, so the channel is
	// closed and draining it terminates.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-w.Events():
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("events channel never closed after Stop")
		}
	}
}

func TestWatcher_FullBufferBlocksInsteadOfDropping(t *testing.T) {
	cfg := config.Default().Watcher
	cfg.DebounceWindow = time.Millisecond
	w, err := New(cfg, nil)
	require.NoError(t, err)
	defer w.Stop()

	w.startForward(context.Background())

	// More distinct paths than the events buffer holds, delivered with
	// nothing consuming: the overflow must wait, not vanish.
	const total = 70
	for i := 0; i < total; i++ {
		w.deb.Add(event(fmt.Sprintf("f%02d.md", i), OpModify))
		time.Sleep(3 * time.Millisecond)
	}

	seen := map[string]bool{}
	deadline := time.After(5 * time.Second)
	for len(seen) < total {
		select {
		case batch := <-w.Events():
			for _, e := range batch {
				seen[e.Path] = true
			}
		case <-deadline:
			t.Fatalf("lost events: saw %d of %d paths", len(seen), total)
		}
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	cfg := config.Default().Watcher
	w, err := New(cfg, nil)
	require.NoError(t, err)

	w.Stop()
	w.Stop()

	_, open := <-w.Events()
	assert.False(t, open)
}

func TestOperation_String(t *testing.T) {
	assert.Equal(t, "CREATE", OpCreate.String())
	assert.Equal(t, "MODIFY", OpModify.String())
	assert.Equal(t, "DELETE", OpDelete.String())
	assert.Equal(t, "RENAME", OpRename.String())
	assert.Equal(t, "UNKNOWN", Operation(42).String())
}
