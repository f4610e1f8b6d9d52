// Package watcher tails a directory tree for markdown changes and feeds
// the coordinator with coalesced reindex work. fsnotify supplies the raw
// inotify-style events; the debouncer turns editor save storms into one
// event per document.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mdlens/mdsearch/internal/config"
	"github.com/mdlens/mdsearch/internal/errors"
)

// Operation classifies a file system change.
type Operation int

const (
	OpCreate Operation = iota
	OpModify
	OpDelete
	OpRename
)

// String returns the wire name of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is one observed change to a watched document.
type FileEvent struct {
	// Path is relative to the watch root with forward slashes; it is
	// the document ID the coordinator knows the file by.
	Path      string
	Operation Operation
	Timestamp time.Time
}

// Watcher watches a directory tree recursively for markdown changes.
type Watcher struct {
	cfg    config.WatcherConfig
	logger *slog.Logger

	fs   *fsnotify.Watcher
	deb  *Debouncer
	exts map[string]struct{}

	events chan []FileEvent
	errs   chan error
	stopCh chan struct{}

	// running tracks every goroutine that sends on events or errs.
	// Stop waits it out before closing the channels, so a producer can
	// never send on a closed channel.
	running sync.WaitGroup

	mu      sync.Mutex
	root    string
	stopped bool
}

// New creates a Watcher. Run starts it.
func New(cfg config.WatcherConfig, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "watcher")

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.CodeIO, err, "creating fsnotify watcher")
	}

	exts := make(map[string]struct{}, len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}

	return &Watcher{
		cfg:    cfg,
		logger: logger,
		fs:     fsw,
		deb:    NewDebouncer(cfg.DebounceWindow, logger),
		exts:   exts,
		events: make(chan []FileEvent, 64),
		errs:   make(chan error, 10),
		stopCh: make(chan struct{}),
	}, nil
}

// Run watches root until ctx is cancelled or Stop is called. It blocks;
// callers consume Events and Errors from other goroutines and must call
// Stop to release resources and close the channels.
func (w *Watcher) Run(ctx context.Context, root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return errors.Wrap(errors.CodeIO, err, "resolving watch root")
	}
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.root = absRoot
	w.running.Add(1)
	w.mu.Unlock()
	defer w.running.Done()

	if err := w.addRecursive(absRoot); err != nil {
		return errors.Wrap(errors.CodeIO, err, "watching directory tree")
	}
	w.logger.Info("watching", "root", absRoot, "debounce", w.cfg.DebounceWindow)

	w.startForward(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

// handle converts one fsnotify event, filters it, and queues it for
// debouncing.
func (w *Watcher) handle(event fsnotify.Event) {
	w.mu.Lock()
	root := w.root
	w.mu.Unlock()

	relPath, err := filepath.Rel(root, event.Name)
	if err != nil {
		relPath = event.Name
	}
	relPath = filepath.ToSlash(relPath)

	// New directories must be added to the watch before filtering by
	// extension; their contents arrive as later events.
	if event.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
			if !w.ignoredDir(filepath.Base(event.Name)) {
				_ = w.fs.Add(event.Name)
			}
			return
		}
	}

	if _, ok := w.exts[strings.ToLower(filepath.Ext(relPath))]; !ok {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		// A rename leaves the old path dangling; the new path shows up
		// as a separate CREATE.
		op = OpDelete
	default:
		return
	}

	w.deb.Add(FileEvent{Path: relPath, Operation: op, Timestamp: time.Now()})
}

// startForward launches the forwarding goroutine, registered with
// running so Stop waits for it before closing the channels.
func (w *Watcher) startForward(ctx context.Context) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.running.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.running.Done()
		w.forward(ctx)
	}()
}

// forward moves debounced batches to the public events channel. A full
// buffer blocks here instead of dropping: losing a batch would desync
// the index from disk until those files change again, and the consumer
// is a dedicated goroutine, so backpressure is safe.
func (w *Watcher) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case batch, ok := <-w.deb.Output():
			if !ok {
				return
			}
			if len(batch) == 0 {
				continue
			}
			select {
			case w.events <- batch:
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			}
		}
	}
}

// addRecursive registers every non-ignored directory under root.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignoredDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

func (w *Watcher) ignoredDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	switch name {
	case "node_modules", "vendor", "dist", "build":
		return true
	}
	return false
}

func (w *Watcher) emitError(err error) {
	select {
	case w.errs <- err:
	default:
	}
}

// Events returns the channel of debounced event batches. Closed when
// Stop completes.
func (w *Watcher) Events() <-chan []FileEvent {
	return w.events
}

// Errors returns non-fatal watcher errors. Closed when Stop completes.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Stop shuts the watcher down and closes its channels. Idempotent and
// safe to call from any goroutine while Run is looping.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.stopCh)
	w.mu.Unlock()

	w.deb.Stop()
	_ = w.fs.Close()

	// Every producer observes stopCh (or the closed fsnotify channels)
	// and exits; only then is closing the outputs safe.
	w.running.Wait()
	close(w.events)
	close(w.errs)
}
