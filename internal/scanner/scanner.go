// Package scanner discovers markdown documents under a root directory.
// Results stream over a channel so indexing can start before the walk
// finishes; the CLI consumes the stream with a worker pool.
package scanner

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdlens/mdsearch/internal/errors"
)

// DefaultMaxFileSize caps individual documents at 10 MB. Anything larger
// is almost certainly not prose and would dominate the cache budget.
const DefaultMaxFileSize = 10 * 1024 * 1024

// skipDirs are directory names never descended into, regardless of the
// extension filter.
var skipDirs = map[string]struct{}{
	"node_modules": {},
	"vendor":       {},
	"dist":         {},
	"build":        {},
}

// Options configures a scan.
type Options struct {
	// Root is the directory to walk. Defaults to ".".
	Root string

	// Extensions are the file extensions to accept, each with a leading
	// dot. Matching is case-insensitive.
	Extensions []string

	// MaxFileSize skips files larger than this many bytes.
	// Defaults to DefaultMaxFileSize.
	MaxFileSize int64
}

// Result is one discovered document, or a per-file error. A non-nil Err
// never stops the scan; the walk continues past unreadable entries.
type Result struct {
	// Path is relative to the scan root and uses forward slashes. It
	// doubles as the document ID throughout the engine.
	Path string

	// AbsPath is the absolute filesystem path for reading the file.
	AbsPath string

	Size int64
	Err  error
}

// Scanner walks directory trees for markdown files.
type Scanner struct {
	logger *slog.Logger
}

// New creates a Scanner.
func New(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{logger: logger.With("component", "scanner")}
}

// Scan walks opts.Root and streams matching files. The returned channel
// is closed when the walk finishes or ctx is cancelled. Setup failures
// (missing root, root not a directory) are returned synchronously.
func (s *Scanner) Scan(ctx context.Context, opts Options) (<-chan Result, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(errors.CodeIO, err, "resolving scan root")
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, errors.Wrap(errors.CodeIO, err, "reading scan root")
	}
	if !info.IsDir() {
		return nil, errors.InvalidInput("scan root is not a directory: %s", absRoot)
	}

	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	exts := extensionSet(opts.Extensions)

	results := make(chan Result, 64)
	go func() {
		defer close(results)
		s.walk(ctx, absRoot, exts, maxSize, results)
	}()
	return results, nil
}

func (s *Scanner) walk(ctx context.Context, absRoot string, exts map[string]struct{}, maxSize int64, results chan<- Result) {
	err := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return filepath.SkipAll
		}
		if err != nil {
			s.logger.Warn("skipping unreadable entry", "path", path, "error", err)
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if path == absRoot {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if _, ok := exts[strings.ToLower(filepath.Ext(name))]; !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.emit(ctx, results, Result{Path: relTo(absRoot, path), AbsPath: path,
				Err: errors.Wrap(errors.CodeIO, err, "reading file info")})
			return nil
		}
		if info.Size() > maxSize {
			s.logger.Warn("skipping oversized file",
				"path", path, "size", info.Size(), "max", maxSize)
			return nil
		}

		s.emit(ctx, results, Result{
			Path:    relTo(absRoot, path),
			AbsPath: path,
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		s.logger.Warn("scan aborted", "root", absRoot, "error", err)
	}
}

func (s *Scanner) emit(ctx context.Context, results chan<- Result, r Result) {
	select {
	case results <- r:
	case <-ctx.Done():
	}
}

func extensionSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = []string{".md", ".markdown", ".mdx"}
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = struct{}{}
	}
	return set
}

func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
