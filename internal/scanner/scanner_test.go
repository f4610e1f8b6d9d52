package scanner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile creates a file with parent directories.
func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// collect drains a scan into a path->Result map.
func collect(t *testing.T, ch <-chan Result) map[string]Result {
	t.Helper()
	out := map[string]Result{}
	for r := range ch {
		out[r.Path] = r
	}
	return out
}

func TestScan_FindsMarkdownRecursively(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "readme.md", "# hi")
	writeFile(t, root, "docs/guide.markdown", "# guide")
	writeFile(t, root, "docs/deep/notes.mdx", "# notes")
	writeFile(t, root, "main.go", "package main")

	ch, err := New(nil).Scan(context.Background(), Options{Root: root})
	require.NoError(t, err)

	got := collect(t, ch)
	assert.Len(t, got, 3)
	assert.Contains(t, got, "readme.md")
	assert.Contains(t, got, "docs/guide.markdown")
	assert.Contains(t, got, "docs/deep/notes.mdx")
}

func TestScan_SkipsHiddenAndVendorDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.md", "x")
	writeFile(t, root, ".git/ignored.md", "x")
	writeFile(t, root, ".cache/ignored.md", "x")
	writeFile(t, root, "node_modules/pkg/readme.md", "x")
	writeFile(t, root, "vendor/lib/doc.md", "x")

	ch, err := New(nil).Scan(context.Background(), Options{Root: root})
	require.NoError(t, err)

	got := collect(t, ch)
	require.Len(t, got, 1)
	assert.Contains(t, got, "keep.md")
}

func TestScan_ExtensionFilterCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "upper.MD", "x")
	writeFile(t, root, "note.txt", "x")

	ch, err := New(nil).Scan(context.Background(), Options{
		Root:       root,
		Extensions: []string{"md", ".txt"},
	})
	require.NoError(t, err)

	got := collect(t, ch)
	assert.Len(t, got, 2)
	assert.Contains(t, got, "upper.MD")
	assert.Contains(t, got, "note.txt")
}

func TestScan_SkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "small.md", "tiny")
	writeFile(t, root, "big.md", strings.Repeat("a", 2048))

	ch, err := New(nil).Scan(context.Background(), Options{Root: root, MaxFileSize: 1024})
	require.NoError(t, err)

	got := collect(t, ch)
	require.Len(t, got, 1)
	assert.Contains(t, got, "small.md")
	assert.Equal(t, int64(4), got["small.md"].Size)
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := New(nil).Scan(context.Background(), Options{Root: "/does/not/exist"})
	assert.Error(t, err)
}

func TestScan_RootIsFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "file.md", "x")

	_, err := New(nil).Scan(context.Background(), Options{Root: filepath.Join(root, "file.md")})
	assert.Error(t, err)
}

func TestScan_ContextCancellation(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 200; i++ {
		writeFile(t, root, filepath.Join("d", "f"+strings.Repeat("x", i%10)+".md"), "x")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch, err := New(nil).Scan(ctx, Options{Root: root})
	require.NoError(t, err)

	// Channel must still close promptly.
	got := collect(t, ch)
	assert.LessOrEqual(t, len(got), 200)
}

func TestScan_PathsUseForwardSlashes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/b/c.md", "x")

	ch, err := New(nil).Scan(context.Background(), Options{Root: root})
	require.NoError(t, err)

	got := collect(t, ch)
	require.Contains(t, got, "a/b/c.md")
	assert.NotContains(t, got["a/b/c.md"].Path, "\\")
	assert.True(t, filepath.IsAbs(got["a/b/c.md"].AbsPath))
}
