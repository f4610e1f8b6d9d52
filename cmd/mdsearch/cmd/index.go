package cmd

import (
	"context"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/mdlens/mdsearch/internal/config"
	"github.com/mdlens/mdsearch/internal/coordinator"
	"github.com/mdlens/mdsearch/internal/scanner"
)

// buildIndex scans root for markdown and indexes everything into a fresh
// coordinator. Reads run on a bounded worker pool; unreadable files are
// logged and skipped rather than failing the run.
func buildIndex(ctx context.Context, coord *coordinator.Coordinator, cfg *config.Config, root string) (int, error) {
	results, err := scanner.New(slog.Default()).Scan(ctx, scanner.Options{
		Root:       root,
		Extensions: cfg.Watcher.Extensions,
	})
	if err != nil {
		return 0, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	indexed := 0
	done := make(chan int, 1)
	counts := make(chan struct{}, 64)
	go func() {
		n := 0
		for range counts {
			n++
		}
		done <- n
	}()

	for r := range results {
		if ctx.Err() != nil {
			break
		}
		if r.Err != nil {
			slog.Warn("skipping file", "path", r.Path, "error", r.Err)
			continue
		}
		r := r
		g.Go(func() error {
			data, err := os.ReadFile(r.AbsPath)
			if err != nil {
				slog.Warn("skipping unreadable file", "path", r.Path, "error", err)
				return nil
			}
			coord.Index(r.Path, string(data))
			counts <- struct{}{}
			return nil
		})
	}

	err = g.Wait()
	close(counts)
	indexed = <-done
	return indexed, err
}
