package cmd

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mdlens/mdsearch/internal/coordinator"
	"github.com/mdlens/mdsearch/internal/output"
	"github.com/mdlens/mdsearch/internal/query"
	"github.com/mdlens/mdsearch/internal/telemetry"
	"github.com/mdlens/mdsearch/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a directory and serve interactive queries",
		Long: `Index the markdown under --path, keep the index current as files
change, and read queries from stdin (one per line). Empty input quits.

Queries are debounced and superseded like an editor search box: only
the latest query's results are printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd, path)
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", ".", "Directory to watch")
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := telemetry.NewQueryMetrics(64, 256)
	coord, err := coordinator.New(cfg.Engine, slog.Default(), coordinator.WithMetrics(metrics))
	if err != nil {
		return err
	}
	defer coord.Close()

	out := output.New(cmd.OutOrStdout())
	indexed, err := buildIndex(ctx, coord, cfg, path)
	if err != nil {
		return err
	}
	out.Statusf("📚", "Indexed %d documents under %s", indexed, path)

	w, err := watcher.New(cfg.Watcher, slog.Default())
	if err != nil {
		return err
	}
	go func() {
		if err := w.Run(ctx, path); err != nil && ctx.Err() == nil {
			slog.Error("watcher stopped", "error", err)
		}
	}()
	defer w.Stop()

	go applyEvents(ctx, coord, w, path)

	out.Status("", "Type a query and press enter (empty line quits):")
	return queryLoop(ctx, coord, cmd, out)
}

// applyEvents keeps the index in sync with filesystem changes.
func applyEvents(ctx context.Context, coord *coordinator.Coordinator, w *watcher.Watcher, root string) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-w.Events():
			if !ok {
				return
			}
			for _, e := range batch {
				switch e.Operation {
				case watcher.OpDelete:
					coord.Remove(e.Path)
				default:
					data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(e.Path)))
					if err != nil {
						slog.Warn("skipping changed file", "path", e.Path, "error", err)
						continue
					}
					coord.Index(e.Path, string(data))
				}
				slog.Debug("applied change", "path", e.Path, "op", e.Operation.String())
			}
		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			slog.Warn("watch error", "error", err)
		}
	}
}

// queryLoop reads queries from stdin until EOF or an empty line.
func queryLoop(ctx context.Context, coord *coordinator.Coordinator, cmd *cobra.Command, out *output.Writer) error {
	lines := bufio.NewScanner(cmd.InOrStdin())
	for lines.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		rawQuery := strings.TrimSpace(lines.Text())
		if rawQuery == "" {
			return nil
		}

		results, ok := <-coord.Search(ctx, rawQuery, query.Options{})
		if !ok {
			continue
		}
		if err := printResults(out, rawQuery, results); err != nil {
			return err
		}
	}
	return lines.Err()
}
