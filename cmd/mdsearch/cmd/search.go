package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mdlens/mdsearch/internal/coordinator"
	"github.com/mdlens/mdsearch/internal/output"
	"github.com/mdlens/mdsearch/internal/query"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	path   string
	scope  string
	limit  int
	asJSON bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search markdown documents under a directory",
		Long: `Index the markdown under --path, run one query, and print ranked
matches. The final query word matches as a prefix unless followed by a
space, so in-progress words still find their completions.

Examples:
  mdsearch search "error handling"
  mdsearch search "install" --path ./docs --limit 5
  mdsearch search "config" --scope docs/setup.md --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.path, "path", "p", ".", "Directory to search")
	cmd.Flags().StringVarP(&opts.scope, "scope", "s", "", "Restrict matches to one document (relative path)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Emit results as JSON")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, rawQuery string, opts searchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// One-shot queries have no typing to wait out.
	cfg.Engine.DebounceDelay = 0

	coord, err := coordinator.New(cfg.Engine, slog.Default())
	if err != nil {
		return err
	}
	defer coord.Close()

	indexed, err := buildIndex(ctx, coord, cfg, opts.path)
	if err != nil {
		return err
	}
	slog.Info("index built", "documents", indexed)

	results, ok := <-coord.Search(ctx, rawQuery, query.Options{
		Scope: opts.scope,
		Limit: opts.limit,
	})
	if !ok {
		return ctx.Err()
	}

	if opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if results == nil {
			results = []query.Result{}
		}
		return enc.Encode(results)
	}
	return printResults(output.New(cmd.OutOrStdout()), rawQuery, results)
}

func printResults(out *output.Writer, rawQuery string, results []query.Result) error {
	if len(results) == 0 {
		out.Statusf("", "No results found for %q", rawQuery)
		return nil
	}

	out.Statusf("🔍", "Found %d results for %q:", len(results), rawQuery)
	out.Newline()

	for i, r := range results {
		location := fmt.Sprintf("%s:%d:%d", r.DocumentID, r.Line, r.Column)
		out.Statusf("", "%d. %s (%s, score: %.1f)", i+1, location, r.MatchTypeName, r.Score)
		if r.HeadingContext != "" {
			out.Indentf("under: %s", r.HeadingContext)
		}
		out.Indent(r.Snippet)
		out.Newline()
	}
	return nil
}
