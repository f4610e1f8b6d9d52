package cmd

import (
	"encoding/json"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mdlens/mdsearch/internal/coordinator"
	"github.com/mdlens/mdsearch/internal/output"
)

func newStatsCmd() *cobra.Command {
	var (
		path   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Index a directory and report engine statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			coord, err := coordinator.New(cfg.Engine, slog.Default())
			if err != nil {
				return err
			}
			defer coord.Close()

			if _, err := buildIndex(cmd.Context(), coord, cfg, path); err != nil {
				return err
			}
			stats := coord.Statistics()

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			out := output.New(cmd.OutOrStdout())
			out.Statusf("📊", "Index statistics for %s", path)
			out.Indentf("documents indexed: %d", stats.DocumentsIndexed)
			out.Indentf("distinct terms:    %d", stats.DistinctTerms)
			out.Indentf("cache used:        %d / %d bytes", stats.CacheBytesUsed, stats.CacheBudgetBytes)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", ".", "Directory to index")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit statistics as JSON")
	return cmd
}
