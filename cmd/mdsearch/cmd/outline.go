package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/mdlens/mdsearch/internal/errors"
	"github.com/mdlens/mdsearch/internal/outline"
	"github.com/mdlens/mdsearch/internal/output"
)

func newOutlineCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "outline <file>",
		Short: "Print the heading tree of a markdown document",
		Long: `Extract ATX headings (#, ##, ...) from one document and print them
as a nested tree. Skipped heading levels nest under the closest
shallower heading; fenced code blocks are ignored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(errors.CodeIO, err, "reading document")
			}

			doc := outline.Extract(string(data))
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(doc.Items)
			}

			out := output.New(cmd.OutOrStdout())
			if len(doc.Items) == 0 {
				out.Statusf("", "No headings in %s", args[0])
				return nil
			}
			out.Tree(flatten(doc.Items, 0))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the outline as JSON")
	return cmd
}

// flatten converts the heading tree to printable rows, depth-first.
func flatten(items []outline.Item, depth int) []output.TreeLine {
	var lines []output.TreeLine
	for i, item := range items {
		lines = append(lines, output.TreeLine{
			Depth: depth,
			Last:  i == len(items)-1,
			Text:  item.Title,
		})
		lines = append(lines, flatten(item.Children, depth+1)...)
	}
	return lines
}
