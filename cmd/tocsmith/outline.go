package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/tocsmith/internal/outline"
	"github.com/jackzampolin/tocsmith/internal/output"
)

var outlineCmd = &cobra.Command{
	Use:   "outline <file>",
	Short: "Print the flattened outline of one document",
	Long: `Print the entries tocsmith would extract from one PDF or JSON outline,
as level, title and page (0 when the page is unknown).

Examples:
  tocsmith outline book.pdf
  tocsmith outline book.pdf -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := outline.NewRegistry().Extract(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if entries == nil {
			entries = []outline.Entry{}
		}
		return output.Print(entries)
	},
}

func init() {
	rootCmd.AddCommand(outlineCmd)
}
