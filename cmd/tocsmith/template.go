package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/tocsmith/internal/home"
	"github.com/jackzampolin/tocsmith/internal/output"
	"github.com/jackzampolin/tocsmith/internal/sheet"
)

var templateForce bool

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Spreadsheet template commands",
}

var templateInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default spreadsheet template",
	Long: `Write a styled spreadsheet template with the header row
"Document | Entry | Page". Without a path it goes to ~/.tocsmith/template.xlsx,
where run and watch look for it by default.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}

		path := h.TemplatePath()
		if len(args) == 1 {
			path = args[0]
		} else if err := h.EnsureExists(); err != nil {
			return err
		}

		if _, err := os.Stat(path); err == nil && !templateForce {
			return fmt.Errorf("template already exists at %s (use --force to overwrite)", path)
		}
		if err := sheet.CreateTemplate(path); err != nil {
			return err
		}
		return output.Print(map[string]string{"template": path})
	},
}

func init() {
	templateInitCmd.Flags().BoolVarP(&templateForce, "force", "f", false, "overwrite an existing template")
	templateCmd.AddCommand(templateInitCmd)
	rootCmd.AddCommand(templateCmd)
}
