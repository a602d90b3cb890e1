package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/tocsmith/internal/config"
	"github.com/jackzampolin/tocsmith/internal/output"
	"github.com/jackzampolin/tocsmith/internal/sheet"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Master ledger commands",
}

var ledgerShowCmd = &cobra.Command{
	Use:   "show [output-dir]",
	Short: "Print every row stored in the master ledger",
	Long: `Print the document, title and page of every non-blank row in the master
ledger of an output directory (default: the current directory).

Examples:
  tocsmith ledger show ./out
  tocsmith ledger show ./out -o yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}

		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		rows, err := readLedger(ledgerPath(dir, e.config.Get()))
		if err != nil {
			return err
		}
		return output.Print(rows)
	},
}

// readLedger returns the stored rows of the ledger at path, never nil.
func readLedger(path string) ([]sheet.Row, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no ledger at %s: %w", path, err)
	}
	rows, err := (&sheet.Ledger{Path: path}).Rows()
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []sheet.Row{}
	}
	return rows, nil
}

// ledgerPath joins dir with the configured ledger file name.
func ledgerPath(dir string, cfg *config.Config) string {
	name := cfg.Output.LedgerName
	if name == "" {
		name = config.DefaultConfig().Output.LedgerName
	}
	return filepath.Join(dir, name)
}

func init() {
	ledgerCmd.AddCommand(ledgerShowCmd)
	rootCmd.AddCommand(ledgerCmd)
}
