package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/tocsmith/internal/batch"
	"github.com/jackzampolin/tocsmith/internal/config"
	"github.com/jackzampolin/tocsmith/internal/output"
)

// batchFlags override configuration for a single invocation.
type batchFlags struct {
	recursive bool
	dedupe    bool
	workers   int
	template  string
	ext       string
}

func (f *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&f.recursive, "recursive", "r", false, "descend into subdirectories (default from config)")
	cmd.Flags().BoolVar(&f.dedupe, "dedupe", true, "skip entries already in the master ledger (default from config)")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 1, "documents processed concurrently (default from config)")
	cmd.Flags().StringVar(&f.template, "template", "", "spreadsheet template (default: ~/.tocsmith/template.xlsx)")
	cmd.Flags().StringVar(&f.ext, "ext", "", "source file extension, .pdf or .json (default from config)")
}

// apply copies explicitly set flags over cfg.
func (f *batchFlags) apply(cmd *cobra.Command, cfg config.Config) config.Config {
	if cmd.Flags().Changed("recursive") {
		cfg.Recursive = f.recursive
	}
	if cmd.Flags().Changed("dedupe") {
		cfg.DedupeLedger = f.dedupe
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = f.workers
	}
	if cmd.Flags().Changed("template") {
		cfg.Template = f.template
	}
	if cmd.Flags().Changed("ext") {
		cfg.SourceExt = f.ext
	}
	return cfg
}

// request builds the batch request from current config plus flags.
func (f *batchFlags) request(cmd *cobra.Command, e *env, args []string) (batch.Request, error) {
	in, out := dirArgs(args)
	cfg := f.apply(cmd, *e.config.Get())
	return cfg.BatchRequest(in, out, e.home.TemplatePath(), e.logger)
}

// dirArgs returns the input directory and the output directory, which
// defaults to the input directory.
func dirArgs(args []string) (in, out string) {
	in = args[0]
	out = in
	if len(args) > 1 {
		out = args[1]
	}
	return in, out
}

// explain adds a hint to errors the user can fix directly.
func explain(err error) error {
	if errors.Is(err, batch.ErrTemplateMissing) {
		return fmt.Errorf("%w (create one with: tocsmith template init)", err)
	}
	return err
}

var runFlags batchFlags

var runCmd = &cobra.Command{
	Use:   "run <input-dir> [output-dir]",
	Short: "Build tables of contents for every document in a directory",
	Long: `Build a table-of-contents PDF and spreadsheet for each source document in
input-dir and merge all entries into the master ledger in output-dir.

Documents without an outline are skipped; unreadable documents are counted as
failures and never stop the batch. output-dir defaults to input-dir.

Examples:
  tocsmith run ./books                     # outputs next to the sources
  tocsmith run ./books ./toc -r            # include subdirectories
  tocsmith run ./books ./toc --dedupe=false
  tocsmith run ./outlines ./toc --ext .json -o json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}

		req, err := runFlags.request(cmd, e, args)
		if err != nil {
			return err
		}

		result, err := batch.Run(cmd.Context(), req)
		if result != nil {
			if perr := output.Print(result); perr != nil {
				return perr
			}
		}
		return explain(err)
	},
}

func init() {
	runFlags.register(runCmd)
	rootCmd.AddCommand(runCmd)
}
