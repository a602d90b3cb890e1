package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/tocsmith/internal/batch"
	"github.com/jackzampolin/tocsmith/internal/config"
	"github.com/jackzampolin/tocsmith/internal/watch"
)

var (
	watchFlags    batchFlags
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <input-dir> [output-dir]",
	Short: "Rebuild tables of contents whenever new documents appear",
	Long: `Run a batch, then keep watching input-dir and run again shortly after
matching source documents are created or rewritten.

Ledger dedupe keeps repeated runs idempotent. Changes to the config file are
picked up for the next run. Stop with Ctrl+C.

Examples:
  tocsmith watch ./inbox ./toc
  tocsmith watch ./inbox ./toc -r --debounce 5s`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}

		// Validate once up front so a bad layout or directory fails fast.
		req, err := watchFlags.request(cmd, e, args)
		if err != nil {
			return err
		}

		e.config.OnChange(func(*config.Config) {
			e.logger.Info("config reloaded; applies from the next run")
		})
		e.config.WatchConfig()

		w, err := watch.New(watch.Config{
			Dir:        req.InputDir,
			Recursive:  req.Recursive,
			SourceExt:  req.SourceExt,
			SkipSuffix: req.Suffix,
			Debounce:   watchDebounce,
			Logger:     e.logger,
			Run: func(ctx context.Context) error {
				req, err := watchFlags.request(cmd, e, args)
				if err != nil {
					return err
				}
				result, err := batch.Run(ctx, req)
				if err != nil {
					return explain(err)
				}
				e.logger.Info("run summary",
					"run_id", result.RunID,
					"succeeded", result.Succeeded,
					"failed", result.Failed,
					"skipped", result.Skipped)
				return nil
			},
		})
		if err != nil {
			return err
		}
		return w.Run(cmd.Context())
	},
}

func init() {
	watchFlags.register(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a run")
	rootCmd.AddCommand(watchCmd)
}
