package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/tocsmith/internal/config"
	"github.com/jackzampolin/tocsmith/internal/home"
	"github.com/jackzampolin/tocsmith/internal/output"
	"github.com/jackzampolin/tocsmith/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "tocsmith",
	Short: "Build tables of contents from PDF bookmarks",
	Long: `tocsmith turns the bookmark outline of every PDF in a directory into a
printable table of contents and a spreadsheet, and keeps a master ledger of
every entry seen across runs.

For each source document it writes:
  - <name>_TOC.pdf   paginated contents with dot leaders and page numbers
  - <name>_TOC.xlsx  one row per entry, built from the spreadsheet template
and appends all entries to MASTER_TOC.xlsx in the output directory.`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.tocsmith/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "tocsmith home directory (default: ~/.tocsmith)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn or error (default from config)",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return output.SetFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// env bundles what every command that touches the filesystem needs.
type env struct {
	home   *home.Dir
	config *config.Manager
	logger *slog.Logger
}

// loadEnv resolves the home directory, loads configuration and builds the logger.
// A config file in a custom --home is used when --config is not given.
func loadEnv() (*env, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}

	file := cfgFile
	if file == "" && homeDir != "" && h.ConfigExists() {
		file = h.ConfigPath()
	}
	mgr, err := config.NewManager(file)
	if err != nil {
		return nil, err
	}

	level := mgr.Get().SlogLevel()
	if logLevel != "" {
		if err := level.UnmarshalText([]byte(logLevel)); err != nil {
			return nil, fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
		}
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	if f := mgr.ConfigFile(); f != "" {
		logger.Debug("loaded config", "file", f)
	}

	return &env{home: h, config: mgr, logger: logger}, nil
}
