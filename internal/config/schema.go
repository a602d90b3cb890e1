package config

import "time"

// Config holds tocsmith configuration.
// Stored at: ~/.tocsmith/config.yaml or ./config.yaml
type Config struct {
	SourceExt    string `mapstructure:"source_ext" yaml:"source_ext"`       // Extension of source documents (.pdf or .json)
	Recursive    bool   `mapstructure:"recursive" yaml:"recursive"`         // Descend into subdirectories of the input
	DedupeLedger bool   `mapstructure:"dedupe_ledger" yaml:"dedupe_ledger"` // Skip ledger rows that already exist
	Workers      int    `mapstructure:"workers" yaml:"workers"`             // Documents processed concurrently
	Template     string `mapstructure:"template" yaml:"template"`           // xlsx template (supports ~ and ${ENV_VAR})
	Indent       string `mapstructure:"indent" yaml:"indent"`               // Title prefix per outline level in sheets
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`         // debug, info, warn or error

	Output OutputCfg `mapstructure:"output" yaml:"output"`
	Layout LayoutCfg `mapstructure:"layout" yaml:"layout"`
	Ledger LedgerCfg `mapstructure:"ledger" yaml:"ledger"`
}

// OutputCfg configures output file naming.
type OutputCfg struct {
	Suffix     string `mapstructure:"suffix" yaml:"suffix"`           // Appended to the document title
	LedgerName string `mapstructure:"ledger_name" yaml:"ledger_name"` // File name of the master ledger
}

// LayoutCfg configures the TOC PDF. Lengths are in millimetres, sizes in points.
type LayoutCfg struct {
	PageSize      string  `mapstructure:"page_size" yaml:"page_size"` // A4, A5, Letter or Legal
	Font          string  `mapstructure:"font" yaml:"font"`           // Helvetica, Times or Courier
	MarginLeft    float64 `mapstructure:"margin_left" yaml:"margin_left"`
	MarginRight   float64 `mapstructure:"margin_right" yaml:"margin_right"`
	MarginTop     float64 `mapstructure:"margin_top" yaml:"margin_top"`
	MarginBottom  float64 `mapstructure:"margin_bottom" yaml:"margin_bottom"`
	TitleSize     float64 `mapstructure:"title_size" yaml:"title_size"`
	Caption       string  `mapstructure:"caption" yaml:"caption"`
	CaptionSize   float64 `mapstructure:"caption_size" yaml:"caption_size"`
	EntrySize     float64 `mapstructure:"entry_size" yaml:"entry_size"`
	LineHeight    float64 `mapstructure:"line_height" yaml:"line_height"`
	Indent        float64 `mapstructure:"indent" yaml:"indent"`
	Gutter        float64 `mapstructure:"gutter" yaml:"gutter"`
	TitleGap      float64 `mapstructure:"title_gap" yaml:"title_gap"`
	CaptionGap    float64 `mapstructure:"caption_gap" yaml:"caption_gap"`
	MinTitleRunes int     `mapstructure:"min_title_runes" yaml:"min_title_runes"` // Truncation never goes below this
}

// LedgerCfg configures the master ledger merge.
type LedgerCfg struct {
	ScanLimit    int           `mapstructure:"scan_limit" yaml:"scan_limit"`       // Rows searched past the last used row
	SaveAttempts uint          `mapstructure:"save_attempts" yaml:"save_attempts"` // Tries when the file is locked
	SaveDelay    time.Duration `mapstructure:"save_delay" yaml:"save_delay"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SourceExt:    ".pdf",
		Recursive:    false,
		DedupeLedger: true,
		Workers:      1,
		Indent:       "    ",
		LogLevel:     "info",
		Output: OutputCfg{
			Suffix:     "_TOC",
			LedgerName: "MASTER_TOC.xlsx",
		},
		Layout: LayoutCfg{
			PageSize:      "A4",
			Font:          "Helvetica",
			MarginLeft:    25,
			MarginRight:   25,
			MarginTop:     25,
			MarginBottom:  20,
			TitleSize:     18,
			Caption:       "Table of Contents (from PDF bookmarks)",
			CaptionSize:   11,
			EntrySize:     12,
			LineHeight:    7,
			Indent:        8,
			Gutter:        12,
			TitleGap:      20,
			CaptionGap:    10,
			MinTitleRunes: 6,
		},
		Ledger: LedgerCfg{
			ScanLimit:    20000,
			SaveAttempts: 3,
			SaveDelay:    500 * time.Millisecond,
		},
	}
}
