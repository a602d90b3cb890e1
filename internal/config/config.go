package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/tocsmith/internal/batch"
	"github.com/jackzampolin/tocsmith/internal/layout"
)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v         *viper.Viper
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
// With an empty cfgFile, config.yaml is looked up in the working directory
// and then in ~/.tocsmith.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	v := cm.v
	setDefaults(v, DefaultConfig())

	// Environment variables with TOCSMITH_ prefix, e.g. TOCSMITH_LAYOUT_PAGE_SIZE
	v.SetEnvPrefix("TOCSMITH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.tocsmith")
	}

	// Try to read config file (not required)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// setDefaults registers every leaf key so env overrides reach Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("source_ext", d.SourceExt)
	v.SetDefault("recursive", d.Recursive)
	v.SetDefault("dedupe_ledger", d.DedupeLedger)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("template", d.Template)
	v.SetDefault("indent", d.Indent)
	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("output.suffix", d.Output.Suffix)
	v.SetDefault("output.ledger_name", d.Output.LedgerName)

	v.SetDefault("layout.page_size", d.Layout.PageSize)
	v.SetDefault("layout.font", d.Layout.Font)
	v.SetDefault("layout.margin_left", d.Layout.MarginLeft)
	v.SetDefault("layout.margin_right", d.Layout.MarginRight)
	v.SetDefault("layout.margin_top", d.Layout.MarginTop)
	v.SetDefault("layout.margin_bottom", d.Layout.MarginBottom)
	v.SetDefault("layout.title_size", d.Layout.TitleSize)
	v.SetDefault("layout.caption", d.Layout.Caption)
	v.SetDefault("layout.caption_size", d.Layout.CaptionSize)
	v.SetDefault("layout.entry_size", d.Layout.EntrySize)
	v.SetDefault("layout.line_height", d.Layout.LineHeight)
	v.SetDefault("layout.indent", d.Layout.Indent)
	v.SetDefault("layout.gutter", d.Layout.Gutter)
	v.SetDefault("layout.title_gap", d.Layout.TitleGap)
	v.SetDefault("layout.caption_gap", d.Layout.CaptionGap)
	v.SetDefault("layout.min_title_runes", d.Layout.MinTitleRunes)

	v.SetDefault("ledger.scan_limit", d.Ledger.ScanLimit)
	v.SetDefault("ledger.save_attempts", d.Ledger.SaveAttempts)
	v.SetDefault("ledger.save_delay", d.Ledger.SaveDelay)
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFile returns the path of the loaded config file, or "" when running on defaults.
func (cm *Manager) ConfigFile() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration. It does nothing when
// no config file was loaded.
func (cm *Manager) WatchConfig() {
	if cm.v.ConfigFileUsed() == "" {
		return
	}
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	pattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// TemplatePath resolves the template setting. An empty setting falls back to
// fallback (the template in the home directory).
func (c *Config) TemplatePath(fallback string) string {
	path := ResolveEnvVars(c.Template)
	if path == "" {
		return fallback
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// SlogLevel parses log_level; unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Geometry converts the layout section to points.
func (c *Config) Geometry() (layout.Geometry, error) {
	l := c.Layout
	w, h, err := layout.PageSize(l.PageSize)
	if err != nil {
		return layout.Geometry{}, err
	}

	g := layout.DefaultGeometry()
	g.PageWidth = w
	g.PageHeight = h
	g.MarginLeft = layout.MM(l.MarginLeft)
	g.MarginRight = layout.MM(l.MarginRight)
	g.MarginTop = layout.MM(l.MarginTop)
	g.MarginBottom = layout.MM(l.MarginBottom)
	g.Font = l.Font
	g.TitleSize = l.TitleSize
	g.Caption = l.Caption
	g.CaptionSize = l.CaptionSize
	g.EntrySize = l.EntrySize
	g.LineHeight = layout.MM(l.LineHeight)
	g.Indent = layout.MM(l.Indent)
	g.Gutter = layout.MM(l.Gutter)
	g.TitleGap = layout.MM(l.TitleGap)
	g.CaptionGap = layout.MM(l.CaptionGap)
	g.MinTitleRunes = l.MinTitleRunes

	if err := g.Validate(); err != nil {
		return layout.Geometry{}, fmt.Errorf("invalid layout config: %w", err)
	}
	return g, nil
}

// BatchRequest builds a batch request for the given directories from the
// configuration. defaultTemplate is used when no template is configured.
func (c *Config) BatchRequest(inputDir, outputDir, defaultTemplate string, logger *slog.Logger) (batch.Request, error) {
	g, err := c.Geometry()
	if err != nil {
		return batch.Request{}, err
	}
	return batch.Request{
		InputDir:           inputDir,
		OutputDir:          outputDir,
		Template:           c.TemplatePath(defaultTemplate),
		Recursive:          c.Recursive,
		Dedupe:             c.DedupeLedger,
		SourceExt:          c.SourceExt,
		Suffix:             c.Output.Suffix,
		LedgerName:         c.Output.LedgerName,
		Indent:             c.Indent,
		Workers:            c.Workers,
		Geometry:           g,
		LedgerScanLimit:    c.Ledger.ScanLimit,
		LedgerSaveAttempts: c.Ledger.SaveAttempts,
		LedgerSaveDelay:    c.Ledger.SaveDelay,
		Logger:             logger,
	}, nil
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# tocsmith configuration
# Every key can be overridden from the environment, e.g. TOCSMITH_WORKERS=4
# or TOCSMITH_LAYOUT_PAGE_SIZE=Letter. An empty template means ~/.tocsmith/template.xlsx.

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
