package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackzampolin/tocsmith/internal/layout"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configFile
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.SourceExt != ".pdf" {
		t.Errorf("expected .pdf source extension, got %q", cfg.SourceExt)
	}
	if !cfg.DedupeLedger {
		t.Error("expected ledger dedupe on by default")
	}
	if cfg.Output.Suffix != "_TOC" || cfg.Output.LedgerName != "MASTER_TOC.xlsx" {
		t.Errorf("unexpected output defaults: %+v", cfg.Output)
	}

	g, err := cfg.Geometry()
	if err != nil {
		t.Fatalf("default geometry invalid: %v", err)
	}
	if g != layout.DefaultGeometry() {
		t.Errorf("default config geometry differs from layout.DefaultGeometry:\n got %+v\nwant %+v", g, layout.DefaultGeometry())
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		t.Setenv("TEST_TOC_DIR", "/srv/toc")

		result := ResolveEnvVars("${TEST_TOC_DIR}/template.xlsx")
		if result != "/srv/toc/template.xlsx" {
			t.Errorf("expected /srv/toc/template.xlsx, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})
}

func TestConfig_TemplatePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	t.Setenv("TEST_TEMPLATES", "/opt/templates")

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"empty falls back", "", "/fallback/template.xlsx"},
		{"absolute", "/data/t.xlsx", "/data/t.xlsx"},
		{"tilde", "~/t.xlsx", filepath.Join(home, "t.xlsx")},
		{"env var", "${TEST_TEMPLATES}/t.xlsx", "/opt/templates/t.xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Template: tt.template}
			if got := cfg.TemplatePath("/fallback/template.xlsx"); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := (&Config{LogLevel: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConfig_Geometry(t *testing.T) {
	t.Run("letter in millimetres", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Layout.PageSize = "Letter"
		cfg.Layout.MarginLeft = 10

		g, err := cfg.Geometry()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if g.PageWidth != 612 || g.PageHeight != 792 {
			t.Errorf("expected letter size, got %vx%v", g.PageWidth, g.PageHeight)
		}
		if g.MarginLeft != layout.MM(10) {
			t.Errorf("expected 10mm left margin, got %v", g.MarginLeft)
		}
	})

	t.Run("unknown page size", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Layout.PageSize = "B7"
		if _, err := cfg.Geometry(); err == nil {
			t.Error("expected error for unknown page size")
		}
	})

	t.Run("margins swallow page", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Layout.MarginTop = 400
		if _, err := cfg.Geometry(); err == nil {
			t.Error("expected error for oversized margins")
		}
	})
}

func TestConfig_BatchRequest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 3
	cfg.Recursive = true

	req, err := cfg.BatchRequest("/in", "/out", "/home/template.xlsx", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.InputDir != "/in" || req.OutputDir != "/out" {
		t.Errorf("unexpected directories: %s %s", req.InputDir, req.OutputDir)
	}
	if req.Template != "/home/template.xlsx" {
		t.Errorf("expected fallback template, got %s", req.Template)
	}
	if req.Workers != 3 || !req.Recursive || !req.Dedupe {
		t.Errorf("unexpected flags: %+v", req)
	}
	if req.LedgerSaveDelay != 500*time.Millisecond || req.LedgerSaveAttempts != 3 {
		t.Errorf("unexpected ledger settings: %v %d", req.LedgerSaveDelay, req.LedgerSaveAttempts)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		configFile := writeConfig(t, `
source_ext: .json
workers: 4
output:
  suffix: _contents
layout:
  page_size: Letter
ledger:
  save_delay: 2s
`)

		mgr, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}

		cfg := mgr.Get()
		if cfg.SourceExt != ".json" || cfg.Workers != 4 {
			t.Errorf("file values not applied: %+v", cfg)
		}
		if cfg.Output.Suffix != "_contents" {
			t.Errorf("expected _contents, got %s", cfg.Output.Suffix)
		}
		// Keys absent from the file keep their defaults.
		if cfg.Output.LedgerName != "MASTER_TOC.xlsx" {
			t.Errorf("expected default ledger name, got %s", cfg.Output.LedgerName)
		}
		if cfg.Layout.EntrySize != 12 {
			t.Errorf("expected default entry size, got %v", cfg.Layout.EntrySize)
		}
		if cfg.Ledger.SaveDelay != 2*time.Second {
			t.Errorf("expected 2s save delay, got %v", cfg.Ledger.SaveDelay)
		}
		if mgr.ConfigFile() != configFile {
			t.Errorf("expected config file %s, got %s", configFile, mgr.ConfigFile())
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		configFile := writeConfig(t, "workers: 4\n")
		t.Setenv("TOCSMITH_WORKERS", "8")
		t.Setenv("TOCSMITH_LAYOUT_PAGE_SIZE", "A5")

		mgr, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		cfg := mgr.Get()
		if cfg.Workers != 8 {
			t.Errorf("expected 8 workers from env, got %d", cfg.Workers)
		}
		if cfg.Layout.PageSize != "A5" {
			t.Errorf("expected A5 from env, got %s", cfg.Layout.PageSize)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		configFile := writeConfig(t, "workers: [1, 2\n")
		if _, err := NewManager(configFile); err == nil {
			t.Error("expected error for malformed config")
		}
	})
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("failed to load written default: %v", err)
	}
	got := mgr.Get()
	want := DefaultConfig()
	if got.Indent != want.Indent {
		t.Errorf("indent not preserved: %q", got.Indent)
	}
	if got.Layout != want.Layout || got.Ledger != want.Ledger || got.Output != want.Output {
		t.Errorf("round trip differs:\n got %+v\nwant %+v", got, want)
	}
}

func TestManager_OnChange_Multiple(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "workers: 1\n"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})

	mgr.mu.RLock()
	if len(mgr.callbacks) != 3 {
		t.Errorf("expected 3 callbacks, got %d", len(mgr.callbacks))
	}
	mgr.mu.RUnlock()
}

func TestManager_Get_ThreadSafe(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "workers: 2\n"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	// Call Get concurrently to verify no race conditions
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				_ = mgr.Get().Workers
			}
			done <- struct{}{}
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestManager_WatchConfig(t *testing.T) {
	configFile := writeConfig(t, "layout:\n  entry_size: 12\n")

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	var callbackCount atomic.Int32
	mgr.OnChange(func(cfg *Config) {
		callbackCount.Add(1)
	})

	mgr.WatchConfig()

	// Give fsnotify time to set up the watcher
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(configFile, []byte("layout:\n  entry_size: 10\n"), 0o644); err != nil {
		t.Fatalf("failed to write updated config file: %v", err)
	}

	// Wait for the watcher to detect the change (fsnotify is async). Editors
	// and os.WriteFile may produce several events; wait for the final state.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if callbackCount.Load() > 0 && mgr.Get().Layout.EntrySize == 10 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if callbackCount.Load() == 0 {
		t.Fatal("callback was not invoked after config file change")
	}
	if got := mgr.Get().Layout.EntrySize; got != 10 {
		t.Errorf("config not updated: expected 10, got %v", got)
	}
}
