// Package watch re-runs a batch whenever new source documents appear in a
// directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jackzampolin/tocsmith/internal/batch"
)

// DefaultDebounce is how long the watcher waits after the last relevant event
// before running.
const DefaultDebounce = 2 * time.Second

// Config configures a Watcher.
type Config struct {
	Dir        string
	Recursive  bool
	SourceExt  string
	SkipSuffix string
	Debounce   time.Duration

	// Run is called once on start and again after each burst of changes.
	// Errors are logged; the watcher keeps going.
	Run func(ctx context.Context) error

	Logger *slog.Logger
}

// Watcher observes a directory tree for new or rewritten source files.
type Watcher struct {
	cfg    Config
	fs     *fsnotify.Watcher
	logger *slog.Logger
}

// New creates a watcher on cfg.Dir and, when recursive, every directory below it.
func New(cfg Config) (*Watcher, error) {
	if cfg.Run == nil {
		return nil, errors.New("watch: Run is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", batch.ErrInputDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", batch.ErrInputDir, cfg.Dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{cfg: cfg, fs: fw, logger: logger.With("dir", cfg.Dir)}
	if err := w.add(cfg.Dir); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// add watches dir, and its subdirectories when recursive.
func (w *Watcher) add(dir string) error {
	if !w.cfg.Recursive {
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		return nil
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run runs the batch once and then after every debounced burst of relevant
// events, until ctx is cancelled. It closes the watcher when it returns.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	w.logger.Info("watching for source documents", "ext", w.cfg.SourceExt, "recursive", w.cfg.Recursive)
	w.runOnce(ctx)

	timer := time.NewTimer(w.cfg.Debounce)
	timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			w.logger.Info("watcher stopping")
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(w.cfg.Debounce)
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			w.logger.Warn("file watcher error", "error", err)

		case <-fire:
			fire = nil
			w.runOnce(ctx)
		}
	}
}

// relevant reports whether ev should trigger a run. New directories are
// added to the watch list in recursive mode and trigger a run, since files
// may have landed in them before the watch was in place.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}
	if ev.Has(fsnotify.Create) && w.cfg.Recursive {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.add(ev.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", ev.Name, "error", err)
			}
			return true
		}
	}
	return batch.IsSource(filepath.Base(ev.Name), w.cfg.SourceExt, w.cfg.SkipSuffix)
}

func (w *Watcher) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := w.cfg.Run(ctx); err != nil {
		w.logger.Error("batch run failed", "error", err)
		return
	}
	w.logger.Debug("batch run finished", "elapsed", time.Since(start))
}
