package config

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a configuration file and calls an explicit reload
// callback when it changes. Reload is always an explicit call; nothing in
// this package mutates live engine state behind the caller's back.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewWatcher creates a configuration file watcher. debounce <= 0 selects
// 250ms, which is enough to coalesce the editor write-rename dance into a
// single reload.
func NewWatcher(path string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	return &Watcher{
		path:     path,
		debounce: debounce,
		logger:   slog.Default().With("component", "config.watcher"),
	}
}

// Watch blocks until the context is cancelled, invoking onReload with the
// freshly loaded configuration after each debounced change. A change that
// fails to load or validate is logged and skipped; the previous
// configuration stays in effect.
func (w *Watcher) Watch(ctx context.Context, onReload func(*Config) error) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.path); err != nil {
		return fmt.Errorf("failed to watch %q: %w", w.path, err)
	}

	w.logger.Info("configuration watcher started",
		"path", w.path,
		"debounce_ms", w.debounce.Milliseconds(),
	)

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("configuration watcher stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
			// Editors often replace the file; re-add the path so
			// subsequent writes are still seen.
			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Create) {
				_ = fsw.Add(w.path)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("configuration watcher error", "error", err)

		case <-fire:
			w.reload(onReload)
		}
	}
}

func (w *Watcher) reload(onReload func(*Config) error) {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Error("configuration reload rejected, keeping previous configuration",
			"path", w.path,
			"error", err,
		)
		return
	}
	if err := onReload(cfg); err != nil {
		w.logger.Error("configuration reload callback failed", "error", err)
		return
	}
	w.logger.Info("configuration reloaded", "path", w.path)
}
