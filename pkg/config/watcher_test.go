package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestWatcher_ReloadOnChange(t *testing.T) {
	path := writeConfig(t, "safety:\n  mode: unrestricted\n")

	w := NewWatcher(path, 50*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reloaded := make(chan *Config, 1)
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func(cfg *Config) error {
			select {
			case reloaded <- cfg:
			default:
			}
			return nil
		})
	}()

	// Give the watcher a moment to register before the write.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("safety:\n  mode: apprentice\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Safety.Mode != "apprentice" {
			t.Errorf("Reloaded mode = %q", cfg.Safety.Mode)
		}
	case <-ctx.Done():
		t.Fatalf("Reload callback never fired")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() returned error: %v", err)
	}
}

func TestWatcher_InvalidChangeKeepsPrevious(t *testing.T) {
	path := writeConfig(t, "safety:\n  mode: unrestricted\n")

	w := NewWatcher(path, 50*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	reloads := make(chan *Config, 4)
	go func() {
		_ = w.Watch(ctx, func(cfg *Config) error {
			reloads <- cfg
			return nil
		})
	}()

	time.Sleep(100 * time.Millisecond)
	// Invalid content: the callback must not run for it.
	if err := os.WriteFile(path, []byte("safety:\n  mode: freestyle\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	select {
	case cfg := <-reloads:
		t.Fatalf("Invalid configuration was delivered: %+v", cfg.Safety)
	default:
	}

	// A subsequent valid write still goes through.
	if err := os.WriteFile(path, []byte("safety:\n  mode: mentor_review\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	select {
	case cfg := <-reloads:
		if cfg.Safety.Mode != "mentor_review" {
			t.Errorf("Mode = %q", cfg.Safety.Mode)
		}
	case <-ctx.Done():
		t.Fatalf("Valid reload after invalid one never fired")
	}
}

func TestWatcher_RejectsDoubleStart(t *testing.T) {
	path := writeConfig(t, "{}\n")
	w := NewWatcher(path, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	go func() {
		close(started)
		_ = w.Watch(ctx, func(*Config) error { return nil })
	}()
	<-started
	time.Sleep(100 * time.Millisecond)

	if err := w.Watch(ctx, func(*Config) error { return nil }); err == nil {
		t.Errorf("Second Watch() on a running watcher must fail")
	}
}
