package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/ericfisherdev/hotspotlogin/internal/domain/model"
	"github.com/ericfisherdev/hotspotlogin/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ProfileSource = (*Watcher)(nil)

// Watcher caches the profile and refreshes it whenever the file changes on
// disk. The cached profile is swapped under a mutex on reload.
type Watcher struct {
	path string

	mu      sync.RWMutex
	profile model.Profile
	loadErr error
	loaded  bool
}

// NewWatcher creates a Watcher for the profile at path. The first Profile call
// reads the file and caches the result; Run refreshes the cache when the file
// changes. Without Run a cached profile is never reread.
func NewWatcher(path string) *Watcher {
	return &Watcher{path: filepath.Clean(path)}
}

// Profile returns the cached profile. A failed previous load is retried so a
// fixed file is picked up even if the change event was missed.
func (w *Watcher) Profile(_ context.Context) (model.Profile, error) {
	w.mu.RLock()
	if w.loaded && w.loadErr == nil {
		defer w.mu.RUnlock()
		return w.profile, w.loadErr
	}
	w.mu.RUnlock()

	w.reload()

	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.profile, w.loadErr
}

// Run watches the profile's directory, since editors and atomic writes replace
// the file, and reloads on any event touching the profile. It blocks until ctx
// is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}

	w.reload()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				w.reload()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watcher error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) reload() {
	profile, err := ReadProfile(w.path)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.loaded = true
	w.loadErr = err
	if err == nil {
		w.profile = profile
		slog.Debug("config reloaded", "path", w.path)
		return
	}
	slog.Warn("config reload failed", "path", w.path, "error", err)
}
