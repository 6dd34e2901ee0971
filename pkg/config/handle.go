package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dotfix-sh/dotfix/pkg/telemetry"
)

// Snapshot is one immutable view of the configuration: settings plus the
// parsed manifest. Readers never see a partially-updated configuration
// because a reload builds a whole new snapshot and swaps it in.
type Snapshot struct {
	// Settings are the engine options.
	Settings Settings

	// Manifest is the parsed declaration set.
	Manifest Manifest

	// Sources are the manifest files the snapshot was built from.
	Sources []string

	// LoadedAt is when the snapshot was built.
	LoadedAt time.Time
}

// Handle is the shared configuration value read concurrently by every task.
// Reads take the shared lock briefly; a writer swaps the whole snapshot under
// the exclusive lock, never mutating fields in place.
type Handle struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// NewHandle creates a handle around an initial snapshot.
func NewHandle(snap *Snapshot) *Handle {
	return &Handle{snap: snap}
}

// Snapshot returns the current configuration snapshot.
func (h *Handle) Snapshot() *Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap
}

// Swap replaces the whole snapshot.
func (h *Handle) Swap(snap *Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snap = snap
}

// Watcher reloads the manifest when a source file changes on disk.
type Watcher struct {
	fsw    *fsnotify.Watcher
	done   chan struct{}
	closed sync.Once
}

// WatchManifest watches the snapshot's manifest sources and swaps a fresh
// snapshot into the handle after each external update. A failed reload keeps
// the previous snapshot and logs the problem.
func WatchManifest(handle *Handle, parser *Parser, logger *telemetry.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	snap := handle.Snapshot()
	dirs := make(map[string]bool)
	for _, source := range snap.Sources {
		// Watch the directory: editors replace files on save, which drops
		// a watch attached to the file itself.
		dirs[filepath.Dir(source)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	w := &Watcher{
		fsw:  fsw,
		done: make(chan struct{}),
	}

	log := logger.NewComponentLogger("config-watch")

	go func() {
		for {
			select {
			case <-w.done:
				return
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
					continue
				}
				if !isManifestSource(snap.Sources, event.Name) {
					continue
				}

				manifest, err := parser.ParseManifest(context.Background(), snap.Sources)
				if err != nil {
					log.WithError(err).Warn("manifest reload failed, keeping previous snapshot")
					continue
				}

				handle.Swap(&Snapshot{
					Settings: snap.Settings,
					Manifest: *manifest,
					Sources:  snap.Sources,
					LoadedAt: time.Now(),
				})
				log.Infof("manifest reloaded after change to %s", event.Name)

			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("manifest watch error")
			}
		}
	}()

	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.closed.Do(func() { close(w.done) })
	return w.fsw.Close()
}

func isManifestSource(sources []string, path string) bool {
	for _, s := range sources {
		if filepath.Clean(s) == filepath.Clean(path) {
			return true
		}
	}
	return false
}
