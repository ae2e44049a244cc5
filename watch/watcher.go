// Package watch reloads manager entries when the files behind a directory
// archive change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/brettbedarf/resmgr/internal/util"
	"github.com/fsnotify/fsnotify"
)

// Reloader drops whatever is cached for an archive path
type Reloader interface {
	Reload(path string)
}

// Rescanner rebuilds an archive's index after entries were added or removed
type Rescanner interface {
	Rescan() error
}

// Watcher watches a directory tree and reloads the archive paths that change.
// Rapid events are batched by a [Debouncer].
type Watcher struct {
	root     string
	fsw      *fsnotify.Watcher
	target   Reloader
	index    Rescanner // May be nil
	debounce *Debouncer

	structural atomic.Bool // A create, remove or rename is pending
}

// New creates a Watcher over root. index may be nil when the archive needs
// no rescan.
func New(root string, interval time.Duration, target Reloader, index Rescanner) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:   abs,
		fsw:    fsw,
		target: target,
		index:  index,
	}
	w.debounce = NewDebouncer(interval, w.reload)
	return w, nil
}

// Run watches until ctx is cancelled, then releases the fsnotify watcher.
func (w *Watcher) Run(ctx context.Context) error {
	logger := util.GetLogger("Watcher")
	defer w.debounce.Stop()
	defer w.fsw.Close()

	if err := w.addTree(w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}
	logger.Info().Str("root", w.root).Msg("File watcher started")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("File watcher stopped")
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			w.handle(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			// Keep watching
			logger.Error().Err(err).Msg("File watcher error")
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	logger := util.GetLogger("Watcher")
	if event.Op == fsnotify.Chmod {
		return
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return
	}
	logger.Debug().Str("path", rel).Str("op", event.Op.String()).Msg("File event detected")

	if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.structural.Store(true)
		if event.Has(fsnotify.Create) {
			// New subdirectories must be watched too; files are ignored here
			_ = w.addTree(event.Name)
		}
	}
	w.debounce.Add(filepath.ToSlash(rel))
}

// reload is the debounced batch handler
func (w *Watcher) reload(paths []string) {
	logger := util.GetLogger("Watcher")
	if w.index != nil && w.structural.Swap(false) {
		if err := w.index.Rescan(); err != nil {
			logger.Error().Err(err).Msg("Archive rescan failed")
		}
	}
	for _, p := range paths {
		w.target.Reload(p)
	}
	logger.Info().Int("paths", len(paths)).Msg("Reloaded changed files")
}

// addTree watches dir and every directory below it
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.fsw.Add(p)
	})
}
