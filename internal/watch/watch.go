// Package watch monitors documentation search roots and reports changed
// files so cached renders can be invalidated.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docbrowse/internal/logfields"
)

// Watcher observes a set of directory trees for changes.
type Watcher struct {
	fsw   *fsnotify.Watcher
	roots []string
}

// New creates a Watcher over the given roots. Roots that do not exist yet
// are skipped with a warning; they can be picked up by a later restart.
func New(roots []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w := &Watcher{fsw: fsw, roots: roots}
	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			slog.Warn("Watch root unavailable", logfields.Root(root), logfields.Error(err))
		}
	}
	return w, nil
}

// addTree registers root and all its subdirectories.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

// Run delivers the path of every changed file to handle until the context is
// canceled. New directories are added to the watch set as they appear.
func (w *Watcher) Run(ctx context.Context, handle func(path string)) {
	defer func() { _ = w.fsw.Close() }()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.fsw.Add(event.Name)
				}
			}
			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) ||
				event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
				handle(event.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}
