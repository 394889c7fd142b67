// Package watch reports changes to documents so they can be checked again.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/gnolang/splint/scanner"
)

// DefaultDebounce groups the writes of a single save into one change.
const DefaultDebounce = 100 * time.Millisecond

// Watcher follows a set of files and directories.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration

	files map[string]bool
	dirs  []string
}

// New creates a Watcher. Call Run to start receiving changes.
func New(logger *zap.Logger, debounce time.Duration) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &Watcher{
		watcher:  w,
		logger:   logger,
		debounce: debounce,
		files:    make(map[string]bool),
	}, nil
}

// Add watches paths. A file is followed by itself; a directory covers
// every document below it, including ones created later.
func (w *Watcher) Add(paths ...string) error {
	for _, path := range paths {
		path = filepath.Clean(path)
		info, err := os.Stat(path)
		if err != nil {
			return err
		}

		if !info.IsDir() {
			if err := w.watcher.Add(filepath.Dir(path)); err != nil {
				return fmt.Errorf("error adding %s to watcher: %w", path, err)
			}
			w.files[path] = true
			continue
		}

		if err := w.addTree(path); err != nil {
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
		w.dirs = append(w.dirs, path)
	}
	return nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

// Close releases the watcher without running it.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run delivers changed paths to onChange until ctx is done, then releases
// the watcher. onChange is never called concurrently.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) error {
	defer w.watcher.Close()

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	pending := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if path, ok := w.relevant(event); ok {
				pending[path] = time.Now()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", zap.Error(err))

		case now := <-ticker.C:
			var ready []string
			for path, at := range pending {
				if now.Sub(at) >= w.debounce {
					ready = append(ready, path)
				}
			}
			slices.Sort(ready)
			for _, path := range ready {
				delete(pending, path)
				w.logger.Debug("file changed", zap.String("file", path))
				onChange(path)
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return "", false
	}
	path := filepath.Clean(event.Name)
	if w.files[path] {
		return path, true
	}

	for _, dir := range w.dirs {
		if !within(dir, path) {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			return "", false
		}
		if info.IsDir() {
			if err := w.addTree(path); err != nil {
				w.logger.Warn("failed to watch new directory", zap.String("dir", path), zap.Error(err))
			}
			return "", false
		}
		ext := strings.ToLower(filepath.Ext(path))
		return path, slices.Contains(scanner.DefaultExtensions, ext)
	}
	return "", false
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
