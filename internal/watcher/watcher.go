// Package watcher reports changes to configuration files, batched over a
// short debounce window so an editor saving several files triggers a single
// reload.
package watcher

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vk/realityserver/internal/ctxlog"
	"github.com/vk/realityserver/internal/fsutil"
)

// DefaultDebounce is the quiet period after the last change before the
// handler runs.
const DefaultDebounce = 250 * time.Millisecond

// ChangeHandler receives the changed files of one batch, sorted.
type ChangeHandler func(ctx context.Context, changed []string)

// Watcher watches the directories that hold a set of config paths.
type Watcher struct {
	paths     []string
	extension string
	debounce  time.Duration
	handler   ChangeHandler
}

// New creates a Watcher for files with extension under paths.
func New(paths []string, extension string, debounce time.Duration, handler ChangeHandler) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		paths:     paths,
		extension: extension,
		debounce:  debounce,
		handler:   handler,
	}
}

// Run watches until ctx is done. It returns an error only if watching could
// not start.
func (w *Watcher) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	dirs, err := fsutil.Dirs(w.paths)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	logger.Info("Watching configuration.", "dirs", len(dirs))

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					watchDir(ctx, fw, event.Name)
					continue
				}
			}
			if !strings.HasSuffix(event.Name, w.extension) || event.Op == fsnotify.Chmod {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error.", "error", err)
		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			slices.Sort(changed)
			clear(pending)
			logger.Debug("Configuration changed.", "files", changed)
			w.handler(ctx, changed)
		}
	}
}

// dirAdder is the part of fsnotify.Watcher used to follow new directories.
type dirAdder interface {
	Add(name string) error
}

// watchDir starts watching a directory created after Run began. A failure
// only leaves that directory unwatched.
func watchDir(ctx context.Context, fw dirAdder, dir string) {
	if err := fw.Add(dir); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to watch new directory.", "dir", dir, "error", err)
	}
}
