package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/ports/driven"
	"github.com/custodia-labs/pikia/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.FileWatcher = (*Watcher)(nil)

// DefaultSettle is how long a file must stay unchanged before it is reported.
const DefaultSettle = 500 * time.Millisecond

// Watcher reports image files that appear in watched directories.
// A path is emitted once its writes have settled, so a file that is still
// being copied in is not analysed half-written.
type Watcher struct {
	extensions []string
	settle     time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// NewWatcher creates a watcher matching the given extensions.
// An empty list uses domain.DefaultImageExtensions; settle <= 0 uses DefaultSettle.
func NewWatcher(extensions []string, settle time.Duration) *Watcher {
	if len(extensions) == 0 {
		extensions = domain.DefaultImageExtensions
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{extensions: extensions, settle: settle}
}

// Watch starts watching dirs and returns a channel of settled image paths.
// The channel is closed when ctx is cancelled or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context, dirs []string, recursive bool) (<-chan string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, fmt.Errorf("%w: watcher closed", domain.ErrInvalidInput)
	}
	if w.watcher != nil {
		return nil, fmt.Errorf("%w: already watching", domain.ErrInvalidInput)
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("%w: no directories", domain.ErrInvalidInput)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	roots := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		root, err := SanitizePath(dir)
		if err == nil {
			err = addTree(fw, root, recursive)
		}
		if err != nil {
			fw.Close()
			return nil, err
		}
		roots = append(roots, root)
	}

	w.watcher = fw
	out := make(chan string)
	go w.loop(ctx, fw, roots, recursive, out)
	return out, nil
}

// Close stops watching. Safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, roots []string, recursive bool, out chan<- string) {
	defer close(out)
	defer fw.Close()

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if recursive && event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !hiddenUnder(roots, event.Name) {
					if err := addTree(fw, event.Name, true); err != nil {
						logger.Warn("Cannot watch %s: %v", event.Name, err)
					}
					continue
				}
			}
			if path, ok := w.handleFsEvent(roots, event); ok {
				pending[path] = time.Now().Add(w.settle)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Warn("Watch error: %v", err)

		case now := <-ticker.C:
			for path, due := range pending {
				if now.Before(due) {
					continue
				}
				delete(pending, path)
				select {
				case out <- path:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// handleFsEvent returns the image path an event refers to, if it should
// be reported. Only creations and writes of visible regular files count.
func (w *Watcher) handleFsEvent(roots []string, event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if hiddenUnder(roots, event.Name) || !domain.HasImageExtension(event.Name, w.extensions) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return event.Name, true
}

// addTree watches dir, and every visible subdirectory when recursive.
func addTree(fw *fsnotify.Watcher, dir string, recursive bool) error {
	if !recursive {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		return nil
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return fs.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
