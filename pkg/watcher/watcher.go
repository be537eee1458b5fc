// Package watcher triggers refreshes when a repository's working tree or git
// directory changes on disk.
package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tierone/deckhand/pkg/logging"
)

// ErrClosed is returned by Add after Close.
var ErrClosed = errors.New("watcher is closed")

// Watcher watches repositories and calls a handler once changes to a
// repository have settled for the debounce period.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func(repo string)
	logger   logging.Logger
	roots    map[string]string // working tree -> repository name
	timers   map[string]*time.Timer
	done     chan struct{}
	closed   bool
}

// New creates a watcher. onChange is called from a timer goroutine with the
// name given to Add.
func New(debounce time.Duration, onChange func(repo string), logger logging.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = logging.Nop()
	}

	w := &Watcher{
		watcher:  fw,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		roots:    make(map[string]string),
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	go w.eventLoop()
	return w, nil
}

// Add starts watching the repository whose working tree is root.
func (w *Watcher) Add(name, root string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	if _, ok := w.roots[root]; ok {
		return nil
	}

	gitDir := filepath.Join(root, ".git")
	if info, err := os.Stat(gitDir); err != nil || !info.IsDir() {
		return fmt.Errorf("not a git repository: %s", root)
	}

	for _, p := range collectWatchPaths(root) {
		if err := w.watcher.Add(p); err != nil {
			w.logger.Warn("could not watch directory", "path", p, "error", err)
		}
	}

	w.roots[root] = name
	w.logger.Info("watching repository", "repository", name, "path", root)
	return nil
}

// Close stops all pending refreshes and releases the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	for _, timer := range w.timers {
		timer.Stop()
	}

	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Git writes through lock files and renames them into place; the rename
	// produces its own event.
	if strings.HasSuffix(event.Name, ".lock") {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	root, name := w.findRepository(event.Name)
	if name == "" {
		return
	}

	// New directories, including rebase-merge, need their own watch.
	if event.Has(fsnotify.Create) && !isIgnoredDir(root, event.Name) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.logger.Warn("could not watch new directory", "path", event.Name, "error", err)
			}
		}
	}

	if timer, ok := w.timers[name]; ok {
		timer.Stop()
	}
	w.timers[name] = time.AfterFunc(w.debounce, func() {
		w.fire(name)
	})
}

func (w *Watcher) fire(name string) {
	w.mu.Lock()
	closed := w.closed
	delete(w.timers, name)
	w.mu.Unlock()

	if closed {
		return
	}
	w.logger.Debug("repository changed", "repository", name)
	w.onChange(name)
}

// findRepository returns the deepest watched working tree containing path.
func (w *Watcher) findRepository(path string) (string, string) {
	path = filepath.Clean(path)

	var bestRoot, bestName string
	for root, name := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(os.PathSeparator)) {
			if len(root) > len(bestRoot) {
				bestRoot, bestName = root, name
			}
		}
	}
	return bestRoot, bestName
}

// collectWatchPaths returns every working tree directory plus the parts of
// the git directory that change when HEAD, the index, branches or an
// in-progress merge or rebase change.
func collectWatchPaths(root string) []string {
	var paths []string

	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if p != root && isIgnoredDir(root, p) {
			return filepath.SkipDir
		}
		paths = append(paths, p)
		return nil
	})

	gitDir := filepath.Join(root, ".git")
	paths = append(paths, gitDir)
	for _, sub := range []string{
		filepath.Join("refs", "heads"),
		"rebase-merge",
		"rebase-apply",
	} {
		p := filepath.Join(gitDir, sub)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			paths = append(paths, p)
		}
	}

	return paths
}

// isIgnoredDir reports whether a directory under root is left to the
// explicit git directory watches instead of the working tree walk.
func isIgnoredDir(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return true
	}
	first := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
	if first != ".git" {
		return false
	}
	// Inside .git only the rebase state directories are picked up on create.
	base := filepath.Base(p)
	return !(filepath.Dir(p) == filepath.Join(root, ".git") && (base == "rebase-merge" || base == "rebase-apply"))
}
