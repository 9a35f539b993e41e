package index

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/addness-teambase/ai-file-search/internal/logging"
)

// Event describes one filesystem change under a watched root, already
// filtered of hidden entries and deny-listed directories.
type Event struct {
	Kind string // create, modify, delete, rename
	Name string // base name of the changed entry
	Root string // the watched root the change happened under
}

// Watcher invalidates the index cache whenever anything changes under a
// watched root. The index never re-scans eagerly; the next read walks
// fresh. An optional listener receives the filtered events.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	index    *Index
	skip     map[string]bool
	listener func(Event)
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	logger   *zap.Logger
}

// NewWatcher creates a watcher over the index's roots.
func NewWatcher(ix *Index) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:    fsw,
		index:  ix,
		skip:   ix.skip,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		logger: logging.Named("watcher"),
	}, nil
}

// SetListener registers a callback for filtered change events. Must be set
// before Start.
func (w *Watcher) SetListener(fn func(Event)) {
	w.mu.Lock()
	w.listener = fn
	w.mu.Unlock()
}

// Start begins watching the roots. Non-blocking; the event loop runs in its
// own goroutine until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, root := range w.index.Roots() {
		if err := w.watchTree(root); err != nil {
			// A missing root may appear later; the others still work.
			w.logger.Warn("failed to watch root", zap.String("root", root), zap.Error(err))
			continue
		}
		w.logger.Debug("watching root", zap.String("root", root))
	}

	go w.run(ctx)
	return nil
}

// watchTree registers dir and every eligible directory below it. fsnotify
// watches cover a single directory, never its subtree, so each level needs
// its own registration.
func (w *Watcher) watchTree(dir string) error {
	if err := w.fsw.Add(dir); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unreadable subtrees get no watches, matching the scanner.
		return nil
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || w.skip[name] {
			continue
		}
		sub := filepath.Join(dir, name)
		if err := w.watchTree(sub); err != nil {
			w.logger.Debug("failed to watch directory", zap.String("dir", sub), zap.Error(err))
		}
	}
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.fsw.Close(); err != nil {
		w.logger.Error("error closing watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || w.excluded(event.Name) {
		return
	}

	var kind string
	switch {
	case event.Op&fsnotify.Create != 0:
		kind = "create"
	case event.Op&fsnotify.Write != 0:
		kind = "modify"
	case event.Op&fsnotify.Remove != 0:
		kind = "delete"
	case event.Op&fsnotify.Rename != 0:
		kind = "rename"
	default:
		return // chmod etc.
	}

	// A created directory needs its own watch before changes inside it can
	// be seen; whatever already exists under it is registered too.
	if kind == "create" {
		if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
			if err := w.watchTree(event.Name); err != nil {
				w.logger.Debug("failed to watch directory", zap.String("dir", event.Name), zap.Error(err))
			}
		}
	}

	// The one mutation the watcher performs: a single cache clear, safe to
	// interleave with any in-flight read.
	w.index.Invalidate()
	w.logger.Debug("change detected", zap.String("kind", kind), zap.String("name", name))

	w.mu.Lock()
	listener := w.listener
	w.mu.Unlock()
	if listener != nil {
		listener(Event{Kind: kind, Name: name, Root: w.rootOf(event.Name)})
	}
}

// excluded reports whether path has a hidden or deny-listed segment below
// its watched root.
func (w *Watcher) excluded(path string) bool {
	root := w.rootOf(path)
	rel := path
	if root != "" {
		if r, err := filepath.Rel(root, path); err == nil {
			rel = r
		}
	}
	for _, seg := range strings.Split(rel, string(filepath.Separator)) {
		if seg == "" || seg == "." {
			continue
		}
		if strings.HasPrefix(seg, ".") || w.skip[seg] {
			return true
		}
	}
	return false
}

func (w *Watcher) rootOf(path string) string {
	for _, root := range w.index.Roots() {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return root
		}
	}
	return ""
}
