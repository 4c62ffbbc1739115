// Package watch imports canvas values from JSON files on disk whenever they
// are written.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"visualeditor/internal/logging"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 500 * time.Millisecond

// ApplyFunc receives the content of a changed file bound to documentID.
type ApplyFunc func(documentID string, data []byte) error

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// Watcher maps watched files to documents. fsnotify watches the parent
// directory of each file so editors that replace the file on save still
// trigger an import.
type Watcher struct {
	watcher  *fsnotify.Watcher
	apply    ApplyFunc
	logger   *log.Logger
	debounce time.Duration

	mu       sync.Mutex
	watching map[string]string // abs path -> documentID
	dirs     map[string]int
	timers   map[string]*time.Timer
	closed   bool
}

// New creates a Watcher and starts its event loop.
func New(apply ApplyFunc, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		watcher:  fw,
		apply:    apply,
		logger:   logging.Discard(),
		debounce: DefaultDebounce,
		watching: make(map[string]string),
		dirs:     make(map[string]int),
		timers:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.loop()
	return w, nil
}

// Watch binds path to documentID.
func (w *Watcher) Watch(path, documentID string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.watching[absPath]; ok {
		w.watching[absPath] = documentID
		return nil
	}
	dir := filepath.Dir(absPath)
	if w.dirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch dir %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	w.watching[absPath] = documentID
	w.logger.Info("watching import", "path", absPath, "document", documentID)
	return nil
}

// Unwatch stops importing path.
func (w *Watcher) Unwatch(path string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.watching[absPath]; !ok {
		return
	}
	delete(w.watching, absPath)
	if t, ok := w.timers[absPath]; ok {
		t.Stop()
		delete(w.timers, absPath)
	}
	dir := filepath.Dir(absPath)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		w.watcher.Remove(dir)
	}
}

// Paths returns the watched files.
func (w *Watcher) Paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.watching))
	for p := range w.watching {
		paths = append(paths, p)
	}
	return paths
}

// Close stops the watcher. Pending imports are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	for p, t := range w.timers {
		t.Stop()
		delete(w.timers, p)
	}
	w.mu.Unlock()
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			absPath, _ := filepath.Abs(event.Name)
			w.schedule(absPath)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "err", err)
		}
	}
}

func (w *Watcher) schedule(absPath string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if _, ok := w.watching[absPath]; !ok {
		return
	}
	if t, ok := w.timers[absPath]; ok {
		t.Stop()
	}
	w.timers[absPath] = time.AfterFunc(w.debounce, func() { w.fire(absPath) })
}

func (w *Watcher) fire(absPath string) {
	w.mu.Lock()
	documentID, ok := w.watching[absPath]
	delete(w.timers, absPath)
	closed := w.closed
	w.mu.Unlock()
	if !ok || closed {
		return
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		w.logger.Error("read import", "path", absPath, "err", err)
		return
	}
	if err := w.apply(documentID, data); err != nil {
		w.logger.Warn("import rejected", "path", absPath, "document", documentID, "err", err)
		return
	}
	w.logger.Info("imported", "path", absPath, "document", documentID)
}
