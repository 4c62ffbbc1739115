package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"visualeditor/internal/service"
)

// Events emitted by the document watcher.
const (
	EventDocumentsChanged = "editor:documents-changed"
	EventDocumentReloaded = "editor:document-reloaded"
)

// documentWatcher polls the store for changes made by another process
// (typically the standalone MCP server sharing the database): open documents
// with no local edits are reloaded and the frontend is told to refresh its
// document list.
type documentWatcher struct {
	ctx      context.Context
	editors  *service.EditorService
	emitter  service.EventEmitter
	logger   *log.Logger
	interval time.Duration

	mu       sync.Mutex
	lastList string // count + max updated_at
	stopCh   chan struct{}
}

func newDocumentWatcher(ctx context.Context, editors *service.EditorService, emitter service.EventEmitter, logger *log.Logger) *documentWatcher {
	return &documentWatcher{
		ctx:      ctx,
		editors:  editors,
		emitter:  emitter,
		logger:   logger,
		interval: 2 * time.Second,
	}
}

// Start begins the polling loop. Should be called once on app startup.
func (w *documentWatcher) Start() {
	w.stopCh = make(chan struct{})
	go w.pollLoop()
}

// Stop terminates the polling loop.
func (w *documentWatcher) Stop() {
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}

func (w *documentWatcher) pollLoop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	stop := w.stopCh
	for {
		select {
		case <-ticker.C:
			w.check()
		case <-stop:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *documentWatcher) check() {
	// ── Open documents ─────────────────────────────────
	for _, id := range w.editors.OpenIDs() {
		reloaded, err := w.editors.Reload(w.ctx, id)
		if err != nil {
			w.logger.Debug("reload document", "id", id, "err", err)
			continue
		}
		if reloaded {
			w.emitter.Emit(w.ctx, EventDocumentReloaded, map[string]string{"documentId": id})
		}
	}

	// ── Document list (sidebar) ────────────────────────
	docs, err := w.editors.List(w.ctx)
	if err != nil {
		w.logger.Debug("list documents", "err", err)
		return
	}
	var newest time.Time
	for _, d := range docs {
		if d.UpdatedAt.After(newest) {
			newest = d.UpdatedAt
		}
	}
	fingerprint := fmt.Sprintf("%d:%d", len(docs), newest.UnixNano())

	w.mu.Lock()
	changed := w.lastList != "" && w.lastList != fingerprint
	w.lastList = fingerprint
	w.mu.Unlock()

	if changed {
		w.emitter.Emit(w.ctx, EventDocumentsChanged, map[string]int{"count": len(docs)})
	}
}
