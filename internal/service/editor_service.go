package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"visualeditor/internal/align"
	"visualeditor/internal/domain"
	"visualeditor/internal/editor"
	"visualeditor/internal/errs"
	"visualeditor/internal/geometry"
	"visualeditor/internal/history"
	"visualeditor/internal/logging"
)

// ─────────────────────────────────────────────────────────────
// Editor Service: documents and their live editing sessions
// ─────────────────────────────────────────────────────────────

// DefaultContainer is the canvas size of a new document.
var DefaultContainer = domain.Container{Width: 800, Height: 500}

// EditorService opens documents into editor sessions and persists them.
// Every call into a session is serialised with the session mutex; Wails
// bindings, MCP handlers, autosave and import watching all go through it.
type EditorService struct {
	docs     domain.DocumentStore
	journal  domain.SnapshotStore
	registry *domain.ComponentRegistry
	emitter  EventEmitter
	logger   *log.Logger
	newID    func() string

	mu        sync.Mutex
	sessions  map[string]*session
	saves     saveTracker
	cronSched *cron.Cron
}

type session struct {
	mu     sync.Mutex
	ctx    context.Context
	doc    domain.Document
	editor *editor.Editor
	dirty  bool
}

// Option configures an EditorService.
type Option func(*EditorService)

// WithJournal records a snapshot after every history step.
func WithJournal(j domain.SnapshotStore) Option {
	return func(s *EditorService) { s.journal = j }
}

// WithRegistry restricts drops to the registered palette.
func WithRegistry(r *domain.ComponentRegistry) Option {
	return func(s *EditorService) { s.registry = r }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *EditorService) { s.logger = l }
}

// WithIDGenerator replaces uuid.NewString for block IDs.
func WithIDGenerator(fn func() string) Option {
	return func(s *EditorService) { s.newID = fn }
}

// NewEditorService creates an EditorService ready for use.
func NewEditorService(docs domain.DocumentStore, emitter EventEmitter, opts ...Option) *EditorService {
	s := &EditorService{
		docs:     docs,
		emitter:  emitter,
		logger:   logging.Discard(),
		newID:    uuid.NewString,
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.emitter == nil {
		s.emitter = NoopEmitter{}
	}
	return s
}

// Registry returns the component palette, or nil.
func (s *EditorService) Registry() *domain.ComponentRegistry {
	return s.registry
}

// ── Documents ──────────────────────────────────────────────

// Create stores a new empty document.
func (s *EditorService) Create(ctx context.Context, name string) (*domain.Document, error) {
	if name == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "document name is required")
	}
	data, err := json.Marshal(domain.Value{Container: DefaultContainer, Blocks: []domain.Block{}})
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	doc := &domain.Document{Name: name, ValueJSON: string(data)}
	if err := s.docs.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	s.logger.Info("document created", "id", doc.ID, "name", name)
	return doc, nil
}

// List returns every stored document without its value.
func (s *EditorService) List(ctx context.Context) ([]domain.Document, error) {
	return s.docs.ListDocuments(ctx)
}

// Open starts an editing session over a stored document. Opening a document
// that is already open returns its current value.
func (s *EditorService) Open(ctx context.Context, id string) (domain.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		return sess.editor.Value(), nil
	}

	doc, err := s.docs.GetDocument(ctx, id)
	if err != nil {
		return domain.Value{}, err
	}
	value, err := geometry.ParseValue([]byte(doc.ValueJSON), s.newID)
	if err != nil {
		return domain.Value{}, fmt.Errorf("open document %s: %w", id, err)
	}

	sess := &session{ctx: context.WithoutCancel(ctx), doc: *doc}
	s.attachEditor(sess, value)
	s.sessions[id] = sess
	s.logger.Info("document opened", "id", id, "blocks", len(value.Blocks))
	return sess.editor.Value(), nil
}

// IsOpen reports whether a session exists for id.
func (s *EditorService) IsOpen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	return ok
}

// OpenIDs returns the IDs of the open sessions, sorted.
func (s *EditorService) OpenIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// With runs fn against the editor of an open document while holding its
// session lock.
func (s *EditorService) With(id string, fn func(*editor.Editor) error) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess.editor)
}

// Value returns the current value of an open document.
func (s *EditorService) Value(id string) (domain.Value, error) {
	var v domain.Value
	err := s.With(id, func(e *editor.Editor) error {
		v = e.Value()
		return nil
	})
	return v, err
}

// Save writes the value of an open document to the store. Saves of the
// same document run one after another.
func (s *EditorService) Save(ctx context.Context, id string) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	done := s.saves.Track(id)
	defer done()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.saveLocked(ctx, sess)
}

func (s *EditorService) saveLocked(ctx context.Context, sess *session) error {
	data, err := json.Marshal(sess.editor.Value())
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	doc := sess.doc
	doc.ValueJSON = string(data)
	if err := s.docs.UpdateDocument(ctx, &doc); err != nil {
		return fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	sess.doc = doc
	sess.dirty = false
	s.emitter.Emit(sess.ctx, EventSaved, map[string]any{
		"documentId": doc.ID,
		"updatedAt":  doc.UpdatedAt,
	})
	s.logger.Debug("document saved", "id", doc.ID)
	return nil
}

// Dirty reports whether an open document has unsaved changes.
func (s *EditorService) Dirty(id string) bool {
	sess, err := s.session(id)
	if err != nil {
		return false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.dirty
}

// Close saves a dirty document and ends its session.
func (s *EditorService) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return errs.New(errs.ErrCodeNotFound, "document %q is not open", id)
	}
	delete(s.sessions, id)
	s.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.editor.Close()
	if !sess.dirty {
		return nil
	}
	done := s.saves.Track(id)
	defer done()
	return s.saveLocked(ctx, sess)
}

// CloseAll saves and closes every open session. Errors are logged.
func (s *EditorService) CloseAll(ctx context.Context) {
	for _, id := range s.OpenIDs() {
		if err := s.Close(ctx, id); err != nil {
			s.logger.Error("close document", "id", id, "err", err)
		}
	}
}

// Delete drops any open session without saving and removes the document
// and its journal.
func (s *EditorService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok {
		delete(s.sessions, id)
		sess.mu.Lock()
		sess.editor.Close()
		sess.mu.Unlock()
	}
	s.mu.Unlock()

	if err := s.docs.DeleteDocument(ctx, id); err != nil {
		return err
	}
	if s.journal != nil {
		if err := s.journal.ClearSnapshots(ctx, id); err != nil {
			return fmt.Errorf("delete document %s: %w", id, err)
		}
	}
	s.logger.Info("document deleted", "id", id)
	return nil
}

// ImportJSON replaces the value of a document with data as one undoable
// step, opening the document first if needed. Malformed data leaves the
// value unchanged and returns errs.ErrCodeMalformedValue.
func (s *EditorService) ImportJSON(ctx context.Context, id string, data []byte) error {
	if !s.IsOpen(id) {
		if _, err := s.Open(ctx, id); err != nil {
			return err
		}
	}
	return s.With(id, func(e *editor.Editor) error {
		return e.ImportJSON(data)
	})
}

// Reload swaps the value of a clean open document for the stored one when
// the store holds a newer revision, e.g. one saved by a standalone MCP
// process. Dirty sessions are left alone. It reports whether the document
// was reloaded; the reloaded session starts with an empty history.
func (s *EditorService) Reload(ctx context.Context, id string) (bool, error) {
	sess, err := s.session(id)
	if err != nil {
		return false, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.dirty {
		return false, nil
	}

	doc, err := s.docs.GetDocument(ctx, id)
	if err != nil {
		return false, err
	}
	if !doc.UpdatedAt.After(sess.doc.UpdatedAt) {
		return false, nil
	}
	value, err := geometry.ParseValue([]byte(doc.ValueJSON), s.newID)
	if err != nil {
		return false, fmt.Errorf("reload document %s: %w", id, err)
	}

	sess.editor.Close()
	sess.doc = *doc
	s.attachEditor(sess, value)
	sess.dirty = false
	s.emitter.Emit(sess.ctx, EventBlocksChanged, map[string]any{
		"documentId": id,
		"value":      sess.editor.Value(),
	})
	s.logger.Info("document reloaded", "id", id, "blocks", len(value.Blocks))
	return true, nil
}

// ── Journal ────────────────────────────────────────────────

// Snapshots returns the persisted journal of a document, oldest first.
func (s *EditorService) Snapshots(ctx context.Context, id string) ([]domain.Snapshot, error) {
	if s.journal == nil {
		return []domain.Snapshot{}, nil
	}
	return s.journal.ListSnapshots(ctx, id)
}

// RestoreSnapshot replaces the value of an open document with the journal
// entry seq. The replacement is itself an undoable step.
func (s *EditorService) RestoreSnapshot(ctx context.Context, id string, seq int64) error {
	snaps, err := s.Snapshots(ctx, id)
	if err != nil {
		return err
	}
	for _, snap := range snaps {
		if snap.Seq != seq {
			continue
		}
		return s.With(id, func(e *editor.Editor) error {
			return e.ImportJSON([]byte(snap.ValueJSON))
		})
	}
	return errs.New(errs.ErrCodeNotFound, "snapshot %d of document %q not found", seq, id)
}

func (s *EditorService) recordStep(sess *session, ev history.Event) {
	sess.dirty = true
	if s.journal == nil {
		return
	}
	label := ev.Name
	if ev.Kind != history.EventApplied {
		label = fmt.Sprintf("%s:%s", ev.Kind, ev.Name)
	}
	data, err := json.Marshal(sess.editor.Value())
	if err != nil {
		s.logger.Error("marshal snapshot", "document", sess.doc.ID, "err", err)
		return
	}
	if _, err := s.journal.PushSnapshot(sess.ctx, sess.doc.ID, label, string(data)); err != nil {
		s.logger.Error("push snapshot", "document", sess.doc.ID, "label", label, "err", err)
	}
}

// ── Autosave ───────────────────────────────────────────────

// StartAutosave saves dirty sessions on a cron schedule such as
// "@every 30s". An empty schedule disables autosave.
func (s *EditorService) StartAutosave(schedule string) error {
	s.stopAutosave()
	if schedule == "" {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, s.SaveDirty); err != nil {
		return fmt.Errorf("autosave schedule %q: %w", schedule, err)
	}
	c.Start()

	s.mu.Lock()
	s.cronSched = c
	s.mu.Unlock()
	s.logger.Info("autosave scheduled", "schedule", schedule)
	return nil
}

// SaveDirty saves every open document with unsaved changes. A document
// whose previous save is still being written waits for the next tick.
func (s *EditorService) SaveDirty() {
	for _, id := range s.OpenIDs() {
		if s.saves.Busy(id) {
			s.logger.Debug("autosave skipped, save in flight", "document", id)
			continue
		}
		if !s.Dirty(id) {
			continue
		}
		if err := s.Save(context.Background(), id); err != nil {
			s.logger.Error("autosave", "document", id, "err", err)
		}
	}
}

// Stop tears down autosave and waits for saves still running.
func (s *EditorService) Stop(ctx context.Context) {
	s.stopAutosave()
	if !s.saves.Wait(ctx) {
		s.logger.Warn("stopped with saves still in flight")
	}
}

func (s *EditorService) stopAutosave() {
	s.mu.Lock()
	c := s.cronSched
	s.cronSched = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// ── helpers ────────────────────────────────────────────────

func (s *EditorService) session(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, errs.New(errs.ErrCodeNotFound, "document %q is not open", id)
	}
	return sess, nil
}

func (s *EditorService) attachEditor(sess *session, value domain.Value) {
	opts := []editor.Option{
		editor.WithNotifier(s.notifier(sess)),
		editor.WithIDGenerator(s.newID),
		editor.WithLogger(s.logger.With("document", sess.doc.ID)),
	}
	if s.registry != nil {
		opts = append(opts, editor.WithRegistry(s.registry))
	}
	sess.editor = editor.New(value, opts...)
	sess.editor.SetHistoryObserver(func(ev history.Event) { s.recordStep(sess, ev) })
	sess.editor.Init()
}

func (s *EditorService) notifier(sess *session) editor.Notifier {
	id := sess.doc.ID
	return editor.NotifierFuncs{
		OnBlocks: func(v domain.Value) {
			sess.dirty = true
			s.emitter.Emit(sess.ctx, EventBlocksChanged, map[string]any{
				"documentId": id,
				"value":      v,
			})
		},
		OnGuide: func(g align.Guide) {
			s.emitter.Emit(sess.ctx, EventGuideChanged, map[string]any{
				"documentId": id,
				"x":          g.X,
				"y":          g.Y,
			})
		},
	}
}
