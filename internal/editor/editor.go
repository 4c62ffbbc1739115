// Package editor binds one canvas Value to its command history and gesture
// controller. It is the surface hosts drive: pointer and keyboard input,
// drops from the palette, measurements from the renderer, and JSON
// import/export.
//
// An Editor is not safe for concurrent use; the document service serialises
// access per session.
package editor

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"visualeditor/internal/align"
	"visualeditor/internal/domain"
	"visualeditor/internal/errs"
	"visualeditor/internal/geometry"
	"visualeditor/internal/gesture"
	"visualeditor/internal/history"
	"visualeditor/internal/logging"
)

// Notifier receives every state change the host must render.
// Values are deep copies and may be retained.
type Notifier interface {
	BlocksChanged(v domain.Value)
	GuideChanged(g align.Guide)
}

// NotifierFuncs adapts two functions to Notifier. Nil fields are skipped.
type NotifierFuncs struct {
	OnBlocks func(domain.Value)
	OnGuide  func(align.Guide)
}

func (n NotifierFuncs) BlocksChanged(v domain.Value) {
	if n.OnBlocks != nil {
		n.OnBlocks(v)
	}
}

func (n NotifierFuncs) GuideChanged(g align.Guide) {
	if n.OnGuide != nil {
		n.OnGuide(g)
	}
}

// Option configures an Editor.
type Option func(*Editor)

// WithNotifier sets the change receiver.
func WithNotifier(n Notifier) Option {
	return func(e *Editor) { e.notifier = n }
}

// WithRegistry makes Drop reject component keys the registry does not know.
func WithRegistry(r *domain.ComponentRegistry) Option {
	return func(e *Editor) { e.registry = r }
}

// WithIDGenerator replaces uuid.NewString for new block IDs.
func WithIDGenerator(fn func() string) Option {
	return func(e *Editor) { e.newID = fn }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// Editor is one editing session over a Value.
type Editor struct {
	value    domain.Value
	history  *history.Manager
	gesture  *gesture.Controller
	registry *domain.ComponentRegistry
	notifier Notifier
	newID    func() string
	logger   *log.Logger
}

// New creates an editor over a copy of value with the built-in commands
// registered. Call Init before dispatching keyboard input.
func New(value domain.Value, opts ...Option) *Editor {
	e := &Editor{
		value:    geometry.CloneValue(value),
		history:  history.New(),
		notifier: NotifierFuncs{},
		newID:    uuid.NewString,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.gesture = gesture.New(e.notifyBlocks, e.notifier.GuideChanged)
	e.registerBuiltins()
	return e
}

// Init runs the command init hooks and enables keyboard dispatch.
// It reports false if the editor was already initialized.
func (e *Editor) Init() bool {
	return e.history.Init()
}

// Close finishes any gesture and tears down the command hooks.
func (e *Editor) Close() {
	e.PointerUp()
	e.history.Destroy()
}

// Value returns a deep copy of the current Value.
func (e *Editor) Value() domain.Value {
	return geometry.CloneValue(e.value)
}

// History returns the timeline state.
func (e *Editor) History() history.State {
	return e.history.State()
}

// Commands returns the registered command names in registration order.
func (e *Editor) Commands() []string {
	return e.history.Names()
}

// RegisterCommand adds or replaces a command.
func (e *Editor) RegisterCommand(cmd history.Command) {
	e.history.Register(cmd)
}

// SetHistoryObserver forwards timeline moves to fn.
func (e *Editor) SetHistoryObserver(fn func(history.Event)) {
	e.history.SetObserver(fn)
}

// Invoke runs a command by name. A gesture in progress is finished first.
func (e *Editor) Invoke(name string, args ...any) error {
	e.PointerUp()
	return e.history.Invoke(name, args...)
}

// Undo reverts the last applied command.
func (e *Editor) Undo() error { return e.Invoke("undo") }

// Redo re-applies the next command.
func (e *Editor) Redo() error { return e.Invoke("redo") }

// UpdateValue replaces the whole Value as one undoable step.
func (e *Editor) UpdateValue(v domain.Value) error { return e.Invoke("updateValue", v) }

// UpdateBlock replaces the block oldID as one undoable step.
func (e *Editor) UpdateBlock(b domain.Block, oldID string) error {
	return e.Invoke("updateBlock", b, oldID)
}

// KeyDown dispatches a keyboard shortcut. It reports whether a command
// matched, in which case the host should prevent the default action.
func (e *Editor) KeyDown(ev history.KeyEvent) (bool, error) {
	if ev.TargetIsBody {
		e.PointerUp()
	}
	return e.history.Dispatch(ev)
}

// ── Selection ──────────────────────────────────────────────

// Select applies a click on block id. With multi the block's focus is
// toggled. Otherwise an unfocused block becomes the only selection and an
// already focused block keeps the current selection so it can be dragged
// as a group.
func (e *Editor) Select(id string, multi bool) error {
	i := geometry.IndexOf(e.value.Blocks, id)
	if i < 0 {
		return errs.New(errs.ErrCodeNotFound, "block %q not found", id)
	}
	blocks := e.value.Blocks
	switch {
	case multi:
		blocks[i].Focus = !blocks[i].Focus
	case !blocks[i].Focus:
		for j := range blocks {
			blocks[j].Focus = j == i
		}
	default:
		return nil
	}
	e.notifyBlocks()
	return nil
}

// SelectOnly focuses exactly the given blocks.
func (e *Editor) SelectOnly(ids ...string) error {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		if geometry.IndexOf(e.value.Blocks, id) < 0 {
			return errs.New(errs.ErrCodeNotFound, "block %q not found", id)
		}
		want[id] = true
	}
	for i := range e.value.Blocks {
		e.value.Blocks[i].Focus = want[e.value.Blocks[i].ID]
	}
	e.notifyBlocks()
	return nil
}

// ClearFocus unselects every block, as a click on empty canvas does.
func (e *Editor) ClearFocus() {
	changed := false
	for i := range e.value.Blocks {
		if e.value.Blocks[i].Focus {
			e.value.Blocks[i].Focus = false
			changed = true
		}
	}
	if changed {
		e.notifyBlocks()
	}
}

// ── Gestures ───────────────────────────────────────────────

// PointerDownBlock handles a pointer-down on block id: the click selection
// rules of Select apply, then a move gesture starts if the block is focused.
func (e *Editor) PointerDownBlock(ev gesture.PointerEvent, id string, multi bool) error {
	if err := e.Select(id, multi); err != nil {
		return err
	}
	if !e.value.Blocks[geometry.IndexOf(e.value.Blocks, id)].Focus {
		return nil
	}
	return e.BeginMove(ev, id)
}

// BeginMove starts dragging the focused blocks with id as the primary.
func (e *Editor) BeginMove(ev gesture.PointerEvent, id string) error {
	return e.gesture.BeginMove(ev, id, e.pointers())
}

// BeginResize starts resizing block id from anchor.
func (e *Editor) BeginResize(ev gesture.PointerEvent, anchor gesture.Anchor, id string) error {
	return e.gesture.BeginResize(ev, anchor, id, e.pointers())
}

// PointerMove feeds a pointer-move to the active gesture.
func (e *Editor) PointerMove(ev gesture.PointerEvent) {
	e.gesture.Move(ev)
}

// PointerUp ends the active gesture, committing a drag entry when blocks
// moved. It is safe to call without a gesture.
func (e *Editor) PointerUp() bool {
	return e.gesture.End()
}

// Scroll reports the canvas scroll offset.
func (e *Editor) Scroll(top float64) {
	e.gesture.Scroll(top)
}

// Gesture returns the current gesture mode.
func (e *Editor) Gesture() gesture.Mode {
	return e.gesture.Mode()
}

func (e *Editor) pointers() []*domain.Block {
	out := make([]*domain.Block, len(e.value.Blocks))
	for i := range e.value.Blocks {
		out[i] = &e.value.Blocks[i]
	}
	return out
}

// ── Drop and measure ───────────────────────────────────────

// Drop appends a new block for componentKey at the drop point. The block is
// recentred on that point by the first Measure. Drops are not recorded in
// history.
func (e *Editor) Drop(componentKey string, offsetX, offsetY float64) (domain.Block, error) {
	if componentKey == "" {
		return domain.Block{}, errs.New(errs.ErrCodeInvalidInput, "component key is required")
	}
	if e.registry != nil {
		if _, ok := e.registry.Get(componentKey); !ok {
			return domain.Block{}, errs.New(errs.ErrCodeNotFound, "component %q not registered", componentKey)
		}
	}
	e.PointerUp()
	b := geometry.NewDropBlock(e.newID(), componentKey, offsetX, offsetY)
	e.value.Blocks = append(e.value.Blocks, b)
	e.logger.Debug("block dropped", "id", b.ID, "component", componentKey, "x", offsetX, "y", offsetY)
	e.notifyBlocks()
	return b, nil
}

// Measure records the rendered size of block id.
func (e *Editor) Measure(id string, width, height float64) error {
	if width < 0 || height < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "measured size must not be negative")
	}
	i := geometry.IndexOf(e.value.Blocks, id)
	if i < 0 {
		return errs.New(errs.ErrCodeNotFound, "block %q not found", id)
	}
	if geometry.ApplyMeasure(&e.value.Blocks[i], width, height) {
		e.notifyBlocks()
	}
	return nil
}

// ── Import / export ────────────────────────────────────────

// ImportJSON replaces the Value with the decoded document as one undoable
// step. A malformed document leaves the Value unchanged.
func (e *Editor) ImportJSON(data []byte) error {
	v, err := geometry.ParseValue(data, e.newID)
	if err != nil {
		return err
	}
	return e.UpdateValue(v)
}

// ExportJSON returns the indented JSON form of the Value.
func (e *Editor) ExportJSON() ([]byte, error) {
	data, err := json.MarshalIndent(e.value, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return data, nil
}

func (e *Editor) setBlocks(blocks []domain.Block) {
	e.value.Blocks = geometry.CloneBlocks(blocks)
	e.notifyBlocks()
}

func (e *Editor) notifyBlocks() {
	e.notifier.BlocksChanged(geometry.CloneValue(e.value))
}
