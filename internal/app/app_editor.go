package app

import (
	"visualeditor/internal/domain"
	"visualeditor/internal/editor"
	"visualeditor/internal/errs"
	"visualeditor/internal/gesture"
	"visualeditor/internal/history"
)

// ============================================================
// Commands and history
// ============================================================

// with runs fn against the editor of an open document.
func (a *App) with(documentID string, fn func(*editor.Editor) error) error {
	if err := a.ready(); err != nil {
		return err
	}
	return a.editors.With(documentID, fn)
}

func (a *App) Invoke(documentID, name string) error {
	return a.with(documentID, func(e *editor.Editor) error {
		return e.Invoke(name)
	})
}

func (a *App) Undo(documentID string) error {
	return a.with(documentID, func(e *editor.Editor) error { return e.Undo() })
}

func (a *App) Redo(documentID string) error {
	return a.with(documentID, func(e *editor.Editor) error { return e.Redo() })
}

func (a *App) History(documentID string) (history.State, error) {
	var st history.State
	err := a.with(documentID, func(e *editor.Editor) error {
		st = e.History()
		return nil
	})
	return st, err
}

// ListCommands returns the command names registered on a document.
func (a *App) ListCommands(documentID string) ([]string, error) {
	var names []string
	err := a.with(documentID, func(e *editor.Editor) error {
		names = e.Commands()
		return nil
	})
	return names, err
}

// KeyDown dispatches a shortcut. When it returns true the frontend should
// call preventDefault and stopPropagation.
func (a *App) KeyDown(documentID string, ev history.KeyEvent) (bool, error) {
	var handled bool
	err := a.with(documentID, func(e *editor.Editor) error {
		var err error
		handled, err = e.KeyDown(ev)
		return err
	})
	return handled, err
}

// ============================================================
// Selection
// ============================================================

func (a *App) SelectBlock(documentID, blockID string, multi bool) error {
	return a.with(documentID, func(e *editor.Editor) error {
		return e.Select(blockID, multi)
	})
}

func (a *App) ClearSelection(documentID string) error {
	return a.with(documentID, func(e *editor.Editor) error {
		e.ClearFocus()
		return nil
	})
}

// ============================================================
// Pointer gestures
// ============================================================

func (a *App) PointerDownBlock(documentID, blockID string, ev gesture.PointerEvent, multi bool) error {
	return a.with(documentID, func(e *editor.Editor) error {
		return e.PointerDownBlock(ev, blockID, multi)
	})
}

// BeginResize starts a resize from a named handle such as "bottom-right".
func (a *App) BeginResize(documentID, blockID, anchor string, ev gesture.PointerEvent) error {
	an, ok := gesture.AnchorFromName(anchor)
	if !ok {
		return errs.New(errs.ErrCodeInvalidInput, "unknown anchor %q", anchor)
	}
	return a.with(documentID, func(e *editor.Editor) error {
		return e.BeginResize(ev, an, blockID)
	})
}

func (a *App) PointerMove(documentID string, ev gesture.PointerEvent) error {
	return a.with(documentID, func(e *editor.Editor) error {
		e.PointerMove(ev)
		return nil
	})
}

// PointerUp ends the gesture and reports whether any block changed.
func (a *App) PointerUp(documentID string) (bool, error) {
	var changed bool
	err := a.with(documentID, func(e *editor.Editor) error {
		changed = e.PointerUp()
		return nil
	})
	return changed, err
}

func (a *App) Scroll(documentID string, top float64) error {
	return a.with(documentID, func(e *editor.Editor) error {
		e.Scroll(top)
		return nil
	})
}

// ============================================================
// Drop, measure, edit
// ============================================================

// DropComponent places a palette component at the drop point; the frontend
// reports its rendered size through MeasureBlock, which centres it.
func (a *App) DropComponent(documentID, componentKey string, x, y float64) (domain.Block, error) {
	var b domain.Block
	err := a.with(documentID, func(e *editor.Editor) error {
		var err error
		b, err = e.Drop(componentKey, x, y)
		return err
	})
	return b, err
}

func (a *App) MeasureBlock(documentID, blockID string, width, height float64) error {
	return a.with(documentID, func(e *editor.Editor) error {
		return e.Measure(blockID, width, height)
	})
}

// UpdateBlock replaces block oldID, e.g. after the props panel edited it.
func (a *App) UpdateBlock(documentID string, block domain.Block, oldID string) error {
	return a.with(documentID, func(e *editor.Editor) error {
		return e.UpdateBlock(block, oldID)
	})
}

func (a *App) UpdateValue(documentID string, v domain.Value) error {
	return a.with(documentID, func(e *editor.Editor) error {
		return e.UpdateValue(v)
	})
}
