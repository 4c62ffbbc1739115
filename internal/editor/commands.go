package editor

import (
	"errors"
	"fmt"

	"visualeditor/internal/domain"
	"visualeditor/internal/geometry"
	"visualeditor/internal/history"
	"visualeditor/internal/layer"
)

// Built-in command names.
const (
	CmdUndo        = "undo"
	CmdRedo        = "redo"
	CmdDelete      = "delete"
	CmdClear       = "clear"
	CmdPlaceTop    = "placeTop"
	CmdPlaceBottom = "placeBottom"
	CmdDrag        = "drag"
	CmdSelectAll   = "selectAll"
	CmdUpdateValue = "updateValue"
	CmdUpdateBlock = "updateBlock"
)

func (e *Editor) registerBuiltins() {
	e.history.Register(history.Command{
		Name:     CmdDelete,
		Keyboard: []string{"delete", "ctrl+d", "backspace"},
		Execute: func(...any) history.Action {
			return e.replaceBlocks(geometry.Unfocused(e.value.Blocks))
		},
	})

	e.history.Register(history.Command{
		Name: CmdClear,
		Execute: func(...any) history.Action {
			return e.replaceBlocks([]domain.Block{})
		},
	})

	e.history.Register(history.Command{
		Name:     CmdPlaceTop,
		Keyboard: []string{"ctrl+up"},
		Execute: func(...any) history.Action {
			after := geometry.CloneBlocks(e.value.Blocks)
			layer.PlaceTop(after)
			return e.replaceBlocks(after)
		},
	})

	e.history.Register(history.Command{
		Name:     CmdPlaceBottom,
		Keyboard: []string{"ctrl+down"},
		Execute: func(...any) history.Action {
			after := geometry.CloneBlocks(e.value.Blocks)
			layer.PlaceBottom(after)
			return e.replaceBlocks(after)
		},
	})

	e.registerDrag()

	// selectAll is not recorded and cannot be undone.
	e.history.Register(history.Command{
		Name:        CmdSelectAll,
		Keyboard:    []string{"ctrl+a"},
		SkipHistory: true,
		Execute: func(...any) history.Action {
			return history.Action{Redo: func() {
				for i := range e.value.Blocks {
					e.value.Blocks[i].Focus = true
				}
				e.notifyBlocks()
			}}
		},
	})

	e.history.Register(history.Command{
		Name: CmdUpdateValue,
		Check: func(args ...any) error {
			if len(args) != 1 {
				return errors.New("want one domain.Value argument")
			}
			v, ok := args[0].(domain.Value)
			if !ok {
				return fmt.Errorf("want domain.Value, got %T", args[0])
			}
			return geometry.Validate(v)
		},
		Execute: func(args ...any) history.Action {
			after := geometry.CloneValue(args[0].(domain.Value))
			geometry.AssignIDs(after.Blocks, e.newID)
			before := geometry.CloneValue(e.value)
			return history.Action{
				Redo: func() { e.setValue(after) },
				Undo: func() { e.setValue(before) },
			}
		},
	})

	e.history.Register(history.Command{
		Name: CmdUpdateBlock,
		Check: func(args ...any) error {
			if len(args) != 2 {
				return errors.New("want (domain.Block, oldID string) arguments")
			}
			if _, ok := args[0].(domain.Block); !ok {
				return fmt.Errorf("want domain.Block, got %T", args[0])
			}
			oldID, ok := args[1].(string)
			if !ok {
				return fmt.Errorf("want block id string, got %T", args[1])
			}
			if geometry.IndexOf(e.value.Blocks, oldID) < 0 {
				return fmt.Errorf("block %q not found", oldID)
			}
			return nil
		},
		Execute: func(args ...any) history.Action {
			next := geometry.CloneBlock(args[0].(domain.Block))
			oldID := args[1].(string)
			if next.ID == "" {
				next.ID = oldID
			}
			after := geometry.CloneBlocks(e.value.Blocks)
			after[geometry.IndexOf(after, oldID)] = next
			return e.replaceBlocks(after)
		},
	})
}

// registerDrag wires the drag command to the gesture controller: the block
// list is captured when a gesture starts and, if the placement changed, a
// drag entry is recorded when it ends.
func (e *Editor) registerDrag() {
	var before []domain.Block
	e.history.Register(history.Command{
		Name: CmdDrag,
		Init: func() func() {
			offStart := e.gesture.OnStart.On(func() {
				before = geometry.CloneBlocks(e.value.Blocks)
			})
			offEnd := e.gesture.OnEnd.On(func() {
				start := before
				before = nil
				if start == nil || geometry.SamePlacement(start, e.value.Blocks) {
					return
				}
				if err := e.history.Invoke(CmdDrag, start); err != nil {
					e.logger.Warn("record drag", "err", err)
				}
			})
			return func() {
				offStart()
				offEnd()
			}
		},
		Check: func(args ...any) error {
			if len(args) != 1 {
				return errors.New("want the block list captured at gesture start")
			}
			if _, ok := args[0].([]domain.Block); !ok {
				return fmt.Errorf("want []domain.Block, got %T", args[0])
			}
			return nil
		},
		Execute: func(args ...any) history.Action {
			start := geometry.CloneBlocks(args[0].([]domain.Block))
			after := geometry.CloneBlocks(e.value.Blocks)
			return history.Action{
				Redo: func() { e.setBlocks(after) },
				Undo: func() { e.setBlocks(start) },
			}
		},
	})
}

// replaceBlocks builds the action that swaps the current block list for
// after, restoring a snapshot of the current list on undo.
func (e *Editor) replaceBlocks(after []domain.Block) history.Action {
	before := geometry.CloneBlocks(e.value.Blocks)
	after = geometry.CloneBlocks(after)
	return history.Action{
		Redo: func() { e.setBlocks(after) },
		Undo: func() { e.setBlocks(before) },
	}
}

func (e *Editor) setValue(v domain.Value) {
	e.value = geometry.CloneValue(v)
	e.notifyBlocks()
}
