package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"visualeditor/internal/domain"
	"visualeditor/internal/editor"
	"visualeditor/internal/errs"
	"visualeditor/internal/geometry"
	"visualeditor/internal/gesture"
)

// fallbackSize is used for components without a default size.
var fallbackSize = domain.Size{Width: 100, Height: 40}

func (s *Server) registerBlockTools() {
	// ── get_value ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_value",
		mcp.WithDescription("Get the container size and every block of a document"),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
	), s.handleGetValue)

	// ── list_components ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_components",
		mcp.WithDescription("List the component palette: keys, resize capabilities, props and default sizes"),
	), s.handleListComponents)

	// ── drop_component ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("drop_component",
		mcp.WithDescription("Drop a palette component on the canvas. Without x/y the block is placed in the first free spot."),
		mcp.WithString("componentKey", mcp.Description("Palette key, e.g. text, button, input, select, number-range, image"), mcp.Required()),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
		mcp.WithNumber("x", mcp.Description("Drop point X; the block is centred on it (optional)")),
		mcp.WithNumber("y", mcp.Description("Drop point Y; the block is centred on it (optional)")),
		mcp.WithNumber("width", mcp.Description("Width (optional, uses the component default)")),
		mcp.WithNumber("height", mcp.Description("Height (optional, uses the component default)")),
	), s.handleDropComponent)

	// ── select_blocks ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("select_blocks",
		mcp.WithDescription("Focus exactly the given blocks. An empty list clears the selection."),
		mcp.WithString("blockIds", mcp.Description("Comma-separated block IDs")),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
	), s.handleSelectBlocks)

	// ── move_blocks ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_blocks",
		mcp.WithDescription("Drag blocks by (dx, dy) as one gesture. Alignment snapping applies; the move is one undo step."),
		mcp.WithString("blockIds", mcp.Description("Comma-separated block IDs; the first one leads the drag"), mcp.Required()),
		mcp.WithNumber("dx", mcp.Description("Horizontal offset"), mcp.Required()),
		mcp.WithNumber("dy", mcp.Description("Vertical offset"), mcp.Required()),
		mcp.WithBoolean("shift", mcp.Description("Constrain to the dominant axis (optional)")),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
	), s.handleMoveBlocks)

	// ── resize_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("resize_block",
		mcp.WithDescription("Drag a resize anchor of a block by (dx, dy). The resize is one undo step."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("anchor", mcp.Description("top, bottom, left, right, top-left, top-right, bottom-left or bottom-right"), mcp.Required()),
		mcp.WithNumber("dx", mcp.Description("Horizontal pointer offset"), mcp.Required()),
		mcp.WithNumber("dy", mcp.Description("Vertical pointer offset"), mcp.Required()),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
	), s.handleResizeBlock)

	// ── arrange_blocks ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("arrange_blocks",
		mcp.WithDescription("Lay every block out in rows within the container width, as one undo step"),
		mcp.WithNumber("startX", mcp.Description("Starting X position (default 0)")),
		mcp.WithNumber("startY", mcp.Description("Starting Y position (default 0)")),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
	), s.handleArrangeBlocks)

	// ── update_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_block",
		mcp.WithDescription("Merge props and model bindings into a block, as one undo step"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("props", mcp.Description("JSON object merged into the block props (optional)")),
		mcp.WithString("model", mcp.Description("JSON object merged into the block model (optional)")),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
	), s.handleUpdateBlock)
}

// blockSummary is the agent-facing view of a block.
type blockSummary struct {
	ID           string  `json:"id"`
	ComponentKey string  `json:"componentKey"`
	Left         float64 `json:"left"`
	Top          float64 `json:"top"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	ZIndex       int     `json:"zIndex"`
	Focus        bool    `json:"focus"`
}

func summarizeBlock(b domain.Block) blockSummary {
	return blockSummary{
		ID:           b.ID,
		ComponentKey: b.ComponentKey,
		Left:         b.Left,
		Top:          b.Top,
		Width:        b.Width,
		Height:       b.Height,
		ZIndex:       b.ZIndex,
		Focus:        b.Focus,
	}
}

func summarizeBlocks(blocks []domain.Block) []blockSummary {
	out := make([]blockSummary, len(blocks))
	for i, b := range blocks {
		out[i] = summarizeBlock(b)
	}
	return out
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleGetValue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	v, err := s.editors.Value(id)
	if err != nil {
		return nil, err
	}
	return jsonResult(v)
}

func (s *Server) handleListComponents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reg := s.editors.Registry()
	if reg == nil {
		return jsonResult([]domain.Component{})
	}
	return jsonResult(reg.List())
}

func (s *Server) componentSize(key string) (domain.Size, error) {
	reg := s.editors.Registry()
	if reg == nil {
		return fallbackSize, nil
	}
	c, ok := reg.Get(key)
	if !ok {
		return domain.Size{}, errs.New(errs.ErrCodeNotFound, "component %q not registered", key)
	}
	if c.DefaultSize.Width <= 0 || c.DefaultSize.Height <= 0 {
		return fallbackSize, nil
	}
	return c.DefaultSize, nil
}

func (s *Server) handleDropComponent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	args := req.GetArguments()
	key, _ := args["componentKey"].(string)
	if key == "" {
		return nil, fmt.Errorf("componentKey is required")
	}
	size, err := s.componentSize(key)
	if err != nil {
		return nil, err
	}
	if w, ok := args["width"].(float64); ok && w > 0 {
		size.Width = w
	}
	if h, ok := args["height"].(float64); ok && h > 0 {
		size.Height = h
	}

	var dropped domain.Block
	err = s.editors.With(id, func(e *editor.Editor) error {
		v := e.Value()
		x, hasX := args["x"].(float64)
		y, hasY := args["y"].(float64)
		if !hasX || !hasY {
			left, top := s.layout.NextPosition(v.Container, v.Blocks, size.Width, size.Height)
			x, y = left+size.Width/2, top+size.Height/2
		}
		b, err := e.Drop(key, x, y)
		if err != nil {
			return err
		}
		if err := e.Measure(b.ID, size.Width, size.Height); err != nil {
			return err
		}
		v = e.Value()
		dropped = v.Blocks[geometry.IndexOf(v.Blocks, b.ID)]
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("component dropped", "document", id, "component", key, "block", dropped.ID)
	return jsonResult(summarizeBlock(dropped))
}

func (s *Server) handleSelectBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	ids := splitIDs(req.GetString("blockIds", ""))
	err = s.editors.With(id, func(e *editor.Editor) error {
		if len(ids) == 0 {
			e.ClearFocus()
			return nil
		}
		return e.SelectOnly(ids...)
	})
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Selected %d block(s)", len(ids))), nil
}

func (s *Server) handleMoveBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	args := req.GetArguments()
	ids := splitIDs(req.GetString("blockIds", ""))
	if len(ids) == 0 {
		return nil, fmt.Errorf("blockIds is required")
	}
	dx, okX := args["dx"].(float64)
	dy, okY := args["dy"].(float64)
	if !okX || !okY {
		return nil, fmt.Errorf("dx and dy are required")
	}
	shift, _ := args["shift"].(bool)

	var moved []domain.Block
	err = s.editors.With(id, func(e *editor.Editor) error {
		if err := e.SelectOnly(ids...); err != nil {
			return err
		}
		// the controller reads shift once, when the gesture starts
		if err := e.BeginMove(gesture.PointerEvent{Shift: shift}, ids[0]); err != nil {
			return err
		}
		e.PointerMove(gesture.PointerEvent{ClientX: dx, ClientY: dy, Shift: shift})
		e.PointerUp()
		moved = pick(e.Value().Blocks, ids)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizeBlocks(moved))
}

func (s *Server) handleResizeBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	args := req.GetArguments()
	blockID, _ := args["blockId"].(string)
	if blockID == "" {
		return nil, fmt.Errorf("blockId is required")
	}
	anchor, ok := gesture.AnchorFromName(req.GetString("anchor", ""))
	if !ok {
		return nil, errs.New(errs.ErrCodeInvalidInput, "unknown anchor %q", req.GetString("anchor", ""))
	}
	dx, okX := args["dx"].(float64)
	dy, okY := args["dy"].(float64)
	if !okX || !okY {
		return nil, fmt.Errorf("dx and dy are required")
	}

	var resized []domain.Block
	err = s.editors.With(id, func(e *editor.Editor) error {
		v := e.Value()
		i := geometry.IndexOf(v.Blocks, blockID)
		if i < 0 {
			return errs.New(errs.ErrCodeNotFound, "block %q not found", blockID)
		}
		if err := s.checkResizable(v.Blocks[i].ComponentKey, anchor); err != nil {
			return err
		}
		if err := e.BeginResize(gesture.PointerEvent{}, anchor, blockID); err != nil {
			return err
		}
		e.PointerMove(gesture.PointerEvent{ClientX: dx, ClientY: dy})
		e.PointerUp()
		resized = pick(e.Value().Blocks, []string{blockID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizeBlock(resized[0]))
}

// checkResizable rejects anchors that drag an axis the component cannot be
// resized on.
func (s *Server) checkResizable(key string, anchor gesture.Anchor) error {
	reg := s.editors.Registry()
	if reg == nil {
		return nil
	}
	c, ok := reg.Get(key)
	if !ok {
		return nil
	}
	if anchor.Horizontal != gesture.Center && !c.Resize.Width {
		return errs.New(errs.ErrCodeInvalidInput, "component %q cannot be resized horizontally", key)
	}
	if anchor.Vertical != gesture.Center && !c.Resize.Height {
		return errs.New(errs.ErrCodeInvalidInput, "component %q cannot be resized vertically", key)
	}
	return nil
}

func (s *Server) handleArrangeBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	args := req.GetArguments()
	startX, _ := args["startX"].(float64)
	startY, _ := args["startY"].(float64)

	var arranged []domain.Block
	err = s.editors.With(id, func(e *editor.Editor) error {
		v := e.Value()
		s.layout.ArrangeGroup(v.Container, v.Blocks, startX, startY)
		if err := e.UpdateValue(v); err != nil {
			return err
		}
		arranged = e.Value().Blocks
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizeBlocks(arranged))
}

func (s *Server) handleUpdateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	blockID := req.GetString("blockId", "")
	if blockID == "" {
		return nil, fmt.Errorf("blockId is required")
	}
	var props, model map[string]any
	if raw := req.GetString("props", ""); raw != "" {
		if err := parseJSON(raw, &props); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "props must be a JSON object")
		}
	}
	if raw := req.GetString("model", ""); raw != "" {
		if err := parseJSON(raw, &model); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "model must be a JSON object")
		}
	}

	var updated domain.Block
	err = s.editors.With(id, func(e *editor.Editor) error {
		v := e.Value()
		i := geometry.IndexOf(v.Blocks, blockID)
		if i < 0 {
			return errs.New(errs.ErrCodeNotFound, "block %q not found", blockID)
		}
		b := v.Blocks[i]
		b.Props = merge(b.Props, props)
		b.Model = merge(b.Model, model)
		if err := e.UpdateBlock(b, blockID); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(updated)
}

func pick(blocks []domain.Block, ids []string) []domain.Block {
	out := make([]domain.Block, 0, len(ids))
	for _, id := range ids {
		if i := geometry.IndexOf(blocks, id); i >= 0 {
			out = append(out, blocks[i])
		}
	}
	return out
}

func merge(dst, src map[string]any) map[string]any {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
