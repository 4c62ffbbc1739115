package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"visualeditor/internal/editor"
)

// destructiveCommands need approval when an approval queue is configured.
var destructiveCommands = map[string]bool{
	editor.CmdDelete: true,
	editor.CmdClear:  true,
}

func (s *Server) registerCommandTools() {
	// ── invoke_command ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("invoke_command",
		mcp.WithDescription("Run a registered editor command by name (delete, clear, placeTop, placeBottom, selectAll, undo, redo). delete and clear may require user approval."),
		mcp.WithString("name", mcp.Description("Command name"), mcp.Required()),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
	), s.handleInvokeCommand)

	// ── undo / redo ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last step of the document history"),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
	), s.commandHandler(editor.CmdUndo))
	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the next step of the document history"),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
	), s.commandHandler(editor.CmdRedo))

	// ── place_top / place_bottom ───────────────────────
	s.mcp.AddTool(mcp.NewTool("place_top",
		mcp.WithDescription("Raise the selected blocks above every unselected block"),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
	), s.commandHandler(editor.CmdPlaceTop))
	s.mcp.AddTool(mcp.NewTool("place_bottom",
		mcp.WithDescription("Lower the selected blocks below every unselected block"),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
	), s.commandHandler(editor.CmdPlaceBottom))

	// ── import_value / export_value ────────────────────
	s.mcp.AddTool(mcp.NewTool("import_value",
		mcp.WithDescription("Replace the whole document value with a JSON document {container, blocks}. Malformed input is rejected and nothing changes."),
		mcp.WithString("value", mcp.Description("JSON value"), mcp.Required()),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
	), s.handleImportValue)
	s.mcp.AddTool(mcp.NewTool("export_value",
		mcp.WithDescription("Export the document value as indented JSON"),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
	), s.handleExportValue)
}

// historyResult reports the timeline after a command.
type historyResult struct {
	Command string         `json:"command"`
	Cursor  int            `json:"cursor"`
	Steps   []string       `json:"steps"`
	Blocks  []blockSummary `json:"blocks"`
}

func (s *Server) runCommand(ctx context.Context, documentID, name string) (*mcp.CallToolResult, error) {
	if destructiveCommands[name] {
		if err := s.approve(ctx, name, documentID, fmt.Sprintf("Run %s on document %s", name, documentID)); err != nil {
			return nil, err
		}
	}
	var res historyResult
	err := s.editors.With(documentID, func(e *editor.Editor) error {
		if err := e.Invoke(name); err != nil {
			return err
		}
		h := e.History()
		res = historyResult{
			Command: name,
			Cursor:  h.Cursor,
			Steps:   h.Names,
			Blocks:  summarizeBlocks(e.Value().Blocks),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(res)
}

func (s *Server) commandHandler(name string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := s.resolveDocument(ctx, req)
		if err != nil {
			return nil, err
		}
		return s.runCommand(ctx, id, name)
	}
}

func (s *Server) handleInvokeCommand(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	id, err := s.resolveDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.runCommand(ctx, id, name)
}

func (s *Server) handleImportValue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := req.GetString("value", "")
	if raw == "" {
		return nil, fmt.Errorf("value is required")
	}
	id, err := s.resolveDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.editors.ImportJSON(ctx, id, []byte(raw)); err != nil {
		return nil, err
	}
	v, err := s.editors.Value(id)
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Imported %d block(s) into %s", len(v.Blocks), id)), nil
}

func (s *Server) handleExportValue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	var data []byte
	err = s.editors.With(id, func(e *editor.Editor) error {
		var err error
		data, err = e.ExportJSON()
		return err
	})
	if err != nil {
		return nil, err
	}
	return textResult(string(data)), nil
}
