package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerDocumentTools() {
	// ── list_documents ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List all stored canvas documents, most recently updated first"),
	), s.handleListDocuments)

	// ── create_document ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_document",
		mcp.WithDescription("Create an empty canvas document and make it the active document"),
		mcp.WithString("name", mcp.Description("Name of the new document"), mcp.Required()),
	), s.handleCreateDocument)

	// ── set_active_document ────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_active_document",
		mcp.WithDescription("Open a document and make it the default for subsequent tool calls"),
		mcp.WithString("documentId", mcp.Description("ID of the document"), mcp.Required()),
	), s.handleSetActiveDocument)

	// ── save_document ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("save_document",
		mcp.WithDescription("Persist the current value of an open document"),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
	), s.handleSaveDocument)

	// ── delete_document (destructive) ──────────────────
	s.mcp.AddTool(mcp.NewTool("delete_document",
		mcp.WithDescription("DESTRUCTIVE: Delete a document and its snapshot journal. May require user approval."),
		mcp.WithString("documentId", mcp.Description("Document ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteDocument)

	// ── list_snapshots ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_snapshots",
		mcp.WithDescription("List the persisted snapshot journal of a document, oldest first"),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
	), s.handleListSnapshots)

	// ── restore_snapshot ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("restore_snapshot",
		mcp.WithDescription("Replace the document value with a journal entry. The restore can be undone."),
		mcp.WithNumber("seq", mcp.Description("Sequence number from list_snapshots"), mcp.Required()),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
	), s.handleRestoreSnapshot)
}

func boolPtr(v bool) *bool { return &v }

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.editors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	type summary struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		UpdatedAt string `json:"updatedAt"`
		Open      bool   `json:"open"`
	}
	out := make([]summary, len(docs))
	for i, d := range docs {
		out[i] = summary{
			ID:        d.ID,
			Name:      d.Name,
			UpdatedAt: d.UpdatedAt.Format(time.RFC3339),
			Open:      s.editors.IsOpen(d.ID),
		}
	}
	return jsonResult(out)
}

func (s *Server) handleCreateDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	doc, err := s.editors.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	if _, err := s.editors.Open(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	s.setActiveDocument(doc.ID)
	return jsonResult(map[string]string{"id": doc.ID, "name": doc.Name})
}

func (s *Server) handleSetActiveDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("documentId", "")
	if id == "" {
		return nil, fmt.Errorf("documentId is required")
	}
	if _, err := s.editors.Open(ctx, id); err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	s.setActiveDocument(id)
	return textResult(fmt.Sprintf("Active document set to %s", id)), nil
}

func (s *Server) handleSaveDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.editors.Save(ctx, id); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Saved %s", id)), nil
}

func (s *Server) handleDeleteDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("documentId", "")
	if id == "" {
		return nil, fmt.Errorf("documentId is required")
	}
	if err := s.approve(ctx, "delete_document", id, fmt.Sprintf("Delete document %s", id)); err != nil {
		return nil, err
	}
	if err := s.editors.Delete(ctx, id); err != nil {
		return nil, err
	}
	if s.ActiveDocument() == id {
		s.setActiveDocument("")
	}
	return textResult(fmt.Sprintf("Deleted %s", id)), nil
}

func (s *Server) handleListSnapshots(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	snaps, err := s.editors.Snapshots(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	type summary struct {
		Seq       int64  `json:"seq"`
		Label     string `json:"label"`
		CreatedAt string `json:"createdAt"`
	}
	out := make([]summary, len(snaps))
	for i, sn := range snaps {
		out[i] = summary{Seq: sn.Seq, Label: sn.Label, CreatedAt: sn.CreatedAt.Format(time.RFC3339)}
	}
	return jsonResult(out)
}

func (s *Server) handleRestoreSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	seq, ok := req.GetArguments()["seq"].(float64)
	if !ok {
		return nil, fmt.Errorf("seq is required")
	}
	if err := s.editors.RestoreSnapshot(ctx, id, int64(seq)); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Restored snapshot %d of %s", int64(seq), id)), nil
}
