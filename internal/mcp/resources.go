package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	documentsURI      = "visualeditor://documents"
	documentURIPrefix = "visualeditor://document/"
	documentURISuffix = "/value"
)

func (s *Server) registerResources() {
	// ── visualeditor://documents ───────────────────────
	s.mcp.AddResource(mcp.NewResource(
		documentsURI,
		"All Documents",
		mcp.WithMIMEType("application/json"),
	), s.handleDocumentsResource)

	// ── visualeditor://document/{id}/value ─────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			documentURIPrefix+"{documentId}"+documentURISuffix,
			"Value of a Document",
		),
		s.handleDocumentValueResource,
	)
}

func (s *Server) handleDocumentsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	docs, err := s.editors.List(ctx)
	if err != nil {
		return nil, err
	}

	type documentSummary struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	summaries := make([]documentSummary, len(docs))
	for i, d := range docs {
		summaries[i] = documentSummary{ID: d.ID, Name: d.Name}
	}

	data, _ := json.MarshalIndent(summaries, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      documentsURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleDocumentValueResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := documentIDFromURI(uri)
	if id == "" {
		return nil, fmt.Errorf("could not extract documentId from URI: %s", uri)
	}
	if !s.editors.IsOpen(id) {
		if _, err := s.editors.Open(ctx, id); err != nil {
			return nil, err
		}
	}
	v, err := s.editors.Value(id)
	if err != nil {
		return nil, err
	}

	data, _ := json.MarshalIndent(v, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// documentIDFromURI extracts the ID from "visualeditor://document/{id}/value".
func documentIDFromURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, documentURIPrefix)
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, documentURISuffix)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
