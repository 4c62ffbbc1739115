// Package mcpserver exposes the editor to AI agents over the Model Context
// Protocol: documents, the component palette, pointer gestures and the
// command history.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"visualeditor/internal/logging"
	"visualeditor/internal/service"
)

// Server is the MCP server for the editor.
type Server struct {
	mcp      *server.MCPServer
	emitter  EventEmitter
	approval *ApprovalQueue
	layout   *LayoutEngine
	editors  *service.EditorService
	logger   *log.Logger

	mu               sync.Mutex
	activeDocumentID string
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Name    string
	Version string
	Emitter EventEmitter
	Editors *service.EditorService
	Logger  *log.Logger
	// RequireApproval routes clear/delete through the approval queue. Only
	// meaningful when a frontend is attached to answer.
	RequireApproval bool
	ApprovalTimeout time.Duration
}

// New creates and configures a new MCP server with all tools and resources.
func New(ctx context.Context, deps Deps) *Server {
	if deps.Name == "" {
		deps.Name = "visualeditor-mcp"
	}
	if deps.Version == "" {
		deps.Version = "1.0.0"
	}
	if deps.Emitter == nil {
		deps.Emitter = service.NoopEmitter{}
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if deps.ApprovalTimeout <= 0 {
		deps.ApprovalTimeout = 120 * time.Second
	}

	s := &Server{
		emitter: deps.Emitter,
		layout:  NewLayoutEngine(),
		editors: deps.Editors,
		logger:  deps.Logger,
	}
	if deps.RequireApproval {
		s.approval = NewApprovalQueue(ctx, deps.Emitter, deps.ApprovalTimeout)
	}

	s.mcp = server.NewMCPServer(
		deps.Name,
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerDocumentTools()
	s.registerBlockTools()
	s.registerCommandTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("starting MCP stdio server")
	return server.ServeStdio(s.mcp)
}

// ServeSSE serves MCP over SSE on addr (e.g. "127.0.0.1:7425") until ctx is
// done. Agents connect to /sse and post to /message.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	sse := server.NewSSEServer(s.mcp, server.WithBaseURL("http://"+addr))

	mux := http.NewServeMux()
	mux.Handle("/sse", sse.SSEHandler())
	mux.Handle("/message", sse.MessageHandler())
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "addr", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve mcp: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown mcp server: %w", err)
		}
		return nil
	}
}

// Approve forwards a user approval to the approval queue.
func (s *Server) Approve(actionID string) {
	if s.approval != nil {
		s.approval.Approve(actionID)
	}
}

// Reject forwards a user rejection to the approval queue.
func (s *Server) Reject(actionID string) {
	if s.approval != nil {
		s.approval.Reject(actionID)
	}
}

// ActiveDocument returns the document tools default to.
func (s *Server) ActiveDocument() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeDocumentID
}

func (s *Server) setActiveDocument(id string) {
	s.mu.Lock()
	s.activeDocumentID = id
	s.mu.Unlock()
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// resolveDocument returns the documentId argument or the active document,
// opening it if needed.
func (s *Server) resolveDocument(ctx context.Context, req mcp.CallToolRequest) (string, error) {
	id := req.GetString("documentId", "")
	if id == "" {
		id = s.ActiveDocument()
	}
	if id == "" {
		return "", fmt.Errorf("no documentId provided and no active document set (use set_active_document first)")
	}
	if !s.editors.IsOpen(id) {
		if _, err := s.editors.Open(ctx, id); err != nil {
			return "", fmt.Errorf("open document: %w", err)
		}
	}
	return id, nil
}

// approve blocks on the approval queue when one is configured.
func (s *Server) approve(ctx context.Context, tool, documentID, description string) error {
	if s.approval == nil {
		return nil
	}
	return s.approval.Request(ctx, tool, documentID, description)
}
