package app

// ============================================================
// MCP approvals
// ============================================================

// MCPEnabled reports whether agents can connect to this window.
func (a *App) MCPEnabled() bool {
	return a.mcp != nil
}

// ActiveAgentDocument returns the document agent tools default to.
func (a *App) ActiveAgentDocument() string {
	if a.mcp == nil {
		return ""
	}
	return a.mcp.ActiveDocument()
}

// ApproveAction lets a pending destructive agent call proceed.
func (a *App) ApproveAction(actionID string) {
	if a.mcp != nil {
		a.mcp.Approve(actionID)
	}
}

// RejectAction fails a pending destructive agent call.
func (a *App) RejectAction(actionID string) {
	if a.mcp != nil {
		a.mcp.Reject(actionID)
	}
}
