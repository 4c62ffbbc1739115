package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("build_form",
		mcp.WithPromptDescription("Guide through laying out a form on the active document"),
		mcp.WithArgument("purpose",
			mcp.ArgumentDescription("What the form collects, e.g. a signup or a search filter"),
			mcp.RequiredArgument(),
		),
	), s.handleBuildFormPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("tidy_layout",
		mcp.WithPromptDescription("Clean up the placement and stacking order of an existing document"),
	), s.handleTidyLayoutPrompt)
}

func (s *Server) handleBuildFormPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	purpose := req.Params.Arguments["purpose"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Build a form for: %s", purpose),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Lay out a form for "%s" on the active document. Follow these steps:

1. Call list_components to see the palette and default sizes
2. Drop a text component for the title, then one text label plus one input, select or number-range per field (drop_component)
3. Use update_block to set label text, select options and model bindings
4. Drop a button for submission and set its label
5. Align fields with move_blocks; blocks snap to each other's edges and centres within 5px
6. Call save_document when the layout looks right

Every step can be reverted with undo.`, purpose),
				},
			},
		},
	}, nil
}

func (s *Server) handleTidyLayoutPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Tidy the active document",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: `Tidy the active document. Follow these steps:

1. Read the document with get_value and look for overlapping or misaligned blocks
2. Use arrange_blocks for a clean grid, or move_blocks for individual adjustments
3. Fix stacking with select_blocks followed by place_top or place_bottom
4. Save with save_document`,
				},
			},
		},
	}, nil
}
