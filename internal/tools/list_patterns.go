package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/quill/internal/patterns"
)

// ListPatternsTool handles the list_patterns MCP tool.
type ListPatternsTool struct {
	engine *patterns.Engine
}

// NewListPatternsTool creates a ListPatternsTool.
func NewListPatternsTool(engine *patterns.Engine) *ListPatternsTool {
	return &ListPatternsTool{engine: engine}
}

// Definition returns the MCP tool definition for list_patterns.
func (t *ListPatternsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_patterns",
		mcp.WithDescription(
			"List every learned pattern: title transforms (with up to 3 examples each), "+
				"project keyword hints, exact overrides, and learning stats.",
		),
	)
}

// Handle processes the list_patterns tool call.
func (t *ListPatternsTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.engine.List())
}
