package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/quill/internal/patterns"
)

// RemovePatternTool handles the remove_pattern MCP tool.
type RemovePatternTool struct {
	engine *patterns.Engine
}

// NewRemovePatternTool creates a RemovePatternTool.
func NewRemovePatternTool(engine *patterns.Engine) *RemovePatternTool {
	return &RemovePatternTool{engine: engine}
}

// Definition returns the MCP tool definition for remove_pattern.
func (t *RemovePatternTool) Definition() mcp.Tool {
	return mcp.NewTool("remove_pattern",
		mcp.WithDescription(
			"Delete a learned pattern. Requires confirm=true; without it nothing is changed.",
		),
		mcp.WithString("pattern_type",
			mcp.Required(),
			mcp.Description("Which pattern family to remove from"),
			mcp.Enum("title_transform", "project_hint", "exact_override"),
		),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Match regex, keyword (or \"keyword:project\" for a single weight), or exact original title"),
		),
		mcp.WithBoolean("confirm",
			mcp.Required(),
			mcp.Description("Must be true to delete"),
		),
	)
}

// Handle processes the remove_pattern tool call.
func (t *RemovePatternTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := req.GetString("pattern_type", "")
	key := req.GetString("key", "")

	err := t.engine.RemovePattern(patterns.RemoveRequest{
		Kind:    patterns.Kind(kind),
		Key:     key,
		Confirm: boolArg(req, "confirm", false),
	})
	if err != nil {
		return engineError(err)
	}
	return jsonResult(messageResult{
		Success: true,
		Message: fmt.Sprintf("Pattern removed: %s/%s", kind, key),
	})
}
