package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/quill/internal/patterns"
)

// UpdatePatternTool handles the update_pattern MCP tool.
type UpdatePatternTool struct {
	engine *patterns.Engine
}

// NewUpdatePatternTool creates an UpdatePatternTool.
func NewUpdatePatternTool(engine *patterns.Engine) *UpdatePatternTool {
	return &UpdatePatternTool{engine: engine}
}

// Definition returns the MCP tool definition for update_pattern.
func (t *UpdatePatternTool) Definition() mcp.Tool {
	return mcp.NewTool("update_pattern",
		mcp.WithDescription(
			"Adjust a learned pattern's confidence or text. Title transforms and exact overrides "+
				"must already exist; project hints are created on demand with key \"keyword:project\".",
		),
		mcp.WithString("pattern_type",
			mcp.Required(),
			mcp.Description("Which pattern family to update"),
			mcp.Enum("title_transform", "project_hint", "exact_override"),
		),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Match regex (title_transform), \"keyword:project\" (project_hint), or exact original title (exact_override)"),
		),
		mcp.WithNumber("delta",
			mcp.Description("Confidence change, may be negative (project_hint defaults to +1)"),
		),
		mcp.WithString("new_transform",
			mcp.Description("Replacement template (title_transform) or replacement title (exact_override)"),
		),
	)
}

type messageResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Handle processes the update_pattern tool call.
func (t *UpdatePatternTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	key := req.GetString("key", "")
	if key == "" {
		return failResult("'key' is required"), nil
	}

	err := t.engine.UpdatePattern(patterns.UpdateRequest{
		Kind:         patterns.Kind(req.GetString("pattern_type", "")),
		Key:          key,
		Delta:        optInt(args, "delta"),
		NewTransform: optString(args, "new_transform"),
	})
	if err != nil {
		return engineError(err)
	}
	return jsonResult(messageResult{Success: true, Message: "Pattern updated"})
}
