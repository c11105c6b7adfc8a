package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/quill/internal/patterns"
)

// SuggestTool handles the suggest_for_task MCP tool.
type SuggestTool struct {
	engine *patterns.Engine
}

// NewSuggestTool creates a SuggestTool.
func NewSuggestTool(engine *patterns.Engine) *SuggestTool {
	return &SuggestTool{engine: engine}
}

// Definition returns the MCP tool definition for suggest_for_task.
func (t *SuggestTool) Definition() mcp.Tool {
	return mcp.NewTool("suggest_for_task",
		mcp.WithDescription(
			"Suggest a title and project for a task from learned patterns. "+
				"Exact overrides win, then title transforms in insertion order, then project keyword hints. "+
				"The recommendation says whether to apply silently, apply with an indicator, or ask the user.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("The task title as captured"),
		),
	)
}

// suggestResult is the suggest_for_task payload.
type suggestResult struct {
	Original         string          `json:"original"`
	SuggestedTitle   string          `json:"suggested_title"`
	SuggestedProject *string         `json:"suggested_project"`
	Confidence       int             `json:"confidence"`
	PatternSource    patterns.Source `json:"pattern_source"`
	PatternRule      string          `json:"pattern_rule,omitempty"`
	Examples         []string        `json:"examples"`
	patterns.Recommendation
}

// Handle processes the suggest_for_task tool call.
func (t *SuggestTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	if title == "" {
		return failResult("'title' is required"), nil
	}

	s := t.engine.Suggest(title)
	return jsonResult(suggestResult{
		Original:         title,
		SuggestedTitle:   s.Title,
		SuggestedProject: s.Project,
		Confidence:       s.Confidence,
		PatternSource:    s.Source,
		PatternRule:      s.Rule,
		Examples:         s.Examples,
		Recommendation:   patterns.Recommend(s.Confidence),
	})
}
