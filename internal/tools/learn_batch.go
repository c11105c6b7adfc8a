package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/quill/internal/patterns"
)

// LearnBatchTool handles the learn_batch MCP tool.
type LearnBatchTool struct {
	engine *patterns.Engine
}

// NewLearnBatchTool creates a LearnBatchTool.
func NewLearnBatchTool(engine *patterns.Engine) *LearnBatchTool {
	return &LearnBatchTool{engine: engine}
}

// Definition returns the MCP tool definition for learn_batch.
func (t *LearnBatchTool) Definition() mcp.Tool {
	return mcp.NewTool("learn_batch",
		mcp.WithDescription(
			"Learn from a whole triage session at once. Call this at the end of a session with "+
				"every decision made; the pattern store is written once.",
		),
		mcp.WithArray("decisions",
			mcp.Required(),
			mcp.Description("Decisions: objects with task_id, original_title, final_title, final_project, "+
				"title_accepted (bool) and source (pattern|agent|user|none)"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"task_id":        map[string]any{"type": "string"},
					"original_title": map[string]any{"type": "string"},
					"final_title":    map[string]any{"type": "string"},
					"final_project":  map[string]any{"type": "string"},
					"title_accepted": map[string]any{"type": "boolean"},
					"source":         map[string]any{"type": "string", "enum": []string{"pattern", "agent", "user", "none"}},
				},
				"required": []string{"original_title", "final_title"},
			}),
		),
	)
}

type learnBatchResult struct {
	Success bool `json:"success"`
	*patterns.BatchSummary
}

// Handle processes the learn_batch tool call.
func (t *LearnBatchTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, ok := req.GetArguments()["decisions"].([]any)
	if !ok {
		return failResult("'decisions' is required and must be an array"), nil
	}

	decisions := make([]patterns.Decision, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return failResult(fmt.Sprintf("decision %d must be an object", i)), nil
		}
		accepted, _ := m["title_accepted"].(bool)
		decisions = append(decisions, patterns.Decision{
			TaskID:        stringField(m, "task_id"),
			OriginalTitle: stringField(m, "original_title"),
			FinalTitle:    stringField(m, "final_title"),
			FinalProject:  stringField(m, "final_project"),
			Source:        patterns.DecisionSource(stringField(m, "source")),
			TitleAccepted: accepted,
		})
	}

	summary, err := t.engine.LearnBatch(decisions)
	if err != nil {
		return engineError(err)
	}
	return jsonResult(learnBatchResult{Success: true, BatchSummary: summary})
}
