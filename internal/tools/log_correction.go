package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/quill/internal/patterns"
)

// LogCorrectionTool handles the log_correction MCP tool.
type LogCorrectionTool struct {
	engine *patterns.Engine
}

// NewLogCorrectionTool creates a LogCorrectionTool.
func NewLogCorrectionTool(engine *patterns.Engine) *LogCorrectionTool {
	return &LogCorrectionTool{engine: engine}
}

// Definition returns the MCP tool definition for log_correction.
func (t *LogCorrectionTool) Definition() mcp.Tool {
	return mcp.NewTool("log_correction",
		mcp.WithDescription(
			"Record how the user corrected (or accepted) a suggestion. "+
				"Accepted titles reinforce the matching transform; edited titles may derive a new transform "+
				"and always store an exact override; accepted projects credit the title's keywords.",
		),
		mcp.WithString("original_title",
			mcp.Required(),
			mcp.Description("The title before any suggestion"),
		),
		mcp.WithString("final_title",
			mcp.Required(),
			mcp.Description("The title the user kept"),
		),
		mcp.WithString("suggested_title",
			mcp.Description("The title that was suggested, if any"),
		),
		mcp.WithString("suggested_project",
			mcp.Description("The project that was suggested, if any"),
		),
		mcp.WithString("final_project",
			mcp.Description("The project the user kept"),
		),
		mcp.WithBoolean("title_accepted",
			mcp.Description("True if the suggested title was accepted unchanged"),
		),
		mcp.WithBoolean("project_accepted",
			mcp.Description("True if the final project should be learned for this title's keywords"),
		),
	)
}

type logCorrectionResult struct {
	Success bool   `json:"success"`
	Learned bool   `json:"learned"`
	Message string `json:"message"`
}

// Handle processes the log_correction tool call.
func (t *LogCorrectionTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	learned, err := t.engine.LearnFromCorrection(patterns.Correction{
		OriginalTitle:    req.GetString("original_title", ""),
		SuggestedTitle:   optString(args, "suggested_title"),
		FinalTitle:       req.GetString("final_title", ""),
		SuggestedProject: optString(args, "suggested_project"),
		FinalProject:     optString(args, "final_project"),
		TitleAccepted:    optBool(args, "title_accepted"),
		ProjectAccepted:  optBool(args, "project_accepted"),
	})
	if err != nil {
		return engineError(err)
	}

	msg := "Correction logged (no new pattern learned)"
	if learned {
		msg = "Correction logged and patterns updated"
	}
	return jsonResult(logCorrectionResult{Success: true, Learned: learned, Message: msg})
}
