package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/quill/internal/voice"
)

// ScoreContentTool handles the score_content MCP tool.
type ScoreContentTool struct {
	profiles   voice.ProfileStore
	allowed    []string
	maxContent int64
}

// NewScoreContentTool creates a ScoreContentTool. Files may only be read
// from inside allowed, and neither files nor inline content may exceed
// maxContent bytes.
func NewScoreContentTool(profiles voice.ProfileStore, allowed []string, maxContent int64) *ScoreContentTool {
	return &ScoreContentTool{profiles: profiles, allowed: allowed, maxContent: maxContent}
}

// Definition returns the MCP tool definition for score_content.
func (t *ScoreContentTool) Definition() mcp.Tool {
	return mcp.NewTool("score_content",
		mcp.WithDescription(
			"Score a draft against the author's voice profile (0-100, passes at 70). "+
				"Hashtags or several corporate jargon terms are a hard fail. "+
				"Without a profile, a baseline score is returned. Pass either content or file_path.",
		),
		mcp.WithString("content",
			mcp.Description("The draft text. HTML is stripped to plain text before scoring."),
		),
		mcp.WithString("file_path",
			mcp.Description("Path to a draft file inside an allowed content directory"),
		),
	)
}

// Handle processes the score_content tool call.
func (t *ScoreContentTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := req.GetString("content", "")
	path := req.GetString("file_path", "")

	switch {
	case content != "" && path != "":
		return failResult("pass either 'content' or 'file_path', not both"), nil
	case path != "":
		resolved, err := resolveContentPath(path, t.allowed)
		if err != nil {
			return failResult(err.Error()), nil
		}
		content, err = readCapped(resolved, t.maxContent)
		if err != nil {
			return failResult(err.Error()), nil
		}
	case content == "":
		return failResult("'content' or 'file_path' is required"), nil
	case int64(len(content)) > t.maxContent:
		return failResult(fmt.Sprintf("content is %d bytes, limit is %d", len(content), t.maxContent)), nil
	}

	if voice.LooksLikeHTML(content) {
		content = voice.PlainText(content)
	}
	return jsonResult(voice.Score(content, t.profiles.Load()))
}
