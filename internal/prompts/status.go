package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the learning-status MCP prompt.
// It instructs the AI to summarize what quill has learned so far.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("learning-status",
		mcp.WithPromptDescription(
			"Review what quill has learned: title transforms, project hints, overrides, "+
				"and how often suggestions are accepted.",
		),
	)
}

// Handle processes the learning-status prompt request.
func (p *StatusPrompt) Handle(_ context.Context, _ mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Learning status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `list_patterns` and, if it is available, `history_stats`.\n\n" +
						"Then:\n" +
						"1. Show the title transforms with their confidence, highest first\n" +
						"2. Point out rules with low or negative confidence that I may want to remove\n" +
						"3. Describe the accuracy trend across recent sessions\n" +
						"4. Suggest any cleanup with `update_pattern` or `remove_pattern`, but do not run it without asking",
				),
			},
		},
	}, nil
}
