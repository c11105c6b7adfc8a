// Package prompts implements MCP prompt handlers for quill.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// TriagePrompt handles the triage-session MCP prompt.
// It walks the AI through suggest, confirm, and learn for an inbox.
type TriagePrompt struct{}

// NewTriagePrompt creates a TriagePrompt.
func NewTriagePrompt() *TriagePrompt {
	return &TriagePrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *TriagePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("triage-session",
		mcp.WithPromptDescription(
			"Triage a batch of captured tasks. Each task gets a suggested title and project "+
				"from learned patterns; the session ends by teaching quill what you decided.",
		),
		mcp.WithArgument("source",
			mcp.ArgumentDescription("Where the tasks come from, e.g. 'inbox' or a project name. Default: inbox"),
		),
	)
}

// Handle processes the triage-session prompt request.
func (p *TriagePrompt) Handle(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	source := "inbox"
	if args := req.Params.Arguments; args != nil {
		if s, ok := args["source"]; ok && s != "" {
			source = s
		}
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Triage session: %s", source),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Let's triage the tasks in my %s.\n\n"+
						"For each task:\n"+
						"1. Run `suggest_for_task` with the task's title\n"+
						"2. Follow the `recommendation`:\n"+
						"   - `apply_silently`: use the suggestion without asking\n"+
						"   - `auto_apply_with_indicator`: use it, but mark it so I can see it was applied\n"+
						"   - `ask_user_confirmation`: show me the suggestion and ask before applying\n"+
						"3. Keep a list of every decision: task_id, original_title, final_title, "+
						"final_project, title_accepted, and source (pattern, agent, user or none)\n\n"+
						"When every task is done, call `learn_batch` once with the whole list and "+
						"give me the summary it returns.",
					source,
				)),
			},
		},
	}, nil
}
