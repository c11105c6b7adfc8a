package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/quill/internal/history"
)

// HistoryIndex is the read side of the history index.
type HistoryIndex interface {
	Search(query string, opts history.SearchOptions) ([]history.Record, error)
	Stats() (*history.Stats, error)
}

// SearchHistoryTool handles the search_history MCP tool.
type SearchHistoryTool struct {
	index HistoryIndex
}

// NewSearchHistoryTool creates a SearchHistoryTool.
func NewSearchHistoryTool(index HistoryIndex) *SearchHistoryTool {
	return &SearchHistoryTool{index: index}
}

// Definition returns the MCP tool definition for search_history.
func (t *SearchHistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("search_history",
		mcp.WithDescription(
			"Full-text search over past corrections and triage decisions. "+
				"Use it to see how similar tasks were titled or filed before.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Words to look for in original or final titles and projects"),
		),
		mcp.WithString("project",
			mcp.Description("Only decisions filed to this project"),
		),
		mcp.WithString("event",
			mcp.Description("Filter by event type"),
			mcp.Enum(history.EventCorrection, history.EventDecision),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Max results (default: 10, max: %d)", history.MaxSearchResults)),
		),
	)
}

// Handle processes the search_history tool call.
func (t *SearchHistoryTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return failResult("'query' is required"), nil
	}

	records, err := t.index.Search(query, history.SearchOptions{
		Project: req.GetString("project", ""),
		Event:   req.GetString("event", ""),
		Limit:   intArg(req, "limit", 10),
	})
	if err != nil {
		return nil, fmt.Errorf("searching history: %w", err)
	}
	if len(records) == 0 {
		return mcp.NewToolResultText("No history entries match your query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d entries:\n\n", len(records))
	for i, r := range records {
		project := "-"
		if r.FinalProject != nil && *r.FinalProject != "" {
			project = *r.FinalProject
		}
		fmt.Fprintf(&b, "[%d] %s (%s) %s\n    %q -> %q\n    project: %s",
			i+1, r.Timestamp.Format("2006-01-02 15:04"), r.Event, r.ID,
			r.OriginalTitle, r.FinalTitle, project)
		if r.TitleAccepted != nil {
			fmt.Fprintf(&b, " | accepted: %t", *r.TitleAccepted)
		}
		if r.Source != "" {
			fmt.Fprintf(&b, " | source: %s", r.Source)
		}
		b.WriteString("\n\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}
