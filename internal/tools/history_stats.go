package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// HistoryStatsTool handles the history_stats MCP tool.
type HistoryStatsTool struct {
	index HistoryIndex
}

// NewHistoryStatsTool creates a HistoryStatsTool.
func NewHistoryStatsTool(index HistoryIndex) *HistoryStatsTool {
	return &HistoryStatsTool{index: index}
}

// Definition returns the MCP tool definition for history_stats.
func (t *HistoryStatsTool) Definition() mcp.Tool {
	return mcp.NewTool("history_stats",
		mcp.WithDescription(
			"Show totals for the correction history: events, corrections, batch decisions, "+
				"accepted titles, and the projects decisions were filed to.",
		),
	)
}

// Handle processes the history_stats tool call.
func (t *HistoryStatsTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := t.index.Stats()
	if err != nil {
		return nil, fmt.Errorf("reading history stats: %w", err)
	}

	projects := "none yet"
	if len(stats.Projects) > 0 {
		projects = strings.Join(stats.Projects, ", ")
	}

	var b strings.Builder
	b.WriteString("## Correction History\n\n")
	fmt.Fprintf(&b, "- **Events**: %d\n", stats.TotalEvents)
	fmt.Fprintf(&b, "- **Corrections**: %d\n", stats.Corrections)
	fmt.Fprintf(&b, "- **Batch decisions**: %d\n", stats.BatchDecisions)
	fmt.Fprintf(&b, "- **Titles accepted**: %d\n", stats.TitlesAccepted)
	fmt.Fprintf(&b, "- **Projects**: %s\n", projects)
	return mcp.NewToolResultText(b.String()), nil
}
