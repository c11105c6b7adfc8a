// quill: task-triage learning and voice scoring MCP server
//
// quill learns how a user renames and files captured tasks and suggests
// the same treatment for new ones. It also scores drafts against the
// author's voice profile.
//
// Usage:
//
//	quill serve              # Start MCP server (stdio transport)
//	quill serve --http :8787 # Start MCP server (streamable HTTP at /mcp)
//	quill score "draft..."   # Score a draft against the voice profile
//	quill suggest "title"    # Suggest a title and project for a task
//	quill profile build      # Build the voice profile from the content corpus
//	quill profile build --watch
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
