// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools, prompts and resources that depend on them.
// No business logic lives here, only wiring.
package server

import (
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/quill/internal/config"
	"github.com/HendryAvila/quill/internal/history"
	"github.com/HendryAvila/quill/internal/patterns"
	"github.com/HendryAvila/quill/internal/prompts"
	"github.com/HendryAvila/quill/internal/resources"
	"github.com/HendryAvila/quill/internal/tools"
	"github.com/HendryAvila/quill/internal/voice"
)

// Version is set at build time via ldflags.
var Version = "dev"

// openIndex is replaced in tests.
var openIndex = history.OpenIndex

// New creates and configures the MCP server with all tools, prompts,
// and resources registered.
//
// The returned cleanup function closes the history index and must be
// called on shutdown (typically via defer). It is always non-nil and safe
// to call even if the index failed to open.
func New(cfg *config.Config, logger *slog.Logger) (*server.MCPServer, func(), error) {
	if cfg == nil {
		return nil, noop, fmt.Errorf("server: nil config")
	}
	if logger == nil {
		logger = slog.Default()
	}

	// --- Create shared dependencies ---

	store := patterns.NewFileStore(cfg.PatternsPath())
	profiles := voice.ProfileStore{Path: cfg.ProfilePath()}
	journal := history.NewJSONL(cfg.HistoryPath())

	// The index is an optional mirror of the JSONL journal. If it cannot
	// be opened, learning still works and only the history tools go away.
	cleanup := noop
	var recorder history.Recorder = journal
	index, idxErr := openIndex(cfg.HistoryDBPath())
	if idxErr != nil {
		logger.Warn("history index disabled", "path", cfg.HistoryDBPath(), "err", idxErr)
	} else {
		recorder = history.NewTee(logger, journal, index)
		cleanup = func() {
			if err := index.Close(); err != nil {
				logger.Warn("history index close", "err", err)
			}
		}
	}

	engine := patterns.NewEngine(store, recorder, logger)

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"quill",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register pattern tools ---

	listTool := tools.NewListPatternsTool(engine)
	s.AddTool(listTool.Definition(), listTool.Handle)

	suggestTool := tools.NewSuggestTool(engine)
	s.AddTool(suggestTool.Definition(), suggestTool.Handle)

	correctionTool := tools.NewLogCorrectionTool(engine)
	s.AddTool(correctionTool.Definition(), correctionTool.Handle)

	updateTool := tools.NewUpdatePatternTool(engine)
	s.AddTool(updateTool.Definition(), updateTool.Handle)

	removeTool := tools.NewRemovePatternTool(engine)
	s.AddTool(removeTool.Definition(), removeTool.Handle)

	batchTool := tools.NewLearnBatchTool(engine)
	s.AddTool(batchTool.Definition(), batchTool.Handle)

	// --- Register voice tools ---

	scoreTool := tools.NewScoreContentTool(profiles, cfg.AllowedContentDirs, cfg.MaxContentBytes)
	s.AddTool(scoreTool.Definition(), scoreTool.Handle)

	// --- Register history tools ---

	if idxErr == nil {
		registerHistoryTools(s, index)
	}

	// --- Register prompts ---

	triagePrompt := prompts.NewTriagePrompt()
	s.AddPrompt(triagePrompt.Definition(), triagePrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(store, profiles)
	s.AddResource(resourceHandler.PatternsResource(), resourceHandler.HandlePatterns)
	s.AddResource(resourceHandler.ProfileResource(), resourceHandler.HandleProfile)

	logger.Info("quill server ready",
		"version", Version,
		"data_dir", cfg.DataDir,
		"history_index", idxErr == nil,
	)
	return s, cleanup, nil
}

// noop is a no-op cleanup function used as the default when the history
// index is disabled.
func noop() {}

func registerHistoryTools(s *server.MCPServer, index tools.HistoryIndex) {
	searchTool := tools.NewSearchHistoryTool(index)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	statsTool := tools.NewHistoryStatsTool(index)
	s.AddTool(statsTool.Definition(), statsTool.Handle)
}

// serverInstructions returns the system instructions that tell the AI
// how to use quill effectively.
func serverInstructions() string {
	return `You have access to quill, a learning assistant for task triage and writing voice.

## TASK TRIAGE

quill learns how the user renames and files tasks, and suggests the same
treatment for new ones.

For every task you are about to triage:
1. Call suggest_for_task with the task's title
2. Act on the recommendation field:
   - apply_silently (confidence 10+): apply the suggested title and project
   - auto_apply_with_indicator (3-9): apply it, and show that it was applied
   - ask_user_confirmation (below 3): show the suggestion and ask first
3. Remember what the user finally chose

At the end of a session, call learn_batch ONCE with every decision. Set
source to "pattern" only when the title shown came from suggest_for_task.

For a one-off correction outside a session, call log_correction instead.

## MAINTAINING PATTERNS

- list_patterns shows every rule with its confidence and examples
- update_pattern adjusts confidence or replaces a template; project hints use key "keyword:project"
- remove_pattern deletes a rule and requires confirm=true. Always ask the user first.

A failed call returns {"success": false, "error": "..."}. Nothing was changed;
tell the user what went wrong.

## WRITING IN THE AUTHOR'S VOICE

Before showing the user a draft written in their voice, call score_content.
- 70 or more passes
- Any "HARD FAIL" flag (hashtags, stacked corporate jargon) means rewrite, not tweak
- Use the suggestions list to revise, then score again

If the result says no voice profile was found, scores are a baseline only.
The user can build a profile with "quill profile build".

## HISTORY

When available, search_history finds how similar tasks were handled before,
and history_stats summarizes the correction log.`
}
