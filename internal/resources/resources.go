// Package resources implements MCP resource handlers for quill.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (quill://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/quill/internal/patterns"
	"github.com/HendryAvila/quill/internal/voice"
)

// Resource URIs.
const (
	PatternsURI = "quill://patterns"
	ProfileURI  = "quill://voice/profile"
)

// Handler serves the pattern store and voice profile.
type Handler struct {
	patterns patterns.Repository
	profiles voice.ProfileStore
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(repo patterns.Repository, profiles voice.ProfileStore) *Handler {
	return &Handler{patterns: repo, profiles: profiles}
}

// PatternsResource returns the MCP resource definition for the pattern store.
func (h *Handler) PatternsResource() mcp.Resource {
	return mcp.NewResource(
		PatternsURI,
		"Learned Patterns",
		mcp.WithResourceDescription("Title transforms, project keyword hints, exact overrides, and learning stats"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandlePatterns returns the pattern store as JSON. A missing store reads
// as an empty document.
func (h *Handler) HandlePatterns(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, h.patterns.LoadOrDefault())
}

// ProfileResource returns the MCP resource definition for the voice profile.
func (h *Handler) ProfileResource() mcp.Resource {
	return mcp.NewResource(
		ProfileURI,
		"Voice Profile",
		mcp.WithResourceDescription("The author's voice profile used by score_content"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleProfile returns the voice profile as JSON, or a plain-text note
// when none has been built.
func (h *Handler) HandleProfile(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	p := h.profiles.Load()
	if p == nil {
		return errorResource(req.Params.URI, "no voice profile found; run 'quill profile build'"), nil
	}
	return jsonResource(req.Params.URI, p)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
