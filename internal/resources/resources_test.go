package resources

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/quill/internal/patterns"
	"github.com/HendryAvila/quill/internal/voice"
)

func readReq(uri string) mcp.ReadResourceRequest {
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	return req
}

func text(t *testing.T, contents []mcp.ResourceContents) mcp.TextResourceContents {
	t.Helper()
	if len(contents) != 1 {
		t.Fatalf("contents len = %d, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents[0] = %T, want TextResourceContents", contents[0])
	}
	return tc
}

func newHandler(t *testing.T) (*Handler, *patterns.FileStore, voice.ProfileStore) {
	t.Helper()
	dir := t.TempDir()
	store := patterns.NewFileStore(filepath.Join(dir, "patterns.json"))
	profiles := voice.ProfileStore{Path: filepath.Join(dir, "profile.json")}
	return NewHandler(store, profiles), store, profiles
}

func TestDefinitions(t *testing.T) {
	h, _, _ := newHandler(t)
	if got := h.PatternsResource().URI; got != PatternsURI {
		t.Errorf("patterns URI = %q, want %q", got, PatternsURI)
	}
	if got := h.ProfileResource().URI; got != ProfileURI {
		t.Errorf("profile URI = %q, want %q", got, ProfileURI)
	}
}

func TestHandlePatterns_EmptyStore(t *testing.T) {
	h, _, _ := newHandler(t)

	contents, err := h.HandlePatterns(context.Background(), readReq(PatternsURI))
	if err != nil {
		t.Fatalf("HandlePatterns: %v", err)
	}
	tc := text(t, contents)
	if tc.MIMEType != "application/json" {
		t.Errorf("MIMEType = %q", tc.MIMEType)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(tc.Text), &doc); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	for _, key := range []string{"title_transforms", "project_hints", "exact_overrides", "stats"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
}

func TestHandlePatterns_Stored(t *testing.T) {
	h, store, _ := newHandler(t)
	doc := patterns.NewDocument()
	doc.TitleTransforms = append(doc.TitleTransforms, patterns.TitleTransform{
		Match: "^Call ", Transform: "Phone: {original}", Confidence: 2, Examples: []string{"Call mom"},
	})
	if err := store.Save(doc); err != nil {
		t.Fatal(err)
	}

	contents, err := h.HandlePatterns(context.Background(), readReq(PatternsURI))
	if err != nil {
		t.Fatalf("HandlePatterns: %v", err)
	}
	if !strings.Contains(text(t, contents).Text, `"Phone: {original}"`) {
		t.Errorf("stored transform missing:\n%s", text(t, contents).Text)
	}
}

func TestHandleProfile(t *testing.T) {
	h, _, profiles := newHandler(t)

	contents, err := h.HandleProfile(context.Background(), readReq(ProfileURI))
	if err != nil {
		t.Fatalf("HandleProfile: %v", err)
	}
	tc := text(t, contents)
	if tc.MIMEType != "text/plain" || !strings.Contains(tc.Text, "no voice profile found") {
		t.Errorf("missing profile = %+v", tc)
	}

	if err := profiles.Save(&voice.Profile{Version: "1.0"}); err != nil {
		t.Fatal(err)
	}
	contents, err = h.HandleProfile(context.Background(), readReq(ProfileURI))
	if err != nil {
		t.Fatalf("HandleProfile: %v", err)
	}
	tc = text(t, contents)
	if tc.MIMEType != "application/json" || !strings.Contains(tc.Text, `"version": "1.0"`) {
		t.Errorf("stored profile = %+v", tc)
	}
}
