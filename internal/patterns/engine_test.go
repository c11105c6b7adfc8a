package patterns

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/HendryAvila/quill/internal/history"
)

// --- Test helpers ---

// recorder captures audit records in memory.
type recorder struct {
	records []history.Record
	err     error
}

func (r *recorder) Append(rec history.Record) error {
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, rec)
	return nil
}

// newTestEngine returns an engine over a temp-dir file store.
func newTestEngine(t *testing.T) (*Engine, *FileStore, *recorder) {
	t.Helper()
	store := NewFileStore(filepath.Join(t.TempDir(), "patterns.json"))
	rec := &recorder{}
	return NewEngine(store, rec, nil), store, rec
}

// seed saves doc as the starting state.
func seed(t *testing.T, store *FileStore, doc *Document) {
	t.Helper()
	if err := store.Save(doc); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func freezeTime(t *testing.T) {
	t.Helper()
	orig := timeNow
	timeNow = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { timeNow = orig })
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }

// --- Recommend ---

func TestRecommend_Bands(t *testing.T) {
	tests := []struct {
		confidence int
		level      string
		action     string
	}{
		{15, "high", "apply_silently"},
		{10, "high", "apply_silently"},
		{9, "medium", "auto_apply_with_indicator"},
		{3, "medium", "auto_apply_with_indicator"},
		{2, "low", "ask_user_confirmation"},
		{0, "low", "ask_user_confirmation"},
		{-4, "low", "ask_user_confirmation"},
	}
	for _, tt := range tests {
		got := Recommend(tt.confidence)
		if got.Level != tt.level || got.Action != tt.action {
			t.Errorf("Recommend(%d) = %+v, want %s/%s", tt.confidence, got, tt.level, tt.action)
		}
	}
}

// --- Suggest ---

func TestSuggest_EmptyStore(t *testing.T) {
	e, _, _ := newTestEngine(t)

	got := e.Suggest("Fix the login bug")
	if got.Title != "Fix the login bug" {
		t.Errorf("Title = %q, want unchanged", got.Title)
	}
	if got.Project != nil {
		t.Errorf("Project = %v, want nil", *got.Project)
	}
	if got.Confidence != 0 {
		t.Errorf("Confidence = %d, want 0", got.Confidence)
	}
	if got.Source != SourceNone {
		t.Errorf("Source = %s, want none", got.Source)
	}
}

func TestSuggest_ExactOverrideWins(t *testing.T) {
	e, store, _ := newTestEngine(t)
	doc := NewDocument()
	doc.TitleTransforms = []TitleTransform{{Match: "^Fix ", Transform: "Bug: {original}", Confidence: 50}}
	doc.ExactOverrides.Set("Fix bug", ExactOverride{Title: "Delegate to Dana: Fix bug", Project: "Ops", Confidence: 1})
	doc.addHintWeight("fix", "Engineering", 99)
	seed(t, store, doc)

	got := e.Suggest("Fix bug")
	if got.Source != SourceExactOverride {
		t.Fatalf("Source = %s, want exact_override", got.Source)
	}
	if got.Title != "Delegate to Dana: Fix bug" {
		t.Errorf("Title = %q, want override title", got.Title)
	}
	if got.Project == nil || *got.Project != "Ops" {
		t.Errorf("Project = %v, want Ops", got.Project)
	}
	if got.Confidence != 1 {
		t.Errorf("Confidence = %d, want 1", got.Confidence)
	}
}

func TestSuggest_ExactOverrideIsCaseSensitive(t *testing.T) {
	doc := NewDocument()
	doc.ExactOverrides.Set("Fix bug", ExactOverride{Title: "Override", Confidence: 1})

	if got := doc.apply("fix bug", nil); got.Source == SourceExactOverride {
		t.Error("override must only match the exact string")
	}
}

func TestSuggest_FirstInsertedTransformWins(t *testing.T) {
	doc := NewDocument()
	doc.TitleTransforms = []TitleTransform{
		{Match: "^Fix ", Transform: "First: {original}", Confidence: 1},
		{Match: "bug", Transform: "Second: {original}", Confidence: 100},
	}

	got := doc.apply("Fix the bug", nil)
	if got.Title != "First: Fix the bug" {
		t.Errorf("Title = %q, want the earlier transform", got.Title)
	}
	if got.Confidence != 1 {
		t.Errorf("Confidence = %d, want 1", got.Confidence)
	}
	if got.Source != SourceTitleTransform {
		t.Errorf("Source = %s, want title_transform", got.Source)
	}
}

func TestSuggest_TransformIsCaseInsensitive(t *testing.T) {
	doc := NewDocument()
	doc.TitleTransforms = []TitleTransform{{Match: "^fix ", Transform: "Bug: {original}", Examples: []string{"fix a"}}}

	got := doc.apply("FIX the printer", nil)
	if got.Title != "Bug: FIX the printer" {
		t.Errorf("Title = %q", got.Title)
	}
	if len(got.Examples) != 1 || got.Examples[0] != "fix a" {
		t.Errorf("Examples = %v, want [fix a]", got.Examples)
	}
	if got.Project != nil {
		t.Error("transform suggestions carry no project")
	}
}

func TestSuggest_SkipsUncompilableTransform(t *testing.T) {
	doc := NewDocument()
	doc.TitleTransforms = []TitleTransform{
		{Match: "([", Transform: "Broken: {original}"},
		{Match: "^Fix ", Transform: "Ok: {original}"},
	}

	if got := doc.apply("Fix it", nil); got.Title != "Ok: Fix it" {
		t.Errorf("Title = %q, want the valid transform to apply", got.Title)
	}
}

func TestSuggest_HighestHintWeightWins(t *testing.T) {
	doc := NewDocument()
	doc.addHintWeight("meeting", "ProjectA", 2)
	doc.addHintWeight("review", "ProjectB", 5)

	got := doc.apply("Weekly meeting review", nil)
	if got.Source != SourceProjectHint {
		t.Fatalf("Source = %s, want project_hint", got.Source)
	}
	if got.Project == nil || *got.Project != "ProjectB" {
		t.Errorf("Project = %v, want ProjectB", got.Project)
	}
	if got.Confidence != 5 {
		t.Errorf("Confidence = %d, want 5", got.Confidence)
	}
	if got.Title != "Weekly meeting review" {
		t.Errorf("Title = %q, want unchanged", got.Title)
	}
}

func TestSuggest_HintTieKeepsFirstSeen(t *testing.T) {
	doc := NewDocument()
	doc.addHintWeight("budget", "Finance", 3)
	doc.addHintWeight("report", "Writing", 3)

	got := doc.apply("Budget report", nil)
	if got.Project == nil || *got.Project != "Finance" {
		t.Errorf("Project = %v, want Finance (first seen)", got.Project)
	}
}

func TestSuggest_NonPositiveHintsNeverWin(t *testing.T) {
	doc := NewDocument()
	doc.addHintWeight("budget", "Finance", -2)

	if got := doc.apply("budget plan", nil); got.Source != SourceNone {
		t.Errorf("Source = %s, want none for a non-positive weight", got.Source)
	}
}

// --- UpdatePattern ---

func TestUpdatePattern_HintDeltaAccumulates(t *testing.T) {
	e, store, _ := newTestEngine(t)

	for i := 0; i < 2; i++ {
		if err := e.UpdatePattern(UpdateRequest{Kind: KindProjectHint, Key: "invoice:Finance", Delta: intPtr(1)}); err != nil {
			t.Fatalf("UpdatePattern #%d: %v", i+1, err)
		}
	}

	weights, ok := store.LoadOrDefault().ProjectHints.Get("invoice")
	if !ok {
		t.Fatal("hint keyword not created")
	}
	if w, _ := weights.Get("Finance"); w != 2 {
		t.Errorf("weight = %d, want 2", w)
	}
}

func TestUpdatePattern_HintDefaultsToPlusOne(t *testing.T) {
	e, store, _ := newTestEngine(t)

	if err := e.UpdatePattern(UpdateRequest{Kind: KindProjectHint, Key: "taxes:Finance"}); err != nil {
		t.Fatalf("UpdatePattern: %v", err)
	}
	weights, _ := store.LoadOrDefault().ProjectHints.Get("taxes")
	if w, _ := weights.Get("Finance"); w != 1 {
		t.Errorf("weight = %d, want 1", w)
	}
}

func TestUpdatePattern_HintKeyFormat(t *testing.T) {
	e, store, _ := newTestEngine(t)

	for _, key := range []string{"nocolon", ":Finance", "taxes:", "a:b:c"} {
		err := e.UpdatePattern(UpdateRequest{Kind: KindProjectHint, Key: key})
		if !errors.Is(err, ErrInvalidKey) {
			t.Errorf("key %q: err = %v, want ErrInvalidKey", key, err)
		}
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Error("invalid keys must not write the store")
	}
}

func TestUpdatePattern_HintKeywordFoldsCase(t *testing.T) {
	e, store, _ := newTestEngine(t)

	if err := e.UpdatePattern(UpdateRequest{Kind: KindProjectHint, Key: "Meeting:Work", Delta: intPtr(2)}); err != nil {
		t.Fatalf("UpdatePattern: %v", err)
	}
	if _, err := e.LearnFromCorrection(Correction{
		OriginalTitle:   "meeting notes",
		FinalTitle:      "meeting notes",
		FinalProject:    strPtr("Work"),
		ProjectAccepted: boolPtr(true),
	}); err != nil {
		t.Fatalf("LearnFromCorrection: %v", err)
	}

	doc := store.LoadOrDefault()
	var keywords []string
	for pair := doc.ProjectHints.Oldest(); pair != nil; pair = pair.Next() {
		keywords = append(keywords, pair.Key)
	}
	if len(keywords) != 2 || keywords[0] != "meeting" || keywords[1] != "notes" {
		t.Fatalf("hint keywords = %v, want [meeting notes]", keywords)
	}
	weights, _ := doc.ProjectHints.Get("meeting")
	if w, _ := weights.Get("Work"); w != 3 {
		t.Errorf("meeting/Work weight = %d, want 3", w)
	}

	if err := e.RemovePattern(RemoveRequest{Kind: KindProjectHint, Key: "MEETING", Confirm: true}); err != nil {
		t.Fatalf("RemovePattern: %v", err)
	}
	if _, ok := store.LoadOrDefault().ProjectHints.Get("meeting"); ok {
		t.Error("bare keyword remove should match regardless of case")
	}

	if err := e.RemovePattern(RemoveRequest{Kind: KindProjectHint, Key: "Notes:Work", Confirm: true}); err != nil {
		t.Fatalf("RemovePattern keyword:project: %v", err)
	}
	if store.LoadOrDefault().ProjectHints.Len() != 0 {
		t.Error("all hints should be gone")
	}
}

func TestUpdatePattern_TransformDeltaAndTemplate(t *testing.T) {
	freezeTime(t)
	e, store, _ := newTestEngine(t)
	doc := NewDocument()
	doc.TitleTransforms = []TitleTransform{{Match: "^Fix ", Transform: "Old: {original}", Confidence: 0}}
	seed(t, store, doc)

	if err := e.UpdatePattern(UpdateRequest{Kind: KindTitleTransform, Key: "^Fix ", Delta: intPtr(1)}); err != nil {
		t.Fatal(err)
	}
	if err := e.UpdatePattern(UpdateRequest{Kind: KindTitleTransform, Key: "^Fix ", Delta: intPtr(1), NewTransform: strPtr("New: {original}")}); err != nil {
		t.Fatal(err)
	}

	got := store.LoadOrDefault().TitleTransforms[0]
	if got.Confidence != 2 {
		t.Errorf("Confidence = %d, want 2", got.Confidence)
	}
	if got.Transform != "New: {original}" {
		t.Errorf("Transform = %q", got.Transform)
	}
	if got.LastUsed != "2026-03-01T12:00:00Z" {
		t.Errorf("LastUsed = %q", got.LastUsed)
	}
}

func TestUpdatePattern_NegativeDeltaHasNoFloor(t *testing.T) {
	e, store, _ := newTestEngine(t)
	doc := NewDocument()
	doc.ExactOverrides.Set("Call mom", ExactOverride{Title: "Call Mom", Confidence: 1})
	seed(t, store, doc)

	if err := e.UpdatePattern(UpdateRequest{Kind: KindExactOverride, Key: "Call mom", Delta: intPtr(-5)}); err != nil {
		t.Fatal(err)
	}
	o, _ := store.LoadOrDefault().ExactOverrides.Get("Call mom")
	if o.Confidence != -4 {
		t.Errorf("Confidence = %d, want -4", o.Confidence)
	}
	if Recommend(o.Confidence).Action != "ask_user_confirmation" {
		t.Error("negative confidence should ask the user")
	}
}

func TestUpdatePattern_OverrideTitle(t *testing.T) {
	e, store, _ := newTestEngine(t)
	doc := NewDocument()
	doc.ExactOverrides.Set("Call mom", ExactOverride{Title: "Call Mom", Confidence: 1})
	seed(t, store, doc)

	if err := e.UpdatePattern(UpdateRequest{Kind: KindExactOverride, Key: "Call mom", NewTransform: strPtr("Call Mom tonight")}); err != nil {
		t.Fatal(err)
	}
	o, _ := store.LoadOrDefault().ExactOverrides.Get("Call mom")
	if o.Title != "Call Mom tonight" || o.Confidence != 1 {
		t.Errorf("override = %+v", o)
	}
}

func TestUpdatePattern_NotFound(t *testing.T) {
	e, _, _ := newTestEngine(t)

	for _, kind := range []Kind{KindTitleTransform, KindExactOverride} {
		err := e.UpdatePattern(UpdateRequest{Kind: kind, Key: "missing", Delta: intPtr(1)})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: err = %v, want ErrNotFound", kind, err)
		}
	}
}

func TestUpdatePattern_InvalidKind(t *testing.T) {
	e, _, _ := newTestEngine(t)
	if err := e.UpdatePattern(UpdateRequest{Kind: "regex", Key: "x"}); !errors.Is(err, ErrInvalidKind) {
		t.Errorf("err = %v, want ErrInvalidKind", err)
	}
}

// --- RemovePattern ---

func TestRemovePattern_RequiresConfirm(t *testing.T) {
	e, store, _ := newTestEngine(t)
	doc := NewDocument()
	doc.TitleTransforms = []TitleTransform{{Match: "^Fix ", Transform: "x {original}"}}
	seed(t, store, doc)

	before, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatal(err)
	}

	err = e.RemovePattern(RemoveRequest{Kind: KindTitleTransform, Key: "^Fix ", Confirm: false})
	if !errors.Is(err, ErrConfirmRequired) {
		t.Fatalf("err = %v, want ErrConfirmRequired", err)
	}

	after, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("store changed without confirmation")
	}
}

func TestRemovePattern_EachKind(t *testing.T) {
	e, store, _ := newTestEngine(t)
	doc := NewDocument()
	doc.TitleTransforms = []TitleTransform{
		{Match: "^Fix ", Transform: "a {original}"},
		{Match: "^Call ", Transform: "b {original}"},
	}
	doc.addHintWeight("invoice", "Finance", 2)
	doc.ExactOverrides.Set("Call mom", ExactOverride{Title: "Call Mom"})
	seed(t, store, doc)

	reqs := []RemoveRequest{
		{Kind: KindTitleTransform, Key: "^Fix ", Confirm: true},
		{Kind: KindProjectHint, Key: "invoice", Confirm: true},
		{Kind: KindExactOverride, Key: "Call mom", Confirm: true},
	}
	for _, r := range reqs {
		if err := e.RemovePattern(r); err != nil {
			t.Fatalf("RemovePattern(%s): %v", r.Kind, err)
		}
	}

	got := store.LoadOrDefault()
	if len(got.TitleTransforms) != 1 || got.TitleTransforms[0].Match != "^Call " {
		t.Errorf("TitleTransforms = %+v", got.TitleTransforms)
	}
	if got.ProjectHints.Len() != 0 {
		t.Errorf("ProjectHints len = %d, want 0", got.ProjectHints.Len())
	}
	if got.ExactOverrides.Len() != 0 {
		t.Errorf("ExactOverrides len = %d, want 0", got.ExactOverrides.Len())
	}
}

func TestRemovePattern_SingleHintProject(t *testing.T) {
	e, store, _ := newTestEngine(t)
	doc := NewDocument()
	doc.addHintWeight("invoice", "Finance", 2)
	doc.addHintWeight("invoice", "Clients", 1)
	seed(t, store, doc)

	if err := e.RemovePattern(RemoveRequest{Kind: KindProjectHint, Key: "invoice:Clients", Confirm: true}); err != nil {
		t.Fatal(err)
	}
	weights, ok := store.LoadOrDefault().ProjectHints.Get("invoice")
	if !ok {
		t.Fatal("keyword should survive while it still has weights")
	}
	if _, ok := weights.Get("Clients"); ok {
		t.Error("Clients weight should be removed")
	}

	if err := e.RemovePattern(RemoveRequest{Kind: KindProjectHint, Key: "invoice:Finance", Confirm: true}); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.LoadOrDefault().ProjectHints.Get("invoice"); ok {
		t.Error("keyword should be dropped once empty")
	}
}

func TestRemovePattern_NotFound(t *testing.T) {
	e, _, _ := newTestEngine(t)

	for _, kind := range []Kind{KindTitleTransform, KindProjectHint, KindExactOverride} {
		err := e.RemovePattern(RemoveRequest{Kind: kind, Key: "missing", Confirm: true})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: err = %v, want ErrNotFound", kind, err)
		}
	}
}

// --- List ---

func TestList_CountsAndExampleCap(t *testing.T) {
	e, store, _ := newTestEngine(t)
	doc := NewDocument()
	doc.TitleTransforms = []TitleTransform{{
		Match: "^Fix ", Transform: "x {original}", Examples: []string{"a", "b", "c", "d"},
	}}
	doc.addHintWeight("invoice", "Finance", 1)
	doc.ExactOverrides.Set("Call mom", ExactOverride{Title: "Call Mom"})
	doc.Stats.ItemsProcessed = 7
	seed(t, store, doc)

	l := e.List()
	if l.TitleTransformsCount != 1 || l.ProjectHintKeywords != 1 || l.ExactOverridesCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1", l.TitleTransformsCount, l.ProjectHintKeywords, l.ExactOverridesCount)
	}
	if got := len(l.Patterns.TitleTransforms[0].Examples); got != 3 {
		t.Errorf("listed examples = %d, want 3", got)
	}
	if l.Stats.ItemsProcessed != 7 {
		t.Errorf("ItemsProcessed = %d, want 7", l.Stats.ItemsProcessed)
	}
}
