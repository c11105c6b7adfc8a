package patterns

import (
	"errors"
	"testing"

	"github.com/HendryAvila/quill/internal/history"
)

// --- End-to-end scenarios ---

func TestScenario_EmptyStoreSuggestsNothing(t *testing.T) {
	e, _, _ := newTestEngine(t)

	got := e.Suggest("Fix the login bug")
	if got.Title != "Fix the login bug" || got.Project != nil || got.Confidence != 0 || got.Source != SourceNone {
		t.Errorf("Suggest = %+v, want unchanged/none", got)
	}
}

func TestScenario_CorrectionDerivesTransformAndOverride(t *testing.T) {
	e, store, rec := newTestEngine(t)

	learned, err := e.LearnFromCorrection(Correction{
		OriginalTitle: "Fix the login bug",
		FinalTitle:    "Delegate to Sam: Fix the login bug",
		TitleAccepted: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("LearnFromCorrection: %v", err)
	}
	if !learned {
		t.Error("learned = false, want true")
	}
	if len(rec.records) != 1 || rec.records[0].Event != history.EventCorrection {
		t.Errorf("history = %+v, want one correction", rec.records)
	}

	doc := store.LoadOrDefault()
	if len(doc.TitleTransforms) != 1 {
		t.Fatalf("TitleTransforms len = %d, want 1", len(doc.TitleTransforms))
	}
	tt := doc.TitleTransforms[0]
	if tt.Match != "^Fix " || tt.Transform != "Delegate to Sam: {original}" || tt.Confidence != 1 {
		t.Errorf("derived transform = %+v", tt)
	}
	o, ok := doc.ExactOverrides.Get("Fix the login bug")
	if !ok || o.Title != "Delegate to Sam: Fix the login bug" || o.Confidence != 1 {
		t.Errorf("override = %+v (present=%v)", o, ok)
	}
	if doc.Stats.PatternsLearned != 1 || doc.Stats.ItemsProcessed != 1 {
		t.Errorf("stats = %+v", doc.Stats)
	}

	exact := e.Suggest("Fix the login bug")
	if exact.Source != SourceExactOverride || exact.Title != "Delegate to Sam: Fix the login bug" {
		t.Errorf("exact Suggest = %+v", exact)
	}

	other := e.Suggest("Fix the checkout bug")
	if other.Source != SourceTitleTransform {
		t.Fatalf("Source = %s, want title_transform", other.Source)
	}
	if other.Title != "Delegate to Sam: Fix the checkout bug" || other.Confidence != 1 {
		t.Errorf("transform Suggest = %+v", other)
	}
}

// --- LearnFromCorrection ---

func TestLearnFromCorrection_OverrideOnlyIsNotLearned(t *testing.T) {
	e, store, _ := newTestEngine(t)

	// A rewrite (not a prefix) derives no transform but still stores an override.
	learned, err := e.LearnFromCorrection(Correction{
		OriginalTitle: "Call mom",
		FinalTitle:    "Phone call with Mom",
		TitleAccepted: boolPtr(false),
	})
	if err != nil {
		t.Fatal(err)
	}
	if learned {
		t.Error("learned = true, want false when only an override was stored")
	}

	doc := store.LoadOrDefault()
	if len(doc.TitleTransforms) != 0 {
		t.Errorf("transforms = %d, want 0", len(doc.TitleTransforms))
	}
	if o, ok := doc.ExactOverrides.Get("Call mom"); !ok || o.Title != "Phone call with Mom" {
		t.Errorf("override = %+v, %v", o, ok)
	}
}

func TestLearnFromCorrection_UnchangedTitleDerivesNothing(t *testing.T) {
	e, store, rec := newTestEngine(t)

	learned, err := e.LearnFromCorrection(Correction{
		OriginalTitle: "Water plants",
		FinalTitle:    "Water plants",
		TitleAccepted: boolPtr(false),
	})
	if err != nil {
		t.Fatal(err)
	}
	if learned {
		t.Error("learned = true, want false")
	}
	if len(rec.records) != 1 {
		t.Errorf("history records = %d, want 1", len(rec.records))
	}

	doc := store.LoadOrDefault()
	if len(doc.TitleTransforms) != 0 || doc.ExactOverrides.Len() != 0 {
		t.Error("no rules should be created for an unchanged title")
	}
	if doc.Stats.ItemsProcessed != 1 {
		t.Errorf("ItemsProcessed = %d, want 1", doc.Stats.ItemsProcessed)
	}
}

func TestLearnFromCorrection_FinalEqualsSuggestionSkipsDerivation(t *testing.T) {
	e, store, _ := newTestEngine(t)

	_, err := e.LearnFromCorrection(Correction{
		OriginalTitle:  "Call mom",
		SuggestedTitle: strPtr("Phone: Call mom"),
		FinalTitle:     "Phone: Call mom",
		TitleAccepted:  boolPtr(false),
	})
	if err != nil {
		t.Fatal(err)
	}
	if doc := store.LoadOrDefault(); len(doc.TitleTransforms) != 0 || doc.ExactOverrides.Len() != 0 {
		t.Error("final title equal to the suggestion must not derive rules")
	}
}

func TestLearnFromCorrection_AcceptedReinforcesFirstMatch(t *testing.T) {
	freezeTime(t)
	e, store, _ := newTestEngine(t)
	doc := NewDocument()
	doc.TitleTransforms = []TitleTransform{
		{Match: "^Fix ", Transform: "Bug: {original}", Confidence: 2, Examples: []string{"Fix a"}},
		{Match: "bug", Transform: "Other: {original}", Confidence: 9},
	}
	seed(t, store, doc)

	learned, err := e.LearnFromCorrection(Correction{
		OriginalTitle:  "Fix the bug",
		SuggestedTitle: strPtr("Bug: Fix the bug"),
		FinalTitle:     "Bug: Fix the bug",
		TitleAccepted:  boolPtr(true),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !learned {
		t.Error("learned = false, want true")
	}

	got := store.LoadOrDefault().TitleTransforms
	if got[0].Confidence != 3 || got[1].Confidence != 9 {
		t.Errorf("confidences = %d/%d, want 3/9", got[0].Confidence, got[1].Confidence)
	}
	if len(got[0].Examples) != 2 || got[0].Examples[1] != "Fix the bug" {
		t.Errorf("Examples = %v", got[0].Examples)
	}
	if got[0].LastUsed != "2026-03-01T12:00:00Z" {
		t.Errorf("LastUsed = %q", got[0].LastUsed)
	}
}

func TestLearnFromCorrection_AcceptedWithoutMatch(t *testing.T) {
	e, _, _ := newTestEngine(t)

	learned, err := e.LearnFromCorrection(Correction{
		OriginalTitle:  "Water plants",
		SuggestedTitle: strPtr("Garden: Water plants"),
		FinalTitle:     "Garden: Water plants",
		TitleAccepted:  boolPtr(true),
	})
	if err != nil {
		t.Fatal(err)
	}
	if learned {
		t.Error("learned = true with no matching transform and no project")
	}
}

func TestLearnFromCorrection_ProjectCreditsOriginalKeywords(t *testing.T) {
	e, store, _ := newTestEngine(t)

	learned, err := e.LearnFromCorrection(Correction{
		OriginalTitle:   "Send invoice to Acme",
		FinalTitle:      "Send invoice to Acme",
		FinalProject:    strPtr("Finance"),
		ProjectAccepted: boolPtr(true),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !learned {
		t.Error("learned = false, want true from project hints")
	}

	doc := store.LoadOrDefault()
	for _, kw := range []string{"send", "invoice", "acme"} {
		weights, ok := doc.ProjectHints.Get(kw)
		if !ok {
			t.Errorf("keyword %q not credited", kw)
			continue
		}
		if w, _ := weights.Get("Finance"); w != 1 {
			t.Errorf("%s→Finance = %d, want 1", kw, w)
		}
	}
	if _, ok := doc.ProjectHints.Get("to"); ok {
		t.Error("short words must not be credited")
	}
}

func TestLearnFromCorrection_Validation(t *testing.T) {
	e, _, rec := newTestEngine(t)

	if _, err := e.LearnFromCorrection(Correction{FinalTitle: "x"}); err == nil {
		t.Error("expected error for missing original_title")
	}
	if _, err := e.LearnFromCorrection(Correction{OriginalTitle: "x"}); err == nil {
		t.Error("expected error for missing final_title")
	}
	if len(rec.records) != 0 {
		t.Error("invalid corrections must not be audited")
	}
}

func TestLearnFromCorrection_HistoryFailureStopsLearning(t *testing.T) {
	e, store, rec := newTestEngine(t)
	rec.err = errors.New("disk full")

	_, err := e.LearnFromCorrection(Correction{OriginalTitle: "Fix a", FinalTitle: "Bug: Fix a"})
	if err == nil {
		t.Fatal("expected history error")
	}
	if store.LoadOrDefault().Stats.ItemsProcessed != 0 {
		t.Error("patterns must not change when the audit append fails")
	}
}

// --- LearnBatch ---

func TestLearnBatch_Summary(t *testing.T) {
	e, store, rec := newTestEngine(t)
	doc := NewDocument()
	doc.TitleTransforms = []TitleTransform{{Match: "^Call ", Transform: "Phone: {original}", Confidence: 1}}
	seed(t, store, doc)

	summary, err := e.LearnBatch([]Decision{
		{TaskID: "t1", OriginalTitle: "Call bank", FinalTitle: "Phone: Call bank", Source: DecisionPattern, TitleAccepted: true},
		{TaskID: "t2", OriginalTitle: "Review budget draft", FinalTitle: "Finance: Review budget draft", FinalProject: "Finance", Source: DecisionUser},
		{TaskID: "t3", OriginalTitle: "Buy milk", FinalTitle: "Buy milk", Source: DecisionNone},
	})
	if err != nil {
		t.Fatalf("LearnBatch: %v", err)
	}

	if summary.DecisionsProcessed != 3 {
		t.Errorf("DecisionsProcessed = %d, want 3", summary.DecisionsProcessed)
	}
	if summary.PatternsLearned != 1 {
		t.Errorf("PatternsLearned = %d, want 1", summary.PatternsLearned)
	}
	if summary.ConfidenceUpdates != 1 {
		t.Errorf("ConfidenceUpdates = %d, want 1", summary.ConfidenceUpdates)
	}
	if summary.TotalPatterns != 2 || summary.TotalExactOverrides != 1 {
		t.Errorf("totals = %+v", summary)
	}
	if len(rec.records) != 3 || rec.records[0].Event != history.EventDecision || rec.records[0].TaskID != "t1" {
		t.Errorf("history = %+v", rec.records)
	}

	got := store.LoadOrDefault()
	if got.TitleTransforms[0].Confidence != 2 {
		t.Errorf("reinforced confidence = %d, want 2", got.TitleTransforms[0].Confidence)
	}
	if got.Stats.SessionsCompleted != 1 || got.Stats.ItemsProcessed != 3 || got.Stats.PatternsLearned != 1 {
		t.Errorf("stats = %+v", got.Stats)
	}
	if len(got.Stats.AccuracyTrend) != 1 || got.Stats.AccuracyTrend[0] != 0.33 {
		t.Errorf("AccuracyTrend = %v, want [0.33]", got.Stats.AccuracyTrend)
	}
}

func TestLearnBatch_ProjectCreditsFinalKeywords(t *testing.T) {
	e, store, _ := newTestEngine(t)

	_, err := e.LearnBatch([]Decision{{
		OriginalTitle: "Review draft",
		FinalTitle:    "Finance: Review budget draft",
		FinalProject:  "Finance",
		Source:        DecisionUser,
	}})
	if err != nil {
		t.Fatal(err)
	}

	doc := store.LoadOrDefault()
	if _, ok := doc.ProjectHints.Get("budget"); !ok {
		t.Error("batch should credit words of the final title")
	}
	if _, ok := doc.ProjectHints.Get("finance:"); !ok {
		t.Error("batch tokenizes the final title verbatim, including the prefix word")
	}
}

func TestLearnBatch_AcceptedNonPatternSourceDoesNotReinforce(t *testing.T) {
	e, store, _ := newTestEngine(t)
	doc := NewDocument()
	doc.TitleTransforms = []TitleTransform{{Match: "^Call ", Transform: "Phone: {original}", Confidence: 1}}
	seed(t, store, doc)

	summary, err := e.LearnBatch([]Decision{
		{OriginalTitle: "Call bank", FinalTitle: "Call bank", Source: DecisionAgent, TitleAccepted: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	if summary.ConfidenceUpdates != 0 {
		t.Errorf("ConfidenceUpdates = %d, want 0", summary.ConfidenceUpdates)
	}
	if c := store.LoadOrDefault().TitleTransforms[0].Confidence; c != 1 {
		t.Errorf("confidence = %d, want 1", c)
	}
}

func TestLearnBatch_RepeatedPrefixReinforces(t *testing.T) {
	e, store, _ := newTestEngine(t)

	summary, err := e.LearnBatch([]Decision{
		{OriginalTitle: "Fix login", FinalTitle: "Bug: Fix login", Source: DecisionUser},
		{OriginalTitle: "Fix signup", FinalTitle: "Bug: Fix signup", Source: DecisionUser},
	})
	if err != nil {
		t.Fatal(err)
	}
	if summary.PatternsLearned != 1 || summary.ConfidenceUpdates != 1 {
		t.Errorf("summary = %+v, want 1 learned / 1 update", summary)
	}
	tt := store.LoadOrDefault().TitleTransforms
	if len(tt) != 1 || tt[0].Confidence != 2 || len(tt[0].Examples) != 2 {
		t.Errorf("transforms = %+v", tt)
	}
}

func TestLearnBatch_InvalidDecisionRejectsWholeBatch(t *testing.T) {
	e, store, rec := newTestEngine(t)

	_, err := e.LearnBatch([]Decision{
		{OriginalTitle: "Fix a", FinalTitle: "Bug: Fix a"},
		{OriginalTitle: "Fix b", FinalTitle: "Bug: Fix b", Source: "robot"},
	})
	if !errors.Is(err, ErrInvalidSource) {
		t.Fatalf("err = %v, want ErrInvalidSource", err)
	}
	if len(rec.records) != 0 {
		t.Error("no decision should be audited when validation fails")
	}
	if store.LoadOrDefault().Stats.SessionsCompleted != 0 {
		t.Error("store must be untouched")
	}
}

func TestLearnBatch_Empty(t *testing.T) {
	e, store, _ := newTestEngine(t)

	summary, err := e.LearnBatch(nil)
	if err != nil {
		t.Fatal(err)
	}
	if summary.DecisionsProcessed != 0 {
		t.Errorf("DecisionsProcessed = %d", summary.DecisionsProcessed)
	}
	doc := store.LoadOrDefault()
	if doc.Stats.SessionsCompleted != 1 || len(doc.Stats.AccuracyTrend) != 0 {
		t.Errorf("stats = %+v", doc.Stats)
	}
}

// --- DerivePattern ---

func TestDerivePattern(t *testing.T) {
	tests := []struct {
		name      string
		original  string
		final     string
		wantOK    bool
		wantMatch string
		wantTmpl  string
	}{
		{"prefix", "Fix the login bug", "Delegate to Sam: Fix the login bug", true, "^Fix ", "Delegate to Sam: {original}"},
		{"metacharacters quoted", "C++ build broken", "Eng: C++ build broken", true, `^C\+\+ `, "Eng: {original}"},
		{"suffix only", "Fix bug", "Fix bug today", false, "", ""},
		{"no containment", "Fix bug", "Repair bug", false, "", ""},
		{"short first word", "Go shopping", "Errand: Go shopping", false, "", ""},
		{"equal", "Fix bug", "Fix bug", false, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DerivePattern(tt.original, tt.final)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Match != tt.wantMatch || got.Transform != tt.wantTmpl {
				t.Errorf("got %q → %q, want %q → %q", got.Match, got.Transform, tt.wantMatch, tt.wantTmpl)
			}
			if got.Confidence != 1 || len(got.Examples) != 1 || got.Examples[0] != tt.original {
				t.Errorf("derived = %+v", got)
			}
			if _, err := compileMatch(got.Match); err != nil {
				t.Errorf("derived match does not compile: %v", err)
			}
		})
	}
}

func TestKeywords(t *testing.T) {
	got := Keywords("Plan the Team offsite with team")
	want := []string{"plan", "team", "offsite", "with", "team"}
	if len(got) != len(want) {
		t.Fatalf("Keywords = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keywords[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
