package patterns

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/HendryAvila/quill/internal/history"
)

// minKeywordLen is the shortest word credited to a project hint.
const minKeywordLen = 4

// minAnchorWordLen is the shortest first word a derived transform may
// anchor on.
const minAnchorWordLen = 3

// --- Correction (single decision) ---

// Correction is one observed human correction of a suggestion.
type Correction struct {
	OriginalTitle    string
	SuggestedTitle   *string
	FinalTitle       string
	SuggestedProject *string
	FinalProject     *string
	TitleAccepted    *bool
	ProjectAccepted  *bool
}

// Validate checks the fields every correction must carry.
func (c Correction) Validate() error {
	if c.OriginalTitle == "" {
		return fmt.Errorf("%w: 'original_title' is required", ErrInvalidRequest)
	}
	if c.FinalTitle == "" {
		return fmt.Errorf("%w: 'final_title' is required", ErrInvalidRequest)
	}
	return nil
}

// LearnFromCorrection audits c, updates rules from it, and persists.
// learned is an OR across the transform and project-hint branches.
func (e *Engine) LearnFromCorrection(c Correction) (learned bool, err error) {
	if err := c.Validate(); err != nil {
		return false, err
	}

	if err := e.history.Append(history.Record{
		Event:            history.EventCorrection,
		OriginalTitle:    c.OriginalTitle,
		SuggestedTitle:   c.SuggestedTitle,
		FinalTitle:       c.FinalTitle,
		SuggestedProject: c.SuggestedProject,
		FinalProject:     c.FinalProject,
		TitleAccepted:    c.TitleAccepted,
		ProjectAccepted:  c.ProjectAccepted,
	}); err != nil {
		return false, fmt.Errorf("appending history: %w", err)
	}

	doc := e.repo.LoadOrDefault()
	suggested := deref(c.SuggestedTitle)
	finalProject := deref(c.FinalProject)

	if isTrue(c.TitleAccepted) && suggested != "" {
		if doc.reinforceFirstMatch(c.OriginalTitle) >= 0 {
			learned = true
		}
	} else if c.FinalTitle != c.OriginalTitle && (c.SuggestedTitle == nil || c.FinalTitle != suggested) {
		if derived, ok := DerivePattern(c.OriginalTitle, c.FinalTitle); ok {
			if doc.insertOrReinforce(derived, c.OriginalTitle) {
				doc.Stats.PatternsLearned++
			}
			learned = true
		}
		doc.ExactOverrides.Set(c.OriginalTitle, ExactOverride{
			Title:      c.FinalTitle,
			Project:    finalProject,
			Confidence: 1,
		})
	}

	if isTrue(c.ProjectAccepted) && finalProject != "" {
		if doc.creditKeywords(c.OriginalTitle, finalProject) > 0 {
			learned = true
		}
	}

	doc.Stats.ItemsProcessed++
	if err := e.repo.Save(doc); err != nil {
		return learned, fmt.Errorf("saving patterns: %w", err)
	}
	return learned, nil
}

// --- Batch ---

// Decision is one triage decision inside a learn_batch call.
type Decision struct {
	TaskID        string
	OriginalTitle string
	FinalTitle    string
	FinalProject  string
	Source        DecisionSource
	TitleAccepted bool
}

// Validate checks a single decision.
func (d Decision) Validate() error {
	if d.OriginalTitle == "" {
		return fmt.Errorf("%w: 'original_title' is required", ErrInvalidRequest)
	}
	if d.FinalTitle == "" {
		return fmt.Errorf("%w: 'final_title' is required", ErrInvalidRequest)
	}
	return ValidateDecisionSource(d.Source)
}

// BatchSummary reports what a learn_batch call changed.
type BatchSummary struct {
	DecisionsProcessed  int `json:"decisions_processed"`
	PatternsLearned     int `json:"patterns_learned"`
	ConfidenceUpdates   int `json:"confidence_updates"`
	TotalPatterns       int `json:"total_patterns"`
	TotalProjectHints   int `json:"total_project_hints"`
	TotalExactOverrides int `json:"total_exact_overrides"`
}

// LearnBatch processes a whole triage session and persists once.
//
// Project hints here are credited from the final title, whereas
// LearnFromCorrection credits the original title. Callers depend on both
// behaviors, so they are kept distinct.
func (e *Engine) LearnBatch(decisions []Decision) (*BatchSummary, error) {
	for i, d := range decisions {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("decision %d: %w", i, err)
		}
	}

	doc := e.repo.LoadOrDefault()
	summary := &BatchSummary{DecisionsProcessed: len(decisions)}
	accepted := 0

	for _, d := range decisions {
		titleAccepted := d.TitleAccepted
		rec := history.Record{
			Event:         history.EventDecision,
			TaskID:        d.TaskID,
			OriginalTitle: d.OriginalTitle,
			FinalTitle:    d.FinalTitle,
			TitleAccepted: &titleAccepted,
			Source:        string(d.Source),
		}
		if d.FinalProject != "" {
			p := d.FinalProject
			rec.FinalProject = &p
		}
		if err := e.history.Append(rec); err != nil {
			return nil, fmt.Errorf("appending history: %w", err)
		}

		if d.TitleAccepted {
			accepted++
		}

		switch {
		case d.TitleAccepted && d.Source == DecisionPattern:
			if doc.reinforceFirstMatch(d.OriginalTitle) >= 0 {
				summary.ConfidenceUpdates++
			}
		case !d.TitleAccepted && d.FinalTitle != d.OriginalTitle:
			if derived, ok := DerivePattern(d.OriginalTitle, d.FinalTitle); ok {
				if doc.insertOrReinforce(derived, d.OriginalTitle) {
					summary.PatternsLearned++
				} else {
					summary.ConfidenceUpdates++
				}
			}
			doc.ExactOverrides.Set(d.OriginalTitle, ExactOverride{
				Title:      d.FinalTitle,
				Project:    d.FinalProject,
				Confidence: 1,
			})
		}

		if d.FinalProject != "" {
			doc.creditKeywords(d.FinalTitle, d.FinalProject)
		}
	}

	doc.Stats.ItemsProcessed += len(decisions)
	doc.Stats.SessionsCompleted++
	doc.Stats.PatternsLearned += summary.PatternsLearned
	if len(decisions) > 0 {
		ratio := float64(accepted) / float64(len(decisions))
		doc.Stats.AccuracyTrend = append(doc.Stats.AccuracyTrend, math.Round(ratio*100)/100)
	}

	if err := e.repo.Save(doc); err != nil {
		return nil, fmt.Errorf("saving patterns: %w", err)
	}

	summary.TotalPatterns = len(doc.TitleTransforms)
	summary.TotalProjectHints = doc.ProjectHints.Len()
	summary.TotalExactOverrides = doc.ExactOverrides.Len()
	return summary, nil
}

// --- Derivation ---

// DerivePattern generalizes a correction into a prefix-insertion
// transform. It only fires when final contains original with a non-empty
// prefix and original starts with a word of at least three characters;
// suffix edits, infix edits, and deletions are not learned.
func DerivePattern(original, final string) (TitleTransform, bool) {
	idx := strings.Index(final, original)
	if original == "" || idx < 0 {
		return TitleTransform{}, false
	}
	prefix := final[:idx]
	if prefix == "" {
		return TitleTransform{}, false
	}

	words := strings.Fields(original)
	if len(words) == 0 || utf8.RuneCountInString(words[0]) < minAnchorWordLen {
		return TitleTransform{}, false
	}

	match := "^" + regexp.QuoteMeta(words[0]) + " "
	if _, err := compileMatch(match); err != nil {
		return TitleTransform{}, false
	}

	return TitleTransform{
		Match:      match,
		Transform:  prefix + "{original}",
		Confidence: 1,
		Examples:   []string{original},
		LastUsed:   nowStamp(),
	}, true
}

// reinforceFirstMatch bumps the first transform matching title and
// records title as an example. Returns the index, or -1.
func (d *Document) reinforceFirstMatch(title string) int {
	for i := range d.TitleTransforms {
		re, err := compileMatch(d.TitleTransforms[i].Match)
		if err != nil || !re.MatchString(title) {
			continue
		}
		t := &d.TitleTransforms[i]
		t.Confidence++
		t.LastUsed = nowStamp()
		t.addExample(title)
		return i
	}
	return -1
}

// insertOrReinforce adds t, or bumps the existing transform with the same
// match. Returns true when a new transform was inserted.
func (d *Document) insertOrReinforce(t TitleTransform, example string) bool {
	if i := d.transformIndex(t.Match); i >= 0 {
		d.TitleTransforms[i].Confidence++
		d.TitleTransforms[i].addExample(example)
		return false
	}
	d.TitleTransforms = append(d.TitleTransforms, t)
	return true
}

func (t *TitleTransform) addExample(example string) {
	if !slices.Contains(t.Examples, example) {
		t.Examples = append(t.Examples, example)
	}
}

// creditKeywords bumps keyword→project for every word of title with at
// least minKeywordLen characters. Returns the number of words credited.
func (d *Document) creditKeywords(title, project string) int {
	n := 0
	for _, kw := range Keywords(title) {
		d.addHintWeight(kw, project, 1)
		n++
	}
	return n
}

// Keywords lowercases title and returns its whitespace-delimited words of
// at least four characters, in order (duplicates included).
func Keywords(title string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(title)) {
		if utf8.RuneCountInString(w) >= minKeywordLen {
			out = append(out, w)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isTrue(b *bool) bool {
	return b != nil && *b
}
