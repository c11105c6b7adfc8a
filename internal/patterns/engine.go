package patterns

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/HendryAvila/quill/internal/history"
)

// Engine runs pattern operations against a Repository. It holds no
// pattern state of its own: every call loads the document fresh and
// mutating calls write it back in full (last writer wins).
type Engine struct {
	repo    Repository
	history history.Recorder
	logger  *slog.Logger
}

// NewEngine wires an Engine. A nil recorder discards audit records and a
// nil logger uses slog.Default().
func NewEngine(repo Repository, rec history.Recorder, logger *slog.Logger) *Engine {
	if rec == nil {
		rec = history.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{repo: repo, history: rec, logger: logger}
}

// --- Suggest ---

// Suggest answers with the highest-priority rule that matches title.
// It never fails; with no matching rule the source is "none".
func (e *Engine) Suggest(title string) Suggestion {
	doc := e.repo.LoadOrDefault()
	return doc.apply(title, e.logger)
}

// apply evaluates the document's rules against title without any I/O. A
// nil logger drops the warning for an uncompilable stored pattern.
func (d *Document) apply(title string, logger *slog.Logger) Suggestion {
	d.normalize()

	// 1. Exact overrides.
	if o, ok := d.ExactOverrides.Get(title); ok {
		var project *string
		if o.Project != "" {
			p := o.Project
			project = &p
		}
		return Suggestion{
			Title:      o.Title,
			Project:    project,
			Confidence: o.Confidence,
			Source:     SourceExactOverride,
			Rule:       fmt.Sprintf("Exact match: %q", title),
			Examples:   []string{},
		}
	}

	// 2. Title transforms, first match in stored order.
	for _, t := range d.TitleTransforms {
		re, err := compileMatch(t.Match)
		if err != nil {
			if logger != nil {
				logger.Warn("patterns: skipping unparseable transform", "match", t.Match, "err", err)
			}
			continue
		}
		if re.MatchString(title) {
			return Suggestion{
				Title:      applyTemplate(t.Transform, title),
				Confidence: t.Confidence,
				Source:     SourceTitleTransform,
				Rule:       fmt.Sprintf("Pattern: %s → %s", t.Match, t.Transform),
				Examples:   append([]string{}, t.Examples...),
			}
		}
	}

	// 3. Project hints, highest weight across every matching keyword.
	lower := strings.ToLower(title)
	var (
		bestProject string
		bestWeight  int
		bestKeyword string
	)
	for kw := d.ProjectHints.Oldest(); kw != nil; kw = kw.Next() {
		if !strings.Contains(lower, strings.ToLower(kw.Key)) {
			continue
		}
		for pw := kw.Value.Oldest(); pw != nil; pw = pw.Next() {
			if pw.Value > bestWeight {
				bestWeight = pw.Value
				bestProject = pw.Key
				bestKeyword = kw.Key
			}
		}
	}
	if bestProject != "" {
		project := bestProject
		return Suggestion{
			Title:      title,
			Project:    &project,
			Confidence: bestWeight,
			Source:     SourceProjectHint,
			Rule:       fmt.Sprintf("Keyword %q → %s", bestKeyword, bestProject),
			Examples:   []string{},
		}
	}

	// 4. Nothing matched.
	return Suggestion{
		Title:      title,
		Confidence: 0,
		Source:     SourceNone,
		Examples:   []string{},
	}
}

// compileMatch compiles a stored match pattern case-insensitively.
func compileMatch(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
	}
	return re, nil
}

// applyTemplate substitutes the first {original} placeholder.
func applyTemplate(tmpl, title string) string {
	return strings.Replace(tmpl, "{original}", title, 1)
}

// --- List ---

// TransformSummary is a transform as shown by list_patterns.
type TransformSummary struct {
	Match      string   `json:"match"`
	Transform  string   `json:"transform"`
	Confidence int      `json:"confidence"`
	Examples   []string `json:"examples"`
	LastUsed   string   `json:"last_used,omitempty"`
}

// Listing is the full dump returned by list_patterns.
type Listing struct {
	TitleTransformsCount int   `json:"title_transforms_count"`
	ProjectHintKeywords  int   `json:"project_hints_keywords"`
	ExactOverridesCount  int   `json:"exact_overrides_count"`
	Stats                Stats `json:"stats"`
	Patterns             struct {
		TitleTransforms []TransformSummary `json:"title_transforms"`
		ProjectHints    *ProjectHints      `json:"project_hints"`
		ExactOverrides  *ExactOverrides    `json:"exact_overrides"`
	} `json:"patterns"`
}

// listExamples is how many examples per transform list_patterns shows.
const listExamples = 3

// List returns counts, the pattern dump, and stats.
func (e *Engine) List() *Listing {
	doc := e.repo.LoadOrDefault()

	l := &Listing{
		TitleTransformsCount: len(doc.TitleTransforms),
		ProjectHintKeywords:  doc.ProjectHints.Len(),
		ExactOverridesCount:  doc.ExactOverrides.Len(),
		Stats:                doc.Stats,
	}
	l.Patterns.TitleTransforms = make([]TransformSummary, 0, len(doc.TitleTransforms))
	for _, t := range doc.TitleTransforms {
		examples := t.Examples
		if len(examples) > listExamples {
			examples = examples[:listExamples]
		}
		l.Patterns.TitleTransforms = append(l.Patterns.TitleTransforms, TransformSummary{
			Match:      t.Match,
			Transform:  t.Transform,
			Confidence: t.Confidence,
			Examples:   examples,
			LastUsed:   t.LastUsed,
		})
	}
	l.Patterns.ProjectHints = doc.ProjectHints
	l.Patterns.ExactOverrides = doc.ExactOverrides
	return l
}

// --- Update ---

// UpdateRequest adjusts an existing rule. Delta defaults to +1 for
// project hints and to "no change" elsewhere.
type UpdateRequest struct {
	Kind         Kind
	Key          string
	Delta        *int
	NewTransform *string
}

// UpdatePattern applies req and persists. Transforms and overrides must
// already exist; project hints are upserted.
func (e *Engine) UpdatePattern(req UpdateRequest) error {
	if err := ValidateKind(req.Kind); err != nil {
		return err
	}
	// Validate the hint key before touching storage.
	var keyword, project string
	if req.Kind == KindProjectHint {
		var err error
		if keyword, project, err = splitHintKey(req.Key); err != nil {
			return err
		}
	}

	doc := e.repo.LoadOrDefault()

	switch req.Kind {
	case KindTitleTransform:
		i := doc.transformIndex(req.Key)
		if i < 0 {
			return notFound("no title transform found with match: %s", req.Key)
		}
		t := &doc.TitleTransforms[i]
		if req.Delta != nil {
			t.Confidence += *req.Delta
		}
		if req.NewTransform != nil {
			t.Transform = *req.NewTransform
		}
		t.LastUsed = nowStamp()

	case KindProjectHint:
		delta := 1
		if req.Delta != nil && *req.Delta != 0 {
			delta = *req.Delta
		}
		doc.addHintWeight(keyword, project, delta)

	case KindExactOverride:
		o, ok := doc.ExactOverrides.Get(req.Key)
		if !ok {
			return notFound("no exact override found for: %s", req.Key)
		}
		if req.Delta != nil {
			o.Confidence += *req.Delta
		}
		if req.NewTransform != nil {
			o.Title = *req.NewTransform
		}
		doc.ExactOverrides.Set(req.Key, o)
	}

	if err := e.repo.Save(doc); err != nil {
		return fmt.Errorf("saving patterns: %w", err)
	}
	return nil
}

// splitHintKey parses "keyword:project"; exactly one separator is allowed.
// Hint keywords are stored lowercase, so the keyword is folded here.
func splitHintKey(key string) (keyword, project string, err error) {
	if strings.Count(key, ":") != 1 {
		return "", "", ErrInvalidKey
	}
	keyword, project, _ = strings.Cut(key, ":")
	if keyword == "" || project == "" {
		return "", "", ErrInvalidKey
	}
	return strings.ToLower(keyword), project, nil
}

// --- Remove ---

// RemoveRequest deletes a rule. Confirm must be true.
type RemoveRequest struct {
	Kind    Kind
	Key     string
	Confirm bool
}

// RemovePattern deletes the rule named by req and persists. Project hint
// keys may be a bare keyword (drops every weight) or "keyword:project".
func (e *Engine) RemovePattern(req RemoveRequest) error {
	if !req.Confirm {
		return ErrConfirmRequired
	}
	if err := ValidateKind(req.Kind); err != nil {
		return err
	}

	doc := e.repo.LoadOrDefault()

	switch req.Kind {
	case KindTitleTransform:
		i := doc.transformIndex(req.Key)
		if i < 0 {
			return notFound("no title transform found with match: %s", req.Key)
		}
		doc.TitleTransforms = append(doc.TitleTransforms[:i], doc.TitleTransforms[i+1:]...)

	case KindProjectHint:
		if strings.Contains(req.Key, ":") {
			keyword, project, err := splitHintKey(req.Key)
			if err != nil {
				return err
			}
			weights, ok := doc.ProjectHints.Get(keyword)
			if !ok {
				return notFound("no project hint found for keyword: %s", keyword)
			}
			if _, present := weights.Delete(project); !present {
				return notFound("no project hint %s for keyword: %s", project, keyword)
			}
			if weights.Len() == 0 {
				doc.ProjectHints.Delete(keyword)
			}
			break
		}
		keyword := strings.ToLower(req.Key)
		if _, present := doc.ProjectHints.Delete(keyword); !present {
			return notFound("no project hint found for keyword: %s", keyword)
		}

	case KindExactOverride:
		if _, present := doc.ExactOverrides.Delete(req.Key); !present {
			return notFound("no exact override found for: %s", req.Key)
		}
	}

	if err := e.repo.Save(doc); err != nil {
		return fmt.Errorf("saving patterns: %w", err)
	}
	return nil
}

// --- Document helpers ---

// transformIndex finds a transform by its exact match string.
func (d *Document) transformIndex(match string) int {
	for i, t := range d.TitleTransforms {
		if t.Match == match {
			return i
		}
	}
	return -1
}

// addHintWeight adds delta to keyword→project, creating entries as needed.
func (d *Document) addHintWeight(keyword, project string, delta int) {
	keyword = strings.ToLower(keyword)
	weights, ok := d.ProjectHints.Get(keyword)
	if !ok || weights == nil {
		weights = orderedmap.New[string, int]()
		d.ProjectHints.Set(keyword, weights)
	}
	current, _ := weights.Get(project)
	weights.Set(project, current+delta)
}
