// Package patterns implements the title/project learning engine.
//
// The engine keeps three kinds of learned rules in a single JSON document:
// regex-keyed title transforms, keyword→project hints, and verbatim exact
// overrides. Suggestions consult them in that precedence order (overrides
// first), and human corrections feed back into the same document.
//
// The package is split the same way as the rest of the server:
// - types.go: document model and request enums
// - store.go: Repository abstraction + file-backed implementation
// - engine.go / learn.go: suggestion and learning operations
package patterns

import (
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// --- Sentinel errors ---

var (
	ErrNotFound        = errors.New("pattern not found")
	ErrInvalidKey      = errors.New(`key must be in format "keyword:project"`)
	ErrConfirmRequired = errors.New("must set confirm=true to delete pattern")
	ErrInvalidKind     = errors.New("invalid pattern type")
	ErrInvalidPattern  = errors.New("invalid match pattern")
	ErrInvalidSource   = errors.New("invalid suggestion source")
	ErrInvalidRequest  = errors.New("invalid request")
)

// notFoundError carries a specific message but matches ErrNotFound.
type notFoundError struct{ msg string }

func (e notFoundError) Error() string        { return e.msg }
func (e notFoundError) Is(target error) bool { return target == ErrNotFound }

func notFound(format string, args ...any) error {
	return notFoundError{msg: fmt.Sprintf(format, args...)}
}

// IsUserError reports whether err is a validation or not-found failure,
// as opposed to a storage failure.
func IsUserError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrInvalidKey, ErrConfirmRequired, ErrInvalidKind,
		ErrInvalidPattern, ErrInvalidSource, ErrInvalidRequest,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// --- Pattern kind enum ---

// Kind selects which rule family an update/remove call targets.
type Kind string

const (
	KindTitleTransform Kind = "title_transform"
	KindProjectHint    Kind = "project_hint"
	KindExactOverride  Kind = "exact_override"
)

var validKinds = map[Kind]bool{
	KindTitleTransform: true,
	KindProjectHint:    true,
	KindExactOverride:  true,
}

// ValidateKind returns an error if the kind is not recognized.
func ValidateKind(k Kind) error {
	if !validKinds[k] {
		return fmt.Errorf("%w %q: must be one of: title_transform, project_hint, exact_override", ErrInvalidKind, k)
	}
	return nil
}

// --- Suggestion source enum ---

// Source identifies which rule family produced a suggestion.
type Source string

const (
	SourceExactOverride  Source = "exact_override"
	SourceTitleTransform Source = "title_transform"
	SourceProjectHint    Source = "project_hint"
	SourceNone           Source = "none"
)

// DecisionSource records where the title shown to the user came from
// during a triage session.
type DecisionSource string

const (
	DecisionPattern DecisionSource = "pattern"
	DecisionAgent   DecisionSource = "agent"
	DecisionUser    DecisionSource = "user"
	DecisionNone    DecisionSource = "none"
)

var validDecisionSources = map[DecisionSource]bool{
	DecisionPattern: true,
	DecisionAgent:   true,
	DecisionUser:    true,
	DecisionNone:    true,
}

// ValidateDecisionSource accepts the empty string (source not reported).
func ValidateDecisionSource(s DecisionSource) error {
	if s == "" || validDecisionSources[s] {
		return nil
	}
	return fmt.Errorf("%w %q: must be one of: pattern, agent, user, none", ErrInvalidSource, s)
}

// --- Document model ---

// TitleTransform rewrites titles matching Match (a case-insensitive regex)
// using Transform, where {original} is replaced by the input title.
type TitleTransform struct {
	Match      string   `json:"match"`
	Transform  string   `json:"transform"`
	Confidence int      `json:"confidence"`
	Examples   []string `json:"examples"`
	LastUsed   string   `json:"last_used,omitempty"`
}

// ExactOverride is the stored answer for one verbatim title.
type ExactOverride struct {
	Title      string `json:"title"`
	Project    string `json:"project,omitempty"`
	Confidence int    `json:"confidence"`
}

// ProjectWeights maps project name → weight for a single keyword.
type ProjectWeights = orderedmap.OrderedMap[string, int]

// ProjectHints maps lowercase keyword → project weights.
type ProjectHints = orderedmap.OrderedMap[string, *ProjectWeights]

// ExactOverrides maps verbatim original title → override.
type ExactOverrides = orderedmap.OrderedMap[string, ExactOverride]

// Stats are the running counters persisted with the document.
type Stats struct {
	SessionsCompleted int       `json:"sessions_completed"`
	ItemsProcessed    int       `json:"items_processed"`
	PatternsLearned   int       `json:"patterns_learned"`
	AccuracyTrend     []float64 `json:"accuracy_trend"`
}

// Document is the root aggregate persisted as patterns.json.
// Hints and overrides keep insertion order so that tie-breaking is
// stable across load/save cycles.
type Document struct {
	TitleTransforms []TitleTransform `json:"title_transforms"`
	ProjectHints    *ProjectHints    `json:"project_hints"`
	ExactOverrides  *ExactOverrides  `json:"exact_overrides"`
	Stats           Stats            `json:"stats"`
}

// NewDocument returns an empty document with all collections allocated.
func NewDocument() *Document {
	d := &Document{}
	d.normalize()
	return d
}

// normalize fills in collections that were missing from the JSON.
func (d *Document) normalize() {
	if d.TitleTransforms == nil {
		d.TitleTransforms = []TitleTransform{}
	}
	for i := range d.TitleTransforms {
		if d.TitleTransforms[i].Examples == nil {
			d.TitleTransforms[i].Examples = []string{}
		}
	}
	if d.ProjectHints == nil {
		d.ProjectHints = orderedmap.New[string, *ProjectWeights]()
	}
	for pair := d.ProjectHints.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == nil {
			pair.Value = orderedmap.New[string, int]()
		}
	}
	if d.ExactOverrides == nil {
		d.ExactOverrides = orderedmap.New[string, ExactOverride]()
	}
	if d.Stats.AccuracyTrend == nil {
		d.Stats.AccuracyTrend = []float64{}
	}
}

// --- Suggestion ---

// Suggestion is the answer to "what would you do with this title?".
type Suggestion struct {
	Title      string   `json:"title"`
	Project    *string  `json:"project"`
	Confidence int      `json:"confidence"`
	Source     Source   `json:"source"`
	Rule       string   `json:"rule,omitempty"`
	Examples   []string `json:"examples"`
}

// Recommendation is the caller-facing banding of a confidence value.
type Recommendation struct {
	Level  string `json:"confidence_level"`
	Action string `json:"recommendation"`
}

const (
	silentThreshold    = 10
	indicatorThreshold = 3
)

// Recommend maps an unbounded confidence to its recommendation band.
// Negative confidences fall into the lowest band.
func Recommend(confidence int) Recommendation {
	switch {
	case confidence >= silentThreshold:
		return Recommendation{Level: "high", Action: "apply_silently"}
	case confidence >= indicatorThreshold:
		return Recommendation{Level: "medium", Action: "auto_apply_with_indicator"}
	default:
		return Recommendation{Level: "low", Action: "ask_user_confirmation"}
	}
}
