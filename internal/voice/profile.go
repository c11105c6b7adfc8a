// Package voice scores a piece of writing against an author's voice
// profile.
//
// Scoring is a pure function of the text and the profile. The profile is
// built offline by the profile package and read from disk on every call;
// the scorer never writes it.
package voice

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Profile is the persisted voice profile document.
type Profile struct {
	Version             string              `json:"version"`
	GeneratedAt         string              `json:"generated_at"`
	SourceStats         SourceStats         `json:"source_stats"`
	Stylometrics        Stylometrics        `json:"stylometrics"`
	Vocabulary          Vocabulary          `json:"vocabulary"`
	Tone                Tone                `json:"tone"`
	Structural          Structural          `json:"structural"`
	PlatformAdaptations PlatformAdaptations `json:"platform_adaptations"`
	Taboos              Taboos              `json:"taboos"`
}

// SourceStats counts the corpus samples a profile was built from.
type SourceStats struct {
	TweetsAnalyzed             int `json:"tweets_analyzed"`
	NewslettersAnalyzed        int `json:"newsletters_analyzed"`
	BookChaptersAnalyzed       int `json:"book_chapters_analyzed"`
	YoutubeTranscriptsAnalyzed int `json:"youtube_transcripts_analyzed"`
	TotalWords                 int `json:"total_words"`
}

// Stylometrics are sentence-level aggregates over the corpus.
type Stylometrics struct {
	AvgSentenceLength    float64 `json:"avg_sentence_length"`
	SentenceLengthStddev float64 `json:"sentence_length_stddev"`
	AvgParagraphLength   float64 `json:"avg_paragraph_length"`
	FragmentRatio        float64 `json:"fragment_ratio"`
	QuestionRatio        float64 `json:"question_ratio"`
}

// Vocabulary holds the word lists the scorer rewards or penalizes.
type Vocabulary struct {
	HighFrequency    []string `json:"high_frequency"`
	SignaturePhrases []string `json:"signature_phrases"`
	IndustryTerms    []string `json:"industry_terms"`
	AvoidedWords     []string `json:"avoided_words"`
}

// Tone describes register. FormalityScore runs 1 (very casual) to 5.
type Tone struct {
	Primary        string   `json:"primary"`
	Secondary      []string `json:"secondary"`
	HumorFrequency float64  `json:"humor_frequency"`
	FormalityScore float64  `json:"formality_score"`
}

type Structural struct {
	CommonHooks     []string `json:"common_hooks"`
	ClosingPatterns []string `json:"closing_patterns"`
}

type PlatformAdaptations struct {
	X        XAdaptation        `json:"x"`
	LinkedIn LinkedInAdaptation `json:"linkedin"`
}

type XAdaptation struct {
	MaxLengthUsed   int     `json:"max_length_used"`
	ThreadFrequency float64 `json:"thread_frequency"`
	EmojiUsage      string  `json:"emoji_usage"`
}

type LinkedInAdaptation struct {
	TypicalLength      int     `json:"typical_length"`
	UsesLineBreaks     bool    `json:"uses_line_breaks"`
	PersonalStoryRatio float64 `json:"personal_story_ratio"`
}

// Taboos lists hard-fail and soft-warning categories.
type Taboos struct {
	HardFail    []string `json:"hard_fail"`
	SoftWarning []string `json:"soft_warning"`
}

// ProfileStore reads and writes profile.json.
type ProfileStore struct {
	Path string
}

// Load returns the stored profile, or nil when the file is missing or
// unparseable. A nil profile puts the scorer in baseline mode.
func (s ProfileStore) Load() *Profile {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil
	}
	return &p
}

// Save writes p atomically, creating the parent directory.
func (s ProfileStore) Save(p *Profile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling voice profile: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating voice directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".profile-*.json")
	if err != nil {
		return fmt.Errorf("creating temp profile: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing voice profile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing voice profile: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing voice profile: %w", err)
	}
	return nil
}
