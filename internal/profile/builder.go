package profile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/HendryAvila/quill/internal/voice"
)

// ErrEmptyCorpus is returned when there is nothing to build from.
var ErrEmptyCorpus = errors.New("no content found in corpus")

// ProfileVersion is written to every generated profile.
const ProfileVersion = "1.0"

// Fallbacks used when the corpus or the analyst has no answer.
var (
	defaultSignaturePhrases = []string{"Here's the thing:", "Let me tell you a story:", "I learned this the hard way:"}
	defaultIndustryTerms    = []string{"startup", "founder", "acquired", "bootstrap", "exit"}
	defaultAvoidedWords     = []string{"synergy", "leverage", "disrupt", "innovative", "paradigm"}
	defaultSecondaryTone    = []string{"self-deprecating", "direct", "reflective"}
	defaultCommonHooks      = []string{
		`Number-based ("3 things I learned...")`,
		`Story-based ("When I was 25...")`,
		`Contrarian ("Everyone says X. I disagree.")`,
	}
	defaultClosingPatterns = []string{"Call to reflection", "Single line takeaway", "Question to reader"}
)

const (
	defaultPrimaryTone    = "conversational"
	defaultHumorFrequency = 0.12
	defaultFormality      = 2
)

// Builder turns corpus samples into a voice profile.
type Builder struct {
	analyst Analyst
	logger  *slog.Logger
	now     func() time.Time
}

// NewBuilder creates a Builder. A nil analyst skips the qualitative pass
// and uses defaults; a nil logger uses slog.Default().
func NewBuilder(analyst Analyst, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{analyst: analyst, logger: logger, now: time.Now}
}

// Build computes a profile. Analyst failures are logged and replaced by
// defaults; only an empty corpus is an error.
func (b *Builder) Build(ctx context.Context, samples []Sample) (*voice.Profile, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyCorpus
	}
	b.logger.Info("profile: building", "samples", len(samples))

	texts := make([]string, len(samples))
	var src voice.SourceStats
	for i, s := range samples {
		texts[i] = s.Text
		switch s.Source {
		case SourceTweet:
			src.TweetsAnalyzed++
		case SourceNewsletter:
			src.NewslettersAnalyzed++
		case SourceBook:
			src.BookChaptersAnalyzed++
		case SourceYoutube:
			src.YoutubeTranscriptsAnalyzed++
		}
	}

	stylo := ComputeStylometrics(texts)
	src.TotalWords = stylo.TotalWords

	analysis := &Analysis{}
	if b.analyst != nil {
		b.logger.Info("profile: running analyst")
		a, err := b.analyst.Analyze(ctx, samples)
		if err != nil {
			b.logger.Warn("profile: analyst failed, using defaults", "err", err)
		} else if a != nil {
			analysis = a
		}
	}

	p := &voice.Profile{
		Version:      ProfileVersion,
		GeneratedAt:  b.now().UTC().Format(time.RFC3339),
		SourceStats:  src,
		Stylometrics: stylo.Stylometrics,
		Vocabulary: voice.Vocabulary{
			HighFrequency:    HighFrequencyWords(texts, 20),
			SignaturePhrases: orDefault(SignaturePhrases(texts), defaultSignaturePhrases),
			IndustryTerms:    orDefault(analysis.Vocabulary.IndustryTerms, defaultIndustryTerms),
			AvoidedWords:     orDefault(analysis.Vocabulary.AvoidedWords, defaultAvoidedWords),
		},
		Tone: voice.Tone{
			Primary:        analysis.Tone.Primary,
			Secondary:      orDefault(analysis.Tone.Secondary, defaultSecondaryTone),
			HumorFrequency: analysis.Tone.HumorFrequency,
			FormalityScore: analysis.Tone.FormalityScore,
		},
		Structural: voice.Structural{
			CommonHooks:     orDefault(analysis.Structural.CommonHooks, defaultCommonHooks),
			ClosingPatterns: orDefault(analysis.Structural.ClosingPatterns, defaultClosingPatterns),
		},
		PlatformAdaptations: voice.PlatformAdaptations{
			X:        voice.XAdaptation{MaxLengthUsed: 280, ThreadFrequency: 0.1, EmojiUsage: "minimal"},
			LinkedIn: voice.LinkedInAdaptation{TypicalLength: 800, UsesLineBreaks: true, PersonalStoryRatio: 0.7},
		},
		Taboos: voice.Taboos{
			HardFail:    []string{"hashtags", "corporate_jargon", "excessive_emojis"},
			SoftWarning: []string{"too_formal", "generic_advice", "clickbait"},
		},
	}
	if p.Tone.Primary == "" {
		p.Tone.Primary = defaultPrimaryTone
	}
	if p.Tone.HumorFrequency == 0 {
		p.Tone.HumorFrequency = defaultHumorFrequency
	}
	if p.Tone.FormalityScore == 0 {
		p.Tone.FormalityScore = defaultFormality
	}
	if p.Vocabulary.HighFrequency == nil {
		p.Vocabulary.HighFrequency = []string{}
	}

	b.logger.Info("profile: built",
		"total_words", src.TotalWords,
		"avg_sentence_length", p.Stylometrics.AvgSentenceLength,
		"primary_tone", p.Tone.Primary,
	)
	return p, nil
}

func orDefault(v, def []string) []string {
	if len(v) > 0 {
		return v
	}
	return append([]string(nil), def...)
}
