package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Analysis is the qualitative part of a profile. Zero values mean "no
// opinion" and are replaced by builder defaults.
type Analysis struct {
	Tone struct {
		Primary        string   `json:"primary"`
		Secondary      []string `json:"secondary"`
		HumorFrequency float64  `json:"humor_frequency"`
		FormalityScore float64  `json:"formality_score"`
	} `json:"tone"`
	Structural struct {
		CommonHooks     []string `json:"common_hooks"`
		ClosingPatterns []string `json:"closing_patterns"`
	} `json:"structural"`
	Vocabulary struct {
		IndustryTerms []string `json:"industry_terms"`
		AvoidedWords  []string `json:"avoided_words"`
	} `json:"vocabulary"`
}

// Analyst judges tone, structure and vocabulary from corpus samples.
type Analyst interface {
	Analyze(ctx context.Context, samples []Sample) (*Analysis, error)
}

// Sampling limits for the LLM prompt.
const (
	maxAnalystSamples = 20
	maxSampleChars    = 1000
	analystMaxTokens  = 2000
)

// AnthropicAnalyst asks Claude for the qualitative analysis.
type AnthropicAnalyst struct {
	client anthropic.Client
	model  string
}

// NewAnthropicAnalyst creates an analyst using apiKey and model.
func NewAnthropicAnalyst(apiKey, model string) *AnthropicAnalyst {
	return &AnthropicAnalyst{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Analyze sends a random selection of samples and parses the JSON reply.
func (a *AnthropicAnalyst) Analyze(ctx context.Context, samples []Sample) (*Analysis, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: analystMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildAnalysisPrompt(pickSamples(samples)))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return parseAnalysis(block.Text)
		}
	}
	return nil, fmt.Errorf("no text content in Anthropic response")
}

// pickSamples shuffles a copy of samples and keeps the first
// maxAnalystSamples.
func pickSamples(samples []Sample) []Sample {
	picked := append([]Sample(nil), samples...)
	rand.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	if len(picked) > maxAnalystSamples {
		picked = picked[:maxAnalystSamples]
	}
	return picked
}

func buildAnalysisPrompt(samples []Sample) string {
	parts := make([]string, 0, len(samples))
	for _, s := range samples {
		text := s.Text
		if r := []rune(text); len(r) > maxSampleChars {
			text = string(r[:maxSampleChars])
		}
		parts = append(parts, fmt.Sprintf("[%s]\n%s", s.Source, text))
	}

	var b strings.Builder
	b.WriteString("Analyze these writing samples from one author to extract voice characteristics.\n\n")
	b.WriteString("SAMPLES:\n")
	b.WriteString(strings.Join(parts, "\n\n---\n\n"))
	b.WriteString(`

Return a JSON object with these fields:
{
  "tone": {
    "primary": "single word describing dominant tone",
    "secondary": ["2-3 secondary tone descriptors"],
    "humor_frequency": 0.0-1.0,
    "formality_score": 1-5 (1=very casual, 5=very formal)
  },
  "structural": {
    "common_hooks": ["list of opening patterns you see"],
    "closing_patterns": ["list of closing patterns you see"]
  },
  "vocabulary": {
    "industry_terms": ["business/tech terms used frequently"],
    "avoided_words": ["corporate jargon NOT used that similar writers often use"]
  }
}

Be specific to this author's style. Return ONLY valid JSON.`)
	return b.String()
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// parseAnalysis extracts the outermost JSON object from a model reply.
func parseAnalysis(text string) (*Analysis, error) {
	raw := jsonObjectRe.FindString(text)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in analyst response")
	}
	var a Analysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, fmt.Errorf("parsing analyst response: %w", err)
	}
	return &a, nil
}
