package voice

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// PassThreshold is the lowest overall score that passes.
const PassThreshold = 70

// Category weights for the overall score.
const (
	weightSentence   = 0.20
	weightVocabulary = 0.25
	weightTone       = 0.30
	weightHook       = 0.15
	weightTaboo      = 0.10
)

// baselineScore is used for every profile-dependent category when no
// profile exists.
const baselineScore = 60

// Flag and suggestion text shared by several paths.
const (
	noProfileFlag       = "No voice profile found - using basic scoring"
	noProfileSuggestion = "Run 'quill profile build' to generate a voice profile for better scoring"
	hardFailSuggestion  = "Remove the taboo element and regenerate"
)

// Categories are the five sub-scores, each 0-100.
type Categories struct {
	SentenceStructure int `json:"sentence_structure"`
	VocabularyMatch   int `json:"vocabulary_match"`
	ToneConsistency   int `json:"tone_consistency"`
	HookUsage         int `json:"hook_usage"`
	TabooViolations   int `json:"taboo_violations"`
}

// TextStats describes the scored text.
type TextStats struct {
	Words             int     `json:"words"`
	Sentences         int     `json:"sentences"`
	AvgSentenceLength float64 `json:"avg_sentence_length"`
}

// Result is a VoiceScore.
type Result struct {
	Overall     int        `json:"overall"`
	Passed      bool       `json:"passed"`
	Categories  Categories `json:"categories"`
	Flags       []string   `json:"flags"`
	Suggestions []string   `json:"suggestions"`
	Stats       TextStats  `json:"stats"`
}

var (
	hashtagRe   = regexp.MustCompile(`#\w+`)
	jargonRe    = regexp.MustCompile(`(?i)\b(synergy|leverage|disrupt|innovative|paradigm|holistic|bandwidth|circle back|touch base|deep dive)\b`)
	emojiRe     = regexp.MustCompile(`[\x{1F300}-\x{1F9FF}]`)
	sentenceSep = regexp.MustCompile(`[.!?]+`)

	formalRe  = regexp.MustCompile(`(?i)\b(therefore|however|furthermore|moreover|consequently|nevertheless)\b`)
	casualRe  = regexp.MustCompile(`(?i)\b(like|kinda|sorta|gonna|wanna|basically|honestly|literally)\b`)
	selfDepRe = regexp.MustCompile(`(?i)\b(i (was|am) (wrong|stupid|dumb|an idiot)|my mistake|i messed up|i screwed up)\b`)
	directRe  = regexp.MustCompile(`(?i)\b(you|your|you're|you've)\b`)

	hookPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^here's (the thing|what)`),
		regexp.MustCompile(`(?i)^let me tell you`),
		regexp.MustCompile(`(?i)^i (learned|discovered|realized)`),
		regexp.MustCompile(`(?i)^the (truth|reality|thing) is`),
		regexp.MustCompile(`(?i)^when i was`),
		regexp.MustCompile(`(?i)^\d+ (things|lessons|mistakes)`),
		regexp.MustCompile(`(?i)^everyone (thinks|says|believes)`),
		regexp.MustCompile(`(?i)^most people (don't|never|won't)`),
		regexp.MustCompile(`(?i)^what (if|nobody)`),
		regexp.MustCompile(`(?i)^i used to`),
	}
	storyOpenerRe = regexp.MustCompile(`(?i)^(in|back in|last|years? ago)\b`)

	quoteReplacer = strings.NewReplacer("‘", "'", "’", "'")
)

// Score rates content against profile. A nil profile selects baseline
// mode. Hard taboo violations force every score to zero in both modes.
func Score(content string, profile *Profile) Result {
	content = quoteReplacer.Replace(content)
	lengths := sentenceLengths(content)
	stats := textStats(lengths)

	taboo := checkTaboos(content)
	if taboo.hardFail {
		return Result{
			Overall:     0,
			Passed:      false,
			Categories:  Categories{},
			Flags:       []string{"HARD FAIL: " + taboo.violations[0]},
			Suggestions: []string{hardFailSuggestion},
			Stats:       stats,
		}
	}

	if profile == nil {
		return Result{
			Overall: baselineScore,
			Passed:  baselineScore >= PassThreshold,
			Categories: Categories{
				SentenceStructure: baselineScore,
				VocabularyMatch:   baselineScore,
				ToneConsistency:   baselineScore,
				HookUsage:         scoreHook(content),
				TabooViolations:   taboo.score,
			},
			Flags:       append([]string{noProfileFlag}, taboo.violations...),
			Suggestions: []string{noProfileSuggestion},
			Stats:       stats,
		}
	}

	cats := Categories{
		SentenceStructure: scoreSentenceStructure(stats, profile),
		VocabularyMatch:   scoreVocabulary(content, profile),
		ToneConsistency:   scoreTone(content, profile),
		HookUsage:         scoreHook(content),
		TabooViolations:   taboo.score,
	}
	overall := int(math.Round(
		weightSentence*float64(cats.SentenceStructure) +
			weightVocabulary*float64(cats.VocabularyMatch) +
			weightTone*float64(cats.ToneConsistency) +
			weightHook*float64(cats.HookUsage) +
			weightTaboo*float64(cats.TabooViolations),
	))

	flags := taboo.violations
	if flags == nil {
		flags = []string{}
	}
	return Result{
		Overall:     overall,
		Passed:      overall >= PassThreshold,
		Categories:  cats,
		Flags:       flags,
		Suggestions: suggestions(cats, stats, profile),
		Stats:       stats,
	}
}

// --- Taboo gate ---

type tabooResult struct {
	score      int
	hardFail   bool
	violations []string
}

func checkTaboos(content string) tabooResult {
	if tags := hashtagRe.FindAllString(content, -1); len(tags) > 0 {
		return tabooResult{
			hardFail:   true,
			violations: []string{"Contains hashtags: " + strings.Join(firstN(tags, 3), ", ")},
		}
	}

	matches := jargonRe.FindAllString(content, -1)
	distinct := distinctFold(matches)
	if len(distinct) >= 2 {
		return tabooResult{
			hardFail:   true,
			violations: []string{"Contains corporate jargon: " + strings.Join(firstN(distinct, 3), ", ")},
		}
	}

	res := tabooResult{score: 100}
	if len(distinct) == 1 {
		res.score -= 20
		res.violations = append(res.violations, "Contains jargon word: "+matches[0])
	}

	switch emojis := len(emojiRe.FindAllString(content, -1)); {
	case emojis > 3:
		res.score -= 30
		res.violations = append(res.violations, "Contains excessive emojis")
	case emojis > 1:
		res.score -= 10
		res.violations = append(res.violations, "Multiple emojis (consider reducing)")
	}
	return res
}

// distinctFold dedupes case-insensitively, keeping lowercase forms in
// first-seen order.
func distinctFold(words []string) []string {
	seen := make(map[string]bool, len(words))
	var out []string
	for _, w := range words {
		lw := strings.ToLower(w)
		if !seen[lw] {
			seen[lw] = true
			out = append(out, lw)
		}
	}
	return out
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// --- Categories ---

// sentenceLengths splits on runs of . ! ? and counts words per non-blank
// piece.
func sentenceLengths(content string) []int {
	var lengths []int
	for _, s := range sentenceSep.Split(content, -1) {
		if strings.TrimSpace(s) == "" {
			continue
		}
		lengths = append(lengths, len(strings.Fields(s)))
	}
	return lengths
}

func textStats(lengths []int) TextStats {
	st := TextStats{Sentences: len(lengths)}
	for _, n := range lengths {
		st.Words += n
	}
	if st.Sentences > 0 {
		st.AvgSentenceLength = math.Round(float64(st.Words)/float64(st.Sentences)*10) / 10
	}
	return st
}

func scoreSentenceStructure(st TextStats, p *Profile) int {
	if st.Sentences == 0 {
		return 50
	}
	avg := float64(st.Words) / float64(st.Sentences)
	diff := math.Abs(avg - p.Stylometrics.AvgSentenceLength)
	tol := p.Stylometrics.SentenceLengthStddev
	switch {
	case diff <= tol:
		return 100
	case diff <= tol*2:
		return 80
	case diff <= tol*3:
		return 60
	default:
		return 40
	}
}

func scoreVocabulary(content string, p *Profile) int {
	lower := strings.ToLower(content)
	score := 50

	phrases := 0
	for _, ph := range p.Vocabulary.SignaturePhrases {
		if ph != "" && strings.Contains(lower, strings.ToLower(ph)) {
			phrases++
		}
	}
	score += min(phrases*15, 45)

	words := 0
	for _, w := range firstN(p.Vocabulary.HighFrequency, 20) {
		if w != "" && strings.Contains(lower, strings.ToLower(w)) {
			words++
		}
	}
	score += min(words, 10)

	for _, w := range p.Vocabulary.AvoidedWords {
		if w == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
		if err != nil {
			continue
		}
		score -= 10 * len(re.FindAllStringIndex(content, -1))
	}

	return clamp(score)
}

func scoreTone(content string, p *Profile) int {
	score := 70

	if p.Tone.FormalityScore <= 2 {
		score -= 5 * len(formalRe.FindAllStringIndex(content, -1))
		score += min(2*len(casualRe.FindAllStringIndex(content, -1)), 10)
	}
	if selfDepRe.MatchString(content) {
		score += 10
	}
	if len(directRe.FindAllStringIndex(content, -1)) >= 2 {
		score += 5
	}

	return clamp(score)
}

// scoreHook looks only at the first sentence.
func scoreHook(content string) int {
	first, term := firstSentence(content)

	for _, re := range hookPatterns {
		if re.MatchString(first) {
			return 100
		}
	}
	if term == '?' {
		return 85
	}
	if storyOpenerRe.MatchString(first) {
		return 80
	}
	return 50
}

// firstSentence returns the trimmed text before the first . ! or ? and
// the terminator itself (0 when there is none).
func firstSentence(content string) (string, byte) {
	content = quoteReplacer.Replace(content)
	i := strings.IndexAny(content, ".!?")
	if i < 0 {
		return strings.TrimSpace(content), 0
	}
	return strings.TrimSpace(content[:i]), content[i]
}

func clamp(v int) int {
	return max(0, min(100, v))
}

// --- Suggestions ---

func suggestions(c Categories, st TextStats, p *Profile) []string {
	out := []string{}

	if c.SentenceStructure < 70 && st.Sentences > 0 {
		avg := float64(st.Words) / float64(st.Sentences)
		switch delta := avg - p.Stylometrics.AvgSentenceLength; {
		case delta > 0:
			out = append(out, "Sentences are too long. Break them up for punchier delivery.")
		case delta < 0:
			out = append(out, "Sentences are very short. Consider combining some for better flow.")
		}
	}

	if c.VocabularyMatch < 70 {
		if len(p.Vocabulary.SignaturePhrases) > 0 {
			out = append(out, fmt.Sprintf("Consider using signature phrases like: %q", p.Vocabulary.SignaturePhrases[0]))
		} else {
			out = append(out, "Lean on the words and phrases the author uses most.")
		}
	}

	if c.HookUsage < 70 {
		out = append(out, `Start with a stronger hook. Try: "Here's the thing:", "Let me tell you a story:", or a provocative question.`)
	}

	if c.ToneConsistency < 70 {
		out = append(out, "Tone feels off. Aim for conversational and direct. Add a personal anecdote.")
	}

	return out
}
