package profile

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/HendryAvila/quill/internal/voice"
)

// fragmentMaxWords is the longest sentence still counted as a fragment.
const fragmentMaxWords = 3

var (
	paragraphSep = regexp.MustCompile(`\n\n+`)
	sentenceSep  = regexp.MustCompile(`[.!?]+`)
	wordRe       = regexp.MustCompile(`\b[a-z']+\b`)
)

// Stylometrics is voice.Stylometrics plus the corpus word count.
type Stylometrics struct {
	voice.Stylometrics
	TotalWords int
}

// ComputeStylometrics aggregates sentence and paragraph shape over texts.
// Lengths are rounded to one decimal, ratios to two.
func ComputeStylometrics(texts []string) Stylometrics {
	var (
		sentences  []int
		paragraphs []int
		questions  int
		fragments  int
		words      int
	)

	for _, text := range texts {
		n := 0
		for _, p := range paragraphSep.Split(text, -1) {
			if strings.TrimSpace(p) != "" {
				n++
			}
		}
		paragraphs = append(paragraphs, n)

		for _, s := range sentenceSep.Split(text, -1) {
			w := len(strings.Fields(s))
			if w == 0 {
				continue
			}
			sentences = append(sentences, w)
			words += w
			if w <= fragmentMaxWords {
				fragments++
			}
		}

		questions += strings.Count(text, "?")
	}

	out := Stylometrics{TotalWords: words}
	if len(sentences) > 0 {
		mean := meanInts(sentences)
		var sq float64
		for _, n := range sentences {
			sq += (float64(n) - mean) * (float64(n) - mean)
		}
		out.AvgSentenceLength = round(mean, 1)
		out.SentenceLengthStddev = round(math.Sqrt(sq/float64(len(sentences))), 1)
		out.FragmentRatio = round(float64(fragments)/float64(len(sentences)), 2)
		out.QuestionRatio = round(float64(questions)/float64(len(sentences)), 2)
	}
	if len(paragraphs) > 0 {
		out.AvgParagraphLength = round(meanInts(paragraphs), 1)
	}
	return out
}

// HighFrequencyWords returns the n most frequent non-stop-words longer
// than two letters. Ties keep first-appearance order.
func HighFrequencyWords(texts []string, n int) []string {
	counts := map[string]int{}
	var order []string
	for _, text := range texts {
		for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
			if len(w) <= 2 || stopWords[w] {
				continue
			}
			if counts[w] == 0 {
				order = append(order, w)
			}
			counts[w]++
		}
	}
	return topByCount(order, counts, n, 1)
}

// hookPhrases are the multi-word openers the builder looks for.
var hookPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)here's the thing`),
	regexp.MustCompile(`(?i)let me tell you`),
	regexp.MustCompile(`(?i)i learned this`),
	regexp.MustCompile(`(?i)the hard way`),
	regexp.MustCompile(`(?i)here's what`),
	regexp.MustCompile(`(?i)the truth is`),
	regexp.MustCompile(`(?i)i used to`),
	regexp.MustCompile(`(?i)when i was`),
	regexp.MustCompile(`(?i)one thing i`),
	regexp.MustCompile(`(?i)the best advice`),
	regexp.MustCompile(`(?i)what i've learned`),
	regexp.MustCompile(`(?i)the biggest mistake`),
}

// SignaturePhrases returns up to ten hook phrases used at least twice
// across texts, most frequent first.
func SignaturePhrases(texts []string) []string {
	counts := map[string]int{}
	var order []string
	for _, text := range texts {
		text = strings.NewReplacer("‘", "'", "’", "'").Replace(text)
		for _, re := range hookPhrases {
			for _, m := range re.FindAllString(text, -1) {
				m = strings.ToLower(m)
				if counts[m] == 0 {
					order = append(order, m)
				}
				counts[m]++
			}
		}
	}
	return topByCount(order, counts, 10, 2)
}

// topByCount sorts keys by count descending (stable on order) and keeps
// at most n with a count of at least minCount.
func topByCount(order []string, counts map[string]int, n, minCount int) []string {
	keys := make([]string, 0, len(order))
	for _, k := range order {
		if counts[k] >= minCount {
			keys = append(keys, k)
		}
	}
	sort.SliceStable(keys, func(i, j int) bool { return counts[keys[i]] > counts[keys[j]] })
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func meanInts(v []int) float64 {
	sum := 0
	for _, n := range v {
		sum += n
	}
	return float64(sum) / float64(len(v))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "is": true, "was": true, "are": true,
	"were": true, "be": true, "been": true, "being": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "must": true, "can": true,
	"it": true, "its": true, "this": true, "that": true, "these": true, "those": true,
	"i": true, "you": true, "he": true, "she": true, "we": true, "they": true,
	"me": true, "him": true, "her": true, "us": true, "them": true, "my": true,
	"your": true, "his": true, "our": true, "their": true, "what": true, "which": true,
	"who": true, "when": true, "where": true, "why": true, "how": true, "all": true,
	"each": true, "every": true, "both": true, "few": true, "more": true, "most": true,
	"other": true, "some": true, "such": true, "no": true, "not": true, "only": true,
	"own": true, "same": true, "so": true, "than": true, "too": true, "very": true,
	"just": true, "about": true, "into": true, "through": true, "during": true, "before": true,
	"after": true, "above": true, "below": true, "between": true, "under": true, "again": true,
	"further": true, "then": true, "once": true, "here": true, "there": true, "if": true,
	"because": true, "as": true, "until": true, "while": true,
}
