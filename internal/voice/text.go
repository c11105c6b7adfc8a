package voice

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	htmlTagRe   = regexp.MustCompile(`<[a-zA-Z][^>]*>`)
	blockEndRe  = regexp.MustCompile(`(?i)</(p|div|li|h[1-6]|blockquote|pre)>|<br\s*/?>`)
	stripPolicy = bluemonday.StrictPolicy()
)

// LooksLikeHTML reports whether content contains at least one element tag.
func LooksLikeHTML(content string) bool {
	return htmlTagRe.MatchString(content)
}

// PlainText strips every tag from content and decodes entities. Block
// closers become newlines so paragraphs do not run together.
func PlainText(content string) string {
	withBreaks := blockEndRe.ReplaceAllString(content, "$0\n")
	stripped := stripPolicy.Sanitize(withBreaks)
	return strings.TrimSpace(html.UnescapeString(stripped))
}
