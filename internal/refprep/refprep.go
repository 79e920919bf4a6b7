// Package refprep prepares flashcard-style reference text for assessment.
// Card fields often carry HTML and media tags that must not be read aloud.
package refprep

import (
	"regexp"
	"strings"
)

var (
	htmlTag    = regexp.MustCompile(`<[^<]+?>`)
	bracketTag = regexp.MustCompile(`\[[^\]]+\]`)
)

// Strip removes markup from text. HTML tags become a space so adjacent
// words stay separate, &nbsp; entities are dropped, and bracketed tags such
// as [sound:x.mp3] are removed. The result is trimmed.
func Strip(text string) string {
	text = htmlTag.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "&nbsp;", "")
	text = bracketTag.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
