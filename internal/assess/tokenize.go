package assess

import (
	"strings"
	"unicode"

	"github.com/MrWong99/enunciate/pkg/types"
)

// Tokenize splits text into words. Every rune that is neither a letter, a
// number, nor whitespace acts as a separator, so "don't" yields "don" and
// "t". Case is preserved.
func Tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// normalizeRecognized runs recognizer words through [Tokenize] so both
// sides of the alignment share one notion of a word. A recognized word that
// splits into several pieces gives each piece its timing and confidence;
// one with no letters or digits is dropped.
func normalizeRecognized(words []types.RecognizedToken) []types.RecognizedToken {
	out := make([]types.RecognizedToken, 0, len(words))
	for _, w := range words {
		for _, piece := range Tokenize(w.Text) {
			w.Text = piece
			out = append(out, w)
		}
	}
	return out
}
