// Package metaphone implements a rule-based [g2p.Transcriber] from Double
// Metaphone codes. It needs no data files, which makes it a useful fallback
// for words missing from a pronunciation dictionary, but its symbols are
// consonant classes rather than ARPAbet phonemes.
package metaphone

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/MrWong99/enunciate/pkg/provider/g2p"
)

var _ g2p.Transcriber = (*Transcriber)(nil)

// Transcriber emits the primary Double Metaphone code of a word, one symbol
// per code letter. It is stateless and safe for concurrent use.
type Transcriber struct{}

// New returns a Transcriber.
func New() *Transcriber { return &Transcriber{} }

// Phonemes implements [g2p.Transcriber]. It never returns an error.
func (*Transcriber) Phonemes(word string) ([]string, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return []string{}, nil
	}
	primary, _ := matchr.DoubleMetaphone(word)
	out := make([]string, 0, len(primary))
	for _, r := range primary {
		out = append(out, string(r))
	}
	return out, nil
}
