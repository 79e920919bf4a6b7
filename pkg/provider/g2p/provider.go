// Package g2p defines the phonetic capability consumed by the assessment
// pipeline: converting a surface word into an ordered sequence of phoneme
// symbols.
//
// Implementations must be deterministic for a given word and data set, and
// safe for concurrent use. A deployment wires in one language's transcriber.
package g2p

import (
	"errors"
	"strings"
)

// ErrUnavailable is returned (wrapped) when a transcriber's data cannot be
// loaded. The whole assessment run fails; later runs may succeed once the
// data is restored.
var ErrUnavailable = errors.New("g2p: transcriber unavailable")

// Transcriber converts words to phonemes.
type Transcriber interface {
	// Phonemes returns the phoneme symbols for word. An unknown word yields
	// an empty sequence, not an error.
	Phonemes(word string) ([]string, error)
}

// Loader is implemented by transcribers that load data lazily. Load reports
// whether the data is usable, loading it if needed.
type Loader interface {
	Load() error
}

// Clean trims each symbol and drops empty or whitespace-only ones. It
// returns a new slice.
func Clean(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Func adapts an ordinary function to [Transcriber].
type Func func(word string) ([]string, error)

// Phonemes calls f(word).
func (f Func) Phonemes(word string) ([]string, error) { return f(word) }
