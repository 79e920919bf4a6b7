// Package mock provides a table-driven test double for g2p.Transcriber.
package mock

import (
	"strings"
	"sync"

	"github.com/MrWong99/enunciate/pkg/provider/g2p"
)

// Transcriber returns phonemes from Table. Words are looked up lowercased.
// If Table has no entry the word's letters are returned, uppercased, one per
// symbol, so distinct words stay distinct.
type Transcriber struct {
	mu sync.Mutex

	// Table maps a lowercase word to its phoneme sequence.
	Table map[string][]string

	// Err, if non-nil, is returned by every Phonemes call.
	Err error

	// LoadErr, if non-nil, is returned by Load.
	LoadErr error

	// Calls records every word passed to Phonemes, in order.
	Calls []string
}

// Phonemes records the call and returns the table entry.
func (t *Transcriber) Phonemes(word string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Calls = append(t.Calls, word)
	if t.Err != nil {
		return nil, t.Err
	}
	key := strings.ToLower(word)
	if p, ok := t.Table[key]; ok {
		out := make([]string, len(p))
		copy(out, p)
		return out, nil
	}
	out := make([]string, 0, len(key))
	for _, r := range strings.ToUpper(key) {
		out = append(out, string(r))
	}
	return out, nil
}

// Load returns LoadErr.
func (t *Transcriber) Load() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.LoadErr
}

// CallCount returns how many times Phonemes was called for word. Thread-safe.
func (t *Transcriber) CallCount(word string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, w := range t.Calls {
		if w == word {
			n++
		}
	}
	return n
}

var (
	_ g2p.Transcriber = (*Transcriber)(nil)
	_ g2p.Loader      = (*Transcriber)(nil)
)
