package assess

import (
	"fmt"
	"strings"
	"sync"

	"github.com/MrWong99/enunciate/pkg/provider/g2p"
)

// phonemeMemo caches transcriptions for the lifetime of one run. Words are
// looked up lowercased; the cached slices are shared and must not be
// modified.
type phonemeMemo struct {
	tr g2p.Transcriber

	mu    sync.Mutex
	cache map[string][]string
}

var _ g2p.Transcriber = (*phonemeMemo)(nil)

func newPhonemeMemo(tr g2p.Transcriber) *phonemeMemo {
	return &phonemeMemo{tr: tr, cache: make(map[string][]string)}
}

// Phonemes returns the cleaned phonemes of word, asking the transcriber only
// on the first lookup. Transcriber failures wrap [ErrPhoneticUnavailable]
// and are not cached.
func (m *phonemeMemo) Phonemes(word string) ([]string, error) {
	key := strings.ToLower(word)

	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.cache[key]; ok {
		return p, nil
	}
	p, err := m.tr.Phonemes(key)
	if err != nil {
		return nil, fmt.Errorf("assess: phonemes for %q: %w: %w", key, ErrPhoneticUnavailable, err)
	}
	p = g2p.Clean(p)
	m.cache[key] = p
	return p, nil
}

// load makes sure a lazily loading transcriber has its data.
func (m *phonemeMemo) load() error {
	l, ok := m.tr.(g2p.Loader)
	if !ok {
		return nil
	}
	if err := l.Load(); err != nil {
		return fmt.Errorf("assess: load transcriber: %w: %w", ErrPhoneticUnavailable, err)
	}
	return nil
}
