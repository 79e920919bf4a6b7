// Package lexicon implements [g2p.Transcriber] with a pronunciation
// dictionary in CMUdict format.
//
// Each line holds a word followed by its phonemes, separated by whitespace:
//
//	;;; comment
//	hello HH AH0 L OW1
//	hello(2) HH EH0 L OW1
//	d'artagnan D AH0 R T AE1 NG Y AH0 N # inline comment
//
// Lookups are case-insensitive. When a word has alternates ("word(2)") the
// first pronunciation listed wins. Words missing from the dictionary are
// handed to an optional fallback transcriber; without one they yield an
// empty sequence.
package lexicon

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/MrWong99/enunciate/pkg/provider/g2p"
)

var (
	_ g2p.Transcriber = (*Lexicon)(nil)
	_ g2p.Loader      = (*Lexicon)(nil)
)

// Option is a functional option for configuring a [Lexicon].
type Option func(*Lexicon)

// WithFallback sets the transcriber used for out-of-vocabulary words.
func WithFallback(t g2p.Transcriber) Option {
	return func(l *Lexicon) { l.fallback = t }
}

// Lexicon is a dictionary-backed transcriber. The dictionary file is read on
// first use; a failed read is retried on the next call.
type Lexicon struct {
	path     string
	fallback g2p.Transcriber

	mu      sync.RWMutex
	entries map[string][]string
}

// New returns a Lexicon that will load the dictionary at path on first use.
func New(path string, opts ...Option) (*Lexicon, error) {
	if path == "" {
		return nil, errors.New("lexicon: path must not be empty")
	}
	l := &Lexicon{path: path}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

// NewFromReader parses a dictionary from r immediately.
func NewFromReader(r io.Reader, opts ...Option) (*Lexicon, error) {
	entries, err := Parse(r)
	if err != nil {
		return nil, err
	}
	l := &Lexicon{entries: entries}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

// Load reads the dictionary if it has not been loaded yet.
func (l *Lexicon) Load() error {
	_, err := l.dict()
	return err
}

// Len returns the number of distinct words, loading the dictionary if
// needed. It returns 0 if loading fails.
func (l *Lexicon) Len() int {
	d, err := l.dict()
	if err != nil {
		return 0
	}
	return len(d)
}

// Phonemes implements [g2p.Transcriber].
func (l *Lexicon) Phonemes(word string) ([]string, error) {
	d, err := l.dict()
	if err != nil {
		return nil, err
	}
	key := strings.ToLower(strings.TrimSpace(word))
	if p, ok := d[key]; ok {
		out := make([]string, len(p))
		copy(out, p)
		return out, nil
	}
	if l.fallback != nil {
		p, err := l.fallback.Phonemes(key)
		if err != nil {
			return nil, fmt.Errorf("lexicon: fallback for %q: %w", key, err)
		}
		return g2p.Clean(p), nil
	}
	return []string{}, nil
}

func (l *Lexicon) dict() (map[string][]string, error) {
	l.mu.RLock()
	d := l.entries
	l.mu.RUnlock()
	if d != nil {
		return d, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.entries != nil {
		return l.entries, nil
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: open %q: %w: %w", l.path, g2p.ErrUnavailable, err)
	}
	defer f.Close()
	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("lexicon: %q: %w: %w", l.path, g2p.ErrUnavailable, err)
	}
	slog.Debug("lexicon loaded", "path", l.path, "words", len(entries))
	l.entries = entries
	return entries, nil
}

// Parse reads a CMUdict-format dictionary. Malformed lines (a word with no
// phonemes) are skipped. An empty dictionary is an error.
func Parse(r io.Reader) (map[string][]string, error) {
	entries := make(map[string][]string)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, ";;;") {
			continue
		}
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		word := strings.ToLower(fields[0])
		if i := strings.IndexByte(word, '('); i > 0 && strings.HasSuffix(word, ")") {
			word = word[:i]
		}
		if _, seen := entries[word]; seen {
			continue
		}
		entries[word] = fields[1:]
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("lexicon: read dictionary: %w", err)
	}
	if len(entries) == 0 {
		return nil, errors.New("lexicon: dictionary has no entries")
	}
	return entries, nil
}
