package resilience

import (
	"errors"

	"github.com/MrWong99/enunciate/pkg/provider/g2p"
)

// TranscriberFallback implements [g2p.Transcriber] over a [FallbackGroup] of
// transcribers. Only errors cause failover; an unknown word answered with
// an empty sequence is a valid result.
type TranscriberFallback struct {
	group *FallbackGroup[g2p.Transcriber]
}

var (
	_ g2p.Transcriber = (*TranscriberFallback)(nil)
	_ g2p.Loader      = (*TranscriberFallback)(nil)
)

// NewTranscriberFallback creates a TranscriberFallback with primary as the
// preferred backend.
func NewTranscriberFallback(primary g2p.Transcriber, primaryName string, cfg FallbackConfig) *TranscriberFallback {
	return &TranscriberFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers another transcriber, tried after those already
// added.
func (f *TranscriberFallback) AddFallback(name string, t g2p.Transcriber) {
	f.group.AddFallback(name, t)
}

// Phonemes implements g2p.Transcriber.
func (f *TranscriberFallback) Phonemes(word string) ([]string, error) {
	return ExecuteWithResult(f.group, func(t g2p.Transcriber) ([]string, error) {
		return t.Phonemes(word)
	})
}

// Load implements g2p.Loader. It succeeds when at least one backend is
// usable; backends without a Loader always are.
func (f *TranscriberFallback) Load() error {
	var errs []error
	ok := false
	f.group.Each(func(_ string, t g2p.Transcriber) {
		l, isLoader := t.(g2p.Loader)
		if !isLoader {
			ok = true
			return
		}
		if err := l.Load(); err != nil {
			errs = append(errs, err)
			return
		}
		ok = true
	})
	if ok {
		return nil
	}
	return errors.Join(append([]error{ErrAllFailed}, errs...)...)
}
