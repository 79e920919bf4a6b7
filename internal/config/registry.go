package config

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/MrWong99/enunciate/pkg/provider/g2p"
	"github.com/MrWong99/enunciate/pkg/provider/stt"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// TranscriberFactory builds a phonetic transcriber. The registry is passed
// so that a transcriber can build another one as its fallback.
type TranscriberFactory func(entry ProviderEntry, reg *Registry) (g2p.Transcriber, error)

// Registry maps provider names to their constructor functions for each
// provider kind. It is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	recognizers  map[string]func(ProviderEntry) (stt.Recognizer, error)
	transcribers map[string]TranscriberFactory
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		recognizers:  make(map[string]func(ProviderEntry) (stt.Recognizer, error)),
		transcribers: make(map[string]TranscriberFactory),
	}
}

// RegisterRecognizer registers a speech recognizer factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterRecognizer(name string, factory func(ProviderEntry) (stt.Recognizer, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recognizers[name] = factory
}

// RegisterTranscriber registers a phonetic transcriber factory under name.
func (r *Registry) RegisterTranscriber(name string, factory TranscriberFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcribers[name] = factory
}

// CreateRecognizer instantiates a recognizer using the factory registered
// under entry.Name. Returns [ErrProviderNotRegistered] if no factory has
// been registered for that name.
func (r *Registry) CreateRecognizer(entry ProviderEntry) (stt.Recognizer, error) {
	r.mu.RLock()
	factory, ok := r.recognizers[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: recognizer/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateTranscriber instantiates a transcriber using the factory registered
// under entry.Name.
func (r *Registry) CreateTranscriber(entry ProviderEntry) (g2p.Transcriber, error) {
	r.mu.RLock()
	factory, ok := r.transcribers[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: phonetic/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry, r)
}

// Names returns the sorted registered provider names of kind, which is
// "recognizer" or "phonetic".
func (r *Registry) Names(kind string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	switch kind {
	case "recognizer":
		for n := range r.recognizers {
			names = append(names, n)
		}
	case "phonetic":
		for n := range r.transcribers {
			names = append(names, n)
		}
	}
	slices.Sort(names)
	return names
}
