// Package mock provides test doubles for the stt package interfaces.
//
// Use Recognizer to verify the StreamConfig a caller opens sessions with and
// to inject NewSession failures. Use Session to script recognizer behaviour:
// Boundaries maps a 1-based chunk number to the words the engine "finalizes"
// after that chunk, and Trailing is what Flush returns.
//
// Example:
//
//	sess := &mock.Session{
//	    Boundaries: map[int][]stt.Word{2: {{Text: "hello"}}},
//	    Trailing:   []stt.Word{{Text: "world"}},
//	}
//	r := &mock.Recognizer{Session: sess}
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/enunciate/pkg/provider/stt"
)

// NewSessionCall records a single invocation of Recognizer.NewSession.
type NewSessionCall struct {
	// Ctx is the context passed to NewSession.
	Ctx context.Context
	// Cfg is the StreamConfig passed to NewSession.
	Cfg stt.StreamConfig
}

// Recognizer is a mock implementation of stt.Recognizer.
type Recognizer struct {
	mu sync.Mutex

	// Session is returned by NewSession. If nil, a fresh empty Session is
	// returned, which recognizes nothing.
	Session *Session

	// NewSessionFunc, if set, builds the session for each call and takes
	// precedence over Session. Useful when a test runs several assessments.
	NewSessionFunc func() *Session

	// NewSessionErr, if non-nil, is returned as the error from NewSession.
	NewSessionErr error

	// NewSessionCalls records every call to NewSession.
	NewSessionCalls []NewSessionCall
}

// NewSession records the call and returns the configured session.
func (r *Recognizer) NewSession(ctx context.Context, cfg stt.StreamConfig) (stt.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.NewSessionCalls = append(r.NewSessionCalls, NewSessionCall{Ctx: ctx, Cfg: cfg})
	if r.NewSessionErr != nil {
		return nil, r.NewSessionErr
	}
	if r.NewSessionFunc != nil {
		return r.NewSessionFunc(), nil
	}
	if r.Session != nil {
		return r.Session, nil
	}
	return &Session{}, nil
}

// CallCount returns the number of NewSession calls. Thread-safe.
func (r *Recognizer) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.NewSessionCalls)
}

var _ stt.Recognizer = (*Recognizer)(nil)

// Session is a scripted implementation of stt.Session.
type Session struct {
	mu sync.Mutex

	// Boundaries maps a 1-based chunk index to the words finalized after
	// that chunk has been pushed.
	Boundaries map[int][]stt.Word

	// Trailing is returned by Flush.
	Trailing []stt.Word

	// PushErr, if non-nil, is returned by every Push call.
	PushErr error

	// FlushErr, if non-nil, is returned by Flush.
	FlushErr error

	// CloseErr, if non-nil, is returned by Close.
	CloseErr error

	// Block, if non-nil, is received from before Flush returns. Tests use it
	// to hold a run open past its deadline.
	Block <-chan struct{}

	// --- Call records ---

	// Chunks holds a copy of every pushed chunk in order.
	Chunks [][]byte

	// FlushCallCount is the number of times Flush was called.
	FlushCallCount int

	// CloseCallCount is the number of times Close was called.
	CloseCallCount int

	last []stt.Word
}

// Push records the chunk and reports a boundary when Boundaries has an entry
// for this chunk number.
func (s *Session) Push(chunk []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	s.Chunks = append(s.Chunks, cp)
	if s.PushErr != nil {
		return false, s.PushErr
	}
	words, ok := s.Boundaries[len(s.Chunks)]
	if !ok {
		return false, nil
	}
	s.last = words
	return true, nil
}

// Result returns the words of the most recent boundary.
func (s *Session) Result() []stt.Word {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Flush waits on Block (if set) and returns Trailing, FlushErr.
func (s *Session) Flush() ([]stt.Word, error) {
	if s.Block != nil {
		<-s.Block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FlushCallCount++
	if s.FlushErr != nil {
		return nil, s.FlushErr
	}
	return s.Trailing, nil
}

// Close records the call and returns CloseErr.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCallCount++
	return s.CloseErr
}

// ChunkCount returns the number of Push calls. Thread-safe.
func (s *Session) ChunkCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Chunks)
}

// Closed reports whether Close has been called at least once. Thread-safe.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.CloseCallCount > 0
}

var _ stt.Session = (*Session)(nil)
