package resilience

import (
	"context"
	"errors"
	"io"

	"github.com/MrWong99/enunciate/pkg/provider/stt"
)

// RecognizerFallback implements [stt.Recognizer] over a [FallbackGroup] of
// recognizers.
//
// Its sessions buffer the pushed audio and recognize it at Flush, so a
// backend that fails at any point can be replaced by the next one with the
// complete recording replayed. Words are therefore only ever returned by
// Flush; Push never reports a boundary.
type RecognizerFallback struct {
	group *FallbackGroup[stt.Recognizer]
}

var (
	_ stt.Recognizer = (*RecognizerFallback)(nil)
	_ io.Closer      = (*RecognizerFallback)(nil)
)

// NewRecognizerFallback creates a RecognizerFallback with primary as the
// preferred backend.
func NewRecognizerFallback(primary stt.Recognizer, primaryName string, cfg FallbackConfig) *RecognizerFallback {
	return &RecognizerFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers another recognizer, tried after those already added.
func (f *RecognizerFallback) AddFallback(name string, r stt.Recognizer) {
	f.group.AddFallback(name, r)
}

// NewSession implements stt.Recognizer. No backend is contacted until
// Flush.
func (f *RecognizerFallback) NewSession(ctx context.Context, cfg stt.StreamConfig) (stt.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &replaySession{ctx: ctx, cfg: cfg, group: f.group}, nil
}

// Close closes every backend that implements io.Closer.
func (f *RecognizerFallback) Close() error {
	var errs []error
	f.group.Each(func(_ string, r stt.Recognizer) {
		if c, ok := r.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}

// replaySession records pushed chunks and recognizes them on Flush.
type replaySession struct {
	ctx   context.Context
	cfg   stt.StreamConfig
	group *FallbackGroup[stt.Recognizer]

	chunks  [][]byte
	flushed bool
	closed  bool
}

func (s *replaySession) Push(chunk []byte) (bool, error) {
	if s.closed || s.flushed {
		return false, stt.ErrSessionClosed
	}
	s.chunks = append(s.chunks, append([]byte(nil), chunk...))
	return false, nil
}

func (s *replaySession) Result() []stt.Word { return nil }

func (s *replaySession) Flush() ([]stt.Word, error) {
	if s.closed || s.flushed {
		return nil, stt.ErrSessionClosed
	}
	s.flushed = true
	return ExecuteWithResult(s.group, func(r stt.Recognizer) ([]stt.Word, error) {
		return replay(s.ctx, r, s.cfg, s.chunks)
	})
}

func (s *replaySession) Close() error {
	s.closed = true
	s.chunks = nil
	return nil
}

// replay runs the recorded chunks through a fresh session of r and returns
// every word it produced.
func replay(ctx context.Context, r stt.Recognizer, cfg stt.StreamConfig, chunks [][]byte) ([]stt.Word, error) {
	sess, err := r.NewSession(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	var words []stt.Word
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		finalized, err := sess.Push(c)
		if err != nil {
			return nil, err
		}
		if finalized {
			words = append(words, sess.Result()...)
		}
	}
	trailing, err := sess.Flush()
	if err != nil {
		return nil, err
	}
	return append(words, trailing...), nil
}
