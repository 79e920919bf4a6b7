// Package stt defines the recognition capability consumed by the assessment
// pipeline.
//
// A [Recognizer] wraps a speech-to-text engine (a local whisper.cpp model, a
// whisper-server instance, or a test double) and exposes a chunked batch
// interface. The central abstraction is [Session]: the caller pushes
// fixed-size chunks of 16 kHz mono 16-bit PCM, and after each chunk the
// engine reports whether it finalized an utterance. Finalized words are read
// with Result; words still buffered when the audio ends are collected with
// Flush.
//
// Endpointing is the engine's decision, never the caller's. Sessions are used
// by a single goroutine; recognizers must be safe for concurrent use.
package stt

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned (wrapped) when the underlying model or service
// cannot be loaded or reached. Callers may retry a later run once the
// capability is restored.
var ErrUnavailable = errors.New("stt: recognizer unavailable")

// ErrSessionClosed is returned by Push and Flush after Close.
var ErrSessionClosed = errors.New("stt: session closed")

// StreamConfig describes the audio format and recognition hints for a new
// session.
type StreamConfig struct {
	// SampleRate is the PCM sample rate in Hz. Zero selects the recognizer's
	// default (16000).
	SampleRate int

	// Language is a BCP-47 language code (e.g. "en"). Empty selects the
	// recognizer's configured language.
	Language string
}

// Word is one recognized token with its timing relative to the start of the
// audio and the engine's confidence in [0, 1].
type Word struct {
	Text       string
	Start      time.Duration
	End        time.Duration
	Confidence float64
}

// Session is an open recognition session over one recording.
//
// Callers must call Close on every exit path.
type Session interface {
	// Push feeds one chunk of PCM audio. finalized reports whether the engine
	// committed an utterance while consuming the chunk; its words are then
	// available from Result.
	Push(chunk []byte) (finalized bool, err error)

	// Result returns the words committed at the most recent boundary. It
	// returns nil before the first boundary.
	Result() []Word

	// Flush forces recognition of any buffered audio and returns the
	// trailing words. Push must not be called after Flush.
	Flush() ([]Word, error)

	// Close releases engine resources. Calling Close more than once is safe.
	Close() error
}

// Recognizer opens recognition sessions.
type Recognizer interface {
	// NewSession opens a session for one recording. It returns an error
	// wrapping [ErrUnavailable] if the engine cannot be loaded.
	NewSession(ctx context.Context, cfg StreamConfig) (Session, error)
}
