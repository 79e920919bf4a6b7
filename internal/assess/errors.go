package assess

import "errors"

// Run failures. Every error returned by [Pipeline.Run] other than a context
// error wraps exactly one of these.
var (
	// ErrAudioFormat means the recording could not be read or parsed as WAV.
	ErrAudioFormat = errors.New("assess: unreadable audio")

	// ErrRecognizerUnavailable means the speech recognizer could not be
	// loaded or failed while recognizing.
	ErrRecognizerUnavailable = errors.New("assess: recognizer unavailable")

	// ErrPhoneticUnavailable means the grapheme-to-phoneme transcriber could
	// not be loaded or failed on a word.
	ErrPhoneticUnavailable = errors.New("assess: phonetic transcriber unavailable")
)
