// This file contains the NativeRecognizer backed by the whisper.cpp CGO
// bindings. The whisper.cpp static library (libwhisper.a) and headers
// (whisper.h) must be available at link time via LIBRARY_PATH and
// C_INCLUDE_PATH.

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/MrWong99/enunciate/pkg/provider/stt"
	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

var _ stt.Recognizer = (*NativeRecognizer)(nil)

// NativeRecognizer implements stt.Recognizer with an in-process whisper.cpp
// model. The model is loaded on the first NewSession call and shared by all
// later sessions. A failed load is not remembered, so a later session
// retries it.
type NativeRecognizer struct {
	modelPath string
	language  string
	threads   uint
	segment   segmentConfig

	mu    sync.Mutex
	model whisperlib.Model
}

// NativeOption is a functional option for configuring a NativeRecognizer.
type NativeOption func(*NativeRecognizer)

// WithNativeLanguage sets the language code for transcription (e.g. "en",
// "de"). Defaults to "en".
func WithNativeLanguage(lang string) NativeOption {
	return func(r *NativeRecognizer) { r.language = lang }
}

// WithNativeThreads sets the number of CPU threads whisper.cpp decodes with.
// Zero keeps the library default.
func WithNativeThreads(n uint) NativeOption {
	return func(r *NativeRecognizer) { r.threads = n }
}

// WithNativeSilenceThresholdMs sets the trailing-silence duration (ms) that
// ends an utterance. Defaults to 500 ms.
func WithNativeSilenceThresholdMs(ms int) NativeOption {
	return func(r *NativeRecognizer) { r.segment.silenceThresholdMs = ms }
}

// WithNativeMaxBufferDurationMs sets the longest utterance (ms) before a
// boundary is forced. Defaults to 30 000 ms.
func WithNativeMaxBufferDurationMs(ms int) NativeOption {
	return func(r *NativeRecognizer) { r.segment.maxBufferDurationMs = ms }
}

// WithNativeRMSThreshold sets the energy below which a chunk is silence.
func WithNativeRMSThreshold(rms float64) NativeOption {
	return func(r *NativeRecognizer) { r.segment.rmsThreshold = rms }
}

// NewNative creates a NativeRecognizer for the ggml model at modelPath.
// The file is not opened until the first session.
func NewNative(modelPath string, opts ...NativeOption) (*NativeRecognizer, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	r := &NativeRecognizer{
		modelPath: modelPath,
		language:  defaultLanguage,
		segment:   defaultSegmentConfig(),
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Close releases the model if it was loaded.
func (r *NativeRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.model == nil {
		return nil
	}
	err := r.model.Close()
	r.model = nil
	return err
}

func (r *NativeRecognizer) loadModel() (whisperlib.Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.model != nil {
		return r.model, nil
	}
	if _, err := os.Stat(r.modelPath); err != nil {
		return nil, fmt.Errorf("whisper: model %q: %w: %w", r.modelPath, stt.ErrUnavailable, err)
	}
	model, err := whisperlib.New(r.modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w: %w", r.modelPath, stt.ErrUnavailable, err)
	}
	slog.Info("whisper model loaded", "path", r.modelPath)
	r.model = model
	return model, nil
}

// NewSession implements stt.Recognizer. Each utterance is decoded with a
// fresh whisper.cpp context, so sessions never share decoder state.
func (r *NativeRecognizer) NewSession(ctx context.Context, cfg stt.StreamConfig) (stt.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("whisper: context already cancelled: %w", err)
	}
	model, err := r.loadModel()
	if err != nil {
		return nil, err
	}

	lang := cfg.Language
	if lang == "" {
		lang = r.language
	}
	sr := cfg.SampleRate
	if sr <= 0 {
		sr = defaultSampleRate
	}

	infer := func(_ context.Context, pcm []byte) ([]stt.Word, error) {
		return r.infer(model, lang, pcm)
	}
	return newSession(ctx, newSegmenter(sr, r.segment), infer), nil
}

// infer decodes one utterance with token timestamps enabled and assembles
// the text tokens into words.
func (r *NativeRecognizer) infer(model whisperlib.Model, lang string, pcm []byte) ([]stt.Word, error) {
	wctx, err := model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("whisper: create context: %w", err)
	}
	if err := wctx.SetLanguage(lang); err != nil {
		slog.Warn("whisper: failed to set language, using default", "language", lang, "error", err)
	}
	wctx.SetTokenTimestamps(true)
	if r.threads > 0 {
		wctx.SetThreads(r.threads)
	}

	if err := wctx.Process(pcmToFloat32(pcm), nil, nil, nil); err != nil {
		return nil, fmt.Errorf("whisper: process audio: %w", err)
	}

	var words []stt.Word
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("whisper: read segment: %w", err)
		}

		tokens := make([]textToken, 0, len(segment.Tokens))
		for _, tok := range segment.Tokens {
			if !wctx.IsText(tok) {
				continue
			}
			tokens = append(tokens, textToken{
				text:  tok.Text,
				p:     float64(tok.P),
				start: tok.Start,
				end:   tok.End,
			})
		}
		segWords := mergeTokens(tokens)
		if len(segWords) == 0 {
			segWords = spreadWords(segment.Text, segment.Start, segment.End, 0)
		}
		words = append(words, segWords...)
	}
	return words, nil
}
