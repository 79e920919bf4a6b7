// Package whisper provides whisper.cpp-backed recognizers.
//
// Two backends share the same endpointing: [NativeRecognizer] runs a ggml
// model in-process through the CGO bindings, and [Recognizer] talks to a
// running whisper-server over its REST API (POST /inference).
//
// whisper.cpp is a batch engine, so sessions buffer the pushed PCM and use an
// energy-based silence detector to decide where an utterance ends. Each
// committed utterance is decoded once and its words are reported with
// timestamps relative to the start of the stream.
//
// Usage:
//
//	r, err := whisper.New("http://localhost:8080", whisper.WithLanguage("en"))
//	sess, err := r.NewSession(ctx, stt.StreamConfig{SampleRate: 16000})
//	defer sess.Close()
//	if done, _ := sess.Push(chunk); done {
//	    words := sess.Result()
//	}
//	tail, err := sess.Flush()
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/MrWong99/enunciate/pkg/audio"
	"github.com/MrWong99/enunciate/pkg/provider/stt"
)

var _ stt.Recognizer = (*Recognizer)(nil)

// Option is a functional option for configuring a Recognizer.
type Option func(*Recognizer)

// WithModel sets the model identifier forwarded to the server. When empty
// the server uses whichever model it was started with.
func WithModel(model string) Option {
	return func(r *Recognizer) { r.model = model }
}

// WithLanguage sets the language code sent to the server. Defaults to "en".
func WithLanguage(lang string) Option {
	return func(r *Recognizer) { r.language = lang }
}

// WithHTTPClient replaces the HTTP client. The default has a 60 s timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Recognizer) {
		if c != nil {
			r.httpClient = c
		}
	}
}

// WithSilenceThresholdMs sets the trailing-silence duration (ms) that ends an
// utterance. Defaults to 500 ms.
func WithSilenceThresholdMs(ms int) Option {
	return func(r *Recognizer) { r.segment.silenceThresholdMs = ms }
}

// WithMaxBufferDurationMs sets the longest utterance (ms) before a boundary
// is forced. Defaults to 30 000 ms.
func WithMaxBufferDurationMs(ms int) Option {
	return func(r *Recognizer) { r.segment.maxBufferDurationMs = ms }
}

// WithRMSThreshold sets the energy below which a chunk is silence.
func WithRMSThreshold(rms float64) Option {
	return func(r *Recognizer) { r.segment.rmsThreshold = rms }
}

// Recognizer implements stt.Recognizer against a whisper-server instance.
type Recognizer struct {
	serverURL  string
	model      string
	language   string
	segment    segmentConfig
	httpClient *http.Client
}

// New creates a Recognizer for the whisper-server at serverURL
// (e.g. "http://localhost:8080").
func New(serverURL string, opts ...Option) (*Recognizer, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: serverURL must not be empty")
	}
	r := &Recognizer{
		serverURL:  serverURL,
		language:   defaultLanguage,
		segment:    defaultSegmentConfig(),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// NewSession implements stt.Recognizer. No request is made until the first
// utterance is committed.
func (r *Recognizer) NewSession(ctx context.Context, cfg stt.StreamConfig) (stt.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("whisper: context already cancelled: %w", err)
	}
	lang := cfg.Language
	if lang == "" {
		lang = r.language
	}
	sr := cfg.SampleRate
	if sr <= 0 {
		sr = defaultSampleRate
	}
	infer := func(ctx context.Context, pcm []byte) ([]stt.Word, error) {
		return r.infer(ctx, pcm, sr, lang)
	}
	return newSession(ctx, newSegmenter(sr, r.segment), infer), nil
}

// inferenceResponse is the subset of whisper-server's verbose_json output
// that carries word timing.
type inferenceResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Words []struct {
			Word        string  `json:"word"`
			Start       float64 `json:"start"`
			End         float64 `json:"end"`
			Probability float64 `json:"probability"`
		} `json:"words"`
	} `json:"segments"`
}

// infer uploads pcm as a WAV file and converts the response into words.
func (r *Recognizer) infer(ctx context.Context, pcm []byte, sampleRate int, lang string) ([]stt.Word, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("whisper: create form file: %w", err)
	}
	if err := audio.EncodeWAV(fw, pcm, sampleRate, 1); err != nil {
		return nil, fmt.Errorf("whisper: write wav data: %w", err)
	}
	fields := [][2]string{
		{"response_format", "verbose_json"},
		{"language", lang},
		{"model", r.model},
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("whisper: write %s field: %w", f[0], err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.serverURL+"/inference", &body)
	if err != nil {
		return nil, fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := r.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("whisper: http request: %w", err)
		}
		return nil, fmt.Errorf("whisper: http request: %w: %w", stt.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, fmt.Errorf("whisper: server returned HTTP %d: %w", resp.StatusCode, stt.ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("whisper: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("whisper: read response body: %w", err)
	}
	var result inferenceResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("whisper: parse JSON response: %w", err)
	}

	if len(result.Segments) == 0 {
		dur := bytesToDuration(len(pcm), sampleRate)
		return spreadWords(result.Text, 0, dur, 0), nil
	}

	var words []stt.Word
	for _, seg := range result.Segments {
		if len(seg.Words) == 0 {
			words = append(words, spreadWords(seg.Text, secondsToDuration(seg.Start), secondsToDuration(seg.End), 0)...)
			continue
		}
		for _, w := range seg.Words {
			words = append(words, spreadWords(w.Word, secondsToDuration(w.Start), secondsToDuration(w.End), w.Probability)...)
		}
	}
	return words, nil
}
