package whisper

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/MrWong99/enunciate/pkg/provider/stt"
)

const (
	// bitsPerSample is fixed at 16 for the 16-bit signed little-endian PCM
	// whisper.cpp expects.
	bitsPerSample = 16

	// defaultRMSThreshold is the root-mean-square energy (in 16-bit PCM units)
	// below which a chunk counts as silence.
	defaultRMSThreshold = 300.0

	defaultLanguage           = "en"
	defaultSampleRate         = 16000
	defaultSilenceThresholdMs = 500

	// whisper decodes 30 s windows; longer utterances are cut there.
	defaultMaxBufferDurationMs = 30_000
)

// segmentConfig holds the endpointing parameters shared by both backends.
type segmentConfig struct {
	silenceThresholdMs  int
	maxBufferDurationMs int
	rmsThreshold        float64
}

func defaultSegmentConfig() segmentConfig {
	return segmentConfig{
		silenceThresholdMs:  defaultSilenceThresholdMs,
		maxBufferDurationMs: defaultMaxBufferDurationMs,
		rmsThreshold:        defaultRMSThreshold,
	}
}

// utterance is a committed stretch of speech and its offset in the stream.
type utterance struct {
	pcm   []byte
	start time.Duration
}

// segmenter splits a PCM stream into utterances with an energy-based
// silence detector. Leading silence is discarded; once speech has started,
// a run of silence at least silenceThresholdMs long (or a buffer that has
// grown past the maximum duration) commits the utterance.
type segmenter struct {
	sampleRate     int
	cfg            segmentConfig
	maxBufferBytes int

	buffer    []byte
	start     int // stream byte offset of buffer[0]
	offset    int // stream bytes consumed so far
	hadSpeech bool
	silenceMs int
}

func newSegmenter(sampleRate int, cfg segmentConfig) *segmenter {
	bytesPerMs := sampleRate * (bitsPerSample / 8) / 1000
	if bytesPerMs <= 0 {
		bytesPerMs = 32
	}
	return &segmenter{
		sampleRate:     sampleRate,
		cfg:            cfg,
		maxBufferBytes: cfg.maxBufferDurationMs * bytesPerMs,
	}
}

// push consumes one chunk and returns a committed utterance, if any.
func (s *segmenter) push(chunk []byte) (utterance, bool) {
	pos := s.offset
	s.offset += len(chunk)

	if computeRMS(chunk) < s.cfg.rmsThreshold {
		if !s.hadSpeech {
			return utterance{}, false
		}
		s.silenceMs += chunkDurationMs(chunk, s.sampleRate)
		s.buffer = append(s.buffer, chunk...)
		if s.silenceMs >= s.cfg.silenceThresholdMs {
			return s.take()
		}
		return utterance{}, false
	}

	if !s.hadSpeech {
		s.start = pos
	}
	s.hadSpeech = true
	s.silenceMs = 0
	s.buffer = append(s.buffer, chunk...)
	if s.maxBufferBytes > 0 && len(s.buffer) >= s.maxBufferBytes {
		return s.take()
	}
	return utterance{}, false
}

// take commits whatever speech is buffered and resets the detector.
func (s *segmenter) take() (utterance, bool) {
	pcm, hadSpeech, start := s.buffer, s.hadSpeech, s.start
	s.buffer = nil
	s.hadSpeech = false
	s.silenceMs = 0
	if len(pcm) == 0 || !hadSpeech {
		return utterance{}, false
	}
	return utterance{pcm: pcm, start: bytesToDuration(start, s.sampleRate)}, true
}

// inferFunc recognizes one utterance. Word timings are relative to the start
// of pcm.
type inferFunc func(ctx context.Context, pcm []byte) ([]stt.Word, error)

// session adapts a segmenter and a backend inferFunc to stt.Session. It is
// not safe for concurrent use.
type session struct {
	ctx   context.Context
	seg   *segmenter
	infer inferFunc

	last    []stt.Word
	flushed bool
	closed  bool
	once    sync.Once
}

func newSession(ctx context.Context, seg *segmenter, infer inferFunc) *session {
	return &session{ctx: ctx, seg: seg, infer: infer}
}

// Push implements stt.Session.
func (s *session) Push(chunk []byte) (bool, error) {
	if s.closed || s.flushed {
		return false, stt.ErrSessionClosed
	}
	u, ok := s.seg.push(chunk)
	if !ok {
		return false, nil
	}
	words, err := s.recognize(u)
	if err != nil {
		return false, err
	}
	s.last = words
	return true, nil
}

// Result implements stt.Session.
func (s *session) Result() []stt.Word { return s.last }

// Flush implements stt.Session.
func (s *session) Flush() ([]stt.Word, error) {
	if s.closed || s.flushed {
		return nil, stt.ErrSessionClosed
	}
	s.flushed = true
	u, ok := s.seg.take()
	if !ok {
		return nil, nil
	}
	return s.recognize(u)
}

// Close implements stt.Session.
func (s *session) Close() error {
	s.once.Do(func() {
		s.closed = true
		s.seg.buffer = nil
	})
	return nil
}

func (s *session) recognize(u utterance) ([]stt.Word, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, fmt.Errorf("whisper: %w", err)
	}
	words, err := s.infer(s.ctx, u.pcm)
	if err != nil {
		return nil, err
	}
	for i := range words {
		words[i].Start += u.start
		words[i].End += u.start
	}
	return words, nil
}

// spreadWords splits text on whitespace and divides [start, end) evenly
// between the words. Used when the engine reports only segment timing.
func spreadWords(text string, start, end time.Duration, confidence float64) []stt.Word {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	if end < start {
		end = start
	}
	step := (end - start) / time.Duration(len(fields))
	words := make([]stt.Word, len(fields))
	for i, f := range fields {
		ws := start + time.Duration(i)*step
		words[i] = stt.Word{Text: f, Start: ws, End: ws + step, Confidence: confidence}
	}
	words[len(words)-1].End = end
	return words
}

// computeRMS returns the root-mean-square energy of a 16-bit signed
// little-endian PCM buffer. Returns 0 for buffers shorter than one sample.
func computeRMS(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := range n {
		v := float64(int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2])))
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}

// chunkDurationMs returns the duration of a mono PCM chunk in milliseconds.
func chunkDurationMs(chunk []byte, sampleRate int) int {
	if sampleRate <= 0 {
		return 0
	}
	return len(chunk) * 1000 / (sampleRate * (bitsPerSample / 8))
}

func bytesToDuration(n, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(n/(bitsPerSample/8)) * time.Second / time.Duration(sampleRate)
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
