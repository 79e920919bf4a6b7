package audio

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Recognizer-ready output format produced by [Normalizer].
const (
	TargetSampleRate    = 16000
	TargetChannels      = 1
	TargetBitsPerSample = 16
)

// NormalizerOption is a functional option for configuring a [Normalizer].
type NormalizerOption func(*Normalizer)

// WithResampler sets the resampler used when the source rate differs from
// 16 kHz. Defaults to [SoxrResampler].
func WithResampler(r Resampler) NormalizerOption {
	return func(n *Normalizer) {
		if r != nil {
			n.resampler = r
		}
	}
}

// WithTempDir sets the directory temporary output files are created in.
// Empty means [os.TempDir].
func WithTempDir(dir string) NormalizerOption {
	return func(n *Normalizer) { n.tempDir = dir }
}

// Normalizer converts arbitrary integer PCM WAV recordings into 16 kHz mono
// 16-bit PCM WAV files. It holds no per-file state and is safe for
// concurrent use.
type Normalizer struct {
	resampler Resampler
	tempDir   string
}

// NewNormalizer returns a [Normalizer] configured with opts.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{resampler: SoxrResampler{}}
	for _, o := range opts {
		o(n)
	}
	return n
}

// NormalizedFile is a temporary recognizer-ready WAV file. The owner must
// call Close on every exit path; Close removes the file.
type NormalizedFile struct {
	// Path is the location of the WAV file on disk.
	Path string

	// Frames is the number of 16 kHz samples in the data chunk.
	Frames int

	once     sync.Once
	closeErr error
}

// Duration returns the audio length of the file.
func (f *NormalizedFile) Duration() time.Duration {
	return time.Duration(f.Frames) * time.Second / TargetSampleRate
}

// Close deletes the temporary file. Calling Close more than once is safe and
// returns the result of the first call.
func (f *NormalizedFile) Close() error {
	f.once.Do(func() {
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			f.closeErr = fmt.Errorf("audio: remove %q: %w", f.Path, err)
		}
	})
	return f.closeErr
}

// Normalize reads the WAV file at path and writes a 16 kHz mono 16-bit copy
// to a new temporary file. Errors parsing the source wrap [ErrInvalidWAV] or
// [ErrUnsupportedFormat].
func (n *Normalizer) Normalize(path string) (*NormalizedFile, error) {
	clip, err := ReadWAVFile(path)
	if err != nil {
		return nil, err
	}
	pcm, err := n.Convert(clip)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(n.tempDir, "enunciate-*.wav")
	if err != nil {
		return nil, fmt.Errorf("audio: create temp file: %w", err)
	}
	out := &NormalizedFile{Path: tmp.Name(), Frames: len(pcm) / 2}

	w := bufio.NewWriter(tmp)
	werr := EncodeWAV(w, pcm, TargetSampleRate, TargetChannels)
	if werr == nil {
		werr = w.Flush()
	}
	if cerr := tmp.Close(); werr == nil && cerr != nil {
		werr = fmt.Errorf("audio: close temp file: %w", cerr)
	}
	if werr != nil {
		_ = out.Close()
		return nil, werr
	}
	return out, nil
}

// Convert runs the normalization steps over an in-memory clip and returns
// 16-bit little-endian mono PCM at 16 kHz. The steps run in a fixed order,
// each skipped when the clip already satisfies it:
//
//  1. downmix to mono
//  2. resample to 16 kHz
//  3. convert the sample width to 16 bits
func (n *Normalizer) Convert(clip *Clip) ([]byte, error) {
	if clip.Channels == TargetChannels && clip.SampleRate == TargetSampleRate && clip.BitsPerSample == TargetBitsPerSample {
		return PCM16(clip.Samples), nil
	}

	slog.Debug("audio normalizer: converting",
		"from", formatString(clip.SampleRate, clip.Channels, clip.BitsPerSample),
		"to", formatString(TargetSampleRate, TargetChannels, TargetBitsPerSample),
	)

	samples := Downmix(clip.Samples, clip.Channels)

	if clip.SampleRate != TargetSampleRate {
		var err error
		samples, err = n.resampler.Resample(samples, clip.BitsPerSample, clip.SampleRate, TargetSampleRate)
		if err != nil {
			return nil, err
		}
	}

	samples = ConvertWidth(samples, clip.BitsPerSample, TargetBitsPerSample)
	return PCM16(samples), nil
}
