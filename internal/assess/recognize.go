package assess

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrWong99/enunciate/pkg/audio"
	"github.com/MrWong99/enunciate/pkg/provider/stt"
	"github.com/MrWong99/enunciate/pkg/types"
)

// DefaultChunkSamples is the number of samples fed to the recognizer per
// Push.
const DefaultChunkSamples = 4000

// recognize streams the normalized WAV at path through a fresh recognizer
// session in chunks of chunkSamples samples and returns the words in the
// order the recognizer finalized them.
func recognize(ctx context.Context, r stt.Recognizer, path string, chunkSamples int, language string) ([]types.RecognizedToken, error) {
	clip, err := audio.ReadWAVFile(path)
	if err != nil {
		return nil, fmt.Errorf("assess: read normalized audio: %w: %w", ErrAudioFormat, err)
	}
	pcm := audio.PCM16(clip.Samples)

	sess, err := r.NewSession(ctx, stt.StreamConfig{SampleRate: clip.SampleRate, Language: language})
	if err != nil {
		return nil, recognizerError("open session", err)
	}
	defer sess.Close()

	var words []stt.Word
	step := chunkSamples * 2
	for off := 0; off < len(pcm); off += step {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("assess: recognize: %w", err)
		}
		end := min(off+step, len(pcm))
		finalized, err := sess.Push(pcm[off:end])
		if err != nil {
			return nil, recognizerError("push", err)
		}
		if finalized {
			words = append(words, sess.Result()...)
		}
	}
	trailing, err := sess.Flush()
	if err != nil {
		return nil, recognizerError("flush", err)
	}
	words = append(words, trailing...)

	out := make([]types.RecognizedToken, len(words))
	for i, w := range words {
		out[i] = types.RecognizedToken{
			Text:       w.Text,
			Start:      w.Start.Seconds(),
			End:        w.End.Seconds(),
			Confidence: w.Confidence,
		}
	}
	return out, nil
}

// recognizerError maps a recognizer failure onto ErrRecognizerUnavailable.
// Context errors pass through unchanged.
func recognizerError(action string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("assess: recognizer %s: %w", action, err)
	}
	return fmt.Errorf("assess: recognizer %s: %w: %w", action, ErrRecognizerUnavailable, err)
}
