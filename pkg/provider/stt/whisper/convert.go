package whisper

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/MrWong99/enunciate/pkg/provider/stt"
)

// pcmToFloat32 converts 16-bit signed little-endian PCM audio to float32
// samples normalised to [-1.0, 1.0]. A trailing odd byte is ignored.
func pcmToFloat32(pcm []byte) []float32 {
	n := len(pcm) / 2
	samples := make([]float32, n)
	for i := range n {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		samples[i] = float32(sample) / 32768.0
	}
	return samples
}

// textToken is one decoded whisper token reduced to what word assembly
// needs.
type textToken struct {
	text  string
	p     float64
	start time.Duration
	end   time.Duration
}

// mergeTokens assembles BPE tokens into words. A token whose text starts
// with a space opens a new word; other tokens continue the current one.
// Word confidence is the mean token probability.
func mergeTokens(tokens []textToken) []stt.Word {
	var (
		words []stt.Word
		text  strings.Builder
		cur   stt.Word
		pSum  float64
		n     int
	)
	emit := func() {
		if w := strings.TrimSpace(text.String()); w != "" {
			cur.Text = w
			cur.Confidence = pSum / float64(n)
			words = append(words, cur)
		}
		text.Reset()
		pSum, n = 0, 0
	}

	for _, tok := range tokens {
		if strings.TrimSpace(tok.text) == "" {
			continue
		}
		if n == 0 || strings.HasPrefix(tok.text, " ") {
			if n > 0 {
				emit()
			}
			cur = stt.Word{Start: tok.start}
		}
		text.WriteString(tok.text)
		cur.End = tok.end
		pSum += tok.p
		n++
	}
	if n > 0 {
		emit()
	}
	return words
}
