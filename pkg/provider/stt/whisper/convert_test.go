package whisper

import (
	"encoding/binary"
	"math"
	"testing"
	"time"
)

func TestPcmToFloat32_Empty(t *testing.T) {
	if out := pcmToFloat32(nil); len(out) != 0 {
		t.Fatalf("expected 0 samples, got %d", len(out))
	}
}

func TestPcmToFloat32_FullScale(t *testing.T) {
	tests := []struct {
		name  string
		value int16
		want  float32
	}{
		{"max positive", 32767, 32767.0 / 32768.0},
		{"max negative", -32768, -1.0},
		{"zero", 0, 0.0},
		{"mid negative", -16384, -0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pcm := make([]byte, 2)
			binary.LittleEndian.PutUint16(pcm, uint16(tt.value))
			out := pcmToFloat32(pcm)
			if math.Abs(float64(out[0]-tt.want)) > 1e-6 {
				t.Errorf("pcmToFloat32(%d) = %f; want %f", tt.value, out[0], tt.want)
			}
		})
	}
}

func TestPcmToFloat32_OddTrailingByte(t *testing.T) {
	if out := pcmToFloat32([]byte{0, 0, 0}); len(out) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(out))
	}
}

func TestMergeTokens(t *testing.T) {
	ms := time.Millisecond
	tokens := []textToken{
		{text: " the", p: 0.9, start: 0, end: 200 * ms},
		{text: " qu", p: 0.6, start: 200 * ms, end: 300 * ms},
		{text: "ick", p: 0.8, start: 300 * ms, end: 450 * ms},
		{text: " ", p: 0.1, start: 450 * ms, end: 460 * ms},
		{text: " fox", p: 1.0, start: 500 * ms, end: 800 * ms},
		{text: ".", p: 0.5, start: 800 * ms, end: 810 * ms},
	}
	words := mergeTokens(tokens)
	if len(words) != 3 {
		t.Fatalf("got %d words, want 3: %+v", len(words), words)
	}

	if words[0].Text != "the" || words[0].Start != 0 || words[0].End != 200*ms {
		t.Errorf("word 0 = %+v", words[0])
	}
	if words[1].Text != "quick" || words[1].Start != 200*ms || words[1].End != 450*ms {
		t.Errorf("word 1 = %+v", words[1])
	}
	if math.Abs(words[1].Confidence-0.7) > 1e-9 {
		t.Errorf("word 1 confidence = %f, want 0.7", words[1].Confidence)
	}
	if words[2].Text != "fox." || words[2].End != 810*ms {
		t.Errorf("word 2 = %+v", words[2])
	}
}

func TestMergeTokens_LeadingContinuation(t *testing.T) {
	// The first token of a segment may lack a leading space.
	words := mergeTokens([]textToken{{text: "Hello", p: 1}, {text: " world", p: 1}})
	if len(words) != 2 || words[0].Text != "Hello" || words[1].Text != "world" {
		t.Errorf("got %+v", words)
	}
}

func TestMergeTokens_Empty(t *testing.T) {
	if words := mergeTokens(nil); len(words) != 0 {
		t.Errorf("got %+v, want none", words)
	}
}
