package assess_test

import (
	"testing"

	"github.com/MrWong99/enunciate/internal/assess"
	"github.com/MrWong99/enunciate/pkg/types"
)

func scored(scores ...int) []types.WordAssessment {
	out := make([]types.WordAssessment, len(scores))
	for i, s := range scores {
		out[i] = types.WordAssessment{Word: "w", AccuracyScore: s}
	}
	return out
}

func spanned(n int, start, end float64) []types.RecognizedToken {
	out := make([]types.RecognizedToken, n)
	step := (end - start) / float64(n)
	for i := range out {
		out[i] = types.RecognizedToken{Text: "w", Start: start + float64(i)*step, End: start + float64(i+1)*step}
	}
	return out
}

func TestAccuracy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		words []types.WordAssessment
		want  float64
	}{
		{name: "none", want: 0},
		{name: "all perfect", words: scored(100, 100), want: 100},
		{name: "omissions count", words: scored(100, 0, 50), want: 50},
		{name: "rounded", words: scored(100, 100, 0), want: 66.67},
	}
	for _, tt := range tests {
		if got := assess.Accuracy(tt.words); got != tt.want {
			t.Errorf("%s: Accuracy = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFluency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rec  []types.RecognizedToken
		want float64
	}{
		{name: "nothing recognized", want: 0},
		{name: "two words per second", rec: spanned(4, 0, 2), want: 33.33},
		{name: "floor", rec: spanned(1, 0, 2), want: 0},
		{name: "below floor", rec: spanned(1, 0, 10), want: 0},
		{name: "ceiling", rec: spanned(10, 0, 2), want: 100},
		{name: "above ceiling", rec: spanned(20, 0, 1), want: 100},
		{name: "offset span", rec: spanned(4, 3, 5), want: 33.33},
		{name: "zero duration", rec: []types.RecognizedToken{{Text: "w", Start: 1, End: 1}}, want: 0},
	}
	for _, tt := range tests {
		if got := assess.Fluency(tt.rec, 0.5, 5.0); got != tt.want {
			t.Errorf("%s: Fluency = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFluency_UnorderedTimes(t *testing.T) {
	t.Parallel()

	rec := []types.RecognizedToken{
		{Text: "b", Start: 1.0, End: 2.0},
		{Text: "a", Start: 0.0, End: 0.5},
	}
	// 2 words over 2 s.
	if got := assess.Fluency(rec, 0.5, 5.0); got != 11.11 {
		t.Errorf("Fluency = %v, want 11.11", got)
	}
}

func TestFluency_Calibration(t *testing.T) {
	t.Parallel()

	// 2 words per second halfway between 1 and 3.
	if got := assess.Fluency(spanned(4, 0, 2), 1, 3); got != 50 {
		t.Errorf("Fluency = %v, want 50", got)
	}
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	got := assess.Aggregate(scored(100, 100, 100, 100), spanned(4, 0, 2), assess.DefaultScoring())
	if got.Status != types.StatusSuccess {
		t.Errorf("Status = %q, want Success", got.Status)
	}
	if got.Accuracy != 100 || got.Fluency != 33.33 || got.Pronunciation != 80 {
		t.Errorf("scores = %v/%v/%v, want 100/33.33/80", got.Accuracy, got.Fluency, got.Pronunciation)
	}

	silent := assess.Aggregate(scored(0, 0), nil, assess.DefaultScoring())
	if silent.Accuracy != 0 || silent.Fluency != 0 || silent.Pronunciation != 0 {
		t.Errorf("silent scores = %v/%v/%v, want all 0", silent.Accuracy, silent.Fluency, silent.Pronunciation)
	}
}
