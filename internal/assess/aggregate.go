package assess

import (
	"math"

	"github.com/MrWong99/enunciate/pkg/types"
)

// Accuracy is the mean AccuracyScore over all words, Omission and Insertion
// entries included, rounded to two decimals. No words score 0.
func Accuracy(words []types.WordAssessment) float64 {
	if len(words) == 0 {
		return 0
	}
	sum := 0
	for _, w := range words {
		sum += w.AccuracyScore
	}
	return round2(float64(sum) / float64(len(words)))
}

// Fluency maps the speaking rate of rec onto [0, 100]. The rate is the word
// count over the span from the earliest start to the latest end; floor and
// ceiling (words per second) map linearly to 0 and 100. An empty or
// zero-length span has rate 0.
func Fluency(rec []types.RecognizedToken, floor, ceiling float64) float64 {
	if len(rec) == 0 || ceiling <= floor {
		return 0
	}
	first, last := rec[0].Start, rec[0].End
	for _, t := range rec[1:] {
		first = math.Min(first, t.Start)
		last = math.Max(last, t.End)
	}
	var wps float64
	if d := last - first; d > 0 {
		wps = float64(len(rec)) / d
	}
	f := (wps - floor) / (ceiling - floor) * 100
	return round2(math.Max(0, math.Min(100, f)))
}

// Aggregate builds the run result from scored words and recognizer timing.
// Pronunciation blends the already rounded accuracy and fluency.
func Aggregate(words []types.WordAssessment, rec []types.RecognizedToken, cfg Scoring) *types.AssessmentResult {
	acc := Accuracy(words)
	flu := Fluency(rec, cfg.FluencyFloorWPS, cfg.FluencyCeilingWPS)
	pron := round2(blend(acc, cfg.AccuracyWeight, flu, cfg.FluencyWeight))
	return &types.AssessmentResult{
		Status:        types.StatusSuccess,
		Accuracy:      acc,
		Fluency:       flu,
		Pronunciation: math.Max(0, math.Min(100, pron)),
		Words:         words,
	}
}
