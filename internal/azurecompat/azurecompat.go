// Package azurecompat renders assessment results in the JSON shape of the
// Azure pronunciation-assessment REST response, for callers built against
// that service.
package azurecompat

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/MrWong99/enunciate/pkg/types"
)

// Response is the top-level Azure-style document.
type Response struct {
	RecognitionStatus string  `json:"RecognitionStatus"`
	NBest             []NBest `json:"NBest,omitempty"`
}

// NBest is the single hypothesis carried by a [Response].
type NBest struct {
	AccuracyScore float64 `json:"AccuracyScore"`
	FluencyScore  float64 `json:"FluencyScore"`
	PronScore     float64 `json:"PronScore"`
	Words         []Word  `json:"Words"`
}

type Word struct {
	Word          string     `json:"Word"`
	ErrorType     string     `json:"ErrorType"`
	AccuracyScore int        `json:"AccuracyScore"`
	Syllables     []Syllable `json:"Syllables"`
}

type Syllable struct {
	Syllable      string `json:"Syllable"`
	AccuracyScore int    `json:"AccuracyScore"`
}

// FromResult converts r. A nil or failed result yields a Failure status
// with no hypotheses.
func FromResult(r *types.AssessmentResult) Response {
	if r == nil || r.Status != types.StatusSuccess {
		return Response{RecognitionStatus: string(types.StatusFailure)}
	}
	words := make([]Word, 0, len(r.Words))
	for _, w := range r.Words {
		syl := make([]Syllable, 0, len(w.Syllables))
		for _, s := range w.Syllables {
			syl = append(syl, Syllable{Syllable: s.Symbol, AccuracyScore: s.Score})
		}
		words = append(words, Word{
			Word:          w.Word,
			ErrorType:     string(w.ErrorType),
			AccuracyScore: w.AccuracyScore,
			Syllables:     syl,
		})
	}
	return Response{
		RecognitionStatus: string(types.StatusSuccess),
		NBest: []NBest{{
			AccuracyScore: r.Accuracy,
			FluencyScore:  r.Fluency,
			PronScore:     r.Pronunciation,
			Words:         words,
		}},
	}
}

// Encode writes the Azure-style JSON document for r to w.
func Encode(w io.Writer, r *types.AssessmentResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromResult(r)); err != nil {
		return fmt.Errorf("azurecompat: encode: %w", err)
	}
	return nil
}
