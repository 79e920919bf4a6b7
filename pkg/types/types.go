// Package types defines the assessment data model shared between the scoring
// engine and its callers.
//
// Values of these types are produced once per assessment run and are treated
// as immutable afterwards. Callers receive an [AssessmentResult] and own it
// from then on; the engine keeps no reference to it.
package types

// ErrorType classifies a single assessed word.
type ErrorType string

const (
	// ErrorNone marks a word spoken as expected.
	ErrorNone ErrorType = "None"

	// ErrorMispronunciation marks a word that was spoken but did not match
	// the expected word closely enough.
	ErrorMispronunciation ErrorType = "Mispronunciation"

	// ErrorOmission marks an expected word that was never spoken.
	ErrorOmission ErrorType = "Omission"

	// ErrorInsertion marks a spoken word that was not expected.
	ErrorInsertion ErrorType = "Insertion"
)

// IsValid reports whether e is a recognised error type.
func (e ErrorType) IsValid() bool {
	switch e {
	case ErrorNone, ErrorMispronunciation, ErrorOmission, ErrorInsertion:
		return true
	}
	return false
}

// Status reports whether an assessment produced a result.
type Status string

const (
	StatusSuccess Status = "Success"
	StatusFailure Status = "Failure"
)

// ReferenceToken is one word of the reference text together with its
// phoneme sequence.
type ReferenceToken struct {
	// Text is the surface form as it appeared in the reference text.
	Text string

	// Phonemes is the pronunciation of the lowercased Text.
	Phonemes []string
}

// RecognizedToken is one word the recognizer believes was spoken. Start and
// End are seconds from the beginning of the recording.
type RecognizedToken struct {
	Text       string
	Start      float64
	End        float64
	Confidence float64
}

// Syllable is an optional per-syllable score attached to a word.
type Syllable struct {
	// Symbol is the syllable's phonemes, lowercased and concatenated.
	Symbol string `json:"symbol" yaml:"symbol"`

	// Score is the 0–100 similarity of the spoken syllable to the expected one.
	Score int `json:"score" yaml:"score"`
}

// WordAssessment is the outcome for one word of the edit script.
type WordAssessment struct {
	// Word is the recognized word for matched, substituted, and inserted
	// words, and the reference word for omissions.
	Word string `json:"word" yaml:"word"`

	// ErrorType classifies the word.
	ErrorType ErrorType `json:"error_type" yaml:"error_type"`

	// AccuracyScore is in the range [0, 100]. Omissions and insertions
	// always score 0.
	AccuracyScore int `json:"accuracy_score" yaml:"accuracy_score"`

	// Syllables holds per-syllable scores when syllable segmentation was
	// possible. Empty otherwise; never affects AccuracyScore.
	Syllables []Syllable `json:"syllables" yaml:"syllables"`
}

// AssessmentResult is the single output of a successful assessment run.
type AssessmentResult struct {
	Status Status `json:"status" yaml:"status"`

	// Accuracy is the mean word accuracy, in [0, 100], rounded to 2 decimals.
	Accuracy float64 `json:"accuracy" yaml:"accuracy"`

	// Fluency maps the speaking rate to [0, 100], rounded to 2 decimals.
	Fluency float64 `json:"fluency" yaml:"fluency"`

	// Pronunciation blends Accuracy and Fluency, rounded to 2 decimals.
	Pronunciation float64 `json:"pronunciation" yaml:"pronunciation"`

	// Words lists one entry per edit-script word in alignment order.
	Words []WordAssessment `json:"words" yaml:"words"`
}

// ErrorCounts tallies the words of r per error type. Every error type
// except ErrorNone is present in the returned map, possibly with a zero count.
func (r *AssessmentResult) ErrorCounts() map[ErrorType]int {
	counts := map[ErrorType]int{
		ErrorMispronunciation: 0,
		ErrorOmission:         0,
		ErrorInsertion:        0,
	}
	for _, w := range r.Words {
		if w.ErrorType == ErrorNone {
			continue
		}
		counts[w.ErrorType]++
	}
	return counts
}
