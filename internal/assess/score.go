package assess

import (
	"math"

	"github.com/MrWong99/enunciate/pkg/provider/g2p"
	"github.com/MrWong99/enunciate/pkg/types"
)

// Scoring holds the tunable constants of word scoring and aggregation.
type Scoring struct {
	// OrthographicWeight and PhoneticWeight blend the two similarity ratios
	// of a word. They are normalized by their sum.
	OrthographicWeight float64
	PhoneticWeight     float64

	// PassThreshold is the lowest word score classified as ErrorNone.
	PassThreshold int

	// AccuracyWeight and FluencyWeight blend the pronunciation score. They
	// are normalized by their sum.
	AccuracyWeight float64
	FluencyWeight  float64

	// FluencyFloorWPS maps to fluency 0 and FluencyCeilingWPS to 100, in
	// words per second.
	FluencyFloorWPS   float64
	FluencyCeilingWPS float64

	// Syllables enables per-syllable decoration of word results.
	Syllables bool
}

// DefaultScoring returns the calibration used unless configured otherwise.
func DefaultScoring() Scoring {
	return Scoring{
		OrthographicWeight: 0.6,
		PhoneticWeight:     0.4,
		PassThreshold:      60,
		AccuracyWeight:     0.7,
		FluencyWeight:      0.3,
		FluencyFloorWPS:    0.5,
		FluencyCeilingWPS:  5.0,
		Syllables:          true,
	}
}

// blend returns the weighted mean of a and b, or 0 when both weights are 0.
func blend(a, wa, b, wb float64) float64 {
	if wa+wb <= 0 {
		return 0
	}
	return (wa*a + wb*b) / (wa + wb)
}

// roundScore rounds half to even and clamps to [0, 100].
func roundScore(x float64) int {
	return int(math.Max(0, math.Min(100, math.RoundToEven(x))))
}

// round2 rounds x to two decimals, half to even.
func round2(x float64) float64 {
	return math.RoundToEven(x*100) / 100
}

// Score turns the edit script into one WordAssessment per emitted word,
// in script order. tr supplies phonemes for recognized words; reference
// words carry their own.
//
//   - Equal pairs are scored against each other and pass at
//     PassThreshold. The recognized text is reported.
//   - Replaced recognized words are scored against the first reference word
//     of the range and are always Mispronunciation.
//   - Deleted reference words are Omission and inserted recognized words
//     Insertion, both scoring 0.
func Score(ops []Opcode, ref []types.ReferenceToken, rec []types.RecognizedToken, tr g2p.Transcriber, cfg Scoring) ([]types.WordAssessment, error) {
	words := make([]types.WordAssessment, 0, len(ref)+len(rec))
	for _, op := range ops {
		switch op.Tag {
		case OpEqual:
			for k := 0; k < op.I2-op.I1; k++ {
				w, err := scoreAgainst(&ref[op.I1+k], rec[op.J1+k].Text, tr, cfg)
				if err != nil {
					return nil, err
				}
				if w.AccuracyScore < cfg.PassThreshold {
					w.ErrorType = types.ErrorMispronunciation
				}
				words = append(words, w)
			}
		case OpReplace:
			var anchor *types.ReferenceToken
			if op.I1 < op.I2 {
				anchor = &ref[op.I1]
			}
			for j := op.J1; j < op.J2; j++ {
				w, err := scoreAgainst(anchor, rec[j].Text, tr, cfg)
				if err != nil {
					return nil, err
				}
				w.ErrorType = types.ErrorMispronunciation
				words = append(words, w)
			}
		case OpDelete:
			for i := op.I1; i < op.I2; i++ {
				words = append(words, types.WordAssessment{
					Word:      ref[i].Text,
					ErrorType: types.ErrorOmission,
					Syllables: []types.Syllable{},
				})
			}
		case OpInsert:
			for j := op.J1; j < op.J2; j++ {
				words = append(words, types.WordAssessment{
					Word:      rec[j].Text,
					ErrorType: types.ErrorInsertion,
					Syllables: []types.Syllable{},
				})
			}
		}
	}
	return words, nil
}

// scoreAgainst blends the similarity of spoken to ref. A nil ref scores
// orthographically as 0 and phonetically against no phonemes.
func scoreAgainst(ref *types.ReferenceToken, spoken string, tr g2p.Transcriber, cfg Scoring) (types.WordAssessment, error) {
	recPhonemes, err := tr.Phonemes(spoken)
	if err != nil {
		return types.WordAssessment{}, err
	}

	var orth float64
	var refPhonemes []string
	if ref != nil {
		orth = Ratio(lower(ref.Text), lower(spoken))
		refPhonemes = ref.Phonemes
	}
	phon := Ratio(phoneticKey(refPhonemes), phoneticKey(recPhonemes))

	w := types.WordAssessment{
		Word:          spoken,
		ErrorType:     types.ErrorNone,
		AccuracyScore: roundScore(blend(orth, cfg.OrthographicWeight, phon, cfg.PhoneticWeight)),
		Syllables:     []types.Syllable{},
	}
	if cfg.Syllables {
		w.Syllables = scoreSyllables(refPhonemes, recPhonemes)
	}
	return w, nil
}
