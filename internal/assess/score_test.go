package assess_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/MrWong99/enunciate/internal/assess"
	g2pmock "github.com/MrWong99/enunciate/pkg/provider/g2p/mock"
	"github.com/MrWong99/enunciate/pkg/types"
)

var lexicon = map[string][]string{
	"the":   {"DH", "AH0"},
	"quick": {"K", "W", "IH1", "K"},
	"brown": {"B", "R", "AW1", "N"},
	"fox":   {"F", "AA1", "K", "S"},
	"cat":   {"K", "AE1", "T"},
	"cut":   {"K", "AH1", "T"},
	"water": {"W", "AO1", "T", "ER0"},
}

func refTokens(words ...string) []types.ReferenceToken {
	out := make([]types.ReferenceToken, len(words))
	for i, w := range words {
		out[i] = types.ReferenceToken{Text: w, Phonemes: lexicon[w]}
	}
	return out
}

func recTokens(words ...string) []types.RecognizedToken {
	out := make([]types.RecognizedToken, len(words))
	for i, w := range words {
		out[i] = types.RecognizedToken{Text: w, Start: float64(i), End: float64(i) + 1, Confidence: 1}
	}
	return out
}

func scoreTexts(t *testing.T, cfg assess.Scoring, ref []types.ReferenceToken, rec []types.RecognizedToken) []types.WordAssessment {
	t.Helper()
	refTexts := make([]string, len(ref))
	for i, r := range ref {
		refTexts[i] = r.Text
	}
	recTexts := make([]string, len(rec))
	for i, r := range rec {
		recTexts[i] = r.Text
	}
	words, err := assess.Score(assess.Align(refTexts, recTexts), ref, rec, &g2pmock.Transcriber{Table: lexicon}, cfg)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	return words
}

func TestScore_EqualIdentity(t *testing.T) {
	t.Parallel()

	words := scoreTexts(t, assess.DefaultScoring(), refTokens("the", "quick", "brown", "fox"), recTokens("The", "quick", "brown", "fox"))
	if len(words) != 4 {
		t.Fatalf("got %d words, want 4", len(words))
	}
	if words[0].Word != "The" {
		t.Errorf("equal word text = %q, want the recognized %q", words[0].Word, "The")
	}
	for _, w := range words {
		if w.ErrorType != types.ErrorNone || w.AccuracyScore != 100 {
			t.Errorf("%q: got %s/%d, want None/100", w.Word, w.ErrorType, w.AccuracyScore)
		}
		if w.Syllables == nil {
			t.Errorf("%q: Syllables is nil, want a slice", w.Word)
		}
	}
}

func TestScore_Replace(t *testing.T) {
	t.Parallel()

	words := scoreTexts(t, assess.DefaultScoring(), refTokens("cat"), recTokens("cut"))
	want := []types.WordAssessment{{
		Word:          "cut",
		ErrorType:     types.ErrorMispronunciation,
		AccuracyScore: 74,
		Syllables:     []types.Syllable{{Symbol: "kaet", Score: 75}},
	}}
	if !reflect.DeepEqual(words, want) {
		t.Errorf("Score = %+v, want %+v", words, want)
	}
}

func TestScore_ReplaceAnchorsFirstReferenceWord(t *testing.T) {
	t.Parallel()

	// Nothing matches, so both recognized words fall in one replace op and
	// are scored against its first reference word.
	words := scoreTexts(t, assess.DefaultScoring(), refTokens("cat", "fox"), recTokens("cut", "cut"))
	if len(words) != 2 {
		t.Fatalf("got %d words, want 2", len(words))
	}
	for _, w := range words {
		if w.ErrorType != types.ErrorMispronunciation || w.AccuracyScore != 74 {
			t.Errorf("%q: got %s/%d, want Mispronunciation/74 against anchor %q", w.Word, w.ErrorType, w.AccuracyScore, "cat")
		}
	}
}

func TestScore_OmissionAndInsertion(t *testing.T) {
	t.Parallel()

	words := scoreTexts(t, assess.DefaultScoring(), refTokens("the", "quick", "brown", "fox"), recTokens("the", "brown", "fox", "cat"))
	got := make([]types.ErrorType, len(words))
	for i, w := range words {
		got[i] = w.ErrorType
	}
	want := []types.ErrorType{types.ErrorNone, types.ErrorOmission, types.ErrorNone, types.ErrorNone, types.ErrorInsertion}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("error types = %v, want %v", got, want)
	}
	if words[1].Word != "quick" || words[1].AccuracyScore != 0 {
		t.Errorf("omission = %+v, want quick/0", words[1])
	}
	if words[4].Word != "cat" || words[4].AccuracyScore != 0 {
		t.Errorf("insertion = %+v, want cat/0", words[4])
	}
}

func TestScore_NothingRecognized(t *testing.T) {
	t.Parallel()

	words := scoreTexts(t, assess.DefaultScoring(), refTokens("the", "fox"), nil)
	if len(words) != 2 {
		t.Fatalf("got %d words, want 2", len(words))
	}
	for i, w := range words {
		if w.ErrorType != types.ErrorOmission || w.AccuracyScore != 0 || w.Word != []string{"the", "fox"}[i] {
			t.Errorf("word %d = %+v, want Omission/0", i, w)
		}
	}
}

func TestScore_EmptyReference(t *testing.T) {
	t.Parallel()

	words := scoreTexts(t, assess.DefaultScoring(), nil, recTokens("the", "fox"))
	if len(words) != 2 {
		t.Fatalf("got %d words, want 2", len(words))
	}
	for _, w := range words {
		if w.ErrorType != types.ErrorInsertion || w.AccuracyScore != 0 {
			t.Errorf("%+v, want Insertion/0", w)
		}
	}
}

func TestScore_EqualBelowThreshold(t *testing.T) {
	t.Parallel()

	cfg := assess.DefaultScoring()
	cfg.OrthographicWeight, cfg.PhoneticWeight = 0, 1
	ref := []types.ReferenceToken{{Text: "read", Phonemes: []string{"X"}}}
	words, err := assess.Score(
		[]assess.Opcode{{Tag: assess.OpEqual, I1: 0, I2: 1, J1: 0, J2: 1}},
		ref, recTokens("read"),
		&g2pmock.Transcriber{Table: map[string][]string{"read": {"Y"}}},
		cfg,
	)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if words[0].ErrorType != types.ErrorMispronunciation || words[0].AccuracyScore != 0 {
		t.Errorf("got %s/%d, want Mispronunciation/0", words[0].ErrorType, words[0].AccuracyScore)
	}
}

func TestScore_WeightsNormalized(t *testing.T) {
	t.Parallel()

	scaled := assess.DefaultScoring()
	scaled.OrthographicWeight, scaled.PhoneticWeight = 3, 2
	a := scoreTexts(t, assess.DefaultScoring(), refTokens("cat"), recTokens("cut"))
	b := scoreTexts(t, scaled, refTokens("cat"), recTokens("cut"))
	if a[0].AccuracyScore != b[0].AccuracyScore {
		t.Errorf("weights 3:2 scored %d, 0.6:0.4 scored %d", b[0].AccuracyScore, a[0].AccuracyScore)
	}
}

func TestScore_SyllablesDisabled(t *testing.T) {
	t.Parallel()

	cfg := assess.DefaultScoring()
	cfg.Syllables = false
	words := scoreTexts(t, cfg, refTokens("water"), recTokens("water"))
	if len(words[0].Syllables) != 0 || words[0].Syllables == nil {
		t.Errorf("Syllables = %#v, want empty non-nil", words[0].Syllables)
	}

	words = scoreTexts(t, assess.DefaultScoring(), refTokens("water"), recTokens("water"))
	want := []types.Syllable{{Symbol: "wao", Score: 100}, {Symbol: "ter", Score: 100}}
	if !reflect.DeepEqual(words[0].Syllables, want) {
		t.Errorf("Syllables = %+v, want %+v", words[0].Syllables, want)
	}
}

func TestScore_TranscriberError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := assess.Score(
		[]assess.Opcode{{Tag: assess.OpEqual, I1: 0, I2: 1, J1: 0, J2: 1}},
		refTokens("fox"), recTokens("fox"),
		&g2pmock.Transcriber{Err: boom},
		assess.DefaultScoring(),
	)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestScore_Bounds(t *testing.T) {
	t.Parallel()

	vocab := []string{"the", "quick", "brown", "fox", "cat", "cut", "water", "zebra"}
	for i := range vocab {
		for j := range vocab {
			ref := refTokens(vocab[i], vocab[j])
			rec := recTokens(vocab[j], vocab[(i+j)%len(vocab)], vocab[i])
			for _, w := range scoreTexts(t, assess.DefaultScoring(), ref, rec) {
				if w.AccuracyScore < 0 || w.AccuracyScore > 100 {
					t.Fatalf("%q scored %d, outside [0, 100]", w.Word, w.AccuracyScore)
				}
				if !w.ErrorType.IsValid() {
					t.Fatalf("%q has invalid error type %q", w.Word, w.ErrorType)
				}
				for _, s := range w.Syllables {
					if s.Score < 0 || s.Score > 100 {
						t.Fatalf("%q syllable %q scored %d", w.Word, s.Symbol, s.Score)
					}
				}
			}
		}
	}
}
