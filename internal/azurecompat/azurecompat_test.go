package azurecompat_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/MrWong99/enunciate/internal/azurecompat"
	"github.com/MrWong99/enunciate/pkg/types"
)

func TestEncode_Success(t *testing.T) {
	t.Parallel()
	r := &types.AssessmentResult{
		Status:        types.StatusSuccess,
		Accuracy:      74,
		Fluency:       33.33,
		Pronunciation: 61.8,
		Words: []types.WordAssessment{
			{Word: "cut", ErrorType: types.ErrorNone, AccuracyScore: 74, Syllables: []types.Syllable{{Symbol: "kaet", Score: 75}}},
			{Word: "dog", ErrorType: types.ErrorOmission, Syllables: []types.Syllable{}},
		},
	}
	var buf bytes.Buffer
	if err := azurecompat.Encode(&buf, r); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if doc["RecognitionStatus"] != "Success" {
		t.Errorf("RecognitionStatus = %v, want Success", doc["RecognitionStatus"])
	}
	nbest := doc["NBest"].([]any)
	if len(nbest) != 1 {
		t.Fatalf("NBest has %d entries, want 1", len(nbest))
	}
	best := nbest[0].(map[string]any)
	if best["AccuracyScore"] != 74.0 || best["FluencyScore"] != 33.33 || best["PronScore"] != 61.8 {
		t.Errorf("scores = %v", best)
	}
	words := best["Words"].([]any)
	first := words[0].(map[string]any)
	if first["Word"] != "cut" || first["ErrorType"] != "None" || first["AccuracyScore"] != 74.0 {
		t.Errorf("first word = %v", first)
	}
	syl := first["Syllables"].([]any)[0].(map[string]any)
	if syl["Syllable"] != "kaet" || syl["AccuracyScore"] != 75.0 {
		t.Errorf("syllable = %v", syl)
	}
	second := words[1].(map[string]any)
	if s, ok := second["Syllables"].([]any); !ok || len(s) != 0 {
		t.Errorf("omission syllables = %v, want []", second["Syllables"])
	}
}

func TestFromResult_Failure(t *testing.T) {
	t.Parallel()
	for _, r := range []*types.AssessmentResult{nil, {Status: types.StatusFailure}} {
		got := azurecompat.FromResult(r)
		if got.RecognitionStatus != "Failure" || got.NBest != nil {
			t.Errorf("FromResult(%v) = %+v, want Failure without NBest", r, got)
		}
	}
}
