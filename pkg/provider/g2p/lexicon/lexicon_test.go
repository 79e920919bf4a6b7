package lexicon_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/MrWong99/enunciate/pkg/provider/g2p"
	"github.com/MrWong99/enunciate/pkg/provider/g2p/lexicon"
	"github.com/MrWong99/enunciate/pkg/provider/g2p/mock"
)

const sampleDict = `;;; sample CMUdict extract
THE  DH AH0
the(2)  DH IY0
quick K W IH1 K
brown B R AW1 N
fox F AA1 K S
d'artagnan D AH0 R T AE1 NG Y AH0 N # place, france
orphan
`

func TestParse(t *testing.T) {
	t.Parallel()
	d, err := lexicon.Parse(strings.NewReader(sampleDict))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tests := []struct {
		word string
		want []string
	}{
		{"the", []string{"DH", "AH0"}},
		{"quick", []string{"K", "W", "IH1", "K"}},
		{"d'artagnan", []string{"D", "AH0", "R", "T", "AE1", "NG", "Y", "AH0", "N"}},
	}
	for _, tc := range tests {
		if got := d[tc.word]; !reflect.DeepEqual(got, tc.want) {
			t.Errorf("entry %q = %v, want %v", tc.word, got, tc.want)
		}
	}
	if _, ok := d["orphan"]; ok {
		t.Error("a word without phonemes should be skipped")
	}
	if len(d) != 5 {
		t.Errorf("got %d entries, want 5", len(d))
	}
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()
	if _, err := lexicon.Parse(strings.NewReader(";;; only comments\n")); err == nil {
		t.Fatal("expected error for empty dictionary, got nil")
	}
}

func TestPhonemes_CaseInsensitive(t *testing.T) {
	t.Parallel()
	l, err := lexicon.NewFromReader(strings.NewReader(sampleDict))
	if err != nil {
		t.Fatalf("NewFromReader: %v", err)
	}
	got, err := l.Phonemes("FOX")
	if err != nil {
		t.Fatalf("Phonemes: %v", err)
	}
	if want := []string{"F", "AA1", "K", "S"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Phonemes(FOX) = %v, want %v", got, want)
	}

	// Mutating the result must not corrupt the dictionary.
	got[0] = "X"
	again, _ := l.Phonemes("fox")
	if again[0] != "F" {
		t.Error("returned slice aliases dictionary storage")
	}
}

func TestPhonemes_OOV(t *testing.T) {
	t.Parallel()
	l, _ := lexicon.NewFromReader(strings.NewReader(sampleDict))
	got, err := l.Phonemes("zebra")
	if err != nil {
		t.Fatalf("Phonemes: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("OOV without fallback = %#v, want empty non-nil", got)
	}
}

func TestPhonemes_Fallback(t *testing.T) {
	t.Parallel()
	fb := &mock.Transcriber{Table: map[string][]string{"zebra": {"Z", " ", "IY1", "B", "R", "AH0"}}}
	l, _ := lexicon.NewFromReader(strings.NewReader(sampleDict), lexicon.WithFallback(fb))

	got, err := l.Phonemes("Zebra")
	if err != nil {
		t.Fatalf("Phonemes: %v", err)
	}
	if want := []string{"Z", "IY1", "B", "R", "AH0"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Phonemes(Zebra) = %v, want %v", got, want)
	}
	if _, err := l.Phonemes("fox"); err != nil {
		t.Fatalf("Phonemes(fox): %v", err)
	}
	if n := fb.CallCount("fox"); n != 0 {
		t.Errorf("fallback called %d times for an in-vocabulary word", n)
	}

	fb.Err = errors.New("boom")
	if _, err := l.Phonemes("yak"); err == nil {
		t.Error("expected fallback error to propagate")
	}
}

func TestLazyLoad_MissingFileIsUnavailable(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "cmudict.dict")
	l, err := lexicon.New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := l.Load(); !errors.Is(err, g2p.ErrUnavailable) {
		t.Fatalf("Load error = %v, want ErrUnavailable", err)
	}
	if _, err := l.Phonemes("fox"); !errors.Is(err, g2p.ErrUnavailable) {
		t.Fatalf("Phonemes error = %v, want ErrUnavailable", err)
	}

	// The failure is not cached: once the file appears the lexicon works.
	if err := os.WriteFile(path, []byte(sampleDict), 0o600); err != nil {
		t.Fatalf("write dict: %v", err)
	}
	if err := l.Load(); err != nil {
		t.Fatalf("Load after restore: %v", err)
	}
	if n := l.Len(); n != 5 {
		t.Errorf("Len = %d, want 5", n)
	}
}

func TestNew_EmptyPath(t *testing.T) {
	t.Parallel()
	if _, err := lexicon.New(""); err == nil {
		t.Fatal("expected error for empty path, got nil")
	}
}
