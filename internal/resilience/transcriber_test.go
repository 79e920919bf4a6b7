package resilience

import (
	"errors"
	"reflect"
	"testing"

	"github.com/MrWong99/enunciate/pkg/provider/g2p"
	g2pmock "github.com/MrWong99/enunciate/pkg/provider/g2p/mock"
)

func TestTranscriberFallback_Phonemes(t *testing.T) {
	t.Parallel()
	primary := &g2pmock.Transcriber{Err: g2p.ErrUnavailable}
	secondary := &g2pmock.Transcriber{Table: map[string][]string{"cat": {"K", "AE1", "T"}}}
	fb := NewTranscriberFallback(primary, "lexicon", FallbackConfig{})
	fb.AddFallback("metaphone", secondary)

	got, err := fb.Phonemes("cat")
	if err != nil {
		t.Fatalf("Phonemes: %v", err)
	}
	if want := []string{"K", "AE1", "T"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Phonemes = %v, want %v", got, want)
	}
	if primary.CallCount("cat") != 1 {
		t.Errorf("primary called %d times, want 1", primary.CallCount("cat"))
	}
}

func TestTranscriberFallback_EmptyIsNotFailure(t *testing.T) {
	t.Parallel()
	primary := g2p.Func(func(string) ([]string, error) { return []string{}, nil })
	secondary := &g2pmock.Transcriber{}
	fb := NewTranscriberFallback(primary, "primary", FallbackConfig{})
	fb.AddFallback("secondary", secondary)

	got, err := fb.Phonemes("zzyzx")
	if err != nil || len(got) != 0 {
		t.Errorf("Phonemes = %v, %v; want empty result from the primary", got, err)
	}
	if len(secondary.Calls) != 0 {
		t.Errorf("secondary called with %v", secondary.Calls)
	}
}

func TestTranscriberFallback_Load(t *testing.T) {
	t.Parallel()
	broken := &g2pmock.Transcriber{LoadErr: errors.New("no dictionary")}

	fb := NewTranscriberFallback(broken, "lexicon", FallbackConfig{})
	if err := fb.Load(); !errors.Is(err, ErrAllFailed) {
		t.Errorf("Load with only a broken backend = %v, want ErrAllFailed", err)
	}

	fb.AddFallback("rules", g2p.Func(func(string) ([]string, error) { return nil, nil }))
	if err := fb.Load(); err != nil {
		t.Errorf("Load with a usable fallback = %v, want nil", err)
	}
}
