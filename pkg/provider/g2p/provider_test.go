package g2p_test

import (
	"reflect"
	"testing"

	"github.com/MrWong99/enunciate/pkg/provider/g2p"
)

func TestClean(t *testing.T) {
	t.Parallel()
	got := g2p.Clean([]string{" HH", "", "  ", "AH0 ", "\t", "L"})
	want := []string{"HH", "AH0", "L"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Clean = %v, want %v", got, want)
	}
	if got := g2p.Clean(nil); got == nil || len(got) != 0 {
		t.Errorf("Clean(nil) = %#v, want empty non-nil", got)
	}
}

func TestFunc(t *testing.T) {
	t.Parallel()
	var tr g2p.Transcriber = g2p.Func(func(w string) ([]string, error) {
		return []string{w}, nil
	})
	got, err := tr.Phonemes("x")
	if err != nil || !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("Phonemes = %v, %v", got, err)
	}
}
