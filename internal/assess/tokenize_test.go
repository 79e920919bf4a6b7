package assess_test

import (
	"slices"
	"testing"

	"github.com/MrWong99/enunciate/internal/assess"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "plain", in: "the quick brown fox", want: []string{"the", "quick", "brown", "fox"}},
		{name: "punctuation", in: "Hello, world! How's it going?", want: []string{"Hello", "world", "How", "s", "it", "going"}},
		{name: "extra whitespace", in: "  a \t b\n\nc  ", want: []string{"a", "b", "c"}},
		{name: "digits kept", in: "route 66.", want: []string{"route", "66"}},
		{name: "unicode letters", in: "café über naïve", want: []string{"café", "über", "naïve"}},
		{name: "hyphen splits", in: "well-known", want: []string{"well", "known"}},
		{name: "empty", in: "", want: []string{}},
		{name: "only punctuation", in: "?!... --", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := assess.Tokenize(tt.in)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
