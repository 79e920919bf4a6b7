package assess

import (
	"strings"

	"github.com/MrWong99/enunciate/pkg/types"
)

// arpabetNuclei are the ARPAbet vowels, without stress digits.
var arpabetNuclei = map[string]bool{
	"AA": true, "AE": true, "AH": true, "AO": true, "AW": true,
	"AY": true, "EH": true, "ER": true, "EY": true, "IH": true,
	"IY": true, "OW": true, "OY": true, "UH": true, "UW": true,
}

// bareSymbol uppercases p and strips ARPAbet stress digits.
func bareSymbol(p string) string {
	return strings.ToUpper(strings.TrimRight(p, "012"))
}

func isNucleus(p string) bool {
	return arpabetNuclei[bareSymbol(p)]
}

// Syllabify splits phonemes at ARPAbet vowel nuclei. Consonants before the
// first nucleus join the first syllable and those after the last join the
// last. Between two nuclei a lone consonant opens the next syllable; with
// two or more, the first closes the previous syllable and the rest open the
// next. A sequence without any nucleus yields nil.
func Syllabify(phonemes []string) [][]string {
	var nuclei []int
	for i, p := range phonemes {
		if isNucleus(p) {
			nuclei = append(nuclei, i)
		}
	}
	if len(nuclei) == 0 {
		return nil
	}

	out := make([][]string, 0, len(nuclei))
	start := 0
	for k := 0; k < len(nuclei)-1; k++ {
		left, right := nuclei[k], nuclei[k+1]
		gap := right - left - 1
		cut := left + 1
		if gap >= 2 {
			cut = left + 2
		}
		out = append(out, phonemes[start:cut])
		start = cut
	}
	return append(out, phonemes[start:])
}

// syllableSymbol renders a syllable as its phonemes, lowercased without
// stress digits, concatenated.
func syllableSymbol(syl []string) string {
	var sb strings.Builder
	for _, p := range syl {
		sb.WriteString(strings.ToLower(bareSymbol(p)))
	}
	return sb.String()
}

// scoreSyllables scores each reference syllable against the recognized
// syllable at the same position. Missing recognized syllables score 0. The
// result is never nil.
func scoreSyllables(refPhonemes, recPhonemes []string) []types.Syllable {
	ref := Syllabify(refPhonemes)
	rec := Syllabify(recPhonemes)
	out := make([]types.Syllable, 0, len(ref))
	for i, syl := range ref {
		sym := syllableSymbol(syl)
		score := 0
		if i < len(rec) {
			score = roundScore(Ratio(sym, syllableSymbol(rec[i])))
		}
		out = append(out, types.Syllable{Symbol: sym, Score: score})
	}
	return out
}
