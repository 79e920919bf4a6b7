package assess

import (
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// Ratio returns the similarity of a and b in [0, 100] as
// 200·LCS(a, b) / (len(a) + len(b)), where LCS is the length of the longest
// common subsequence of runes and lengths count runes. Two empty strings
// are identical.
func Ratio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	return 200 * float64(matchr.LongestCommonSubsequence(a, b)) / float64(total)
}

// phoneticKey joins phoneme symbols into the string compared by [Ratio].
func phoneticKey(phonemes []string) string {
	return strings.Join(phonemes, " ")
}

func lower(s string) string { return strings.ToLower(s) }
