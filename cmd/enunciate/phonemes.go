package main

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/MrWong99/enunciate/internal/assess"
)

func (c *cli) newPhonemesCmd() *cobra.Command {
	var syllables bool
	cmd := &cobra.Command{
		Use:   "phonemes <word>...",
		Short: "Print the phonemes the configured transcriber produces",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, stop, err := c.startApp(cmd.Context())
			if err != nil {
				return err
			}
			defer stop()

			out := cmd.OutOrStdout()
			for _, arg := range args {
				for _, word := range assess.Tokenize(arg) {
					p, err := a.Phonemes(word)
					if err != nil {
						return err
					}
					line := word + "\t" + strings.Join(p, " ")
					if syllables {
						line += "\t" + syllableString(assess.Syllabify(p))
					}
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&syllables, "syllables", false, "also print the syllable split")
	return cmd
}

// syllableString renders syllables as lowercase symbols joined by "-".
// Words without a vowel nucleus render as "-".
func syllableString(syl [][]string) string {
	if len(syl) == 0 {
		return "-"
	}
	parts := make([]string, len(syl))
	for i, s := range syl {
		parts[i] = strings.Map(func(r rune) rune {
			if unicode.IsDigit(r) {
				return -1
			}
			return unicode.ToLower(r)
		}, strings.Join(s, ""))
	}
	return strings.Join(parts, "-")
}
