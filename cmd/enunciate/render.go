package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/MrWong99/enunciate/internal/azurecompat"
	"github.com/MrWong99/enunciate/pkg/types"
)

// Output formats accepted by assess --format.
const (
	formatText  = "text"
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatAzure = "azure"
)

func validFormat(f string) bool {
	switch f {
	case formatText, formatJSON, formatYAML, formatAzure:
		return true
	}
	return false
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))

	wordStyles = map[types.ErrorType]lipgloss.Style{
		types.ErrorNone:             lipgloss.NewStyle().Foreground(lipgloss.Color("#3fb950")),
		types.ErrorMispronunciation: lipgloss.NewStyle().Foreground(lipgloss.Color("#d29922")),
		types.ErrorOmission:         lipgloss.NewStyle().Foreground(lipgloss.Color("#f85149")).Strikethrough(true),
		types.ErrorInsertion:        lipgloss.NewStyle().Foreground(lipgloss.Color("#a371f7")).Italic(true),
	}
)

func writeResult(w io.Writer, format string, r *types.AssessmentResult) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case formatAzure:
		return azurecompat.Encode(w, r)
	case formatText, "":
		_, err := io.WriteString(w, renderText(r))
		return err
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// renderText lays out the scores, the coloured word line, and a per-word
// table with error counts.
func renderText(r *types.AssessmentResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %6.2f   %s %6.2f   %s %6.2f\n",
		headingStyle.Render("Pronunciation"), r.Pronunciation,
		headingStyle.Render("Accuracy"), r.Accuracy,
		headingStyle.Render("Fluency"), r.Fluency,
	)
	if len(r.Words) == 0 {
		b.WriteString(dimStyle.Render("no words assessed") + "\n")
		return b.String()
	}

	line := make([]string, len(r.Words))
	for i, w := range r.Words {
		line[i] = wordStyles[w.ErrorType].Render(w.Word)
	}
	b.WriteString("\n" + strings.Join(line, " ") + "\n\n")

	width := 0
	for _, w := range r.Words {
		width = max(width, lipgloss.Width(w.Word))
	}
	for _, w := range r.Words {
		pad := strings.Repeat(" ", width-lipgloss.Width(w.Word))
		fmt.Fprintf(&b, "  %s%s %3d  %s", wordStyles[w.ErrorType].Render(w.Word), pad, w.AccuracyScore, w.ErrorType)
		if len(w.Syllables) > 0 {
			syl := make([]string, len(w.Syllables))
			for i, s := range w.Syllables {
				syl[i] = fmt.Sprintf("%s:%d", s.Symbol, s.Score)
			}
			b.WriteString("  " + dimStyle.Render(strings.Join(syl, " ")))
		}
		b.WriteString("\n")
	}

	counts := r.ErrorCounts()
	fmt.Fprintf(&b, "\n%s\n", dimStyle.Render(fmt.Sprintf("%d mispronounced, %d omitted, %d inserted",
		counts[types.ErrorMispronunciation], counts[types.ErrorOmission], counts[types.ErrorInsertion])))
	return b.String()
}
