package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrWong99/enunciate/internal/refprep"
)

func (c *cli) newAssessCmd() *cobra.Command {
	var (
		format      string
		stripMarkup bool
		metricsOut  string
		refFile     string
	)
	cmd := &cobra.Command{
		Use:   "assess [reference] <recording.wav>",
		Short: "Assess a WAV recording against a reference text",
		Long: `Assess a WAV recording against a reference text.

The reference is the first argument, or the contents of --reference-file.
Any PCM WAV file is accepted; it is converted to 16 kHz mono internally.

Examples:
  enunciate assess "the quick brown fox" fox.wav
  enunciate assess --reference-file card.html --strip-markup --format azure fox.wav`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validFormat(format) {
				return fmt.Errorf("unsupported output format %q", format)
			}

			var reference, audioPath string
			switch {
			case refFile != "" && len(args) == 1:
				data, err := os.ReadFile(refFile)
				if err != nil {
					return fmt.Errorf("read reference: %w", err)
				}
				reference, audioPath = string(data), args[0]
			case refFile == "" && len(args) == 2:
				reference, audioPath = args[0], args[1]
			default:
				return fmt.Errorf("want a reference and a recording, or --reference-file and a recording")
			}
			if stripMarkup {
				reference = refprep.Strip(reference)
			}
			if metricsOut != "" {
				c.cfg.Telemetry.Enabled = true
			}

			a, stop, err := c.startApp(cmd.Context())
			if err != nil {
				return err
			}
			defer stop()

			res, err := a.Assess(cmd.Context(), reference, audioPath)
			if metricsOut != "" {
				if werr := a.Telemetry().WriteTextfile(metricsOut); werr != nil && err == nil {
					err = werr
				}
			}
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), format, res)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", formatText, "output format: text, json, yaml, or azure")
	cmd.Flags().BoolVar(&stripMarkup, "strip-markup", false, "remove HTML, [bracket] tags, and &nbsp; from the reference")
	cmd.Flags().StringVar(&metricsOut, "metrics-out", "", "write Prometheus metrics in textfile format to this path")
	cmd.Flags().StringVarP(&refFile, "reference-file", "f", "", "read the reference text from a file")
	return cmd
}
