package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrWong99/enunciate/pkg/audio"
)

func (c *cli) newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <in.wav> <out.wav>",
		Short: "Convert a WAV file to 16 kHz mono 16-bit PCM",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resampler, err := audio.NewResampler(c.cfg.Audio.Resampler)
			if err != nil {
				return err
			}
			n := audio.NewNormalizer(audio.WithResampler(resampler))

			clip, err := audio.ReadWAVFile(args[0])
			if err != nil {
				return err
			}
			pcm, err := n.Convert(clip)
			if err != nil {
				return err
			}
			return writeWAV(args[1], pcm)
		},
	}
}

func writeWAV(path string, pcm []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	w := bufio.NewWriter(f)
	err = audio.EncodeWAV(w, pcm, audio.TargetSampleRate, audio.TargetChannels)
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
