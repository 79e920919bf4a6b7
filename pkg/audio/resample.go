package audio

import (
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resampler converts mono integer samples of a given bit width between
// sample rates.
type Resampler interface {
	Resample(samples []int32, bits, srcRate, dstRate int) ([]int32, error)
}

// Resampler names accepted by [NewResampler].
const (
	ResamplerLinear = "linear"
	ResamplerSoxr   = "soxr"
)

// NewResampler returns the resampler registered under name. An empty name
// selects the soxr-quality resampler.
func NewResampler(name string) (Resampler, error) {
	switch name {
	case "", ResamplerSoxr:
		return SoxrResampler{}, nil
	case ResamplerLinear:
		return LinearResampler{}, nil
	}
	return nil, fmt.Errorf("audio: unknown resampler %q", name)
}

// LinearResampler wraps [ResampleLinear]. It is cheap and dependency-free but
// aliases high frequencies when downsampling.
type LinearResampler struct{}

// Resample implements [Resampler].
func (LinearResampler) Resample(samples []int32, _ int, srcRate, dstRate int) ([]int32, error) {
	return ResampleLinear(samples, srcRate, dstRate), nil
}

// SoxrResampler uses the pure-Go SoX-style polyphase resampler from
// go-audio-resampling at high quality.
type SoxrResampler struct{}

// Resample implements [Resampler]. The whole clip is processed in one pass;
// the input is padded with silence so the filter's group delay does not eat
// the tail, and the output is trimmed to the exact expected length.
func (SoxrResampler) Resample(samples []int32, bits, srcRate, dstRate int) ([]int32, error) {
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate || len(samples) == 0 {
		return samples, nil
	}

	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("audio: create resampler: %w", err)
	}

	scale := fullScale(bits)
	pad := srcRate / 10
	in := make([]float64, len(samples)+pad)
	for i, s := range samples {
		in[i] = float64(s) / scale
	}

	res, err := r.Process(in)
	if err != nil {
		return nil, fmt.Errorf("audio: resample: %w", err)
	}

	want := int(int64(len(samples)) * int64(dstRate) / int64(srcRate))
	if len(res) > want {
		res = res[:want]
	}

	maxV, minV := scale-1, -scale
	out := make([]int32, len(res))
	for i, v := range res {
		x := math.Round(v * scale)
		if x > maxV {
			x = maxV
		} else if x < minV {
			x = minV
		}
		out[i] = int32(x)
	}
	return out, nil
}
