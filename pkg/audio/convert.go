package audio

import (
	"fmt"
	"math"
)

// Downmix averages interleaved multi-channel samples into a single channel.
// Uses int64 accumulation so wide samples cannot overflow. If channels is 1
// (or less) the input is returned unchanged.
func Downmix(samples []int32, channels int) []int32 {
	if channels <= 1 {
		return samples
	}
	frames := len(samples) / channels
	out := make([]int32, frames)
	for i := range frames {
		var sum int64
		for ch := range channels {
			sum += int64(samples[i*channels+ch])
		}
		out[i] = int32(sum / int64(channels))
	}
	return out
}

// ResampleLinear resamples mono samples from srcRate to dstRate using linear
// interpolation. If the rates match or either is non-positive the input is
// returned unchanged.
func ResampleLinear(samples []int32, srcRate, dstRate int) []int32 {
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate || len(samples) == 0 {
		return samples
	}
	n := len(samples)
	dstSamples := int(int64(n) * int64(dstRate) / int64(srcRate))
	if dstSamples == 0 {
		return nil
	}

	out := make([]int32, dstSamples)
	ratio := float64(srcRate) / float64(dstRate)

	for i := range dstSamples {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		s0 := float64(samples[srcIdx])
		s1 := s0
		if srcIdx+1 < n {
			s1 = float64(samples[srcIdx+1])
		}
		out[i] = int32(math.Round(s0*(1-frac) + s1*frac))
	}
	return out
}

// ConvertWidth rescales samples from one integer sample width to another by
// bit shifting. Narrowing truncates the low-order bits.
func ConvertWidth(samples []int32, fromBits, toBits int) []int32 {
	if fromBits == toBits {
		return samples
	}
	out := make([]int32, len(samples))
	if toBits < fromBits {
		shift := uint(fromBits - toBits)
		for i, s := range samples {
			out[i] = s >> shift
		}
		return out
	}
	shift := uint(toBits - fromBits)
	for i, s := range samples {
		out[i] = s << shift
	}
	return out
}

// formatString returns a human-readable description of a PCM layout,
// e.g. "44100Hz stereo 24-bit".
func formatString(rate, channels, bits int) string {
	ch := "mono"
	if channels == 2 {
		ch = "stereo"
	} else if channels > 2 {
		ch = fmt.Sprintf("%dch", channels)
	}
	return fmt.Sprintf("%dHz %s %d-bit", rate, ch, bits)
}
