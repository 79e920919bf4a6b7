// Package audio decodes WAV recordings and normalizes them into the format
// speech recognizers expect: 16 kHz, mono, 16-bit signed little-endian PCM.
//
// The central type is [Normalizer]. It reads an arbitrary integer-PCM WAV
// file, downmixes, resamples, and converts the sample width as needed, and
// writes the result to a temporary [NormalizedFile] that the caller removes
// with Close once recognition is done.
//
// Resampling is pluggable through [Resampler]; [SoxrResampler] (default) and
// [LinearResampler] are provided.
package audio
