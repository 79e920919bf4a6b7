package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

var (
	// ErrInvalidWAV is returned when the input cannot be parsed as a RIFF/WAVE
	// container.
	ErrInvalidWAV = errors.New("audio: invalid wav")

	// ErrUnsupportedFormat is returned for well-formed WAV files whose sample
	// encoding cannot be converted (e.g. compressed codecs, float samples).
	ErrUnsupportedFormat = errors.New("audio: unsupported wav encoding")
)

const (
	formatPCM        = 0x0001
	formatExtensible = 0xFFFE
)

// Clip is decoded integer PCM audio. Samples are interleaved by channel and
// sign-extended to int32 without rescaling, so their range is determined by
// BitsPerSample.
type Clip struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	Samples       []int32
}

// Frames returns the number of sample frames (samples per channel).
func (c *Clip) Frames() int {
	if c.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Duration returns the playback length of the clip in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(c.Frames()) / float64(c.SampleRate)
}

// fullScale returns the magnitude of the most negative sample value for the
// clip's sample width (e.g. 32768 for 16-bit).
func fullScale(bits int) float64 {
	return math.Ldexp(1, bits-1)
}

// DecodeWAV parses a RIFF/WAVE stream holding integer PCM samples of 8, 16,
// 24, or 32 bits. Unknown chunks are skipped.
func DecodeWAV(r io.ReadSeeker) (*Clip, error) {
	var hdr [12]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: read riff header: %v", ErrInvalidWAV, err)
	}
	if string(hdr[0:4]) != "RIFF" || string(hdr[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: missing RIFF/WAVE signature", ErrInvalidWAV)
	}

	clip := &Clip{}
	var fmtFound bool

	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, fmt.Errorf("%w: read chunk header: %v", ErrInvalidWAV, err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			if err := readFmt(r, size, clip); err != nil {
				return nil, err
			}
			fmtFound = true

		case "data":
			if !fmtFound {
				return nil, fmt.Errorf("%w: data chunk before fmt chunk", ErrInvalidWAV)
			}
			samples, err := readSamples(r, size, clip.BitsPerSample)
			if err != nil {
				return nil, err
			}
			clip.Samples = samples
			return clip, nil

		default:
			skip := int64(size)
			if size%2 != 0 {
				skip++
			}
			if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("%w: skip chunk %q: %v", ErrInvalidWAV, id, err)
			}
		}
	}

	if !fmtFound {
		return nil, fmt.Errorf("%w: missing fmt chunk", ErrInvalidWAV)
	}
	return nil, fmt.Errorf("%w: missing data chunk", ErrInvalidWAV)
}

// ReadWAVFile opens path and decodes it with [DecodeWAV].
func ReadWAVFile(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: open %q: %w", path, err)
	}
	defer f.Close()
	return DecodeWAV(f)
}

func readFmt(r io.ReadSeeker, size uint32, c *Clip) error {
	if size < 16 {
		return fmt.Errorf("%w: fmt chunk too short (%d bytes)", ErrInvalidWAV, size)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("%w: read fmt chunk: %v", ErrInvalidWAV, err)
	}
	if size%2 != 0 {
		if _, err := r.Seek(1, io.SeekCurrent); err != nil {
			return fmt.Errorf("%w: skip fmt padding: %v", ErrInvalidWAV, err)
		}
	}

	tag := binary.LittleEndian.Uint16(buf[0:2])
	c.Channels = int(binary.LittleEndian.Uint16(buf[2:4]))
	c.SampleRate = int(binary.LittleEndian.Uint32(buf[4:8]))
	c.BitsPerSample = int(binary.LittleEndian.Uint16(buf[14:16]))

	// WAVE_FORMAT_EXTENSIBLE carries the real format tag in the first two
	// bytes of the sub-format GUID.
	if tag == formatExtensible && size >= 26 {
		tag = binary.LittleEndian.Uint16(buf[24:26])
	}
	if tag != formatPCM {
		return fmt.Errorf("%w: format tag 0x%04x", ErrUnsupportedFormat, tag)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("%w: channel count %d", ErrInvalidWAV, c.Channels)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidWAV, c.SampleRate)
	}
	switch c.BitsPerSample {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("%w: %d bits per sample", ErrUnsupportedFormat, c.BitsPerSample)
	}
	return nil
}

func readSamples(r io.Reader, size uint32, bits int) ([]int32, error) {
	width := bits / 8
	// Recorders that crash mid-write leave a data size larger than the file;
	// keep whatever whole samples were written.
	raw, err := io.ReadAll(io.LimitReader(r, int64(size)))
	if err != nil {
		return nil, fmt.Errorf("%w: read data chunk: %v", ErrInvalidWAV, err)
	}
	raw = raw[:len(raw)-len(raw)%width]

	samples := make([]int32, len(raw)/width)
	for i := range samples {
		b := raw[i*width : i*width+width]
		switch width {
		case 1:
			samples[i] = int32(b[0]) - 128
		case 2:
			samples[i] = int32(int16(binary.LittleEndian.Uint16(b)))
		case 3:
			v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
			samples[i] = v << 8 >> 8
		case 4:
			samples[i] = int32(binary.LittleEndian.Uint32(b))
		}
	}
	return samples, nil
}

// EncodeWAV writes 16-bit little-endian PCM as a canonical 44-byte-header
// RIFF/WAVE stream.
func EncodeWAV(w io.Writer, pcm []byte, sampleRate, channels int) error {
	const bps = 16
	byteRate := sampleRate * channels * bps / 8
	blockAlign := channels * bps / 8
	dataSize := len(pcm)

	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(36+dataSize))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], formatPCM)
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(hdr[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(hdr[34:36], bps)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(dataSize))

	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("audio: write wav header: %w", err)
	}
	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("audio: write wav data: %w", err)
	}
	return nil
}

// PCM16 packs int16-range samples as little-endian bytes. Values outside the
// int16 range are clamped.
func PCM16(samples []int32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := clamp16(s)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

func clamp16(v int32) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
