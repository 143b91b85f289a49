package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/himanishpuri/Autochuner/pkg/utils"
)

// ErrUnsupportedFormat is returned when input audio cannot be decoded.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Decode reads a PCM WAV stream, mixes it down to mono and scales samples
// to [-1, 1].
func Decode(r io.ReadSeeker) ([]float64, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: not a PCM wav stream", ErrUnsupportedFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 || buf.Format.SampleRate <= 0 {
		return nil, 0, fmt.Errorf("%w: invalid wav buffer", ErrUnsupportedFormat)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(dec.BitDepth)
	}
	return toMono(buf, bitDepth), buf.Format.SampleRate, nil
}

// ReadWAV decodes the WAV file at path.
func ReadWAV(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Decode(f)
}

func toMono(buf *audio.IntBuffer, bitDepth int) []float64 {
	scale := 32768.0
	if bitDepth > 0 && bitDepth <= 32 {
		scale = float64(int64(1) << uint(bitDepth-1))
	}
	// 8-bit wav is unsigned
	offset := 0.0
	if bitDepth == 8 {
		offset = 128
	}

	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += float64(buf.Data[i*ch+c]) - offset
		}
		out[i] = sum / float64(ch) / scale
	}
	return out
}

// EncodeWAV writes samples as 16-bit mono PCM. Values outside [-1, 1] are
// clipped.
func EncodeWAV(w io.WriteSeeker, samples []float64, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	data := make([]int, len(samples))
	for i, v := range samples {
		if math.IsNaN(v) {
			v = 0
		}
		v = math.Max(-1, math.Min(1, v))
		data[i] = int(math.Round(v * 32767))
	}

	enc := wav.NewEncoder(w, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalise wav: %w", err)
	}
	return nil
}

// WriteWAV encodes samples into a new file at path.
func WriteWAV(path string, samples []float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := EncodeWAV(f, samples, sampleRate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// EncodeWAVBytes returns the 16-bit WAV encoding of samples. The encoder
// needs to seek back to patch the header, so the data goes through a
// temporary file in tempDir.
func EncodeWAVBytes(samples []float64, sampleRate int, tempDir string) ([]byte, error) {
	f, err := utils.CreateTemp(tempDir, "autochuner-*.wav")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	defer utils.RemoveFile(path)

	if err := EncodeWAV(f, samples, sampleRate); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}
