package audio

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/signal"
	timestats "github.com/cwbudde/algo-dsp/stats/time"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func testTone(t *testing.T, freq float64, rate, n int) []float64 {
	t.Helper()
	s, err := signal.NewGenerator(core.WithSampleRate(float64(rate))).Sine(freq, 0.5, n)
	if err != nil {
		t.Fatalf("Failed to generate tone: %v", err)
	}
	return s
}

func TestWAVRoundTrip(t *testing.T) {
	in := testTone(t, 220, 22050, 22050)
	path := filepath.Join(t.TempDir(), "tone.wav")

	if err := WriteWAV(path, in, 22050); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}

	out, rate, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}
	if rate != 22050 {
		t.Errorf("Expected 22050 Hz, got %d", rate)
	}
	if len(out) != len(in) {
		t.Fatalf("Expected %d samples, got %d", len(in), len(out))
	}
	for i := range in {
		if math.Abs(out[i]-in[i]) > 1.0/16384 {
			t.Fatalf("Sample %d: expected %f, got %f", i, in[i], out[i])
		}
	}
}

func TestEncodeClipsOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := WriteWAV(path, []float64{2, -3, math.NaN(), 0.5}, 8000); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}
	out, _, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}
	want := []float64{32767.0 / 32768, -32767.0 / 32768, 0, 16384.0 / 32768}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-4 {
			t.Errorf("Sample %d: expected %f, got %f", i, want[i], out[i])
		}
	}
}

func TestDecodeStereoDownmix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	enc := wav.NewEncoder(f, 16000, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 16000},
		Data:           []int{16384, 0, -16384, -16384, 8192, 24576},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	f.Close()

	out, rate, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}
	if rate != 16000 {
		t.Errorf("Expected 16000 Hz, got %d", rate)
	}
	want := []float64{0.25, -0.5, 0.5}
	if len(out) != len(want) {
		t.Fatalf("Expected %d frames, got %d", len(want), len(out))
	}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-9 {
			t.Errorf("Frame %d: expected %f, got %f", i, want[i], out[i])
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, _, err := Decode(bytes.NewReader([]byte("definitely not a riff file")))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestEncodeWAVBytes(t *testing.T) {
	data, err := EncodeWAVBytes(testTone(t, 440, 8000, 800), 8000, t.TempDir())
	if err != nil {
		t.Fatalf("EncodeWAVBytes failed: %v", err)
	}
	if len(data) < 44 || string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("Expected a RIFF/WAVE header, got %q", data[:12])
	}
	// 16-bit mono data plus a 44 byte header
	if len(data) < 44+2*800 {
		t.Errorf("Expected at least %d bytes, got %d", 44+2*800, len(data))
	}

	out, rate, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if rate != 8000 || len(out) != 800 {
		t.Errorf("Expected 800 samples at 8000 Hz, got %d at %d", len(out), rate)
	}
}

func zeroCrossings(x []float64) int {
	n := 0
	for i := 1; i < len(x); i++ {
		if (x[i-1] < 0) != (x[i] < 0) {
			n++
		}
	}
	return n
}

func TestResample(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
	}{
		{"down 44100 to 22050", 44100, 22050},
		{"up 16000 to 22050", 16000, 22050},
		{"down 48000 to 22050", 48000, 22050},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testTone(t, 220, tt.from, tt.from)
			out, err := Resample(in, tt.from, tt.to)
			if err != nil {
				t.Fatalf("Resample failed: %v", err)
			}
			if len(out) != tt.to {
				t.Fatalf("Expected %d samples, got %d", tt.to, len(out))
			}

			// one second of 220 Hz crosses zero about 440 times
			if zc := zeroCrossings(out[100 : len(out)-100]); zc < 420 || zc > 440 {
				t.Errorf("Expected about 430 zero crossings, got %d", zc)
			}
			rms := timestats.RMS(out[200 : len(out)-200])
			if math.Abs(rms-0.5/math.Sqrt2) > 0.02 {
				t.Errorf("Expected RMS near %.3f, got %.3f", 0.5/math.Sqrt2, rms)
			}
		})
	}
}

func TestResampleIdentity(t *testing.T) {
	in := []float64{0.1, 0.2, 0.3}
	out, err := Resample(in, 22050, 22050)
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	out[0] = 9
	if in[0] != 0.1 {
		t.Error("Resample must not alias its input")
	}
	if _, err := Resample(in, 0, 22050); err == nil {
		t.Error("Expected an error for a zero rate")
	}
}

func TestLoadWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.wav")
	if err := WriteWAV(path, testTone(t, 220, 44100, 44100), 44100); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}

	samples, rate, err := Load(context.Background(), path, LoadConfig{TargetRate: 22050})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rate != 22050 || len(samples) != 22050 {
		t.Errorf("Expected 22050 samples at 22050 Hz, got %d at %d", len(samples), rate)
	}

	samples, rate, err = Load(context.Background(), path, LoadConfig{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rate != 44100 || len(samples) != 44100 {
		t.Errorf("Expected the native rate to be kept, got %d samples at %d", len(samples), rate)
	}
}

func TestLoadUnsupported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("la la la"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	_, _, err := Load(context.Background(), path, LoadConfig{TargetRate: 22050, TempDir: dir})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.wav"), LoadConfig{})
	if err == nil || errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected a plain open error, got %v", err)
	}
}

func TestParseProbe(t *testing.T) {
	out := []byte(`{
		"streams": [
			{"codec_type": "video", "codec_name": "mjpeg"},
			{"codec_type": "audio", "codec_name": "mp3", "sample_rate": "44100", "channels": 2, "duration": "3.5"}
		],
		"format": {"format_name": "mp3", "duration": "", "tags": {"title": "Take 1", "artist": "Someone"}}
	}`)

	meta, err := parseProbe(out)
	if err != nil {
		t.Fatalf("parseProbe failed: %v", err)
	}
	if meta.Codec != "mp3" || meta.SampleRate != 44100 || meta.Channels != 2 {
		t.Errorf("Unexpected stream fields: %+v", meta)
	}
	if meta.DurationSec != 3.5 {
		t.Errorf("Expected the stream duration fallback of 3.5s, got %f", meta.DurationSec)
	}
	if meta.Title != "Take 1" || meta.Artist != "Someone" {
		t.Errorf("Unexpected tags: %+v", meta)
	}

	if _, err := parseProbe([]byte(`{"streams": [{"codec_type": "video"}]}`)); !errors.Is(err, errNoAudioStream) {
		t.Errorf("Expected errNoAudioStream, got %v", err)
	}
	if _, err := parseProbe([]byte(`not json`)); err == nil {
		t.Error("Expected a parse error")
	}
}
