package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/himanishpuri/Autochuner/pkg/utils"
)

const DefaultSampleRate = 22050

type ConvertWAVConfig struct {
	SampleRate int
}

// ConvertToMonoWAV transcodes any input ffmpeg understands into a mono
// 16-bit WAV in outputDir and returns its path.
func ConvertToMonoWAV(
	ctx context.Context,
	inputPath string,
	outputDir string,
	cfg ConvertWAVConfig,
) (string, error) {

	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 60*time.Second)
		defer cancel()
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return "", err
	}

	baseName := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outputPath := filepath.Join(outputDir, baseName+".mono.wav")

	tmpPath := outputPath + ".tmp.wav"
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-y",
		"-v", "quiet",
		"-i", inputPath,
		"-ac", "1", // mono
		"-ar", fmt.Sprintf("%d", cfg.SampleRate),
		"-c:a", "pcm_s16le",
		tmpPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ffmpeg failed: %v (%s)", err, out)
	}

	if err := utils.MoveFile(tmpPath, outputPath); err != nil {
		return "", err
	}

	return outputPath, nil
}

type LoadConfig struct {
	// TargetRate is the rate of the returned samples. Zero keeps the
	// file's own rate for WAV input and uses DefaultSampleRate otherwise.
	TargetRate int
	TempDir    string
}

// Load decodes the audio file at path into mono samples. WAV files are read
// directly; anything else is probed with ffprobe and transcoded with ffmpeg.
// Input neither path can read is reported as ErrUnsupportedFormat.
func Load(ctx context.Context, path string, cfg LoadConfig) ([]float64, int, error) {
	samples, rate, err := ReadWAV(path)
	if err == nil {
		if cfg.TargetRate <= 0 || cfg.TargetRate == rate {
			return samples, rate, nil
		}
		out, err := Resample(samples, rate, cfg.TargetRate)
		if err != nil {
			return nil, 0, err
		}
		return out, cfg.TargetRate, nil
	}
	if !errors.Is(err, ErrUnsupportedFormat) {
		return nil, 0, err
	}

	if _, err := ReadMetadata(ctx, path); err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	target := cfg.TargetRate
	if target <= 0 {
		target = DefaultSampleRate
	}
	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	wavPath, err := ConvertToMonoWAV(ctx, path, tempDir, ConvertWAVConfig{SampleRate: target})
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	defer utils.RemoveFile(wavPath)

	samples, rate, err = ReadWAV(wavPath)
	if err != nil {
		return nil, 0, err
	}
	return samples, rate, nil
}
