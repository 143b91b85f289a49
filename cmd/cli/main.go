package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/himanishpuri/Autochuner/pkg/autotune"
	"github.com/himanishpuri/Autochuner/pkg/autotune/audio"
	"github.com/himanishpuri/Autochuner/pkg/autotune/pitch"
	"github.com/himanishpuri/Autochuner/pkg/logger"
	"github.com/himanishpuri/Autochuner/pkg/utils"
)

// Global flags
var (
	tempDir      string
	sampleRate   int
	smoothWindow int
	energyRatio  float64
)

func init() {
	// Global flags that can be used with any command
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("AUTOCHUNER_TEMP_DIR", os.TempDir()), "Directory for temporary audio conversion files")
	flag.IntVar(&sampleRate, "rate", audio.DefaultSampleRate, "Sample rate audio is resampled to before analysis")
	flag.IntVar(&smoothWindow, "window", pitch.DefaultSmoothWindow, "Savitzky-Golay window (frames) for the correction curve")
	flag.Float64Var(&energyRatio, "energy", pitch.DefaultEnergyRatio, "Frames quieter than this fraction of the loudest frame are unvoiced")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// createService creates a new autotune service with configured options
func createService() (autotune.Service, error) {
	return autotune.NewService(
		autotune.WithTempDir(tempDir),
		autotune.WithTargetSampleRate(sampleRate),
		autotune.WithSmoothWindow(smoothWindow),
		autotune.WithEnergyRatio(energyRatio),
	)
}

func main() {
	flag.Usage = printUsage
	flag.Parse()

	log := logger.GetLogger()

	printBanner()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	log.Debugf("Executing command: %s", command)

	switch command {
	case "tune":
		handleTune(args[1:])
	case "detect":
		handleDetect(args[1:])
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printBanner() {
	banner := `
    _         _             _
   / \  _   _| |_ ___   ___| |__  _   _ _ __   ___ _ __
  / _ \| | | | __/ _ \ / __| '_ \| | | | '_ \ / _ \ '__|
 / ___ \ |_| | || (_) | (__| | | | |_| | | | |  __/ |
/_/   \_\__,_|\__\___/ \___|_| |_|\__,_|_| |_|\___|_|

             Natural Pitch Correction CLI
`
	fmt.Println(banner)
}

// splitArgs separates the leading file path from the subcommand flags
func splitArgs(args []string) (string, []string) {
	var path string
	var flagArgs []string
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") && path == "" {
			path = arg
			continue
		}
		flagArgs = append(flagArgs, args[i:]...)
		break
	}
	return path, flagArgs
}

// defaultOutputPath names the tuned file after its source
func defaultOutputPath(in string) string {
	ext := filepath.Ext(in)
	stem := strings.TrimSuffix(filepath.Base(in), ext)
	return filepath.Join(filepath.Dir(in), stem+"_natural_tuned.wav")
}

func describeFile(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return filepath.Base(path)
	}
	return fmt.Sprintf("%s (%s)", filepath.Base(path), humanize.Bytes(uint64(info.Size())))
}

func handleTune(args []string) {
	log := logger.GetLogger()

	audioPath, flagArgs := splitArgs(args)

	tuneCmd := flag.NewFlagSet("tune", flag.ExitOnError)
	key := tuneCmd.String("key", "", "Key such as A:min or C:maj, or \"chromatic\" (default: detect)")
	auto := tuneCmd.Bool("auto", false, "Detect the key even when --key is given")
	strength := tuneCmd.Float64("strength", 0.5, "Fraction of the correction applied (0 = none, 1 = full)")
	outPath := tuneCmd.String("out", "", "Output WAV path (default: <name>_natural_tuned.wav)")
	plotPath := tuneCmd.String("plot", "", "Write a spectrogram with both pitch curves to this PNG")
	tuneCmd.Parse(flagArgs)

	if audioPath == "" {
		fmt.Println("Error: audio file path required")
		fmt.Println("Usage: autochuner tune <audio_file> [--key <key>] [--strength <0-1>] [--out <path>] [--plot <path>]")
		os.Exit(1)
	}
	if *outPath == "" {
		*outPath = defaultOutputPath(audioPath)
	}

	fmt.Println("\n🔧 Initializing service...")
	svc, err := createService()
	if err != nil {
		fmt.Printf("❌ Failed to create service: %v\n", err)
		log.Errorf("Service creation failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("🎵 Tuning %s...\n", describeFile(audioPath))
	fmt.Println("   Tracking pitch, snapping to the scale and resynthesizing")

	start := time.Now()
	res, err := svc.TuneFile(context.Background(), audioPath, autotune.Request{
		Scale:    *key,
		AutoKey:  *auto,
		Strength: *strength,
		Plot:     *plotPath != "",
	})
	if err != nil {
		fmt.Printf("\n❌ Failed to tune: %v\n", err)
		log.Errorf("Tune failed: %v", err)
		os.Exit(1)
	}

	if err := audio.WriteWAV(*outPath, res.Audio, res.SampleRate); err != nil {
		fmt.Printf("\n❌ Failed to write %s: %v\n", *outPath, err)
		os.Exit(1)
	}

	fmt.Println("\n✅ Tuned successfully!")
	if res.DetectedKey != nil {
		fmt.Printf("   Key:      %s (detected)\n", res.Key)
	} else {
		fmt.Printf("   Key:      %s\n", res.Key)
	}
	fmt.Printf("   Strength: %.2f\n", *strength)
	fmt.Printf("   Voiced:   %d of %d frames\n", res.Original.VoicedCount(), len(res.Original))
	fmt.Printf("   Output:   %s\n", describeFile(*outPath))
	fmt.Printf("   Took:     %s\n", time.Since(start).Round(time.Millisecond))

	if *plotPath != "" {
		if res.PlotPath == "" {
			fmt.Println("   ⚠️  Plot could not be rendered")
		} else if err := utils.MoveFile(res.PlotPath, *plotPath); err != nil {
			fmt.Printf("   ⚠️  Failed to save plot: %v\n", err)
		} else {
			fmt.Printf("   Plot:     %s\n", *plotPath)
		}
	}
}

func handleDetect(args []string) {
	log := logger.GetLogger()

	if len(args) < 1 {
		fmt.Println("Usage: autochuner detect <audio_file>")
		os.Exit(1)
	}
	audioPath := args[0]

	fmt.Println("\n🔧 Initializing service...")
	svc, err := createService()
	if err != nil {
		fmt.Printf("❌ Failed to create service: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("🔍 Analyzing %s...\n", describeFile(audioPath))

	ctx := context.Background()
	samples, rate, err := audio.Load(ctx, audioPath, audio.LoadConfig{TargetRate: sampleRate, TempDir: tempDir})
	if err != nil {
		fmt.Printf("\n❌ Failed to load audio: %v\n", err)
		log.Errorf("Load failed: %v", err)
		os.Exit(1)
	}

	report, err := svc.DetectKey(ctx, samples, rate)
	if err != nil {
		fmt.Printf("\n❌ Failed to detect key: %v\n", err)
		os.Exit(1)
	}

	if report.VoicedFrames == 0 {
		fmt.Println("\n📭 No voiced frames found; defaulting to C:maj")
		return
	}

	fmt.Printf("\n✅ Detected key: %s\n", report.Key)
	fmt.Printf("   From %d voiced frames\n", report.VoicedFrames)
	fmt.Println("\n🎼 Scale error per major key (lower fits better):")
	fmt.Println()

	tonics := make([]int, 12)
	for i := range tonics {
		tonics[i] = i
	}
	sort.SliceStable(tonics, func(a, b int) bool {
		return report.Errors[tonics[a]] < report.Errors[tonics[b]]
	})
	for _, t := range tonics {
		k := pitch.Key{Tonic: t, Mode: pitch.Major}
		perFrame := report.Errors[t] / float64(report.VoicedFrames)
		fmt.Printf("   %-6s %8.2f  (%.3f per frame)\n", k, report.Errors[t], perFrame)
	}
}

func printUsage() {
	fmt.Println("Autochuner - Natural Pitch Correction CLI")
	fmt.Println("\nGlobal Options:")
	fmt.Println("  --temp <dir>       Temporary directory for audio conversion (env: AUTOCHUNER_TEMP_DIR)")
	fmt.Println("  --rate <hz>        Analysis sample rate (default: 22050)")
	fmt.Println("  --window <frames>  Smoothing window for the correction curve (default: 11)")
	fmt.Println("  --energy <ratio>   Silence threshold relative to the loudest frame (default: 0.02)")
	fmt.Println("\nUsage:")
	fmt.Println("  autochuner [global-options] tune <audio_file> [--key <key>] [--auto] [--strength <a>] [--out <path>] [--plot <path>]")
	fmt.Println("  autochuner [global-options] detect <audio_file>")
	fmt.Println("\nExamples:")
	fmt.Println("  # Snap a vocal to A minor at full strength")
	fmt.Println("  autochuner tune vocals.wav --key A:min --strength 1")
	fmt.Println()
	fmt.Println("  # Detect the key and apply a gentle correction with a diagnostic plot")
	fmt.Println("  autochuner tune take.mp3 --plot take.png")
	fmt.Println()
	fmt.Println("  # Only report the key")
	fmt.Println("  autochuner detect vocals.wav")
	fmt.Println("\nEnvironment:")
	fmt.Println("  LOG_LEVEL          DEBUG, INFO, WARN, ERROR or FATAL (default: INFO)")
}
