//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"flag"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/himanishpuri/Autochuner/pkg/autotune"
	"github.com/himanishpuri/Autochuner/pkg/autotune/audio"
	"github.com/himanishpuri/Autochuner/pkg/logger"
)

var (
	port           int
	tempDir        string
	sampleRate     int
	allowedOrigins string
	workers        int
	timeout        time.Duration
)

func init() {
	flag.IntVar(&port, "port", getEnvInt("AUTOCHUNER_PORT", 8080), "HTTP server port")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("AUTOCHUNER_TEMP_DIR", os.TempDir()), "Temporary directory")
	flag.IntVar(&sampleRate, "rate", audio.DefaultSampleRate, "Analysis sample rate")
	flag.StringVar(&allowedOrigins, "origins", getEnvOrDefault("AUTOCHUNER_ORIGINS", "http://localhost:5173"),
		"Comma-separated list of allowed CORS origins (use * for all)")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "Maximum number of files tuned at once")
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "Per-request processing timeout")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func parseOrigins(s string) []string {
	if strings.TrimSpace(s) == "*" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func main() {
	flag.Parse()

	service, err := autotune.NewService(
		autotune.WithTempDir(tempDir),
		autotune.WithTargetSampleRate(sampleRate),
		autotune.WithLogger(logger.With("[autotune]")),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	config := &ServerConfig{
		Port:           port,
		TempDir:        tempDir,
		SampleRate:     sampleRate,
		AllowedOrigins: parseOrigins(allowedOrigins),
		Workers:        workers,
		Timeout:        timeout,
	}

	server := NewServer(service, config)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
