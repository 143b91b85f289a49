package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/himanishpuri/Autochuner/pkg/autotune"
	"github.com/himanishpuri/Autochuner/pkg/autotune/audio"
	"github.com/himanishpuri/Autochuner/pkg/logger"
	"github.com/himanishpuri/Autochuner/pkg/utils"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service autotune.Service
	config  *ServerConfig
	log     *logger.Logger

	// sem bounds the number of pipelines running at once
	sem chan struct{}
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	TempDir        string
	SampleRate     int
	AllowedOrigins []string
	Workers        int
	Timeout        time.Duration
}

// NewServer creates a new server instance
func NewServer(service autotune.Service, config *ServerConfig) *Server {
	workers := config.Workers
	if workers <= 0 {
		workers = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Minute
	}

	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger(),
		sem:     make(chan struct{}, workers),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": "Autochuner API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health": "GET /health",
			"tune":   "POST /tune",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Time:    time.Now().Format(time.RFC3339),
		Workers: cap(s.sem),
		Busy:    len(s.sem),
	})
}

// handleTune handles POST /tune (multipart file upload)
func (s *Server) handleTune(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	log := requestLogger(r.Context())
	requestID := requestIDFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		log.Warnf("Failed to parse form: %v", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Upload exceeds %s", humanize.IBytes(MaxUploadSize)))
			return
		}
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	req, err := parseTuneForm(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := r.FormFile("audio_file")
	if err != nil {
		log.Warnf("Failed to get audio file: %v", err)
		s.respondError(w, http.StatusBadRequest, "audio_file is required")
		return
	}
	defer file.Close()

	log.Infof("Received %s (%s), key=%q auto=%t correction=%.2f",
		header.Filename, humanize.Bytes(uint64(header.Size)), req.Key, req.AutoKey, req.Correction)

	tempFile, err := s.saveUpload(file, header.Filename)
	if err != nil {
		log.Errorf("Failed to save upload: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}
	defer utils.RemoveFile(tempFile)

	ctx, cancel := context.WithTimeout(r.Context(), s.config.Timeout)
	defer cancel()

	// queue behind running pipelines
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		log.Warnf("Gave up waiting for a worker: %v", ctx.Err())
		s.respondError(w, http.StatusServiceUnavailable, "Server is busy, try again later")
		return
	}

	start := time.Now()
	res, err := s.service.TuneFile(ctx, tempFile, req.ToServiceRequest())
	if err != nil {
		s.respondTuneError(w, log, err)
		return
	}

	resp, err := s.buildTuneResponse(res, requestID)
	if err != nil {
		log.Errorf("Failed to build response: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to encode tuned audio")
		return
	}

	log.Infof("Tuned %s to %s in %s (%s of audio)", header.Filename, resp.Key,
		time.Since(start).Round(time.Millisecond), humanize.Bytes(uint64(len(resp.AudioBase64))))
	s.respondJSON(w, http.StatusOK, resp)
}

// parseTuneForm reads the optional form fields
func parseTuneForm(r *http.Request) (TuneRequest, error) {
	req := TuneRequest{
		Key:        strings.TrimSpace(r.FormValue("key")),
		AutoKey:    r.FormValue("auto_key") == "1",
		Correction: DefaultCorrection,
		Plot:       r.FormValue("plot") == "1",
	}

	if strings.EqualFold(req.Key, autotune.AutoScale) {
		req.Key = ""
		req.AutoKey = true
	}

	if v := strings.TrimSpace(r.FormValue("correction")); v != "" {
		c, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, fmt.Errorf("invalid correction value: %q", v)
		}
		req.Correction = c
	}
	return req, nil
}

// saveUpload copies the uploaded file into the temp directory, keeping the
// original extension so the decoder can pick a format.
func (s *Server) saveUpload(src io.Reader, filename string) (string, error) {
	out, err := utils.CreateTemp(s.config.TempDir, "upload-*"+strings.ToLower(filepath.Ext(filename)))
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		utils.RemoveFile(out.Name())
		return "", err
	}
	return out.Name(), nil
}

// respondTuneError maps pipeline errors onto status codes
func (s *Server) respondTuneError(w http.ResponseWriter, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, autotune.ErrUnsupportedFormat):
		log.Warnf("Unsupported upload: %v", err)
		s.respondError(w, http.StatusBadRequest, unsupportedFormatMessage)
	case autotune.IsInputError(err):
		log.Warnf("Rejected request: %v", err)
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		log.Errorf("Tuning timed out: %v", err)
		s.respondError(w, http.StatusGatewayTimeout, "Processing took too long")
	default:
		log.Errorf("Tuning failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to process audio")
	}
}

func (s *Server) buildTuneResponse(res *autotune.Result, requestID string) (*TuneResponse, error) {
	wavBytes, err := audio.EncodeWAVBytes(res.Audio, res.SampleRate, s.config.TempDir)
	if err != nil {
		return nil, err
	}

	resp := &TuneResponse{
		AudioBase64:   base64.StdEncoding.EncodeToString(wavBytes),
		SampleRate:    res.SampleRate,
		Time:          res.Times,
		PitchOriginal: contourToMIDI(res.DisplayOriginal),
		PitchTuned:    contourToMIDI(res.DisplayCorrected),
		Key:           res.Key,
		RequestID:     requestID,
	}
	if res.DetectedKey != nil {
		resp.DetectedKey = res.DetectedKey.String()
	}

	if res.PlotPath != "" {
		defer utils.RemoveFile(res.PlotPath)
		png, err := os.ReadFile(res.PlotPath)
		if err != nil {
			s.log.Warnf("Failed to read plot %s: %v", res.PlotPath, err)
		} else {
			resp.PlotBase64 = base64.StdEncoding.EncodeToString(png)
		}
	}
	return resp, nil
}
