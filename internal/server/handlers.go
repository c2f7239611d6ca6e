package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"resumecoach/internal/errors"
	"resumecoach/internal/synth"
)

const defaultHealthCheckTimeout = 5 * time.Second

// TranscribeResponse carries the transcribed text of an audio upload.
type TranscribeResponse struct {
	Text string `json:"text"`
}

// handleHealth reports engine model availability, circuit breaker state and
// the serving certificate. It answers 503 when anything is unhealthy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": s.cfg.Observability.ServiceName,
		"version": s.version,
	}
	healthy := true

	if s.deps.Health != nil {
		timeout := s.cfg.Observability.HealthCheck.Timeout
		if timeout <= 0 {
			timeout = defaultHealthCheckTimeout
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		models := s.deps.Health.ModelInfo(ctx)
		for _, info := range models {
			if info == nil || !info.Available {
				healthy = false
			}
		}
		response["ai_models"] = models
		response["circuit_breakers"] = s.deps.Health.CircuitBreakerStats()
	}

	if s.certificate != nil {
		certStatus := certificateHealth(s.certificate, time.Now())
		if ok, _ := certStatus["healthy"].(bool); !ok {
			healthy = false
		}
		response["certificates"] = certStatus
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// handleStats reports session store occupancy and rate limiting.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	response := map[string]any{
		"service": s.cfg.Observability.ServiceName,
		"version": s.version,
		"server": map[string]any{
			"max_request_size_bytes": s.maxRequestSize,
			"max_interview_turns":    s.deps.Machine.MaxInterviewTurns(),
		},
		"sessions": s.deps.Store.Stats(),
	}

	if s.rateLimiter != nil {
		response["rate_limiting"] = s.rateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	rl := s.cfg.Server.RateLimit
	response["rate_limit_config"] = map[string]any{
		"enabled":          rl.Enabled,
		"requests_per_min": rl.RequestsPerMin,
		"burst_capacity":   rl.BurstCapacity,
		"by_ip":            rl.ByIP,
		"by_api_key":       rl.ByAPIKey,
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	withSkeleton := r.URL.Query().Get("skeleton") == "true"
	writeJSON(w, http.StatusOK, map[string]any{"templates": synth.Catalog(withSkeleton)})
}

// handleTranscribe turns a recorded voice message into text so that it can
// be sent as a chat or interview message.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if s.deps.Media == nil {
		writeErrorResponse(w, "NOT_AVAILABLE", "transcription is not configured", http.StatusNotImplemented)
		return
	}

	upload, err := s.readUpload(r, "file")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(upload.Data) == 0 {
		s.writeError(w, r, errors.NewValidationError(errors.ErrCodeInvalidRequest, "audio file is empty", nil))
		return
	}

	mimeType := upload.ContentType
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(upload.Data)
	}
	if !isAudio(mimeType) {
		s.writeError(w, r, errors.NewValidationError(errors.ErrCodeUnsupportedFileType, "expected an audio file", nil).
			WithContext("content_type", mimeType))
		return
	}

	text, err := s.deps.Media.Transcribe(r.Context(), upload.Data, mimeType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TranscribeResponse{Text: strings.TrimSpace(text)})
}

// isAudio accepts audio types and the webm/ogg containers browsers record
// voice into.
func isAudio(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return strings.HasPrefix(mimeType, "audio/") ||
		strings.HasPrefix(mimeType, "video/webm") ||
		strings.HasPrefix(mimeType, "application/ogg")
}
