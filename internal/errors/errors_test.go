package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError},
		{"validation", NewValidationError(ErrCodeInvalidRequest, "bad", nil), http.StatusBadRequest},
		{"insufficient text", NewValidationError(ErrCodeInsufficientText, "short", nil), http.StatusBadRequest},
		{"unsupported type", NewValidationError(ErrCodeUnsupportedFileType, "exe", nil), http.StatusUnsupportedMediaType},
		{"too large", NewValidationError(ErrCodeFileTooLarge, "big", nil), http.StatusRequestEntityTooLarge},
		{"transition", NewStateError(ErrCodeInvalidTransition, "nope", nil), http.StatusConflict},
		{"busy", NewStateError(ErrCodeSessionBusy, "busy", nil), http.StatusConflict},
		{"not found", NewStateError(ErrCodeSessionNotFound, "gone", nil), http.StatusNotFound},
		{"session limit", NewStateError(ErrCodeSessionLimit, "full", nil), http.StatusServiceUnavailable},
		{"ai failure", NewAIError(ErrCodeAIServiceFailed, "down", nil), http.StatusBadGateway},
		{"ai timeout", NewAIError(ErrCodeAITimeout, "slow", nil), http.StatusGatewayTimeout},
		{"render", NewInternalError(ErrCodeRenderFailed, "pdf", nil), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("outer: %w", NewStateError(ErrCodeSessionNotFound, "gone", nil)), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestAppErrorUnwrapAndContext(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NewIOError(ErrCodeFileNotReadable, "cannot read", cause).WithContext("file", "cv.pdf")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "cv.pdf", err.Context["file"])
	assert.Contains(t, err.Error(), "FILE_NOT_READABLE")
	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, HasCode(fmt.Errorf("wrap: %w", err), ErrCodeFileNotReadable))
	assert.False(t, HasCode(cause, ErrCodeFileNotReadable))
}

func TestLogErrorExpandsAppError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.LevelDebug, &buf)

	logger.LogError(NewAIError(ErrCodeAIServiceFailed, "engine down", nil).WithContext("operation", "chat"), "request failed", "session_id", "abc")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "request failed", record["msg"])
	assert.Equal(t, "ai", record["error_type"])
	assert.Equal(t, ErrCodeAIServiceFailed, record["error_code"])
	assert.Equal(t, "chat", record["operation"])
	assert.Equal(t, "abc", record["session_id"])
}

func TestNewWithOptions(t *testing.T) {
	var buf bytes.Buffer
	logFile := filepath.Join(t.TempDir(), "coach.log")

	logger, err := NewWithOptions(Options{
		Level:  "warn",
		Writer: &buf,
		File:   &RotationConfig{Filename: logFile, MaxSizeMB: 1},
	})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.FileExists(t, logFile)

	_, err = New("verbose")
	assert.Error(t, err)
}
