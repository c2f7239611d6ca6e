package ai

import (
	"context"
)

// Completer sends one self-contained prompt to the reasoning engine and
// returns its text reply. The engine keeps no state between calls.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// MediaReader turns images and audio into text through the engine's
// multimodal input.
type MediaReader interface {
	ExtractImageText(ctx context.Context, data []byte, mimeType string) (string, error)
	Transcribe(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Provider is a configured engine backend for one operation.
type Provider interface {
	Completer
	MediaReader
	GetModelInfo(ctx context.Context) *ModelInfo
	GetCircuitBreakerStats() map[string]any
	Close() error
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// UsageRecorder receives the token usage of every successful engine call.
type UsageRecorder func(ctx context.Context, operation string, usage TokenUsage)
