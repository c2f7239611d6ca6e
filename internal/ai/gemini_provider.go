package ai

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"resumecoach/internal/config"
	"resumecoach/internal/errors"
)

const (
	ocrPrompt = "Extract all of the text printed in this resume image. Keep the original line breaks and section order. " +
		"Return only the extracted text, without commentary."
	transcribePrompt = "Transcribe this audio recording verbatim. Return only the transcript text, without commentary."
)

// GeminiProvider implements Provider for Google Gemini
type GeminiProvider struct {
	client            *genai.Client
	config            *config.OperationAIConfig
	operation         string
	circuitBreaker    *AICircuitBreaker
	modelBreaker      *ModelCircuitBreaker
	onUsage           UsageRecorder
	modelCheckTimeout time.Duration
	logger            *errors.Logger
}

var _ Provider = (*GeminiProvider)(nil)

// Option customizes a GeminiProvider.
type Option func(*GeminiProvider)

// WithUsageRecorder reports token usage of every successful call.
func WithUsageRecorder(fn UsageRecorder) Option {
	return func(g *GeminiProvider) { g.onUsage = fn }
}

// WithModelCheckTimeout bounds the model lookup done by health checks.
func WithModelCheckTimeout(d time.Duration) Option {
	return func(g *GeminiProvider) {
		if d > 0 {
			g.modelCheckTimeout = d
		}
	}
}

// NewGeminiProvider creates a provider for one operation. cfg must have
// its fallbacks applied (see config.Config.OperationConfig).
func NewGeminiProvider(cfg *config.OperationAIConfig, operation string, logger *errors.Logger, opts ...Option) (*GeminiProvider, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to create Gemini client", err)
	}

	g := &GeminiProvider{
		client:            client,
		config:            cfg,
		operation:         operation,
		circuitBreaker:    NewAICircuitBreaker(operation, cfg, logger),
		modelBreaker:      NewModelCircuitBreaker(operation, cfg, logger),
		modelCheckTimeout: 10 * time.Second,
		logger:            logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{Name: g.config.Model}

	checkCtx, cancel := context.WithTimeout(ctx, g.modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.ExecuteModel(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"operation", g.operation,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.Version

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"operation", g.operation,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// Complete implements Completer.
func (g *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, "complete", genai.Text(prompt),
		attribute.Int("input.prompt_length", len(prompt)))
}

// ExtractImageText implements MediaReader.
func (g *GeminiProvider) ExtractImageText(ctx context.Context, data []byte, mimeType string) (string, error) {
	return g.generate(ctx, "extract_image_text", mediaContents(data, mimeType, ocrPrompt),
		attribute.String("input.mime_type", mimeType),
		attribute.Int("input.bytes", len(data)))
}

// Transcribe implements MediaReader.
func (g *GeminiProvider) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	return g.generate(ctx, "transcribe", mediaContents(data, mimeType, transcribePrompt),
		attribute.String("input.mime_type", mimeType),
		attribute.Int("input.bytes", len(data)))
}

func mediaContents(data []byte, mimeType, instruction string) []*genai.Content {
	return []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, mimeType),
			genai.NewPartFromText(instruction),
		}, genai.RoleUser),
	}
}

// generate runs one content generation call with tracing, the circuit
// breaker, the operation timeout and retries.
func (g *GeminiProvider) generate(ctx context.Context, call string, contents []*genai.Content, spanAttributes ...attribute.KeyValue) (string, error) {
	tracer := otel.Tracer("resumecoach.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+call)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.String("ai.operation", g.operation),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if *g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *g.config.Timeout)
		defer cancel()
	}

	genConfig := &genai.GenerateContentConfig{}
	if *g.config.Temperature > 0 {
		genConfig.Temperature = g.config.Temperature
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, call, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, contents, genConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		if stderrors.Is(err, context.DeadlineExceeded) {
			return "", errors.NewAIError(errors.ErrCodeAITimeout, "The AI engine did not answer in time for "+g.operation, err).
				WithContext("timeout", g.config.Timeout.String())
		}
		return "", errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to generate content for "+g.operation, err)
	}

	if usage := extractTokenUsage(result); usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
		if g.onUsage != nil {
			g.onUsage(ctx, g.operation, *usage)
		}
	}

	text := result.Text()
	span.SetAttributes(attribute.Bool("success", true), attribute.Int("output.length", len(text)))
	return text, nil
}

// executeWithRetry executes an AI operation with retry logic and exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, call string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error
	maxRetries := *g.config.MaxRetries

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", g.operation,
				"call", call,
				"attempt", attempt,
				"max_retries", maxRetries,
				"error", lastErr.Error())
			if span := trace.SpanFromContext(ctx); span.IsRecording() {
				span.AddEvent("retry", trace.WithAttributes(
					attribute.Int("attempt", attempt),
					attribute.String("error", lastErr.Error()),
				))
			}

			select {
			case <-time.After(backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", g.operation,
					"call", call,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", g.operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", g.operation,
		"call", call,
		"total_attempts", maxRetries+1)

	return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", call, maxRetries, lastErr)
}

// backoff is exponential with up to 10% jitter, capped at 30 seconds.
func backoff(attempt int) time.Duration {
	baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
	jitter := time.Duration(0)
	if jitterMax := int64(float64(baseDelay) * 0.1); jitterMax > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(jitterMax)); err == nil {
			jitter = time.Duration(n.Int64())
		}
	}
	return min(baseDelay+jitter, 30*time.Second)
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		return retryableStatus(apiErr.Code)
	}
	var genaiErr genai.APIError
	if stderrors.As(err, &genaiErr) {
		return retryableStatus(genaiErr.Code)
	}
	return false
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetModelStats(),
		"overall_healthy":  g.circuitBreaker.IsHealthy() && g.modelBreaker.IsModelHealthy(),
	}
}

// Close implements Provider. The Gemini client holds no resources in
// single-shot mode.
func (g *GeminiProvider) Close() error {
	return nil
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
