package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"resumecoach/internal/config"
)

// Business metric names accepted by RecordBusinessMetric.
const (
	MetricResumeAnalyzed   = "resume_analyzed"
	MetricChatTurn         = "chat_turn"
	MetricWeaknessResolved = "weakness_resolved"
	MetricInterviewTurn    = "interview_turn"
	MetricDocumentRendered = "document_rendered"
	MetricRateLimitHit     = "rate_limit_hit"
)

// Metrics holds all custom instruments. The zero value records nothing, so
// a *Metrics is always safe to use.
type Metrics struct {
	// AI operation metrics
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	// Workflow metrics
	TransitionDuration metric.Float64Histogram
	ResumesAnalyzed    metric.Int64Counter
	ChatTurns          metric.Int64Counter
	WeaknessesResolved metric.Int64Counter
	InterviewTurns     metric.Int64Counter
	DocumentsRendered  metric.Int64Counter

	// Certificate metrics
	CertExpiryTime metric.Float64Gauge

	// Rate limiting metrics
	RateLimitHits metric.Int64Counter

	switches config.CustomMetricsConfig
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter, switches config.CustomMetricsConfig) (*Metrics, error) {
	m := &Metrics{switches: switches}

	if err := m.createAIMetrics(meter); err != nil {
		return nil, err
	}
	if err := m.createWorkflowMetrics(meter); err != nil {
		return nil, err
	}

	var err error
	m.CertExpiryTime, err = meter.Float64Gauge(
		"resumecoach_cert_expiry_seconds",
		metric.WithDescription("Seconds until the server certificate expires"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate expiry time metric: %w", err)
	}

	m.RateLimitHits, err = meter.Int64Counter(
		"resumecoach_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}
	return m, nil
}

// createAIMetrics creates AI-related metrics
func (m *Metrics) createAIMetrics(meter metric.Meter) error {
	var err error

	m.AIProcessingTime, err = meter.Float64Histogram(
		"resumecoach_ai_processing_duration_seconds",
		metric.WithDescription("Time spent in workflow steps that call the reasoning engine"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	m.AIRequestCount, err = meter.Int64Counter(
		"resumecoach_ai_requests_total",
		metric.WithDescription("Total number of AI requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI request count metric: %w", err)
	}

	m.AIErrorCount, err = meter.Int64Counter(
		"resumecoach_ai_errors_total",
		metric.WithDescription("Total number of AI request errors"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI error count metric: %w", err)
	}

	m.AITokenUsage, err = meter.Int64Histogram(
		"resumecoach_ai_token_usage",
		metric.WithDescription("Token usage for AI requests (input, output, total)"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI token usage metric: %w", err)
	}
	return nil
}

func (m *Metrics) createWorkflowMetrics(meter metric.Meter) error {
	var err error

	m.TransitionDuration, err = meter.Float64Histogram(
		"resumecoach_workflow_transition_duration_seconds",
		metric.WithDescription("Time spent in each workflow operation"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create transition duration metric: %w", err)
	}

	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&m.ResumesAnalyzed, "resumecoach_resumes_analyzed_total", "Total number of resume analyses"},
		{&m.ChatTurns, "resumecoach_chat_turns_total", "Total number of improvement chat turns"},
		{&m.WeaknessesResolved, "resumecoach_weaknesses_resolved_total", "Total number of weaknesses marked resolved"},
		{&m.InterviewTurns, "resumecoach_interview_turns_total", "Total number of interview turns"},
		{&m.DocumentsRendered, "resumecoach_documents_rendered_total", "Total number of rendered resume documents"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.description))
		if err != nil {
			return fmt.Errorf("failed to create %s metric: %w", c.name, err)
		}
		*c.target = counter
	}
	return nil
}

// TrackOperation runs fn inside a span and records its duration and outcome.
// Operations that reach the engine are also counted as AI requests.
func (m *Metrics) TrackOperation(ctx context.Context, operation string, usesEngine bool, fn func(context.Context) error) error {
	tracer := otel.Tracer("resumecoach.workflow")
	ctx, span := tracer.Start(ctx, "workflow."+operation)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start).Seconds()

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}
	span.SetAttributes(attrs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if m == nil || m.TransitionDuration == nil {
		return err
	}
	m.TransitionDuration.Record(ctx, duration, metric.WithAttributes(attrs...))

	if usesEngine && m.switches.AIOperations.Enabled {
		if m.switches.AIOperations.TrackDuration {
			m.AIProcessingTime.Record(ctx, duration, metric.WithAttributes(attrs...))
		}
		m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
		if err != nil {
			m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
		}
	}
	return err
}

// RecordTokenUsage records the tokens spent by one engine call.
func (m *Metrics) RecordTokenUsage(ctx context.Context, operation string, usage TokenUsage) {
	if m == nil || m.AITokenUsage == nil {
		return
	}
	if !m.switches.AIOperations.Enabled || !m.switches.AIOperations.TrackTokenUsage {
		return
	}

	tokenTypes := []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	}
	for _, tt := range tokenTypes {
		m.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("token_type", tt.tokenType),
		))
	}
}

// RecordBusinessMetric records one workflow event.
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricType string, success bool, attributes ...attribute.KeyValue) {
	if m == nil {
		return
	}
	if metricType == MetricRateLimitHit {
		if m.switches.TrackRateLimits && m.RateLimitHits != nil {
			m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attributes...))
		}
		return
	}
	if !m.switches.BusinessMetrics.Enabled {
		return
	}

	attrs := append([]attribute.KeyValue{attribute.Bool("success", success)}, attributes...)

	var counter metric.Int64Counter
	switch metricType {
	case MetricResumeAnalyzed:
		counter = m.ResumesAnalyzed
	case MetricChatTurn:
		counter = m.ChatTurns
	case MetricWeaknessResolved:
		counter = m.WeaknessesResolved
	case MetricInterviewTurn:
		counter = m.InterviewTurns
	case MetricDocumentRendered:
		counter = m.DocumentsRendered
	}
	if counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordCertExpiry records how long the serving certificate stays valid.
func (m *Metrics) RecordCertExpiry(ctx context.Context, notAfter time.Time, subject string) {
	if m == nil || m.CertExpiryTime == nil {
		return
	}
	m.CertExpiryTime.Record(ctx, time.Until(notAfter).Seconds(), metric.WithAttributes(
		attribute.String("subject", subject),
	))
}
