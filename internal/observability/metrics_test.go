package observability

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"resumecoach/internal/config"
)

func allSwitches() config.CustomMetricsConfig {
	return config.CustomMetricsConfig{
		AIOperations:    config.AIOperationsMetricsConfig{Enabled: true, TrackDuration: true, TrackTokenUsage: true},
		BusinessMetrics: config.BusinessMetricsConfig{Enabled: true},
		TrackRateLimits: true,
	}
}

func newTestMetrics(t *testing.T, switches config.CustomMetricsConfig) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewMetrics(provider.Meter("test"), switches)
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func counterTotal(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestTrackOperation(t *testing.T) {
	m, reader := newTestMetrics(t, allSwitches())
	ctx := context.Background()

	require.NoError(t, m.TrackOperation(ctx, "send_chat_message", true, func(context.Context) error { return nil }))
	err := m.TrackOperation(ctx, "send_chat_message", true, func(context.Context) error { return fmt.Errorf("engine down") })
	assert.EqualError(t, err, "engine down")
	require.NoError(t, m.TrackOperation(ctx, "reset", false, func(context.Context) error { return nil }))

	data := collect(t, reader)
	assert.Equal(t, int64(2), counterTotal(t, data["resumecoach_ai_requests_total"]))
	assert.Equal(t, int64(1), counterTotal(t, data["resumecoach_ai_errors_total"]))

	hist, ok := data["resumecoach_workflow_transition_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(3), count)
}

func TestRecordBusinessMetric(t *testing.T) {
	m, reader := newTestMetrics(t, allSwitches())
	ctx := context.Background()

	m.RecordBusinessMetric(ctx, MetricResumeAnalyzed, true, attribute.String("mode", "targeted"))
	m.RecordBusinessMetric(ctx, MetricChatTurn, true)
	m.RecordBusinessMetric(ctx, MetricChatTurn, true)
	m.RecordBusinessMetric(ctx, MetricRateLimitHit, false)
	m.RecordBusinessMetric(ctx, "unknown", true)

	data := collect(t, reader)
	assert.Equal(t, int64(1), counterTotal(t, data["resumecoach_resumes_analyzed_total"]))
	assert.Equal(t, int64(2), counterTotal(t, data["resumecoach_chat_turns_total"]))
	assert.Equal(t, int64(1), counterTotal(t, data["resumecoach_rate_limit_hits_total"]))
}

func TestSwitchesDisableRecording(t *testing.T) {
	m, reader := newTestMetrics(t, config.CustomMetricsConfig{})
	ctx := context.Background()

	m.RecordBusinessMetric(ctx, MetricDocumentRendered, true)
	m.RecordTokenUsage(ctx, "chat", TokenUsage{InputTokens: 1, OutputTokens: 2, TotalTokens: 3})
	require.NoError(t, m.TrackOperation(ctx, "generate_document", true, func(context.Context) error { return nil }))

	data := collect(t, reader)
	assert.NotContains(t, data, "resumecoach_documents_rendered_total")
	assert.NotContains(t, data, "resumecoach_ai_token_usage")
	assert.NotContains(t, data, "resumecoach_ai_requests_total")
}

func TestRecordTokenUsage(t *testing.T) {
	m, reader := newTestMetrics(t, allSwitches())
	m.RecordTokenUsage(context.Background(), "analyze", TokenUsage{InputTokens: 100, OutputTokens: 20, TotalTokens: 120})

	hist, ok := collect(t, reader)["resumecoach_ai_token_usage"].(metricdata.Histogram[int64])
	require.True(t, ok)
	assert.Len(t, hist.DataPoints, 3)
	var sum int64
	for _, dp := range hist.DataPoints {
		sum += dp.Sum
	}
	assert.Equal(t, int64(240), sum)
}

func TestZeroMetricsAreSafe(t *testing.T) {
	var nilMetrics *Metrics
	ctx := context.Background()

	for _, m := range []*Metrics{nilMetrics, {}} {
		called := false
		require.NoError(t, m.TrackOperation(ctx, "op", true, func(context.Context) error {
			called = true
			return nil
		}))
		assert.True(t, called)
		m.RecordBusinessMetric(ctx, MetricChatTurn, true)
		m.RecordTokenUsage(ctx, "op", TokenUsage{})
	}
}

func TestDisabledManager(t *testing.T) {
	om, err := NewObservabilityManager(GetObservabilityConfig(nil, "test"))
	require.NoError(t, err)

	assert.NotNil(t, om.GetMetrics())
	assert.Nil(t, om.PrometheusHandler())
	assert.NoError(t, om.Shutdown(context.Background()))
}

func TestGetObservabilityConfig(t *testing.T) {
	cfg := &config.Config{Observability: config.ObservabilityConfig{
		Enabled:     true,
		ServiceName: "resumecoach",
		SampleRate:  0.5,
		Tracing:     config.TracingConfig{Enabled: true},
		Prometheus:  config.PrometheusConfig{Enabled: true, Endpoint: "/metrics", Port: "9191"},
	}}

	obs := GetObservabilityConfig(cfg, "1.2.3")
	assert.Equal(t, "1.2.3", obs.ServiceVersion)
	assert.Equal(t, 0.5, obs.SampleRate)
	assert.True(t, obs.TracingEnabled)
	assert.Equal(t, "9191", obs.Prometheus.Port)
}
