package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records flowlens metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordAnalysisPass records a completed workspace pass.
	RecordAnalysisPass(ctx context.Context, flows int, ai bool, duration time.Duration)

	// RecordFlowAnalysis records the rule-engine run over one flow.
	RecordFlowAnalysis(ctx context.Context, flowID string, duration time.Duration, issues int)

	// RecordDetectorFailure records a recovered rule failure.
	RecordDetectorFailure(ctx context.Context, detector string)

	// RecordBackendRequest records one remote backend attempt.
	RecordBackendRequest(ctx context.Context, modelID string, duration time.Duration, tokens int, err error)

	// RecordFallback records a degradation to the local analyzer.
	RecordFallback(ctx context.Context, modelID, reason string)

	// RecordCacheLookup records an analysis cache lookup.
	RecordCacheLookup(ctx context.Context, hit bool)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	passes           metric.Int64Counter
	passLatency      metric.Float64Histogram
	flowAnalyses     metric.Int64Counter
	flowIssues       metric.Int64Histogram
	detectorFailures metric.Int64Counter
	backendRequests  metric.Int64Counter
	backendLatency   metric.Float64Histogram
	backendTokens    metric.Int64Counter
	fallbacks        metric.Int64Counter
	cacheLookups     metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics(otel.Meter("flowlens"))
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates the instruments on the given meter.
func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	m := &otelMetrics{}
	var err error

	if m.passes, err = meter.Int64Counter("flowlens.analysis.passes",
		metric.WithDescription("Number of workspace analysis passes"),
	); err != nil {
		return nil, err
	}
	if m.passLatency, err = meter.Float64Histogram("flowlens.analysis.latency_ms",
		metric.WithDescription("Workspace analysis latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.flowAnalyses, err = meter.Int64Counter("flowlens.flow.analyses",
		metric.WithDescription("Number of single-flow analyses"),
	); err != nil {
		return nil, err
	}
	if m.flowIssues, err = meter.Int64Histogram("flowlens.flow.issues",
		metric.WithDescription("Findings reported per flow"),
	); err != nil {
		return nil, err
	}
	if m.detectorFailures, err = meter.Int64Counter("flowlens.detector.failures",
		metric.WithDescription("Number of recovered detector failures"),
	); err != nil {
		return nil, err
	}
	if m.backendRequests, err = meter.Int64Counter("flowlens.backend.requests",
		metric.WithDescription("Number of remote backend requests"),
	); err != nil {
		return nil, err
	}
	if m.backendLatency, err = meter.Float64Histogram("flowlens.backend.latency_ms",
		metric.WithDescription("Remote backend latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.backendTokens, err = meter.Int64Counter("flowlens.backend.tokens",
		metric.WithDescription("Tokens reported by remote backends"),
	); err != nil {
		return nil, err
	}
	if m.fallbacks, err = meter.Int64Counter("flowlens.backend.fallbacks",
		metric.WithDescription("Number of fallbacks to the local analyzer"),
	); err != nil {
		return nil, err
	}
	if m.cacheLookups, err = meter.Int64Counter("flowlens.cache.lookups",
		metric.WithDescription("Number of analysis cache lookups"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// NewMetricsRecorderWithMeter returns a recorder bound to a specific meter.
// Useful in tests with a manual reader.
func NewMetricsRecorderWithMeter(meter metric.Meter) (MetricsRecorder, error) {
	return newOtelMetrics(meter)
}

// RecordAnalysisPass records a workspace pass.
func (m *otelMetrics) RecordAnalysisPass(ctx context.Context, flows int, ai bool, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("ai", ai))
	m.passes.Add(ctx, 1, attrs)
	m.passLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordFlowAnalysis records a single-flow analysis.
func (m *otelMetrics) RecordFlowAnalysis(ctx context.Context, flowID string, _ time.Duration, issues int) {
	m.flowAnalyses.Add(ctx, 1)
	m.flowIssues.Record(ctx, int64(issues))
}

// RecordDetectorFailure records a recovered rule failure.
func (m *otelMetrics) RecordDetectorFailure(ctx context.Context, detector string) {
	m.detectorFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("detector", detector)))
}

// RecordBackendRequest records one remote attempt.
func (m *otelMetrics) RecordBackendRequest(ctx context.Context, modelID string, duration time.Duration, tokens int, err error) {
	attrs := metric.WithAttributes(
		attribute.String("model_id", modelID),
		attribute.Bool("success", err == nil),
	)
	m.backendRequests.Add(ctx, 1, attrs)
	m.backendLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
	if tokens > 0 {
		m.backendTokens.Add(ctx, int64(tokens), metric.WithAttributes(attribute.String("model_id", modelID)))
	}
}

// RecordFallback records a degradation to the local analyzer.
func (m *otelMetrics) RecordFallback(ctx context.Context, modelID, reason string) {
	m.fallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model_id", modelID),
		attribute.String("reason", reason),
	))
}

// RecordCacheLookup records a cache lookup.
func (m *otelMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.Bool("hit", hit)))
}
