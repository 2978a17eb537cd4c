package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
// Use when metrics are disabled to avoid overhead.
type NoopMetrics struct{}

// Compile-time interface check.
var _ MetricsRecorder = NoopMetrics{}

// RecordAnalysisPass does nothing.
func (NoopMetrics) RecordAnalysisPass(_ context.Context, _ int, _ bool, _ time.Duration) {}

// RecordFlowAnalysis does nothing.
func (NoopMetrics) RecordFlowAnalysis(_ context.Context, _ string, _ time.Duration, _ int) {}

// RecordDetectorFailure does nothing.
func (NoopMetrics) RecordDetectorFailure(_ context.Context, _ string) {}

// RecordBackendRequest does nothing.
func (NoopMetrics) RecordBackendRequest(_ context.Context, _ string, _ time.Duration, _ int, _ error) {
}

// RecordFallback does nothing.
func (NoopMetrics) RecordFallback(_ context.Context, _, _ string) {}

// RecordCacheLookup does nothing.
func (NoopMetrics) RecordCacheLookup(_ context.Context, _ bool) {}

// NoopSpanManager is a SpanManager that does nothing.
// Use when tracing is disabled to avoid overhead.
type NoopSpanManager struct{}

// Compile-time interface check.
var _ SpanManager = NoopSpanManager{}

// noopSpan is a span that does nothing.
var noopSpan = noop.Span{}

// StartPassSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartPassSpan(ctx context.Context, _ string, _ bool) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartFlowSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartFlowSpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartBackendSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartBackendSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(_ context.Context, _ string, _ ...attribute.KeyValue) {}
