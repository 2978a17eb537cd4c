package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartPassSpan starts a span covering one workspace pass.
	StartPassSpan(ctx context.Context, passID string, ai bool) (context.Context, trace.Span)

	// StartFlowSpan starts a span for one flow, a child of the pass span.
	StartFlowSpan(ctx context.Context, flowID string) (context.Context, trace.Span)

	// StartBackendSpan starts a span for one remote backend call.
	StartBackendSpan(ctx context.Context, modelID, provider string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct {
	tracer trace.Tracer
}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{tracer: otel.Tracer("flowlens")}
}

// NewSpanManagerWithProvider returns a SpanManager bound to a specific provider.
func NewSpanManagerWithProvider(tp trace.TracerProvider) SpanManager {
	return &otelSpanManager{tracer: tp.Tracer("flowlens")}
}

// StartPassSpan starts a span for a workspace pass.
func (m *otelSpanManager) StartPassSpan(ctx context.Context, passID string, ai bool) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "flowlens.pass",
		trace.WithAttributes(
			attribute.String("pass.id", passID),
			attribute.Bool("pass.ai", ai),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartFlowSpan starts a span for one flow.
func (m *otelSpanManager) StartFlowSpan(ctx context.Context, flowID string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "flowlens.flow",
		trace.WithAttributes(
			attribute.String("flow.id", flowID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartBackendSpan starts a span for a backend call.
func (m *otelSpanManager) StartBackendSpan(ctx context.Context, modelID, provider string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "flowlens.backend."+provider,
		trace.WithAttributes(
			attribute.String("model.id", modelID),
			attribute.String("model.provider", provider),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
