package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoopMetrics_ImplementsInterface(t *testing.T) {
	var _ MetricsRecorder = NoopMetrics{}
}

func TestNoopMetrics_DoesNotPanic(t *testing.T) {
	m := NoopMetrics{}
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordAnalysisPass(ctx, 2, true, time.Second)
		m.RecordFlowAnalysis(ctx, "flow", time.Millisecond, 3)
		m.RecordDetectorFailure(ctx, "security")
		m.RecordBackendRequest(ctx, "model", time.Second, 10, errors.New("x"))
		m.RecordFallback(ctx, "model", "timeout")
		m.RecordCacheLookup(ctx, true)
	})
}

func TestNoopSpanManager(t *testing.T) {
	sm := NoopSpanManager{}
	ctx := context.Background()

	t.Run("returns the same context", func(t *testing.T) {
		got, span := sm.StartPassSpan(ctx, "pass", false)
		assert.Equal(t, ctx, got)
		assert.False(t, span.IsRecording())

		got, _ = sm.StartFlowSpan(ctx, "flow")
		assert.Equal(t, ctx, got)

		got, _ = sm.StartBackendSpan(ctx, "model", "openai")
		assert.Equal(t, ctx, got)
	})

	t.Run("end and events are no-ops", func(t *testing.T) {
		_, span := sm.StartPassSpan(ctx, "pass", false)
		assert.NotPanics(t, func() {
			sm.EndSpanWithError(span, errors.New("x"))
			sm.AddSpanEvent(ctx, "evt", attribute.Int("n", 1))
		})
	})
}
