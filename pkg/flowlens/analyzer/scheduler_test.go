package analyzer_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/flowlens/pkg/flowlens"
	"github.com/randalmurphal/flowlens/pkg/flowlens/analyzer"
	"github.com/randalmurphal/flowlens/pkg/flowlens/event"
	"github.com/randalmurphal/flowlens/pkg/flowlens/source"
)

// gatedSource blocks Load until release is closed.
type gatedSource struct {
	entered chan struct{}
	release chan struct{}
	loads   atomic.Int32
}

func newGatedSource() *gatedSource {
	return &gatedSource{entered: make(chan struct{}, 16), release: make(chan struct{})}
}

func (s *gatedSource) Load(ctx context.Context) (flowlens.Workspace, error) {
	s.loads.Add(1)
	s.entered <- struct{}{}
	select {
	case <-s.release:
		return workspace(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestScheduler_SingleInFlight(t *testing.T) {
	src := newGatedSource()
	s := analyzer.NewScheduler(analyzer.New(analyzer.WithSource(src)), analyzer.SchedulerConfig{})

	done := make(chan error, 1)
	go func() {
		_, err := s.Trigger(context.Background())
		done <- err
	}()
	<-src.entered
	assert.True(t, s.InFlight())

	_, err := s.Trigger(context.Background())
	assert.ErrorIs(t, err, analyzer.ErrAnalysisInFlight)

	close(src.release)
	require.NoError(t, <-done)
	assert.False(t, s.InFlight())
	assert.Equal(t, int64(1), s.Runs())
	assert.Equal(t, int32(1), src.loads.Load())

	_, err = s.Trigger(context.Background())
	require.NoError(t, err, "the flag is released after a pass")
}

func TestScheduler_RunInterval(t *testing.T) {
	a := analyzer.New(
		analyzer.WithSource(source.NewStatic(workspace())),
		analyzer.WithRefreshInterval(time.Millisecond),
	)
	s := analyzer.NewScheduler(a, analyzer.SchedulerConfig{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return s.Runs() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.NotEmpty(t, a.History())
}

func TestScheduler_RunsOnEvents(t *testing.T) {
	bus := event.NewBus(event.DefaultBusConfig)
	defer bus.Close()

	a := analyzer.New(analyzer.WithSource(source.NewStatic(workspace())))
	s := analyzer.NewScheduler(a, analyzer.SchedulerConfig{Interval: time.Hour, Bus: bus})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	// Startup pass.
	require.Eventually(t, func() bool { return len(a.History()) == 1 }, 2*time.Second, 5*time.Millisecond)

	// Unchanged content is served from the cache.
	require.NoError(t, bus.Publish(ctx, event.New(event.TypeFlowsChanged, "test", event.FlowsChanged{})))
	require.Eventually(t, func() bool { return s.Runs() == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Len(t, a.History(), 1)

	// A deploy forces a new pass.
	require.NoError(t, bus.Publish(ctx, event.New(event.TypeFlowsDeployed, "test", event.FlowsDeployed{})))
	assert.Eventually(t, func() bool { return len(a.History()) == 2 }, 2*time.Second, 5*time.Millisecond)
}
