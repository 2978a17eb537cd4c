package analyzer

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/flowlens/pkg/flowlens/event"
	"github.com/randalmurphal/flowlens/pkg/flowlens/observability"
)

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	// Interval between automatic passes.
	// Default: 30s
	Interval time.Duration

	// AI requests AI-enhanced passes.
	AI bool

	// Bus, when set, triggers a pass on flows.changed and flows.deployed.
	Bus event.Bus

	// Logger receives skipped and failed passes.
	// Default: slog.Default()
	Logger *slog.Logger
}

// Scheduler re-analyzes the workspace on a timer and on change events.
// At most one pass runs at a time; triggers that arrive while a pass is
// running are skipped, not queued.
type Scheduler struct {
	analyzer *Analyzer
	cfg      SchedulerConfig

	inFlight atomic.Bool
	runs     atomic.Int64

	mu     sync.Mutex
	runCtx context.Context
}

// NewScheduler creates a scheduler for a.
func NewScheduler(a *Analyzer, cfg SchedulerConfig) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultRefreshInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Scheduler{analyzer: a, cfg: cfg}
}

// Run performs an initial pass and then one pass per interval until ctx
// is done. It always returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()

	if s.cfg.Bus != nil {
		sub := s.cfg.Bus.Subscribe(
			[]string{event.TypeFlowsChanged, event.TypeFlowsDeployed},
			event.HandlerFunc(s.onEvent),
		)
		defer sub.Unsubscribe()
	}

	s.tick(ctx, "startup")

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx, "interval")
		}
	}
}

// Trigger runs one pass now. It returns ErrAnalysisInFlight when
// another pass is running.
func (s *Scheduler) Trigger(ctx context.Context) (WorkspaceAnalysis, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return WorkspaceAnalysis{}, ErrAnalysisInFlight
	}
	defer s.inFlight.Store(false)

	s.runs.Add(1)
	return s.analyzer.Analyze(ctx, s.cfg.AI)
}

// InFlight reports whether a pass is running.
func (s *Scheduler) InFlight() bool {
	return s.inFlight.Load()
}

// Runs returns the number of passes started by the scheduler.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

func (s *Scheduler) tick(ctx context.Context, trigger string) {
	_, err := s.Trigger(ctx)
	switch {
	case err == nil:
	case stderrors.Is(err, ErrAnalysisInFlight):
		observability.LogPassSkipped(s.cfg.Logger, trigger+": "+err.Error())
	case ctx.Err() != nil:
	default:
		s.cfg.Logger.Warn("scheduled analysis failed",
			slog.String("trigger", trigger),
			slog.String("error", err.Error()),
		)
	}
}

// onEvent handles change events. The pass runs under the context given
// to Run so that shutdown cancels it.
func (s *Scheduler) onEvent(_ context.Context, evt event.Event) error {
	s.mu.Lock()
	ctx := s.runCtx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return nil
	}

	// A deploy forces a fresh pass even when the content is unchanged.
	if evt.Type() == event.TypeFlowsDeployed {
		s.analyzer.ClearCache()
	}
	s.tick(ctx, evt.Type())
	return nil
}
