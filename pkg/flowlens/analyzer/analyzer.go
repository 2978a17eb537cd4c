// Package analyzer runs workspace passes: it fans the per-flow analysis
// out over a bounded worker group, joins the results, adds the
// cross-flow findings and computes the summary.
//
// A pass is either local (the rule engine only) or AI-enhanced, in which
// case every flow is sent to the selected backend through the dispatcher
// and degrades to the rule engine when the backend cannot answer.
//
// Completed passes are pushed to a bounded history, cached by workspace
// fingerprint and announced on the event bus as analysis.completed.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/flowlens/pkg/flowlens"
	"github.com/randalmurphal/flowlens/pkg/flowlens/cache"
	"github.com/randalmurphal/flowlens/pkg/flowlens/dispatch"
	"github.com/randalmurphal/flowlens/pkg/flowlens/event"
	"github.com/randalmurphal/flowlens/pkg/flowlens/observability"
	"github.com/randalmurphal/flowlens/pkg/flowlens/prompt"
	"github.com/randalmurphal/flowlens/pkg/flowlens/ring"
)

// Defaults.
const (
	DefaultRefreshInterval = 30 * time.Second
	DefaultHistorySize     = 50
	DefaultMaxConcurrency  = 8
)

// Source loads the current workspace.
type Source interface {
	Load(ctx context.Context) (flowlens.Workspace, error)
}

// WorkspaceAnalysis is the result of one pass over every flow.
type WorkspaceAnalysis struct {
	PassID       string                  `json:"passId"`
	Timestamp    time.Time               `json:"timestamp"`
	TotalFlows   int                     `json:"totalFlows"`
	TotalNodes   int                     `json:"totalNodes"`
	FlowAnalyses []flowlens.FlowAnalysis `json:"flowAnalyses"`
	GlobalIssues []flowlens.Finding      `json:"globalIssues"`
	Summary      Summary                 `json:"summary"`
	AIEnhanced   bool                    `json:"aiEnhanced,omitempty"`
}

// Analyzer runs workspace passes. It is safe for concurrent use.
type Analyzer struct {
	engine         *flowlens.Engine
	dispatcher     *dispatch.Dispatcher
	source         Source
	bus            event.Bus
	cache          *cache.Cache[WorkspaceAnalysis]
	history        *ring.Ring[WorkspaceAnalysis]
	maxConcurrency int
	kind           prompt.Kind
	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	now            func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithEngine sets the rule engine.
// Default: flowlens.NewEngine()
func WithEngine(e *flowlens.Engine) Option {
	return func(a *Analyzer) {
		if e != nil {
			a.engine = e
		}
	}
}

// WithDispatcher enables AI-enhanced passes.
func WithDispatcher(d *dispatch.Dispatcher) Option {
	return func(a *Analyzer) {
		a.dispatcher = d
	}
}

// WithSource sets where Analyze and AnalyzeFlowByID load the workspace from.
func WithSource(s Source) Option {
	return func(a *Analyzer) {
		a.source = s
	}
}

// WithBus publishes analysis.completed after every computed pass.
func WithBus(b event.Bus) Option {
	return func(a *Analyzer) {
		a.bus = b
	}
}

// WithRefreshInterval sizes the result cache; entries live for twice
// the interval.
// Default: 30s
func WithRefreshInterval(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.cache = cache.New[WorkspaceAnalysis](d, cache.WithClock(a.clock))
		}
	}
}

// WithHistorySize bounds the pass history.
// Default: 50
func WithHistorySize(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.history = ring.New[WorkspaceAnalysis](n)
		}
	}
}

// WithMaxConcurrency bounds the number of flows analyzed at once.
// Default: 8
func WithMaxConcurrency(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxConcurrency = n
		}
	}
}

// WithPromptKind selects the prompt sent to backends in AI passes.
// Default: prompt.KindCodeAnalysis
func WithPromptKind(k prompt.Kind) Option {
	return func(a *Analyzer) {
		a.kind = k
	}
}

// WithLogger sets the logger.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
// Default: observability.NoopMetrics{}
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(a *Analyzer) {
		if m != nil {
			a.metrics = m
		}
	}
}

// WithSpanManager sets the tracing span manager.
// Default: observability.NoopSpanManager{}
func WithSpanManager(s observability.SpanManager) Option {
	return func(a *Analyzer) {
		if s != nil {
			a.spans = s
		}
	}
}

// WithClock replaces time.Now, for tests. It also drives cache expiry.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// New creates an analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		engine:         flowlens.NewEngine(),
		maxConcurrency: DefaultMaxConcurrency,
		kind:           prompt.KindCodeAnalysis,
		logger:         slog.Default(),
		metrics:        observability.NoopMetrics{},
		spans:          observability.NoopSpanManager{},
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.cache == nil {
		a.cache = cache.New[WorkspaceAnalysis](DefaultRefreshInterval, cache.WithClock(a.clock))
	}
	if a.history == nil {
		a.history = ring.New[WorkspaceAnalysis](DefaultHistorySize)
	}
	return a
}

// clock defers to a.now so WithClock may follow WithRefreshInterval.
func (a *Analyzer) clock() time.Time {
	return a.now()
}

// Dispatcher returns the backend dispatcher, or nil when AI passes are disabled.
func (a *Analyzer) Dispatcher() *dispatch.Dispatcher {
	return a.dispatcher
}

// Analyze loads the workspace from the source and analyzes it.
// A fresh cached result for the same workspace is returned without
// running a new pass.
func (a *Analyzer) Analyze(ctx context.Context, ai bool) (WorkspaceAnalysis, error) {
	ws, err := a.load(ctx)
	if err != nil {
		return WorkspaceAnalysis{}, err
	}

	key := a.fingerprint(ws, ai)
	if cached, ok := a.cache.Get(key); ok {
		a.metrics.RecordCacheLookup(ctx, true)
		observability.LogCacheHit(a.logger, key)
		return cached, nil
	}
	a.metrics.RecordCacheLookup(ctx, false)

	result, err := a.AnalyzeWorkspace(ctx, ws, ai)
	if err != nil {
		return WorkspaceAnalysis{}, err
	}
	a.cache.Put(key, result)
	return result, nil
}

// AnalyzeWorkspace runs one pass over ws. Flows without nodes are
// counted in TotalFlows but not analyzed. The pass is appended to the
// history and announced on the bus.
//
// The only error is the cancellation of ctx.
func (a *Analyzer) AnalyzeWorkspace(ctx context.Context, ws flowlens.Workspace, ai bool) (WorkspaceAnalysis, error) {
	ai = ai && a.dispatcher != nil
	passID := uuid.NewString()
	start := time.Now()

	ctx, span := a.spans.StartPassSpan(ctx, passID, ai)

	targets := make([]flowlens.Flow, 0, len(ws))
	for _, f := range ws {
		if len(f.Nodes) > 0 {
			targets = append(targets, f)
		}
	}
	observability.LogPassStart(a.logger, passID, len(targets), ai)

	analyses := make([]flowlens.FlowAnalysis, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxConcurrency)
	for i, flow := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			analyses[i] = a.analyzeFlow(gctx, passID, flow, ai)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		a.spans.EndSpanWithError(span, err)
		return WorkspaceAnalysis{}, fmt.Errorf("analyze workspace: %w", err)
	}

	result := WorkspaceAnalysis{
		PassID:       passID,
		Timestamp:    a.now(),
		TotalFlows:   len(ws),
		FlowAnalyses: analyses,
		GlobalIssues: a.engine.WorkspaceIssues(ctx, ws),
		AIEnhanced:   ai,
	}
	for _, fa := range analyses {
		result.TotalNodes += fa.NodeCount
	}
	result.Summary = Summarize(result.FlowAnalyses, result.GlobalIssues)

	elapsed := time.Since(start)
	a.history.Push(result)
	a.metrics.RecordAnalysisPass(ctx, len(targets), ai, elapsed)
	a.spans.EndSpanWithError(span, nil)
	observability.LogPassComplete(a.logger, passID, float64(elapsed.Microseconds())/1000,
		len(targets), result.Summary.TotalIssues, string(result.Summary.Status))

	a.publish(ctx, result, elapsed)
	return result, nil
}

func (a *Analyzer) analyzeFlow(ctx context.Context, passID string, flow flowlens.Flow, ai bool) flowlens.FlowAnalysis {
	ctx, span := a.spans.StartFlowSpan(ctx, flow.ID)
	defer a.spans.EndSpanWithError(span, nil)

	fa := a.analyzeFlowWith(ctx, flow, ai)
	observability.EnrichLogger(a.logger, passID, flow.ID).Debug("flow analyzed",
		slog.Int("issues", len(fa.Issues)),
		slog.Int("score", fa.Complexity.Score),
		slog.String("ai_model", fa.AIModel),
	)
	return fa
}

func (a *Analyzer) analyzeFlowWith(ctx context.Context, flow flowlens.Flow, ai bool) flowlens.FlowAnalysis {
	if !ai {
		return a.engine.AnalyzeFlow(ctx, flow)
	}

	resp := a.dispatcher.AnalyzeWithAI(ctx, flow, a.kind)
	if resp.Local {
		return a.engine.AnalyzeFlow(ctx, flow)
	}

	parsed := resp.Analysis()
	fa := flowlens.FlowAnalysis{
		ID:              flow.ID,
		Label:           flow.DisplayLabel(),
		Type:            flow.Type,
		NodeCount:       len(flow.Nodes),
		Issues:          parsed.Issues,
		Patterns:        parsed.Patterns,
		Complexity:      a.engine.Complexity(ctx, flow),
		Recommendations: parsed.Recommendations,
		AIModel:         resp.Model,
		TokensUsed:      resp.TokensUsed,
	}
	if fa.Type == "" {
		fa.Type = flowlens.TypeTab
	}
	return fa
}

// AnalyzeFlowByID loads the workspace and analyzes a single flow with
// the rule engine. The result is not recorded in the history.
func (a *Analyzer) AnalyzeFlowByID(ctx context.Context, id string) (flowlens.FlowAnalysis, error) {
	ws, err := a.load(ctx)
	if err != nil {
		return flowlens.FlowAnalysis{}, err
	}
	flow, ok := ws.Flow(id)
	if !ok {
		return flowlens.FlowAnalysis{}, fmt.Errorf("%w: %s", ErrFlowNotFound, id)
	}
	return a.engine.AnalyzeFlow(ctx, flow), nil
}

// History returns the recorded passes, newest first.
func (a *Analyzer) History() []WorkspaceAnalysis {
	h := a.history.Newest(0)
	if h == nil {
		return []WorkspaceAnalysis{}
	}
	return h
}

// ClearCache drops every cached pass.
func (a *Analyzer) ClearCache() {
	a.cache.Clear()
}

func (a *Analyzer) load(ctx context.Context) (flowlens.Workspace, error) {
	if a.source == nil {
		return nil, ErrNoSource
	}
	ws, err := a.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load workspace: %w", err)
	}
	return ws, nil
}

// fingerprint keys the cache on the workspace content, the mode and, for
// AI passes, the selected model and the registry revision, so a new
// credential, endpoint or custom model forces a fresh pass.
func (a *Analyzer) fingerprint(ws flowlens.Workspace, ai bool) string {
	key := struct {
		Flows    flowlens.Workspace `json:"flows"`
		AI       bool               `json:"ai"`
		Model    string             `json:"model,omitempty"`
		Revision uint64             `json:"revision,omitempty"`
	}{Flows: ws, AI: ai && a.dispatcher != nil}
	if key.AI {
		reg := a.dispatcher.Registry()
		key.Model = reg.CurrentModelID()
		key.Revision = reg.Revision()
	}
	return cache.Fingerprint(key)
}

func (a *Analyzer) publish(ctx context.Context, result WorkspaceAnalysis, elapsed time.Duration) {
	if a.bus == nil {
		return
	}
	evt := event.New(event.TypeAnalysisCompleted, "analyzer", event.AnalysisCompleted{
		PassID:        result.PassID,
		FlowsAnalyzed: len(result.FlowAnalyses),
		TotalIssues:   result.Summary.TotalIssues,
		Status:        string(result.Summary.Status),
		AIEnhanced:    result.AIEnhanced,
		DurationMs:    elapsed.Milliseconds(),
	})
	if err := a.bus.Publish(ctx, evt); err != nil {
		a.logger.Warn("publish analysis event failed",
			slog.String("pass_id", result.PassID),
			slog.String("error", err.Error()),
		)
	}
}
