// Package dispatch routes analysis requests to the selected backend.
//
// The state machine per request is
//
//	SELECT MODEL -> builtin?  -> LOCAL
//	             -> available? -> CALL REMOTE -> SUCCESS
//	                                          -> TIMEOUT/ERROR -> LOCAL
//
// Remote calls get one attempt under a hard timeout. Every remote
// outcome is appended to a bounded usage history. AnalyzeWithAI never
// fails; the worst case is the builtin analysis.
package dispatch

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/randalmurphal/flowlens/pkg/flowlens"
	"github.com/randalmurphal/flowlens/pkg/flowlens/errors"
	"github.com/randalmurphal/flowlens/pkg/flowlens/llm"
	"github.com/randalmurphal/flowlens/pkg/flowlens/models"
	"github.com/randalmurphal/flowlens/pkg/flowlens/observability"
	"github.com/randalmurphal/flowlens/pkg/flowlens/prompt"
	"github.com/randalmurphal/flowlens/pkg/flowlens/ring"
)

// Defaults.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultHistorySize = 100
)

// Fallback reasons reported to logs and metrics.
const (
	ReasonUnavailable = "unavailable"
	ReasonTimeout     = "timeout"
	ReasonMalformed   = "malformed"
	ReasonError       = "error"
)

// ClientFactory builds the client for one remote model.
type ClientFactory func(d models.Descriptor, endpoint, apiKey string) (llm.Client, error)

// Response is the outcome of one dispatched request.
type Response struct {
	Content    string        `json:"content"`
	Model      string        `json:"model"`
	ModelID    string        `json:"modelId"`
	TokensUsed int           `json:"tokensUsed"`
	Local      bool          `json:"local"`
	Duration   time.Duration `json:"-"`
}

// Analysis parses Content.
func (r Response) Analysis() Analysis {
	return ParseResponse(r.Content)
}

// Dispatcher sends analysis requests to backends. It is safe for
// concurrent use.
type Dispatcher struct {
	registry   *models.Registry
	prompts    *prompt.Set
	history    *ring.Ring[UsageRecord]
	timeout    time.Duration
	newClient  ClientFactory
	httpClient *http.Client
	logger     *slog.Logger
	metrics    observability.MetricsRecorder
	spans      observability.SpanManager
	now        func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout bounds each remote call. Default 30s.
func WithTimeout(d time.Duration) Option {
	return func(x *Dispatcher) {
		if d > 0 {
			x.timeout = d
		}
	}
}

// WithHistorySize sets the usage history capacity. Default 100.
func WithHistorySize(n int) Option {
	return func(x *Dispatcher) { x.history = ring.New[UsageRecord](n) }
}

// WithPrompts replaces the prompt set.
func WithPrompts(p *prompt.Set) Option {
	return func(x *Dispatcher) {
		if p != nil {
			x.prompts = p
		}
	}
}

// WithClientFactory replaces how backend clients are built.
func WithClientFactory(f ClientFactory) Option {
	return func(x *Dispatcher) {
		if f != nil {
			x.newClient = f
		}
	}
}

// WithHTTPClient sets the transport of the default client factory.
func WithHTTPClient(hc *http.Client) Option {
	return func(x *Dispatcher) { x.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Dispatcher) {
		if logger != nil {
			x.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(x *Dispatcher) {
		if m != nil {
			x.metrics = m
		}
	}
}

// WithSpanManager sets the tracer.
func WithSpanManager(s observability.SpanManager) Option {
	return func(x *Dispatcher) {
		if s != nil {
			x.spans = s
		}
	}
}

// WithClock replaces time.Now for usage timestamps.
func WithClock(now func() time.Time) Option {
	return func(x *Dispatcher) { x.now = now }
}

// New creates a dispatcher over registry.
func New(registry *models.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:   registry,
		prompts:    prompt.Default(),
		history:    ring.New[UsageRecord](DefaultHistorySize),
		timeout:    DefaultTimeout,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
		metrics:    observability.NoopMetrics{},
		spans:      observability.NoopSpanManager{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.newClient == nil {
		d.newClient = d.defaultClient
	}
	return d
}

// Registry returns the model registry.
func (d *Dispatcher) Registry() *models.Registry {
	return d.registry
}

// AnalyzeWithAI analyzes flow with the selected model, degrading to
// BuiltinAnalysis when the model is builtin, unavailable or fails.
func (d *Dispatcher) AnalyzeWithAI(ctx context.Context, flow flowlens.Flow, kind prompt.Kind) Response {
	model := d.registry.CurrentModel()
	if model.Provider == models.ProviderBuiltin {
		return d.builtin(flow)
	}

	if !d.registry.IsModelAvailable(ctx, model.ID) {
		err := fmt.Errorf("model %s is not available", model.ID)
		d.record(model.ID, kind, 0, 0, err)
		d.fallback(ctx, model.ID, ReasonUnavailable, nil)
		return d.builtin(flow)
	}

	resp, err := d.Call(ctx, model, flow, kind)
	if err != nil {
		reason := ReasonError
		var timeoutErr *errors.TimeoutError
		switch {
		case stderrors.As(err, &timeoutErr):
			reason = ReasonTimeout
		case errors.IsMalformed(err):
			reason = ReasonMalformed
		}
		d.fallback(ctx, model.ID, reason, err)
		return d.builtin(flow)
	}
	return resp
}

// Call makes one remote attempt with model and records its outcome.
// A call that outlives the timeout returns *errors.TimeoutError.
func (d *Dispatcher) Call(ctx context.Context, model models.Descriptor, flow flowlens.Flow, kind prompt.Kind) (Response, error) {
	ctx, span := d.spans.StartBackendSpan(ctx, model.ID, string(model.Provider))
	start := time.Now()

	resp, err := d.call(ctx, model, flow, kind)
	elapsed := time.Since(start)

	d.spans.EndSpanWithError(span, err)
	d.metrics.RecordBackendRequest(ctx, model.ID, elapsed, resp.TokensUsed, err)
	d.record(model.ID, kind, elapsed, resp.TokensUsed, err)
	if err != nil {
		return Response{}, err
	}

	observability.LogBackendCall(d.logger, model.ID, float64(elapsed.Microseconds())/1000, resp.TokensUsed)
	resp.Duration = elapsed
	return resp, nil
}

func (d *Dispatcher) call(ctx context.Context, model models.Descriptor, flow flowlens.Flow, kind prompt.Kind) (Response, error) {
	if model.Provider == models.ProviderBuiltin {
		return Response{}, fmt.Errorf("model %s is not a remote backend", model.ID)
	}

	client, err := d.newClient(model, d.registry.Endpoint(model.ID), d.registry.APIKey(model.Provider))
	if err != nil {
		return Response{}, err
	}

	text, err := d.prompts.Build(kind, SanitizeFlow(flow), map[string]any{
		"flowId":    flow.ID,
		"flowLabel": flow.DisplayLabel(),
		"nodeCount": len(flow.Nodes),
	})
	if err != nil {
		return Response{}, err
	}

	req := llm.UserPrompt(text)
	req.Model = model.Model
	req.MaxTokens = model.MaxTokens
	req.Temperature = model.Temperature
	if model.Provider == models.ProviderOpenAI {
		req.SystemPrompt = prompt.System
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	out, err := client.Complete(callCtx, req)
	if err != nil {
		if stderrors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return Response{}, &errors.TimeoutError{Operation: model.ID, Duration: d.timeout.String()}
		}
		return Response{}, err
	}

	name := out.Model
	if name == "" {
		name = model.Model
	}
	return Response{
		Content:    out.Content,
		Model:      name,
		ModelID:    model.ID,
		TokensUsed: out.Usage.TotalTokens,
	}, nil
}

func (d *Dispatcher) defaultClient(model models.Descriptor, endpoint, apiKey string) (llm.Client, error) {
	if model.RequiresAPIKey && apiKey == "" {
		return nil, &errors.CredentialError{Provider: string(model.Provider)}
	}
	switch model.Provider {
	case models.ProviderOpenAI:
		return llm.NewOpenAIClient(endpoint, apiKey,
			llm.WithProvider(string(model.Provider)),
			llm.WithOpenAIModel(model.Model),
			llm.WithOpenAIHTTPClient(d.httpClient),
		), nil
	case models.ProviderLMStudio:
		return llm.NewOpenAIClient(endpoint, "",
			llm.WithProvider(string(model.Provider)),
			llm.WithOpenAIModel(model.Model),
			llm.WithOpenAIHTTPClient(d.httpClient),
		), nil
	case models.ProviderAnthropic:
		return llm.NewClaudeClient(endpoint, apiKey,
			llm.WithClaudeModel(model.Model),
			llm.WithClaudeHTTPClient(d.httpClient),
		), nil
	case models.ProviderOllama:
		return llm.NewOllamaClient(endpoint,
			llm.WithOllamaModel(model.Model),
			llm.WithOllamaHTTPClient(d.httpClient),
		), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", model.Provider)
	}
}

func (d *Dispatcher) builtin(flow flowlens.Flow) Response {
	// Analysis only holds JSON-safe values.
	content, _ := json.Marshal(BuiltinAnalysis(flow))
	return Response{
		Content: string(content),
		Model:   BuiltinSource,
		ModelID: models.DefaultModelID,
		Local:   true,
	}
}

func (d *Dispatcher) fallback(ctx context.Context, modelID, reason string, err error) {
	d.metrics.RecordFallback(ctx, modelID, reason)
	observability.LogBackendFallback(d.logger, modelID, reason, err)
}

func (d *Dispatcher) record(modelID string, kind prompt.Kind, elapsed time.Duration, tokens int, err error) {
	rec := UsageRecord{
		Timestamp:    d.now(),
		ModelID:      modelID,
		AnalysisType: string(kind),
		Success:      err == nil,
	}
	if err == nil {
		rec.ResponseTimeMs = max(elapsed.Milliseconds(), 1)
		rec.TokensUsed = tokens
	} else {
		rec.Error = err.Error()
		rec.Category = errors.Categorize(err).String()
	}
	d.history.Push(rec)
}

// ConnectionResult is the outcome of TestConnection.
type ConnectionResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	Error          string `json:"error,omitempty"`
	ResponseTimeMs int64  `json:"responseTime,omitempty"`
	Model          string `json:"model,omitempty"`
}

// TestConnection makes one remote call with an empty flow. The builtin
// analyzer always succeeds without a call.
func (d *Dispatcher) TestConnection(ctx context.Context, modelID string) ConnectionResult {
	model, ok := d.registry.Model(modelID)
	if !ok {
		return ConnectionResult{Error: models.ErrModelNotFound.Error()}
	}
	if model.Provider == models.ProviderBuiltin {
		return ConnectionResult{Success: true, Message: "builtin analyzer is always available"}
	}

	resp, err := d.Call(ctx, model, flowlens.Flow{}, prompt.KindCodeAnalysis)
	if err != nil {
		return ConnectionResult{Error: err.Error()}
	}
	return ConnectionResult{
		Success:        true,
		Message:        "connection successful",
		ResponseTimeMs: resp.Duration.Milliseconds(),
		Model:          resp.Model,
	}
}

// History returns the usage history, newest first.
func (d *Dispatcher) History() []UsageRecord {
	return d.history.Newest(0)
}

// ClearHistory empties the usage history.
func (d *Dispatcher) ClearHistory() {
	d.history.Clear()
}

// UsageStats summarizes the usage history.
func (d *Dispatcher) UsageStats() UsageStats {
	return computeStats(d.history.Items())
}

// ExportStats returns the registry summary, stats and history together.
func (d *Dispatcher) ExportStats() Export {
	records := d.history.Newest(0)
	if records == nil {
		records = []UsageRecord{}
	}
	return Export{
		Config: ExportConfig{
			CurrentModel:    d.registry.CurrentModelID(),
			AvailableModels: len(d.registry.AllModels()),
		},
		Usage:   computeStats(records),
		History: records,
	}
}
