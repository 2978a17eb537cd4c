package flowlens

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/randalmurphal/flowlens/pkg/flowlens/observability"
)

// FlowAnalysis is the result of analyzing one flow during one pass.
// It is built fresh on every pass and never updated afterwards.
type FlowAnalysis struct {
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	Type       string     `json:"type"`
	NodeCount  int        `json:"nodeCount"`
	Issues     []Finding  `json:"issues"`
	Patterns   []Pattern  `json:"patterns"`
	Complexity Complexity `json:"complexity"`

	// Set only when a remote backend produced the findings.
	Recommendations []string `json:"recommendations,omitempty"`
	AIModel         string   `json:"aiModel,omitempty"`
	TokensUsed      int      `json:"tokensUsed,omitempty"`
}

// Engine runs the rule battery and graph metrics over single flows.
//
// Every detector is isolated: a detector that panics is recovered, logged
// and skipped, and the remaining detectors still run. Engine holds no
// per-flow state and is safe for concurrent use.
type Engine struct {
	cfg engineConfig
}

// NewEngine creates an engine with the given options.
func NewEngine(opts ...EngineOption) *Engine {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{cfg: cfg}
}

// AnalyzeFlow computes metrics, findings and patterns for one flow.
// It never fails; broken rules only reduce what is reported.
func (e *Engine) AnalyzeFlow(ctx context.Context, flow Flow) FlowAnalysis {
	start := time.Now()

	analysis := FlowAnalysis{
		ID:        flow.ID,
		Label:     flow.DisplayLabel(),
		Type:      flow.Type,
		NodeCount: len(flow.Nodes),
		Issues:    []Finding{},
		Patterns:  []Pattern{},
	}
	if analysis.Type == "" {
		analysis.Type = TypeTab
	}

	analysis.Complexity = e.Complexity(ctx, flow)
	if len(flow.Nodes) == 0 {
		return analysis
	}

	for _, d := range e.cfg.detectors {
		findings, err := guard(d.Name, func() []Finding {
			return d.Detect(flow.Nodes)
		})
		if err != nil {
			e.detectorFailed(ctx, flow.ID, d.Name, err)
			continue
		}
		analysis.Issues = append(analysis.Issues, findings...)
	}

	if patterns, err := guard("patterns", func() []Pattern {
		return DetectPatterns(flow.Nodes)
	}); err != nil {
		e.detectorFailed(ctx, flow.ID, "patterns", err)
	} else if patterns != nil {
		analysis.Patterns = patterns
	}

	e.cfg.metrics.RecordFlowAnalysis(ctx, flow.ID, time.Since(start), len(analysis.Issues))
	return analysis
}

// Complexity computes only the complexity of a flow, with the same
// isolation as AnalyzeFlow.
func (e *Engine) Complexity(ctx context.Context, flow Flow) Complexity {
	c, err := guard("complexity", func() Complexity {
		return CalculateComplexity(flow.Nodes)
	})
	if err != nil {
		e.detectorFailed(ctx, flow.ID, "complexity", err)
		return Complexity{Level: LevelSimple, NodeCount: len(flow.Nodes)}
	}
	return c
}

// WorkspaceIssues runs the cross-flow rules with the same isolation as
// per-flow detectors.
func (e *Engine) WorkspaceIssues(ctx context.Context, flows []Flow) []Finding {
	findings, err := guard("workspace", func() []Finding {
		return DetectWorkspaceIssues(flows)
	})
	if err != nil {
		e.detectorFailed(ctx, "", "workspace", err)
		return []Finding{}
	}
	if findings == nil {
		return []Finding{}
	}
	return findings
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *slog.Logger {
	return e.cfg.logger
}

func (e *Engine) detectorFailed(ctx context.Context, flowID, name string, err error) {
	observability.LogDetectorError(e.cfg.logger, flowID, name, &DetectorError{
		Detector: name,
		FlowID:   flowID,
		Err:      err,
	})
	e.cfg.metrics.RecordDetectorFailure(ctx, name)
}

// guard runs fn, converting a panic into a PanicError.
func guard[T any](name string, fn func() T) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				Detector: name,
				Value:    r,
				Stack:    string(debug.Stack()),
			}
		}
	}()
	return fn(), nil
}

// String implements fmt.Stringer for log output.
func (c Complexity) String() string {
	return fmt.Sprintf("%s(%d)", c.Level, c.Score)
}
