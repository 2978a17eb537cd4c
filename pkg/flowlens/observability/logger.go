// Package observability provides structured logging, metrics, and tracing
// for flowlens analysis passes and backend calls.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry, exportable to Prometheus
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds pass context to a logger.
// Returns a new logger with pass_id and flow_id fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "pass-123", "flow-a")
//	enriched.Info("analyzing") // includes pass_id, flow_id
func EnrichLogger(logger *slog.Logger, passID, flowID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("pass_id", passID),
		slog.String("flow_id", flowID),
	)
}

// LogPassStart logs the start of a workspace analysis pass.
func LogPassStart(logger *slog.Logger, passID string, flows int, ai bool) {
	if logger == nil {
		return
	}
	logger.Info("analysis pass starting",
		slog.String("pass_id", passID),
		slog.Int("flows", flows),
		slog.Bool("ai", ai),
	)
}

// LogPassComplete logs a finished analysis pass.
func LogPassComplete(logger *slog.Logger, passID string, durationMs float64, flowsAnalyzed, issues int, status string) {
	if logger == nil {
		return
	}
	logger.Info("analysis pass completed",
		slog.String("pass_id", passID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("flows_analyzed", flowsAnalyzed),
		slog.Int("issues", issues),
		slog.String("status", status),
	)
}

// LogPassSkipped logs a scheduled pass that did not run.
func LogPassSkipped(logger *slog.Logger, reason string) {
	if logger == nil {
		return
	}
	logger.Debug("analysis pass skipped",
		slog.String("reason", reason),
	)
}

// LogDetectorError logs a failed rule. The pass continues.
func LogDetectorError(logger *slog.Logger, flowID, detector string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("detector failed",
		slog.String("flow_id", flowID),
		slog.String("detector", detector),
		slog.String("error", err.Error()),
	)
}

// LogBackendCall logs a successful remote backend call.
func LogBackendCall(logger *slog.Logger, modelID string, durationMs float64, tokens int) {
	if logger == nil {
		return
	}
	logger.Debug("backend call completed",
		slog.String("model_id", modelID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("tokens", tokens),
	)
}

// LogBackendFallback logs a degradation to the local analyzer.
func LogBackendFallback(logger *slog.Logger, modelID, reason string, err error) {
	if logger == nil {
		return
	}
	attrs := []any{
		slog.String("model_id", modelID),
		slog.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	logger.Warn("backend unavailable, using local analysis", attrs...)
}

// LogCacheHit logs an analysis served from cache.
func LogCacheHit(logger *slog.Logger, fingerprint string) {
	if logger == nil {
		return
	}
	logger.Debug("analysis cache hit",
		slog.String("fingerprint", fingerprint),
	)
}

// LogConfigLoadError logs a failed, non-fatal configuration load.
func LogConfigLoadError(logger *slog.Logger, key string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("could not load persisted config, using defaults",
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
