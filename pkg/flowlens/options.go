package flowlens

import (
	"log/slog"

	"github.com/randalmurphal/flowlens/pkg/flowlens/observability"
)

// engineConfig holds configuration for the rule engine.
type engineConfig struct {
	logger    *slog.Logger
	metrics   observability.MetricsRecorder
	detectors []Detector
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		logger:    slog.Default(),
		metrics:   observability.NoopMetrics{},
		detectors: DefaultDetectors(),
	}
}

// EngineOption configures an Engine.
type EngineOption func(*engineConfig)

// WithLogger sets the logger used for detector failures.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) EngineOption {
	return func(c *engineConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
// Default: observability.NoopMetrics{}
func WithMetrics(m observability.MetricsRecorder) EngineOption {
	return func(c *engineConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithDetectors replaces the rule battery.
// Default: DefaultDetectors()
//
// Example:
//
//	engine := flowlens.NewEngine(flowlens.WithDetectors(
//	    append(flowlens.DefaultDetectors(), myRule)...,
//	))
func WithDetectors(detectors ...Detector) EngineOption {
	return func(c *engineConfig) {
		c.detectors = detectors
	}
}
