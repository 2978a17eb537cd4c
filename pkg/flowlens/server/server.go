// Package server exposes flowlens over HTTP with gin.
//
// All routes live under the /copilot-sidebar group so the editor panel
// can call them unchanged. Failures are answered with {"error", "code"}.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/randalmurphal/flowlens/pkg/flowlens/analyzer"
	"github.com/randalmurphal/flowlens/pkg/flowlens/dispatch"
	"github.com/randalmurphal/flowlens/pkg/flowlens/event"
	"github.com/randalmurphal/flowlens/pkg/flowlens/models"
)

// BasePath is the route group every endpoint is mounted under.
const BasePath = "/copilot-sidebar"

// Server wires the analyzer, the dispatcher and the model registry to
// HTTP routes.
type Server struct {
	analyzer   *analyzer.Analyzer
	dispatcher *dispatch.Dispatcher
	registry   *models.Registry
	bus        event.Bus
	metrics    http.Handler
	logger     *slog.Logger
	engine     *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithBus enables POST /events/deploy.
func WithBus(b event.Bus) Option {
	return func(s *Server) {
		s.bus = b
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds the router. d must be the dispatcher the analyzer uses for
// AI passes; its registry backs the model routes.
func New(a *analyzer.Analyzer, d *dispatch.Dispatcher, opts ...Option) *Server {
	s := &Server{
		analyzer:   a,
		dispatcher: d,
		registry:   d.Registry(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics))
	}

	g := s.engine.Group(BasePath)
	g.GET("/health", s.handleHealth)

	g.GET("/analyze", s.handleAnalyze)
	g.GET("/history", s.handleHistory)
	g.DELETE("/history/usage", s.handleClearUsage)
	g.GET("/flows/:flowId", s.handleFlow)

	g.GET("/models", s.handleModels)
	g.POST("/models/current", s.handleSetCurrentModel)
	g.POST("/models/api-key", s.handleSetAPIKey)
	g.DELETE("/models/api-key/:provider", s.handleRemoveAPIKey)
	g.POST("/models/test", s.handleTestModel)
	g.GET("/models/stats", s.handleStats)
	g.POST("/models/custom", s.handleAddCustomModel)
	g.DELETE("/models/custom/:id", s.handleRemoveCustomModel)

	g.POST("/events/deploy", s.handleDeploy)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
		)
	}
}
