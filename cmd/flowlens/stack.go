package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"

	"github.com/randalmurphal/flowlens/pkg/flowlens"
	"github.com/randalmurphal/flowlens/pkg/flowlens/analyzer"
	"github.com/randalmurphal/flowlens/pkg/flowlens/config"
	"github.com/randalmurphal/flowlens/pkg/flowlens/dispatch"
	"github.com/randalmurphal/flowlens/pkg/flowlens/event"
	"github.com/randalmurphal/flowlens/pkg/flowlens/models"
	"github.com/randalmurphal/flowlens/pkg/flowlens/observability"
	"github.com/randalmurphal/flowlens/pkg/flowlens/store"
)

const meterName = "github.com/randalmurphal/flowlens"

// stack is every long-lived component of a flowlens process.
type stack struct {
	store      store.Store
	bus        *event.LocalBus
	registry   *models.Registry
	dispatcher *dispatch.Dispatcher
	analyzer   *analyzer.Analyzer
	metrics    http.Handler
}

func buildStack(s config.Settings, src analyzer.Source, logger *slog.Logger) (*stack, error) {
	st, err := store.Open(s.Store.Driver, s.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var (
		recorder observability.MetricsRecorder = observability.NoopMetrics{}
		handler  http.Handler
	)
	if s.Metrics.Enabled {
		prov, err := observability.NewPrometheusProvider()
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		otel.SetMeterProvider(prov.MeterProvider)
		if recorder, err = observability.NewMetricsRecorderWithMeter(prov.MeterProvider.Meter(meterName)); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("create metrics: %w", err)
		}
		handler = prov.Handler
	}
	spans := observability.NewSpanManager()

	reg := models.New(
		models.WithStore(st),
		models.WithLogger(logger),
		models.WithProbeTimeout(s.Backend.ProbeTimeout),
	)
	// Best effort: a missing or broken blob leaves the defaults in place.
	_ = reg.Load()

	d := dispatch.New(reg,
		dispatch.WithTimeout(s.Backend.Timeout),
		dispatch.WithHistorySize(s.Backend.UsageHistorySize),
		dispatch.WithLogger(logger),
		dispatch.WithMetrics(recorder),
		dispatch.WithSpanManager(spans),
	)

	bus := event.NewBus(event.BusConfig{Logger: logger})

	a := analyzer.New(
		analyzer.WithEngine(flowlens.NewEngine(
			flowlens.WithLogger(logger),
			flowlens.WithMetrics(recorder),
		)),
		analyzer.WithDispatcher(d),
		analyzer.WithSource(src),
		analyzer.WithBus(bus),
		analyzer.WithRefreshInterval(s.Analysis.RefreshInterval),
		analyzer.WithHistorySize(s.Analysis.HistorySize),
		analyzer.WithMaxConcurrency(s.Analysis.MaxConcurrency),
		analyzer.WithLogger(logger),
		analyzer.WithMetrics(recorder),
		analyzer.WithSpanManager(spans),
	)

	return &stack{
		store:      st,
		bus:        bus,
		registry:   reg,
		dispatcher: d,
		analyzer:   a,
		metrics:    handler,
	}, nil
}

func (s *stack) Close() error {
	_ = s.bus.Close()
	return s.store.Close()
}
