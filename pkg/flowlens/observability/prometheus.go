package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusProvider couples an OTel meter provider with the HTTP handler
// that serves its metrics in the Prometheus exposition format.
type PrometheusProvider struct {
	MeterProvider *sdkmetric.MeterProvider
	Handler       http.Handler
}

// NewPrometheusProvider creates a meter provider backed by a dedicated
// Prometheus registry.
//
// Example:
//
//	prov, err := observability.NewPrometheusProvider()
//	otel.SetMeterProvider(prov.MeterProvider)
//	router.GET("/metrics", gin.WrapH(prov.Handler))
func NewPrometheusProvider() (*PrometheusProvider, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return &PrometheusProvider{
		MeterProvider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)),
		Handler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, nil
}
