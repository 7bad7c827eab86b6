package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// meterName identifies the instrumentation scope of pipeline instruments.
const meterName = "github.com/Sumatoshi-tech/prism"

// PrometheusMeter creates a Prometheus exporter backed by an OTel
// MeterProvider and returns the meter to create instruments on together
// with an [http.Handler] serving the /metrics scrape endpoint. Each call
// creates an independent Prometheus registry to avoid collector conflicts
// when called multiple times.
func PrometheusMeter() (metric.Meter, http.Handler, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	return provider.Meter(meterName), promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}
