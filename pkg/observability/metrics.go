package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	ServiceName string
	// PushgatewayURL enables Push when set.
	PushgatewayURL string
}

// Metrics couples an OpenTelemetry MeterProvider with the Prometheus
// registry its exporter writes to.
type Metrics struct {
	Provider *sdkmetric.MeterProvider
	Registry *prometheus.Registry
	cfg      MetricsConfig
}

// InitMetrics initializes the Prometheus metrics exporter on a private registry.
func InitMetrics(cfg MetricsConfig) (*Metrics, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	return &Metrics{Provider: provider, Registry: registry, cfg: cfg}, nil
}

// Push sends the current registry contents to the Pushgateway. Batch runs
// end before any scraper could reach them. It is a no-op without a URL.
func (m *Metrics) Push(ctx context.Context) error {
	if m.cfg.PushgatewayURL == "" {
		return nil
	}
	err := push.New(m.cfg.PushgatewayURL, m.cfg.ServiceName).
		Gatherer(m.Registry).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics to %s: %w", m.cfg.PushgatewayURL, err)
	}
	return nil
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.Provider.Shutdown(ctx)
}
