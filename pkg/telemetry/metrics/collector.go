package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the Prometheus registry and every Vulcan metric group.
type Collector struct {
	registry *prometheus.Registry

	Gate      *GateMetrics
	Safety    *SafetyMetrics
	Promotion *PromotionMetrics
}

// NewCollector creates a registry, registers the standard process and Go
// runtime collectors, and builds all Vulcan metric groups.
func NewCollector(cfg *Config) *Collector {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Collector{
		registry:  registry,
		Gate:      NewGateMetrics(cfg, registry),
		Safety:    NewSafetyMetrics(cfg, registry),
		Promotion: NewPromotionMetrics(cfg, registry),
	}
}

// Registry exposes the underlying registry for tests and custom metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the HTTP handler for the metrics endpoint, typically
// mounted at "/metrics".
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
