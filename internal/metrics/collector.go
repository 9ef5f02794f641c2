// Package metrics exposes the cache subsystem's Prometheus metrics
// and, when enabled, serves them over HTTP.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/altseek/altseek/internal/config"
)

const namespace = "altseek"

// Collector owns the subsystem's Prometheus metrics. All record
// methods are safe for concurrent use; the prometheus client handles
// its own synchronization.
type Collector struct {
	cfg      config.MonitoringConfig
	logger   *zap.Logger
	registry *prometheus.Registry

	requests  *prometheus.CounterVec
	hits      *prometheus.CounterVec
	misses    *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	tierItems *prometheus.GaugeVec
	items     prometheus.Gauge

	server *http.Server
}

// NewCollector creates and registers the metric set.
func NewCollector(cfg config.MonitoringConfig, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Collector{
		cfg:      cfg,
		logger:   logger.Named("metrics"),
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Cache requests by strategy and operation.",
		}, []string{"strategy", "operation"}),
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache hits by strategy.",
		}, []string{"strategy"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache misses by strategy.",
		}, []string{"strategy"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "errors_total",
			Help:      "Storage errors by strategy.",
		}, []string{"strategy"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "operation_duration_seconds",
			Help:      "Cache operation latency by strategy and operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"strategy", "operation"}),
		tierItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "tier_items",
			Help:      "Records held per storage tier.",
		}, []string{"tier"}),
		items: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "items",
			Help:      "Records held by the active strategy.",
		}),
	}

	c.registry.MustRegister(c.requests, c.hits, c.misses, c.errors, c.latency, c.tierItems, c.items)
	return c
}

// ObserveGet records one lookup with its outcome and latency.
func (c *Collector) ObserveGet(strategy string, hit bool, d time.Duration) {
	c.requests.WithLabelValues(strategy, "get").Inc()
	c.latency.WithLabelValues(strategy, "get").Observe(d.Seconds())
	if hit {
		c.hits.WithLabelValues(strategy).Inc()
	} else {
		c.misses.WithLabelValues(strategy).Inc()
	}
}

// ObserveSet records one store with its latency.
func (c *Collector) ObserveSet(strategy string, d time.Duration) {
	c.requests.WithLabelValues(strategy, "set").Inc()
	c.latency.WithLabelValues(strategy, "set").Observe(d.Seconds())
}

// RecordError counts a storage error against a strategy.
func (c *Collector) RecordError(strategy string) {
	c.errors.WithLabelValues(strategy).Inc()
}

// SetItemCount publishes the active strategy's population.
func (c *Collector) SetItemCount(n int) {
	c.items.Set(float64(n))
}

// SetTierItems publishes one tier's population.
func (c *Collector) SetTierItems(tier string, n int) {
	c.tierItems.WithLabelValues(tier).Set(float64(n))
}

// Registry exposes the underlying registry for scraping in tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Start serves the metrics endpoint when monitoring is enabled.
func (c *Collector) Start() {
	if !c.cfg.MetricsEnabled {
		return
	}

	mux := http.NewServeMux()
	mux.Handle(c.cfg.MetricsPath, promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))

	c.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", c.cfg.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 30 * time.Second,
	}

	go func() {
		c.logger.Info("metrics server listening", zap.String("addr", c.server.Addr))
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
}

// Stop shuts the metrics endpoint down.
func (c *Collector) Stop(ctx context.Context) error {
	if c.server == nil {
		return nil
	}
	return c.server.Shutdown(ctx)
}
