package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"bettersaved/application/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics served on /metrics
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	UpdatesReceived *prometheus.CounterVec
	ItemsProcessed  *prometheus.CounterVec
	ItemDuration    *prometheus.HistogramVec
	GroupSize       prometheus.Histogram
	PartialGroups   prometheus.Counter
	ProviderCalls   *prometheus.CounterVec
	BreakerState    *prometheus.GaugeVec
}

var _ ports.Metrics = (*Collector)(nil)

// NewCollector creates a collector with its own registry
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		UpdatesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telegram_updates_total",
			Help:      "Telegram updates dispatched, by kind",
		}, []string{"kind"}),
		ItemsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_processed_total",
			Help:      "Ingested items by category and outcome",
		}, []string{"category", "outcome"}),
		ItemDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "item_duration_seconds",
			Help:      "Time from admission to the final outcome of an item",
			Buckets:   prometheus.DefBuckets,
		}, []string{"category"}),
		GroupSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "media_group_items",
			Help:      "Unique items per finalized media group",
			Buckets:   []float64{1, 2, 3, 5, 10},
		}),
		PartialGroups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_groups_partial_total",
			Help:      "Finalized media groups with at least one failed item",
		}),
		ProviderCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Calls to the storage provider by operation and status",
		}, []string{"operation", "status"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open",
		}, []string{"name"}),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.UpdatesReceived,
		c.ItemsProcessed,
		c.ItemDuration,
		c.GroupSize,
		c.PartialGroups,
		c.ProviderCalls,
		c.BreakerState,
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordIngestion counts one item outcome
func (c *Collector) RecordIngestion(ctx context.Context, category, outcome string, duration time.Duration) {
	c.ItemsProcessed.WithLabelValues(category, outcome).Inc()
	c.ItemDuration.WithLabelValues(category).Observe(duration.Seconds())
}

// RecordGroup observes the size of a finalized group
func (c *Collector) RecordGroup(ctx context.Context, uniqueItems, failed int) {
	c.GroupSize.Observe(float64(uniqueItems))
	if failed > 0 {
		c.PartialGroups.Inc()
	}
}

// ObserveProviderCall counts one storage provider call
func (c *Collector) ObserveProviderCall(operation string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	c.ProviderCalls.WithLabelValues(operation, status).Inc()
}

// SetBreakerState records the numeric state of a named circuit breaker
func (c *Collector) SetBreakerState(name string, state int) {
	c.BreakerState.WithLabelValues(name).Set(float64(state))
}

// ObserveUpdate counts one dispatched chat update
func (c *Collector) ObserveUpdate(kind string) {
	c.UpdatesReceived.WithLabelValues(kind).Inc()
}

// ObserveHTTP records one served request. route is the matched pattern, not the raw path.
func (c *Collector) ObserveHTTP(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// MultiMetrics fans one measurement out to several sinks
type MultiMetrics []ports.Metrics

func (m MultiMetrics) RecordIngestion(ctx context.Context, category, outcome string, duration time.Duration) {
	for _, sink := range m {
		sink.RecordIngestion(ctx, category, outcome, duration)
	}
}

func (m MultiMetrics) RecordGroup(ctx context.Context, uniqueItems, failed int) {
	for _, sink := range m {
		sink.RecordGroup(ctx, uniqueItems, failed)
	}
}
