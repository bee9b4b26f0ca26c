// Package metrics provides Prometheus metric collection for the CourseHub
// API: HTTP request telemetry plus counters for webhook processing and
// purchase settlement outcomes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records CourseHub metrics into a Prometheus registry. It
// implements core.MetricsCollector for HTTP telemetry and
// settlement.OutcomeRecorder for settlement counters.
type Collector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	webhookEvents   *prometheus.CounterVec
	settlements     *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with the given
// registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursehub_http_requests_total",
			Help: "HTTP requests processed, by method, route, and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coursehub_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds, by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursehub_webhook_events_total",
			Help: "Webhook events received, by provider, event type, and disposition.",
		}, []string{"provider", "event_type", "disposition"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursehub_settlements_total",
			Help: "Purchase settlement attempts, by result and terminal status.",
		}, []string{"result", "status"}),
	}

	reg.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.webhookEvents,
		c.settlements,
	)

	return c
}

// RecordRequest records API request metrics including latency and count.
func (c *Collector) RecordRequest(method, endpoint, status string, duration time.Duration) {
	c.requestsTotal.WithLabelValues(method, endpoint, status).Inc()
	c.requestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordWebhookEvent records a processed webhook event. disposition is one of
// "processed", "ignored", "rejected", or "failed".
func (c *Collector) RecordWebhookEvent(provider, eventType, disposition string) {
	c.webhookEvents.WithLabelValues(provider, eventType, disposition).Inc()
}

// RecordSettlement records a settlement attempt outcome.
func (c *Collector) RecordSettlement(result string, status string) {
	c.settlements.WithLabelValues(result, status).Inc()
}

// Handler returns the HTTP handler for the Prometheus scrape endpoint.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
