// Package metrics exposes Prometheus collectors for HTTP traffic and the
// summary pipeline.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Summary job outcomes
const (
	OutcomeStored   = "stored"
	OutcomeFailed   = "failed"
	OutcomeDiscard  = "discarded"
	OutcomeRejected = "rejected"
)

// Metrics holds the application collectors. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	SummaryJobsTotal   *prometheus.CounterVec
	SummaryDuration    prometheus.Histogram
	SummaryJobsRunning prometheus.Gauge

	ContentOperations *prometheus.CounterVec
}

// New registers the collectors on reg, naming each with prefix. Passing
// prometheus.DefaultRegisterer also exposes the Go runtime collectors.
func New(prefix string, reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: gatherer,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		SummaryJobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_summary_jobs_total",
				Help: "Total number of summary jobs by outcome",
			},
			[]string{"outcome"},
		),

		SummaryDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    prefix + "_summary_duration_seconds",
				Help:    "Duration of summarizer calls in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),

		SummaryJobsRunning: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: prefix + "_summary_jobs_running",
				Help: "Number of summary jobs currently running",
			},
		),

		ContentOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_content_operations_total",
				Help: "Total number of content mutations by resource and operation",
			},
			[]string{"resource", "operation"},
		),
	}
}

// Middleware records the count and latency of every request. The route
// template is used as the path label to keep cardinality bounded.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the scrape endpoint for the registry the metrics were created on
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}

// TrackSummary returns a function that records the duration of a summarizer call
func (m *Metrics) TrackSummary() func(outcome string) {
	if m == nil {
		return func(string) {}
	}

	start := time.Now()
	m.SummaryJobsRunning.Inc()
	return func(outcome string) {
		m.SummaryJobsRunning.Dec()
		m.SummaryDuration.Observe(time.Since(start).Seconds())
		m.SummaryJobsTotal.WithLabelValues(outcome).Inc()
	}
}

// RecordSummaryOutcome counts a summary job that never reached the summarizer
func (m *Metrics) RecordSummaryOutcome(outcome string) {
	if m == nil {
		return
	}
	m.SummaryJobsTotal.WithLabelValues(outcome).Inc()
}

// RecordContentOperation counts a successful mutation such as ("post", "create")
func (m *Metrics) RecordContentOperation(resource, operation string) {
	if m == nil {
		return
	}
	m.ContentOperations.WithLabelValues(resource, operation).Inc()
}
