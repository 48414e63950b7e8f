// Package telemetry holds the dashboard's Prometheus metrics.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jobdash"

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds all dashboard Prometheus metrics
type Metrics struct {
	DashboardRuns     *prometheus.CounterVec
	PipelineDuration  prometheus.Histogram
	SourceRequests    *prometheus.CounterVec
	SourceDuration    *prometheus.HistogramVec
	ListingsFetched   *prometheus.HistogramVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	SupersededCancels prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewMetrics registers the collectors on reg. Passing a fresh registry keeps tests isolated.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{gatherer: reg}
	m.DashboardRuns = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dashboard_runs_total",
		Help:      "Dashboard computations by outcome",
	}, []string{"outcome"})

	m.PipelineDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pipeline_duration_seconds",
		Help:      "Time to compute one dashboard, source calls included",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	m.SourceRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_requests_total",
		Help:      "Listing source calls by source, kind (primary or popular) and outcome",
	}, []string{"source", "kind", "outcome"})

	m.SourceDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "source_request_duration_seconds",
		Help:      "Listing source call latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source", "kind"})

	m.ListingsFetched = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "listings_fetched",
		Help:      "Listings returned per source call",
		Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
	}, []string{"source", "kind"})

	m.HTTPRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code",
	}, []string{"route", "status"})

	m.HTTPDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	m.SupersededCancels = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "superseded_runs_total",
		Help:      "In-flight dashboard runs canceled by a newer request from the same session",
	})

	return m
}

// NewDefaultMetrics registers on a new registry that also exports Go runtime and process metrics
func NewDefaultMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewMetrics(reg)
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordRun counts one dashboard computation
func (m *Metrics) RecordRun(err error, d time.Duration) {
	m.DashboardRuns.WithLabelValues(outcome(err)).Inc()
	m.PipelineDuration.Observe(d.Seconds())
}

// RecordSourceCall counts one listing source call
func (m *Metrics) RecordSourceCall(source, kind string, listings int, err error, d time.Duration) {
	m.SourceRequests.WithLabelValues(source, kind, outcome(err)).Inc()
	m.SourceDuration.WithLabelValues(source, kind).Observe(d.Seconds())
	if err == nil {
		m.ListingsFetched.WithLabelValues(source, kind).Observe(float64(listings))
	}
}

// RecordHTTP counts one served request
func (m *Metrics) RecordHTTP(route string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
