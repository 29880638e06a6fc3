// Package metrics exposes Prometheus instruments for the dashboard.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"powerpulse/internal/cache"
)

const namespace = "powerpulse"

// Prediction results.
const (
	ResultOK       = "ok"
	ResultInvalid  = "invalid"
	ResultModelErr = "model_error"
)

// Metrics owns a dedicated registry. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	datasetLoadSeconds prometheus.Histogram
	datasetRows        prometheus.Gauge
	datasetLoadErrors  prometheus.Counter

	reportsComputed prometheus.Counter
	reportCacheHits prometheus.Counter

	predictions       *prometheus.CounterVec
	predictionLatency prometheus.Histogram
	eventsPublished   *prometheus.CounterVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         *prometheus.CounterVec
	suspiciousRequests  prometheus.Counter
}

// CacheSource is a cache whose counters can be exported.
type CacheSource interface {
	Stats() cache.Stats
	Len() int
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		datasetLoadSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_seconds",
			Help:      "Time spent loading the energy table",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),
		datasetRows: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the loaded energy table",
		}),
		datasetLoadErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_load_errors_total",
			Help:      "Failed dataset loads",
		}),
		reportsComputed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_computed_total",
			Help:      "Month reports computed from the table",
		}),
		reportCacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_hits_total",
			Help:      "Month reports served from cache",
		}),
		predictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Prediction requests by result",
		}, []string{"result"}),
		predictionLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Time to load the artifact and predict",
			Buckets:   prometheus.DefBuckets,
		}),
		eventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Prediction events handed to the notifier",
		}, []string{"backend", "success"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"route", "method", "status"}),
		httpRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		rateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter",
		}, []string{"route"}),
		suspiciousRequests: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_suspicious_requests_total",
			Help:      "Requests matching a scanner or traversal pattern",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// DatasetLoaded records the outcome of the dataset load.
func (m *Metrics) DatasetLoaded(rows int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.datasetLoadSeconds.Observe(elapsed.Seconds())
	if err != nil {
		m.datasetLoadErrors.Inc()
		return
	}
	m.datasetRows.Set(float64(rows))
}

// ReportServed counts a month report, computed or cached.
func (m *Metrics) ReportServed(cached bool) {
	if m == nil {
		return
	}
	if cached {
		m.reportCacheHits.Inc()
		return
	}
	m.reportsComputed.Inc()
}

// PredictionObserved records one prediction attempt.
func (m *Metrics) PredictionObserved(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(result).Inc()
	m.predictionLatency.Observe(elapsed.Seconds())
}

// EventPublished records a notifier publish attempt.
func (m *Metrics) EventPublished(backend string, err error) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(backend, strconv.FormatBool(err == nil)).Inc()
}

// HTTPRequest records a served request.
func (m *Metrics) HTTPRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// RateLimited counts a request rejected with 429 on route.
func (m *Metrics) RateLimited(route string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(route).Inc()
}

// SuspiciousRequest counts a request flagged by the security middleware.
func (m *Metrics) SuspiciousRequest() {
	if m == nil {
		return
	}
	m.suspiciousRequests.Inc()
}

// WatchCache exports the size and lookup counters of c, labelled with name.
// Each name may be watched once.
func (m *Metrics) WatchCache(name string, c CacheSource) {
	if m == nil {
		return
	}
	f := promauto.With(m.registry)
	labels := prometheus.Labels{"cache": name}
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "cache_entries",
		Help:        "Entries currently held by the cache",
		ConstLabels: labels,
	}, func() float64 { return float64(c.Len()) })
	counters := []struct {
		name string
		help string
		read func(cache.Stats) uint64
	}{
		{"cache_hits_total", "Cache lookups that found a live entry", func(s cache.Stats) uint64 { return s.Hits }},
		{"cache_misses_total", "Cache lookups that found nothing or an expired entry", func(s cache.Stats) uint64 { return s.Misses }},
		{"cache_evictions_total", "Entries evicted to respect the size bound", func(s cache.Stats) uint64 { return s.Evictions }},
	}
	for _, ctr := range counters {
		read := ctr.read
		f.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        ctr.name,
			Help:        ctr.help,
			ConstLabels: labels,
		}, func() float64 { return float64(read(c.Stats())) })
	}
}
