// Package telemetry exposes Prometheus metrics for the HTTP API, the
// analysis engine, the async worker and the price predictor client.
package telemetry

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "getaround"

// Metrics holds every collector the service records into.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	analysisRuns   *prometheus.CounterVec
	analysisTime   *prometheus.HistogramVec
	cacheRequests  *prometheus.CounterVec
	jobs           *prometheus.CounterVec
	predictions    *prometheus.CounterVec
	datasetRecords prometheus.Gauge
	segments       prometheus.Gauge
}

// New registers the collectors on reg. A nil reg uses a fresh registry.
// Collectors already present on reg are reused.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		gatherer: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		analysisRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_runs_total",
			Help:      "Analysis computations by operation and outcome",
		}, []string{"operation", "outcome"}),
		analysisTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Analysis computation time by operation",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"operation"}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Report cache lookups by result",
		}, []string{"result"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_jobs_total",
			Help:      "Async analysis jobs by final status",
		}, []string{"status"}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_requests_total",
			Help:      "Price prediction calls by outcome",
		}, []string{"outcome"}),
		datasetRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_records",
			Help:      "Number of cleaned rental records in memory",
		}),
		segments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "segments_cached",
			Help:      "Compiled segment expressions held by the segment engine",
		}),
	}

	var err error
	if m.httpRequests, err = register(reg, m.httpRequests); err != nil {
		return nil, err
	}
	if m.httpDuration, err = register(reg, m.httpDuration); err != nil {
		return nil, err
	}
	if m.analysisRuns, err = register(reg, m.analysisRuns); err != nil {
		return nil, err
	}
	if m.analysisTime, err = register(reg, m.analysisTime); err != nil {
		return nil, err
	}
	if m.cacheRequests, err = register(reg, m.cacheRequests); err != nil {
		return nil, err
	}
	if m.jobs, err = register(reg, m.jobs); err != nil {
		return nil, err
	}
	if m.predictions, err = register(reg, m.predictions); err != nil {
		return nil, err
	}
	if m.datasetRecords, err = register(reg, m.datasetRecords); err != nil {
		return nil, err
	}
	if m.segments, err = register(reg, m.segments); err != nil {
		return nil, err
	}

	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveAnalysis records one analysis computation.
func (m *Metrics) ObserveAnalysis(operation string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.analysisRuns.WithLabelValues(operation, outcome(err)).Inc()
	m.analysisTime.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// CacheHit records a report served from cache.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues("hit").Inc()
}

// CacheMiss records a report computed because the cache had none.
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues("miss").Inc()
}

// JobFinished records an async job reaching a final status.
func (m *Metrics) JobFinished(status string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(status).Inc()
}

// ObservePrediction records a predictor call.
func (m *Metrics) ObservePrediction(err error) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(outcome(err)).Inc()
}

// SetDatasetRecords records the size of the loaded dataset.
func (m *Metrics) SetDatasetRecords(n int) {
	if m == nil {
		return
	}
	m.datasetRecords.Set(float64(n))
}

// SetCachedSegments records how many segment expressions are compiled.
func (m *Metrics) SetCachedSegments(n int) {
	if m == nil {
		return
	}
	m.segments.Set(float64(n))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
