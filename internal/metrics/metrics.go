// Package metrics defines the Prometheus collectors for solvers, translation
// and the HTTP surface, and exposes a scrape handler.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Retrieval outcomes.
const (
	OutcomeHit      = "hit"
	OutcomeEmpty    = "empty"
	OutcomeError    = "error"
	OutcomeNoIndex  = "no_index"
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeCacheHit = "cache_hit"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing,
// so components can be built without a registry in tests.
type Metrics struct {
	RetrievalsTotal      *prometheus.CounterVec
	RetrievalLatency     *prometheus.HistogramVec
	CorpusDocuments      *prometheus.GaugeVec
	CorpusLoadsTotal     *prometheus.CounterVec
	TranslationsTotal    *prometheus.CounterVec
	TranslationFallbacks *prometheus.CounterVec
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	JobsTotal            *prometheus.CounterVec
	JobDuration          *prometheus.HistogramVec
	JobsRunning          prometheus.Gauge

	registry *prometheus.Registry
}

// New creates the collectors and registers them on a fresh registry along
// with the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		RetrievalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bm25_retrievals_total",
				Help: "Total retrievals by solver and outcome (hit, empty, no_index, error).",
			},
			[]string{"solver", "outcome"},
		),
		RetrievalLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bm25_retrieval_latency_seconds",
				Help:    "Retrieval latency in seconds, translation included.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5, 1},
			},
			[]string{"solver"},
		),
		CorpusDocuments: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bm25_corpus_documents",
				Help: "Number of documents in the corpus currently published by each solver.",
			},
			[]string{"solver"},
		),
		CorpusLoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bm25_corpus_loads_total",
				Help: "Total corpus loads by solver and outcome.",
			},
			[]string{"solver", "outcome"},
		),
		TranslationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bm25_translations_total",
				Help: "Total translation requests by outcome (success, cache_hit, failure).",
			},
			[]string{"outcome"},
		),
		TranslationFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bm25_translation_fallbacks_total",
				Help: "Queries answered untranslated because translation failed.",
			},
			[]string{"solver"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		JobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bm25_jobs_total",
				Help: "Finished background jobs by type and status.",
			},
			[]string{"type", "status"},
		),
		JobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bm25_job_duration_seconds",
				Help:    "Background job execution time in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"type"},
		),
		JobsRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bm25_jobs_running",
				Help: "Background jobs currently holding a worker slot.",
			},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RetrievalsTotal,
		m.RetrievalLatency,
		m.CorpusDocuments,
		m.CorpusLoadsTotal,
		m.TranslationsTotal,
		m.TranslationFallbacks,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.JobsTotal,
		m.JobDuration,
		m.JobsRunning,
	)

	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus scrape HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRetrieval records one retrieval and its latency.
func (m *Metrics) ObserveRetrieval(solver, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RetrievalsTotal.WithLabelValues(solver, outcome).Inc()
	m.RetrievalLatency.WithLabelValues(solver).Observe(elapsed.Seconds())
}

// ObserveLoad records a corpus load. On success the document gauge is updated.
func (m *Metrics) ObserveLoad(solver string, documents int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.CorpusLoadsTotal.WithLabelValues(solver, OutcomeFailure).Inc()
		return
	}
	m.CorpusLoadsTotal.WithLabelValues(solver, OutcomeSuccess).Inc()
	m.CorpusDocuments.WithLabelValues(solver).Set(float64(documents))
}

// ObserveTranslation records a translator call.
func (m *Metrics) ObserveTranslation(outcome string) {
	if m == nil {
		return
	}
	m.TranslationsTotal.WithLabelValues(outcome).Inc()
}

// TranslationFallback records a query that fell back to its source language.
func (m *Metrics) TranslationFallback(solver string) {
	if m == nil {
		return
	}
	m.TranslationFallbacks.WithLabelValues(solver).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// JobStarted marks a job as holding a worker slot.
func (m *Metrics) JobStarted() {
	if m == nil {
		return
	}
	m.JobsRunning.Inc()
}

// ObserveJob records a finished job and releases its running slot.
func (m *Metrics) ObserveJob(jobType, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.JobsRunning.Dec()
	m.JobsTotal.WithLabelValues(jobType, status).Inc()
	m.JobDuration.WithLabelValues(jobType).Observe(elapsed.Seconds())
}

// ForgetSolver drops the per-solver series of a deleted solver.
func (m *Metrics) ForgetSolver(solver string) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{"solver": solver}
	m.RetrievalsTotal.DeletePartialMatch(labels)
	m.RetrievalLatency.DeletePartialMatch(labels)
	m.CorpusDocuments.DeletePartialMatch(labels)
	m.CorpusLoadsTotal.DeletePartialMatch(labels)
	m.TranslationFallbacks.DeletePartialMatch(labels)
}
