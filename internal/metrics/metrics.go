// v1
// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"projetbda/analytics/internal/circuitbreaker"
)

const namespace = "analytics"

// Metrics owns the service collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	registry          *prometheus.Registry
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	cacheLookups      *prometheus.CounterVec
	plannerDuration   *prometheus.HistogramVec
	plannerErrors     *prometheus.CounterVec
	cbState           *prometheus.GaugeVec
	planEvents        *prometheus.CounterVec
	sectionFailures   *prometheus.CounterVec
	integrityErrors   *prometheus.CounterVec
}

// New registers every collector on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache name and result.",
		}, []string{"cache", "result"}),
		plannerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "planner_http_duration_seconds",
			Help:      "Histogram of planner HTTP request durations by endpoint.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		plannerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "planner_http_errors_total",
			Help:      "Planner HTTP errors by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		cbState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cb_state",
			Help:      "Circuit breaker state gauge (0 closed, 1 half, 2 open).",
		}, []string{"target"}),
		planEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_events_total",
			Help:      "Planning events consumed by action.",
		}, []string{"action"}),
		sectionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_section_failures_total",
			Help:      "Dashboard sections that could not be built.",
		}, []string{"section"}),
		integrityErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "integrity_errors_total",
			Help:      "Upstream aggregates rejected by precondition checks.",
		}, []string{"source"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.cacheLookups,
		m.plannerDuration,
		m.plannerErrors,
		m.cbState,
		m.planEvents,
		m.sectionFailures,
		m.integrityErrors,
	)

	m.cbState.WithLabelValues("planner").Set(0)
	return m
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler records request counts and latency under route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

// CacheHit implements cache.Observer.
func (m *Metrics) CacheHit(name string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(name, "hit").Inc()
}

// CacheMiss implements cache.Observer.
func (m *Metrics) CacheMiss(name string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(name, "miss").Inc()
}

// ObservePlannerRequest implements planner.Observer.
func (m *Metrics) ObservePlannerRequest(endpoint, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.plannerDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
	if outcome != "ok" {
		m.plannerErrors.WithLabelValues(endpoint, outcome).Inc()
	}
}

// SetBreakerState mirrors a breaker transition on the gauge.
func (m *Metrics) SetBreakerState(target string, state circuitbreaker.State) {
	if m == nil {
		return
	}
	var v float64
	switch state {
	case circuitbreaker.HalfOpen:
		v = 1
	case circuitbreaker.Open:
		v = 2
	}
	m.cbState.WithLabelValues(target).Set(v)
}

// PlanEvent counts a consumed planning event.
func (m *Metrics) PlanEvent(action string) {
	if m == nil {
		return
	}
	m.planEvents.WithLabelValues(action).Inc()
}

// SectionFailed counts a dashboard section that could not be built.
func (m *Metrics) SectionFailed(section string) {
	if m == nil {
		return
	}
	m.sectionFailures.WithLabelValues(section).Inc()
}

// IntegrityError counts an aggregate rejected by validation.
func (m *Metrics) IntegrityError(source string) {
	if m == nil {
		return
	}
	m.integrityErrors.WithLabelValues(source).Inc()
}
