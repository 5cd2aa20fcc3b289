package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	syncRunsTotal   *prometheus.CounterVec
	syncInvoices    *prometheus.CounterVec
	syncDuration    prometheus.Histogram
}

// NewMetrics initializes the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "salesdash_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "salesdash_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	syncRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "salesdash_sync_runs_total",
		Help: "Invoice sync runs by outcome.",
	}, []string{"outcome"})
	syncInvoices := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "salesdash_sync_invoices_total",
		Help: "Invoices handled by sync runs, by result.",
	}, []string{"result"})
	syncDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "salesdash_sync_run_duration_seconds",
		Help:    "Duration of invoice sync runs.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})
	registry.MustRegister(requests, duration, syncRuns, syncInvoices, syncDuration)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		syncRunsTotal:   syncRuns,
		syncInvoices:    syncInvoices,
		syncDuration:    syncDuration,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveSyncRun records the outcome of one invoice sync run.
func (m *Metrics) ObserveSyncRun(outcome string, processed, skipped int, d time.Duration) {
	if m == nil {
		return
	}
	m.syncRunsTotal.WithLabelValues(outcome).Inc()
	m.syncInvoices.WithLabelValues("processed").Add(float64(processed))
	m.syncInvoices.WithLabelValues("skipped").Add(float64(skipped))
	m.syncDuration.Observe(d.Seconds())
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
