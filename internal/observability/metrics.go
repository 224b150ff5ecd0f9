package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application, including the
// stock ledger counters the sales service reports into.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	stockDeducted     prometheus.Counter
	stockRestored     prometheus.Counter
	insufficientStock prometheus.Counter
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "opsboard_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "opsboard_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	deducted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "opsboard_stock_units_deducted_total",
		Help: "Units deducted from stock by completed sales.",
	})
	restored := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "opsboard_stock_units_restored_total",
		Help: "Units restored to stock by cancellations, edits and deletions.",
	})
	insufficient := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "opsboard_stock_insufficient_total",
		Help: "Sale requests rejected because stock was insufficient.",
	})
	registry.MustRegister(requests, duration, deducted, restored, insufficient)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		stockDeducted:     deducted,
		stockRestored:     restored,
		insufficientStock: insufficient,
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

// StockDeducted adds to the deducted-units counter.
func (m *Metrics) StockDeducted(units int) {
	if m == nil {
		return
	}
	m.stockDeducted.Add(float64(units))
}

// StockRestored adds to the restored-units counter.
func (m *Metrics) StockRestored(units int) {
	if m == nil {
		return
	}
	m.stockRestored.Add(float64(units))
}

// InsufficientStock counts one rejected deduction.
func (m *Metrics) InsufficientStock() {
	if m == nil {
		return
	}
	m.insufficientStock.Inc()
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
