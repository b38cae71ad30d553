// Package observability wires Prometheus metrics for the HTTP surface and
// the collection domain.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the Prometheus metrics of the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	PaymentsRegistered    prometheus.Counter
	PaymentsReversed      prometheus.Counter
	Compensations         prometheus.Counter
	OverpaymentRejections prometheus.Counter
	ReconcileRepairs      prometheus.Counter
}

// NewMetrics initialises the registry with the base and domain metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cxc_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cxc_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	payments := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cxc_payments_registered_total",
		Help: "Partial payments applied against invoices.",
	})
	reversals := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cxc_payments_reversed_total",
		Help: "Partial payments rolled back.",
	})
	compensations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cxc_compensations_total",
		Help: "Credit notes offset against invoices.",
	})
	overpayments := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cxc_overpayment_rejections_total",
		Help: "Payments rejected for exceeding the open balance.",
	})
	repairs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cxc_reconcile_repairs_total",
		Help: "Invoices whose derived totals were repaired from payment rows.",
	})

	registry.MustRegister(requests, duration, payments, reversals, compensations, overpayments, repairs)
	return &Metrics{
		registry:              registry,
		handler:               promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:         requests,
		requestDuration:       duration,
		PaymentsRegistered:    payments,
		PaymentsReversed:      reversals,
		Compensations:         compensations,
		OverpaymentRejections: overpayments,
		ReconcileRepairs:      repairs,
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

// Middleware records request metrics for every HTTP request.
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
