// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hope"

// Metrics groups the application collectors.
type Metrics struct {
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	DonationsRecorded *prometheus.CounterVec
	PaymentOrders     prometheus.Counter
	PublishFailures   *prometheus.CounterVec
	PlaceholderServed *prometheus.CounterVec
	ReconcileRuns     *prometheus.CounterVec
}

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		DonationsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "donations_recorded_total",
			Help:      "Donations written, by the path that confirmed them.",
		}, []string{"source"}),
		PaymentOrders: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_orders_created_total",
			Help:      "Provider orders created for checkout.",
		}),
		PublishFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mq_publish_failures_total",
			Help:      "Domain events that could not be published.",
		}, []string{"topic"}),
		PlaceholderServed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "site_placeholder_served_total",
			Help:      "Public reads answered with the placeholder set.",
		}, []string{"collection"}),
		ReconcileRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_reconcile_runs_total",
			Help:      "Reconciler passes by outcome.",
		}, []string{"outcome"}),
	}
}

// Middleware records request counts and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
