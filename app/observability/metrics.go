package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ServiceMetrics records the attempt/success/failure/duration of service operations.
type ServiceMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

type promMetrics struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
}

// NewPrometheusMetrics registers the operation collectors on reg.
func NewPrometheusMetrics(reg prometheus.Registerer) ServiceMetrics {
	factory := promauto.With(reg)
	return &promMetrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "party",
			Name:      "service_operations_total",
			Help:      "Service operations by outcome.",
		}, []string{"service", "operation", "outcome"}),
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "party",
			Name:      "service_operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "operation"}),
	}
}

func (m *promMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.operations.WithLabelValues(service, operation, "attempt").Inc()
}

func (m *promMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.operations.WithLabelValues(service, operation, "success").Inc()
}

func (m *promMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.operations.WithLabelValues(service, operation, "failure").Inc()
}

func (m *promMetrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.durations.WithLabelValues(service, operation).Observe(duration.Seconds())
}

type noopMetrics struct{}

// NewNoop returns metrics that discard everything.
func NewNoop() ServiceMetrics { return noopMetrics{} }

func (noopMetrics) RecordOperationAttempt(context.Context, string, string)                 {}
func (noopMetrics) RecordOperationSuccess(context.Context, string, string)                 {}
func (noopMetrics) RecordOperationFailure(context.Context, string, string)                 {}
func (noopMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}

// ThrowMetrics counts resolved Mölkky throws by outcome.
type ThrowMetrics interface {
	RecordThrow(ctx context.Context, outcome string)
}

type promThrowMetrics struct {
	throws *prometheus.CounterVec
}

// NewThrowMetrics registers the throw counter on reg.
func NewThrowMetrics(reg prometheus.Registerer) ThrowMetrics {
	return &promThrowMetrics{
		throws: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "party",
			Name:      "molkky_throws_total",
			Help:      "Recorded Mölkky throws by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *promThrowMetrics) RecordThrow(_ context.Context, outcome string) {
	m.throws.WithLabelValues(outcome).Inc()
}

// RecordThrow discards the throw.
func (noopMetrics) RecordThrow(context.Context, string) {}

// NewNoopThrowMetrics returns throw metrics that discard everything.
func NewNoopThrowMetrics() ThrowMetrics { return noopMetrics{} }

// HTTPMetricsMiddleware counts requests by route pattern, method and status.
func HTTPMetricsMiddleware(reg prometheus.Registerer) func(http.Handler) http.Handler {
	requests := promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Namespace: "party",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			requests.WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).Inc()
		})
	}
}
