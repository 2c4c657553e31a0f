// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//nolint:gochecknoglobals // collectors register once with the default registry
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auditor",
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "auditor",
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
		},
		[]string{"method", "route"},
	)

	gapMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auditor",
			Subsystem: "gap",
			Name:      "mutations_total",
			Help:      "Compliance gap writes by kind",
		},
		[]string{"kind"},
	)

	gapsByRisk = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auditor",
			Subsystem: "gap",
			Name:      "created_total",
			Help:      "Compliance gaps created, by risk level",
		},
		[]string{"risk_level"},
	)

	sessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auditor",
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Audit session lifecycle transitions",
		},
		[]string{"kind"},
	)

	remoteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auditor",
			Subsystem: "remote",
			Name:      "errors_total",
			Help:      "Failed collaborator calls by upstream status class",
		},
		[]string{"collaborator", "status", "retryable"},
	)

	aggregationSkips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auditor",
			Subsystem: "analytics",
			Name:      "skipped_fields_total",
			Help:      "Gap fields left out of statistics because of unrecognized values",
		},
		[]string{"field"},
	)

	streamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "auditor",
			Subsystem: "ws",
			Name:      "clients",
			Help:      "Open websocket event streams",
		},
	)
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StreamOpened and StreamClosed track open websocket event streams.
func StreamOpened() { streamClients.Inc() }
func StreamClosed() { streamClients.Dec() }

// RecordGapMutation counts a gap write ("create", "update", "status", "assign", "review", "recommendation").
func RecordGapMutation(kind string) {
	gapMutations.WithLabelValues(kind).Inc()
}

// RecordGapCreated counts a new gap by risk level.
func RecordGapCreated(riskLevel string) {
	gapsByRisk.WithLabelValues(riskLevel).Inc()
}

// RecordSessionTransition counts "create", "close" and "reactivate".
func RecordSessionTransition(kind string) {
	sessionTransitions.WithLabelValues(kind).Inc()
}

// RecordRemoteError counts a failed collaborator call.
func RecordRemoteError(collaborator string, status int, retryable bool) {
	remoteErrors.WithLabelValues(collaborator, statusCodeClass(status), strconv.FormatBool(retryable)).Inc()
}

// RecordAggregationSkip counts a field isolated by the statistics engine.
func RecordAggregationSkip(field string) {
	aggregationSkips.WithLabelValues(field).Inc()
}

// Instrument is chi middleware recording request count and latency per route pattern.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		httpRequestsTotal.WithLabelValues(r.Method, route, statusCodeClass(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer (websocket hijack).
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func statusCodeClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
