package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const unmatchedRoute = "unmatched"

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photojournal_http_requests_total",
		Help: "Total number of HTTP requests processed.",
	}, []string{"method", "route"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "photojournal_http_request_duration_seconds",
		Help:    "Histogram of latencies for HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	dbLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "photojournal_db_latency_seconds",
		Help:    "Histogram of database operation latencies.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "route"})

	barcodesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photojournal_barcodes_total",
		Help: "Barcode generation attempts by type and outcome.",
	}, []string{"type", "outcome"})

	objectStoreOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photojournal_object_store_operations_total",
		Help: "Object store operations by kind and outcome.",
	}, []string{"op", "outcome"})
)

// Middleware records request metrics labelled by route pattern. It must be
// mounted on a chi router so the pattern is known once routing completes.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			// chi fills in the pattern while routing
			route := routePattern(r.Context())
			status := strconv.Itoa(ww.Status())
			httpRequestsTotal.WithLabelValues(r.Method, route).Inc()
			httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveDBLatency records database latency for an operation.
func ObserveDBLatency(ctx context.Context, operation string, start time.Time) {
	dbLatency.WithLabelValues(operation, routeFromContext(ctx)).Observe(time.Since(start).Seconds())
}

// BarcodeGenerated counts a barcode workflow outcome.
func BarcodeGenerated(barcodeType string, err error) {
	barcodesTotal.WithLabelValues(barcodeType, outcome(err)).Inc()
}

// ObjectStoreOp counts an object store call.
func ObjectStoreOp(op string, err error) {
	objectStoreOps.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// routeFromContext resolves the pattern at observation time; by then chi has
// matched the handler that issued the query.
func routeFromContext(ctx context.Context) string {
	if route := routePattern(ctx); route != unmatchedRoute {
		return route
	}
	return "unknown"
}

// routePattern never falls back to the raw path, which would put ids in labels.
func routePattern(ctx context.Context) string {
	if rctx := chi.RouteContext(ctx); rctx != nil {
		if pattern := strings.TrimSpace(rctx.RoutePattern()); pattern != "" {
			return pattern
		}
	}
	return unmatchedRoute
}
