// Package metrics exposes Prometheus request metrics.
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

var (
	requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coachhub_http_requests_total",
		Help: "HTTP requests by route pattern, method, and status.",
	}, []string{"route", "method", "status"})

	duration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coachhub_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	// Assignments counts assignment attempts by outcome
	// (assigned, already_assigned, at_capacity, not_found, error).
	Assignments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coachhub_assignments_total",
		Help: "Trainee-to-agent assignment attempts by outcome.",
	}, []string{"outcome"})

	// Uploads counts stored documents by kind.
	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coachhub_uploads_total",
		Help: "Stored documents by kind.",
	}, []string{"kind"})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency keyed by the chi route
// pattern, so ids in paths do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		duration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
