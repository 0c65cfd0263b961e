package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// RouteUnmatched labels requests no route pattern matched.
const RouteUnmatched = "unmatched"

// API traffic metrics, labelled by chi route pattern.
var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kgsearch",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API requests by route, method and response code",
		},
		[]string{"route", "method", "code"},
	)

	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kgsearch",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request latency by route, including the Elasticsearch round trip",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"route"},
	)

	apiResponseBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kgsearch",
			Subsystem: "api",
			Name:      "response_size_bytes",
			Help:      "API response body size by route",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(apiRequestsTotal, apiRequestDuration, apiResponseBytes)
}

// Middleware counts API requests and observes their latency and response
// size. It must run inside a chi router so the route pattern is known.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := routeLabel(r)
			code := ww.Status()
			if code == 0 {
				code = http.StatusOK
			}
			apiRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(code)).Inc()
			apiRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
			apiResponseBytes.WithLabelValues(route).Observe(float64(ww.BytesWritten()))
		})
	}
}

// routeLabel keeps label cardinality bounded: raw paths never become labels.
func routeLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return RouteUnmatched
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return RouteUnmatched
}
