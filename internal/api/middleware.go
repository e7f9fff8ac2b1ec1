package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/trapline-dev/trapline/pkg/observability"
)

// requestMetrics records per-request counters and latency.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		observability.RecordHTTPRequest(
			r.Method,
			r.URL.Path,
			strconv.Itoa(ww.Status()),
			time.Since(start),
		)
	})
}

// rateLimiter applies a shared token bucket across all callers. The
// honeypot fronts automated traffic, so a global bucket is enough to
// protect the model backends.
func rateLimiter(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
