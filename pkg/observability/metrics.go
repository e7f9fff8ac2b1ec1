package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trapline_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trapline_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Engagement metrics
	engagementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trapline_engagements_total",
			Help: "Total number of engagement requests by outcome",
		},
		[]string{"outcome"},
	)

	engagementDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trapline_engagement_duration_seconds",
			Help:    "End-to-end engagement pipeline duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	// Detection metrics
	detectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trapline_detections_total",
			Help: "Total number of detection passes",
		},
		[]string{"verdict", "mode"},
	)

	// Reply metrics
	repliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trapline_replies_total",
			Help: "Total number of generated replies by strategy and source",
		},
		[]string{"strategy", "source"},
	)

	// Extraction metrics
	entitiesExtractedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trapline_entities_extracted_total",
			Help: "Total number of distinct indicators extracted",
		},
		[]string{"type"},
	)

	// Storage metrics
	storeDegraded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trapline_session_store_degraded",
			Help: "1 while the session store runs on the in-memory fallback",
		},
	)

	initOnce sync.Once
)

// InitMetrics registers all Prometheus collectors. Safe to call more
// than once.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			engagementsTotal,
			engagementDuration,
			detectionsTotal,
			repliesTotal,
			entitiesExtractedTotal,
			storeDegraded,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records HTTP request metrics.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordEngagement records one engagement pipeline run.
func RecordEngagement(outcome string, duration time.Duration) {
	engagementsTotal.WithLabelValues(outcome).Inc()
	engagementDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordDetection records one detection pass. Mode is "classifier" or
// "degraded".
func RecordDetection(verdict string, degraded bool) {
	mode := "classifier"
	if degraded {
		mode = "degraded"
	}
	detectionsTotal.WithLabelValues(verdict, mode).Inc()
}

// RecordReply records one generated reply. Source is "model" or
// "fallback".
func RecordReply(strategy string, fallback bool) {
	source := "model"
	if fallback {
		source = "fallback"
	}
	repliesTotal.WithLabelValues(strategy, source).Inc()
}

// RecordEntities adds newly extracted indicator counts per type.
func RecordEntities(entityType string, count int) {
	if count > 0 {
		entitiesExtractedTotal.WithLabelValues(entityType).Add(float64(count))
	}
}

// SetStoreDegraded flips the fallback-storage gauge.
func SetStoreDegraded(degraded bool) {
	if degraded {
		storeDegraded.Set(1)
	} else {
		storeDegraded.Set(0)
	}
}
