// Package metrics provides Prometheus instrumentation for the CardioCare
// client tooling and the share-link service.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardiocare",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cardiocare",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// SubmissionsTotal counts assessment submissions by outcome.
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardiocare",
			Name:      "submissions_total",
			Help:      "Total assessment submissions by outcome.",
		},
		[]string{"status"},
	)

	// ExportsTotal counts PDF document exports.
	ExportsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cardiocare",
		Name:      "exports_total",
		Help:      "Total PDF report exports.",
	})

	// ShareLinksTotal counts share-link operations by result.
	ShareLinksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardiocare",
			Name:      "share_links_total",
			Help:      "Total share-link operations by result.",
		},
		[]string{"result"},
	)

	// ShareLinksActive tracks unexpired, unconsumed share links.
	ShareLinksActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cardiocare",
		Name:      "share_links_active",
		Help:      "Number of currently active share links.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		SubmissionsTotal,
		ExportsTotal,
		ShareLinksTotal,
		ShareLinksActive,
	)
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
