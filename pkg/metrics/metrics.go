package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter",
		},
	)

	ModuleViewsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_module_views_total",
			Help: "Educational module views served",
		},
	)

	AlertsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_alerts_published_total",
			Help: "Alerts published to the live feed",
		},
		[]string{"type"},
	)

	AlertSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portal_alert_subscribers",
			Help: "Open websocket subscriptions to the alert feed",
		},
	)

	FileOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_file_operations_total",
			Help: "File storage operations by kind and outcome",
		},
		[]string{"operation", "outcome"},
	)
)

// RecordAPIRequest records one served request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordFileOperation counts a storage save or remove.
func RecordFileOperation(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	FileOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// Middleware records request metrics keyed by the matched route pattern so
// path parameters do not explode label cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RecordAPIRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
