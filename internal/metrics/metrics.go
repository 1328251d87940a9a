package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCounter counts all HTTP requests with labels
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	// RequestDurationHistogram records request duration in seconds
	RequestDurationHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	// RequestsSubmitted counts funding and mentorship requests by kind.
	RequestsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "startup_requests_submitted_total",
			Help: "Requests submitted by founders",
		},
		[]string{"kind"},
	)

	// RequestsDecided counts accepted and rejected requests.
	RequestsDecided = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "startup_requests_decided_total",
			Help: "Requests decided by investors and mentors",
		},
		[]string{"kind", "status"},
	)

	// RateLimited counts requests refused by the auth rate limiter.
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "startup_rate_limited_total",
			Help: "Requests rejected with 429 by the token bucket",
		},
		[]string{"path"},
	)

	// CacheLookups counts browse cache hits and misses.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "startup_browse_cache_lookups_total",
			Help: "Browse response cache lookups by result",
		},
		[]string{"result"},
	)
)

// HTTPMetrics records request counts and latencies for one service name.
type HTTPMetrics struct {
	ServiceName string
}

func NewHTTPMetrics(serviceName string) *HTTPMetrics {
	return &HTTPMetrics{ServiceName: serviceName}
}

// Middleware creates an Echo middleware function that records HTTP request metrics
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok && !c.Response().Committed {
				status = he.Code
			}
			method := c.Request().Method
			path := c.Path() // route template keeps label cardinality bounded
			statusStr := strconv.Itoa(status)

			RequestCounter.WithLabelValues(m.ServiceName, method, path, statusStr).Inc()
			RequestDurationHistogram.WithLabelValues(m.ServiceName, method, path, statusStr).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
