package monitoring

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector exposes the HTTP level Prometheus metrics of a service.
// Domain packages register their own collectors via promauto.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	inflightRequests prometheus.Gauge
	buildInfo        *prometheus.GaugeVec
}

// NewMetricsCollector registers the standard HTTP metrics under the service
// name as namespace. Prometheus forbids hyphens in metric names so they are
// folded to underscores.
func NewMetricsCollector(serviceName, version, commit string) *MetricsCollector {
	ns := strings.ReplaceAll(serviceName, "-", "_")

	mc := &MetricsCollector{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		inflightRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: ns,
				Name:      "http_requests_inflight",
				Help:      "Number of HTTP requests currently being served",
			},
		),
		buildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Name:      "build_info",
				Help:      "Build information of the running binary",
			},
			[]string{"version", "commit"},
		),
	}

	prometheus.MustRegister(mc.requestsTotal, mc.requestDuration, mc.inflightRequests, mc.buildInfo)
	mc.buildInfo.WithLabelValues(version, commit).Set(1)

	return mc
}

// MetricsMiddleware returns middleware that records request counts,
// latencies and in-flight gauge for every route.
func (mc *MetricsCollector) MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		mc.inflightRequests.Inc()
		defer mc.inflightRequests.Dec()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		status := strconv.Itoa(c.Writer.Status())

		mc.requestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		mc.requestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler returns the Prometheus scrape endpoint as a gin handler.
func (mc *MetricsCollector) Handler() gin.HandlerFunc {
	handler := promhttp.Handler()
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}
