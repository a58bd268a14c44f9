package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "messenger_ws_connections",
		Help: "Current number of registered live connections",
	})
	WsEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_ws_events_total",
		Help: "Total number of inbound websocket events by type",
	}, []string{"type"})
	FanoutDeliveries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "messenger_fanout_deliveries_total",
		Help: "Total number of payloads pushed to live connections",
	})
	OfflineDispatches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "messenger_offline_dispatches_total",
		Help: "Total number of offline push notifications enqueued",
	})
	SweptMessages = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "messenger_swept_messages_total",
		Help: "Total number of self-destructed messages reaped",
	})
	HttpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HttpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(
		WsConnections, WsEventsTotal, FanoutDeliveries, OfflineDispatches,
		SweptMessages, HttpRequestsTotal, HttpRequestDuration,
	)
}

// GinMiddleware records basic request metrics for Prometheus to scrape.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		labels := prometheus.Labels{"method": c.Request.Method, "path": path, "status": status}
		HttpRequestsTotal.With(labels).Inc()
		HttpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}
