package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 练习调度相关指标
	SessionsAssembled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "practice_sessions_assembled_total",
			Help: "Daily practice sessions assembled, by mode",
		},
		[]string{"mode"},
	)

	PartialFetchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "practice_partial_fetch_failures_total",
			Help: "Item sub-batches skipped during session assembly",
		},
	)

	ResultCommits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "practice_result_commits_total",
			Help: "Session result commits, by outcome",
		},
		[]string{"status"},
	)

	ReplayPurchases = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "practice_replay_purchases_total",
			Help: "Replay purchase attempts, by outcome",
		},
		[]string{"result"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(SessionsAssembled)
	prometheus.MustRegister(PartialFetchFailures)
	prometheus.MustRegister(ResultCommits)
	prometheus.MustRegister(ReplayPurchases)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
