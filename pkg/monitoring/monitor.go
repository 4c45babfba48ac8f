package monitoring

import (
	"strconv"
	"sync"
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

	// outcome: accepted, invalid, storage_unavailable, storage_error
	SubmissionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_submissions_total",
			Help: "Survey submissions by profession and outcome",
		},
		[]string{"profession", "outcome"},
	)

	NotificationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_notifications_total",
			Help: "Submission notifications by outcome",
		},
		[]string{"outcome"},
	)

	DimensionScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "survey_dimension_score",
			Help:    "Distribution of computed dimension averages",
			Buckets: []float64{1, 1.5, 2, 2.5, 3, 3.5, 4, 4.5, 5},
		},
		[]string{"dimension"},
	)

	SummaryCacheCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_summary_cache_total",
			Help: "Summary cache lookups by result",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// Init 注册指标，重复调用无副作用
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(SubmissionCounter)
		prometheus.MustRegister(NotificationCounter)
		prometheus.MustRegister(DimensionScore)
		prometheus.MustRegister(SummaryCacheCounter)
	})
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
