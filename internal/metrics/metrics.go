package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "volunteer",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "volunteer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "volunteer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	slotReservations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "volunteer",
			Subsystem: "ledger",
			Name:      "slot_reservations_total",
			Help:      "Slot reservation attempts by outcome.",
		},
		[]string{"result"},
	)

	slotReleases = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "volunteer",
			Subsystem: "ledger",
			Name:      "slot_releases_total",
			Help:      "Slots returned by reject, withdraw or compensation.",
		},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "volunteer",
			Subsystem: "notify",
			Name:      "notifications_total",
			Help:      "Notification dispatch outcomes.",
		},
		[]string{"result"},
	)

	relayPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "volunteer",
			Subsystem: "notify",
			Name:      "relay_messages_total",
			Help:      "Notifications forwarded to Kafka by outcome.",
		},
		[]string{"result"},
	)

	ratingRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "volunteer",
			Subsystem: "rating",
			Name:      "cas_retries_total",
			Help:      "Rating compare-and-swap retries.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		slotReservations,
		slotReleases,
		notifications,
		relayPublished,
		ratingRetries,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware 记录请求数与耗时，path 取路由模板避免高基数
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func RecordReservation(ok bool) {
	if ok {
		slotReservations.WithLabelValues("reserved").Inc()
		return
	}
	slotReservations.WithLabelValues("full").Inc()
}

func RecordRelease() {
	slotReleases.Inc()
}

// RecordNotification result: sent / dropped / failed / mailed / mail_failed
func RecordNotification(result string) {
	notifications.WithLabelValues(result).Inc()
}

func RecordRelay(ok bool) {
	if ok {
		relayPublished.WithLabelValues("sent").Inc()
		return
	}
	relayPublished.WithLabelValues("failed").Inc()
}

func RecordRatingRetry() {
	ratingRetries.Inc()
}
