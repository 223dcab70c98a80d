package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "petrent",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "petrent",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "petrent",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "petrent",
			Name:      "bookings_total",
			Help:      "Booking requests by outcome.",
		},
		[]string{"outcome"},
	)

	messages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "petrent",
			Name:      "messages_total",
			Help:      "Chat messages stored, by detected type.",
		},
		[]string{"type"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "petrent",
			Name:      "notifications_total",
			Help:      "Notifications written, by type.",
		},
		[]string{"type"},
	)

	cronRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "petrent",
			Name:      "cron_runs_total",
			Help:      "Background job runs by job and result.",
		},
		[]string{"job", "result"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		bookings,
		messages,
		notifications,
		cronRuns,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// FiberHandler serves Handler on a fiber route.
func FiberHandler() fiber.Handler {
	return adaptor.HTTPHandler(Handler())
}

// Middleware records request counts, durations and in-flight requests.
// The route pattern is used as the path label to keep cardinality bounded.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		path := c.Route().Path
		if path == "" || path == "/" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}

func RecordBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}

func RecordMessage(messageType string) {
	messages.WithLabelValues(messageType).Inc()
}

func RecordNotification(kind string) {
	notifications.WithLabelValues(kind).Inc()
}

// RecordCronRun counts a background job execution.
func RecordCronRun(job string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	cronRuns.WithLabelValues(job, result).Inc()
}
