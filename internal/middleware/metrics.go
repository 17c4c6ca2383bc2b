package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagedoor_http_requests_total",
			Help: "Total HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stagedoor_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	bookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stagedoor_bookings_created_total",
		Help: "Bookings successfully created.",
	})

	bookingsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagedoor_bookings_rejected_total",
			Help: "Booking attempts rejected, by error code.",
		},
		[]string{"code"},
	)
)

// Metrics records request counts and latencies per route. The route label
// uses the gin template path so cardinality stays bounded.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		requestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// CountBookingCreated bumps the booking success counter.
func CountBookingCreated() {
	bookingsCreated.Inc()
}

// CountBookingRejected bumps the rejection counter for an error code.
func CountBookingRejected(code string) {
	bookingsRejected.WithLabelValues(code).Inc()
}
