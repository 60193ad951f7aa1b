package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks HTTP requests by route and status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration tracks HTTP request latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ReservationsTotal counts reservation attempts by outcome
	// (paid, pending, cancelled, payment_failed).
	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservations_total",
			Help: "Total number of reservation attempts by outcome",
		},
		[]string{"status"},
	)

	// ReservationAmountCents tracks charged amounts in minor currency units.
	ReservationAmountCents = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reservation_amount_cents",
			Help:    "Charged reservation amounts in cents",
			Buckets: []float64{1000, 2500, 5000, 10000, 25000, 50000, 100000},
		},
	)

	// RoomsReleasedBySweep counts rooms the reconciliation sweep returned to
	// available.
	RoomsReleasedBySweep = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rooms_released_by_sweep_total",
			Help: "Rooms released back to available by the reconciliation sweep",
		},
	)
)

// Middleware records request count and latency for every route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		RequestsTotal.WithLabelValues(c.Request.Method, c.FullPath(), status).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, c.FullPath()).Observe(duration)
	}
}
