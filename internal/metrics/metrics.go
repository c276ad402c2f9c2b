// internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtside_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courtside_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtside_reservations_total",
			Help: "Reservation attempts by outcome",
		},
		[]string{"outcome"},
	)

	AvailabilityConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtside_availability_conflicts_total",
			Help: "Unavailable availability checks by conflict type",
		},
		[]string{"conflict_type"},
	)

	PricingFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courtside_pricing_fallbacks_total",
			Help: "Price evaluations that fell back to the base price",
		},
	)

	CancellationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courtside_cancellations_total",
			Help: "Total number of reservation cancellations",
		},
	)

	WaitlistNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtside_waitlist_notifications_total",
			Help: "Waitlist notifications by delivery status",
		},
		[]string{"status"},
	)

	WaitlistExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courtside_waitlist_expired_total",
			Help: "Waitlist entries expired by the scheduler",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordReservation(outcome string) {
	ReservationsTotal.WithLabelValues(outcome).Inc()
}

// RecordConflict counts an unavailable check. An empty type means the check
// itself failed.
func RecordConflict(conflictType string) {
	if conflictType == "" {
		conflictType = "error"
	}
	AvailabilityConflictsTotal.WithLabelValues(conflictType).Inc()
}

func RecordPricingFallback() {
	PricingFallbacksTotal.Inc()
}

func RecordCancellation() {
	CancellationsTotal.Inc()
}

func RecordWaitlistNotification(status string) {
	WaitlistNotificationsTotal.WithLabelValues(status).Inc()
}

func RecordWaitlistExpired(n int64) {
	if n > 0 {
		WaitlistExpiredTotal.Add(float64(n))
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
