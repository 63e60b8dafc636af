// README: Prometheus collectors for quotes, price validation, dispatch and HTTP traffic.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vtc"

var (
	QuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "quotes_total", Help: "Quotes computed, by category and whether the traffic fare won"},
		[]string{"category", "traffic_surcharge"},
	)
	PriceValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "price_validations_total", Help: "Server-side price checks by outcome (accepted, rejected, fail_open)"},
		[]string{"outcome"},
	)
	BookingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "booking_transitions_total", Help: "Booking status transitions by target status and result"},
		[]string{"to", "result"},
	)
	EligibleDrivers = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dispatch_eligible_drivers",
		Help:      "Number of eligible drivers returned per availability check",
		Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
	})
	AssignmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "dispatch_assignments_total", Help: "Driver assignment attempts by result"},
		[]string{"result"},
	)
	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "rate_limited_total", Help: "Requests rejected by the rate limiter"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
