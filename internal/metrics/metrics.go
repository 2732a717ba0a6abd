// Package metrics holds the Prometheus instruments of the booking server.
// All collectors are registered with the default registry, so mounting
// promhttp.Handler() is enough to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carebook_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"})

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "carebook_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"})

	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carebook_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"})

	BookingsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "carebook_bookings_created_total",
			Help: "Bookings created.",
		})

	BookingsCancelledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "carebook_bookings_cancelled_total",
			Help: "Bookings cancelled by their owner.",
		})

	PaymentsConfirmedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "carebook_payments_confirmed_total",
			Help: "Payments confirmed against a booking.",
		})

	ExpiredTokensDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "carebook_expired_tokens_deleted_total",
			Help: "Expired session tokens removed by the cleaner.",
		})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		LoginsTotal,
		BookingsCreatedTotal,
		BookingsCancelledTotal,
		PaymentsConfirmedTotal,
		ExpiredTokensDeletedTotal,
	)
}
