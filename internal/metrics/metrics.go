package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rental_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "route"})

	BookingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_bookings_total",
		Help: "Booking ledger outcomes, labeled by operation and result",
	}, []string{"operation", "result"})

	TxRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rental_tx_retries_total",
		Help: "Transactions retried after a serialization failure or deadlock",
	})

	SearchCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_search_cache_total",
		Help: "Search cache lookups, labeled hit or miss",
	}, []string{"result"})
)
