// Package metrics holds the service's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	OrdersPlaced            prometheus.Counter
	OrderFailures           *prometheus.CounterVec
	PickupsScheduled        prometheus.Counter
	InventoryCommitFailures prometheus.Counter
	CacheHits               *prometheus.CounterVec
	CacheMisses             *prometheus.CounterVec
	RequestDuration         *prometheus.HistogramVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		OrdersPlaced: factory.NewCounter(prometheus.CounterOpts{
			Name: "kauppa_orders_placed_total",
			Help: "Orders successfully placed.",
		}),
		OrderFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kauppa_order_failures_total",
			Help: "Failed order placements by fault kind.",
		}, []string{"kind"}),
		PickupsScheduled: factory.NewCounter(prometheus.CounterOpts{
			Name: "kauppa_pickups_scheduled_total",
			Help: "Return pickups successfully scheduled.",
		}),
		InventoryCommitFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "kauppa_inventory_commit_failures_total",
			Help: "Best-effort inventory commits that failed after order placement.",
		}),
		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kauppa_cache_hits_total",
			Help: "Aggregate cache hits.",
		}, []string{"aggregate"}),
		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kauppa_cache_misses_total",
			Help: "Aggregate cache misses.",
		}, []string{"aggregate"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kauppa_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}
