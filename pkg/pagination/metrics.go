package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_pagination_fetches_total",
		Help: "Page fetches by list and result (success, error, discarded)",
	}, []string{"list", "result"})

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_pagination_fetch_duration_seconds",
		Help:    "Page fetch duration in seconds by list",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"list"})

	resetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_pagination_resets_total",
		Help: "Query identity resets by list",
	}, []string{"list"})

	stepBacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_pagination_step_backs_total",
		Help: "Cursor step-backs after removals by list",
	}, []string{"list"})
)
