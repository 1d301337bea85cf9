// Package metrics holds the Prometheus instruments of the records service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fithub"

type Manager struct {
	// counters
	HTTPRequests   *prometheus.CounterVec
	SyncRuns       *prometheus.CounterVec
	PRCalculations prometheus.Counter

	// gauges
	PREntries prometheus.Gauge
}

// NewTestManager returns a Manager on a private registry.
func NewTestManager() *Manager {
	m, _ := NewTestManagerAndRegistry()
	return m
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager(reg), reg
}

func NewManager(reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "The total number of HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		SyncRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "The total number of backend sync runs by outcome",
		}, []string{"status"}),
		PRCalculations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pr_calculations_total",
			Help:      "The total number of full personal record recalculations",
		}),
		PREntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pr_entries",
			Help:      "Number of PR-flagged sets in the latest calculation",
		}),
	}
}
