// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route pattern and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern.",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "route"},
	)

	// SyncRunsTotal counts reconciliation passes; result is success or failure.
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refsync_runs_total",
			Help: "Back-reference reconciliation passes by relation and result.",
		},
		[]string{"relation", "result"},
	)

	// SyncRefsTotal counts back-references changed; op is added or removed.
	SyncRefsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refsync_refs_total",
			Help: "Back-references added or removed by relation.",
		},
		[]string{"relation", "op"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Outbound emails by kind and result.",
		},
		[]string{"kind", "result"},
	)
)
