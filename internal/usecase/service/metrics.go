package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	statusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issue_status_transitions_total",
			Help: "Number of recorded issue status transitions",
		},
		[]string{"from", "to"},
	)

	snapshotsStoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_snapshots_total",
			Help: "Number of organization analytics snapshots by outcome",
		},
		[]string{"result"},
	)
)
