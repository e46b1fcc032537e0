package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AdvisoryRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisory_runs_total",
			Help: "Total number of advisory runs by final status",
		},
		[]string{"status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "advisory_stage_duration_seconds",
			Help: "Duration of each pipeline stage in seconds",
		},
		[]string{"stage"},
	)

	GenerativeCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generative_calls_total",
			Help: "Total number of generative model calls by model and outcome",
		},
		[]string{"model", "status"},
	)

	IngestionUnits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestion_units_total",
			Help: "Total number of ingested document units by outcome",
		},
		[]string{"status"},
	)
)
