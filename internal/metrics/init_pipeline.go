package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPipelineMetrics() {
	r.PipelineRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "casegraph_pipeline_runs_total",
			Help: "Filter-apply runs by data source and outcome",
		},
		[]string{"source", "outcome"},
	)

	r.PipelineDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "casegraph_pipeline_duration_seconds",
			Help:    "Time from fetch start to snapshot install in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	r.FetchErrorsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "casegraph_fetch_errors_total",
			Help: "Raw graph fetches that failed",
		},
		[]string{"source"},
	)

	r.StaleDiscardsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "casegraph_stale_snapshots_discarded_total",
			Help: "Computed snapshots dropped because a newer request was issued",
		},
		[]string{"source"},
	)

	r.DanglingEdgesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "casegraph_dangling_edges_dropped_total",
			Help: "Edges dropped because an endpoint was missing from the node list",
		},
	)

	r.DuplicateNodesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "casegraph_duplicate_nodes_dropped_total",
			Help: "Nodes dropped because their id was already present",
		},
	)

	r.SnapshotNodes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "casegraph_snapshot_nodes",
			Help:    "Node count of installed snapshots",
			Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000},
		},
	)

	r.SnapshotHighRiskNodes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "casegraph_snapshot_high_risk_nodes",
			Help:    "HIGH tier node count of installed snapshots",
			Buckets: []float64{0, 1, 5, 10, 50, 100},
		},
	)

	r.ActiveCaseViews = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "casegraph_active_case_views",
			Help: "Cases with a live view",
		},
	)
}
