package metrics

import (
	"time"

	"github.com/agenthands/casegraph/internal/core/model"
)

const (
	OutcomeInstalled  = "installed"
	OutcomeSuperseded = "superseded"
	OutcomeFetchError = "fetch_error"
)

func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// SnapshotInstalled records a pipeline run whose result became current.
func (r *Registry) SnapshotInstalled(source string, duration time.Duration, snap *model.Snapshot) {
	r.PipelineRunsTotal.WithLabelValues(source, OutcomeInstalled).Inc()
	r.PipelineDuration.WithLabelValues(source).Observe(duration.Seconds())
	r.DanglingEdgesTotal.Add(float64(snap.Diagnostics.DanglingEdges))
	r.DuplicateNodesTotal.Add(float64(snap.Diagnostics.DuplicateNodes))
	r.SnapshotNodes.Observe(float64(snap.Stats.TotalNodes))
	r.SnapshotHighRiskNodes.Observe(float64(snap.Stats.HighRiskCount))
}

// SnapshotDiscarded records a run that finished after a newer one was issued.
func (r *Registry) SnapshotDiscarded(source string) {
	r.PipelineRunsTotal.WithLabelValues(source, OutcomeSuperseded).Inc()
	r.StaleDiscardsTotal.WithLabelValues(source).Inc()
}

func (r *Registry) FetchFailed(source string) {
	r.PipelineRunsTotal.WithLabelValues(source, OutcomeFetchError).Inc()
	r.FetchErrorsTotal.WithLabelValues(source).Inc()
}

func (r *Registry) SetActiveViews(n int) {
	r.ActiveCaseViews.Set(float64(n))
}
