package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every collector the service exports.
type Registry struct {
	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Pipeline
	PipelineRunsTotal     *prometheus.CounterVec
	PipelineDuration      *prometheus.HistogramVec
	FetchErrorsTotal      *prometheus.CounterVec
	StaleDiscardsTotal    *prometheus.CounterVec
	DanglingEdgesTotal    prometheus.Counter
	DuplicateNodesTotal   prometheus.Counter
	SnapshotNodes         prometheus.Histogram
	SnapshotHighRiskNodes prometheus.Histogram
	ActiveCaseViews       prometheus.Gauge

	registry *prometheus.Registry
}

// NewRegistry creates a registry with all collectors initialized, plus the
// standard Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
	}

	r.initHTTPMetrics()
	r.initPipelineMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
