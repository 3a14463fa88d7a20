package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ranking method label values.
const (
	MethodSampling  = "sampling"
	MethodIteration = "iteration"
)

// Registry holds all metrics for a pagerank run.
//
// A nil *Registry is valid and records nothing, so components can take an
// optional registry without checking for nil at every call site.
type Registry struct {
	// Run Metrics
	RunsTotal      *prometheus.CounterVec
	RunErrorsTotal *prometheus.CounterVec

	// Solver Metrics
	SolverIterations prometheus.Histogram
	SamplesTotal     prometheus.Counter

	// Corpus Metrics
	CorpusPages *prometheus.GaugeVec
	CorpusLinks *prometheus.GaugeVec

	// Pipeline Metrics
	StepDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewRegistry creates a new metrics registry with all metrics initialized.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initRunMetrics()
	r.initCorpusMetrics()
	r.initPipelineMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

func (r *Registry) initRunMetrics() {
	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagerank_runs_total",
			Help: "Total number of ranking runs by method",
		},
		[]string{"method"},
	)

	r.RunErrorsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagerank_run_errors_total",
			Help: "Total number of failed ranking runs by method",
		},
		[]string{"method"},
	)

	r.SolverIterations = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pagerank_solver_iterations",
			Help:    "Number of iterations the fixed-point solver needed to converge",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 500, 1000, 10000},
		},
	)

	r.SamplesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "pagerank_samples_total",
			Help: "Total number of random walk samples drawn",
		},
	)
}

func (r *Registry) initCorpusMetrics() {
	r.CorpusPages = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pagerank_corpus_pages",
			Help: "Number of pages in the most recently crawled corpus",
		},
		[]string{"corpus"},
	)

	r.CorpusLinks = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pagerank_corpus_links",
			Help: "Number of links between pages in the most recently crawled corpus",
		},
		[]string{"corpus"},
	)
}

func (r *Registry) initPipelineMetrics() {
	r.StepDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pagerank_step_duration_seconds",
			Help:    "Pipeline step duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
		},
		[]string{"step"},
	)
}
