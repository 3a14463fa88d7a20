package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RecordRun records one run of a ranking method.
func (r *Registry) RecordRun(method string, err error) {
	if r == nil {
		return
	}
	r.RunsTotal.WithLabelValues(method).Inc()
	if err != nil {
		r.RunErrorsTotal.WithLabelValues(method).Inc()
	}
}

// ObserveIterations records how many iterations the solver needed.
func (r *Registry) ObserveIterations(n int) {
	if r == nil {
		return
	}
	r.SolverIterations.Observe(float64(n))
}

// AddSamples records n random walk samples.
func (r *Registry) AddSamples(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.SamplesTotal.Add(float64(n))
}

// SetCorpusSize records the size of a crawled corpus.
func (r *Registry) SetCorpusSize(corpus string, pages, links int) {
	if r == nil {
		return
	}
	r.CorpusPages.WithLabelValues(corpus).Set(float64(pages))
	r.CorpusLinks.WithLabelValues(corpus).Set(float64(links))
}

// ObserveStep records the duration of a pipeline step.
func (r *Registry) ObserveStep(step string, duration time.Duration) {
	if r == nil {
		return
	}
	r.StepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// WriteTextfile writes all metrics in the Prometheus text format to path,
// for pickup by the node exporter textfile collector. The parent directory
// is created if needed.
func (r *Registry) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
