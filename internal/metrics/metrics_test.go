package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if r.RunsTotal == nil || r.RunErrorsTotal == nil {
		t.Error("run metrics not initialized")
	}
	if r.SolverIterations == nil || r.SamplesTotal == nil {
		t.Error("solver metrics not initialized")
	}
	if r.CorpusPages == nil || r.StepDuration == nil {
		t.Error("corpus or pipeline metrics not initialized")
	}
	if r.GetPrometheusRegistry() == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestRecordRun(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.RecordRun(MethodIteration, nil)
	r.RecordRun(MethodIteration, errors.New("did not converge"))
	r.RecordRun(MethodSampling, nil)

	var metric dto.Metric
	if err := r.RunsTotal.WithLabelValues(MethodIteration).Write(&metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if got := metric.GetCounter().GetValue(); got != 2 {
		t.Errorf("iteration runs = %v, want 2", got)
	}

	metric.Reset()
	if err := r.RunErrorsTotal.WithLabelValues(MethodIteration).Write(&metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if got := metric.GetCounter().GetValue(); got != 1 {
		t.Errorf("iteration errors = %v, want 1", got)
	}

	metric.Reset()
	if err := r.RunErrorsTotal.WithLabelValues(MethodSampling).Write(&metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if got := metric.GetCounter().GetValue(); got != 0 {
		t.Errorf("sampling errors = %v, want 0", got)
	}
}

func TestObserveIterationsAndSamples(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.ObserveIterations(12)
	r.ObserveIterations(30)
	r.AddSamples(10000)
	r.AddSamples(-5)

	var metric dto.Metric
	if err := r.SolverIterations.Write(&metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if got := metric.GetHistogram().GetSampleCount(); got != 2 {
		t.Errorf("iteration observations = %d, want 2", got)
	}
	if got := metric.GetHistogram().GetSampleSum(); got != 42 {
		t.Errorf("iteration sum = %v, want 42", got)
	}

	metric.Reset()
	if err := r.SamplesTotal.Write(&metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if got := metric.GetCounter().GetValue(); got != 10000 {
		t.Errorf("samples = %v, want 10000", got)
	}
}

func TestSetCorpusSizeAndObserveStep(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.SetCorpusSize("corpus0", 4, 6)
	r.ObserveStep("crawl", 20*time.Millisecond)

	var metric dto.Metric
	if err := r.CorpusPages.WithLabelValues("corpus0").Write(&metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if got := metric.GetGauge().GetValue(); got != 4 {
		t.Errorf("pages = %v, want 4", got)
	}

	metric.Reset()
	if err := r.CorpusLinks.WithLabelValues("corpus0").Write(&metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if got := metric.GetGauge().GetValue(); got != 6 {
		t.Errorf("links = %v, want 6", got)
	}

	observer, err := r.StepDuration.GetMetricWithLabelValues("crawl")
	if err != nil {
		t.Fatalf("failed to get metric: %v", err)
	}
	metric.Reset()
	if err := observer.(prometheus.Metric).Write(&metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if got := metric.GetHistogram().GetSampleCount(); got != 1 {
		t.Errorf("step observations = %d, want 1", got)
	}
}

func TestNilRegistry(t *testing.T) {
	t.Parallel()

	var r *Registry
	r.RecordRun(MethodSampling, errors.New("boom"))
	r.ObserveIterations(1)
	r.AddSamples(1)
	r.SetCorpusSize("x", 1, 1)
	r.ObserveStep("crawl", time.Second)
	if err := r.WriteTextfile(filepath.Join(t.TempDir(), "never.prom")); err != nil {
		t.Errorf("expected nil registry to ignore export, got %v", err)
	}
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.RecordRun(MethodSampling, nil)
	r.AddSamples(500)

	path := filepath.Join(t.TempDir(), "nested", "pagerank.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		`pagerank_runs_total{method="sampling"} 1`,
		"pagerank_samples_total 500",
		"# HELP pagerank_solver_iterations",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected textfile to contain %q, got:\n%s", want, out)
		}
	}
}
