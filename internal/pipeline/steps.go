package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"

	"github.com/nao1215/pagerank/internal/config"
	"github.com/nao1215/pagerank/internal/crawler"
	"github.com/nao1215/pagerank/internal/metrics"
	"github.com/nao1215/pagerank/internal/model"
	"github.com/nao1215/pagerank/internal/rank"
)

// Step names.
const (
	StepCrawl     = "crawl"
	StepSample    = "sample"
	StepIterate   = "iterate"
	StepAgreement = "agreement"
)

// CrawlStep reads the corpus directory into a link graph.
// Every later step depends on the graph it stores on the report.
type CrawlStep struct {
	// extensions are the file extensions treated as documents.
	extensions []string

	// ignorePatterns are glob patterns for file names to leave out.
	ignorePatterns []string

	// workers bounds concurrent file parsing.
	workers int

	logger  *slog.Logger
	metrics *metrics.Registry
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlExtensions sets the file extensions to include.
func WithCrawlExtensions(exts []string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.extensions = exts
	}
}

// WithCrawlIgnorePatterns sets file name patterns to skip.
func WithCrawlIgnorePatterns(patterns []string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.ignorePatterns = patterns
	}
}

// WithCrawlWorkers sets the number of files parsed concurrently.
func WithCrawlWorkers(n int) CrawlStepOption {
	return func(s *CrawlStep) {
		s.workers = n
	}
}

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// WithCrawlMetrics records corpus sizes into r.
func WithCrawlMetrics(r *metrics.Registry) CrawlStepOption {
	return func(s *CrawlStep) {
		s.metrics = r
	}
}

// NewCrawlStep creates a new crawl step.
func NewCrawlStep(opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		extensions: config.DefaultExtensions,
		workers:    config.DefaultWorkers,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return StepCrawl
}

// Do executes the crawl step.
func (s *CrawlStep) Do(ctx context.Context, report *model.RankReport) error {
	corpus, err := crawler.Crawl(ctx, report.Corpus,
		crawler.WithExtensions(s.extensions),
		crawler.WithIgnorePatterns(s.ignorePatterns),
		crawler.WithWorkers(s.workers),
		crawler.WithLogger(s.logger),
	)
	if err != nil {
		return err
	}

	report.SetGraph(corpus.Graph)
	report.Documents = corpus.Documents

	s.metrics.SetCorpusSize(filepath.Base(filepath.Clean(report.Corpus)), report.Pages, report.Links)

	s.logger.Info("crawl completed",
		"pages", report.Pages,
		"links", report.Links,
		"dangling", len(report.Dangling),
		"skipped_links", corpus.Skipped,
	)

	return nil
}

// SampleStep estimates PageRank with the random surfer walk.
type SampleStep struct {
	damping float64
	samples int

	// seed fixes the walk. Zero draws a fresh seed for every run, which
	// is then recorded on the report so the run can be repeated.
	seed uint64

	logger  *slog.Logger
	metrics *metrics.Registry
}

// SampleStepOption configures a SampleStep.
type SampleStepOption func(*SampleStep)

// WithSampleSeed fixes the random walk seed.
func WithSampleSeed(seed uint64) SampleStepOption {
	return func(s *SampleStep) {
		s.seed = seed
	}
}

// WithSampleLogger sets a custom logger for the sample step.
func WithSampleLogger(logger *slog.Logger) SampleStepOption {
	return func(s *SampleStep) {
		s.logger = logger
	}
}

// WithSampleMetrics records runs and sample counts into r.
func WithSampleMetrics(r *metrics.Registry) SampleStepOption {
	return func(s *SampleStep) {
		s.metrics = r
	}
}

// NewSampleStep creates a sampling step with the given damping factor and
// sample count.
func NewSampleStep(damping float64, samples int, opts ...SampleStepOption) *SampleStep {
	s := &SampleStep{
		damping: damping,
		samples: samples,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *SampleStep) Name() string {
	return StepSample
}

// Do executes the sample step.
func (s *SampleStep) Do(_ context.Context, report *model.RankReport) error {
	if report.Graph == nil {
		return ErrNoGraph
	}

	seed := s.seed
	for seed == 0 {
		seed = rand.Uint64() //nolint:gosec // Walk seeds are not security sensitive
	}

	dist, err := rank.Estimate(report.Graph, s.damping, s.samples, rank.WithSeed(seed))
	s.metrics.RecordRun(metrics.MethodSampling, err)
	if err != nil {
		return fmt.Errorf("sampling failed: %w", err)
	}
	s.metrics.AddSamples(s.samples)

	report.Damping = s.damping
	report.Samples = s.samples
	report.Seed = seed
	report.Sampling = model.Ranking(dist)

	s.logger.Debug("sampling completed", "samples", s.samples, "seed", seed)

	return nil
}

// IterateStep solves PageRank by fixed-point iteration.
type IterateStep struct {
	damping       float64
	threshold     float64
	maxIterations int

	logger  *slog.Logger
	metrics *metrics.Registry
}

// IterateStepOption configures an IterateStep.
type IterateStepOption func(*IterateStep)

// WithIterateThreshold sets the convergence threshold.
func WithIterateThreshold(threshold float64) IterateStepOption {
	return func(s *IterateStep) {
		s.threshold = threshold
	}
}

// WithIterateMaxIterations sets the iteration cap.
func WithIterateMaxIterations(n int) IterateStepOption {
	return func(s *IterateStep) {
		s.maxIterations = n
	}
}

// WithIterateLogger sets a custom logger for the iterate step.
func WithIterateLogger(logger *slog.Logger) IterateStepOption {
	return func(s *IterateStep) {
		s.logger = logger
	}
}

// WithIterateMetrics records runs and iteration counts into r.
func WithIterateMetrics(r *metrics.Registry) IterateStepOption {
	return func(s *IterateStep) {
		s.metrics = r
	}
}

// NewIterateStep creates an iteration step with the given damping factor.
func NewIterateStep(damping float64, opts ...IterateStepOption) *IterateStep {
	s := &IterateStep{
		damping:       damping,
		threshold:     rank.DefaultThreshold,
		maxIterations: rank.DefaultMaxIterations,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *IterateStep) Name() string {
	return StepIterate
}

// Do executes the iterate step.
func (s *IterateStep) Do(_ context.Context, report *model.RankReport) error {
	if report.Graph == nil {
		return ErrNoGraph
	}

	res, err := rank.Iterate(report.Graph, s.damping,
		rank.WithThreshold(s.threshold),
		rank.WithMaxIterations(s.maxIterations),
	)
	s.metrics.RecordRun(metrics.MethodIteration, err)
	if err != nil {
		return fmt.Errorf("iteration failed: %w", err)
	}
	s.metrics.ObserveIterations(res.Iterations)

	report.Damping = s.damping
	report.Iteration = model.Ranking(res.Ranks)
	report.IterationRaw = model.Ranking(res.Raw)
	report.Iterations = res.Iterations

	s.logger.Debug("iteration converged",
		"iterations", res.Iterations,
		"delta", res.Delta,
		"raw_mass", res.Raw.Sum(),
	)

	return nil
}

// AgreementStep compares the sampling and iteration rankings.
// It only reports; disagreement is logged but is not an error.
type AgreementStep struct {
	tolerance float64
	logger    *slog.Logger
}

// AgreementStepOption configures an AgreementStep.
type AgreementStepOption func(*AgreementStep)

// WithAgreementTolerance sets the largest difference still reported as
// agreement. Non-positive values keep the default.
func WithAgreementTolerance(tolerance float64) AgreementStepOption {
	return func(s *AgreementStep) {
		if tolerance > 0 {
			s.tolerance = tolerance
		}
	}
}

// WithAgreementLogger sets a custom logger for the agreement step.
func WithAgreementLogger(logger *slog.Logger) AgreementStepOption {
	return func(s *AgreementStep) {
		s.logger = logger
	}
}

// NewAgreementStep creates a new agreement step.
func NewAgreementStep(opts ...AgreementStepOption) *AgreementStep {
	s := &AgreementStep{
		tolerance: model.DefaultAgreementTolerance,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *AgreementStep) Name() string {
	return StepAgreement
}

// Do executes the agreement step.
func (s *AgreementStep) Do(_ context.Context, report *model.RankReport) error {
	if len(report.Sampling) == 0 || len(report.Iteration) == 0 {
		s.logger.Debug("skipping agreement, a ranking is missing")
		return nil
	}

	agreement := model.Compare(report.Sampling, report.Iteration)
	agreement.Tolerance = s.tolerance
	report.Agreement = &agreement

	if !agreement.Agrees() {
		s.logger.Warn("ranking methods disagree",
			"corpus", report.Corpus,
			"page", agreement.Page,
			"max_diff", agreement.MaxDiff,
			"tolerance", s.tolerance,
		)
	}

	return nil
}

// DefaultPipeline creates a pipeline that crawls cfg's first corpus and
// ranks it with both methods. Use Config.ForCorpus to get a per-corpus
// config first.
//
// Both ranking steps always run, so the pipeline continues past a failed
// ranking method; a failed crawl still stops it because later steps return
// ErrNoGraph.
func DefaultPipeline(cfg *config.Config, opts ...Option) *Pipeline {
	opts = append([]Option{WithContinueOnError(true)}, opts...)
	p := New(opts...)

	p.AddSteps(
		NewCrawlStep(
			WithCrawlExtensions(cfg.Extensions),
			WithCrawlIgnorePatterns(cfg.IgnorePatterns),
			WithCrawlWorkers(cfg.Workers),
			WithCrawlLogger(p.logger),
			WithCrawlMetrics(p.metrics),
		),
		NewSampleStep(cfg.Damping, cfg.Samples,
			WithSampleSeed(cfg.Seed),
			WithSampleLogger(p.logger),
			WithSampleMetrics(p.metrics),
		),
		NewIterateStep(cfg.Damping,
			WithIterateThreshold(cfg.Threshold),
			WithIterateMaxIterations(cfg.MaxIterations),
			WithIterateLogger(p.logger),
			WithIterateMetrics(p.metrics),
		),
		NewAgreementStep(
			WithAgreementTolerance(cfg.Tolerance),
			WithAgreementLogger(p.logger),
		),
	)

	return p
}
