package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/pagerank/internal/config"
	"github.com/nao1215/pagerank/internal/model"
	"golang.org/x/sync/errgroup"
)

// BatchProcessor ranks several corpora concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each corpus, so that
	// per-corpus configuration overrides can be applied.
	pipelineFactory func(corpus string) *Pipeline

	// concurrency is the maximum number of corpora ranked at once.
	concurrency int

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of corpora ranked at once.
// Values below one are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
// pipelineFactory is called once per corpus.
func NewBatchProcessor(pipelineFactory func(corpus string) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     config.DefaultBatchSize,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatchWithCallback ranks every corpus and calls callback as each
// one finishes, with the corpus index in corpora. A failing corpus does not
// stop the others; its error is recorded on its report. The callback runs
// on the worker goroutine and must be safe for concurrent use. The returned
// error is non-nil only when ctx was cancelled.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	corpora []string,
	callback func(report *model.RankReport, index int),
) error {
	bp.logger.Info("starting batch processing",
		"total_corpora", len(corpora),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, corpus := range corpora {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("ranking corpus",
				"corpus", corpus,
				"index", i+1,
				"total", len(corpora),
			)

			report := model.NewRankReport(corpus)
			_ = bp.pipelineFactory(corpus).Execute(ctx, report) //nolint:errcheck // Error is stored in report

			if report.Error != nil {
				bp.logger.Warn("ranking failed",
					"corpus", corpus,
					"error", report.Error,
				)
			} else {
				bp.logger.Info("ranking completed", "corpus", corpus)
			}

			callback(report, i)

			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch processing complete",
		"total_corpora", len(corpora),
		"elapsed", time.Since(startTime),
	)

	return err
}
