package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/pagerank/internal/config"
	"github.com/nao1215/pagerank/internal/database"
	pagelog "github.com/nao1215/pagerank/internal/log"
	"github.com/nao1215/pagerank/internal/metrics"
	"github.com/nao1215/pagerank/internal/model"
	"github.com/nao1215/pagerank/internal/pipeline"
	"github.com/nao1215/pagerank/internal/report"
	"github.com/spf13/cobra"
)

// NewRankCmd creates the rank command.
func NewRankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank [corpus-dir]...",
		Short: "Compute PageRank for one or more HTML corpora",
		Long: `Rank reads every HTML file in a directory, builds the graph of links
between them and computes the PageRank of each page twice:

- Sampling: a random surfer follows links, or with probability 1-damping
  jumps to any page, and the time spent on each page is averaged.
- Iteration: the PageRank equations are applied repeatedly until no page
  changes by more than the threshold.

Only links to other files of the same directory count. Links to external
sites, subdirectories or missing files are ignored.

Examples:
  # Rank a corpus
  pagerank rank corpus0

  # Rank several corpora, two at a time
  pagerank rank -b 2 corpus0 corpus1 corpus2

  # Reproducible sampling with more samples
  pagerank rank --seed 42 -n 100000 corpus0

  # Markdown report written to a file
  pagerank rank -m -o report.md corpus0

Configuration file (.pagerank) example:
  defaults:
    damping: 0.85
  corpora:
    corpus0:
      seed: 42
      ignorePatterns:
        - "draft-*"`,
		Args: cobra.ArbitraryArgs,
		RunE: runRankCmd,
	}

	// Ranking flags
	cmd.Flags().Float64P("damping", "d", config.DefaultDamping,
		"Damping factor, strictly between 0 and 1")
	cmd.Flags().IntP("samples", "n", config.DefaultSamples,
		"Number of random walk samples")
	cmd.Flags().Uint64("seed", 0,
		"Random walk seed (0 draws a new seed per run)")
	cmd.Flags().Float64("threshold", config.DefaultThreshold,
		"Convergence threshold of the iterative solver")
	cmd.Flags().Int("max-iterations", config.DefaultMaxIterations,
		"Iteration cap of the iterative solver")
	cmd.Flags().Float64("tolerance", config.DefaultTolerance,
		"Largest per-page difference between the two methods reported as agreement")

	// Corpus flags
	cmd.Flags().StringSlice("ext", config.DefaultExtensions,
		"File extensions treated as pages")
	cmd.Flags().StringSlice("ignore", nil,
		"Glob patterns for file names to leave out")
	cmd.Flags().Int("workers", config.DefaultWorkers,
		"Number of files parsed concurrently per corpus")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of corpora ranked concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .pagerank in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Storage and metrics flags
	cmd.Flags().String("db-dir", "",
		"Directory of the run history database (default: XDG data directory)")
	cmd.Flags().Bool("no-save", false,
		"Do not store runs in the history database")
	cmd.Flags().String("metrics-file", "",
		"Write Prometheus metrics in text format to this file after the run")

	return cmd
}

// runRankCmd executes the rank command.
func runRankCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runRank(ctx, cfg, logger, cmd.OutOrStdout())
}

// getBoolFlag retrieves a bool flag from the command or the root's
// persistent flags.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// newLogger creates the logger selected by the global flags. Logs go to
// the command's error stream so they never mix with reports.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	if getBoolFlag(cmd, "log-json") {
		return pagelog.NewJSONLogger(cmd.ErrOrStderr(), verbose)
	}
	return pagelog.NewLogger(cmd.ErrOrStderr(), verbose)
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Damping, err = flags.GetFloat64("damping"); err != nil {
		return nil, err
	}
	if cfg.Samples, err = flags.GetInt("samples"); err != nil {
		return nil, err
	}
	if cfg.Seed, err = flags.GetUint64("seed"); err != nil {
		return nil, err
	}
	if cfg.Threshold, err = flags.GetFloat64("threshold"); err != nil {
		return nil, err
	}
	if cfg.MaxIterations, err = flags.GetInt("max-iterations"); err != nil {
		return nil, err
	}
	if cfg.Tolerance, err = flags.GetFloat64("tolerance"); err != nil {
		return nil, err
	}
	if cfg.Extensions, err = flags.GetStringSlice("ext"); err != nil {
		return nil, err
	}
	if cfg.IgnorePatterns, err = flags.GetStringSlice("ignore"); err != nil {
		return nil, err
	}
	if cfg.Workers, err = flags.GetInt("workers"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	// An explicit config path must exist; the default locations are optional.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.CorpusConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}
	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave

	if cfg.MetricsFile, err = flags.GetString("metrics-file"); err != nil {
		return nil, err
	}

	cfg.Verbose = getBoolFlag(cmd, "verbose")

	// Runs are stored and compared by absolute path.
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid corpus path %q: %w", arg, err)
		}
		cfg.Corpora = append(cfg.Corpora, abs)
	}

	return cfg, nil
}

// rankRun holds what every corpus of one invocation shares.
type rankRun struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *database.RankDB
	metrics *metrics.Registry
	writer  report.Writer
}

// runRank ranks every configured corpus and writes the reports to out,
// or to cfg.ReportFile when set.
func runRank(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	logger.Info("starting ranking",
		"corpora", cfg.Corpora,
		"damping", cfg.Damping,
		"samples", cfg.Samples,
		"tolerance", cfg.Tolerance,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	run := &rankRun{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewRegistry(),
	}

	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		run.db = db
		logger.Info("database opened", "path", db.Path())
	}

	if cfg.ReportFile != "" {
		f, err := createReportFile(cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	run.writer = newReportWriter(cfg, out)

	var reports []*model.RankReport
	var err error
	if len(cfg.Corpora) > 1 && cfg.BatchSize > 1 {
		reports, err = run.batch(ctx)
	} else {
		reports, err = run.sequential(ctx)
	}

	if cfg.MetricsFile != "" {
		if werr := run.metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
			logger.Error("failed to write metrics", "path", cfg.MetricsFile, "error", werr)
		}
	}

	if err != nil {
		return err
	}
	return failedCorpora(reports)
}

// sequential ranks corpora one at a time.
func (r *rankRun) sequential(ctx context.Context) ([]*model.RankReport, error) {
	reports := make([]*model.RankReport, 0, len(r.cfg.Corpora))
	for _, corpus := range r.cfg.Corpora {
		select {
		case <-ctx.Done():
			return reports, ctx.Err()
		default:
		}

		rankReport := model.NewRankReport(corpus)
		startTime := time.Now()

		// Step errors are recorded on the report.
		_ = r.newPipeline(corpus).Execute(ctx, rankReport) //nolint:errcheck // Error is stored in report

		r.logger.Info("ranking finished",
			"corpus", corpus,
			"elapsed", time.Since(startTime).Round(time.Millisecond),
		)

		r.finish(ctx, rankReport)
		reports = append(reports, rankReport)
	}

	return reports, nil
}

// batch ranks corpora concurrently and writes each report as it finishes.
func (r *rankRun) batch(ctx context.Context) ([]*model.RankReport, error) {
	bp := pipeline.NewBatchProcessor(
		r.newPipeline,
		pipeline.WithConcurrency(r.cfg.BatchSize),
		pipeline.WithBatchLogger(r.logger),
	)

	reports := make([]*model.RankReport, len(r.cfg.Corpora))
	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, r.cfg.Corpora, func(rankReport *model.RankReport, index int) {
		mu.Lock()
		defer mu.Unlock()

		r.finish(ctx, rankReport)
		reports[index] = rankReport
	})

	return reports, err
}

// newPipeline creates the pipeline for one corpus with its config file
// overrides applied.
func (r *rankRun) newPipeline(corpus string) *pipeline.Pipeline {
	return pipeline.DefaultPipeline(r.cfg.ForCorpus(corpus),
		pipeline.WithLogger(r.logger),
		pipeline.WithMetrics(r.metrics),
	)
}

// finish writes and stores a completed report.
func (r *rankRun) finish(ctx context.Context, rankReport *model.RankReport) {
	if _, err := r.writer.Write(rankReport); err != nil {
		r.logger.Error("report failed", "corpus", rankReport.Corpus, "error", err)
	}

	if err := saveRankReport(ctx, r.db, rankReport, r.logger); err != nil {
		r.logger.Error("failed to save run", "corpus", rankReport.Corpus, "error", err)
	}
}

// newReportWriter returns the writer for the configured report format.
func newReportWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out,
			report.WithCorpusHeader(len(cfg.Corpora) > 1),
			report.WithVerbose(cfg.Verbose),
		)
	}
}

// createReportFile creates or truncates the report file.
// Reports may contain local paths, so the file is readable by the owner only.
func createReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// saveRankReport stores a report in the database.
// It is a no-op when db is nil or the run produced no ranking.
func saveRankReport(ctx context.Context, db *database.RankDB, rankReport *model.RankReport, logger *slog.Logger) error {
	if db == nil || !rankReport.HasResults() {
		return nil
	}

	id, err := db.Save(ctx, rankReport)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	logger.Info("run saved to database", "corpus", rankReport.Corpus, "id", id)
	return nil
}

// errCorporaFailed reports that at least one corpus could not be ranked.
var errCorporaFailed = errors.New("ranking failed")

// failedCorpora returns an error naming how many reports carry an error.
func failedCorpora(reports []*model.RankReport) error {
	failed := 0
	for _, r := range reports {
		if r != nil && r.Error != nil {
			failed++
		}
	}
	if failed == 0 {
		return nil
	}
	if failed == 1 && len(reports) == 1 {
		return fmt.Errorf("%w: %w", errCorporaFailed, reports[0].Error)
	}
	return fmt.Errorf("%w for %d of %d corpora", errCorporaFailed, failed, len(reports))
}
