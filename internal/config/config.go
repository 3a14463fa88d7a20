package config

import (
	"math"
	"path/filepath"
	"slices"

	"github.com/adrg/xdg"
	"github.com/nao1215/pagerank/internal/model"
)

// Default configuration values.
const (
	// DefaultDamping is the probability that the random surfer follows a
	// link rather than jumping to a random page.
	DefaultDamping = 0.85

	// DefaultSamples is the number of random walk samples. Estimates are
	// usually within a few hundredths of the iterative ranks at this size.
	DefaultSamples = 10000

	// DefaultThreshold is the per-page change below which the iterative
	// solver stops.
	DefaultThreshold = 0.001

	// DefaultMaxIterations caps the iterative solver.
	DefaultMaxIterations = 10000

	// DefaultTolerance is the largest per-page difference between the
	// sampling and iterative ranks reported as agreement.
	DefaultTolerance = model.DefaultAgreementTolerance

	// DefaultWorkers is the number of files parsed concurrently per corpus.
	DefaultWorkers = 8

	// DefaultBatchSize is the number of corpora ranked concurrently.
	DefaultBatchSize = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "pagerank"
)

// DefaultExtensions lists the file extensions treated as corpus documents.
var DefaultExtensions = []string{".html"}

// Config holds all configuration options for a ranking run.
// It is populated from CLI flags and the config file, then passed down
// explicitly rather than kept in global state.
//
// A single flat struct keeps flag binding simple. The number of options is
// small enough that nesting would not help.
type Config struct {
	// Corpora are the directories to rank. Each is ranked independently.
	Corpora []string

	// Damping is the damping factor, strictly between 0 and 1.
	Damping float64

	// Samples is the number of random walk samples. At least 2.
	Samples int

	// Seed seeds the random walk. Zero draws a random seed per run.
	Seed uint64

	// Threshold is the convergence threshold of the iterative solver.
	Threshold float64

	// MaxIterations caps the iterative solver.
	MaxIterations int

	// Tolerance is the largest per-page difference between the two methods
	// that still counts as agreement. Positive.
	Tolerance float64

	// Extensions are the file extensions treated as documents.
	Extensions []string

	// IgnorePatterns are glob patterns for file names to leave out.
	IgnorePatterns []string

	// Workers is the number of files parsed concurrently per corpus.
	Workers int

	// BatchSize is the number of corpora ranked concurrently.
	BatchSize int

	// Verbose enables debug log output.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .pagerank is searched in the current directory and then in
	// the user's home directory.
	ConfigFilePath string

	// CorpusConfigs holds the per-corpus settings loaded from the config
	// file. Nil when no config file was found.
	CorpusConfigs *File

	// JSONReport enables JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When empty, the report is written to stdout.
	ReportFile string

	// DBDir is the directory holding the SQLite run history.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB indicates whether runs are stored in the database.
	SaveToDB bool

	// MetricsFile is the path of a Prometheus textfile to write after the
	// run. Empty disables the export.
	MetricsFile string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Damping:       DefaultDamping,
		Samples:       DefaultSamples,
		Threshold:     DefaultThreshold,
		MaxIterations: DefaultMaxIterations,
		Tolerance:     DefaultTolerance,
		Extensions:    slices.Clone(DefaultExtensions),
		Workers:       DefaultWorkers,
		BatchSize:     DefaultBatchSize,
	}
}

// XDGDataDir returns the XDG data directory for pagerank.
// On Linux: ~/.local/share/pagerank
// On macOS: ~/Library/Application Support/pagerank
// On Windows: %LOCALAPPDATA%\pagerank
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pagerank.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if len(c.Corpora) == 0 {
		return ErrNoCorpus
	}

	if err := validateDamping(c.Damping); err != nil {
		return err
	}

	if c.Samples < 2 {
		return ErrInvalidSamples
	}

	if !(c.Threshold > 0) || math.IsInf(c.Threshold, 0) {
		return ErrInvalidThreshold
	}

	if c.MaxIterations < 1 {
		return ErrInvalidMaxIterations
	}

	if err := validateTolerance(c.Tolerance); err != nil {
		return err
	}

	if c.Workers < 1 {
		return ErrInvalidWorkers
	}

	if c.BatchSize < 1 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

// ForCorpus returns a copy of c with the overrides for dir from the config
// file applied. Corpus sections are keyed by the base name of the directory.
// The returned config never shares slices with c.
func (c *Config) ForCorpus(dir string) *Config {
	out := *c
	out.Corpora = []string{dir}
	out.Extensions = slices.Clone(c.Extensions)
	out.IgnorePatterns = slices.Clone(c.IgnorePatterns)

	if c.CorpusConfigs == nil {
		return &out
	}

	cc := c.CorpusConfigs.GetCorpusConfig(filepath.Base(filepath.Clean(dir)))
	if cc.Damping != 0 {
		out.Damping = cc.Damping
	}
	if cc.Samples != 0 {
		out.Samples = cc.Samples
	}
	if cc.Seed != 0 {
		out.Seed = cc.Seed
	}
	if cc.Tolerance != 0 {
		out.Tolerance = cc.Tolerance
	}
	if len(cc.Extensions) > 0 {
		out.Extensions = slices.Clone(cc.Extensions)
	}
	if len(cc.IgnorePatterns) > 0 {
		out.IgnorePatterns = append(out.IgnorePatterns, cc.IgnorePatterns...)
	}
	return &out
}

// validateDamping rejects damping factors outside the open interval (0, 1).
// NaN fails both comparisons.
func validateDamping(d float64) error {
	if !(d > 0 && d < 1) {
		return ErrInvalidDamping
	}
	return nil
}

// validateTolerance rejects tolerances that are not positive and finite.
func validateTolerance(t float64) error {
	if !(t > 0) || math.IsInf(t, 0) {
		return ErrInvalidTolerance
	}
	return nil
}
