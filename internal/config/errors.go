package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() while users still get a readable message.
var (
	// ErrNoCorpus is returned when no corpus directory is specified.
	ErrNoCorpus = errors.New("no corpus specified: provide at least one directory of HTML files")

	// ErrInvalidDamping is returned when the damping factor is not strictly
	// between 0 and 1.
	ErrInvalidDamping = errors.New("invalid damping factor: must be greater than 0 and less than 1")

	// ErrInvalidSamples is returned when fewer than two samples are requested.
	// A single sample takes no step and estimates nothing.
	ErrInvalidSamples = errors.New("invalid sample count: must be at least 2")

	// ErrInvalidThreshold is returned when the convergence threshold is not
	// a positive finite number.
	ErrInvalidThreshold = errors.New("invalid convergence threshold: must be positive")

	// ErrInvalidTolerance is returned when the agreement tolerance is not a
	// positive finite number.
	ErrInvalidTolerance = errors.New("invalid agreement tolerance: must be positive")

	// ErrInvalidMaxIterations is returned when the iteration cap is below 1.
	ErrInvalidMaxIterations = errors.New("invalid max iterations: must be at least 1")

	// ErrInvalidWorkers is returned when the parser worker count is below 1.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
