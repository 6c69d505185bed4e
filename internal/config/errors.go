package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoDataFiles is returned when no blocker observation files are
	// specified. There is nothing to score without at least one file.
	ErrNoDataFiles = errors.New("no data files specified: provide at least one blocker observation file")

	// ErrEmptyDataFile is returned when a data file entry is missing its
	// blocker name or its path.
	ErrEmptyDataFile = errors.New("invalid data file: blocker name and path must be non-empty")

	// ErrDuplicateBlocker is returned when two data files use the same
	// blocker name. Each blocker gets exactly one observation file per run.
	ErrDuplicateBlocker = errors.New("duplicate blocker name: each blocker may appear only once")

	// ErrUnknownEvalFunc is returned when the evaluation function name is
	// not one of the supported strategies.
	ErrUnknownEvalFunc = errors.New("unknown evaluation function: use inverse-square or linear")

	// ErrInvalidConcurrency is returned when the file-load concurrency is
	// not positive. Zero concurrency would mean no files get read.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
