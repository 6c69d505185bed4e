package config

import (
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/nao1215/blockerbench/internal/eval"
)

// Default configuration values.
const (
	// DefaultEvalFunc is the evaluation function used when none is selected.
	// The inverse-square rank decay favors trackers caught on the websites
	// most users actually visit; see the eval package for the alternatives.
	DefaultEvalFunc = eval.FuncNameInverseSquare

	// DefaultConcurrency is the number of observation files read from disk
	// at once during batch loading. File reads parallelize safely; the
	// aggregation itself is always applied sequentially.
	DefaultConcurrency = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "blockerbench"
)

// DataFile pairs a blocker name with its observation file path.
type DataFile struct {
	// Name identifies the blocker (e.g. "ghostery", "ublock").
	Name string

	// Path is the observation file location.
	Path string
}

// Config holds all run options for blockerbench.
// This struct is populated from CLI flags and passed through the
// application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The number of options is manageable, and nesting would
// add complexity without significant benefit.
type Config struct {
	// DataFiles lists the blocker observation files to ingest, in order.
	// Ingestion order matters only for which file first declares a
	// website's rank; every file must agree on the ranks it repeats.
	DataFiles []DataFile

	// CategoriesPath is the path to the YAML category file mapping
	// category names to lists of origin domains. Empty means no
	// per-category breakdown is produced.
	CategoriesPath string

	// EvalFunc names the evaluation function to use
	// ("inverse-square" or "linear").
	EvalFunc string

	// Concurrency is the number of observation files read concurrently.
	Concurrency int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of the plain score
	// table. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of the plain
	// score table. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file in addition to stdout.
	ReportFile string

	// DBDir is the directory path for the SQLite database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB indicates whether to persist the run (website ranks, the
	// website-to-tracker mapping, and the score report) to the database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because several defaults are non-zero. This also serves as
// documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		EvalFunc:    DefaultEvalFunc,
		Concurrency: DefaultConcurrency,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for blockerbench.
// On Linux: ~/.local/share/blockerbench
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for blockerbench.
// On Linux: ~/.config/blockerbench
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for blockerbench.
// On Linux: ~/.cache/blockerbench
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first error found; fixing one error often makes others
// irrelevant.
func (c *Config) Validate() error {
	if len(c.DataFiles) == 0 {
		return ErrNoDataFiles
	}

	seen := make(map[string]struct{}, len(c.DataFiles))
	for _, df := range c.DataFiles {
		if df.Name == "" || df.Path == "" {
			return ErrEmptyDataFile
		}
		if _, dup := seen[df.Name]; dup {
			return ErrDuplicateBlocker
		}
		seen[df.Name] = struct{}{}
	}

	if _, ok := eval.FuncByName(c.EvalFunc); !ok {
		return ErrUnknownEvalFunc
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

// ParseDataFileArg parses a positional data-file argument into a DataFile.
// Arguments use either "name=path" form or a bare path, in which case the
// blocker name is the file basename without its extension
// ("results/ghostery.csv" -> "ghostery").
func ParseDataFileArg(arg string) DataFile {
	if name, path, ok := strings.Cut(arg, "="); ok && name != "" {
		return DataFile{Name: name, Path: path}
	}

	base := filepath.Base(arg)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return DataFile{Name: name, Path: arg}
}
