package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/blockerbench/internal/model"
)

// ScoreDB provides SQLite-based storage for scoring runs and tracker
// observations. It manages connection pooling and provides methods for
// saving and querying runs.
//
// Design decision: We use a single database file for all runs rather than
// one file per run. This keeps historical comparison a simple query and
// makes backup/restore one file.
type ScoreDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ScoreDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ScoreDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ScoreDB, error) {
	dbPath := filepath.Join(dbDir, "blockerbench.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run 'blockerbench score --save' first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to prevent creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &ScoreDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *ScoreDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *ScoreDB) createTables() error {
	schema := `
	-- Website ranks; a domain always has exactly one rank
	CREATE TABLE IF NOT EXISTS websites (
		domain TEXT PRIMARY KEY,
		rank INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_websites_rank ON websites(rank);

	-- Tracker observations; one row per (origin, tracker, blocker) fact
	CREATE TABLE IF NOT EXISTS observations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		origin TEXT NOT NULL,
		tracker TEXT NOT NULL,
		blocker TEXT NOT NULL,
		UNIQUE(origin, tracker, blocker)
	);

	CREATE INDEX IF NOT EXISTS idx_obs_origin ON observations(origin);
	CREATE INDEX IF NOT EXISTS idx_obs_tracker ON observations(tracker);
	CREATE INDEX IF NOT EXISTS idx_obs_blocker ON observations(blocker);

	-- Score runs store complete reports as JSON
	CREATE TABLE IF NOT EXISTS score_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		eval_func TEXT NOT NULL,
		report_json TEXT NOT NULL,
		totals_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON score_runs(timestamp);

	-- Datasets record which files fed a run
	CREATE TABLE IF NOT EXISTS datasets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES score_runs(id),
		blocker TEXT NOT NULL,
		path TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		website_count INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_datasets_run ON datasets(run_id);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveWebsites upserts the website rank table.
// Ranks are stable for a given domain, so conflicts simply rewrite the
// same value.
func (sdb *ScoreDB) SaveWebsites(ctx context.Context, ranks map[string]int) error {
	query := `
	INSERT INTO websites (domain, rank)
	VALUES (?, ?)
	ON CONFLICT(domain) DO UPDATE SET rank = excluded.rank
	`

	for domain, rank := range ranks {
		if _, err := sdb.db.ExecContext(ctx, query, domain, rank); err != nil {
			return fmt.Errorf("failed to save website %q: %w", domain, err)
		}
	}
	return nil
}

// SaveObservations stores one blocker's origin -> trackers mapping.
// Re-saving the same observations is idempotent.
func (sdb *ScoreDB) SaveObservations(ctx context.Context, blocker string, results map[string][]string) error {
	query := `
	INSERT OR IGNORE INTO observations (origin, tracker, blocker)
	VALUES (?, ?, ?)
	`

	for origin, trackers := range results {
		for _, tracker := range trackers {
			if _, err := sdb.db.ExecContext(ctx, query, origin, tracker, blocker); err != nil {
				return fmt.Errorf("failed to save observation for %q: %w", origin, err)
			}
		}
	}
	return nil
}

// SaveRun stores a complete score report and its dataset records.
// It returns the new run's database ID.
func (sdb *ScoreDB) SaveRun(ctx context.Context, report *model.ScoreReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	// Totals are duplicated into their own column so run listings don't
	// need to parse the full report.
	totals := make(map[string]float64, len(report.Blockers))
	for _, b := range report.Blockers {
		totals[b.Name] = b.Total
	}
	totalsJSON, _ := json.Marshal(totals) //nolint:errcheck,errchkjson // simple map; Marshal won't fail

	result, err := sdb.db.ExecContext(ctx,
		`INSERT INTO score_runs (eval_func, report_json, totals_json) VALUES (?, ?, ?)`,
		report.EvalFunc,
		string(reportJSON),
		string(totalsJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save score run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	datasetQuery := `
	INSERT INTO datasets (run_id, blocker, path, fingerprint, website_count)
	VALUES (?, ?, ?, ?, ?)
	`
	for _, d := range report.Datasets {
		if _, err := sdb.db.ExecContext(ctx, datasetQuery,
			runID, d.Blocker, d.Path, d.Fingerprint, d.WebsiteCount); err != nil {
			return 0, fmt.Errorf("failed to save dataset record: %w", err)
		}
	}

	return runID, nil
}

// RunMetadata contains summary information about a stored score run.
// This is used for displaying run history without loading the full report.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// Timestamp is when the run was saved.
	Timestamp time.Time

	// EvalFunc is the evaluation function the run used.
	EvalFunc string

	// Totals maps blocker name to its total score.
	Totals map[string]float64
}

// ListRuns retrieves metadata for all stored runs, newest first.
func (sdb *ScoreDB) ListRuns(ctx context.Context) ([]RunMetadata, error) {
	query := `
	SELECT id, timestamp, eval_func, totals_json
	FROM score_runs
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := sdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var timestamp string
		var totalsJSON sql.NullString

		if err := rows.Scan(&meta.ID, &timestamp, &meta.EvalFunc, &totalsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)

		meta.Totals = make(map[string]float64)
		if totalsJSON.Valid && totalsJSON.String != "" {
			if err := json.Unmarshal([]byte(totalsJSON.String), &meta.Totals); err != nil {
				meta.Totals = make(map[string]float64)
			}
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetRunByID retrieves a full score report by its database ID.
// It returns nil without error when the ID does not exist.
func (sdb *ScoreDB) GetRunByID(ctx context.Context, id int64) (*model.ScoreReport, error) {
	query := `
	SELECT report_json FROM score_runs
	WHERE id = ?
	`

	var reportJSON string
	err := sdb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get score run: %w", err)
	}

	var report model.ScoreReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse stored report: %w", err)
	}

	return &report, nil
}

// GetLatestRun retrieves the most recent score report.
// It returns nil without error when no runs are stored.
func (sdb *ScoreDB) GetLatestRun(ctx context.Context) (*model.ScoreReport, error) {
	query := `
	SELECT report_json FROM score_runs
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var reportJSON string
	err := sdb.db.QueryRowContext(ctx, query).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	var report model.ScoreReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse stored report: %w", err)
	}

	return &report, nil
}

// ListBlockers returns every blocker with stored observations, sorted.
func (sdb *ScoreDB) ListBlockers(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT blocker FROM observations
	ORDER BY blocker
	`

	rows, err := sdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list blockers: %w", err)
	}
	defer rows.Close()

	var blockers []string
	for rows.Next() {
		var blocker string
		if err := rows.Scan(&blocker); err != nil {
			return nil, fmt.Errorf("failed to scan blocker: %w", err)
		}
		blockers = append(blockers, blocker)
	}

	return blockers, rows.Err()
}

// TrackerFrequency pairs a tracker with the number of distinct origin
// domains it was observed on.
type TrackerFrequency struct {
	// Tracker is the tracker identifier.
	Tracker string

	// Frequency is the count of distinct origins.
	Frequency int
}

// TopTrackers returns the trackers observed on the most distinct origins,
// in descending frequency order. Ties break alphabetically so the output
// is stable.
func (sdb *ScoreDB) TopTrackers(ctx context.Context, limit int) ([]TrackerFrequency, error) {
	query := `
	SELECT tracker, COUNT(DISTINCT origin) AS freq
	FROM observations
	GROUP BY tracker
	ORDER BY freq DESC, tracker ASC
	LIMIT ?
	`

	rows, err := sdb.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top trackers: %w", err)
	}
	defer rows.Close()

	var results []TrackerFrequency
	for rows.Next() {
		var tf TrackerFrequency
		if err := rows.Scan(&tf.Tracker, &tf.Frequency); err != nil {
			return nil, fmt.Errorf("failed to scan tracker frequency: %w", err)
		}
		results = append(results, tf)
	}

	return results, rows.Err()
}

// WebsiteTrackers returns the stored origin -> trackers mapping, the union
// across all blockers. This is the reuse surface for other tools.
func (sdb *ScoreDB) WebsiteTrackers(ctx context.Context) (map[string][]string, error) {
	query := `
	SELECT DISTINCT origin, tracker FROM observations
	ORDER BY origin, tracker
	`

	rows, err := sdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query website trackers: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var origin, tracker string
		if err := rows.Scan(&origin, &tracker); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		result[origin] = append(result[origin], tracker)
	}

	return result, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
