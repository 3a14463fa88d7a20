package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/pagerank/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "pagerank.db"

// Ranking method names used in the page_scores table.
const (
	MethodSampling  = "sampling"
	MethodIteration = "iteration"
)

// timestampLayout is fixed width so that stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RankDB provides SQLite-based storage for ranking runs.
type RankDB struct {
	db *sql.DB

	dbPath string
}

// Options configures RankDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a RankDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RankDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RankDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Close closes the database connection.
func (rdb *RankDB) Close() error {
	return rdb.db.Close()
}

// Path returns the database file path.
func (rdb *RankDB) Path() string {
	return rdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RankDB) createTables() error {
	schema := `
	-- One row per ranking run; report_json holds the full report
	CREATE TABLE IF NOT EXISTS rank_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		corpus TEXT NOT NULL,
		fingerprint TEXT,
		timestamp TEXT NOT NULL,
		pages INTEGER NOT NULL DEFAULT 0,
		links INTEGER NOT NULL DEFAULT 0,
		damping REAL NOT NULL,
		samples INTEGER NOT NULL DEFAULT 0,
		seed TEXT,
		iterations INTEGER NOT NULL DEFAULT 0,
		max_diff REAL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_corpus ON rank_runs(corpus);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON rank_runs(timestamp);

	-- Page scores per run and ranking method
	CREATE TABLE IF NOT EXISTS page_scores (
		run_id INTEGER NOT NULL REFERENCES rank_runs(id) ON DELETE CASCADE,
		page TEXT NOT NULL,
		method TEXT NOT NULL,
		score REAL NOT NULL,
		PRIMARY KEY (run_id, page, method)
	);

	CREATE INDEX IF NOT EXISTS idx_scores_page ON page_scores(page);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// Save stores report and its page scores in one transaction and returns
// the new run ID.
func (rdb *RankDB) Save(ctx context.Context, report *model.RankReport) (id int64, err error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	var maxDiff sql.NullFloat64
	if report.Agreement != nil {
		maxDiff = sql.NullFloat64{Float64: report.Agreement.MaxDiff, Valid: true}
	}

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `
	INSERT INTO rank_runs (corpus, fingerprint, timestamp, pages, links, damping, samples, seed, iterations, max_diff, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	// Seeds use the full uint64 range, which SQLite integers cannot hold.
	result, err := tx.ExecContext(ctx, query,
		report.Corpus,
		report.Fingerprint,
		report.DateRanked.UTC().Format(timestampLayout),
		report.Pages,
		report.Links,
		report.Damping,
		report.Samples,
		fmt.Sprintf("%d", report.Seed),
		report.Iterations,
		maxDiff,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save rank run: %w", err)
	}

	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	if err = insertScores(ctx, tx, id, MethodSampling, report.Sampling); err != nil {
		return 0, err
	}
	if err = insertScores(ctx, tx, id, MethodIteration, report.Iteration); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit rank run: %w", err)
	}

	return id, nil
}

// insertScores writes one page_scores row per page of ranking.
func insertScores(ctx context.Context, tx *sql.Tx, runID int64, method string, ranking model.Ranking) error {
	if len(ranking) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO page_scores (run_id, page, method, score) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare score insert: %w", err)
	}
	defer stmt.Close()

	for _, page := range ranking.Pages() {
		if _, err := stmt.ExecContext(ctx, runID, page, method, ranking[page]); err != nil {
			return fmt.Errorf("failed to save score for %s: %w", page, err)
		}
	}

	return nil
}

// Latest retrieves the most recent run for a corpus.
// Returns nil without error when the corpus has no runs.
func (rdb *RankDB) Latest(ctx context.Context, corpus string) (*model.RankReport, error) {
	query := `
	SELECT report_json FROM rank_runs
	WHERE corpus = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	return rdb.queryReport(ctx, query, corpus)
}

// ByID retrieves a run by its database ID.
// Returns nil without error when no such run exists.
func (rdb *RankDB) ByID(ctx context.Context, id int64) (*model.RankReport, error) {
	return rdb.queryReport(ctx, `SELECT report_json FROM rank_runs WHERE id = ?`, id)
}

// queryReport runs a single-row query returning report_json and decodes it.
func (rdb *RankDB) queryReport(ctx context.Context, query string, args ...any) (*model.RankReport, error) {
	var reportJSON string
	err := rdb.db.QueryRowContext(ctx, query, args...).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rank run: %w", err)
	}

	var report model.RankReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// History retrieves every run of a corpus, newest first.
// Reports that fail to decode are skipped.
func (rdb *RankDB) History(ctx context.Context, corpus string) ([]*model.RankReport, error) {
	query := `
	SELECT report_json FROM rank_runs
	WHERE corpus = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := rdb.db.QueryContext(ctx, query, corpus)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var reports []*model.RankReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.RankReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// RunMetadata summarizes a stored run without loading the full report.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64 `json:"id"`

	// Corpus is the ranked directory.
	Corpus string `json:"corpus"`

	// Fingerprint identifies the link structure that was ranked.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Timestamp is when the run started.
	Timestamp time.Time `json:"timestamp"`

	Pages      int     `json:"pages"`
	Links      int     `json:"links"`
	Damping    float64 `json:"damping"`
	Samples    int     `json:"samples"`
	Iterations int     `json:"iterations"`

	// MaxDiff is the largest difference between the two methods, or nil
	// when the run lacks one of them.
	MaxDiff *float64 `json:"max_diff,omitempty"`

	// TopPage is the highest ranked page by iteration, if any.
	TopPage string `json:"top_page,omitempty"`
}

// HistoryWithMetadata retrieves run metadata for a corpus, newest first.
// This is more efficient than History when only metadata is needed.
func (rdb *RankDB) HistoryWithMetadata(ctx context.Context, corpus string) ([]RunMetadata, error) {
	query := `
	SELECT r.id, r.corpus, COALESCE(r.fingerprint, ''), r.timestamp, r.pages, r.links,
		r.damping, r.samples, r.iterations, r.max_diff,
		(SELECT ps.page FROM page_scores ps
			WHERE ps.run_id = r.id AND ps.method = ?
			ORDER BY ps.score DESC, ps.page ASC LIMIT 1)
	FROM rank_runs r
	WHERE r.corpus = ?
	ORDER BY r.timestamp DESC, r.id DESC
	`

	rows, err := rdb.db.QueryContext(ctx, query, MethodIteration, corpus)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var timestamp string
		var maxDiff sql.NullFloat64
		var topPage sql.NullString

		if err := rows.Scan(
			&meta.ID,
			&meta.Corpus,
			&meta.Fingerprint,
			&timestamp,
			&meta.Pages,
			&meta.Links,
			&meta.Damping,
			&meta.Samples,
			&meta.Iterations,
			&maxDiff,
			&topPage,
		); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		if maxDiff.Valid {
			meta.MaxDiff = &maxDiff.Float64
		}
		meta.TopPage = topPage.String

		results = append(results, meta)
	}

	return results, rows.Err()
}

// Scores returns the page scores of a run under one ranking method.
// The result is empty when the run has no scores for method.
func (rdb *RankDB) Scores(ctx context.Context, runID int64, method string) (model.Ranking, error) {
	rows, err := rdb.db.QueryContext(ctx,
		`SELECT page, score FROM page_scores WHERE run_id = ? AND method = ? ORDER BY page`,
		runID, method,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get scores: %w", err)
	}
	defer rows.Close()

	ranking := make(model.Ranking)
	for rows.Next() {
		var page string
		var score float64
		if err := rows.Scan(&page, &score); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		ranking[page] = score
	}

	return ranking, rows.Err()
}

// ListCorpora returns every corpus with at least one stored run.
func (rdb *RankDB) ListCorpora(ctx context.Context) ([]string, error) {
	rows, err := rdb.db.QueryContext(ctx, `SELECT DISTINCT corpus FROM rank_runs ORDER BY corpus`)
	if err != nil {
		return nil, fmt.Errorf("failed to list corpora: %w", err)
	}
	defer rows.Close()

	var corpora []string
	for rows.Next() {
		var corpus string
		if err := rows.Scan(&corpus); err != nil {
			return nil, fmt.Errorf("failed to scan corpus: %w", err)
		}
		corpora = append(corpora, corpus)
	}

	return corpora, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05", // SQLite default datetime format
	"2006-01-02T15:04:05",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
