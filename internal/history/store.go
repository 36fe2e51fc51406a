// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records extraction runs in a SQLite database so template
// drift can be traced back to the source revision that produced it.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/tmplextract/internal/extractor"
	"github.com/pdiddy/tmplextract/pkg/types"
)

// defaultLimit is used by Recent when the caller passes a non-positive limit.
const defaultLimit = 10

// Store manages the run history database.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Run is one recorded extraction run.
type Run struct {
	ID           int64
	StartedAt    time.Time
	Source       string
	SourceSHA256 string
	Mode         string
	Jobs         []JobRecord
}

// JobRecord is the stored outcome of one job within a run.
type JobRecord struct {
	Marker     string
	OutputName string
	Status     types.JobStatus
	Bytes      int
	SHA256     string
	Error      string
}

// Open opens or creates the database at path, creating its parent
// directory and schema as needed.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db, log: logger.Named("history")}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			source TEXT NOT NULL,
			source_sha256 TEXT NOT NULL,
			mode TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS job_results (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			marker TEXT NOT NULL,
			output_name TEXT NOT NULL,
			status TEXT NOT NULL,
			bytes INTEGER NOT NULL,
			sha256 TEXT,
			error TEXT,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_job_results_output ON job_results(output_name)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// NewRun builds a Run from an extraction result.
func NewRun(startedAt time.Time, doc *extractor.Document, mode string, result extractor.RunResult) Run {
	run := Run{
		StartedAt:    startedAt.UTC(),
		Source:       doc.Path(),
		SourceSHA256: doc.SHA256(),
		Mode:         mode,
	}
	for _, jr := range result.Jobs {
		rec := JobRecord{
			Marker:     jr.Job.StartMarker,
			OutputName: jr.Job.OutputName,
			Status:     jr.Status,
			Bytes:      jr.Bytes,
			SHA256:     jr.SHA256,
		}
		if jr.Err != nil {
			rec.Error = jr.Err.Error()
		}
		run.Jobs = append(run.Jobs, rec)
	}
	return run
}

// Record stores run and its job results in one transaction and returns the
// new run ID.
func (s *Store) Record(ctx context.Context, run Run) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, source, source_sha256, mode) VALUES (?, ?, ?, ?)`,
		run.StartedAt.UTC().Format(time.RFC3339Nano), run.Source, run.SourceSHA256, run.Mode)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	for i, j := range run.Jobs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO job_results (run_id, position, marker, output_name, status, bytes, sha256, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, i, j.Marker, j.OutputName, string(j.Status), j.Bytes, j.SHA256, j.Error); err != nil {
			return 0, fmt.Errorf("inserting job result %s: %w", j.OutputName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	s.log.Debug("run recorded", zap.Int64("run_id", id), zap.Int("jobs", len(run.Jobs)))
	return id, nil
}

// Recent returns up to limit runs, newest first, with their job results.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, source, source_sha256, mode FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAt string
		if err := rows.Scan(&r.ID, &startedAt, &r.Source, &r.SourceSHA256, &r.Mode); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing started_at of run %d: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	rows.Close()

	for i := range runs {
		jobs, err := s.jobResults(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Jobs = jobs
	}
	return runs, nil
}

func (s *Store) jobResults(ctx context.Context, runID int64) ([]JobRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT marker, output_name, status, bytes, COALESCE(sha256, ''), COALESCE(error, '')
		 FROM job_results WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying job results for run %d: %w", runID, err)
	}
	defer rows.Close()

	var jobs []JobRecord
	for rows.Next() {
		var j JobRecord
		var status string
		if err := rows.Scan(&j.Marker, &j.OutputName, &status, &j.Bytes, &j.SHA256, &j.Error); err != nil {
			return nil, fmt.Errorf("scanning job result: %w", err)
		}
		j.Status = types.JobStatus(status)
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
