// Package history records poll cycles and webhook deliveries in a local SQLite database.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/grycap/onetrigger/internal/models"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const (
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Store wraps the SQL connection holding cycle and delivery history
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// CycleEntry represents a row in the cycle_runs table
type CycleEntry struct {
	ID         int64
	RunID      string
	Cycle      int
	Bootstrap  bool
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	FilesSeen  int
	NewFiles   int
	Error      sql.NullString
}

// DeliveryEntry represents a row in the deliveries table
type DeliveryEntry struct {
	ID          int64
	RunID       string
	Cycle       int
	DeliveryID  string
	ObjectID    string
	Path        string
	WebhookURL  string
	StatusCode  int
	Success     bool
	Error       sql.NullString
	DeliveredAt time.Time
}

// NewStore opens the database at path, creating its directory and schema when needed
func NewStore(path string, logger zerolog.Logger) (*Store, error) {
	logger = logger.With().Str("component", "HistoryStore").Logger()
	logger.Info().Str("db_path", path).Msg("Initializing history database connection")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error().Err(err).Str("directory", dir).Msg("Failed to create history database directory")
		return nil, fmt.Errorf("failed to create history database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Error().Err(err).Str("db_path", path).Msg("Failed to open history database")
		return nil, fmt.Errorf("sql.Open failed for %s: %w", path, err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	store := &Store{db: db, logger: logger}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitSchema creates the history tables if they don't already exist
func (s *Store) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS cycle_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		cycle INTEGER NOT NULL,
		bootstrap INTEGER NOT NULL DEFAULT 0,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		status TEXT NOT NULL,
		files_seen INTEGER DEFAULT 0,
		new_files INTEGER DEFAULT 0,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_cycle_runs_run ON cycle_runs(run_id, cycle);
	CREATE TABLE IF NOT EXISTS deliveries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		cycle INTEGER NOT NULL,
		delivery_id TEXT,
		object_id TEXT NOT NULL,
		path TEXT NOT NULL,
		webhook_url TEXT NOT NULL,
		status_code INTEGER,
		success INTEGER NOT NULL,
		error TEXT,
		delivered_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_deliveries_object ON deliveries(object_id);
	`
	if _, err := s.db.Exec(query); err != nil {
		s.logger.Error().Err(err).Msg("Failed to initialize schema")
		return err
	}
	s.logger.Debug().Msg("Schema initialized (cycle_runs and deliveries tables ensured)")
	return nil
}

// RecordCycle stores a successful cycle and its deliveries in one transaction
func (s *Store) RecordCycle(report models.CycleReport) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`INSERT INTO cycle_runs (run_id, cycle, bootstrap, started_at, finished_at, status, files_seen, new_files) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.Cycle, report.Bootstrap, report.StartedAt.UTC(), report.FinishedAt.UTC(),
		StatusCompleted, report.FilesSeen, len(report.NewFiles),
	)
	if err != nil {
		return fmt.Errorf("failed to insert cycle %d: %w", report.Cycle, err)
	}

	for _, d := range report.Deliveries {
		_, err = tx.Exec(
			`INSERT INTO deliveries (run_id, cycle, delivery_id, object_id, path, webhook_url, status_code, success, error, delivered_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID, report.Cycle, d.DeliveryID, string(d.Event.ID), d.Event.Path, d.WebhookURL,
			d.StatusCode, d.Succeeded(), errorString(d.Err), d.DeliveredAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert delivery for %s: %w", d.Event.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cycle %d: %w", report.Cycle, err)
	}
	return nil
}

// RecordFailure stores a failed cycle
func (s *Store) RecordFailure(failure models.CycleFailure) error {
	_, err := s.db.Exec(
		`INSERT INTO cycle_runs (run_id, cycle, bootstrap, started_at, finished_at, status, error) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		failure.RunID, failure.Cycle, failure.Bootstrap, failure.StartedAt.UTC(), failure.FailedAt.UTC(),
		StatusFailed, errorString(failure.Err),
	)
	if err != nil {
		return fmt.Errorf("failed to insert failed cycle %d: %w", failure.Cycle, err)
	}
	return nil
}

// CycleCompleted records the cycle; storage errors are logged and never reach the poll loop
func (s *Store) CycleCompleted(report models.CycleReport) {
	if err := s.RecordCycle(report); err != nil {
		s.logger.Error().Err(err).Str("run_id", report.RunID).Int("cycle", report.Cycle).Msg("Failed to record cycle")
	}
}

// CycleFailed records the failure; storage errors are logged and never reach the poll loop
func (s *Store) CycleFailed(failure models.CycleFailure) {
	if err := s.RecordFailure(failure); err != nil {
		s.logger.Error().Err(err).Str("run_id", failure.RunID).Int("cycle", failure.Cycle).Msg("Failed to record cycle failure")
	}
}

// recentCycles returns the latest cycles of a run, newest first
func (s *Store) recentCycles(runID string, limit int) ([]CycleEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, cycle, bootstrap, started_at, finished_at, status, files_seen, new_files, error FROM cycle_runs WHERE run_id = ? ORDER BY id DESC LIMIT ?`,
		runID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []CycleEntry
	for rows.Next() {
		var e CycleEntry
		var filesSeen, newFiles sql.NullInt64
		if err := rows.Scan(&e.ID, &e.RunID, &e.Cycle, &e.Bootstrap, &e.StartedAt, &e.FinishedAt, &e.Status, &filesSeen, &newFiles, &e.Error); err != nil {
			return nil, fmt.Errorf("failed to scan cycle row: %w", err)
		}
		e.FilesSeen = int(filesSeen.Int64)
		e.NewFiles = int(newFiles.Int64)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// deliveriesFor returns every recorded delivery of an object, oldest first
func (s *Store) deliveriesFor(objectID models.FileIdentity) ([]DeliveryEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, cycle, delivery_id, object_id, path, webhook_url, status_code, success, error, delivered_at FROM deliveries WHERE object_id = ? ORDER BY id`,
		string(objectID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query deliveries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []DeliveryEntry
	for rows.Next() {
		var e DeliveryEntry
		var deliveryID sql.NullString
		var statusCode sql.NullInt64
		if err := rows.Scan(&e.ID, &e.RunID, &e.Cycle, &deliveryID, &e.ObjectID, &e.Path, &e.WebhookURL, &statusCode, &e.Success, &e.Error, &e.DeliveredAt); err != nil {
			return nil, fmt.Errorf("failed to scan delivery row: %w", err)
		}
		e.DeliveryID = deliveryID.String
		e.StatusCode = int(statusCode.Int64)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func errorString(err error) sql.NullString {
	if err == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: err.Error(), Valid: true}
}
