// Package store persists completed Mandelbrot batches so later runs can
// be compared against them.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"parbench/internal/timing"
)

// BatchRun is one saved sweep.
type BatchRun struct {
	ID         int64
	Label      string
	CreatedAt  time.Time
	TrialCount int
	Trials     []timing.Trial
}

// Store is the persistence interface for batch history.
type Store interface {
	Close() error
	SaveBatch(label string, trials []timing.Trial) (int64, error)
	// LoadLatest returns the most recent saved batch with its trials,
	// or nil when the history is empty.
	LoadLatest() (*BatchRun, error)
	// List returns recent batches, newest first, without trial payloads.
	List(limit int) ([]BatchRun, error)
}

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) the history database and
// applies migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging history database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating history database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS batch_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		label TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS batch_trials (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES batch_runs(id),
		nthreads INTEGER NOT NULL,
		npoints INTEGER NOT NULL,
		run_index INTEGER NOT NULL,
		seconds REAL NOT NULL
	);
	`
	_, err := s.db.Exec(query)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveBatch(label string, trials []timing.Trial) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO batch_runs (label, created_at) VALUES (?, ?)`, label, time.Now())
	if err != nil {
		return 0, err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, tr := range trials {
		_, err := tx.Exec(
			`INSERT INTO batch_trials (run_id, nthreads, npoints, run_index, seconds) VALUES (?, ?, ?, ?, ?)`,
			runID, tr.Key, tr.Size, tr.Index, tr.Seconds,
		)
		if err != nil {
			return 0, err
		}
	}

	return runID, tx.Commit()
}

func (s *SQLiteStore) LoadLatest() (*BatchRun, error) {
	run := &BatchRun{}
	err := s.db.QueryRow(
		`SELECT id, label, created_at FROM batch_runs ORDER BY id DESC LIMIT 1`,
	).Scan(&run.ID, &run.Label, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT nthreads, npoints, run_index, seconds FROM batch_trials WHERE run_id = ? ORDER BY id`,
		run.ID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var tr timing.Trial
		if err := rows.Scan(&tr.Key, &tr.Size, &tr.Index, &tr.Seconds); err != nil {
			return nil, err
		}
		run.Trials = append(run.Trials, tr)
	}
	run.TrialCount = len(run.Trials)
	return run, rows.Err()
}

func (s *SQLiteStore) List(limit int) ([]BatchRun, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.label, r.created_at, COUNT(t.id)
		FROM batch_runs r
		LEFT JOIN batch_trials t ON t.run_id = r.id
		GROUP BY r.id
		ORDER BY r.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []BatchRun
	for rows.Next() {
		var run BatchRun
		if err := rows.Scan(&run.ID, &run.Label, &run.CreatedAt, &run.TrialCount); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
