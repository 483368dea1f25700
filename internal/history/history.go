// Package history keeps a local record of build runs so operators can
// see when the tree was last materialized and why a run failed.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Run is one recorded build run.
type Run struct {
	ID            int64
	StartedAt     time.Time
	FinishedAt    time.Time
	Status        string // running, completed, failed
	Nodes         int
	RowsValidated int
	RowsSkipped   int
	DirsCreated   int
	FilesWritten  int
	Error         string
}

// Statuses of a recorded run.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// DefaultPath returns the default history database path.
func DefaultPath() string {
	return filepath.Join(".fieldforge", "history.db")
}

// Store is the sqlite-backed run history.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed initializes) the history database.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		status TEXT NOT NULL,
		nodes INTEGER NOT NULL DEFAULT 0,
		rows_validated INTEGER NOT NULL DEFAULT 0,
		rows_skipped INTEGER NOT NULL DEFAULT 0,
		dirs_created INTEGER NOT NULL DEFAULT 0,
		files_written INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RecordStart inserts a running entry and returns its id.
func (s *Store) RecordStart(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (started_at, status) VALUES (?, ?)`,
		time.Now().UTC().Format(time.RFC3339), StatusRunning)
	if err != nil {
		return 0, fmt.Errorf("record run start: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}
	return id, nil
}

// RecordFinish closes out a run entry with its outcome.
func (s *Store) RecordFinish(ctx context.Context, id int64, r Run) error {
	status := r.Status
	if status == "" {
		status = StatusCompleted
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, nodes = ?,
			rows_validated = ?, rows_skipped = ?, dirs_created = ?,
			files_written = ?, error = ?
		 WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), status, r.Nodes,
		r.RowsValidated, r.RowsSkipped, r.DirsCreated,
		r.FilesWritten, r.Error, id)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, status, nodes,
			rows_validated, rows_skipped, dirs_created, files_written, error
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var r Run
		var started, finished sql.NullString
		if err := rows.Scan(&r.ID, &started, &finished, &r.Status, &r.Nodes,
			&r.RowsValidated, &r.RowsSkipped, &r.DirsCreated, &r.FilesWritten, &r.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if started.Valid {
			r.StartedAt, _ = time.Parse(time.RFC3339, started.String)
		}
		if finished.Valid && finished.String != "" {
			r.FinishedAt, _ = time.Parse(time.RFC3339, finished.String)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}
