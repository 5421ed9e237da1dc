// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package history journals command invocations in a local SQLite database so
// operators can review what ran where, and with what outcome.
package history

import (
	"database/sql"
	"embed"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"dbakit/cli/internal/xdg"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Run statuses recorded per target.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Run is one command invocation against one target. RunID groups the rows
// of a single multi-target invocation.
type Run struct {
	ID        string
	RunID     string
	Command   string
	Target    string
	Status    string
	Error     string
	RowCount  int
	Duration  time.Duration
	StartedAt time.Time
}

// Store is the open history database.
type Store struct {
	db *sql.DB
}

// Open opens the history database under the state directory, creating and
// migrating it as needed.
func Open() (*Store, error) {
	dir, err := xdg.StateDir()
	if err != nil {
		return nil, err
	}
	return openAt(filepath.Join(dir, "history.db"))
}

func openAt(path string) (*Store, error) {
	// busy_timeout covers concurrent invocations writing their journal rows.
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(10000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one run row. A missing row ID is generated.
func (s *Store) Record(r Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (id, run_id, command, target, status, error, row_count, duration_ms, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.RunID, r.Command, r.Target, r.Status, r.Error,
		r.RowCount, r.Duration.Milliseconds(), r.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first. With failedOnly set,
// only error rows are returned.
func (s *Store) List(limit int, failedOnly bool) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	q := `SELECT id, run_id, command, target, status, error, row_count, duration_ms, started_at
	      FROM runs`
	if failedOnly {
		q += ` WHERE status = 'error'`
	}
	q += ` ORDER BY started_at DESC, id LIMIT ?`

	rows, err := s.db.Query(q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r       Run
			ms      int64
			started string
		)
		if err := rows.Scan(&r.ID, &r.RunID, &r.Command, &r.Target, &r.Status, &r.Error, &r.RowCount, &ms, &started); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		if ts, err := time.Parse(time.RFC3339Nano, started); err == nil {
			r.StartedAt = ts
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
