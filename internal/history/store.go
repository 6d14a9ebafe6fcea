// Package history keeps a record of build runs in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/uibuild/internal/build"
	ferrors "git.home.luguber.info/inful/uibuild/internal/foundation/errors"
)

// DefaultLimit is the number of runs Recent returns when limit <= 0.
const DefaultLimit = 20

// Entry is one recorded build run.
type Entry struct {
	ID          int64
	BuildID     string
	Version     string
	Start       time.Time
	Duration    time.Duration
	Outcome     build.Outcome
	FailedStage build.StageName
	Error       string
	Force       bool
	Locales     []string
	Stages      []build.StageRecord
}

// Store persists build reports in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (and creates if needed) the history database at path.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create history directory").
				WithContext("path", path).
				Build()
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL UNIQUE,
		version TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		failed_stage TEXT,
		error TEXT,
		forced INTEGER NOT NULL,
		locales TEXT NOT NULL,
		stages BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append records a finished build report.
func (s *Store) Append(ctx context.Context, r *build.Report) error {
	if r == nil {
		return ferrors.InternalError("nil build report").Build()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	locales, err := json.Marshal(r.Locales)
	if err != nil {
		return fmt.Errorf("marshal locales: %w", err)
	}
	stages, err := json.Marshal(r.Stages)
	if err != nil {
		return fmt.Errorf("marshal stages: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO builds (build_id, version, started_at, duration_ms, outcome, failed_stage, error, forced, locales, stages)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.BuildID, r.Version, r.Start.UnixMilli(), r.Duration().Milliseconds(), string(r.Outcome),
		string(r.FailedStage), r.Error, r.Force, string(locales), stages,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, build_id, version, started_at, duration_ms, outcome, failed_stage, error, forced, locales, stages
		 FROM builds ORDER BY started_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e               Entry
			startMS, durMS  int64
			outcome, failed string
			errText         sql.NullString
			locales         string
			stages          []byte
		)
		if err := rows.Scan(&e.ID, &e.BuildID, &e.Version, &startMS, &durMS, &outcome, &failed, &errText, &e.Force, &locales, &stages); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		e.Start = time.UnixMilli(startMS)
		e.Duration = time.Duration(durMS) * time.Millisecond
		e.Outcome = build.Outcome(outcome)
		e.FailedStage = build.StageName(failed)
		e.Error = errText.String
		if err := json.Unmarshal([]byte(locales), &e.Locales); err != nil {
			return nil, fmt.Errorf("unmarshal locales: %w", err)
		}
		if err := json.Unmarshal(stages, &e.Stages); err != nil {
			return nil, fmt.Errorf("unmarshal stages: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
