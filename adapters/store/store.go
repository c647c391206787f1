// Package store persists the trial dataset behind sqlx. SQLite backs the
// single-file local workflow; Postgres backs shared deployments. All
// queries are written with ? placeholders and rebound per driver.
package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"immunostat/internal/config"
)

// Store wraps the database handle together with its driver name.
type Store struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the configured database and verifies the connection.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	db, err := sqlx.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Driver, err)
	}
	if cfg.Driver == "sqlite" {
		// Serialize writers; the modernc driver returns SQLITE_BUSY under
		// concurrent connections otherwise.
		db.SetMaxOpenConns(1)
	}
	return &Store{db: db, driver: cfg.Driver}, nil
}

// NewWithDB wraps an existing handle, used by tests.
func NewWithDB(db *sqlx.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for callers composing their own
// queries.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS subjects (
		subject_id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		condition  TEXT NOT NULL,
		age        INTEGER NOT NULL,
		sex        TEXT NOT NULL,
		treatment  TEXT NOT NULL,
		response   TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS samples (
		sample_id   TEXT PRIMARY KEY,
		subject_id  TEXT NOT NULL REFERENCES subjects(subject_id),
		sample_type TEXT NOT NULL,
		visit_time  REAL NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS cell_counts (
		sample_id TEXT NOT NULL REFERENCES samples(sample_id),
		cell_type TEXT NOT NULL,
		count     INTEGER NOT NULL,
		PRIMARY KEY (sample_id, cell_type)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_samples_subject ON samples(subject_id)`,
	`CREATE INDEX IF NOT EXISTS idx_samples_type_time ON samples(sample_type, visit_time)`,
	`CREATE INDEX IF NOT EXISTS idx_cell_counts_type ON cell_counts(cell_type)`,
}

// InitSchema creates the three tables and their indexes when absent. The
// DDL is deliberately portable between SQLite and Postgres.
func (s *Store) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// inTx runs fn inside a transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Reset drops all data, used before a full reload.
func (s *Store) Reset(ctx context.Context) error {
	for _, table := range []string{"cell_counts", "samples", "subjects"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}
