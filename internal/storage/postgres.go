package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"course-portal/internal/domain"
	"course-portal/internal/observability"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS session_kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresStore keeps entries in the session_kv table
type PostgresStore struct {
	db         *sql.DB
	getStmt    *sql.Stmt
	setStmt    *sql.Stmt
	deleteStmt *sql.Stmt
}

// EnsureSchema creates the session_kv table when it does not exist
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create session_kv table: %w", err)
	}
	return nil
}

// NewPostgresStore creates a PostgresStore with prepared statements.
// Returns an error if statement preparation fails.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	store := &PostgresStore{db: db}

	var err error
	store.getStmt, err = db.Prepare(`SELECT value FROM session_kv WHERE key = $1`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare get statement: %w", err)
	}

	store.setStmt, err = db.Prepare(`
		INSERT INTO session_kv (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare set statement: %w", err)
	}

	store.deleteStmt, err = db.Prepare(`DELETE FROM session_kv WHERE key = $1`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.getStmt.QueryRowContext(ctx, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("get %s: %w", key, domain.ErrKeyNotFound)
	} else if err != nil {
		err = fmt.Errorf("failed to get %s: %w", key, err)
	}
	observability.ObserveStorage(BackendPostgres, "get", err)
	return value, err
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	_, err := s.setStmt.ExecContext(ctx, key, value)
	if err != nil {
		err = fmt.Errorf("failed to set %s: %w", key, err)
	}
	observability.ObserveStorage(BackendPostgres, "set", err)
	return err
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	_, err := s.deleteStmt.ExecContext(ctx, key)
	if err != nil {
		err = fmt.Errorf("failed to delete %s: %w", key, err)
	}
	observability.ObserveStorage(BackendPostgres, "delete", err)
	return err
}

// Ping reports whether the database is reachable
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the prepared statements. The *sql.DB stays open.
func (s *PostgresStore) Close() error {
	return errors.Join(s.getStmt.Close(), s.setStmt.Close(), s.deleteStmt.Close())
}
