// Package store is the Postgres persistence layer. Every multi-statement
// mutation runs inside a single transaction owned by the store so callers
// never observe a partition with a broken sort order.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}
	return nil
}

func (s *PostgresStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// InsertAuditLog records a client-reported event. Audit rows are advisory,
// failures surface to the caller but corrupt nothing.
func (s *PostgresStore) InsertAuditLog(ctx context.Context, level, message string, deviceID *uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (level, message, device_id)
		VALUES ($1, $2, $3)
	`, level, message, deviceID)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
