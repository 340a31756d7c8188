package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Schema of the key-value table used by PostgresKV
const Schema = `
	CREATE TABLE IF NOT EXISTS kv_store (
		key        TEXT PRIMARY KEY,
		value      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// PostgresKV stores local state in a PostgreSQL table
type PostgresKV struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresKV creates a new PostgresKV
func NewPostgresKV(db *pgxpool.Pool, logger *zap.Logger) *PostgresKV {
	return &PostgresKV{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the kv_store table if it does not exist
func (r *PostgresKV) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		r.logger.Error("failed to create kv_store table", zap.Error(err))
		return fmt.Errorf("failed to create kv_store table: %w", err)
	}
	return nil
}

// Get retrieves the value stored under key
func (r *PostgresKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := `SELECT value FROM kv_store WHERE key = $1`

	var value []byte
	err := r.db.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		r.logger.Error("failed to read key", zap.Error(err), zap.String("key", key))
		return nil, false, fmt.Errorf("failed to read key %s: %w", key, err)
	}

	return value, true, nil
}

// Put upserts the value stored under key
func (r *PostgresKV) Put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()
	`

	// JSONB rejects invalid documents, so callers only ever store encoded JSON.
	if _, err := r.db.Exec(ctx, query, key, string(value)); err != nil {
		r.logger.Error("failed to write key", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}

	return nil
}

// Delete removes the value stored under key
func (r *PostgresKV) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM kv_store WHERE key = $1`

	if _, err := r.db.Exec(ctx, query, key); err != nil {
		r.logger.Error("failed to delete key", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	return nil
}
