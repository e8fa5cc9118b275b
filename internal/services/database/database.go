// Package database provides the PostgreSQL audit log of qualification runs.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"homeport-qualifier/internal/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS qualification_runs (
	id                          TEXT PRIMARY KEY,
	source                      TEXT NOT NULL,
	file_name                   TEXT NOT NULL,
	sheet_name                  TEXT NOT NULL,
	liquid_assets               DOUBLE PRECISION NOT NULL,
	subject_value               DOUBLE PRECISION NOT NULL,
	non_subject_value_adjusted  DOUBLE PRECISION NOT NULL,
	down_payment_closing_cost   DOUBLE PRECISION NOT NULL,
	gift_amount                 DOUBLE PRECISION NOT NULL,
	monthly_income              DOUBLE PRECISION NOT NULL,
	monthly_debt                DOUBLE PRECISION NOT NULL,
	residual                    DOUBLE PRECISION NOT NULL,
	base_threshold              DOUBLE PRECISION NOT NULL,
	random_premium              DOUBLE PRECISION NOT NULL,
	final_threshold             DOUBLE PRECISION NOT NULL,
	verdict                     TEXT NOT NULL,
	defaulted_fields            TEXT[] NOT NULL DEFAULT '{}',
	created_at                  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_qualification_runs_created_at ON qualification_runs (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_qualification_runs_verdict ON qualification_runs (verdict);
`

// DB holds the database connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection.
func New(cfg *config.Config) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Configure pool settings
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// NewFromURL creates a new database connection from a URL string.
func NewFromURL(databaseURL string) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the database connection pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// HealthCheck verifies database connectivity.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// EnsureSchema creates the audit tables when they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// ExecContext executes a query that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, sql string, args ...interface{}) (int64, error) {
	result, err := db.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return db.pool.QueryRow(ctx, sql, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return db.pool.Query(ctx, sql, args...)
}
