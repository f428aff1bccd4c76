// Package postgres persists crash records in a PostGIS database and runs
// compiled crash queries against it.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/road-crash-etl-service/internal/query"
)

// Store wraps a pgx connection pool. Imports hold one connection for their
// whole transaction; each query borrows one for its duration.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New connects to databaseURL and verifies the connection with a ping.
func New(ctx context.Context, databaseURL string, maxConns int32, logger *slog.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected", "host", cfg.ConnConfig.Host, "database", cfg.ConnConfig.Database, "max_conns", cfg.MaxConns)
	return &Store{pool: pool, logger: logger}, nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases every pooled connection.
func (s *Store) Close() {
	s.pool.Close()
}

// Query runs a compiled crash query. The connection is returned to the pool
// when the rows are drained, on error, or when ctx is cancelled.
func (s *Store) Query(ctx context.Context, stmt query.Statement) ([]query.Row, error) {
	rows, err := s.pool.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("query crashes: %w", err)
	}
	result, err := pgx.CollectRows(rows, pgx.RowToStructByPos[query.Row])
	if err != nil {
		return nil, fmt.Errorf("scan crashes: %w", err)
	}
	return result, nil
}
