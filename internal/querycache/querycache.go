// Package querycache caches crash query results keyed by the compiled
// statement, in Redis or in process memory.
package querycache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/road-crash-etl-service/internal/observability"
	"github.com/couchcryptid/road-crash-etl-service/internal/query"
)

const keyPrefix = "crashes:"

// Backend stores encoded results. Get reports found=false for a miss.
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Querier runs compiled crash queries.
type Querier interface {
	Query(ctx context.Context, stmt query.Statement) ([]query.Row, error)
}

// CachedQuerier wraps a Querier with a result cache. Backend failures are
// logged and the query falls through to the inner Querier.
type CachedQuerier struct {
	inner   Querier
	backend Backend
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// New creates a cache decorator around inner.
func New(inner Querier, backend Backend, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *CachedQuerier {
	return &CachedQuerier{
		inner:   inner,
		backend: backend,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

func (c *CachedQuerier) Query(ctx context.Context, stmt query.Statement) ([]query.Row, error) {
	key, err := Key(stmt)
	if err != nil {
		return nil, err
	}

	if data, found, err := c.backend.Get(ctx, key); err != nil {
		c.logger.Warn("query cache get failed", "error", err)
	} else if found {
		var rows []query.Row
		if err := json.Unmarshal(data, &rows); err == nil {
			c.metrics.QueryCache.WithLabelValues("hit").Inc()
			return rows, nil
		}
		c.logger.Warn("query cache entry undecodable", "key", key)
	}
	c.metrics.QueryCache.WithLabelValues("miss").Inc()

	rows, err := c.inner.Query(ctx, stmt)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode cache entry: %w", err)
	}
	if err := c.backend.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("query cache set failed", "error", err)
	}
	return rows, nil
}

// Key derives a stable cache key from the statement text and arguments.
func Key(stmt query.Statement) (string, error) {
	args, err := json.Marshal(stmt.Args)
	if err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(stmt.SQL))
	h.Write([]byte{0})
	h.Write(args)
	return keyPrefix + hex.EncodeToString(h.Sum(nil)), nil
}
