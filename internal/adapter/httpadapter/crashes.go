// Package httpadapter serves the crash query API.
package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/road-crash-etl-service/internal/observability"
	"github.com/couchcryptid/road-crash-etl-service/internal/query"
)

const maxRequestBytes = 64 << 10

// CrashQuerier runs compiled crash queries.
type CrashQuerier interface {
	Query(ctx context.Context, stmt query.Statement) ([]query.Row, error)
}

// CrashHandler serves POST /list_crashes.
type CrashHandler struct {
	querier CrashQuerier
	limit   int
	timeout time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCrashHandler creates a handler returning at most limit crashes per
// request, abandoning queries that run longer than timeout.
func NewCrashHandler(querier CrashQuerier, limit int, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *CrashHandler {
	return &CrashHandler{
		querier: querier,
		limit:   limit,
		timeout: timeout,
		metrics: metrics,
		logger:  logger,
	}
}

// ListCrashes decodes a filter, runs it and writes the matching crashes as
// a JSON array, most severe first. An empty body means no filters.
func (h *CrashHandler) ListCrashes(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.metrics.QueryDuration.Observe(time.Since(start).Seconds())
	}()

	filter, err := decodeFilter(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		h.fail(w, http.StatusBadRequest, "invalid", "malformed request body: "+err.Error())
		return
	}

	stmt, err := query.Compile(filter, h.limit)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "invalid", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	rows, err := h.querier.Query(ctx, stmt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			h.logger.Warn("crash query timed out", "timeout", h.timeout)
			h.fail(w, http.StatusGatewayTimeout, "timeout", "query timed out")
			return
		}
		h.logger.Error("crash query failed", "error", err)
		h.fail(w, http.StatusInternalServerError, "error", "query failed")
		return
	}

	crashes, bad := query.Project(rows)
	if bad > 0 {
		h.logger.Warn("crash locations could not be decoded", "count", bad)
	}

	h.metrics.Queries.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, crashes)
}

// decodeFilter reads exactly one JSON object. An empty body is an empty filter.
func decodeFilter(body io.Reader) (query.Filter, error) {
	var filter query.Filter
	dec := json.NewDecoder(body)
	if err := dec.Decode(&filter); err != nil {
		if errors.Is(err, io.EOF) {
			return query.Filter{}, nil
		}
		return query.Filter{}, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return query.Filter{}, errors.New("unexpected data after filter object")
	}
	return filter, nil
}

func (h *CrashHandler) fail(w http.ResponseWriter, status int, outcome, msg string) {
	h.metrics.Queries.WithLabelValues(outcome).Inc()
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
