package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/road-crash-etl-service/internal/domain"
	"github.com/couchcryptid/road-crash-etl-service/internal/observability"
)

// RowSource yields raw CSV rows until io.EOF.
type RowSource interface {
	Next() (domain.RawRow, error)
}

// Normalizer converts a raw row into a scored crash record.
type Normalizer interface {
	Normalize(row domain.RawRow) (domain.CrashRecord, error)
}

// Store opens the transaction an import writes into.
type Store interface {
	BeginImport(ctx context.Context) (ImportTx, error)
}

// ImportTx is a single import transaction. InsertCrash must leave the
// transaction usable when it returns a row-level error.
type ImportTx interface {
	InsertCrash(ctx context.Context, rec domain.CrashRecord) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// SummaryPublisher announces finished imports.
type SummaryPublisher interface {
	PublishSummary(ctx context.Context, summary domain.ImportSummary) error
}

// Option configures an Importer.
type Option func(*Importer)

// WithClock sets the time source used for summary timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(im *Importer) { im.clock = c }
}

// WithPublisher publishes each committed import summary.
func WithPublisher(p SummaryPublisher) Option {
	return func(im *Importer) { im.publisher = p }
}

// Importer streams rows from a source through normalization into the store.
// Rows are processed one at a time inside a single transaction. Row-level
// failures are counted and skipped; stream, store and commit failures roll
// the whole import back.
//
// An Importer runs one import at a time. Concurrent imports into the same
// table must be coordinated by the caller.
type Importer struct {
	store      Store
	normalizer Normalizer
	publisher  SummaryPublisher
	logger     *slog.Logger
	metrics    *observability.Metrics
	clock      clockwork.Clock
	batchSize  int
	processed  atomic.Int64
}

// New creates an Importer. A progress line is logged every batchSize rows.
func New(store Store, normalizer Normalizer, logger *slog.Logger, metrics *observability.Metrics, batchSize int, opts ...Option) *Importer {
	im := &Importer{
		store:      store,
		normalizer: normalizer,
		logger:     logger,
		metrics:    metrics,
		clock:      clockwork.NewRealClock(),
		batchSize:  batchSize,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Processed returns the number of rows read by the current or last import.
// Safe to call while Run is in progress.
func (im *Importer) Processed() int64 {
	return im.processed.Load()
}

// Run imports every row from rows. source names the dataset in logs and in
// the returned summary. The summary is returned even when Run fails, and
// then describes the rows seen before the failure.
func (im *Importer) Run(ctx context.Context, source string, rows RowSource) (domain.ImportSummary, error) {
	summary := domain.ImportSummary{
		RunID:     uuid.NewString(),
		Source:    source,
		StartedAt: im.clock.Now(),
		Failures:  make(map[string]int),
	}
	logger := im.logger.With("run_id", summary.RunID, "source", source)

	im.processed.Store(0)
	im.metrics.ImportRunning.Set(1)
	defer im.metrics.ImportRunning.Set(0)

	logger.Info("import started", "batch_size", im.batchSize)

	tx, err := im.store.BeginImport(ctx)
	if err != nil {
		im.finish(&summary)
		return summary, fmt.Errorf("begin import: %w", err)
	}

	if err := im.load(ctx, logger, tx, rows, &summary); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			logger.Error("rollback failed", "error", rbErr)
		}
		im.finish(&summary)
		logger.Error("import aborted", "error", err, "processed", summary.Processed, "stored", summary.Stored)
		return summary, err
	}

	if err := tx.Commit(ctx); err != nil {
		im.finish(&summary)
		return summary, fmt.Errorf("commit import: %w", err)
	}
	im.finish(&summary)
	im.metrics.ImportDuration.Observe(summary.Duration.Seconds())

	logger.Info("import complete",
		"processed", summary.Processed,
		"stored", summary.Stored,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"duration", summary.Duration,
	)

	if im.publisher != nil {
		if err := im.publisher.PublishSummary(ctx, summary); err != nil {
			logger.Warn("publish import summary failed", "error", err)
		}
	}
	return summary, nil
}

func (im *Importer) load(ctx context.Context, logger *slog.Logger, tx ImportTx, rows RowSource, summary *domain.ImportSummary) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil && !domain.IsRowFailure(err) {
			return fmt.Errorf("read row %d: %w", summary.Processed+1, err)
		}

		summary.Processed++
		n := im.processed.Add(1)
		im.metrics.RowsProcessed.Inc()

		if err == nil {
			err = im.loadRow(ctx, tx, row)
		}
		switch {
		case err == nil:
			summary.Stored++
			im.metrics.RowsStored.Inc()
		case domain.IsRowFailure(err):
			im.recordFailure(logger, summary, n, err)
		default:
			return fmt.Errorf("row %d: %w", n, err)
		}

		if im.batchSize > 0 && n%int64(im.batchSize) == 0 {
			logger.Info("import progress", "processed", n, "stored", summary.Stored, "failed", summary.Failed)
		}
	}
}

func (im *Importer) loadRow(ctx context.Context, tx ImportTx, row domain.RawRow) error {
	rec, err := im.normalizer.Normalize(row)
	if err != nil {
		return err
	}
	return tx.InsertCrash(ctx, rec)
}

// recordFailure counts a row that was not stored. Rows without a location
// count as failures and also as skipped.
func (im *Importer) recordFailure(logger *slog.Logger, summary *domain.ImportSummary, n int64, err error) {
	kind := domain.FailureKind(err)
	summary.Failed++
	summary.Failures[kind]++
	im.metrics.RowFailures.WithLabelValues(kind).Inc()

	if kind == domain.FailureNoLocation {
		summary.Skipped++
		im.metrics.RowsSkipped.Inc()
		logger.Debug("row skipped", "row", n, "reason", err)
		return
	}
	logger.Warn("row failed", "row", n, "kind", kind, "error", err)
}

func (im *Importer) finish(summary *domain.ImportSummary) {
	summary.FinishedAt = im.clock.Now()
	summary.Duration = summary.FinishedAt.Sub(summary.StartedAt)
}
