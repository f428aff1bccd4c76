package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/road-crash-etl-service/internal/adapter/httpadapter"
	"github.com/couchcryptid/road-crash-etl-service/internal/adapter/postgres"
	"github.com/couchcryptid/road-crash-etl-service/internal/observability"
	"github.com/couchcryptid/road-crash-etl-service/internal/querycache"
)

func serveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the crash query API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := a.logger
	metrics := observability.NewMetrics()

	store, err := postgres.New(ctx, a.cfg.DatabaseURL, a.cfg.DBMaxConns, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ready := readinessGroup{store}
	var querier httpadapter.CrashQuerier = store

	// Initialize the query cache (disabled via QUERY_CACHE_TTL=0).
	switch {
	case a.cfg.QueryCacheTTL <= 0:
		logger.Info("query cache disabled")
	case a.cfg.RedisURL != "":
		backend, err := querycache.NewRedis(ctx, a.cfg.RedisURL)
		if err != nil {
			return err
		}
		defer backend.Close()
		ready = append(ready, backend)
		querier = querycache.New(store, backend, a.cfg.QueryCacheTTL, metrics, logger)
		logger.Info("redis query cache enabled", "ttl", a.cfg.QueryCacheTTL)
	default:
		backend := querycache.NewMemory(a.cfg.QueryCacheSize, a.cfg.QueryCacheTTL)
		querier = querycache.New(store, backend, a.cfg.QueryCacheTTL, metrics, logger)
		logger.Info("in-memory query cache enabled", "ttl", a.cfg.QueryCacheTTL, "size", a.cfg.QueryCacheSize)
	}

	crashes := httpadapter.NewCrashHandler(querier, a.cfg.QueryLimit, a.cfg.QueryTimeout, metrics, logger)
	srv := httpadapter.NewServer(a.cfg.HTTPAddr, ready, crashes, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(parent), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// readinessGroup is ready when every member is.
type readinessGroup []sharedobs.ReadinessChecker

func (g readinessGroup) CheckReadiness(ctx context.Context) error {
	for _, c := range g {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
