package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/road-crash-etl-service/internal/adapter/kafka"
	"github.com/couchcryptid/road-crash-etl-service/internal/adapter/opendata"
	"github.com/couchcryptid/road-crash-etl-service/internal/adapter/postgres"
	"github.com/couchcryptid/road-crash-etl-service/internal/domain"
	"github.com/couchcryptid/road-crash-etl-service/internal/observability"
	"github.com/couchcryptid/road-crash-etl-service/internal/pipeline"
)

func importCommand(a *app) *cobra.Command {
	var (
		file       string
		url        string
		skipSchema bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Stream the crash CSV into the database",
		Long: "Creates the schema and reference tables if needed, then streams the crash\n" +
			"locations CSV row by row into CrashLocations inside a single transaction.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if url == "" {
				url = a.cfg.CrashDataURL
			}
			return a.runImport(ctx, file, url, skipSchema)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "read a local CSV instead of downloading")
	cmd.Flags().StringVar(&url, "url", "", "dataset URL (default CRASH_DATA_URL)")
	cmd.Flags().BoolVar(&skipSchema, "skip-schema", false, "do not create tables or seed reference data")
	return cmd
}

func (a *app) runImport(ctx context.Context, file, url string, skipSchema bool) error {
	store, err := postgres.New(ctx, a.cfg.DatabaseURL, a.cfg.DBMaxConns, a.logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if !skipSchema {
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		if err := store.Seed(ctx); err != nil {
			return err
		}
	}

	source, body, err := a.openSource(ctx, file, url)
	if err != nil {
		return err
	}
	defer body.Close()

	rows, err := opendata.NewLineReader(body)
	if err != nil {
		return fmt.Errorf("read csv header: %w", err)
	}

	var opts []pipeline.Option
	if len(a.cfg.KafkaBrokers) > 0 {
		writer := kafka.NewWriter(a.cfg.KafkaBrokers, a.cfg.KafkaImportTopic, a.logger)
		defer func() {
			if err := writer.Close(); err != nil {
				a.logger.Error("kafka writer close error", "error", err)
			}
		}()
		opts = append(opts, pipeline.WithPublisher(writer))
	}

	normalizer := domain.NewNormalizer(domain.NewLookup())
	importer := pipeline.New(store, normalizer, a.logger, observability.NewMetrics(), a.cfg.BatchSize, opts...)

	_, err = importer.Run(ctx, source, rows)
	return err
}

// openSource returns a display name and the CSV stream, from a local file
// when one is given and from url otherwise.
func (a *app) openSource(ctx context.Context, file, url string) (string, io.ReadCloser, error) {
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return "", nil, fmt.Errorf("open %s: %w", file, err)
		}
		return file, f, nil
	}

	body, err := opendata.NewClient(a.cfg.HTTPTimeout, a.logger).Open(ctx, url)
	if err != nil {
		return "", nil, err
	}
	return url, body, nil
}
