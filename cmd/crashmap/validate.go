package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/road-crash-etl-service/internal/adapter/opendata"
	"github.com/couchcryptid/road-crash-etl-service/internal/domain"
	"github.com/couchcryptid/road-crash-etl-service/internal/observability"
	"github.com/couchcryptid/road-crash-etl-service/internal/pipeline"
)

func validateCommand(a *app) *cobra.Command {
	var maxFailed float64

	cmd := &cobra.Command{
		Use:   "validate <file.csv>",
		Short: "Dry-run a local crash CSV without touching the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := a.validate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			report(cmd.OutOrStdout(), summary)

			if rate := failedRate(summary); rate > maxFailed {
				return fmt.Errorf("%.1f%% of rows failed, above the %.1f%% limit", rate*100, maxFailed*100)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&maxFailed, "max-failed", 0.05, "fraction of failed rows (excluding rows without location) tolerated before exiting non-zero")
	return cmd
}

func (a *app) validate(ctx context.Context, path string) (domain.ImportSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.ImportSummary{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := opendata.NewLineReader(f)
	if err != nil {
		return domain.ImportSummary{}, fmt.Errorf("read csv header: %w", err)
	}

	importer := pipeline.New(pipeline.DryRunStore{}, domain.NewNormalizer(domain.NewLookup()),
		a.logger, observability.NewMetricsForTesting(), a.cfg.BatchSize)
	return importer.Run(ctx, path, rows)
}

func report(w io.Writer, s domain.ImportSummary) {
	fmt.Fprintln(w, "=== Crash CSV Validation ===")
	fmt.Fprintf(w, "  source:     %s\n", s.Source)
	fmt.Fprintf(w, "  processed:  %d\n", s.Processed)
	fmt.Fprintf(w, "  accepted:   %d\n", s.Stored)
	fmt.Fprintf(w, "  skipped:    %d (no location)\n", s.Skipped)
	fmt.Fprintf(w, "  failed:     %d\n", s.Failed-s.Skipped)
	for _, kind := range slices.Sorted(maps.Keys(s.Failures)) {
		if kind == domain.FailureNoLocation {
			continue
		}
		fmt.Fprintf(w, "    %-22s %d\n", kind, s.Failures[kind])
	}
}

func failedRate(s domain.ImportSummary) float64 {
	located := s.Processed - s.Skipped
	if located == 0 {
		return 0
	}
	return float64(s.Failed-s.Skipped) / float64(located)
}
