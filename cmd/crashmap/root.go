package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/road-crash-etl-service/internal/config"
	"github.com/couchcryptid/road-crash-etl-service/internal/observability"
)

// app carries what every subcommand needs once the environment is loaded.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "crashmap",
		Short:         "Road crash ETL and geo query service",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				slog.Error("failed to load config", "error", err)
				return err
			}
			a.cfg = cfg
			a.logger = observability.NewLogger(cfg)
			slog.SetDefault(a.logger)
			return nil
		},
	}

	root.AddCommand(
		importCommand(a),
		serveCommand(a),
		validateCommand(a),
	)
	return root
}
