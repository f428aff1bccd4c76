package pipeline

import (
	"context"

	"github.com/couchcryptid/road-crash-etl-service/internal/domain"
)

// DryRunStore accepts every record without writing it anywhere. Running an
// Importer against it validates a dataset end to end without a database.
type DryRunStore struct{}

func (DryRunStore) BeginImport(context.Context) (ImportTx, error) {
	return dryRunTx{}, nil
}

type dryRunTx struct{}

func (dryRunTx) InsertCrash(context.Context, domain.CrashRecord) error { return nil }
func (dryRunTx) Commit(context.Context) error                          { return nil }
func (dryRunTx) Rollback(context.Context) error                        { return nil }
