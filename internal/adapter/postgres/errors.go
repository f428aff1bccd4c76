package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/couchcryptid/road-crash-etl-service/internal/domain"
)

// PostgreSQL SQLSTATE codes that reject a single row.
const (
	codeUniqueViolation     = "23505"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
	codeForeignKeyViolation = "23503"
	codeStringTooLong       = "22001"
	codeNumericOutOfRange   = "22003"
	codeBadByteSequence     = "22021"

	// Class 22 covers every data exception raised by a single value.
	classDataException = "22"
)

// classify maps row-level database errors onto the domain failure types.
// Anything else is returned unchanged and aborts the import.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == codeUniqueViolation, pgErr.Code == codeNotNullViolation, pgErr.Code == codeCheckViolation:
		return &domain.ConstraintViolationError{Constraint: pgErr.ConstraintName, Err: err}
	case pgErr.Code == codeForeignKeyViolation:
		return &domain.UnknownCategoryError{Table: referencedTable(pgErr.ConstraintName), Label: pgErr.Detail}
	case strings.HasPrefix(pgErr.Code, classDataException):
		field := pgErr.ColumnName
		if field == "" {
			field = "value"
		}
		return &domain.RowFormatError{Field: field, Err: err}
	default:
		return err
	}
}

// referencedTable guesses the reference table from a default foreign key
// name such as "crashlocations_natureid_fkey".
func referencedTable(constraint string) domain.ReferenceTable {
	for column, table := range fkColumns {
		if constraint == "crashlocations_"+column+"_fkey" {
			return table
		}
	}
	return domain.ReferenceTable(constraint)
}

var fkColumns = map[string]domain.ReferenceTable{
	"severityid":             domain.TableSeverity,
	"natureid":               domain.TableNature,
	"typeid":                 domain.TableType,
	"roadwayfeatureid":       domain.TableRoadwayFeature,
	"trafficcontrolid":       domain.TableTrafficControl,
	"atmosphericconditionid": domain.TableAtmosphericCondition,
}
