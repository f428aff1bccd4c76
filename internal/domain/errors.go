package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoLocation marks a row without spatial data (longitude "0").
	// Such rows are skipped, not treated as malformed.
	ErrNoLocation = errors.New("crash has no location data")

	// ErrStreamTransport is returned when the source stream itself breaks.
	// It is fatal to the whole import.
	ErrStreamTransport = errors.New("stream transport failure")
)

// Failure kinds used in import summaries and metric labels.
const (
	FailureNoLocation          = "no_location"
	FailureRowFormat           = "row_format"
	FailureUnknownCategory     = "unknown_category"
	FailureConstraintViolation = "constraint_violation"
	FailureOther               = "other"
)

// RowFormatError reports a field that could not be parsed.
type RowFormatError struct {
	Field string
	Value string
	Err   error
}

func (e *RowFormatError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *RowFormatError) Unwrap() error { return e.Err }

// UnknownCategoryError reports a label missing from a reference table.
type UnknownCategoryError struct {
	Table ReferenceTable
	Label string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown %s label %q", e.Table, e.Label)
}

// ConstraintViolationError reports a row rejected by a store constraint,
// such as a duplicate primary key or a null in a required column.
type ConstraintViolationError struct {
	Constraint string
	Err        error
}

func (e *ConstraintViolationError) Error() string {
	if e.Constraint == "" {
		return fmt.Sprintf("constraint violation: %v", e.Err)
	}
	return fmt.Sprintf("constraint %s violated: %v", e.Constraint, e.Err)
}

func (e *ConstraintViolationError) Unwrap() error { return e.Err }

// GeometryFormatError reports a geography value that is not a point.
type GeometryFormatError struct {
	Reason string
	Err    error
}

func (e *GeometryFormatError) Error() string {
	if e.Err == nil {
		return "geometry format: " + e.Reason
	}
	return fmt.Sprintf("geometry format: %s: %v", e.Reason, e.Err)
}

func (e *GeometryFormatError) Unwrap() error { return e.Err }

// IsRowFailure reports whether err only affects a single row, meaning the
// import can record it and continue.
func IsRowFailure(err error) bool {
	return FailureKind(err) != FailureOther
}

// FailureKind classifies a row error into one of the Failure* kinds.
func FailureKind(err error) string {
	var (
		formatErr     *RowFormatError
		categoryErr   *UnknownCategoryError
		constraintErr *ConstraintViolationError
	)
	switch {
	case errors.Is(err, ErrNoLocation):
		return FailureNoLocation
	case errors.As(err, &formatErr):
		return FailureRowFormat
	case errors.As(err, &categoryErr):
		return FailureUnknownCategory
	case errors.As(err, &constraintErr):
		return FailureConstraintViolation
	default:
		return FailureOther
	}
}
