/*
errors.go - Centralized error types for the costing engine

PURPOSE:
  All error types in one place for consistency and discoverability. The API
  layer maps these onto HTTP statuses with errors.Is.

ERROR CATEGORIES:
  1. Input errors - malformed report requests, no computation attempted
  2. Reference read errors - any store read failure aborts the whole report

There is no partial-report error shape: a report is either fully computed or
not returned at all.
*/
package costing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDateRange is returned when the requested range is missing or
	// ends before it starts.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrUnknownResourceKind is returned when a requested kind is not one of
	// guide, escort, headphone, printing.
	ErrUnknownResourceKind = errors.New("unknown resource kind")

	// ErrUnknownGroupBy is returned for a grouping dimension other than
	// staff, date, activity.
	ErrUnknownGroupBy = errors.New("unknown group_by dimension")

	// ErrReferenceRead is returned when any reference-data read fails. The
	// whole report aborts; see ReferenceReadError for the failing query.
	ErrReferenceRead = errors.New("reference data read failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ReferenceReadError identifies which reference-data query failed.
type ReferenceReadError struct {
	Query string // e.g. "assignments", "occurrences_by_id"
	Err   error
}

func (e *ReferenceReadError) Error() string {
	return fmt.Sprintf("reference read %q failed: %v", e.Query, e.Err)
}

func (e *ReferenceReadError) Unwrap() error { return ErrReferenceRead }

func readErr(query string, err error) error {
	return &ReferenceReadError{Query: query, Err: err}
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrUnknownResourceKind) ||
		errors.Is(err, ErrUnknownGroupBy)
}
