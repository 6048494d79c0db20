package mutate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tallridge/backroom/internal/record"
)

// Status categorizes mutation outcomes. Mutations never panic or return
// bare errors past the coordinator boundary; every outcome is a tagged
// Result so presentation code can render field-level or toast-level
// feedback.
type Status string

const (
	// StatusSuccess means the mutation was applied and Result.Collection
	// holds the new raw collection.
	StatusSuccess Status = "success"

	// StatusValidationError means a caller-fixable payload problem;
	// Result.FieldErrors names the offending fields. No mutation applied.
	StatusValidationError Status = "validation_error"

	// StatusNotFound means a target id was absent from the raw
	// collection. No mutation applied.
	StatusNotFound Status = "not_found"

	// StatusEmptySelection means a bulk action was invoked with zero
	// targets. Surfaced before any processing.
	StatusEmptySelection Status = "empty_selection"

	// StatusConfirmRequired means a destructive operation needs an
	// explicit confirmation step before it proceeds.
	StatusConfirmRequired Status = "confirm_required"

	// StatusInvalidTicket means a two-phase handle was unusable: a delete
	// ticket that no request issued, or a pending mutation that was
	// already settled. No mutation applied.
	StatusInvalidTicket Status = "invalid_ticket"
)

// Result is the tagged outcome of one mutation operation.
type Result struct {
	Status Status

	// Collection is the new raw collection. Set only on success; on every
	// other status the caller's collection is unchanged.
	Collection []record.Record

	// RecordID is the created, mutated, or missing record id, when a
	// single record is implicated.
	RecordID string

	// FieldErrors maps field name to a human-readable message for
	// validation failures.
	FieldErrors map[string]string
}

// OK reports whether the mutation was applied.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// Err converts a non-success result into an error for callers that prefer
// error plumbing (the CLI). Success yields nil.
func (r Result) Err() error {
	switch r.Status {
	case StatusSuccess:
		return nil
	case StatusValidationError:
		fields := make([]string, 0, len(r.FieldErrors))
		for f, msg := range r.FieldErrors {
			fields = append(fields, fmt.Sprintf("%s: %s", f, msg))
		}
		sort.Strings(fields)
		return fmt.Errorf("validation failed: %s", strings.Join(fields, "; "))
	case StatusNotFound:
		return fmt.Errorf("record %q not found", r.RecordID)
	case StatusEmptySelection:
		return fmt.Errorf("bulk action requires a non-empty selection")
	case StatusConfirmRequired:
		return fmt.Errorf("record %q: confirmation required", r.RecordID)
	case StatusInvalidTicket:
		return fmt.Errorf("mutation handle already settled or never issued")
	default:
		return fmt.Errorf("unknown mutation status %q", r.Status)
	}
}

func success(coll []record.Record, id string) Result {
	return Result{Status: StatusSuccess, Collection: coll, RecordID: id}
}

func notFound(id string) Result {
	return Result{Status: StatusNotFound, RecordID: id}
}

func validationFailed(fieldErrors map[string]string) Result {
	return Result{Status: StatusValidationError, FieldErrors: fieldErrors}
}

// InFlightError reports an attempt to begin a mutation against a record
// that already has a pending mutation. Callers must serialize mutations
// per record id to avoid lost updates; mutations against different ids
// are independent.
type InFlightError struct {
	RecordID string
}

func (e *InFlightError) Error() string {
	return fmt.Sprintf("mutation already in flight for record %q", e.RecordID)
}
