package mutate

import (
	"log/slog"
	"sync"

	"github.com/tallridge/backroom/internal/record"
)

// Coordinator applies mutations to raw record collections.
//
// The coordinator is the single writer role in the engine: all other
// components only read the raw collection or a derived snapshot of it. It
// never mutates a caller's slice in place - every successful operation
// returns a new collection, so a caller holding the old value observes
// nothing until it adopts the result.
type Coordinator struct {
	schema record.Schema
	clock  Clock
	ids    IDGenerator

	// inflight tracks record ids with a pending two-phase mutation.
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewCoordinator creates a coordinator for one record kind.
func NewCoordinator(schema record.Schema, clock Clock, ids IDGenerator) *Coordinator {
	return &Coordinator{
		schema:   schema,
		clock:    clock,
		ids:      ids,
		inflight: make(map[string]struct{}),
	}
}

// Schema returns the coordinator's record schema.
func (c *Coordinator) Schema() record.Schema {
	return c.schema
}

// Upsert applies a create (empty payload id) or a full/partial update.
//
// Validation is atomic all-or-nothing: any field error means no mutation
// is applied. On success the record is replaced or appended by id in a
// copied collection and stamped with updatedAt.
func (c *Coordinator) Upsert(coll []record.Record, p Payload) Result {
	parsed, fieldErrors := parseFields(c.schema, p.Fields)

	var candidate record.Record
	idx := -1
	if p.ID == "" {
		candidate = record.New("")
	} else {
		idx = record.FindIndex(coll, p.ID)
		if idx < 0 {
			return notFound(p.ID)
		}
		candidate = coll[idx].Clone()
	}

	for name, v := range parsed {
		candidate.Set(name, v)
	}
	validateRequired(c.schema, candidate, fieldErrors)
	if len(fieldErrors) > 0 {
		return validationFailed(fieldErrors)
	}

	// Generate only once validation has passed: a rejected create must
	// not consume an id, or deterministic generators drift out of step
	// with the records actually created.
	if idx < 0 {
		candidate.ID = c.ids.Generate()
	}
	c.stamp(&candidate)

	next := record.CloneAll(coll)
	if idx < 0 {
		next = append(next, candidate)
	} else {
		next[idx] = candidate
	}

	slog.Debug("record upserted",
		"kind", c.schema.Kind,
		"record_id", candidate.ID,
		"created", idx < 0,
	)
	return success(next, candidate.ID)
}

// DeleteTicket is the evidence of a completed delete request. A delete is
// two-phase: RequestDelete issues a ticket, ConfirmDelete consumes it.
type DeleteTicket struct {
	RecordID string
	issued   bool
}

// RequestDelete begins the two-phase delete of one record.
//
// Returns a confirm-required result and a ticket when the record exists;
// no mutation is applied until the ticket is confirmed. Abandoning the
// ticket aborts the delete with the collection untouched.
func (c *Coordinator) RequestDelete(coll []record.Record, id string) (DeleteTicket, Result) {
	if record.FindIndex(coll, id) < 0 {
		return DeleteTicket{}, notFound(id)
	}
	return DeleteTicket{RecordID: id, issued: true},
		Result{Status: StatusConfirmRequired, RecordID: id}
}

// ConfirmDelete completes a requested delete.
//
// The target is looked up again at confirm time: if it vanished between
// request and confirm the result is not-found, never a silent no-op.
// Callers must reconcile their selection after adopting the result.
func (c *Coordinator) ConfirmDelete(coll []record.Record, ticket DeleteTicket) Result {
	if !ticket.issued {
		return Result{Status: StatusInvalidTicket, RecordID: ticket.RecordID}
	}
	idx := record.FindIndex(coll, ticket.RecordID)
	if idx < 0 {
		return notFound(ticket.RecordID)
	}

	next := make([]record.Record, 0, len(coll)-1)
	for i, r := range coll {
		if i == idx {
			continue
		}
		next = append(next, r.Clone())
	}

	slog.Debug("record deleted",
		"kind", c.schema.Kind,
		"record_id", ticket.RecordID,
	)
	return success(next, ticket.RecordID)
}

// stamp writes the updatedAt field when the schema declares one.
func (c *Coordinator) stamp(r *record.Record) {
	if _, ok := c.schema.FieldType(record.UpdatedAtField); ok {
		r.Set(record.UpdatedAtField, record.NewTime(c.clock.Now()))
	}
}
