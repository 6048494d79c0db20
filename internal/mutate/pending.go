package mutate

import (
	"github.com/tallridge/backroom/internal/record"
)

// Op is a sealed interface over the mutation operations the two-phase
// contract can carry. Only UpsertOp, DeleteOp, and BulkOp implement it.
type Op interface {
	opNode() // Marker method - seals interface to this package

	// targetIDs lists the record ids the operation will touch, for
	// in-flight conflict detection. A create targets no existing id.
	targetIDs() []string
}

// UpsertOp begins a create or update.
type UpsertOp struct {
	Payload Payload
}

func (UpsertOp) opNode() {}

func (op UpsertOp) targetIDs() []string {
	if op.Payload.ID == "" {
		return nil
	}
	return []string{op.Payload.ID}
}

// DeleteOp begins the confirmed half of a two-phase delete.
type DeleteOp struct {
	Ticket DeleteTicket
}

func (DeleteOp) opNode() {}

func (op DeleteOp) targetIDs() []string {
	return []string{op.Ticket.RecordID}
}

// BulkOp begins a bulk action.
type BulkOp struct {
	Spec BulkSpec
}

func (BulkOp) opNode() {}

func (op BulkOp) targetIDs() []string {
	return op.Spec.TargetIDs
}

// Pending is an in-flight mutation: the first phase of the two-phase
// contract. The raw collection is only considered changed once Resolve
// returns a success result; until then the view may be re-derived from
// the old collection without speculative merging.
//
// Exactly one of Resolve or Discard must be called. Discard releases the
// in-flight reservation without applying anything - the path a UI takes
// when the screen is torn down before the backend round trip settles.
type Pending struct {
	coordinator *Coordinator
	collection  []record.Record
	op          Op
	settled     bool
}

// Begin reserves the operation's target records and returns the pending
// mutation. Returns an *InFlightError when any target already has a
// pending mutation; mutations against disjoint id sets proceed without
// coordination.
func (c *Coordinator) Begin(coll []record.Record, op Op) (*Pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range op.targetIDs() {
		if _, busy := c.inflight[id]; busy {
			return nil, &InFlightError{RecordID: id}
		}
	}
	for _, id := range op.targetIDs() {
		c.inflight[id] = struct{}{}
	}

	// Snapshot the collection so later caller edits cannot race the
	// settled result.
	return &Pending{
		coordinator: c,
		collection:  record.CloneAll(coll),
		op:          op,
	}, nil
}

// Resolve settles the mutation and returns its tagged result.
// Calling Resolve twice returns the invalid-ticket status rather than
// re-applying.
func (p *Pending) Resolve() Result {
	if p.settled {
		return Result{Status: StatusInvalidTicket}
	}
	p.release()

	switch op := p.op.(type) {
	case UpsertOp:
		return p.coordinator.Upsert(p.collection, op.Payload)
	case DeleteOp:
		return p.coordinator.ConfirmDelete(p.collection, op.Ticket)
	case BulkOp:
		return p.coordinator.Bulk(p.collection, op.Spec)
	default:
		return Result{Status: StatusValidationError}
	}
}

// Discard abandons the mutation without applying it.
func (p *Pending) Discard() {
	if p.settled {
		return
	}
	p.release()
}

func (p *Pending) release() {
	p.coordinator.mu.Lock()
	defer p.coordinator.mu.Unlock()
	p.settled = true
	for _, id := range p.op.targetIDs() {
		delete(p.coordinator.inflight, id)
	}
}
