// Package session composes the query engine, selection tracker, and
// mutation coordinator into the stateful unit behind one admin list
// screen. The session owns the raw collection and the current query
// parameters; everything the screen renders is the derived view.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tallridge/backroom/internal/mutate"
	"github.com/tallridge/backroom/internal/query"
	"github.com/tallridge/backroom/internal/record"
	"github.com/tallridge/backroom/internal/selection"
)

// SnapshotSink receives the raw collection after every applied mutation.
// The sqlite store implements it; tests use an in-memory recorder. A sink
// failure never rolls back the in-memory mutation, it is logged and the
// session keeps going.
type SnapshotSink interface {
	SaveSnapshot(ctx context.Context, kind string, records []record.Record) error
}

// Option configures a Session.
type Option func(*Session)

// WithSnapshotSink attaches a persistence sink.
func WithSnapshotSink(sink SnapshotSink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithParams sets the initial query parameters.
func WithParams(p query.Params) Option {
	return func(s *Session) { s.params = p }
}

// Session is the single-screen state machine.
//
// INVARIANT: the selection is always a subset of the view's revealed ids.
// Every parameter change resets pagination to the first page and clears
// the selection; every applied mutation re-derives the view and
// reconciles the selection against it.
//
// Thread-safety: all methods are safe for concurrent use via internal
// mutex, though the intended caller is one UI event loop.
type Session struct {
	mu          sync.Mutex
	coordinator *mutate.Coordinator
	sink        SnapshotSink

	raw      []record.Record
	params   query.Params
	revealed int
	tracker  *selection.Tracker
	view     query.View
}

// New creates a session over an initial raw collection. The collection is
// copied; the caller's slice stays independent.
func New(coordinator *mutate.Coordinator, initial []record.Record, opts ...Option) *Session {
	s := &Session{
		coordinator: coordinator,
		raw:         record.CloneAll(initial),
		tracker:     selection.NewTracker(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.revealed = s.params.EffectivePageSize()
	s.rederive()
	return s
}

// View returns the current derived view.
func (s *Session) View() query.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Raw returns a copy of the raw collection.
func (s *Session) Raw() []record.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return record.CloneAll(s.raw)
}

// SetSearch replaces the free-text query. Pagination resets to the first
// page and the selection is cleared: the user is looking at a new result
// set, carrying hidden selected rows forward would make bulk actions act
// on invisible records.
func (s *Session) SetSearch(q string) query.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.Search = q
	return s.resetLocked()
}

// SetFilters replaces the active filter set. Same reset semantics as
// SetSearch.
func (s *Session) SetFilters(filters ...query.Filter) query.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.Filters = filters
	return s.resetLocked()
}

// SetSort replaces the sort key and direction. Same reset semantics as
// SetSearch.
func (s *Session) SetSort(key string, dir query.Direction) query.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.SortKey = key
	s.params.SortDir = dir
	return s.resetLocked()
}

// LoadMore reveals one more page of the current result set. Selection and
// parameters are untouched; already revealed rows keep their order.
func (s *Session) LoadMore() query.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view.HasMore {
		s.revealed += s.params.EffectivePageSize()
		s.rederive()
	}
	return s.view
}

// Toggle flips the selection state of one visible row. Toggling an id
// that is not in the current view is a no-op.
func (s *Session) Toggle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.Toggle(id)
	s.tracker.Reconcile(s.view.IDs())
}

// ToggleAll selects every currently visible row, or clears the selection
// when all of them are already selected.
func (s *Session) ToggleAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.ToggleAll(s.view.IDs())
}

// IsSelected reports the selection state of one id.
func (s *Session) IsSelected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.IsSelected(id)
}

// SelectedIDs returns the selected ids in sorted order.
func (s *Session) SelectedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.IDs()
}

// Adopt replaces the raw collection with one produced outside the
// session's own coordinator, such as a resolved tree mutation emitting
// its flattened item collection. Query parameters and the revealed count
// are kept; the view is re-derived and the selection reconciled against
// it. Persistence stays with the producer of the collection.
func (s *Session) Adopt(records []record.Record) query.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = record.CloneAll(records)
	s.rederive()
	return s.view
}

// Upsert applies a create or update through the two-phase contract and,
// on success, adopts the new collection, re-derives the view, and
// persists a snapshot. Returns an *mutate.InFlightError when the target
// record already has a pending mutation.
func (s *Session) Upsert(ctx context.Context, p mutate.Payload) (mutate.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(ctx, mutate.UpsertOp{Payload: p})
}

// RequestDelete begins a two-phase single-record delete. No mutation is
// applied; the ticket must be passed to ConfirmDelete.
func (s *Session) RequestDelete(id string) (mutate.DeleteTicket, mutate.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coordinator.RequestDelete(s.raw, id)
}

// ConfirmDelete completes a requested delete.
func (s *Session) ConfirmDelete(ctx context.Context, ticket mutate.DeleteTicket) (mutate.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(ctx, mutate.DeleteOp{Ticket: ticket})
}

// BulkSelected applies a bulk action to the current selection. The spec's
// TargetIDs are overwritten with the selected ids; an empty selection
// yields the empty-selection status without touching anything. A
// successful bulk action clears the selection.
func (s *Session) BulkSelected(ctx context.Context, spec mutate.BulkSpec) (mutate.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	spec.TargetIDs = s.tracker.IDs()
	res, err := s.applyLocked(ctx, mutate.BulkOp{Spec: spec})
	if err == nil && res.OK() {
		s.tracker.Clear()
	}
	return res, err
}

// applyLocked runs one operation through Begin/Resolve and adopts the
// result. Callers hold s.mu.
func (s *Session) applyLocked(ctx context.Context, op mutate.Op) (mutate.Result, error) {
	pending, err := s.coordinator.Begin(s.raw, op)
	if err != nil {
		return mutate.Result{}, err
	}

	res := pending.Resolve()
	if !res.OK() {
		return res, nil
	}

	s.raw = res.Collection
	s.rederive()
	s.persist(ctx)
	return res, nil
}

// resetLocked returns to the first page with an empty selection and
// re-derives. Callers hold s.mu.
func (s *Session) resetLocked() query.View {
	s.revealed = s.params.EffectivePageSize()
	s.tracker.Clear()
	s.rederive()
	return s.view
}

// rederive recomputes the view and drops selected ids that are no longer
// visible. Callers hold s.mu.
func (s *Session) rederive() {
	s.view = query.DeriveView(s.coordinator.Schema(), s.raw, s.params, s.revealed)
	s.tracker.Reconcile(s.view.IDs())
}

// persist hands the new raw collection to the snapshot sink, if any.
func (s *Session) persist(ctx context.Context) {
	if s.sink == nil {
		return
	}
	kind := s.coordinator.Schema().Kind
	if err := s.sink.SaveSnapshot(ctx, kind, record.CloneAll(s.raw)); err != nil {
		slog.Warn("snapshot persistence failed", "kind", kind, "error", err)
	}
}
