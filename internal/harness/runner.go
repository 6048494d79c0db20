package harness

import (
	"context"
	"fmt"

	"github.com/tallridge/backroom/internal/catalog"
	"github.com/tallridge/backroom/internal/mutate"
	"github.com/tallridge/backroom/internal/query"
	"github.com/tallridge/backroom/internal/record"
	"github.com/tallridge/backroom/internal/schema"
	"github.com/tallridge/backroom/internal/session"
	"github.com/tallridge/backroom/internal/testutil"
	"github.com/tallridge/backroom/internal/tree"
)

// Event is the traced outcome of one scenario step: the derived view and
// selection after the step, plus the mutation status when the step was a
// mutation. Field order is the serialization order of the golden trace.
type Event struct {
	Seq         int               `json:"seq"`
	Op          string            `json:"op"`
	Status      string            `json:"status,omitempty"`
	Guard       *GuardTrace       `json:"guard,omitempty"`
	ViewIDs     []string          `json:"view_ids"`
	Total       int               `json:"total"`
	HasMore     bool              `json:"has_more"`
	Selection   []string          `json:"selection,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

// GuardTrace is the traced delete guard of a non-leaf tree delete
// request: what a confirmed delete would take with it.
type GuardTrace struct {
	Subcategories int `json:"subcategories"`
	Products      int `json:"products"`
}

// Result is the full deterministic trace of one scenario run.
type Result struct {
	Scenario string  `json:"scenario"`
	Events   []Event `json:"events"`
}

// Run executes a scenario against a fresh session.
//
// The run is fully deterministic: a fixed clock stamps updatedAt, record
// ids come from the scenario's generated_ids list, and every step
// appends exactly one trace event. Identical scenarios always produce
// identical traces.
func Run(scenario *Scenario) (*Result, error) {
	sc, err := schema.BuiltinKind(scenario.Kind)
	if err != nil {
		return nil, err
	}

	gen := mutate.NewFixedGenerator(scenario.GeneratedIDs...)
	coordinator := mutate.NewCoordinator(sc, testutil.NewDeterministicClock(), gen)

	run := &runner{
		scenario: scenario,
		schema:   sc,
		result:   &Result{Scenario: scenario.Name},
	}

	// Tree scenarios keep the category structure beside the session; the
	// session sees the flattened item collection.
	seed, err := catalog.CoerceRecords(sc, scenario.Seed)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	if len(scenario.Tree) > 0 {
		cats, err := catalog.CoerceTree(sc, scenario.Tree)
		if err != nil {
			return nil, fmt.Errorf("tree: %w", err)
		}
		run.cats = cats
		run.treeMutator = tree.NewMutator(coordinator, gen)
		seed = tree.Items(cats)
	}

	run.session = session.New(coordinator, seed,
		session.WithParams(query.Params{PageSize: scenario.PageSize}))
	for i, step := range scenario.Steps {
		if err := run.step(i, step); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	return run.result, nil
}

type runner struct {
	scenario *Scenario
	schema   record.Schema
	session  *session.Session

	// filters accumulate across filter steps until clear_filters.
	filters []query.Filter

	// ticket holds the most recent flat delete request.
	ticket    mutate.DeleteTicket
	hasTicket bool

	// cats and treeMutator drive tree scenarios; treeTicket holds the
	// most recent tree delete request.
	cats          []tree.Category
	treeMutator   *tree.Mutator
	treeTicket    tree.DeleteTicket
	hasTreeTicket bool

	result *Result
}

func (r *runner) step(i int, step Step) error {
	ctx := context.Background()

	var (
		op     string
		status mutate.Status
		guard  *GuardTrace
		errs   map[string]string
	)

	switch {
	case step.Search != nil:
		op = "search"
		r.session.SetSearch(*step.Search)

	case step.FilterSet != nil:
		op = "filter"
		r.filters = append(r.filters, query.MatchSet{
			Field:  step.FilterSet.Field,
			Values: step.FilterSet.Values,
		})
		r.session.SetFilters(r.filters...)

	case step.FilterRange != nil:
		op = "filter"
		r.filters = append(r.filters, query.NumericRange{
			Field: step.FilterRange.Field,
			Min:   step.FilterRange.Min,
			Max:   step.FilterRange.Max,
		})
		r.session.SetFilters(r.filters...)

	case step.FilterFlag != nil:
		op = "filter"
		r.filters = append(r.filters, query.Flag{
			Field:  step.FilterFlag.Field,
			Active: step.FilterFlag.Active,
		})
		r.session.SetFilters(r.filters...)

	case step.ClearFilters:
		op = "clear_filters"
		r.filters = nil
		r.session.SetFilters()

	case step.Sort != nil:
		op = "sort"
		dir := query.Ascending
		if step.Sort.Dir == "desc" {
			dir = query.Descending
		}
		r.session.SetSort(step.Sort.Key, dir)

	case step.LoadMore:
		op = "load_more"
		r.session.LoadMore()

	case step.Toggle != "":
		op = "toggle"
		r.session.Toggle(step.Toggle)

	case step.ToggleAll:
		op = "toggle_all"
		r.session.ToggleAll()

	case step.Upsert != nil:
		op = "upsert"
		res, err := r.session.Upsert(ctx, mutate.Payload{
			ID:     step.Upsert.ID,
			Fields: step.Upsert.Fields,
		})
		if err != nil {
			return err
		}
		status, errs = res.Status, res.FieldErrors

	case step.RequestDelete != "":
		op = "request_delete"
		ticket, res := r.session.RequestDelete(step.RequestDelete)
		r.ticket, r.hasTicket = ticket, res.Status == mutate.StatusConfirmRequired
		status = res.Status

	case step.ConfirmDelete:
		op = "confirm_delete"
		switch {
		case r.hasTreeTicket:
			res := r.treeMutator.ConfirmDelete(r.cats, r.treeTicket)
			r.hasTreeTicket = false
			status, errs = res.Status, res.FieldErrors
			if res.OK() {
				r.cats = res.Categories
				r.session.Adopt(tree.Items(r.cats))
			}
		case r.hasTicket:
			res, err := r.session.ConfirmDelete(ctx, r.ticket)
			if err != nil {
				return err
			}
			r.hasTicket = false
			status = res.Status
		default:
			return fmt.Errorf("confirm_delete without a requested delete")
		}

	case step.CancelDelete:
		op = "cancel_delete"
		if !r.hasTicket && !r.hasTreeTicket {
			return fmt.Errorf("cancel_delete without a requested delete")
		}
		r.hasTicket = false
		r.hasTreeTicket = false

	case step.BulkAssign != nil:
		op = "bulk_assign"
		value, err := mutate.ParseValue(r.schema, step.BulkAssign.Field, step.BulkAssign.Value)
		if err != nil {
			return err
		}
		res, err := r.session.BulkSelected(ctx, mutate.BulkSpec{
			Field: step.BulkAssign.Field,
			Mode:  mutate.BulkAssign,
			Value: value,
		})
		if err != nil {
			return err
		}
		status, errs = res.Status, res.FieldErrors

	case step.BulkAdjust != nil:
		op = "bulk_adjust"
		res, err := r.session.BulkSelected(ctx, mutate.BulkSpec{
			Field:   step.BulkAdjust.Field,
			Mode:    mutate.BulkAdjustPercent,
			Percent: step.BulkAdjust.Percent,
		})
		if err != nil {
			return err
		}
		status, errs = res.Status, res.FieldErrors

	case step.DeleteCategory != "":
		op = "delete_category"
		if r.treeMutator == nil {
			return fmt.Errorf("delete_category requires a tree seed")
		}
		ticket, res := r.treeMutator.RequestDelete(r.cats, tree.Path{CategoryID: step.DeleteCategory})
		r.treeTicket, r.hasTreeTicket = ticket, res.Status == mutate.StatusConfirmRequired
		status = res.Status
		if r.hasTreeTicket {
			guard = &GuardTrace{
				Subcategories: res.Guard.SubcategoryCount,
				Products:      res.Guard.ProductCount,
			}
		}

	case step.DeleteSubcategory != nil:
		op = "delete_subcategory"
		if r.treeMutator == nil {
			return fmt.Errorf("delete_subcategory requires a tree seed")
		}
		ticket, res := r.treeMutator.RequestDelete(r.cats, tree.Path{
			CategoryID:    step.DeleteSubcategory.Category,
			SubcategoryID: step.DeleteSubcategory.ID,
		})
		r.treeTicket, r.hasTreeTicket = ticket, res.Status == mutate.StatusConfirmRequired
		status = res.Status
		if r.hasTreeTicket {
			guard = &GuardTrace{
				Subcategories: res.Guard.SubcategoryCount,
				Products:      res.Guard.ProductCount,
			}
		}

	default:
		return fmt.Errorf("empty step")
	}

	view := r.session.View()
	r.result.Events = append(r.result.Events, Event{
		Seq:         i + 1,
		Op:          op,
		Status:      string(status),
		Guard:       guard,
		ViewIDs:     view.IDs(),
		Total:       view.Total,
		HasMore:     view.HasMore,
		Selection:   r.session.SelectedIDs(),
		FieldErrors: errs,
	})
	return nil
}
