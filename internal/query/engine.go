package query

import (
	"slices"

	"github.com/tallridge/backroom/internal/record"
)

// View is the derived, ordered, truncated result of one query evaluation.
type View struct {
	// Items are the records revealed to the caller, in sorted order.
	Items []record.Record

	// Total is the number of records passing search and filters before
	// truncation.
	Total int

	// HasMore reports whether records beyond the revealed count matched.
	HasMore bool
}

// IDs returns the revealed record identifiers in view order.
func (v View) IDs() []string {
	return record.IDs(v.Items)
}

// DeriveView computes the derived view of a raw collection.
//
// The pipeline order is fixed: free-text search, then AND-combined
// filters, then a stable sort, then truncation to the first revealed
// items. The raw collection is never mutated; the view holds copies of the
// matching records so later collection edits cannot alias into it.
//
// DeriveView is a pure function of (raw, params, revealed): identical
// inputs always produce an identical view.
func DeriveView(s record.Schema, raw []record.Record, p Params, revealed int) View {
	matched := make([]record.Record, 0, len(raw))
	for _, r := range raw {
		if !MatchesSearch(s, r, p.Search) {
			continue
		}
		if !MatchesAll(s, r, p.Filters) {
			continue
		}
		matched = append(matched, r)
	}

	if p.SortKey != "" {
		// SortStableFunc keeps records comparing equal in their raw
		// collection order.
		slices.SortStableFunc(matched, func(a, b record.Record) int {
			return Compare(s, a, b, p.SortKey, p.SortDir)
		})
	}

	total := len(matched)
	if revealed < 0 {
		revealed = 0
	}
	if revealed > total {
		revealed = total
	}

	items := make([]record.Record, revealed)
	for i := range items {
		items[i] = matched[i].Clone()
	}

	return View{
		Items:   items,
		Total:   total,
		HasMore: total > revealed,
	}
}
