package query

// Direction selects the sort order.
type Direction int

const (
	// Ascending yields the natural comparator order.
	Ascending Direction = iota
	// Descending negates the natural comparator order.
	Descending
)

// String returns the parameter spelling of the direction.
func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Filter is a sealed interface representing one declarative filter.
//
// Only MatchSet, NumericRange, and Flag implement it. The marker method
// pattern keeps the set closed so Matches can type-switch exhaustively.
// Active filters on different fields are combined with logical AND.
type Filter interface {
	filterNode() // Marker method - seals interface to this package
}

// MatchSet filters a field against a set of allowed values.
//
// An empty Values set means the filter is inactive and every record
// passes. A record whose field is absent fails an active MatchSet.
type MatchSet struct {
	Field  string
	Values []string
}

func (MatchSet) filterNode() {}

// Active reports whether the filter constrains anything.
func (f MatchSet) Active() bool { return len(f.Values) > 0 }

// NumericRange filters a numeric field to min <= effective value <= max.
//
// For a schema's price field the discounted effective price is compared,
// never the raw price. A record whose field is absent fails an active
// NumericRange.
type NumericRange struct {
	Field string
	Min   float64
	Max   float64
}

func (NumericRange) filterNode() {}

// Flag filters on a boolean predicate over one field.
//
// Inactive flags pass every record. An active flag passes bool fields
// that are true and number fields that are positive; the latter covers
// on-sale-only filtering on a discount percentage.
type Flag struct {
	Field  string
	Active bool
}

func (Flag) filterNode() {}

// Params are the declarative query parameters for one derivation.
//
// They are recreated on every user interaction with the search box,
// filter chips, or sort menu, and are read-only to the engine beyond the
// current evaluation.
type Params struct {
	// Search is the free-text query; empty always passes.
	Search string

	// Filters are AND-combined across fields.
	Filters []Filter

	// SortKey names the field to order by; empty keeps raw order.
	SortKey string

	// SortDir is the sort direction.
	SortDir Direction

	// PageSize is the initial revealed count and the load-more increment.
	PageSize int
}

// DefaultPageSize is used when Params.PageSize is zero or negative.
const DefaultPageSize = 10

// EffectivePageSize returns the page size with the default applied.
func (p Params) EffectivePageSize() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	return p.PageSize
}
