package query

import (
	"slices"
	"strings"

	"github.com/tallridge/backroom/internal/record"
)

// Matches reports whether a record passes one filter.
//
// Inactive filters (empty match set, flag off) pass every record.
// A field that is absent on the record fails any active filter on that
// field - absence is never treated as zero or silently included.
func Matches(s record.Schema, r record.Record, f Filter) bool {
	switch fl := f.(type) {
	case MatchSet:
		if !fl.Active() {
			return true
		}
		v, ok := r.Get(fl.Field)
		if !ok {
			return false
		}
		sv, ok := v.(record.String)
		if !ok {
			return false
		}
		return slices.Contains(fl.Values, string(sv))

	case NumericRange:
		n, ok := record.EffectiveNumber(s, r, fl.Field)
		if !ok {
			return false
		}
		return n >= fl.Min && n <= fl.Max

	case Flag:
		if !fl.Active {
			return true
		}
		v, ok := r.Get(fl.Field)
		if !ok {
			return false
		}
		switch fv := v.(type) {
		case record.Bool:
			return bool(fv)
		case record.Number:
			return fv > 0
		default:
			return false
		}

	default:
		// Unknown filter types cannot pass - the interface is sealed,
		// so this branch is unreachable from outside the package.
		return false
	}
}

// MatchesAll reports whether a record passes every filter (logical AND).
func MatchesAll(s record.Schema, r record.Record, filters []Filter) bool {
	for _, f := range filters {
		if !Matches(s, r, f) {
			return false
		}
	}
	return true
}

// MatchesSearch reports whether a record passes the free-text search pass.
//
// The query is matched case-insensitively as a substring against the
// record id and each of the schema's searchable fields; a record passes if
// ANY of them contains it. Strings fields (order line-item names) match if
// any element contains the query. The empty query always passes.
func MatchesSearch(s record.Schema, r record.Record, q string) bool {
	if q == "" {
		return true
	}
	needle := strings.ToLower(q)
	if strings.Contains(strings.ToLower(r.ID), needle) {
		return true
	}
	for _, field := range s.Searchable {
		v, ok := r.Get(field)
		if !ok {
			continue
		}
		switch sv := v.(type) {
		case record.String:
			if strings.Contains(strings.ToLower(string(sv)), needle) {
				return true
			}
		case record.Strings:
			for _, item := range sv {
				if strings.Contains(strings.ToLower(item), needle) {
					return true
				}
			}
		}
	}
	return false
}
