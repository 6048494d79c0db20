package query

import (
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/tallridge/backroom/internal/record"
)

// collator performs locale-aware, case-insensitive string comparison.
// Case folding here matches the case-insensitive search pass, so the same
// two records can never be distinguished by case in one place and not the
// other.
var collator = collate.New(language.Und, collate.IgnoreCase)

// Compare orders two records by one sort key.
//
// Returns -1, 0, or +1. Semantics per field type:
//   - string fields: collator comparison (locale-aware, case-insensitive)
//   - number fields: numeric comparison on the effective value, so a
//     discounted price sorts by what the customer would pay
//   - time fields: instant comparison; a missing or invalid instant sorts
//     before any valid one
//   - bool fields: false before true
//
// A record missing the sort field sorts before any record that has it.
// Descending negates the ascending result. Compare is a total order up to
// ties; callers must use a stable sort so tied records keep their raw
// collection order.
func Compare(s record.Schema, a, b record.Record, key string, dir Direction) int {
	c := compareAscending(s, a, b, key)
	if dir == Descending {
		return -c
	}
	return c
}

func compareAscending(s record.Schema, a, b record.Record, key string) int {
	av, aok := a.Get(key)
	bv, bok := b.Get(key)

	// Absent sorts before present; two absent values tie.
	if !aok || !bok {
		return boolPair(aok, bok)
	}

	switch x := av.(type) {
	case record.String:
		y, ok := bv.(record.String)
		if !ok {
			return 0
		}
		return collator.CompareString(string(x), string(y))

	case record.Number:
		an, aok := record.EffectiveNumber(s, a, key)
		bn, bok := record.EffectiveNumber(s, b, key)
		if !aok || !bok {
			return boolPair(aok, bok)
		}
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}

	case record.Bool:
		y, ok := bv.(record.Bool)
		if !ok {
			return 0
		}
		return boolPair(bool(x), bool(y))

	case record.Time:
		y, ok := bv.(record.Time)
		if !ok {
			return 0
		}
		at, bt := time.Time(x), time.Time(y)
		// Zero instants (missing or unparseable dates) sort first.
		if at.IsZero() || bt.IsZero() {
			return boolPair(!at.IsZero(), !bt.IsZero())
		}
		switch {
		case at.Before(bt):
			return -1
		case at.After(bt):
			return 1
		default:
			return 0
		}

	default:
		// Strings fields are not sortable; treat all values as equal so
		// stability preserves raw order.
		return 0
	}
}

// boolPair orders false before true.
func boolPair(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
