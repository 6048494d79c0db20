package record

import "time"

// Value is a sealed interface representing the constrained field value types.
// Only String, Number, Bool, Time, and Strings implement it.
// Keeping the set closed lets the predicate and comparator layers dispatch
// with exhaustive type switches instead of unchecked runtime lookups.
type Value interface {
	fieldValue() // Sealed - only these types implement it
}

// String represents a free-text field value (name, email, sku, description).
type String string

func (String) fieldValue() {}

// Number represents a numeric field value (price, stock, total, discount).
type Number float64

func (Number) fieldValue() {}

// Bool represents a boolean field value (active, onSale).
type Bool bool

func (Bool) fieldValue() {}

// Time represents an instant field value (createdAt, orderDate, updatedAt).
type Time time.Time

func (Time) fieldValue() {}

// Strings represents a list of short text values, such as the line-item
// names of an order. Strings fields participate in free-text search but
// cannot be filtered or sorted on.
type Strings []string

func (Strings) fieldValue() {}

// NewString creates a String value.
func NewString(s string) String { return String(s) }

// NewNumber creates a Number value.
func NewNumber(n float64) Number { return Number(n) }

// NewBool creates a Bool value.
func NewBool(b bool) Bool { return Bool(b) }

// NewTime creates a Time value.
func NewTime(t time.Time) Time { return Time(t) }

// NewStrings creates a Strings value.
func NewStrings(vals ...string) Strings { return Strings(vals) }

// Equal reports whether two field values are equal.
// Values of different concrete types are never equal.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Time:
		bv, ok := b.(Time)
		return ok && time.Time(av).Equal(time.Time(bv))
	case Strings:
		bv, ok := b.(Strings)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}
