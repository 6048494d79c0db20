// Package query derives ordered views from raw record collections.
//
// It composes three pieces: a predicate evaluator for declarative filters
// and free-text search, a comparator builder for mixed-type stable
// ordering, and the DeriveView pipeline that searches, filters, sorts, and
// truncates to the revealed page size. Everything here is pure computation
// over immutable inputs.
package query
