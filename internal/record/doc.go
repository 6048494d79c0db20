// Package record defines the typed record model shared by every layer of
// the engine: sealed field values, per-kind field schemas, and the
// discount-adjusted effective price used consistently by filtering,
// sorting, and totals.
package record
