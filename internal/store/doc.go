// Package store persists raw record collections as SQLite snapshots.
//
// The engine is memory-first: every query and mutation runs against the
// in-memory raw collection. The store only receives a full snapshot after
// each applied mutation and hands the latest one back at startup. Losing
// the database loses history, never consistency.
package store
