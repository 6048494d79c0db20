// Package harness runs YAML conformance scenarios against a live session
// and traces every step deterministically.
//
// A scenario seeds one record kind, replays a sequence of interactions
// (search, filter, sort, load-more, selection toggles, mutations), and
// records the derived view after each step. Traces are compared against
// golden files, so a behavior change anywhere in the derivation or
// mutation pipeline shows up as a golden diff.
package harness
