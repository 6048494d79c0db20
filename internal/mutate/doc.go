// Package mutate is the single writer role of the engine: create/update
// with atomic validation, two-phase confirmed deletes, and bulk field
// mutations over a selection, all returning tagged results instead of
// thrown errors. The two-phase Begin/Resolve contract lets a real
// asynchronous backend replace the in-process apply without touching the
// query or selection layers.
package mutate
