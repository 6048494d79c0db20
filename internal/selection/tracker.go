// Package selection tracks the set of selected record identifiers for an
// administrative list view. The tracked set is always a subset of the
// current derived view: reconciliation after every re-derivation drops
// identifiers that are no longer visible.
package selection

import "slices"

// Tracker maintains a selection set scoped to a derived view.
//
// INVARIANT: after any Tracker operation followed by Reconcile with the
// current view ids, every selected id is present in that view. Select-all
// always means "all currently visible", never "all raw records".
type Tracker struct {
	ids map[string]struct{}
}

// NewTracker creates an empty selection.
func NewTracker() *Tracker {
	return &Tracker{ids: make(map[string]struct{})}
}

// Toggle flips the selection state of one id.
func (t *Tracker) Toggle(id string) {
	if _, ok := t.ids[id]; ok {
		delete(t.ids, id)
		return
	}
	t.ids[id] = struct{}{}
}

// ToggleAll selects exactly the visible ids, or clears the selection when
// it already equals them. Selecting "all" after filtering 200 records down
// to 5 selects only those 5.
func (t *Tracker) ToggleAll(viewIDs []string) {
	if t.equals(viewIDs) {
		t.Clear()
		return
	}
	t.ids = make(map[string]struct{}, len(viewIDs))
	for _, id := range viewIDs {
		t.ids[id] = struct{}{}
	}
}

// IsSelected reports whether an id is currently selected.
func (t *Tracker) IsSelected(id string) bool {
	_, ok := t.ids[id]
	return ok
}

// Reconcile intersects the selection with the current view ids, dropping
// anything no longer visible. Called after every view re-derivation.
func (t *Tracker) Reconcile(viewIDs []string) {
	visible := make(map[string]struct{}, len(viewIDs))
	for _, id := range viewIDs {
		visible[id] = struct{}{}
	}
	for id := range t.ids {
		if _, ok := visible[id]; !ok {
			delete(t.ids, id)
		}
	}
}

// Clear empties the selection. Used on toggle-all collapse and after a
// bulk action commits.
func (t *Tracker) Clear() {
	t.ids = make(map[string]struct{})
}

// Len returns the number of selected ids.
func (t *Tracker) Len() int {
	return len(t.ids)
}

// IDs returns the selected ids in sorted order for deterministic output.
func (t *Tracker) IDs() []string {
	out := make([]string, 0, len(t.ids))
	for id := range t.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// equals reports whether the selection is exactly the given id set.
func (t *Tracker) equals(viewIDs []string) bool {
	if len(t.ids) != len(viewIDs) {
		return false
	}
	for _, id := range viewIDs {
		if _, ok := t.ids[id]; !ok {
			return false
		}
	}
	return true
}
