package tree

import (
	"log/slog"
	"strings"

	"github.com/tallridge/backroom/internal/mutate"
	"github.com/tallridge/backroom/internal/record"
)

// Result is the tagged outcome of a tree mutation. It mirrors the flat
// collection Result: Categories is set only on success, every other
// status leaves the caller's tree untouched.
type Result struct {
	Status      mutate.Status
	Categories  []Category
	Path        Path
	Guard       Guard
	FieldErrors map[string]string
}

// OK reports whether the mutation was applied.
func (r Result) OK() bool {
	return r.Status == mutate.StatusSuccess
}

// DeleteTicket is the evidence of a completed tree delete request. The
// guard snapshot travels with the ticket so confirmation UIs can show
// exactly what the delete will remove.
type DeleteTicket struct {
	Path   Path
	Guard  Guard
	issued bool
}

// Mutator applies mutations to category trees.
//
// A branch is always located by identifier chain and replaced by
// structural sharing: the path from the root to the mutated node is
// rebuilt, every sibling branch keeps its existing backing storage. The
// caller's tree is never modified in place.
type Mutator struct {
	items *mutate.Coordinator
	ids   mutate.IDGenerator
}

// NewMutator creates a tree mutator. Item edits inside a subcategory go
// through the given coordinator so they share the flat collection's
// validation and stamping rules.
func NewMutator(items *mutate.Coordinator, ids mutate.IDGenerator) *Mutator {
	return &Mutator{items: items, ids: ids}
}

// UpsertCategory creates a main category (empty id) or renames an
// existing one.
func (m *Mutator) UpsertCategory(cats []Category, id, name string) Result {
	name = strings.TrimSpace(name)
	if name == "" {
		return nameRequired()
	}
	if id == "" {
		created := Category{ID: m.ids.Generate(), Name: name}
		next := make([]Category, len(cats), len(cats)+1)
		copy(next, cats)
		next = append(next, created)
		slog.Debug("category created", "category_id", created.ID)
		return applied(next, Path{CategoryID: created.ID})
	}

	idx := findCategory(cats, id)
	if idx < 0 {
		return missing(Path{CategoryID: id})
	}
	renamed := cats[idx]
	renamed.Name = name
	return applied(replaceCategory(cats, idx, renamed), Path{CategoryID: id})
}

// UpsertSubcategory creates a subcategory under a main category (empty
// id) or renames an existing one.
func (m *Mutator) UpsertSubcategory(cats []Category, categoryID, id, name string) Result {
	name = strings.TrimSpace(name)
	if name == "" {
		return nameRequired()
	}
	catIdx := findCategory(cats, categoryID)
	if catIdx < 0 {
		return missing(Path{CategoryID: categoryID})
	}
	parent := cats[catIdx]

	if id == "" {
		created := Subcategory{ID: m.ids.Generate(), Name: name}
		subs := make([]Subcategory, len(parent.Subcategories), len(parent.Subcategories)+1)
		copy(subs, parent.Subcategories)
		parent.Subcategories = append(subs, created)
		slog.Debug("subcategory created",
			"category_id", categoryID,
			"subcategory_id", created.ID,
		)
		return applied(replaceCategory(cats, catIdx, parent),
			Path{CategoryID: categoryID, SubcategoryID: created.ID})
	}

	subIdx := findSubcategory(parent, id)
	if subIdx < 0 {
		return missing(Path{CategoryID: categoryID, SubcategoryID: id})
	}
	renamed := parent.Subcategories[subIdx]
	renamed.Name = name
	return applied(
		replaceCategory(cats, catIdx, replaceSubcategory(parent, subIdx, renamed)),
		Path{CategoryID: categoryID, SubcategoryID: id})
}

// UpsertItem creates or updates an item inside one subcategory.
//
// The item payload goes through the flat coordinator, so field parsing,
// required-field validation and updatedAt stamping behave exactly as
// they do on an ungrouped collection. Only the addressed branch is
// rebuilt.
func (m *Mutator) UpsertItem(cats []Category, path Path, p mutate.Payload) Result {
	catIdx := findCategory(cats, path.CategoryID)
	if catIdx < 0 {
		return missing(Path{CategoryID: path.CategoryID})
	}
	parent := cats[catIdx]
	subIdx := findSubcategory(parent, path.SubcategoryID)
	if subIdx < 0 {
		return missing(Path{CategoryID: path.CategoryID, SubcategoryID: path.SubcategoryID})
	}
	sub := parent.Subcategories[subIdx]

	res := m.items.Upsert(sub.Items, p)
	if !res.OK() {
		return Result{
			Status:      res.Status,
			Path:        Path{CategoryID: path.CategoryID, SubcategoryID: path.SubcategoryID, ItemID: res.RecordID},
			FieldErrors: res.FieldErrors,
		}
	}
	sub.Items = res.Collection
	return applied(
		replaceCategory(cats, catIdx, replaceSubcategory(parent, subIdx, sub)),
		Path{CategoryID: path.CategoryID, SubcategoryID: path.SubcategoryID, ItemID: res.RecordID})
}

// RequestDelete begins the two-phase delete of the node addressed by
// path: a whole main category, one subcategory, or a single item.
//
// For non-leaf nodes the returned result carries a guard counting the
// subcategories and items the confirmed delete would remove. Nothing is
// mutated until the ticket is confirmed; dropping the ticket aborts the
// delete with the tree untouched.
func (m *Mutator) RequestDelete(cats []Category, path Path) (DeleteTicket, Result) {
	catIdx := findCategory(cats, path.CategoryID)
	if catIdx < 0 {
		return DeleteTicket{}, missing(Path{CategoryID: path.CategoryID})
	}
	parent := cats[catIdx]

	if path.SubcategoryID == "" {
		guard := categoryGuard(parent)
		return DeleteTicket{Path: path, Guard: guard, issued: true},
			Result{Status: mutate.StatusConfirmRequired, Path: path, Guard: guard}
	}

	subIdx := findSubcategory(parent, path.SubcategoryID)
	if subIdx < 0 {
		return DeleteTicket{}, missing(Path{CategoryID: path.CategoryID, SubcategoryID: path.SubcategoryID})
	}
	sub := parent.Subcategories[subIdx]

	if path.ItemID == "" {
		guard := Guard{ProductCount: len(sub.Items)}
		return DeleteTicket{Path: path, Guard: guard, issued: true},
			Result{Status: mutate.StatusConfirmRequired, Path: path, Guard: guard}
	}

	if record.FindIndex(sub.Items, path.ItemID) < 0 {
		return DeleteTicket{}, missing(path)
	}
	return DeleteTicket{Path: path, issued: true},
		Result{Status: mutate.StatusConfirmRequired, Path: path}
}

// ConfirmDelete completes a requested delete.
//
// The target is located again by id chain at confirm time; if any link
// of the chain vanished in between, the result is not-found rather than
// a silent no-op.
func (m *Mutator) ConfirmDelete(cats []Category, ticket DeleteTicket) Result {
	if !ticket.issued {
		return Result{Status: mutate.StatusInvalidTicket, Path: ticket.Path}
	}
	path := ticket.Path

	catIdx := findCategory(cats, path.CategoryID)
	if catIdx < 0 {
		return missing(Path{CategoryID: path.CategoryID})
	}
	parent := cats[catIdx]

	if path.SubcategoryID == "" {
		next := make([]Category, 0, len(cats)-1)
		next = append(next, cats[:catIdx]...)
		next = append(next, cats[catIdx+1:]...)
		slog.Debug("category deleted",
			"category_id", path.CategoryID,
			"subcategories", ticket.Guard.SubcategoryCount,
			"products", ticket.Guard.ProductCount,
		)
		return applied(next, path)
	}

	subIdx := findSubcategory(parent, path.SubcategoryID)
	if subIdx < 0 {
		return missing(Path{CategoryID: path.CategoryID, SubcategoryID: path.SubcategoryID})
	}

	if path.ItemID == "" {
		subs := make([]Subcategory, 0, len(parent.Subcategories)-1)
		subs = append(subs, parent.Subcategories[:subIdx]...)
		subs = append(subs, parent.Subcategories[subIdx+1:]...)
		parent.Subcategories = subs
		slog.Debug("subcategory deleted",
			"category_id", path.CategoryID,
			"subcategory_id", path.SubcategoryID,
			"products", ticket.Guard.ProductCount,
		)
		return applied(replaceCategory(cats, catIdx, parent), path)
	}

	sub := parent.Subcategories[subIdx]
	itemIdx := record.FindIndex(sub.Items, path.ItemID)
	if itemIdx < 0 {
		return missing(path)
	}
	items := make([]record.Record, 0, len(sub.Items)-1)
	for i, r := range sub.Items {
		if i == itemIdx {
			continue
		}
		items = append(items, r.Clone())
	}
	sub.Items = items
	return applied(
		replaceCategory(cats, catIdx, replaceSubcategory(parent, subIdx, sub)),
		path)
}

func applied(cats []Category, path Path) Result {
	return Result{Status: mutate.StatusSuccess, Categories: cats, Path: path}
}

func missing(path Path) Result {
	return Result{Status: mutate.StatusNotFound, Path: path}
}

func nameRequired() Result {
	return Result{
		Status:      mutate.StatusValidationError,
		FieldErrors: map[string]string{"name": "name must not be empty"},
	}
}
