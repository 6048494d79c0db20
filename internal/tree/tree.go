package tree

import "github.com/tallridge/backroom/internal/record"

// Category is a main catalog category owning an ordered set of
// subcategories. Ownership is by containment, not reference: an item
// belongs to exactly one subcategory, a subcategory to exactly one main
// category. The structure is a tree, never a graph.
type Category struct {
	ID            string
	Name          string
	Subcategories []Subcategory
}

// Subcategory owns an ordered collection of item records.
type Subcategory struct {
	ID    string
	Name  string
	Items []record.Record
}

// Path addresses a branch of the tree by identifier chain. Identifiers,
// not positions: a derived copy of the tree may have been filtered or
// reordered, so locating by index would write into the wrong branch.
type Path struct {
	CategoryID    string
	SubcategoryID string
	ItemID        string
}

// Guard reports what a destructive operation on a non-leaf node would
// take with it. It is surfaced before any mutation so the caller can
// confirm or abort; a delete never cascades silently.
type Guard struct {
	SubcategoryCount int
	ProductCount     int
}

// Empty reports whether the guarded node has no children.
func (g Guard) Empty() bool {
	return g.SubcategoryCount == 0 && g.ProductCount == 0
}

// categoryGuard counts the children of one main category.
func categoryGuard(c Category) Guard {
	g := Guard{SubcategoryCount: len(c.Subcategories)}
	for _, sub := range c.Subcategories {
		g.ProductCount += len(sub.Items)
	}
	return g
}

// findCategory returns the position of a category id, or -1.
func findCategory(cats []Category, id string) int {
	for i, c := range cats {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// findSubcategory returns the position of a subcategory id within a
// category, or -1.
func findSubcategory(c Category, id string) int {
	for i, s := range c.Subcategories {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// replaceCategory returns a new top-level slice with one category
// replaced. Sibling categories are shared, not copied: only the slice
// header changes for the untouched branches.
func replaceCategory(cats []Category, idx int, c Category) []Category {
	next := make([]Category, len(cats))
	copy(next, cats)
	next[idx] = c
	return next
}

// replaceSubcategory returns a category with one subcategory replaced,
// sharing the sibling subcategories' item slices.
func replaceSubcategory(c Category, idx int, sub Subcategory) Category {
	subs := make([]Subcategory, len(c.Subcategories))
	copy(subs, c.Subcategories)
	subs[idx] = sub
	c.Subcategories = subs
	return c
}

// Items flattens every item in the tree into a single collection, in
// category/subcategory/raw order. Used to feed the query engine when the
// admin screen lists catalog items across categories.
func Items(cats []Category) []record.Record {
	var out []record.Record
	for _, c := range cats {
		for _, sub := range c.Subcategories {
			out = append(out, sub.Items...)
		}
	}
	return out
}
