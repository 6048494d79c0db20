// Package tree implements mutations over nested category collections.
//
// Catalog data is a two-level tree: main categories own subcategories,
// subcategories own item records. Mutations locate their target by
// identifier chain and rebuild only the path from the root to the
// mutated node; every sibling branch is shared with the input tree.
// Destructive operations on non-leaf nodes are two-phase and report a
// guard count of the children a confirmed delete would remove.
package tree
