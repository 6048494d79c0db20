package catalog

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallridge/backroom/internal/record"
	"github.com/tallridge/backroom/internal/schema"
)

func builtinKinds(t *testing.T) map[string]record.Schema {
	t.Helper()
	kinds, err := schema.Builtin()
	require.NoError(t, err)
	return kinds
}

func TestLoad_FlatRecords(t *testing.T) {
	seed, err := Load(strings.NewReader(`
kind: products
records:
  - id: p-1
    fields:
      name: Almond Milk
      image: almond.png
      price: 3.5
      discount: 20
      stock: 12
  - id: p-2
    fields:
      name: Bread
      image: bread.png
      price: 4
`), builtinKinds(t))
	require.NoError(t, err)

	assert.Equal(t, "products", seed.Kind)
	require.Len(t, seed.Records, 2)
	price, _ := seed.Records[0].Get("price")
	assert.Equal(t, record.NewNumber(3.5), price)
	stock, _ := seed.Records[0].Get("stock")
	assert.Equal(t, record.NewNumber(12), stock)
}

func TestLoad_OrderWithLineItemsAndTimestamp(t *testing.T) {
	seed, err := Load(strings.NewReader(`
kind: orders
records:
  - id: o-1
    fields:
      customer: Dana
      items: [Almond Milk, Bread]
      createdAt: 2024-03-01T12:00:00Z
`), builtinKinds(t))
	require.NoError(t, err)

	items, _ := seed.Records[0].Get("items")
	assert.Equal(t, record.NewStrings("Almond Milk", "Bread"), items)
	created, _ := seed.Records[0].Get("createdAt")
	assert.True(t, record.Equal(record.NewTime(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)), created))
}

func TestLoad_CategoryTree(t *testing.T) {
	seed, err := Load(strings.NewReader(`
kind: catalog
tree:
  - id: cat-dairy
    name: Dairy
    subcategories:
      - id: sub-milk
        name: Milk
        items:
          - id: p-1
            fields: {name: Almond Milk, image: almond.png, price: 3.5}
          - id: p-2
            fields: {name: Oat Milk, image: oat.png, price: 4.25}
`), builtinKinds(t))
	require.NoError(t, err)

	require.Len(t, seed.Tree, 1)
	require.Len(t, seed.Tree[0].Subcategories, 1)
	assert.Len(t, seed.Tree[0].Subcategories[0].Items, 2)
	assert.Empty(t, seed.Records)
}

func TestLoad_UnknownKind(t *testing.T) {
	_, err := Load(strings.NewReader("kind: ghosts\nrecords: []\n"), builtinKinds(t))
	assert.ErrorContains(t, err, "ghosts")
}

func TestLoad_UnknownYAMLKeyRejected(t *testing.T) {
	_, err := Load(strings.NewReader(`
kind: products
recrods:
  - id: p-1
`), builtinKinds(t))
	assert.Error(t, err)
}

func TestLoad_UndeclaredFieldRejected(t *testing.T) {
	_, err := Load(strings.NewReader(`
kind: products
records:
  - id: p-1
    fields: {name: Milk, image: a.png, price: 1, barcode: "123"}
`), builtinKinds(t))
	assert.ErrorContains(t, err, "barcode")
}

func TestLoad_TypeMismatchRejected(t *testing.T) {
	_, err := Load(strings.NewReader(`
kind: products
records:
  - id: p-1
    fields: {name: Milk, image: a.png, price: cheap}
`), builtinKinds(t))
	assert.ErrorContains(t, err, "price")
}

func TestLoad_MissingRequiredFieldRejected(t *testing.T) {
	_, err := Load(strings.NewReader(`
kind: products
records:
  - id: p-1
    fields: {name: Milk, price: 1}
`), builtinKinds(t))
	assert.ErrorContains(t, err, "image")
}

func TestLoad_DuplicateIDRejected(t *testing.T) {
	_, err := Load(strings.NewReader(`
kind: products
records:
  - id: p-1
    fields: {name: Milk, image: a.png, price: 1}
  - id: p-1
    fields: {name: Bread, image: b.png, price: 2}
`), builtinKinds(t))
	assert.ErrorContains(t, err, "duplicate")
}

func TestLoad_RecordsAndTreeMutuallyExclusive(t *testing.T) {
	_, err := Load(strings.NewReader(`
kind: catalog
records:
  - id: p-1
    fields: {name: Milk, image: a.png, price: 1}
tree:
  - id: cat-1
    name: Dairy
`), builtinKinds(t))
	assert.ErrorContains(t, err, "both")
}
