package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallridge/backroom/internal/record"
	"github.com/tallridge/backroom/internal/testutil"
	"github.com/tallridge/backroom/internal/tree"
)

func productSchema() record.Schema {
	return record.Schema{
		Kind: "products",
		Fields: map[string]record.Type{
			"name":                record.TypeString,
			"price":               record.TypeNumber,
			"active":              record.TypeBool,
			"tags":                record.TypeStrings,
			record.UpdatedAtField: record.TypeTime,
		},
		Searchable: []string{"name"},
		Required:   []string{"name"},
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "backroom.db"),
		WithClock(testutil.NewDeterministicClock()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecords() []record.Record {
	a := record.New("p-1")
	a.Set("name", record.NewString("Almond Milk"))
	a.Set("price", record.NewNumber(3.5))
	a.Set("active", record.NewBool(true))
	a.Set("tags", record.NewStrings("dairy-free", "vegan"))
	a.Set(record.UpdatedAtField, record.NewTime(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))

	b := record.New("p-2")
	b.Set("name", record.NewString("Bread"))
	b.Set("price", record.NewNumber(4.25))
	return []record.Record{a, b}
}

func TestOpen_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backroom.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	assert.NoError(t, s2.Close())
}

func TestSaveSnapshot_RoundTripsTypedFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sc := productSchema()

	require.NoError(t, s.SaveSnapshot(ctx, sc.Kind, sampleRecords()))

	loaded, version, err := s.LoadLatest(ctx, sc)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	require.Len(t, loaded, 2)

	assert.Equal(t, "p-1", loaded[0].ID)
	name, _ := loaded[0].Get("name")
	assert.Equal(t, record.NewString("Almond Milk"), name)
	tags, _ := loaded[0].Get("tags")
	assert.Equal(t, record.NewStrings("dairy-free", "vegan"), tags)
	stamp, _ := loaded[0].Get(record.UpdatedAtField)
	assert.True(t, record.Equal(record.NewTime(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)), stamp))

	// Sparse record: absent fields stay absent.
	_, hasActive := loaded[1].Get("active")
	assert.False(t, hasActive)
}

func TestSaveSnapshot_VersionsAreDensePerKind(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, "products", sampleRecords()))
	require.NoError(t, s.SaveSnapshot(ctx, "products", sampleRecords()[:1]))
	require.NoError(t, s.SaveSnapshot(ctx, "orders", nil))

	_, version, err := s.LoadLatest(ctx, productSchema())
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	versions, err := s.Versions(ctx, "products")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, int64(2), versions[0].Version)
	assert.Equal(t, 1, versions[0].RecordCount)
	assert.Equal(t, int64(1), versions[1].Version)
	assert.Equal(t, 2, versions[1].RecordCount)
}

func TestLoadLatest_FreshDatabase(t *testing.T) {
	s := openTestStore(t)

	records, version, err := s.LoadLatest(context.Background(), productSchema())

	require.NoError(t, err)
	assert.Nil(t, records)
	assert.Zero(t, version)
}

func TestLoadLatest_ReturnsNewestSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, "products", sampleRecords()))
	require.NoError(t, s.SaveSnapshot(ctx, "products", nil))

	records, version, err := s.LoadLatest(ctx, productSchema())
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
	assert.Empty(t, records)
}

func TestLoadLatest_RejectsUndeclaredField(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, "products", sampleRecords()))

	narrow := productSchema()
	delete(narrow.Fields, "tags")

	_, _, err := s.LoadLatest(ctx, narrow)
	assert.ErrorContains(t, err, "tags")
}

func sampleTree() []tree.Category {
	return []tree.Category{
		{
			ID:   "cat-dairy",
			Name: "Dairy",
			Subcategories: []tree.Subcategory{
				{ID: "sub-milk", Name: "Milk", Items: sampleRecords()},
			},
		},
		{
			ID:   "cat-bakery",
			Name: "Bakery",
			Subcategories: []tree.Subcategory{
				{ID: "sub-bread", Name: "Bread", Items: []record.Record{
					func() record.Record {
						r := record.New("p-3")
						r.Set("name", record.NewString("Sourdough"))
						r.Set("price", record.NewNumber(5))
						return r
					}(),
				}},
			},
		},
	}
}

func TestSaveTree_RoundTripsStructure(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sc := productSchema()

	require.NoError(t, s.SaveTree(ctx, sc.Kind, sampleTree()))

	cats, version, err := s.LoadLatestTree(ctx, sc)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	require.Len(t, cats, 2)

	assert.Equal(t, "cat-dairy", cats[0].ID)
	assert.Equal(t, "Dairy", cats[0].Name)
	require.Len(t, cats[0].Subcategories, 1)
	assert.Equal(t, "sub-milk", cats[0].Subcategories[0].ID)
	assert.Equal(t, []string{"p-1", "p-2"}, record.IDs(cats[0].Subcategories[0].Items))

	name, _ := cats[1].Subcategories[0].Items[0].Get("name")
	assert.Equal(t, record.NewString("Sourdough"), name)

	// The tree snapshot counts items, not categories.
	versions, err := s.Versions(ctx, sc.Kind)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, 3, versions[0].RecordCount)
}

func TestLoadLatest_FlattensTreeSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sc := productSchema()

	require.NoError(t, s.SaveTree(ctx, sc.Kind, sampleTree()))

	records, version, err := s.LoadLatest(ctx, sc)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.Equal(t, []string{"p-1", "p-2", "p-3"}, record.IDs(records))
}

func TestLoadLatestTree_FlatSnapshotRejected(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sc := productSchema()

	require.NoError(t, s.SaveSnapshot(ctx, sc.Kind, sampleRecords()))

	_, _, err := s.LoadLatestTree(ctx, sc)
	assert.ErrorContains(t, err, "flat")
}

func TestLoadLatestTree_FreshDatabase(t *testing.T) {
	s := openTestStore(t)

	cats, version, err := s.LoadLatestTree(context.Background(), productSchema())

	require.NoError(t, err)
	assert.Nil(t, cats)
	assert.Zero(t, version)
}

func TestPrune_KeepsNewest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.SaveSnapshot(ctx, "products", nil))
	}

	deleted, err := s.Prune(ctx, "products", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	versions, err := s.Versions(ctx, "products")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, int64(5), versions[0].Version)
	assert.Equal(t, int64(4), versions[1].Version)
}

func TestPrune_RejectsZeroKeep(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Prune(context.Background(), "products", 0)
	assert.Error(t, err)
}
