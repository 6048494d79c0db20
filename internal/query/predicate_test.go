package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tallridge/backroom/internal/record"
)

func productSchema() record.Schema {
	return record.Schema{
		Kind: "products",
		Fields: map[string]record.Type{
			"name":        record.TypeString,
			"sku":         record.TypeString,
			"description": record.TypeString,
			"status":      record.TypeString,
			"price":       record.TypeNumber,
			"discount":    record.TypeNumber,
			"stock":       record.TypeNumber,
			"createdAt":   record.TypeTime,
		},
		Searchable:    []string{"name", "sku", "description"},
		Required:      []string{"name", "price"},
		PriceField:    "price",
		DiscountField: "discount",
	}
}

func orderSchema() record.Schema {
	return record.Schema{
		Kind: "orders",
		Fields: map[string]record.Type{
			"customer":  record.TypeString,
			"email":     record.TypeString,
			"status":    record.TypeString,
			"total":     record.TypeNumber,
			"orderDate": record.TypeTime,
			"lineItems": record.TypeStrings,
		},
		Searchable: []string{"customer", "email", "lineItems"},
		Required:   []string{"customer"},
	}
}

func product(id, name string, price, discount float64) record.Record {
	r := record.New(id)
	r.Set("name", record.NewString(name))
	r.Set("price", record.NewNumber(price))
	if discount != 0 {
		r.Set("discount", record.NewNumber(discount))
	}
	return r
}

func TestMatches_MatchSet(t *testing.T) {
	s := productSchema()
	r := product("p-1", "Almond Milk", 3.5, 0)
	r.Set("status", record.NewString("active"))

	assert.True(t, Matches(s, r, MatchSet{Field: "status", Values: []string{"active", "draft"}}))
	assert.False(t, Matches(s, r, MatchSet{Field: "status", Values: []string{"archived"}}))
	// Empty set means the filter is inactive.
	assert.True(t, Matches(s, r, MatchSet{Field: "status"}))
}

func TestMatches_AbsentFieldFailsActiveFilter(t *testing.T) {
	s := productSchema()
	r := product("p-1", "Almond Milk", 3.5, 0)

	assert.False(t, Matches(s, r, MatchSet{Field: "status", Values: []string{"active"}}))
	assert.False(t, Matches(s, r, NumericRange{Field: "stock", Min: 0, Max: 100}))
	assert.False(t, Matches(s, r, Flag{Field: "stock", Active: true}))
}

func TestMatches_NumericRangeUsesEffectivePrice(t *testing.T) {
	s := productSchema()
	// 100 with 50% discount: effective 50.
	r := product("p-1", "Almond Milk", 100, 50)

	assert.True(t, Matches(s, r, NumericRange{Field: "price", Min: 40, Max: 60}))
	assert.False(t, Matches(s, r, NumericRange{Field: "price", Min: 90, Max: 110}))
}

func TestMatches_RangeBoundsInclusive(t *testing.T) {
	s := productSchema()
	r := product("p-1", "Almond Milk", 40, 0)

	assert.True(t, Matches(s, r, NumericRange{Field: "price", Min: 40, Max: 40}))
}

func TestMatches_FlagOnSale(t *testing.T) {
	s := productSchema()
	onSale := product("p-1", "Almond Milk", 100, 25)
	fullPrice := product("p-2", "Whole Wheat Bread", 4, 0)

	f := Flag{Field: "discount", Active: true}
	assert.True(t, Matches(s, onSale, f))
	assert.False(t, Matches(s, fullPrice, f))

	// Inactive flag passes everything.
	off := Flag{Field: "discount"}
	assert.True(t, Matches(s, onSale, off))
	assert.True(t, Matches(s, fullPrice, off))
}

func TestMatchesAll_IsLogicalAND(t *testing.T) {
	s := productSchema()
	r := product("p-1", "Almond Milk", 100, 50)
	r.Set("status", record.NewString("active"))

	both := []Filter{
		MatchSet{Field: "status", Values: []string{"active"}},
		NumericRange{Field: "price", Min: 40, Max: 60},
	}
	assert.True(t, MatchesAll(s, r, both))

	oneFails := []Filter{
		MatchSet{Field: "status", Values: []string{"active"}},
		NumericRange{Field: "price", Min: 90, Max: 110},
	}
	assert.False(t, MatchesAll(s, r, oneFails))
}

func TestMatchesSearch_CaseInsensitiveSubstring(t *testing.T) {
	s := productSchema()
	milk := product("p-1", "Almond Milk", 3.5, 0)
	bread := product("p-2", "Whole Wheat Bread", 4, 0)

	assert.True(t, MatchesSearch(s, milk, "milk"))
	assert.True(t, MatchesSearch(s, milk, "MILK"))
	assert.False(t, MatchesSearch(s, bread, "milk"))
	// Empty query always passes.
	assert.True(t, MatchesSearch(s, bread, ""))
}

func TestMatchesSearch_MatchesRecordID(t *testing.T) {
	s := productSchema()
	r := product("SKU-4471", "Almond Milk", 3.5, 0)

	assert.True(t, MatchesSearch(s, r, "4471"))
}

func TestMatchesSearch_OrderLineItems(t *testing.T) {
	s := orderSchema()
	r := record.New("o-1")
	r.Set("customer", record.NewString("Dana Cruz"))
	r.Set("lineItems", record.NewStrings("Almond Milk", "Free-Range Eggs"))

	assert.True(t, MatchesSearch(s, r, "eggs"))
	assert.False(t, MatchesSearch(s, r, "bread"))
}

func TestMatchesSearch_SkipsNonSearchableFields(t *testing.T) {
	s := orderSchema()
	r := record.New("o-1")
	r.Set("customer", record.NewString("Dana Cruz"))
	r.Set("status", record.NewString("pending"))

	// "status" is not in the searchable list.
	assert.False(t, MatchesSearch(s, r, "pending"))
}
