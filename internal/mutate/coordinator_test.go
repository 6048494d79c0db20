package mutate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallridge/backroom/internal/record"
	"github.com/tallridge/backroom/internal/testutil"
)

func productSchema() record.Schema {
	return record.Schema{
		Kind: "products",
		Fields: map[string]record.Type{
			"name":                record.TypeString,
			"image":               record.TypeString,
			"status":              record.TypeString,
			"price":               record.TypeNumber,
			"discount":            record.TypeNumber,
			"stock":               record.TypeNumber,
			record.UpdatedAtField: record.TypeTime,
		},
		Searchable:    []string{"name"},
		Required:      []string{"name", "image", "price"},
		PriceField:    "price",
		DiscountField: "discount",
	}
}

func newTestCoordinator(ids ...string) *Coordinator {
	if len(ids) == 0 {
		ids = []string{"gen-1", "gen-2", "gen-3"}
	}
	return NewCoordinator(productSchema(), testutil.NewDeterministicClock(), NewFixedGenerator(ids...))
}

func seedProduct(id, name string, price float64) record.Record {
	r := record.New(id)
	r.Set("name", record.NewString(name))
	r.Set("image", record.NewString(name+".png"))
	r.Set("price", record.NewNumber(price))
	return r
}

func TestUpsert_CreateAppendsWithGeneratedID(t *testing.T) {
	c := newTestCoordinator("p-new")
	coll := []record.Record{seedProduct("p-1", "Almond Milk", 3.5)}

	res := c.Upsert(coll, Payload{Fields: map[string]string{
		"name":  "Oat Milk",
		"image": "oat.png",
		"price": "4.25",
	}})

	require.True(t, res.OK())
	assert.Equal(t, "p-new", res.RecordID)
	require.Len(t, res.Collection, 2)
	assert.Equal(t, "p-new", res.Collection[1].ID)

	price, _ := res.Collection[1].Get("price")
	assert.Equal(t, record.NewNumber(4.25), price)

	// Caller's collection is untouched.
	assert.Len(t, coll, 1)
}

func TestUpsert_RejectedCreateDoesNotConsumeID(t *testing.T) {
	c := newTestCoordinator("p-only")

	res := c.Upsert(nil, Payload{Fields: map[string]string{
		"name": "Oat Milk",
		// image and price missing: create is rejected
	}})
	require.Equal(t, StatusValidationError, res.Status)

	// The failed create left the generator untouched, so the next valid
	// create gets the first id. With one fixed id, a consumed-on-failure
	// bug would panic the generator here instead.
	res = c.Upsert(nil, Payload{Fields: map[string]string{
		"name":  "Oat Milk",
		"image": "oat.png",
		"price": "4.25",
	}})
	require.True(t, res.OK())
	assert.Equal(t, "p-only", res.RecordID)
}

func TestUpsert_StampsUpdatedAt(t *testing.T) {
	c := newTestCoordinator()
	res := c.Upsert(nil, Payload{Fields: map[string]string{
		"name":  "Oat Milk",
		"image": "oat.png",
		"price": "4.25",
	}})

	require.True(t, res.OK())
	stamp, ok := res.Collection[0].Get(record.UpdatedAtField)
	require.True(t, ok)
	assert.False(t, time.Time(stamp.(record.Time)).IsZero())
}

func TestUpsert_PartialUpdateKeepsOtherFields(t *testing.T) {
	c := newTestCoordinator()
	coll := []record.Record{seedProduct("p-1", "Almond Milk", 3.5)}

	res := c.Upsert(coll, Payload{ID: "p-1", Fields: map[string]string{
		"price": "3.99",
	}})

	require.True(t, res.OK())
	name, _ := res.Collection[0].Get("name")
	assert.Equal(t, record.NewString("Almond Milk"), name)
	price, _ := res.Collection[0].Get("price")
	assert.Equal(t, record.NewNumber(3.99), price)
}

func TestUpsert_UpdateUnknownIDIsNotFound(t *testing.T) {
	c := newTestCoordinator()
	res := c.Upsert(nil, Payload{ID: "ghost", Fields: map[string]string{"name": "x"}})

	assert.Equal(t, StatusNotFound, res.Status)
	assert.Equal(t, "ghost", res.RecordID)
	assert.Nil(t, res.Collection)
}

func TestUpsert_RequiredFieldsValidation(t *testing.T) {
	c := newTestCoordinator()

	res := c.Upsert(nil, Payload{Fields: map[string]string{
		"name": "Oat Milk",
		// image and price missing
	}})

	require.Equal(t, StatusValidationError, res.Status)
	assert.Contains(t, res.FieldErrors, "image")
	assert.Contains(t, res.FieldErrors, "price")
	assert.Nil(t, res.Collection)
}

func TestUpsert_EmptyRequiredNameRejected(t *testing.T) {
	c := newTestCoordinator()
	coll := []record.Record{seedProduct("p-1", "Almond Milk", 3.5)}

	res := c.Upsert(coll, Payload{ID: "p-1", Fields: map[string]string{
		"name": "   ",
	}})

	require.Equal(t, StatusValidationError, res.Status)
	assert.Contains(t, res.FieldErrors, "name")
}

func TestUpsert_RequiredNumericParseRejected(t *testing.T) {
	c := newTestCoordinator()

	res := c.Upsert(nil, Payload{Fields: map[string]string{
		"name":  "Oat Milk",
		"image": "oat.png",
		"price": "not-a-number",
	}})

	require.Equal(t, StatusValidationError, res.Status)
	assert.Contains(t, res.FieldErrors, "price")
}

func TestUpsert_OptionalNumericParseCoercesToZero(t *testing.T) {
	c := newTestCoordinator()

	res := c.Upsert(nil, Payload{Fields: map[string]string{
		"name":  "Oat Milk",
		"image": "oat.png",
		"price": "4.25",
		"stock": "lots", // optional numeric: coerced, not rejected
	}})

	require.True(t, res.OK())
	stock, _ := res.Collection[0].Get("stock")
	assert.Equal(t, record.NewNumber(0), stock)
}

func TestUpsert_UnknownFieldRejected(t *testing.T) {
	c := newTestCoordinator()

	res := c.Upsert(nil, Payload{Fields: map[string]string{
		"name":   "Oat Milk",
		"image":  "oat.png",
		"price":  "4.25",
		"pirce":  "9.99", // typo: closed schema catches it
	}})

	require.Equal(t, StatusValidationError, res.Status)
	assert.Contains(t, res.FieldErrors, "pirce")
}

func TestDelete_TwoPhase(t *testing.T) {
	c := newTestCoordinator()
	coll := []record.Record{
		seedProduct("p-1", "Almond Milk", 3.5),
		seedProduct("p-2", "Bread", 4),
	}

	ticket, res := c.RequestDelete(coll, "p-2")
	assert.Equal(t, StatusConfirmRequired, res.Status)
	// Nothing deleted yet.
	assert.Len(t, coll, 2)

	final := c.ConfirmDelete(coll, ticket)
	require.True(t, final.OK())
	assert.Equal(t, []string{"p-1"}, record.IDs(final.Collection))
}

func TestDelete_RequestUnknownIDIsNotFound(t *testing.T) {
	c := newTestCoordinator()
	_, res := c.RequestDelete(nil, "ghost")
	assert.Equal(t, StatusNotFound, res.Status)
}

func TestDelete_UnissuedTicketDoesNotDelete(t *testing.T) {
	c := newTestCoordinator()
	coll := []record.Record{seedProduct("p-1", "Almond Milk", 3.5)}

	res := c.ConfirmDelete(coll, DeleteTicket{RecordID: "p-1"})
	assert.Equal(t, StatusInvalidTicket, res.Status)
	assert.Nil(t, res.Collection)
}

func TestResult_Err(t *testing.T) {
	assert.NoError(t, Result{Status: StatusSuccess}.Err())
	assert.Error(t, Result{Status: StatusNotFound, RecordID: "x"}.Err())
	assert.Error(t, Result{Status: StatusEmptySelection}.Err())
	assert.Error(t, Result{Status: StatusInvalidTicket}.Err())

	err := Result{
		Status:      StatusValidationError,
		FieldErrors: map[string]string{"name": "is required"},
	}.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}
