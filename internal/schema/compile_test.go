package schema

import (
	"errors"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallridge/backroom/internal/record"
)

func compileKindString(t *testing.T, src, path string) (record.Schema, error) {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return CompileKind(v.LookupPath(cue.ParsePath(path)))
}

func TestCompileKind_FullDeclaration(t *testing.T) {
	s, err := compileKindString(t, `
kind: widgets: {
	fields: {
		name:      "string"
		image:     "string"
		price:     "number"
		discount:  "number"
		active:    "bool"
		tags:      "strings"
		updatedAt: "time"
	}
	searchable: ["name", "tags"]
	required: ["name", "image", "price"]
	price:    "price"
	discount: "discount"
}
`, "kind.widgets")
	require.NoError(t, err)

	assert.Equal(t, "widgets", s.Kind)
	assert.Equal(t, record.TypeStrings, s.Fields["tags"])
	assert.Equal(t, record.TypeTime, s.Fields["updatedAt"])
	assert.Equal(t, []string{"name", "tags"}, s.Searchable)
	assert.Equal(t, "price", s.PriceField)
	assert.Equal(t, "discount", s.DiscountField)
}

func TestCompileKind_MissingFields(t *testing.T) {
	_, err := compileKindString(t, `kind: empty: { searchable: ["name"] }`, "kind.empty")

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "fields", ce.Field)
}

func TestCompileKind_UnknownFieldType(t *testing.T) {
	_, err := compileKindString(t, `
kind: widgets: {
	fields: { price: "float" }
}
`, "kind.widgets")

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "fields.price", ce.Field)
	assert.Contains(t, ce.Message, "float")
}

func TestCompileKind_DanglingSearchableReference(t *testing.T) {
	_, err := compileKindString(t, `
kind: widgets: {
	fields: { name: "string" }
	searchable: ["description"]
}
`, "kind.widgets")

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Message, "description")
}

func TestCompileKind_PriceWithoutDiscountRejected(t *testing.T) {
	_, err := compileKindString(t, `
kind: widgets: {
	fields: { name: "string", price: "number" }
	price: "price"
}
`, "kind.widgets")

	require.Error(t, err)
}

func TestCompileAll_ExtractsEveryKind(t *testing.T) {
	v := cuecontext.New().CompileString(`
kind: a: { fields: { name: "string" } }
kind: b: { fields: { total: "number" } }
`)
	require.NoError(t, v.Err())

	kinds, err := CompileAll(v)
	require.NoError(t, err)

	assert.Len(t, kinds, 2)
	assert.Equal(t, "a", kinds["a"].Kind)
	assert.Equal(t, record.TypeNumber, kinds["b"].Fields["total"])
}

func TestCompileAll_NoKinds(t *testing.T) {
	v := cuecontext.New().CompileString(`other: 1`)
	require.NoError(t, v.Err())

	_, err := CompileAll(v)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
}

func TestBuiltin_CompilesAndValidates(t *testing.T) {
	kinds, err := Builtin()
	require.NoError(t, err)

	for _, name := range []string{"products", "orders", "users", "catalog"} {
		s, ok := kinds[name]
		require.True(t, ok, name)
		assert.NoError(t, s.Validate())
	}

	products := kinds["products"]
	assert.Equal(t, "price", products.PriceField)
	assert.True(t, products.IsSearchable("name"))
	assert.Equal(t, record.TypeStrings, kinds["orders"].Fields["items"])
}

func TestBuiltinKind_Unknown(t *testing.T) {
	_, err := BuiltinKind("ghosts")
	assert.Error(t, err)
}
