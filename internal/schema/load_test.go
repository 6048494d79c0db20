package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallridge/backroom/internal/record"
)

func writeCUE(t *testing.T, dir, name, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
}

func TestLoadDir_MergesOverBuiltins(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "suppliers.cue", `
kind: suppliers: {
	fields: {
		name:      "string"
		rating:    "number"
		updatedAt: "time"
	}
	searchable: ["name"]
	required: ["name"]
}
`)

	kinds, err := LoadDir(dir)
	require.NoError(t, err)

	// The new kind is present alongside the untouched builtins.
	s, ok := kinds["suppliers"]
	require.True(t, ok)
	assert.Equal(t, record.TypeNumber, s.Fields["rating"])
	assert.Contains(t, kinds, "products")
	assert.Contains(t, kinds, "orders")
}

func TestLoadDir_SplitAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "a.cue", `kind: a: { fields: { name: "string" } }`)
	writeCUE(t, dir, "b.cue", `kind: b: { fields: { total: "number" } }`)

	kinds, err := LoadDir(dir)
	require.NoError(t, err)

	assert.Contains(t, kinds, "a")
	assert.Contains(t, kinds, "b")
}

func TestLoadDir_EmptyDirectory(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	assert.ErrorContains(t, err, "no CUE files")
}

func TestLoadDir_MissingDirectory(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLoadDir_CompileFailureSurfacesPosition(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "bad.cue", `
kind: bad: {
	fields: { price: "decimal" }
}
`)

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.ErrorContains(t, err, "decimal")
}
