package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/eco-wardrobe/internal/scoring"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seeded(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	out, err := run(t, "seed", "--lite", path)
	require.NoError(t, err)
	assert.Equal(t, "seeded 8 materials, 14 impact values, 5 items\n", out)
	return path
}

func TestProfiles(t *testing.T) {
	out, err := run(t, "profiles")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	for _, name := range scoring.Builtins() {
		assert.Contains(t, out, name)
	}
}

func TestScore(t *testing.T) {
	db := seeded(t)

	out, err := run(t, "score", "SHIRT001", "GHOST", "--lite", db, "--profile", "basic")
	require.NoError(t, err)
	assert.Contains(t, out, "SHIRT001")
	assert.Contains(t, out, "Cotton T-Shirt")
	assert.Contains(t, out, "486.00 L")
	assert.NotContains(t, out, "GHOST")

	_, err = run(t, "score", "GHOST", "--lite", db)
	assert.EqualError(t, err, "nothing scored")

	_, err = run(t, "score", "SHIRT001", "--lite", db, "--profile", "bogus")
	assert.ErrorIs(t, err, scoring.ErrUnknownProfile)
}

func TestScore_JSON(t *testing.T) {
	db := seeded(t)

	out, err := run(t, "score", "SOCK001", "DRESS001", "--lite", db, "--json", "--profile", "dual")
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "dual", got[0]["profile"])
	assert.NotNil(t, got[0]["lasting"])
}

func TestScore_Cart(t *testing.T) {
	db := seeded(t)

	out, err := run(t, "score", "SHIRT001", "DRESS001", "GHOST", "--lite", db, "--cart")
	require.NoError(t, err)
	assert.Contains(t, out, "2 items, 400 g")
	assert.Contains(t, out, "skipped GHOST: not found")
}

func TestExportImport(t *testing.T) {
	db := seeded(t)
	dir := t.TempDir()
	book := filepath.Join(dir, "catalog.xlsx")

	out, err := run(t, "export", book, "--lite", db)
	require.NoError(t, err)
	assert.Contains(t, out, "written")

	fresh := filepath.Join(dir, "fresh.db")
	out, err = run(t, "import", book, "--lite", fresh)
	require.NoError(t, err)
	assert.Equal(t, "imported 8 materials, 14 impact values, 5 items, 5 compositions\n", out)

	out, err = run(t, "score", "JEANS001", "--lite", fresh)
	require.NoError(t, err)
	assert.Contains(t, out, "Denim Jeans")
}

func TestExportScores(t *testing.T) {
	db := seeded(t)
	book := filepath.Join(t.TempDir(), "scores.xlsx")

	_, err := run(t, "export", book, "--scores", "--profile", "enhanced", "--lite", db)
	require.NoError(t, err)

	f, err := excelize.OpenFile(book)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("scores")
	require.NoError(t, err)
	assert.Len(t, rows, 6)
}

func TestImport_MissingFile(t *testing.T) {
	_, err := run(t, "import", filepath.Join(t.TempDir(), "nope.xlsx"), "--lite", ":memory:")
	assert.Error(t, err)
}

func TestDedupe(t *testing.T) {
	db := seeded(t)

	out, err := run(t, "dedupe", "--dry-run", "--lite", db)
	require.NoError(t, err)
	assert.Equal(t, "no duplicates\n", out)
}

func TestMigrateLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.db")
	out, err := run(t, "migrate", "--lite", path)
	require.NoError(t, err)
	assert.Equal(t, "schema ready: "+path+"\n", out)
}
