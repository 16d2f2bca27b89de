package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"
)

func setupEnv(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("APP_ENV", "test")
	t.Setenv("STORAGE_BACKEND", "file")
	t.Setenv("CACHE_DIR", filepath.Join(dir, "cache"))
	t.Setenv("PHOTO_DIR", filepath.Join(dir, "photos"))
	t.Setenv("PHOTO_BACKEND", "local")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("ASYNQ_ENABLED", "false")
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCommand(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestSampleRows(t *testing.T) {
	a := sampleRows(5, 42)
	b := sampleRows(5, 42)

	require.Len(t, a, 5)
	assert.Equal(t, a, b)
	for _, row := range a {
		assert.NotEmpty(t, row.Name)
		assert.Contains(t, row.Description, "Shelf ")
	}
}

func TestSeedAndExport(t *testing.T) {
	dir := setupEnv(t)

	out, _, err := execute(t, "seed", "--count", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "3 items")

	path := filepath.Join(dir, "export.xlsx")
	out, _, err = execute(t, "export", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "3 items")

	wb, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, wb.Sheets)
	assert.Equal(t, 4, wb.Sheets[0].MaxRow)
}

func TestImport(t *testing.T) {
	dir := setupEnv(t)

	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("Items")
	require.NoError(t, err)
	for _, values := range [][]string{
		{"Name", "Description"},
		{"Lamp", "brass"},
		{"", "no name"},
		{"Clock", ""},
	} {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}
	path := filepath.Join(dir, "in.xlsx")
	require.NoError(t, wb.Save(path))

	out, _, err := execute(t, "import", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 items, skipped")
}

func TestImport_MissingFile(t *testing.T) {
	dir := setupEnv(t)

	_, errOut, err := execute(t, "import", "--file", filepath.Join(dir, "nope.xlsx"))
	assert.Error(t, err)
	assert.Contains(t, errOut, "error:")
}

func TestMigrate_FileBackend(t *testing.T) {
	setupEnv(t)

	_, _, err := execute(t, "migrate", "version")
	assert.ErrorIs(t, err, errFileBackend)
}

func TestSeed_InvalidCount(t *testing.T) {
	setupEnv(t)

	_, _, err := execute(t, "seed", "--count", "0")
	assert.Error(t, err)
}
