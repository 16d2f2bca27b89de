package workers_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/inventory-api/internal/adapters/storage"
	"github.com/ammerola/inventory-api/internal/workers"
	"github.com/ammerola/inventory-api/test/helpers"
)

func TestCleanupProcessor_CleanupTempFiles(t *testing.T) {
	store, err := storage.NewLocalPhotoStore(t.TempDir(), helpers.TestLogger())
	require.NoError(t, err)

	stale := filepath.Join(store.Dir(), storage.TempPrefix+"crashed")
	require.NoError(t, os.WriteFile(stale, []byte("partial"), 0o600))
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, past, past))

	p := workers.NewCleanupProcessor(store, time.Hour, helpers.TestLogger())
	require.NoError(t, p.CleanupTempFiles(context.Background(), workers.NewCleanupTempFilesTask()))

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}

func TestCleanupProcessor_MissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "photos")
	store, err := storage.NewLocalPhotoStore(dir, helpers.TestLogger())
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	p := workers.NewCleanupProcessor(store, time.Hour, helpers.TestLogger())
	assert.Error(t, p.CleanupTempFiles(context.Background(), workers.NewCleanupTempFilesTask()))
}
