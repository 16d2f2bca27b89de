package workers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/inventory-api/internal/core/domain"
	"github.com/ammerola/inventory-api/internal/core/services"
	"github.com/ammerola/inventory-api/internal/workers"
	"github.com/ammerola/inventory-api/test/helpers"
)

type fakeImporter struct {
	rows   []domain.ImportRow
	result *services.ImportResult
	err    error
}

func (f *fakeImporter) Import(_ context.Context, rows []domain.ImportRow) (*services.ImportResult, error) {
	f.rows = rows
	return f.result, f.err
}

// flakyImporter creates rows into created and fails once after failAfter
// creates, the way the service stops at the first storage error
type flakyImporter struct {
	created   []string
	calls     [][]domain.ImportRow
	failAfter int
	failed    bool
}

func (f *flakyImporter) Import(_ context.Context, rows []domain.ImportRow) (*services.ImportResult, error) {
	f.calls = append(f.calls, rows)
	result := &services.ImportResult{}

	for _, row := range rows {
		if row.Name == "" {
			result.Skipped++
			continue
		}
		if !f.failed && len(f.created) == f.failAfter {
			f.failed = true
			return result, domain.NewStorageError("failed to insert inventory item", errors.New("conn reset"))
		}
		f.created = append(f.created, row.Name)
		result.Created++
	}

	return result, nil
}

func writeWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Import")
	require.NoError(t, err)
	for _, values := range rows {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, file.Write(&buf))

	path := filepath.Join(t.TempDir(), "import.xlsx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func importTask(t *testing.T, p workers.ImportPayload) *asynq.Task {
	t.Helper()
	task, err := workers.NewImportTask(p, 3)
	require.NoError(t, err)
	return task
}

func TestImportProcessor_ProcessImport(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"Name", "Description"},
		{"Drill", "18V"},
		{"Saw", ""},
	})

	importer := &fakeImporter{result: &services.ImportResult{Created: 2, IDs: []string{"1", "2"}}}
	p := workers.NewImportProcessor(importer, helpers.TestLogger())

	err := p.ProcessImport(context.Background(), importTask(t, workers.ImportPayload{
		JobID:       "job-1",
		FilePath:    path,
		RemoveAfter: true,
	}))
	require.NoError(t, err)

	assert.Equal(t, []domain.ImportRow{
		{Name: "Drill", Description: "18V"},
		{Name: "Saw"},
	}, importer.rows)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "import file should be removed")
}

func TestImportProcessor_KeepsFileWhenAsked(t *testing.T) {
	path := writeWorkbook(t, [][]string{{"Name"}, {"Drill"}})

	importer := &fakeImporter{result: &services.ImportResult{Created: 1}}
	p := workers.NewImportProcessor(importer, helpers.TestLogger())

	require.NoError(t, p.ProcessImport(context.Background(), importTask(t, workers.ImportPayload{
		JobID:    "job-2",
		FilePath: path,
	})))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestImportProcessor_Failures(t *testing.T) {
	t.Run("bad_payload", func(t *testing.T) {
		p := workers.NewImportProcessor(&fakeImporter{}, helpers.TestLogger())
		err := p.ProcessImport(context.Background(), asynq.NewTask(workers.TypeImportXLSX, []byte("nope")))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("missing_file", func(t *testing.T) {
		p := workers.NewImportProcessor(&fakeImporter{}, helpers.TestLogger())
		payload, _ := json.Marshal(workers.ImportPayload{JobID: "x", FilePath: filepath.Join(t.TempDir(), "absent.xlsx")})
		err := p.ProcessImport(context.Background(), asynq.NewTask(workers.TypeImportXLSX, payload))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("storage_failure_is_retried_and_file_kept", func(t *testing.T) {
		path := writeWorkbook(t, [][]string{
			{"Name", "Description"},
			{"Drill"},
			{"", "no name"},
			{"Saw"},
			{"Lamp"},
			{"Clock"},
		})
		importer := &flakyImporter{failAfter: 2}
		p := workers.NewImportProcessor(importer, helpers.TestLogger())
		task := importTask(t, workers.ImportPayload{
			JobID:       "job-3",
			FilePath:    path,
			RemoveAfter: true,
		})

		err := p.ProcessImport(context.Background(), task)
		assert.ErrorIs(t, err, domain.ErrStorage)
		assert.NotErrorIs(t, err, asynq.SkipRetry)

		_, statErr := os.Stat(path)
		assert.NoError(t, statErr)

		// the retry continues at the row that failed
		require.NoError(t, p.ProcessImport(context.Background(), task))

		assert.Equal(t, []string{"Drill", "Saw", "Lamp", "Clock"}, importer.created)
		require.Len(t, importer.calls, 2)
		assert.Equal(t, []domain.ImportRow{{Name: "Lamp"}, {Name: "Clock"}}, importer.calls[1])

		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		assert.Empty(t, entries, "workbook and progress record should be removed")
	})

	t.Run("unreadable_progress_is_not_retried", func(t *testing.T) {
		path := writeWorkbook(t, [][]string{{"Name"}, {"Drill"}})
		require.NoError(t, os.WriteFile(path+".progress", []byte("{broken"), 0o600))

		importer := &flakyImporter{failAfter: -1}
		p := workers.NewImportProcessor(importer, helpers.TestLogger())

		err := p.ProcessImport(context.Background(), importTask(t, workers.ImportPayload{
			JobID:    "job-4",
			FilePath: path,
		}))
		assert.ErrorIs(t, err, asynq.SkipRetry)
		assert.Empty(t, importer.created)
	})
}
