// test/benchmarks/helpers.go
package benchmarks

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/inventory-api/internal/adapters/filestore"
	"github.com/ammerola/inventory-api/internal/adapters/storage"
	"github.com/ammerola/inventory-api/internal/core/domain"
	"github.com/ammerola/inventory-api/internal/core/services"
	"github.com/ammerola/inventory-api/test/helpers"
)

var itemDescriptions = []string{
	"Antique Victorian silver tea set with ornate engravings",
	"Modern abstract painting on canvas by local artist",
	"Vintage Lionel train set in original box with tracks",
	"Crystal wine glasses set of 12 Waterford pattern",
	"Mahogany dining table with six matching chairs",
	"Gold pocket watch with chain, circa 1890",
	"Collection of first edition books, various authors",
	"Brass telescope on wooden tripod, nautical style",
}

// newFileService builds a service over a file repository and local photo
// store rooted in a temp directory
func newFileService(b *testing.B) *services.InventoryService {
	b.Helper()

	dir := b.TempDir()
	log := helpers.TestLogger()

	repo, err := filestore.NewInventoryRepository(filepath.Join(dir, "cache"), log)
	if err != nil {
		b.Fatal(err)
	}
	photos, err := storage.NewLocalPhotoStore(filepath.Join(dir, "photos"), log)
	if err != nil {
		b.Fatal(err)
	}

	return services.NewInventoryService(repo, photos, nil, log)
}

// importRows returns n rows cycling through the sample descriptions
func importRows(n int) []domain.ImportRow {
	rows := make([]domain.ImportRow, n)
	for i := range rows {
		rows[i] = domain.ImportRow{
			Name:        fmt.Sprintf("Lot %d", i+1),
			Description: itemDescriptions[i%len(itemDescriptions)],
		}
	}
	return rows
}

// createWorkbook saves rows as an import workbook with a header row and
// returns its path
func createWorkbook(b *testing.B, rows []domain.ImportRow) string {
	b.Helper()

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Items")
	if err != nil {
		b.Fatal(err)
	}

	header := sheet.AddRow()
	header.AddCell().SetString("Name")
	header.AddCell().SetString("Description")

	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Name)
		row.AddCell().SetString(r.Description)
	}

	path := filepath.Join(b.TempDir(), "import.xlsx")
	if err := file.Save(path); err != nil {
		b.Fatal(err)
	}
	return path
}
