// internal/adapters/spreadsheet/xlsx.go
package spreadsheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/inventory-api/internal/core/domain"
)

// ContentType is the media type of an xlsx workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SheetName is the worksheet the export writes to
const SheetName = "Inventory"

// ExportHeaders is the header row of an export
var ExportHeaders = []string{"ID", "Name", "Description", "Photo"}

// WriteInventory writes items as a single sheet workbook
func WriteInventory(w io.Writer, items []domain.InventoryItem) error {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet(SheetName)
	if err != nil {
		return fmt.Errorf("failed to add worksheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, header := range ExportHeaders {
		cell := headerRow.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "CCCCCC"
	}

	for _, item := range items {
		row := sheet.AddRow()
		photo := ""
		if item.HasPhoto() {
			photo = *item.Photo
		}
		for _, value := range []string{item.ID, item.Name, item.Description, photo} {
			row.AddCell().SetString(value)
		}
	}

	sheet.SetColWidth(1, len(ExportHeaders), 20)

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	return nil
}

// ReadImportFile parses the workbook at path
func ReadImportFile(path string) ([]domain.ImportRow, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return readRows(file)
}

// readRows reads the first sheet. The header row is skipped, column A is the
// name and column B the description. Names are not validated here.
func readRows(file *xlsx.File) ([]domain.ImportRow, error) {
	if len(file.Sheets) == 0 {
		return []domain.ImportRow{}, nil
	}

	rows := []domain.ImportRow{}
	rowIdx := 0

	err := file.Sheets[0].ForEachRow(func(r *xlsx.Row) error {
		rowIdx++
		if rowIdx == 1 {
			return nil
		}

		row := domain.ImportRow{
			Name:        cellString(r, 0),
			Description: cellString(r, 1),
		}
		if row.Name == "" && row.Description == "" {
			return nil
		}

		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return rows, nil
}

func cellString(r *xlsx.Row, i int) string {
	c := r.GetCell(i)
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.String())
}
