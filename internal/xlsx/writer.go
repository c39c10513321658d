// Package xlsx writes extracted tables into an Excel workbook, one sheet per
// table.
package xlsx

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/xj-bear/pdf2all/internal/domain"
)

// MaxSheetNameLength is Excel's limit on sheet names.
const MaxSheetNameLength = 31

// Sheet is one worksheet to write.
type Sheet struct {
	Name          string
	Rows          [][]string
	IncludeHeader bool // style the first row as a header
}

// SheetName returns the name of the index-th table (1-based, counted over the
// whole workbook) found on page.
func SheetName(page, index int) string {
	return TruncateName(fmt.Sprintf("Page%d_Table%d", page, index))
}

// TruncateName cuts name to MaxSheetNameLength characters.
func TruncateName(name string) string {
	r := []rune(name)
	if len(r) > MaxSheetNameLength {
		return string(r[:MaxSheetNameLength])
	}
	return name
}

// SheetsFromTables builds sheets in the order of tables.
func SheetsFromTables(tables []domain.PageTableResult) []Sheet {
	sheets := make([]Sheet, 0, len(tables))
	for i, t := range tables {
		sheets = append(sheets, Sheet{
			Name:          SheetName(t.PageNumber, i+1),
			Rows:          t.Grid,
			IncludeHeader: true,
		})
	}
	return sheets
}

// Write saves sheets to path, creating parent directories.
func Write(path string, sheets []Sheet) error {
	if len(sheets) == 0 {
		return domain.ValidationError("no sheets to write", domain.ErrNoTables)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return domain.IOError("create output directory", err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return domain.ConversionError("create header style", err)
	}

	for i, sheet := range sheets {
		name := TruncateName(sheet.Name)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return domain.ConversionError(fmt.Sprintf("name sheet %q", name), err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return domain.ConversionError(fmt.Sprintf("create sheet %q", name), err)
		}

		for r, row := range sheet.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return domain.ConversionError("compute cell name", err)
			}
			values := make([]interface{}, len(row))
			for c, v := range row {
				values[c] = v
			}
			if err := f.SetSheetRow(name, cell, &values); err != nil {
				return domain.ConversionError(fmt.Sprintf("write row %d of %q", r+1, name), err)
			}
		}

		if sheet.IncludeHeader && len(sheet.Rows) > 0 && len(sheet.Rows[0]) > 0 {
			last, err := excelize.CoordinatesToCellName(len(sheet.Rows[0]), 1)
			if err != nil {
				return domain.ConversionError("compute header range", err)
			}
			if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
				return domain.ConversionError("style header", err)
			}
		}
	}

	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return domain.IOError(fmt.Sprintf("save workbook %s", path), err)
	}
	return nil
}
