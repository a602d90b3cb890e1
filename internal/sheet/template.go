// Package sheet writes table-of-contents spreadsheets and maintains the
// cumulative ledger, both derived from a shared xlsx template.
package sheet

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

// Template columns. Data starts on FirstDataRow; row 1 is the template's header.
const (
	ColDocument  = 1
	ColTitle     = 2
	ColPage      = 3
	FirstDataRow = 2
)

// CopyTemplate copies the template byte for byte to dst so its styles,
// column widths and header survive untouched.
func CopyTemplate(template, dst string) error {
	src, err := os.Open(template)
	if err != nil {
		return fmt.Errorf("failed to open template: %w", err)
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy template: %w", err)
	}
	return out.Close()
}

// activeSheet returns the name of the workbook's active sheet.
func activeSheet(f *excelize.File) string {
	return f.GetSheetName(f.GetActiveSheetIndex())
}

// readRows returns the raw cell values of a sheet.
func readRows(f *excelize.File, sheet string) ([][]string, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// ClearDataRows blanks the three data columns from FirstDataRow down to the
// last used row. Cell styles are kept.
func ClearDataRows(f *excelize.File, sheet string) error {
	rows, err := readRows(f, sheet)
	if err != nil {
		return err
	}
	for r := FirstDataRow; r <= len(rows); r++ {
		for c := ColDocument; c <= ColPage; c++ {
			cell, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, nil); err != nil {
				return fmt.Errorf("failed to clear %s: %w", cell, err)
			}
		}
	}
	return nil
}

// CreateTemplate writes a minimal styled template: a bold header row
// "Document | Entry | Page" and sized columns.
func CreateTemplate(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "TOC"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &[]any{"Document", "Entry", "Page"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", "C1", header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	widths := map[string]float64{"A": 30, "B": 60, "C": 8}
	for col, w := range widths {
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return fmt.Errorf("failed to size column %s: %w", col, err)
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}
	return nil
}
