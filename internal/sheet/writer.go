package sheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// WriteTOC writes one document's rows to path, starting from a copy of template.
// Any demo rows the template carries are cleared first; row order is kept.
func WriteTOC(path, template string, rows []Row) error {
	if err := CopyTemplate(template, path); err != nil {
		return err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	sheet := activeSheet(f)
	if err := ClearDataRows(f, sheet); err != nil {
		return err
	}
	for i, r := range rows {
		if err := writeRow(f, sheet, FirstDataRow+i, r); err != nil {
			return err
		}
	}

	if err := f.Save(); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
