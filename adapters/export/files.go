package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// WriteCSV writes one table to path.
func WriteCSV(path string, t Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Headers); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// WriteXLSX writes each table to its own sheet, in order. Cells that parse
// as numbers are stored as numbers, except in *_id columns.
func WriteXLSX(path string, tables ...Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("no tables to write")
	}
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.Name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return err
		}

		if err := f.SetSheetRow(t.Name, "A1", &t.Headers); err != nil {
			return err
		}
		for r, row := range t.Rows {
			for c, v := range row {
				cell, err := excelize.CoordinatesToCellName(c+1, r+2)
				if err != nil {
					return err
				}
				var value interface{} = v
				if c >= len(t.Headers) || !strings.HasSuffix(t.Headers[c], "_id") {
					value = cellValue(v)
				}
				if err := f.SetCellValue(t.Name, cell, value); err != nil {
					return fmt.Errorf("sheet %s row %d: %w", t.Name, r+1, err)
				}
			}
		}
	}
	f.SetActiveSheet(0)
	return f.SaveAs(path)
}

// WriteJSON writes v as indented JSON.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
