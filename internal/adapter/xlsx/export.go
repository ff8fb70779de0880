// Package xlsx writes entries as an Excel workbook.
package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"tasbih-counter/internal/domain"
)

// SheetName is the worksheet that holds the entries.
const SheetName = "Entries"

// Write renders entries as a workbook: a header row, one row per entry and a
// closing Total row.
func Write(w io.Writer, entries []domain.Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(SheetName); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return err
	}
	if err := sw.SetColWidth(1, 1, 26); err != nil {
		return err
	}
	if err := sw.SetColWidth(2, 2, 22); err != nil {
		return err
	}
	if err := sw.SetRow("A1", []interface{}{"Timestamp", "Name", "Count"}); err != nil {
		return err
	}
	for i, e := range entries {
		cell, _ := excelize.CoordinatesToCellName(1, i+2) // A2, A3, ...
		ts := ""
		if !e.Timestamp.IsZero() {
			ts = e.FormatTimestamp()
		}
		if err := sw.SetRow(cell, []interface{}{ts, e.Name, e.Count}); err != nil {
			return err
		}
	}
	totalCell, _ := excelize.CoordinatesToCellName(1, len(entries)+2)
	if err := sw.SetRow(totalCell, []interface{}{"Total", "", domain.Total(entries)}); err != nil {
		return err
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("xlsx: dropping default sheet: %w", err)
	}
	idx, err := f.GetSheetIndex(SheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	return f.Write(w)
}
