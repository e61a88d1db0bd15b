// Package export renders discharge series as xlsx workbooks.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Discharge"

const timeLayout = "2006-01-02 15:04:05"

// Row is one point of a discharge series. Level is the water level (or the
// predicted level) the discharge was computed from.
type Row struct {
	At        time.Time
	Level     float64
	Discharge float64
	CurveCode string
}

var header = []string{"Timestamp", "Water Level (m)", "Discharge (m³/s)", "Rating Curve"}

var columnWidths = []float64{22, 18, 20, 24}

// DischargeSeries writes rows into a single-sheet workbook. Timestamps are
// rendered in loc, or UTC when loc is nil.
func DischargeSeries(sensorCode string, rows []Row, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	index, err := f.NewSheet(SheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	if err := f.SetCellValue(SheetName, "A1", "Sensor"); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetCellValue(SheetName, "B1", sensorCode); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, title := range header {
		if err := setCell(f, col+1, 3, title); err != nil {
			f.Close()
			return nil, err
		}
		name, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(SheetName, name, name, columnWidths[col]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}
	if err := f.SetCellStyle(SheetName, "A3", "D3", headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i, r := range rows {
		row := i + 4
		values := []interface{}{r.At.In(loc).Format(timeLayout), r.Level, r.Discharge, r.CurveCode}
		for col, v := range values {
			if err := setCell(f, col+1, row, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell at row %d: %w", row, err)
			}
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      3,
		TopLeftCell: "A4",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(SheetName, cell, value)
}
