package persist

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/vogtb/go-spreadsheet/packages/gridcalc"
	"github.com/xuri/excelize/v2"
)

// XLSXCodec stores the grid on the first worksheet of a workbook. formulas
// are written as cell formulas and read back with a leading '='.
// date-times are written as their canonical text so they classify the
// same way when read back.
type XLSXCodec struct{}

func (XLSXCodec) Encode(w io.Writer, stored gridcalc.StoredGrid) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for _, c := range stored.Cells {
		cell, err := excelize.CoordinatesToCellName(c.Col+1, c.Row+1)
		if err != nil {
			return err
		}
		if err := writeCell(f, sheet, cell, c.Value); err != nil {
			return fmt.Errorf("writing %s: %w", cell, err)
		}
	}

	if stored.RowCount > 0 && stored.ColumnCount > 0 {
		last, err := excelize.CoordinatesToCellName(stored.ColumnCount, stored.RowCount)
		if err != nil {
			return err
		}
		if err := f.SetSheetDimension(sheet, "A1:"+last); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}

func writeCell(f *excelize.File, sheet, cell, text string) error {
	if strings.HasPrefix(text, "=") {
		return f.SetCellFormula(sheet, cell, strings.TrimPrefix(text, "="))
	}
	switch v := gridcalc.ParseValue(text).(type) {
	case gridcalc.IntVal:
		return f.SetCellInt(sheet, cell, int64(v))
	case gridcalc.DoubleVal:
		if !math.IsInf(float64(v), 0) && !math.IsNaN(float64(v)) {
			return f.SetCellFloat(sheet, cell, float64(v), -1, 64)
		}
	case gridcalc.BoolVal:
		return f.SetCellBool(sheet, cell, bool(v))
	}
	return f.SetCellStr(sheet, cell, text)
}

func (XLSXCodec) Decode(r io.Reader) (gridcalc.StoredGrid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return gridcalc.StoredGrid{}, err
	}
	defer f.Close()
	sheet := f.GetSheetName(0)

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return gridcalc.StoredGrid{}, err
	}
	stored := gridcalc.StoredGrid{RowCount: len(rows), Cells: []gridcalc.StoredCell{}}
	for _, row := range rows {
		stored.ColumnCount = max(stored.ColumnCount, len(row))
	}

	// formula cells without a cached value are trimmed from GetRows, so the
	// declared dimension decides the extent when it is larger
	if dim, err := f.GetSheetDimension(sheet); err == nil && dim != "" {
		if cols, rows, ok := dimensionExtent(dim); ok {
			stored.RowCount = max(stored.RowCount, rows)
			stored.ColumnCount = max(stored.ColumnCount, cols)
		}
	}

	for row := 1; row <= stored.RowCount; row++ {
		for col := 1; col <= stored.ColumnCount; col++ {
			cell, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return gridcalc.StoredGrid{}, err
			}
			text, err := readCell(f, sheet, cell)
			if err != nil {
				return gridcalc.StoredGrid{}, fmt.Errorf("reading %s: %w", cell, err)
			}
			if strings.TrimSpace(text) == "" {
				continue
			}
			stored.Cells = append(stored.Cells, gridcalc.StoredCell{Row: row - 1, Col: col - 1, Value: text})
		}
	}
	return stored, nil
}

func readCell(f *excelize.File, sheet, cell string) (string, error) {
	formula, err := f.GetCellFormula(sheet, cell)
	if err != nil {
		return "", err
	}
	if formula != "" {
		return "=" + formula, nil
	}
	value, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", err
	}
	// raw booleans come back as 1 and 0
	if typ, err := f.GetCellType(sheet, cell); err == nil && typ == excelize.CellTypeBool {
		return gridcalc.BoolVal(value == "1").String(), nil
	}
	return value, nil
}

// dimensionExtent returns the bottom-right corner of a dimension like
// "A1:C5" or "B2"
func dimensionExtent(dim string) (cols, rows int, ok bool) {
	last := dim
	if i := strings.LastIndex(dim, ":"); i >= 0 {
		last = dim[i+1:]
	}
	cols, rows, err := excelize.CellNameToCoordinates(last)
	if err != nil {
		return 0, 0, false
	}
	return cols, rows, true
}
