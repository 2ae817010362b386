package gridcalc

import (
	"iter"
	"slices"
)

// DenseGrid stores every cell of the grid in a row-major array of rows
type DenseGrid struct {
	metaLayer

	values    [][]CellValue
	rowCount  int
	colCount  int
	cellCount int
}

// NewDenseGrid creates a dense grid over an existing metadata layer
func NewDenseGrid(rows, cols int, meta *MetaStore) *DenseGrid {
	values := make([][]CellValue, rows)
	for i := range values {
		values[i] = make([]CellValue, cols)
	}
	return &DenseGrid{
		metaLayer: metaLayer{meta: meta},
		values:    values,
		rowCount:  rows,
		colCount:  cols,
	}
}

func (g *DenseGrid) Kind() StorageKind { return StorageDense }
func (g *DenseGrid) RowCount() int     { return g.rowCount }
func (g *DenseGrid) ColumnCount() int  { return g.colCount }
func (g *DenseGrid) CellCount() int    { return g.cellCount }

func (g *DenseGrid) inBounds(ref CellRef) bool {
	return ref.Row >= 0 && ref.Row < g.rowCount && ref.Col >= 0 && ref.Col < g.colCount
}

// Value returns the stored value, or nil for empty or out-of-grid cells
func (g *DenseGrid) Value(ref CellRef) CellValue {
	if !g.inBounds(ref) {
		return nil
	}
	return g.values[ref.Row][ref.Col]
}

// SetValue stores a value. out-of-grid writes are ignored.
func (g *DenseGrid) SetValue(ref CellRef, value CellValue) {
	if !g.inBounds(ref) {
		return
	}
	old := g.values[ref.Row][ref.Col]
	switch {
	case old == nil && value != nil:
		g.cellCount++
	case old != nil && value == nil:
		g.cellCount--
	}
	g.values[ref.Row][ref.Col] = value
}

func (g *DenseGrid) Clear(ref CellRef) {
	g.SetValue(ref, nil)
	g.meta.ClearFormula(ref)
}

func (g *DenseGrid) EvaluatedValue(ref CellRef) CellValue {
	if result, isFormula := g.resultOf(ref); isFormula {
		return result
	}
	return g.Value(ref)
}

func (g *DenseGrid) Cells() iter.Seq2[CellRef, CellValue] {
	return func(yield func(CellRef, CellValue) bool) {
		for row, cells := range g.values {
			for col, value := range cells {
				if value == nil {
					continue
				}
				if !yield(CellRef{Row: row, Col: col}, value) {
					return
				}
			}
		}
	}
}

func (g *DenseGrid) InsertRowAt(index int) error {
	if err := checkInsertIndex(index, g.rowCount, "row"); err != nil {
		return err
	}
	g.values = slices.Insert(g.values, index, make([]CellValue, g.colCount))
	g.rowCount++
	g.meta.ShiftRowsRight(index)
	rebuildFormulaText(g)
	return nil
}

func (g *DenseGrid) InsertColumnAt(index int) error {
	if err := checkInsertIndex(index, g.colCount, "column"); err != nil {
		return err
	}
	for row := range g.values {
		g.values[row] = slices.Insert(g.values[row], index, nil)
	}
	g.colCount++
	g.meta.ShiftColumnsRight(index)
	rebuildFormulaText(g)
	return nil
}

func (g *DenseGrid) RemoveRow(index int) error {
	if err := checkIndex(index, g.rowCount, "row"); err != nil {
		return err
	}
	if !g.CanRemoveRow(index) {
		return newStructuralError("row %d is referenced by formulas", index+1)
	}
	clearRow(g, index)
	g.values = slices.Delete(g.values, index, index+1)
	g.rowCount--
	g.meta.ShiftRowsLeft(index)
	rebuildFormulaText(g)
	return nil
}

func (g *DenseGrid) RemoveColumn(index int) error {
	if err := checkIndex(index, g.colCount, "column"); err != nil {
		return err
	}
	if !g.CanRemoveColumn(index) {
		return newStructuralError("column %s is referenced by formulas", ColumnName(index))
	}
	clearColumn(g, index)
	for row := range g.values {
		g.values[row] = slices.Delete(g.values[row], index, index+1)
	}
	g.colCount--
	g.meta.ShiftColumnsLeft(index)
	rebuildFormulaText(g)
	return nil
}

func (g *DenseGrid) SortByColumn(col int, descending bool) error {
	if err := checkIndex(col, g.colCount, "column"); err != nil {
		return err
	}
	mapping := sortMapping(g, col, descending)
	sorted := make([][]CellValue, g.rowCount)
	for oldRow, newRow := range mapping {
		sorted[newRow] = g.values[oldRow]
	}
	g.values = sorted
	g.meta.RemapRows(mapping)
	rebuildFormulaText(g)
	return nil
}
