package gridcalc

import (
	"iter"
)

// SparseGrid stores only non-empty cells in nested row -> column maps
type SparseGrid struct {
	metaLayer

	values    map[int]map[int]CellValue
	rowCount  int
	colCount  int
	cellCount int
}

// NewSparseGrid creates a sparse grid over an existing metadata layer
func NewSparseGrid(rows, cols int, meta *MetaStore) *SparseGrid {
	return &SparseGrid{
		metaLayer: metaLayer{meta: meta},
		values:    make(map[int]map[int]CellValue),
		rowCount:  rows,
		colCount:  cols,
	}
}

func (g *SparseGrid) Kind() StorageKind { return StorageSparse }
func (g *SparseGrid) RowCount() int     { return g.rowCount }
func (g *SparseGrid) ColumnCount() int  { return g.colCount }
func (g *SparseGrid) CellCount() int    { return g.cellCount }

func (g *SparseGrid) inBounds(ref CellRef) bool {
	return ref.Row >= 0 && ref.Row < g.rowCount && ref.Col >= 0 && ref.Col < g.colCount
}

func (g *SparseGrid) Value(ref CellRef) CellValue {
	return g.values[ref.Row][ref.Col]
}

// SetValue stores a value. nil removes the entry, and an emptied row map
// is dropped. out-of-grid writes are ignored.
func (g *SparseGrid) SetValue(ref CellRef, value CellValue) {
	if !g.inBounds(ref) {
		return
	}
	row, exists := g.values[ref.Row]
	if value == nil {
		if !exists {
			return
		}
		if _, had := row[ref.Col]; had {
			delete(row, ref.Col)
			g.cellCount--
		}
		if len(row) == 0 {
			delete(g.values, ref.Row)
		}
		return
	}

	if !exists {
		row = make(map[int]CellValue)
		g.values[ref.Row] = row
	}
	if _, had := row[ref.Col]; !had {
		g.cellCount++
	}
	row[ref.Col] = value
}

func (g *SparseGrid) Clear(ref CellRef) {
	g.SetValue(ref, nil)
	g.meta.ClearFormula(ref)
}

func (g *SparseGrid) EvaluatedValue(ref CellRef) CellValue {
	if result, isFormula := g.resultOf(ref); isFormula {
		return result
	}
	return g.Value(ref)
}

func (g *SparseGrid) Cells() iter.Seq2[CellRef, CellValue] {
	return func(yield func(CellRef, CellValue) bool) {
		for _, row := range sortedKeys(g.values) {
			cells := g.values[row]
			for _, col := range sortedKeys(cells) {
				if !yield(CellRef{Row: row, Col: col}, cells[col]) {
					return
				}
			}
		}
	}
}

// shiftRows rebuilds the row map with every key passed through move
func (g *SparseGrid) shiftRows(move func(int) int) {
	shifted := make(map[int]map[int]CellValue, len(g.values))
	for row, cells := range g.values {
		shifted[move(row)] = cells
	}
	g.values = shifted
}

func (g *SparseGrid) shiftColumns(move func(int) int) {
	for row, cells := range g.values {
		shifted := make(map[int]CellValue, len(cells))
		for col, value := range cells {
			shifted[move(col)] = value
		}
		g.values[row] = shifted
	}
}

func (g *SparseGrid) InsertRowAt(index int) error {
	if err := checkInsertIndex(index, g.rowCount, "row"); err != nil {
		return err
	}
	g.shiftRows(func(row int) int {
		if row >= index {
			return row + 1
		}
		return row
	})
	g.rowCount++
	g.meta.ShiftRowsRight(index)
	rebuildFormulaText(g)
	return nil
}

func (g *SparseGrid) InsertColumnAt(index int) error {
	if err := checkInsertIndex(index, g.colCount, "column"); err != nil {
		return err
	}
	g.shiftColumns(func(col int) int {
		if col >= index {
			return col + 1
		}
		return col
	})
	g.colCount++
	g.meta.ShiftColumnsRight(index)
	rebuildFormulaText(g)
	return nil
}

func (g *SparseGrid) RemoveRow(index int) error {
	if err := checkIndex(index, g.rowCount, "row"); err != nil {
		return err
	}
	if !g.CanRemoveRow(index) {
		return newStructuralError("row %d is referenced by formulas", index+1)
	}
	clearRow(g, index)
	g.shiftRows(func(row int) int {
		if row > index {
			return row - 1
		}
		return row
	})
	g.rowCount--
	g.meta.ShiftRowsLeft(index)
	rebuildFormulaText(g)
	return nil
}

func (g *SparseGrid) RemoveColumn(index int) error {
	if err := checkIndex(index, g.colCount, "column"); err != nil {
		return err
	}
	if !g.CanRemoveColumn(index) {
		return newStructuralError("column %s is referenced by formulas", ColumnName(index))
	}
	clearColumn(g, index)
	g.shiftColumns(func(col int) int {
		if col > index {
			return col - 1
		}
		return col
	})
	g.colCount--
	g.meta.ShiftColumnsLeft(index)
	rebuildFormulaText(g)
	return nil
}

func (g *SparseGrid) SortByColumn(col int, descending bool) error {
	if err := checkIndex(col, g.colCount, "column"); err != nil {
		return err
	}
	mapping := sortMapping(g, col, descending)
	g.shiftRows(func(row int) int {
		if row < len(mapping) {
			return mapping[row]
		}
		return row
	})
	g.meta.RemapRows(mapping)
	rebuildFormulaText(g)
	return nil
}
