package gridcalc

import (
	"fmt"
	"iter"
	"slices"
	"sort"

	"google.golang.org/grpc/codes"
)

// StorageKind identifies the physical layout of a grid
type StorageKind uint8

const (
	StorageSparse StorageKind = iota
	StorageDense
)

func (k StorageKind) String() string {
	if k == StorageDense {
		return "dense"
	}
	return "sparse"
}

// Grid is a bounded two-dimensional store of cell values with a shared
// metadata layer. dense and sparse backends behave identically.
type Grid interface {
	ValueSource

	Kind() StorageKind
	RowCount() int
	ColumnCount() int
	CellCount() int // non-empty cells

	SetValue(ref CellRef, value CellValue) // nil removes the value
	Clear(ref CellRef)                     // removes the value and any formula metadata
	EvaluatedValue(ref CellRef) CellValue  // formula result or plain value
	Cells() iter.Seq2[CellRef, CellValue]  // non-empty cells, row-major

	Metadata() *MetaStore
	MetaOrCreate(ref CellRef) Meta
	SetMeta(ref CellRef, m Meta)
	Formulas() []*MetaFunc

	InsertRowAt(index int) error
	InsertColumnAt(index int) error
	RemoveRow(index int) error
	RemoveColumn(index int) error
	CanRemoveRow(index int) bool
	CanRemoveColumn(index int) bool
	SortByColumn(col int, descending bool) error
}

// metaLayer is embedded by both backends
type metaLayer struct {
	meta *MetaStore
}

func (l *metaLayer) Metadata() *MetaStore           { return l.meta }
func (l *metaLayer) Meta(ref CellRef) Meta          { return l.meta.Get(ref) }
func (l *metaLayer) MetaOrCreate(ref CellRef) Meta  { return l.meta.GetOrCreate(ref) }
func (l *metaLayer) SetMeta(ref CellRef, m Meta)    { l.meta.Set(ref, m) }
func (l *metaLayer) Formulas() []*MetaFunc          { return l.meta.Formulas() }
func (l *metaLayer) CanRemoveRow(index int) bool    { return !l.meta.HasDependentsInRow(index) }
func (l *metaLayer) CanRemoveColumn(index int) bool { return !l.meta.HasDependentsInColumn(index) }

func (l *metaLayer) resultOf(ref CellRef) (CellValue, bool) {
	if f, ok := l.meta.Get(ref).(*MetaFunc); ok {
		return f.Result, true
	}
	return nil, false
}

// NewGrid creates an empty grid of the given kind with its own metadata
func NewGrid(kind StorageKind, rows, cols int) Grid {
	if kind == StorageDense {
		return NewDenseGrid(rows, cols, NewMetaStore())
	}
	return NewSparseGrid(rows, cols, NewMetaStore())
}

// CopyTo moves the content of src into a fresh backend of the given kind.
// values are copied; the metadata layer, with every formula tree and
// cached result, is handed over unchanged.
func CopyTo(src Grid, kind StorageKind) Grid {
	var dst Grid
	if kind == StorageDense {
		dst = NewDenseGrid(src.RowCount(), src.ColumnCount(), src.Metadata())
	} else {
		dst = NewSparseGrid(src.RowCount(), src.ColumnCount(), src.Metadata())
	}
	for ref, value := range src.Cells() {
		dst.SetValue(ref, value)
	}
	return dst
}

func checkInsertIndex(index, count int, what string) error {
	if index < 0 || index > count {
		return NewApplicationError(codes.OutOfRange, fmt.Sprintf("%s index %d outside 0..%d", what, index, count))
	}
	return nil
}

func checkIndex(index, count int, what string) error {
	if index < 0 || index >= count {
		return NewApplicationError(codes.OutOfRange, fmt.Sprintf("%s index %d outside 0..%d", what, index, count-1))
	}
	return nil
}

// clearRow drops every value and formula of a row before it is removed
func clearRow(g Grid, row int) {
	for col := 0; col < g.ColumnCount(); col++ {
		g.Clear(CellRef{Row: row, Col: col})
	}
	for _, f := range g.Formulas() {
		if f.Address.Row == row {
			g.Clear(f.Address)
		}
	}
}

func clearColumn(g Grid, col int) {
	for row := 0; row < g.RowCount(); row++ {
		g.Clear(CellRef{Row: row, Col: col})
	}
	for _, f := range g.Formulas() {
		if f.Address.Col == col {
			g.Clear(f.Address)
		}
	}
}

// rebuildFormulaText rewrites the stored text of every parsed formula
// from its (possibly shifted) tree
func rebuildFormulaText(g Grid) {
	for _, f := range g.Formulas() {
		if f.Expression != nil {
			g.SetValue(f.Address, StringVal("="+ToFormula(f.Expression)))
		}
	}
}

// sortMapping computes a stable row permutation ordering rows by the
// numeric view of their evaluated value in col. empty cells and failed
// formulas go last in both directions. mapping[oldRow] is the new row.
func sortMapping(g Grid, col int, descending bool) []int {
	type entry struct {
		row     int
		missing bool
		key     float64
	}

	entries := make([]entry, g.RowCount())
	for row := range entries {
		value := g.EvaluatedValue(CellRef{Row: row, Col: col})
		e := entry{row: row, missing: value == nil}
		if value != nil {
			e.key = value.ToDouble()
			if descending {
				e.key = -e.key
			}
		}
		entries[row] = e
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.missing != b.missing {
			return !a.missing
		}
		return a.key < b.key
	})

	mapping := make([]int, len(entries))
	for newRow, e := range entries {
		mapping[e.row] = newRow
	}
	return mapping
}

// sortedKeys returns the keys of a map in ascending order
func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
