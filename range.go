package gridcalc

import (
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
)

// CellRef is a zero-based (row, column) coordinate
type CellRef struct {
	Row int
	Col int
}

// String renders the reference in A1 form
func (r CellRef) String() string {
	return ColumnName(r.Col) + strconv.Itoa(r.Row+1)
}

// ColumnName converts a zero-based column index to letters (0=A, 25=Z,
// 26=AA, ...)
func ColumnName(col int) string {
	if col < 0 {
		return ""
	}
	var buf []byte
	for n := col + 1; n > 0; n = (n - 1) / 26 {
		buf = append(buf, byte('A'+(n-1)%26))
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// ColumnIndex converts column letters to a zero-based index. letters are
// case-insensitive.
func ColumnIndex(name string) (int, error) {
	if name == "" {
		return 0, NewApplicationError(codes.InvalidArgument, "empty column name")
	}
	col := 0
	for _, ch := range strings.ToUpper(name) {
		if ch < 'A' || ch > 'Z' {
			return 0, NewApplicationError(codes.InvalidArgument, fmt.Sprintf("invalid column name: %s", name))
		}
		if col > (math.MaxInt-26)/26 {
			return 0, NewApplicationError(codes.InvalidArgument, fmt.Sprintf("column name too long: %s", name))
		}
		col = col*26 + int(ch-'A') + 1
	}
	return col - 1, nil
}

// ParseCellRef parses an address like "B12" into a reference. the row
// number is 1-based in text.
func ParseCellRef(text string) (CellRef, error) {
	letterEnd := 0
	for i, ch := range text {
		if ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z' {
			letterEnd = i + 1
		} else {
			break
		}
	}

	if letterEnd == 0 || letterEnd == len(text) {
		return CellRef{}, NewApplicationError(codes.InvalidArgument, fmt.Sprintf("invalid cell reference: %s", text))
	}

	col, err := ColumnIndex(text[:letterEnd])
	if err != nil {
		return CellRef{}, err
	}

	rowStr := text[letterEnd:]
	for _, ch := range rowStr {
		if ch < '0' || ch > '9' {
			return CellRef{}, NewApplicationError(codes.InvalidArgument, fmt.Sprintf("invalid cell reference: %s", text))
		}
	}
	row, err := strconv.Atoi(rowStr)
	if err != nil {
		return CellRef{}, NewApplicationError(codes.InvalidArgument, fmt.Sprintf("invalid row number: %s", rowStr))
	}
	if row < 1 {
		return CellRef{}, NewApplicationError(codes.InvalidArgument, fmt.Sprintf("row number must be positive: %d", row))
	}

	return CellRef{Row: row - 1, Col: col}, nil
}

// RangeAddress represents a rectangle of cells. the corners may be given
// in any order.
type RangeAddress struct {
	Start CellRef
	End   CellRef
}

// bounds returns the normalized corners
func (r RangeAddress) bounds() (minRow, minCol, maxRow, maxCol int) {
	minRow, maxRow = r.Start.Row, r.End.Row
	if minRow > maxRow {
		minRow, maxRow = maxRow, minRow
	}
	minCol, maxCol = r.Start.Col, r.End.Col
	if minCol > maxCol {
		minCol, maxCol = maxCol, minCol
	}
	return
}

// Contains checks if a cell falls inside the rectangle
func (r RangeAddress) Contains(ref CellRef) bool {
	minRow, minCol, maxRow, maxCol := r.bounds()
	return ref.Row >= minRow && ref.Row <= maxRow && ref.Col >= minCol && ref.Col <= maxCol
}

// Cells enumerates the rectangle column-major: columns outer, rows inner
func (r RangeAddress) Cells() iter.Seq[CellRef] {
	return func(yield func(CellRef) bool) {
		minRow, minCol, maxRow, maxCol := r.bounds()
		for col := minCol; col <= maxCol; col++ {
			for row := minRow; row <= maxRow; row++ {
				if !yield(CellRef{Row: row, Col: col}) {
					return
				}
			}
		}
	}
}

func (r RangeAddress) String() string {
	return r.Start.String() + ":" + r.End.String()
}
