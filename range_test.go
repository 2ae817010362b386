package gridcalc

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/grpc/codes"
)

func TestColumnNames(t *testing.T) {
	tests := []struct {
		col  int
		name string
	}{
		{0, "A"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
	}
	for _, tt := range tests {
		if got := ColumnName(tt.col); got != tt.name {
			t.Errorf("ColumnName(%d) = %q, want %q", tt.col, got, tt.name)
		}
		got, err := ColumnIndex(tt.name)
		if err != nil || got != tt.col {
			t.Errorf("ColumnIndex(%q) = %d, %v, want %d", tt.name, got, err, tt.col)
		}
	}

	if got, err := ColumnIndex("ab"); err != nil || got != 27 {
		t.Errorf("ColumnIndex is case-insensitive, got %d, %v", got, err)
	}
	if _, err := ColumnIndex("A1"); err == nil {
		t.Error("expected an error for a column name with digits")
	}
	if got, err := ColumnIndex("ZZZZZZZZZZZZ"); err != nil || got <= 0 {
		t.Errorf("ColumnIndex(ZZZZZZZZZZZZ) = %d, %v, want a positive index", got, err)
	}
	for _, name := range []string{"ZZZZZZZZZZZZZZZ", "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"} {
		_, err := ColumnIndex(name)
		expectCode(t, err, codes.InvalidArgument)
	}
}

func TestParseCellRef(t *testing.T) {
	tests := []struct {
		text    string
		want    CellRef
		wantErr bool
	}{
		{"A1", CellRef{Row: 0, Col: 0}, false},
		{"b12", CellRef{Row: 11, Col: 1}, false},
		{"AA3", CellRef{Row: 2, Col: 26}, false},
		{"A0", CellRef{}, true},
		{"A", CellRef{}, true},
		{"12", CellRef{}, true},
		{"A1B", CellRef{}, true},
		{"", CellRef{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseCellRef(tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCellRef(%q) error = %v, wantErr %v", tt.text, err, tt.wantErr)
			}
			if err != nil {
				appErr, ok := err.(*AppError)
				if !ok || appErr.Code != codes.InvalidArgument {
					t.Errorf("ParseCellRef(%q) error = %v, want InvalidArgument", tt.text, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseCellRef(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
			if tt.text == "A1" && got.String() != "A1" {
				t.Errorf("String() = %q", got.String())
			}
		})
	}
}

func TestRangeAddressCells(t *testing.T) {
	a1, b2 := CellRef{Row: 0, Col: 0}, CellRef{Row: 1, Col: 1}
	want := []CellRef{
		{Row: 0, Col: 0},
		{Row: 1, Col: 0},
		{Row: 0, Col: 1},
		{Row: 1, Col: 1},
	}

	// corners in any order enumerate the same rectangle
	for _, r := range []RangeAddress{{Start: a1, End: b2}, {Start: b2, End: a1}} {
		got := slices.Collect(r.Cells())
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s cells mismatch (-want +got):\n%s", r, diff)
		}
	}

	r := RangeAddress{Start: b2, End: a1}
	if !r.Contains(CellRef{Row: 1, Col: 0}) || r.Contains(CellRef{Row: 2, Col: 0}) {
		t.Error("Contains disagrees with the rectangle")
	}
}
