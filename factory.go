package gridcalc

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
)

// RawKind tags the variant held by a RawInput
type RawKind uint8

const (
	RawEmpty RawKind = iota
	RawText
	RawInt
	RawDouble
	RawBool
	RawTime
	RawValue
)

// RawInput is the untyped input to an edit: text typed by a user, a
// native scalar, or an already classified value
type RawInput struct {
	Kind   RawKind
	Text   string
	Int    int
	Double float64
	Bool   bool
	Time   time.Time
	Value  CellValue
}

func EmptyInput() RawInput            { return RawInput{Kind: RawEmpty} }
func TextInput(s string) RawInput     { return RawInput{Kind: RawText, Text: s} }
func IntInput(i int) RawInput         { return RawInput{Kind: RawInt, Int: i} }
func DoubleInput(f float64) RawInput  { return RawInput{Kind: RawDouble, Double: f} }
func BoolInput(b bool) RawInput       { return RawInput{Kind: RawBool, Bool: b} }
func TimeInput(t time.Time) RawInput  { return RawInput{Kind: RawTime, Time: t} }
func ValueInput(v CellValue) RawInput { return RawInput{Kind: RawValue, Value: v} }

// IsEmpty reports whether the input clears the cell. whitespace-only text
// counts as empty.
func (in RawInput) IsEmpty() bool {
	switch in.Kind {
	case RawEmpty:
		return true
	case RawText:
		return strings.TrimSpace(in.Text) == ""
	case RawValue:
		return in.Value == nil
	}
	return false
}

func (in RawInput) String() string {
	switch in.Kind {
	case RawText:
		return in.Text
	case RawInt:
		return IntVal(in.Int).String()
	case RawDouble:
		return DoubleVal(in.Double).String()
	case RawBool:
		return BoolVal(in.Bool).String()
	case RawTime:
		return NewDateTime(in.Time).String()
	case RawValue:
		if in.Value != nil {
			return in.Value.String()
		}
	}
	return ""
}

// CellFactory classifies raw input into a stored value and, for formulas,
// an unlinked metadata shell
type CellFactory interface {
	FromString(input string, address CellRef) (CellValue, *MetaFunc)
	FromInput(in RawInput, address CellRef) (CellValue, *MetaFunc, error)
}

// DefaultCellFactory is the stateless classifier used by documents unless
// another one is injected
type DefaultCellFactory struct{}

// FromString classifies text. formula text yields a shell with no
// expression, dependencies or result.
func (DefaultCellFactory) FromString(input string, address CellRef) (CellValue, *MetaFunc) {
	value := ParseValue(input)
	if value.Type() == CellTypeFunc {
		return value, NewMetaFunc(address)
	}
	return value, nil
}

// FromInput classifies any raw input variant
func (f DefaultCellFactory) FromInput(in RawInput, address CellRef) (CellValue, *MetaFunc, error) {
	switch in.Kind {
	case RawText:
		value, shell := f.FromString(in.Text, address)
		return value, shell, nil
	case RawInt:
		return IntVal(in.Int), nil, nil
	case RawDouble:
		return DoubleVal(in.Double), nil, nil
	case RawBool:
		return BoolVal(in.Bool), nil, nil
	case RawTime:
		return NewDateTime(in.Time), nil, nil
	case RawValue:
		if in.Value == nil {
			break
		}
		if in.Value.Type() == CellTypeFunc {
			return in.Value, NewMetaFunc(address), nil
		}
		return in.Value, nil, nil
	}
	return nil, nil, NewApplicationError(codes.InvalidArgument, fmt.Sprintf("cannot classify empty input for %s", address))
}
