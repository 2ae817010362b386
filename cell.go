package gridcalc

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// CellType represents the classification of a stored or computed value
type CellType uint8

const (
	CellTypeString   CellType = 1
	CellTypeInt      CellType = 2
	CellTypeBool     CellType = 3
	CellTypeDouble   CellType = 4
	CellTypeDateTime CellType = 5
	CellTypeFunc     CellType = 6 // text starting with '='
)

var cellTypeNames = map[CellType]string{
	CellTypeString:   "STRING",
	CellTypeInt:      "INT",
	CellTypeBool:     "BOOL",
	CellTypeDouble:   "DOUBLE",
	CellTypeDateTime: "DATETIME",
	CellTypeFunc:     "FUNC",
}

func (t CellType) String() string {
	return cellTypeNames[t]
}

// DateTimeLayout is the canonical text form of a DateTime value
const DateTimeLayout = "2006-01-02 15:04:05"

// dateTimeLayouts are tried in order when classifying text
var dateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

const secondsPerDay = 24 * 60 * 60

// CellValue is an immutable spreadsheet value. every variant can be viewed
// as a number, an int, a bool and a canonical string.
type CellValue interface {
	Type() CellType
	ToDouble() float64
	ToInt() int
	ToBool() bool
	ToNumeric() NumericValue
	String() string
}

// NumericValue is the subset of values that take part in arithmetic
type NumericValue interface {
	CellValue
	numeric()
}

// IntVal is a whole number
type IntVal int

// DoubleVal is a double precision float. non-finite values are legal.
type DoubleVal float64

// BoolVal is a boolean
type BoolVal bool

// StringVal is text. text starting with '=' classifies as a formula.
type StringVal string

// DateTimeVal is a local date-time with second precision
type DateTimeVal struct {
	Time time.Time
}

func (v IntVal) Type() CellType          { return CellTypeInt }
func (v IntVal) ToDouble() float64       { return float64(v) }
func (v IntVal) ToInt() int              { return int(v) }
func (v IntVal) ToBool() bool            { return v != 0 }
func (v IntVal) ToNumeric() NumericValue { return v }
func (v IntVal) String() string          { return strconv.Itoa(int(v)) }
func (v IntVal) numeric()                {}

func (v DoubleVal) Type() CellType          { return CellTypeDouble }
func (v DoubleVal) ToDouble() float64       { return float64(v) }
func (v DoubleVal) ToInt() int              { return int(v) }
func (v DoubleVal) ToBool() bool            { return v != 0 }
func (v DoubleVal) ToNumeric() NumericValue { return v }
func (v DoubleVal) numeric()                {}

// String renders the shortest text that parses back to the same double.
// integral values keep a ".0" suffix so they classify as doubles again.
func (v DoubleVal) String() string {
	f := float64(v)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

func (v BoolVal) Type() CellType    { return CellTypeBool }
func (v BoolVal) ToDouble() float64 { return float64(v.ToInt()) }
func (v BoolVal) ToBool() bool      { return bool(v) }
func (v BoolVal) ToInt() int {
	if v {
		return 1
	}
	return 0
}
func (v BoolVal) ToNumeric() NumericValue { return IntVal(v.ToInt()) }
func (v BoolVal) String() string          { return strconv.FormatBool(bool(v)) }

// Type is FUNC for formula text and STRING otherwise
func (v StringVal) Type() CellType {
	if strings.HasPrefix(string(v), "=") {
		return CellTypeFunc
	}
	return CellTypeString
}

// ToDouble parses the text, and text that is not a number is +Inf
func (v StringVal) ToDouble() float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
	if err != nil {
		return math.Inf(1)
	}
	return f
}

func (v StringVal) ToInt() int              { return 0 }
func (v StringVal) ToBool() bool            { return v != "" }
func (v StringVal) ToNumeric() NumericValue { return IntVal(0) }
func (v StringVal) String() string          { return string(v) }

// NewDateTime truncates t to whole seconds and drops the zone
func NewDateTime(t time.Time) DateTimeVal {
	return DateTimeVal{Time: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)}
}

func (v DateTimeVal) Type() CellType { return CellTypeDateTime }

// ordinal is the number of whole days since 1970-01-01
func (v DateTimeVal) ordinal() int {
	secs := v.Time.Unix()
	days := secs / secondsPerDay
	if secs%secondsPerDay < 0 {
		days--
	}
	return int(days)
}

func (v DateTimeVal) ToDouble() float64       { return float64(v.ordinal()) }
func (v DateTimeVal) ToInt() int              { return v.ordinal() }
func (v DateTimeVal) ToBool() bool            { return true }
func (v DateTimeVal) ToNumeric() NumericValue { return IntVal(v.ordinal()) }
func (v DateTimeVal) String() string          { return v.Time.Format(DateTimeLayout) }

// ParseValue classifies trimmed text as, in order: int, double, the exact
// words "true"/"false", a date-time, or a string.
func ParseValue(text string) CellValue {
	s := strings.TrimSpace(text)
	if i, err := strconv.Atoi(s); err == nil {
		return IntVal(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return DoubleVal(f)
	}
	switch s {
	case "true":
		return BoolVal(true)
	case "false":
		return BoolVal(false)
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateTimeVal{Time: t}
		}
	}
	return StringVal(s)
}

// arithmetic. Int op Int stays Int except for division; power is always
// Double; anything involving a Double is Double.

func bothInts(a, b NumericValue) (IntVal, IntVal, bool) {
	x, okX := a.(IntVal)
	y, okY := b.(IntVal)
	return x, y, okX && okY
}

// Plus adds two numeric values
func Plus(a, b NumericValue) NumericValue {
	if x, y, ok := bothInts(a, b); ok {
		return x + y
	}
	return DoubleVal(a.ToDouble() + b.ToDouble())
}

// Minus subtracts b from a
func Minus(a, b NumericValue) NumericValue {
	if x, y, ok := bothInts(a, b); ok {
		return x - y
	}
	return DoubleVal(a.ToDouble() - b.ToDouble())
}

// Times multiplies two numeric values
func Times(a, b NumericValue) NumericValue {
	if x, y, ok := bothInts(a, b); ok {
		return x * y
	}
	return DoubleVal(a.ToDouble() * b.ToDouble())
}

// Divide always produces a Double. division by zero yields Inf or NaN.
func Divide(a, b NumericValue) NumericValue {
	return DoubleVal(a.ToDouble() / b.ToDouble())
}

// Power raises a to b as a Double
func Power(a, b NumericValue) NumericValue {
	return DoubleVal(math.Pow(a.ToDouble(), b.ToDouble()))
}

// Negate flips the sign, keeping the variant
func Negate(a NumericValue) NumericValue {
	if x, ok := a.(IntVal); ok {
		return -x
	}
	return DoubleVal(-a.ToDouble())
}
