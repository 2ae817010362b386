package gridcalc

import (
	"fmt"
	"math"
	"strings"
)

// builtinFunctionNames are the identifiers the lexer turns into function
// tokens
var builtinFunctionNames = map[string]struct{}{
	"SUM": {},
	"AVG": {},
	"ABS": {},
}

func isBuiltinFunction(name string) bool {
	_, exists := builtinFunctionNames[strings.ToUpper(name)]
	return exists
}

// BuiltInFunctions contains all spreadsheet built-in functions. arguments
// are already evaluated; a nil argument is an empty cell.
type BuiltInFunctions struct{}

// NewDefaultBuiltInFunctions creates the builtin function set
func NewDefaultBuiltInFunctions() *BuiltInFunctions {
	return &BuiltInFunctions{}
}

// Call invokes a built-in function by name with the given arguments
func (bf *BuiltInFunctions) Call(name string, args []CellValue) (CellValue, error) {
	switch strings.ToUpper(name) {
	case "SUM":
		return bf.SUM(args)
	case "AVG":
		return bf.AVG(args)
	case "ABS":
		return bf.ABS(args)
	default:
		return nil, NewFormulaError(KindEvaluation, fmt.Sprintf("unknown function: %s", name))
	}
}

// SUM adds the numeric views of its non-empty arguments. no values sum to
// Int 0.
func (bf *BuiltInFunctions) SUM(args []CellValue) (CellValue, error) {
	var sum NumericValue = IntVal(0)
	for _, arg := range args {
		if arg == nil {
			continue
		}
		sum = Plus(sum, arg.ToNumeric())
	}
	return sum, nil
}

// AVG divides the sum of non-empty arguments by their count, always as a
// Double
func (bf *BuiltInFunctions) AVG(args []CellValue) (CellValue, error) {
	var sum NumericValue = IntVal(0)
	count := 0
	for _, arg := range args {
		if arg == nil {
			continue
		}
		sum = Plus(sum, arg.ToNumeric())
		count++
	}
	if count == 0 {
		return nil, NewFormulaError(KindEvaluation, "AVG requires at least one value")
	}
	return Divide(sum, IntVal(count)), nil
}

// ABS returns the absolute value of its only argument as a Double. an
// empty cell counts as 0.
func (bf *BuiltInFunctions) ABS(args []CellValue) (CellValue, error) {
	if len(args) != 1 {
		return nil, NewFormulaError(KindEvaluation, "ABS requires exactly 1 argument")
	}
	if args[0] == nil {
		return DoubleVal(0), nil
	}
	return DoubleVal(math.Abs(args[0].ToDouble())), nil
}
