package gridcalc

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// mapSource is a ValueSource over plain maps
type mapSource struct {
	values map[CellRef]CellValue
	meta   map[CellRef]Meta
}

func (s mapSource) Value(ref CellRef) CellValue { return s.values[ref] }
func (s mapSource) Meta(ref CellRef) Meta       { return s.meta[ref] }

// opaqueNode is a node kind the evaluator does not know
type opaqueNode struct{}

func (opaqueNode) ToFormula() string { return "?" }

func mustRef(address string) CellRef {
	r, err := ParseCellRef(address)
	if err != nil {
		panic(err)
	}
	return r
}

func evalFormula(t *testing.T, source ValueSource, formula string) (CellValue, error) {
	t.Helper()
	node, err := ParseFormula(formula)
	if err != nil {
		t.Fatalf("ParseFormula(%q) failed: %v", formula, err)
	}
	return NewEvaluator(source).Evaluate(node)
}

func TestEvaluatorReferences(t *testing.T) {
	source := mapSource{
		values: map[CellRef]CellValue{
			mustRef("A1"): IntVal(5),
			mustRef("B1"): IntVal(3),
			mustRef("A2"): DoubleVal(1.5),
			mustRef("B2"): BoolVal(true),
			mustRef("C1"): StringVal("text"),
			mustRef("D1"): StringVal("=A1*2"),
		},
		meta: map[CellRef]Meta{
			mustRef("D1"): &MetaFunc{Result: IntVal(10)},
		},
	}

	tests := []struct {
		formula string
		want    CellValue
	}{
		{"=A1+B1", IntVal(8)},
		{"=A1+A2", DoubleVal(6.5)},
		{"=A1*3/B1", DoubleVal(5)},
		{"=A1+Z9", IntVal(5)},
		{"=Z9", IntVal(0)},
		{"=-Z9", IntVal(0)},
		{"=B2+1", IntVal(2)},
		{"=C1+1", IntVal(1)},
		{"=D1+1", IntVal(11)},
		{"=A1 AND Z9", BoolVal(false)},
		{"=A1 OR Z9", BoolVal(true)},
		{"=NOT B2", BoolVal(false)},
		{"=SUM(A1:B2)", DoubleVal(10.5)},
		{"=SUM(A1,Z9)", IntVal(5)},
		{"=AVG(A1,B1,Z9)", DoubleVal(4)},
		{"=ABS(Z9)", DoubleVal(0)},
		{"=ABS(A1-B1*3)", DoubleVal(4)},
		{"=A1^2", DoubleVal(25)},
	}

	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			got, err := evalFormula(t, source, tt.formula)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Evaluate(%q) mismatch (-want +got):\n%s", tt.formula, diff)
			}
		})
	}
}

func TestEvaluatorErrors(t *testing.T) {
	source := mapSource{
		values: map[CellRef]CellValue{mustRef("A1"): StringVal("=1/")},
		meta:   map[CellRef]Meta{mustRef("A1"): &MetaFunc{Error: "syntax error"}},
	}

	t.Run("FailedDependency", func(t *testing.T) {
		_, err := evalFormula(t, source, "=A1+1")
		if !IsKind(err, KindDependency) {
			t.Errorf("error = %v, want a dependency error", err)
		}
	})

	t.Run("EmptyAverage", func(t *testing.T) {
		_, err := evalFormula(t, source, "=AVG(Z1:Z3)")
		if !IsKind(err, KindEvaluation) {
			t.Errorf("error = %v, want an evaluation error", err)
		}
	})

	t.Run("AbsArity", func(t *testing.T) {
		_, err := evalFormula(t, source, "=ABS(B1,B2)")
		if !IsKind(err, KindEvaluation) {
			t.Errorf("error = %v, want an evaluation error", err)
		}
	})

	t.Run("UnknownFunction", func(t *testing.T) {
		node := &FunctionCallNode{Name: "MEDIAN", Args: []Node{&LiteralNode{Value: IntVal(1)}}}
		_, err := NewEvaluator(source).Evaluate(node)
		if !IsKind(err, KindEvaluation) {
			t.Errorf("error = %v, want an evaluation error", err)
		}
	})

	t.Run("ReferenceWithoutSource", func(t *testing.T) {
		_, err := NewEvaluator(nil).Evaluate(&CellRefNode{Ref: mustRef("A1")})
		if !IsKind(err, KindEvaluation) {
			t.Fatalf("error = %v, want an evaluation error", err)
		}
		if !strings.Contains(err.Error(), "cell reference A1 reached constant evaluation") {
			t.Errorf("error %q lost the original message", err)
		}
	})

	t.Run("UnknownNode", func(t *testing.T) {
		_, err := NewEvaluator(source).Evaluate(&BinaryOpNode{Left: opaqueNode{}, Op: OpAdd, Right: &LiteralNode{Value: IntVal(1)}})
		if !IsKind(err, KindEvaluation) {
			t.Fatalf("error = %v, want an evaluation error", err)
		}
		if !strings.Contains(err.Error(), "unknown expression node gridcalc.opaqueNode") {
			t.Errorf("error %q lost the original message", err)
		}
	})
}

func TestEvaluatorDivisionByZero(t *testing.T) {
	source := mapSource{values: map[CellRef]CellValue{mustRef("A1"): IntVal(0)}}

	got, err := evalFormula(t, source, "=1/A1")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !math.IsInf(got.ToDouble(), 1) {
		t.Errorf("1/0 = %v, want +Inf", got)
	}

	got, err = evalFormula(t, source, "=A1/A1")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !math.IsNaN(got.ToDouble()) {
		t.Errorf("0/0 = %v, want NaN", got)
	}
}

func TestBuiltInFunctions(t *testing.T) {
	bf := NewDefaultBuiltInFunctions()

	got, err := bf.Call("sum", nil)
	if err != nil || got != IntVal(0) {
		t.Errorf("SUM() = %v, %v, want 0", got, err)
	}

	got, err = bf.Call("SUM", []CellValue{IntVal(1), nil, DoubleVal(0.5), BoolVal(true)})
	if err != nil || got != DoubleVal(2.5) {
		t.Errorf("SUM(1,,0.5,TRUE) = %v, %v, want 2.5", got, err)
	}

	got, err = bf.Call("AVG", []CellValue{IntVal(1), IntVal(2)})
	if err != nil || got != DoubleVal(1.5) {
		t.Errorf("AVG(1,2) = %v, %v, want 1.5", got, err)
	}

	got, err = bf.Call("ABS", []CellValue{IntVal(-4)})
	if err != nil || got != DoubleVal(4) {
		t.Errorf("ABS(-4) = %v, %v, want 4.0", got, err)
	}
}
