package gridcalc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func lit(v CellValue) Node { return &LiteralNode{Value: v} }

func TestOptimizeMatchesEvaluation(t *testing.T) {
	trees := map[string]Node{
		"arithmetic": &BinaryOpNode{
			Left:  lit(IntVal(2)),
			Op:    OpMultiply,
			Right: &BinaryOpNode{Left: lit(DoubleVal(1.5)), Op: OpAdd, Right: lit(IntVal(3))},
		},
		"unary": &UnaryOpNode{Op: OpSubtract, Operand: &UnaryOpNode{Op: OpNot, Operand: lit(BoolVal(false))}},
		"logic": &BinaryOpNode{Left: lit(IntVal(0)), Op: OpOr, Right: lit(StringVal("x"))},
		"power": &BinaryOpNode{Left: lit(IntVal(2)), Op: OpPower, Right: lit(IntVal(10))},
		"call": &FunctionCallNode{Name: "AVG", Args: []Node{
			lit(IntVal(1)),
			&BinaryOpNode{Left: lit(IntVal(2)), Op: OpDivide, Right: lit(IntVal(4))},
		}},
	}

	for name, tree := range trees {
		t.Run(name, func(t *testing.T) {
			want, err := NewEvaluator(nil).Evaluate(tree)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			folded, err := Optimize(tree)
			if err != nil {
				t.Fatalf("Optimize failed: %v", err)
			}
			literal, ok := folded.(*LiteralNode)
			if !ok {
				t.Fatalf("Optimize returned %T, want a literal", folded)
			}
			if diff := cmp.Diff(want, literal.Value); diff != "" {
				t.Errorf("folded value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOptimizeKeepsReferences(t *testing.T) {
	tree := &BinaryOpNode{
		Left: &CellRefNode{Ref: CellRef{Row: 0, Col: 0}},
		Op:   OpAdd,
		Right: &FunctionCallNode{Name: "SUM", Args: []Node{
			&CellRefNode{Ref: CellRef{Row: 1, Col: 0}},
			lit(IntVal(1)),
		}},
	}
	folded, err := Optimize(tree)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if diff := cmp.Diff(Node(tree), folded); diff != "" {
		t.Errorf("tree with references changed (-want +got):\n%s", diff)
	}
}

func TestOptimizeFoldsConstantSubtrees(t *testing.T) {
	tree := &BinaryOpNode{
		Left:  &CellRefNode{Ref: CellRef{Row: 0, Col: 0}},
		Op:    OpMultiply,
		Right: &BinaryOpNode{Left: lit(IntVal(2)), Op: OpAdd, Right: lit(IntVal(3))},
	}
	folded, err := Optimize(tree)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	want := &BinaryOpNode{
		Left:  &CellRefNode{Ref: CellRef{Row: 0, Col: 0}},
		Op:    OpMultiply,
		Right: lit(IntVal(5)),
	}
	if diff := cmp.Diff(Node(want), folded); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestOptimizeLeavesNonFinite(t *testing.T) {
	tree := &BinaryOpNode{Left: lit(IntVal(1)), Op: OpDivide, Right: lit(IntVal(0))}
	folded, err := Optimize(tree)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if _, isLiteral := folded.(*LiteralNode); isLiteral {
		t.Errorf("1/0 folded into %s", ToFormula(folded))
	}
}
