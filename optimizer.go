package gridcalc

import (
	"fmt"
	"math"

	"google.golang.org/grpc/codes"
)

// constants evaluates reference-free subtrees with the same operator
// semantics the grid uses at run time
var constants = NewEvaluator(nil)

// Optimize folds every subtree that reads no cell into a literal. children
// are folded first. a subtree whose value would be a non-finite Double is
// left as is, so the printed formula stays parseable.
func Optimize(n Node) (Node, error) {
	switch v := n.(type) {
	case *LiteralNode, *CellRefNode:
		return n, nil

	case *UnaryOpNode:
		operand, err := Optimize(v.Operand)
		if err != nil {
			return nil, err
		}
		return fold(&UnaryOpNode{Op: v.Op, Operand: operand})

	case *BinaryOpNode:
		left, err := Optimize(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := Optimize(v.Right)
		if err != nil {
			return nil, err
		}
		return fold(&BinaryOpNode{Left: left, Op: v.Op, Right: right})

	case *FunctionCallNode:
		args := make([]Node, len(v.Args))
		for i, arg := range v.Args {
			folded, err := Optimize(arg)
			if err != nil {
				return nil, err
			}
			args[i] = folded
		}
		return fold(&FunctionCallNode{Name: v.Name, Args: args})
	}

	return nil, NewApplicationError(codes.Internal, fmt.Sprintf("unknown expression node %T", n))
}

func fold(n Node) (Node, error) {
	if containsCellRef(n) {
		return n, nil
	}
	value, err := constants.Evaluate(n)
	if err != nil {
		return nil, err
	}
	if d, ok := value.(DoubleVal); ok && (math.IsInf(float64(d), 0) || math.IsNaN(float64(d))) {
		return n, nil
	}
	return &LiteralNode{Value: value}, nil
}
