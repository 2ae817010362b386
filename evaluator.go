package gridcalc

import (
	"fmt"

	"google.golang.org/grpc/codes"
)

// ValueSource is what the evaluator reads cells from. Value may return nil
// for an empty cell.
type ValueSource interface {
	Value(ref CellRef) CellValue
	Meta(ref CellRef) Meta
}

// Evaluator computes the value of expression trees against a grid. a nil
// source evaluates constant trees only, which is how the optimizer folds.
type Evaluator struct {
	source    ValueSource
	functions *BuiltInFunctions
}

// NewEvaluator creates an evaluator reading from source
func NewEvaluator(source ValueSource) *Evaluator {
	return &Evaluator{
		source:    source,
		functions: NewDefaultBuiltInFunctions(),
	}
}

// Evaluate computes a tree. an absent result is Int 0, and any failure is
// reported as a *FormulaError. failures that are not formula errors keep
// their message under KindEvaluation.
func (e *Evaluator) Evaluate(n Node) (CellValue, error) {
	v, err := e.eval(n)
	if err != nil {
		return nil, normalizeEvalError(err)
	}
	if v == nil {
		return IntVal(0), nil
	}
	return v, nil
}

func normalizeEvalError(err error) error {
	if fe, ok := err.(*FormulaError); ok {
		return fe
	}
	return NewFormulaError(KindEvaluation, err.Error())
}

// eval returns nil for an empty cell
func (e *Evaluator) eval(n Node) (CellValue, error) {
	switch v := n.(type) {
	case *LiteralNode:
		return v.Value, nil

	case *CellRefNode:
		return e.resolve(v.Ref)

	case *UnaryOpNode:
		operand, err := e.eval(v.Operand)
		if err != nil {
			return nil, err
		}
		return applyUnary(v.Op, orZero(operand))

	case *BinaryOpNode:
		left, err := e.eval(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(v.Right)
		if err != nil {
			return nil, err
		}
		return applyBinary(v.Op, orZero(left), orZero(right))

	case *FunctionCallNode:
		args := make([]CellValue, len(v.Args))
		for i, arg := range v.Args {
			value, err := e.eval(arg)
			if err != nil {
				return nil, err
			}
			args[i] = value
		}
		return e.functions.Call(v.Name, args)
	}

	return nil, NewApplicationError(codes.Internal, fmt.Sprintf("unknown expression node %T", n))
}

// resolve reads a referenced cell. a formula cell yields its cached
// result, and a formula without one is a dependency error.
func (e *Evaluator) resolve(ref CellRef) (CellValue, error) {
	if e.source == nil {
		return nil, NewApplicationError(codes.Internal, fmt.Sprintf("cell reference %s reached constant evaluation", ref))
	}
	if f, ok := e.source.Meta(ref).(*MetaFunc); ok {
		if f.Result == nil {
			return nil, ErrDependency
		}
		return f.Result, nil
	}
	return e.source.Value(ref), nil
}

func orZero(v CellValue) CellValue {
	if v == nil {
		return IntVal(0)
	}
	return v
}

func applyUnary(op Operator, v CellValue) (CellValue, error) {
	switch op {
	case OpAdd:
		return v.ToNumeric(), nil
	case OpSubtract:
		return Negate(v.ToNumeric()), nil
	case OpNot:
		return BoolVal(!v.ToBool()), nil
	}
	return nil, NewFormulaError(KindEvaluation, fmt.Sprintf("%s is not a prefix operator", op))
}

func applyBinary(op Operator, left, right CellValue) (CellValue, error) {
	switch op {
	case OpAdd:
		return Plus(left.ToNumeric(), right.ToNumeric()), nil
	case OpSubtract:
		return Minus(left.ToNumeric(), right.ToNumeric()), nil
	case OpMultiply:
		return Times(left.ToNumeric(), right.ToNumeric()), nil
	case OpDivide:
		return Divide(left.ToNumeric(), right.ToNumeric()), nil
	case OpPower:
		return Power(left.ToNumeric(), right.ToNumeric()), nil
	case OpAnd:
		return BoolVal(left.ToBool() && right.ToBool()), nil
	case OpOr:
		return BoolVal(left.ToBool() || right.ToBool()), nil
	}
	return nil, NewFormulaError(KindEvaluation, fmt.Sprintf("%s is not a binary operator", op))
}
