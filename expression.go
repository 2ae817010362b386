package gridcalc

import (
	"strings"
)

// Node is an element of a parsed formula tree. the printer output of any
// tree parses back to an equal tree.
type Node interface {
	ToFormula() string
}

// LiteralNode is a constant value
type LiteralNode struct {
	Value CellValue
}

// CellRefNode reads one cell. structural edits rewrite Ref in place.
type CellRefNode struct {
	Ref CellRef
}

// UnaryOpNode applies a prefix operator (+, -, NOT)
type UnaryOpNode struct {
	Op      Operator
	Operand Node
}

// BinaryOpNode applies an infix operator
type BinaryOpNode struct {
	Left  Node
	Op    Operator
	Right Node
}

// FunctionCallNode calls a builtin. ranges are already expanded into
// individual CellRefNode arguments.
type FunctionCallNode struct {
	Name string
	Args []Node
}

func (n *LiteralNode) ToFormula() string {
	switch v := n.Value.(type) {
	case BoolVal:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case nil:
		return "0"
	}
	return n.Value.String()
}

func (n *CellRefNode) ToFormula() string {
	return n.Ref.String()
}

func (n *UnaryOpNode) ToFormula() string {
	operand := n.Operand.ToFormula()
	if needsParens(n.Operand) {
		operand = "(" + operand + ")"
	}
	if n.Op == OpNot {
		return "NOT " + operand
	}
	return n.Op.String() + operand
}

func (n *BinaryOpNode) ToFormula() string {
	prec := binaryPrecedence[n.Op]

	left := n.Left.ToFormula()
	if lb, ok := n.Left.(*BinaryOpNode); ok && binaryPrecedence[lb.Op] < prec {
		left = "(" + left + ")"
	}

	// equal precedence on the right needs parentheses to stay
	// left-associative
	right := n.Right.ToFormula()
	if rb, ok := n.Right.(*BinaryOpNode); ok && binaryPrecedence[rb.Op] <= prec {
		right = "(" + right + ")"
	}

	return left + " " + n.Op.String() + " " + right
}

func (n *FunctionCallNode) ToFormula() string {
	args := make([]string, len(n.Args))
	for i, arg := range n.Args {
		args[i] = arg.ToFormula()
	}
	return n.Name + "(" + strings.Join(args, ",") + ")"
}

// needsParens reports whether an operand of a prefix operator must be
// wrapped. prefix operators bind tighter than any binary operator, and a
// negative literal must not merge with a preceding minus.
func needsParens(n Node) bool {
	switch v := n.(type) {
	case *BinaryOpNode:
		return true
	case *LiteralNode:
		return strings.HasPrefix(v.ToFormula(), "-")
	}
	return false
}

// ToFormula renders a tree as formula text without the leading '='
func ToFormula(n Node) string {
	if n == nil {
		return ""
	}
	return n.ToFormula()
}

// Walk visits n and its descendants depth-first, left to right. returning
// false from fn skips the children of that node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch v := n.(type) {
	case *UnaryOpNode:
		Walk(v.Operand, fn)
	case *BinaryOpNode:
		Walk(v.Left, fn)
		Walk(v.Right, fn)
	case *FunctionCallNode:
		for _, arg := range v.Args {
			Walk(arg, fn)
		}
	}
}

// CellRefs collects every reference node of a tree in visiting order
func CellRefs(n Node) []*CellRefNode {
	var refs []*CellRefNode
	Walk(n, func(node Node) bool {
		if ref, ok := node.(*CellRefNode); ok {
			refs = append(refs, ref)
		}
		return true
	})
	return refs
}

// containsCellRef reports whether any node of the tree reads a cell
func containsCellRef(n Node) bool {
	found := false
	Walk(n, func(node Node) bool {
		if _, ok := node.(*CellRefNode); ok {
			found = true
		}
		return !found
	})
	return found
}

// Clone deep-copies a tree so the copy can be rewritten independently
func Clone(n Node) Node {
	switch v := n.(type) {
	case *LiteralNode:
		return &LiteralNode{Value: v.Value}
	case *CellRefNode:
		return &CellRefNode{Ref: v.Ref}
	case *UnaryOpNode:
		return &UnaryOpNode{Op: v.Op, Operand: Clone(v.Operand)}
	case *BinaryOpNode:
		return &BinaryOpNode{Left: Clone(v.Left), Op: v.Op, Right: Clone(v.Right)}
	case *FunctionCallNode:
		args := make([]Node, len(v.Args))
		for i, arg := range v.Args {
			args[i] = Clone(arg)
		}
		return &FunctionCallNode{Name: v.Name, Args: args}
	}
	return n
}
