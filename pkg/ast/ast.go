// Package ast defines the expression tree built by the ttbl parser.
//
// The tree is stored as an arena: nodes live in one slice and refer to their
// children by index, so no node owns another and traversals never need
// recursion.
package ast

import (
	"fmt"
	"strings"
)

// Span represents a byte range within the input line.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Operator identifies a boolean operator.
type Operator int

const (
	OpAnd Operator = iota
	OpNot
	OpOr
	OpCndl   // =>
	OpBiCndl // <=>
)

func (op Operator) String() string {
	switch op {
	case OpAnd:
		return "and"
	case OpNot:
		return "not"
	case OpOr:
		return "or"
	case OpCndl:
		return "cndl"
	case OpBiCndl:
		return "bicndl"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// Precedence returns the binding strength of op (higher binds tighter).
func (op Operator) Precedence() int {
	switch op {
	case OpNot:
		return 6
	case OpAnd:
		return 4
	case OpCndl, OpBiCndl:
		return 3
	case OpOr:
		return 2
	default:
		return 0
	}
}

// Unary reports whether op takes a single operand.
func (op Operator) Unary() bool {
	return op == OpNot
}

// OpKind tags the variant held by an Operation.
type OpKind uint8

const (
	KindBinary OpKind = iota
	KindUnary
	KindVariable
	KindLiteral
	KindSubexpr
	KindIndexedSubexpr
)

func (k OpKind) String() string {
	switch k {
	case KindBinary:
		return "BinaryOperation"
	case KindUnary:
		return "UnaryOperation"
	case KindVariable:
		return "VariableDeref"
	case KindLiteral:
		return "Literal"
	case KindSubexpr:
		return "Subexpression"
	case KindIndexedSubexpr:
		return "IndexedSubexpression"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Operation is the operation carried by a tree node and, after flattening,
// one instruction of a postfix program.
//
// Op is set for binary and unary operations, Index for variable
// dereferences (variable table index) and indexed subexpressions (group
// index), Value for literals.
type Operation struct {
	Kind  OpKind
	Op    Operator
	Index int
	Value bool
}

func Binary(op Operator) Operation         { return Operation{Kind: KindBinary, Op: op} }
func Unary(op Operator) Operation          { return Operation{Kind: KindUnary, Op: op} }
func VariableDeref(index int) Operation    { return Operation{Kind: KindVariable, Index: index} }
func Literal(value bool) Operation         { return Operation{Kind: KindLiteral, Value: value} }
func Subexpression() Operation             { return Operation{Kind: KindSubexpr} }
func IndexedSubexpression(k int) Operation { return Operation{Kind: KindIndexedSubexpr, Index: k} }

// Arity returns the number of stack operands the operation consumes.
func (o Operation) Arity() int {
	switch o.Kind {
	case KindBinary:
		return 2
	case KindUnary:
		return 1
	default:
		return 0
	}
}

func (o Operation) String() string {
	switch o.Kind {
	case KindBinary, KindUnary:
		return o.Op.String()
	case KindVariable:
		return fmt.Sprintf("var(%d)", o.Index)
	case KindLiteral:
		if o.Value {
			return "lit(T)"
		}
		return "lit(F)"
	case KindSubexpr:
		return "sub"
	case KindIndexedSubexpr:
		return fmt.Sprintf("sub(%d)", o.Index)
	default:
		return o.Kind.String()
	}
}

// NoChild marks an absent child link.
const NoChild = -1

// Node is one arena entry.
type Node struct {
	Op    Operation
	Left  int
	Right int
}

// Tree is an arena of nodes with a designated root.
type Tree struct {
	Nodes []Node
	Root  int
}

// NewTree returns an empty tree with no root.
func NewTree() *Tree {
	return &Tree{Root: NoChild}
}

// Add appends a node and returns its index.
func (t *Tree) Add(op Operation, left, right int) int {
	t.Nodes = append(t.Nodes, Node{Op: op, Left: left, Right: right})
	return len(t.Nodes) - 1
}

// Leaf appends a childless node and returns its index.
func (t *Tree) Leaf(op Operation) int {
	return t.Add(op, NoChild, NoChild)
}

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int {
	return len(t.Nodes)
}

// Node returns the node at index i.
func (t *Tree) Node(i int) Node {
	return t.Nodes[i]
}

// Size returns the number of nodes reachable from the root. For trees built
// by the parser this equals Len.
func (t *Tree) Size() int {
	if t.Root == NoChild {
		return 0
	}
	n := 0
	stack := []int{t.Root}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n++
		nd := t.Nodes[i]
		if nd.Left != NoChild {
			stack = append(stack, nd.Left)
		}
		if nd.Right != NoChild {
			stack = append(stack, nd.Right)
		}
	}
	return n
}

func padding(depth int) string {
	if depth == 0 {
		return ""
	}
	return strings.Repeat("│   ", depth-1) + "└── "
}

// Dump returns an indented listing of the tree, one node per line. Variable
// names are resolved through vars when it is long enough.
func (t *Tree) Dump(vars []string) string {
	if t.Root == NoChild {
		return ""
	}
	type frame struct{ node, depth int }

	var b strings.Builder
	stack := []frame{{t.Root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nd := t.Nodes[f.node]

		label := strings.ToUpper(nd.Op.String())
		if nd.Op.Kind == KindVariable && nd.Op.Index < len(vars) {
			label = "VAR(" + vars[nd.Op.Index] + ")"
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(padding(f.depth))
		b.WriteString(label)

		// Right is pushed first so Left prints first.
		if nd.Right != NoChild {
			stack = append(stack, frame{nd.Right, f.depth + 1})
		}
		if nd.Left != NoChild {
			stack = append(stack, frame{nd.Left, f.depth + 1})
		}
	}
	return b.String()
}
