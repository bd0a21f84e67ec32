// Package evaluator executes partitioned ttbl programs as boolean stack
// machines.
package evaluator

import (
	"fmt"

	"github.com/thomasrohde/ttbl/pkg/ast"
	"github.com/thomasrohde/ttbl/pkg/program"
)

// InvariantError reports a malformed program reaching the evaluator. It is
// raised with panic: compiled programs never trigger it.
type InvariantError struct {
	Group   int
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("group %d: %s", e.Group, e.Message)
}

// Machine evaluates groups with a reusable operand stack. A Machine must
// not be shared between goroutines.
type Machine struct {
	stack []bool
}

// NewMachine returns a Machine with room for depth operands.
func NewMachine(depth int) *Machine {
	return &Machine{stack: make([]bool, 0, depth)}
}

// Evaluate runs every group against one variable assignment. values is
// indexed by variable table position; out receives one result per group and
// must be at least len(groups) long.
func (m *Machine) Evaluate(groups []program.Group, values []bool, out []bool) {
	for gi, grp := range groups {
		m.stack = m.stack[:0]

		for _, op := range grp {
			switch op.Kind {
			case ast.KindLiteral:
				m.stack = append(m.stack, op.Value)
			case ast.KindVariable:
				m.stack = append(m.stack, values[op.Index])
			case ast.KindIndexedSubexpr:
				if op.Index >= gi {
					panic(&InvariantError{Group: gi, Message: fmt.Sprintf("reference to group %d is not backward", op.Index)})
				}
				m.stack = append(m.stack, out[op.Index])
			case ast.KindBinary:
				right := m.pop(gi)
				left := m.pop(gi)
				m.stack = append(m.stack, applyBinary(gi, op.Op, left, right))
			case ast.KindUnary:
				operand := m.pop(gi)
				m.stack = append(m.stack, applyUnary(gi, op.Op, operand))
			default:
				panic(&InvariantError{Group: gi, Message: "unexpected " + op.Kind.String()})
			}
		}

		if len(m.stack) != 1 {
			panic(&InvariantError{Group: gi, Message: fmt.Sprintf("%d values left on stack", len(m.stack))})
		}
		out[gi] = m.stack[0]
	}
}

func (m *Machine) pop(group int) bool {
	if len(m.stack) == 0 {
		panic(&InvariantError{Group: group, Message: "operand not found"})
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v
}

func applyBinary(group int, op ast.Operator, left, right bool) bool {
	switch op {
	case ast.OpAnd:
		return left && right
	case ast.OpOr:
		return left || right
	case ast.OpCndl:
		return !left || right
	case ast.OpBiCndl:
		return left == right
	}
	panic(&InvariantError{Group: group, Message: "unhandled binary operator " + op.String()})
}

func applyUnary(group int, op ast.Operator, operand bool) bool {
	if op == ast.OpNot {
		return !operand
	}
	panic(&InvariantError{Group: group, Message: "unhandled unary operator " + op.String()})
}

// Evaluate runs groups once with a fresh Machine.
func Evaluate(groups []program.Group, values []bool, out []bool) {
	var m Machine
	m.Evaluate(groups, values, out)
}

// Result returns the value of the whole expression for one assignment.
func Result(groups []program.Group, values []bool) bool {
	if len(groups) == 0 {
		panic(&InvariantError{Message: "empty program"})
	}
	out := make([]bool, len(groups))
	Evaluate(groups, values, out)
	return out[len(out)-1]
}

// StackDepth returns the deepest operand stack any group reaches, suitable
// for NewMachine.
func StackDepth(groups []program.Group) int {
	deepest := 0
	for _, grp := range groups {
		depth := 0
		for _, op := range grp {
			depth = depth - op.Arity() + 1
			if depth > deepest {
				deepest = depth
			}
		}
	}
	return deepest
}
