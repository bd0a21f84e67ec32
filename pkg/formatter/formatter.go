// Package formatter renders partitioned ttbl programs back to infix text,
// producing one label per group.
package formatter

import (
	"fmt"
	"strings"

	"github.com/thomasrohde/ttbl/pkg/ast"
	"github.com/thomasrohde/ttbl/pkg/program"
)

// Notation is the set of symbols used when rendering.
type Notation struct {
	Name   string
	True   string
	False  string
	And    string
	Or     string
	Not    string
	Cndl   string
	BiCndl string
}

var (
	// Symbols is the default notation.
	Symbols = Notation{
		Name:   "symbol",
		True:   "<T>",
		False:  "<F>",
		And:    " & ",
		Or:     " | ",
		Not:    "!",
		Cndl:   " => ",
		BiCndl: " <=> ",
	}

	// Keywords spells operators as words; its output lexes back to the same
	// expression.
	Keywords = Notation{
		Name:   "keyword",
		True:   "true",
		False:  "false",
		And:    " and ",
		Or:     " or ",
		Not:    "not",
		Cndl:   " => ",
		BiCndl: " <=> ",
	}

	Unicode = Notation{
		Name:   "unicode",
		True:   "⊤",
		False:  "⊥",
		And:    " ∧ ",
		Or:     " ∨ ",
		Not:    "¬",
		Cndl:   " → ",
		BiCndl: " ↔ ",
	}
)

// Notations lists the built-in notations by name.
var Notations = map[string]Notation{
	Symbols.Name:  Symbols,
	Keywords.Name: Keywords,
	Unicode.Name:  Unicode,
}

// LookupNotation returns the built-in notation called name.
func LookupNotation(name string) (Notation, error) {
	n, ok := Notations[name]
	if !ok {
		return Notation{}, fmt.Errorf("unknown notation %q (want symbol, keyword or unicode)", name)
	}
	return n, nil
}

func (n Notation) symbol(op ast.Operator) string {
	switch op {
	case ast.OpAnd:
		return n.And
	case ast.OpOr:
		return n.Or
	case ast.OpNot:
		return n.Not
	case ast.OpCndl:
		return n.Cndl
	case ast.OpBiCndl:
		return n.BiCndl
	}
	return ""
}

// Render returns one label per group using the default notation.
func Render(groups []program.Group, variables []string) []string {
	return RenderWith(groups, variables, Symbols)
}

// RenderWith returns one label per group. Binary operations are fully
// parenthesised and unary ones wrap their operand, so labels never depend on
// precedence.
func RenderWith(groups []program.Group, variables []string, n Notation) []string {
	result := make([]string, 0, len(groups))
	var stack []string

	pop := func() string {
		if len(stack) == 0 {
			panic(fmt.Sprintf("formatter: operand not found in group %d", len(result)))
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return top
	}

	for _, grp := range groups {
		stack = stack[:0]

		for _, op := range grp {
			switch op.Kind {
			case ast.KindLiteral:
				if op.Value {
					stack = append(stack, n.True)
				} else {
					stack = append(stack, n.False)
				}
			case ast.KindVariable:
				stack = append(stack, variables[op.Index])
			case ast.KindIndexedSubexpr:
				stack = append(stack, result[op.Index])
			case ast.KindBinary:
				right := pop()
				left := pop()
				stack = append(stack, "("+left+n.symbol(op.Op)+right+")")
			case ast.KindUnary:
				operand := pop()
				stack = append(stack, n.symbol(op.Op)+"("+operand+")")
			}
		}

		if len(stack) != 1 {
			panic(fmt.Sprintf("formatter: group %d left %d values", len(result), len(stack)))
		}
		result = append(result, stack[0])
	}
	return result
}

// Listing returns a numbered, one-per-line listing of labels, marking the
// whole-expression group.
func Listing(labels []string) string {
	var b strings.Builder
	for i, l := range labels {
		if i == len(labels)-1 {
			fmt.Fprintf(&b, "  = %s\n", l)
		} else {
			fmt.Fprintf(&b, "  %d %s\n", i, l)
		}
	}
	return b.String()
}
