// Package program lowers expression trees into postfix programs and splits
// them into independently executable groups.
package program

import (
	"github.com/thomasrohde/ttbl/pkg/ast"
)

// Program is a flat postfix sequence of operations.
type Program []ast.Operation

// Group is a self-contained slice of a program. Run against an empty stack
// it leaves exactly one value; IndexedSubexpression operations inside it
// refer to strictly earlier groups.
type Group []ast.Operation

// Flatten returns the post-order sequence of the tree's operations (left
// child, right child, node) and the number of operations emitted.
func Flatten(t *ast.Tree) (Program, int) {
	if t == nil || t.Root == ast.NoChild {
		return nil, 0
	}

	type frame struct {
		node     int
		expanded bool
	}

	out := make(Program, 0, t.Len())
	stack := []frame{{node: t.Root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nd := t.Node(f.node)

		if f.expanded {
			out = append(out, nd.Op)
			continue
		}

		stack = append(stack, frame{node: f.node, expanded: true})
		if nd.Right != ast.NoChild {
			stack = append(stack, frame{node: nd.Right})
		}
		if nd.Left != ast.NoChild {
			stack = append(stack, frame{node: nd.Left})
		}
	}
	return out, len(out)
}

// Partition splits a postfix program into groups, one per subexpression
// marker plus one for the whole expression when the program does not already
// end in a marker. The last group always computes the complete expression.
// prog itself is not modified.
func Partition(prog Program) []Group {
	if len(prog) == 0 {
		return nil
	}

	list := make(Program, len(prog), len(prog)+1)
	copy(list, prog)

	var locations []int
	for i, op := range list {
		if op.Kind == ast.KindSubexpr {
			list[i] = ast.IndexedSubexpression(len(locations))
			locations = append(locations, i)
		}
	}

	// Wrap the whole expression in a marker of its own unless one is
	// already there.
	if n := len(locations); n == 0 || locations[n-1] != len(list)-1 {
		locations = append(locations, len(list))
		list = append(list, ast.IndexedSubexpression(len(locations)-1))
	}

	groups := make([]Group, 0, len(locations))
	removed := 0
	for _, loc := range locations {
		loc -= removed
		size := backtrackSize(list, loc)

		grp := make(Group, size)
		copy(grp, list[loc-size:loc])
		groups = append(groups, grp)

		list = append(list[:loc-size], list[loc:]...)
		removed += size
	}
	return groups
}

// backtrackSize returns the length of the shortest run ending just before
// the marker at loc that, executed on its own, yields exactly one value.
//
// For `(p or q) and not {p and q}` the program is
//
//	p q or p q and sub(0) not and
//
// and the run for sub(0) is `p q and`.
func backtrackSize(list Program, loc int) int {
	remaining := 1
	consumed := 0
	for remaining != 0 {
		consumed++
		remaining = remaining - 1 + list[loc-consumed].Arity()
	}
	return consumed
}

// Build flattens t and partitions the result.
func Build(t *ast.Tree) []Group {
	prog, _ := Flatten(t)
	return Partition(prog)
}

// Len returns the total number of operations across groups.
func Len(groups []Group) int {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	return n
}
