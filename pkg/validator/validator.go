// Package validator checks partitioned ttbl programs before execution.
//
// A well-formed groups list runs on a stack machine without underflow,
// leaves exactly one value per group and only refers to earlier groups.
// Findings indicate a compiler defect rather than bad user input.
package validator

import (
	"fmt"

	"github.com/thomasrohde/ttbl/pkg/ast"
	"github.com/thomasrohde/ttbl/pkg/diagnostics"
	"github.com/thomasrohde/ttbl/pkg/program"
)

type validator struct {
	numVars int
	diags   []diagnostics.Diagnostic
}

func (v *validator) addError(group int, format string, args ...any) {
	msg := fmt.Sprintf("group %d: ", group) + fmt.Sprintf(format, args...)
	v.diags = append(v.diags, diagnostics.MakeDiag(diagnostics.EProgram, msg, nil, ""))
}

// Validate checks groups against a variable table of numVars entries and
// returns one diagnostic per problem found.
func Validate(groups []program.Group, numVars int) []diagnostics.Diagnostic {
	v := &validator{numVars: numVars}

	if len(groups) == 0 {
		v.diags = append(v.diags, diagnostics.MakeDiag(diagnostics.EProgram, "program has no groups", nil, ""))
		return v.diags
	}

	for gi, grp := range groups {
		v.validateGroup(gi, grp)
	}
	return v.diags
}

func (v *validator) validateGroup(gi int, grp program.Group) {
	depth := 0
	for pos, op := range grp {
		switch op.Kind {
		case ast.KindVariable:
			if op.Index < 0 || op.Index >= v.numVars {
				v.addError(gi, "variable index %d out of range at %d", op.Index, pos)
			}
		case ast.KindIndexedSubexpr:
			if op.Index < 0 || op.Index >= gi {
				v.addError(gi, "reference to group %d at %d is not backward", op.Index, pos)
			}
		case ast.KindSubexpr:
			v.addError(gi, "unindexed subexpression marker at %d", pos)
		case ast.KindBinary:
			if op.Op.Unary() {
				v.addError(gi, "unary operator %s used as binary at %d", op.Op, pos)
			}
		case ast.KindUnary:
			if !op.Op.Unary() {
				v.addError(gi, "binary operator %s used as unary at %d", op.Op, pos)
			}
		}

		if depth < op.Arity() {
			v.addError(gi, "stack underflow at %d (%s)", pos, op)
			return
		}
		depth = depth - op.Arity() + 1
	}

	if depth != 1 {
		v.addError(gi, "%d values left on stack", depth)
	}
}
