package validator_test

import (
	"strings"
	"testing"

	"github.com/thomasrohde/ttbl/pkg/ast"
	"github.com/thomasrohde/ttbl/pkg/diagnostics"
	"github.com/thomasrohde/ttbl/pkg/parser"
	"github.com/thomasrohde/ttbl/pkg/program"
	"github.com/thomasrohde/ttbl/pkg/validator"
)

// helper compiles source and validates the resulting groups.
// It fatals on syntax errors so test cases focus on validator behavior.
func mustCompileAndValidate(t *testing.T, source string) []diagnostics.Diagnostic {
	t.Helper()
	c := parser.Parse(source)
	if !c.OK() {
		t.Fatalf("unexpected syntax error at %q", c.ErrorToken.Value)
	}
	return validator.Validate(program.Build(c.Tree), len(c.Variables))
}

// assertNoDiags asserts zero diagnostics were produced.
func assertNoDiags(t *testing.T, diags []diagnostics.Diagnostic) {
	t.Helper()
	if len(diags) != 0 {
		var msgs []string
		for _, d := range diags {
			msgs = append(msgs, d.Code+": "+d.Message)
		}
		t.Fatalf("expected no diagnostics, got %d: %s", len(diags), strings.Join(msgs, "; "))
	}
}

// assertDiag asserts exactly one E_PROGRAM diagnostic mentioning substr.
func assertDiag(t *testing.T, diags []diagnostics.Diagnostic, substr string) {
	t.Helper()
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d: %v", len(diags), diags)
	}
	if diags[0].Code != diagnostics.EProgram {
		t.Errorf("got code %q, want %q", diags[0].Code, diagnostics.EProgram)
	}
	if !strings.Contains(diags[0].Message, substr) {
		t.Errorf("message %q does not mention %q", diags[0].Message, substr)
	}
}

func TestCompiledProgramsAreValid(t *testing.T) {
	sources := []string{
		"p",
		"T",
		"(p or q) and not {p and q}",
		"!({p0 | {p1}} & {p2})",
		"{a} => {b} <=> {a & b}",
		"{{{x}}} | {y & T}",
	}
	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			assertNoDiags(t, mustCompileAndValidate(t, src))
		})
	}
}

func TestInvalidPrograms(t *testing.T) {
	v0 := ast.VariableDeref(0)
	and := ast.Binary(ast.OpAnd)

	tests := []struct {
		name    string
		groups  []program.Group
		numVars int
		substr  string
	}{
		{"no groups", nil, 0, "no groups"},
		{"underflow", []program.Group{{v0, and}}, 1, "underflow"},
		{"residual", []program.Group{{v0, v0}}, 1, "2 values left"},
		{"empty group", []program.Group{{}}, 0, "0 values left"},
		{"variable range", []program.Group{{ast.VariableDeref(3)}}, 1, "out of range"},
		{"self reference", []program.Group{{v0}, {ast.IndexedSubexpression(1)}}, 1, "not backward"},
		{"bare marker", []program.Group{{v0}, {ast.Subexpression()}}, 1, "unindexed"},
		{"unary as binary", []program.Group{{v0, v0, ast.Binary(ast.OpNot)}}, 1, "used as binary"},
		{"binary as unary", []program.Group{{v0, ast.Unary(ast.OpOr)}}, 1, "used as unary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDiag(t, validator.Validate(tt.groups, tt.numVars), tt.substr)
		})
	}
}

func TestReportsEveryGroup(t *testing.T) {
	v0 := ast.VariableDeref(0)
	groups := []program.Group{{v0, v0}, {v0, ast.Binary(ast.OpAnd)}}
	diags := validator.Validate(groups, 1)
	if len(diags) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(diags))
	}
	if !strings.HasPrefix(diags[0].Message, "group 0:") || !strings.HasPrefix(diags[1].Message, "group 1:") {
		t.Errorf("unexpected messages: %q, %q", diags[0].Message, diags[1].Message)
	}
}
