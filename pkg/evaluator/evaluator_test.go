package evaluator_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/thomasrohde/ttbl/pkg/ast"
	"github.com/thomasrohde/ttbl/pkg/evaluator"
	"github.com/thomasrohde/ttbl/pkg/parser"
	"github.com/thomasrohde/ttbl/pkg/program"
)

// helper: compile source into groups
func mustGroups(t *testing.T, source string) ([]program.Group, []string) {
	t.Helper()
	c := parser.Parse(source)
	if !c.OK() {
		t.Fatalf("compile %q: error at %q", source, c.ErrorToken.Value)
	}
	return program.Build(c.Tree), c.Variables
}

func TestResult(t *testing.T) {
	tests := []struct {
		source string
		values []bool
		want   bool
	}{
		{"p & q", []bool{true, false}, false},
		{"p & q", []bool{true, true}, true},
		{"!(p | q)", []bool{false, false}, true},
		{"!(p | q)", []bool{true, false}, false},
		{"p => q", []bool{true, false}, false},
		{"p => q", []bool{false, false}, true},
		{"p => q", []bool{false, true}, true},
		{"p <=> q", []bool{true, true}, true},
		{"p <=> q", []bool{false, false}, true},
		{"p <=> q", []bool{false, true}, false},
		{"T", nil, true},
		{"f | !t", nil, false},
		{"p | T", []bool{false}, true},
		{"~p and not p", []bool{false}, true},
		{"~p and p", []bool{false}, false},
		{"~p and p", []bool{true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			groups, _ := mustGroups(t, tt.source)
			if got := evaluator.Result(groups, tt.values); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGroupResults(t *testing.T) {
	groups, vars := mustGroups(t, "(p or q) and not {p and q}")
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if !reflect.DeepEqual(vars, []string{"p", "q"}) {
		t.Fatalf("got variables %v", vars)
	}

	out := make([]bool, len(groups))
	evaluator.Evaluate(groups, []bool{true, false}, out)
	if want := []bool{false, true}; !reflect.DeepEqual(out, want) {
		t.Errorf("got %v, want %v", out, want)
	}

	evaluator.Evaluate(groups, []bool{true, true}, out)
	if want := []bool{true, false}; !reflect.DeepEqual(out, want) {
		t.Errorf("got %v, want %v", out, want)
	}
}

func TestMachineReuse(t *testing.T) {
	groups, _ := mustGroups(t, "{a & b} | {a => c} | !{b <=> c}")
	m := evaluator.NewMachine(evaluator.StackDepth(groups))
	out := make([]bool, len(groups))
	fresh := make([]bool, len(groups))

	for row := 0; row < 8; row++ {
		values := []bool{row&4 != 0, row&2 != 0, row&1 != 0}
		m.Evaluate(groups, values, out)
		evaluator.Evaluate(groups, values, fresh)
		if !reflect.DeepEqual(out, fresh) {
			t.Errorf("row %d: reused machine got %v, fresh got %v", row, out, fresh)
		}
	}
}

// Braced and unbraced forms must agree on the whole-expression value.
func TestBracesDoNotChangeResult(t *testing.T) {
	plain, _ := mustGroups(t, "(a | b) & !(a & c) => b")
	braced, _ := mustGroups(t, "{{a | b} & !{a & c}} => {b}")

	for row := 0; row < 8; row++ {
		values := []bool{row&4 != 0, row&2 != 0, row&1 != 0}
		if evaluator.Result(plain, values) != evaluator.Result(braced, values) {
			t.Errorf("row %d: results differ", row)
		}
	}
}

func TestStackDepth(t *testing.T) {
	tests := []struct {
		source string
		want   int
	}{
		{"p", 1},
		{"p & q", 2},
		{"p & (q & r)", 3},
		{"(p & q) & r", 2},
		{"{p & q} | r", 2},
	}
	for _, tt := range tests {
		groups, _ := mustGroups(t, tt.source)
		if got := evaluator.StackDepth(groups); got != tt.want {
			t.Errorf("StackDepth(%q) = %d, want %d", tt.source, got, tt.want)
		}
	}
}

func expectInvariantPanic(t *testing.T, groups []program.Group, values []bool) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic")
		}
		err, ok := r.(error)
		var inv *evaluator.InvariantError
		if !ok || !errors.As(err, &inv) {
			t.Fatalf("expected *InvariantError, got %T: %v", r, r)
		}
	}()
	evaluator.Evaluate(groups, values, make([]bool, len(groups)))
}

func TestInvariantViolations(t *testing.T) {
	v0 := ast.VariableDeref(0)

	t.Run("residual values", func(t *testing.T) {
		expectInvariantPanic(t, []program.Group{{v0, v0}}, []bool{true})
	})
	t.Run("empty group", func(t *testing.T) {
		expectInvariantPanic(t, []program.Group{{}}, nil)
	})
	t.Run("underflow", func(t *testing.T) {
		expectInvariantPanic(t, []program.Group{{v0, ast.Binary(ast.OpAnd)}}, []bool{true})
	})
	t.Run("forward reference", func(t *testing.T) {
		expectInvariantPanic(t, []program.Group{{ast.IndexedSubexpression(0)}}, nil)
	})
	t.Run("bare marker", func(t *testing.T) {
		expectInvariantPanic(t, []program.Group{{v0, ast.Subexpression()}}, []bool{true})
	})
}
