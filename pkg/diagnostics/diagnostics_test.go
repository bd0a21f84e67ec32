package diagnostics_test

import (
	"strings"
	"testing"

	"github.com/thomasrohde/ttbl/pkg/ast"
	"github.com/thomasrohde/ttbl/pkg/diagnostics"
)

func TestMakeDiag(t *testing.T) {
	span := &ast.Span{Start: 2, End: 3}
	d := diagnostics.MakeDiag(diagnostics.EParse, "unexpected token", span, "check syntax")

	if d.Code != diagnostics.EParse {
		t.Errorf("got Code = %q, want %q", d.Code, diagnostics.EParse)
	}
	if d.Message != "unexpected token" {
		t.Errorf("got Message = %q, want %q", d.Message, "unexpected token")
	}
}

func TestAtToken(t *testing.T) {
	d := diagnostics.AtToken(diagnostics.EParse, "&", ast.Span{Start: 4, End: 5}, "")
	if d.Message != `Error at token: "&"` {
		t.Errorf("got Message = %q", d.Message)
	}
	if d.Lexeme != "&" {
		t.Errorf("got Lexeme = %q, want %q", d.Lexeme, "&")
	}
}

func TestFormatDiagnosticPretty(t *testing.T) {
	d := diagnostics.AtToken(diagnostics.ELex, "$", ast.Span{Start: 2, End: 3}, "use & | ! for operators")

	out := diagnostics.FormatDiagnostic(d, true)
	if !strings.Contains(out, "error[E_LEX]") {
		t.Errorf("expected error code in output, got: %s", out)
	}
	if !strings.Contains(out, "col 3") {
		t.Errorf("expected location in output, got: %s", out)
	}
	if !strings.Contains(out, "hint:") {
		t.Errorf("expected hint in output, got: %s", out)
	}
}

func TestFormatDiagnosticJSON(t *testing.T) {
	d := diagnostics.MakeDiag(diagnostics.ELex, "bad token", nil, "")
	out := diagnostics.FormatDiagnostic(d, false)
	if !strings.Contains(out, `"code":"E_LEX"`) {
		t.Errorf("expected JSON code in output, got: %s", out)
	}
	if strings.Contains(out, "span") {
		t.Errorf("nil span should be omitted, got: %s", out)
	}
}

func TestUnderline(t *testing.T) {
	tests := []struct {
		source string
		span   ast.Span
		want   string
	}{
		{"p & & q", ast.Span{Start: 4, End: 5}, "p & & q\n    ^"},
		{"(p & q", ast.Span{Start: 6, End: 6}, "(p & q\n      ^"},
		{"p <=x", ast.Span{Start: 2, End: 4}, "p <=x\n  ^^"},
		{"é $", ast.Span{Start: 3, End: 4}, "é $\n  ^"},
	}
	for _, tt := range tests {
		if got := diagnostics.Underline(tt.source, tt.span); got != tt.want {
			t.Errorf("Underline(%q, %+v) =\n%s\nwant:\n%s", tt.source, tt.span, got, tt.want)
		}
	}
}
