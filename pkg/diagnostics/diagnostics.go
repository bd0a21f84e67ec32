// Package diagnostics defines ttbl diagnostic types for lexical, syntax and
// runtime errors.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/thomasrohde/ttbl/pkg/ast"
)

// Diagnostic code constants.
const (
	ELex     = "E_LEX"
	EParse   = "E_PARSE"
	EProgram = "E_PROGRAM"
	ELimit   = "E_LIMIT"
	EConfig  = "E_CONFIG"
	EIO      = "E_IO"
)

// Diagnostic represents a lexical, syntax, program or runtime diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Lexeme  string    `json:"lexeme,omitempty"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// AtToken creates a Diagnostic pointing at one token.
func AtToken(code, lexeme string, span ast.Span, hint string) Diagnostic {
	d := MakeDiag(code, fmt.Sprintf("Error at token: %q", lexeme), &span, hint)
	d.Lexeme = lexeme
	return d
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	out := fmt.Sprintf("error[%s]: %s", d.Code, d.Message)
	if d.Span != nil {
		out += fmt.Sprintf("\n  --> col %d", d.Span.Start+1)
	}
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}

// Underline returns source followed by a caret line under span. Columns are
// counted in runes so multi-byte input lines up on a terminal.
func Underline(source string, span ast.Span) string {
	if span.Start < 0 || span.Start > len(source) {
		return source
	}
	end := span.End
	if end > len(source) {
		end = len(source)
	}
	pad := utf8.RuneCountInString(source[:span.Start])
	width := utf8.RuneCountInString(source[span.Start:end])
	if width == 0 {
		width = 1
	}
	return source + "\n" + strings.Repeat(" ", pad) + strings.Repeat("^", width)
}
