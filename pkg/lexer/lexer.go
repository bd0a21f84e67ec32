// Package lexer implements the ttbl expression tokenizer.
package lexer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/thomasrohde/ttbl/pkg/ast"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	TokOperator TokenType = iota
	TokVariable
	TokLiteral

	// Punctuation
	TokLParen // (
	TokRParen // )
	TokLBrace // {
	TokRBrace // }

	// Special
	TokError
	TokEOF
)

func (t TokenType) String() string {
	switch t {
	case TokOperator:
		return "operator"
	case TokVariable:
		return "variable"
	case TokLiteral:
		return "literal"
	case TokLParen:
		return "'('"
	case TokRParen:
		return "')'"
	case TokLBrace:
		return "'{'"
	case TokRBrace:
		return "'}'"
	case TokError:
		return "error"
	case TokEOF:
		return "end of input"
	default:
		return fmt.Sprintf("token(%d)", int(t))
	}
}

// EOFLexeme is the lexeme carried by the end-of-input token.
const EOFLexeme = "<EOF>"

// Token represents a single lexer token. Op is meaningful for TokOperator,
// Literal for TokLiteral.
type Token struct {
	Type    TokenType
	Value   string
	Op      ast.Operator
	Literal bool
	Span    ast.Span
}

// keywords are matched case-sensitively.
var keywords = map[string]ast.Operator{
	"and": ast.OpAnd,
	"or":  ast.OpOr,
	"not": ast.OpNot,
}

type scanner struct {
	source string
	start  int
	pos    int
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	return ch
}

func (s *scanner) match(ch byte) bool {
	if s.atEnd() || s.peek() != ch {
		return false
	}
	s.pos++
	return true
}

func (s *scanner) make(typ TokenType) Token {
	return Token{
		Type:  typ,
		Value: s.source[s.start:s.pos],
		Span:  ast.Span{Start: s.start, End: s.pos},
	}
}

func (s *scanner) operator(op ast.Operator) Token {
	tok := s.make(TokOperator)
	tok.Op = op
	return tok
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlphaNumeric(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}

func (s *scanner) scanIdentOrKeyword() Token {
	for !s.atEnd() && isAlphaNumeric(s.peek()) {
		s.advance()
	}

	tok := s.make(TokVariable)
	if op, ok := keywords[tok.Value]; ok {
		tok.Type = TokOperator
		tok.Op = op
		return tok
	}

	switch strings.ToLower(tok.Value) {
	case "true", "t":
		tok.Type = TokLiteral
		tok.Literal = true
	case "false", "f":
		tok.Type = TokLiteral
		tok.Literal = false
	}
	return tok
}

// nextToken scans one token. ok is false when only whitespace remained.
func (s *scanner) nextToken() (tok Token, ok bool) {
	for !s.atEnd() {
		switch s.peek() {
		case ' ', '\t', '\r', '\n':
			s.advance()
			continue
		}
		break
	}
	if s.atEnd() {
		return Token{}, false
	}

	s.start = s.pos
	ch := s.advance()

	switch ch {
	case '&':
		return s.operator(ast.OpAnd), true
	case '|':
		return s.operator(ast.OpOr), true
	case '!', '~':
		return s.operator(ast.OpNot), true
	case '(':
		return s.make(TokLParen), true
	case ')':
		return s.make(TokRParen), true
	case '{':
		return s.make(TokLBrace), true
	case '}':
		return s.make(TokRBrace), true
	case '=':
		if s.match('>') {
			return s.operator(ast.OpCndl), true
		}
		return s.make(TokError), true
	case '<':
		if s.match('=') && s.match('>') {
			return s.operator(ast.OpBiCndl), true
		}
		return s.make(TokError), true
	}

	if isAlpha(ch) {
		return s.scanIdentOrKeyword(), true
	}

	// Report the whole character, not just its first byte.
	s.pos = s.start
	_, size := utf8.DecodeRuneInString(s.source[s.pos:])
	s.pos += size
	return s.make(TokError), true
}

// Tokenize breaks one input line into tokens. The result always ends with a
// TokEOF token. Scanning stops at the first unrecognized or malformed
// character, which is reported as a single TokError token.
func Tokenize(source string) []Token {
	s := &scanner{source: source}
	var tokens []Token

	for {
		tok, ok := s.nextToken()
		if !ok {
			break
		}
		tokens = append(tokens, tok)
		if tok.Type == TokError {
			break
		}
	}

	return append(tokens, Token{
		Type:  TokEOF,
		Value: EOFLexeme,
		Span:  ast.Span{Start: len(source), End: len(source)},
	})
}

// IsEmpty reports whether tokens holds nothing but the EOF token.
func IsEmpty(tokens []Token) bool {
	return len(tokens) == 1 && tokens[0].Type == TokEOF
}
