// Package parser compiles ttbl token streams into expression trees.
//
// Parsing uses two explicit stacks: an operand stack of finished subtrees
// and a pending stack of operators and open-bracket markers. Operators are
// reduced when an operator of lower precedence arrives or when a closing
// bracket (or the end of input) is reached.
package parser

import (
	"github.com/thomasrohde/ttbl/pkg/ast"
	"github.com/thomasrohde/ttbl/pkg/lexer"
)

// Compiled is the outcome of compiling one token stream. Exactly one of
// ErrorToken and Tree is non-nil.
type Compiled struct {
	ErrorToken *lexer.Token
	Tree       *ast.Tree
	Variables  []string
}

// OK reports whether compilation produced a tree.
func (c *Compiled) OK() bool {
	return c.ErrorToken == nil && c.Tree != nil
}

type pendingKind uint8

const (
	pendingOperator pendingKind = iota
	pendingParen
	pendingBrace
)

type pending struct {
	kind pendingKind
	op   ast.Operator
}

type parser struct {
	tree     *ast.Tree
	operands []int
	pending  []pending

	variables []string
	interned  map[string]int

	// expectOperand is true where the grammar needs a variable, literal,
	// opening bracket or prefix NOT next.
	expectOperand bool
}

// Parse tokenizes source and compiles it.
func Parse(source string) *Compiled {
	return Compile(lexer.Tokenize(source))
}

// Compile builds an expression tree from tokens. The token stream must end
// with a TokEOF token, as produced by lexer.Tokenize.
func Compile(tokens []lexer.Token) *Compiled {
	p := &parser{
		tree:          ast.NewTree(),
		interned:      make(map[string]int),
		expectOperand: true,
	}

	result := &Compiled{}
	for i := range tokens {
		tok := tokens[i]
		if !p.step(&tok) {
			result.ErrorToken = &tok
			result.Variables = p.variables
			return result
		}
		if tok.Type == lexer.TokEOF {
			break
		}
	}

	result.Variables = p.variables
	if len(p.pending) != 0 || len(p.operands) != 1 {
		result.ErrorToken = &lexer.Token{
			Type:  lexer.TokEOF,
			Value: lexer.EOFLexeme,
			Span:  endSpan(tokens),
		}
		return result
	}

	p.tree.Root = p.operands[0]
	result.Tree = p.tree
	return result
}

func endSpan(tokens []lexer.Token) ast.Span {
	if len(tokens) == 0 {
		return ast.Span{}
	}
	return tokens[len(tokens)-1].Span
}

// step consumes one token; false means tok is the compilation error.
func (p *parser) step(tok *lexer.Token) bool {
	switch tok.Type {
	case lexer.TokError:
		return false

	case lexer.TokLParen, lexer.TokLBrace:
		if !p.expectOperand {
			return false
		}
		kind := pendingParen
		if tok.Type == lexer.TokLBrace {
			kind = pendingBrace
		}
		p.pending = append(p.pending, pending{kind: kind})
		return true

	case lexer.TokVariable:
		if !p.expectOperand {
			return false
		}
		p.push(ast.VariableDeref(p.intern(tok.Value)))
		p.expectOperand = false
		return true

	case lexer.TokLiteral:
		if !p.expectOperand {
			return false
		}
		p.push(ast.Literal(tok.Literal))
		p.expectOperand = false
		return true

	case lexer.TokOperator:
		// Prefix operators sit in operand position, infix ones after an operand.
		if tok.Op.Unary() != p.expectOperand {
			return false
		}
		if !p.reduceAbove(tok.Op) {
			return false
		}
		p.pending = append(p.pending, pending{kind: pendingOperator, op: tok.Op})
		p.expectOperand = true
		return true

	case lexer.TokRParen, lexer.TokRBrace, lexer.TokEOF:
		if p.expectOperand {
			return false
		}
		return p.close(tok.Type)
	}
	return false
}

func (p *parser) push(op ast.Operation) {
	p.operands = append(p.operands, p.tree.Leaf(op))
}

func (p *parser) intern(name string) int {
	if idx, ok := p.interned[name]; ok {
		return idx
	}
	idx := len(p.variables)
	p.variables = append(p.variables, name)
	p.interned[name] = idx
	return idx
}

// reduceAbove reduces pending operators that bind strictly tighter than op.
// Equal precedence is left pending, so same-level chains nest to the right.
func (p *parser) reduceAbove(op ast.Operator) bool {
	for len(p.pending) > 0 {
		top := p.pending[len(p.pending)-1]
		if top.kind != pendingOperator || top.op.Precedence() <= op.Precedence() {
			return true
		}
		if !p.reduce(top.op) {
			return false
		}
		p.pending = p.pending[:len(p.pending)-1]
	}
	return true
}

// reduce pops the operands of op and pushes the resulting node.
func (p *parser) reduce(op ast.Operator) bool {
	if op.Unary() {
		if len(p.operands) < 1 {
			return false
		}
		operand := p.pop()
		p.operands = append(p.operands, p.tree.Add(ast.Unary(op), operand, ast.NoChild))
		return true
	}

	if len(p.operands) < 2 {
		return false
	}
	right := p.pop()
	left := p.pop()
	p.operands = append(p.operands, p.tree.Add(ast.Binary(op), left, right))
	return true
}

func (p *parser) pop() int {
	top := p.operands[len(p.operands)-1]
	p.operands = p.operands[:len(p.operands)-1]
	return top
}

// close reduces pending operators down to the bracket matching closer. At
// end of input the pending stack must drain completely.
func (p *parser) close(closer lexer.TokenType) bool {
	for len(p.pending) > 0 {
		top := p.pending[len(p.pending)-1]

		switch {
		case top.kind == pendingOperator:
			if !p.reduce(top.op) {
				return false
			}
			p.pending = p.pending[:len(p.pending)-1]

		case top.kind == pendingParen && closer == lexer.TokRParen:
			p.pending = p.pending[:len(p.pending)-1]
			return true

		case top.kind == pendingBrace && closer == lexer.TokRBrace:
			p.pending = p.pending[:len(p.pending)-1]
			p.wrapSubexpression()
			return true

		default:
			// Mismatched bracket kind, or an open bracket left at end of input.
			return false
		}
	}
	return closer == lexer.TokEOF
}

// wrapSubexpression marks the top operand as a named subexpression unless it
// already is one.
func (p *parser) wrapSubexpression() {
	if len(p.operands) == 0 {
		return
	}
	top := p.operands[len(p.operands)-1]
	if p.tree.Node(top).Op.Kind == ast.KindSubexpr {
		return
	}
	p.operands[len(p.operands)-1] = p.tree.Add(ast.Subexpression(), top, ast.NoChild)
}
