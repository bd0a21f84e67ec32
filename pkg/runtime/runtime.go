// Package runtime provides the top-level ttbl orchestrator: it compiles
// expressions, caches them and builds their truth tables.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/thomasrohde/ttbl/pkg/ast"
	"github.com/thomasrohde/ttbl/pkg/cache"
	"github.com/thomasrohde/ttbl/pkg/config"
	"github.com/thomasrohde/ttbl/pkg/diagnostics"
	"github.com/thomasrohde/ttbl/pkg/formatter"
	"github.com/thomasrohde/ttbl/pkg/lexer"
	"github.com/thomasrohde/ttbl/pkg/parser"
	"github.com/thomasrohde/ttbl/pkg/program"
	"github.com/thomasrohde/ttbl/pkg/truthtable"
	"github.com/thomasrohde/ttbl/pkg/validator"
)

// ErrEmptyInput is returned for input holding nothing but blanks.
var ErrEmptyInput = errors.New("empty input")

const (
	hintLex      = "operators are & | ! ~ => <=> and the words and, or, not"
	hintParse    = "expected a variable, literal or bracket here"
	hintEOF      = "the expression is incomplete"
	hintOperator = "two operands need an operator between them"
)

// Expression is a compiled expression. It is immutable and may be shared.
type Expression struct {
	Source    string
	Variables []string
	Tree      *ast.Tree
	Groups    []program.Group
	Labels    []string
}

// Label returns the rendering of the whole expression.
func (e *Expression) Label() string {
	return e.Labels[len(e.Labels)-1]
}

// Runtime wires together the ttbl components.
type Runtime struct {
	logger   *slog.Logger
	limits   truthtable.Limits
	workers  int
	order    truthtable.Order
	notation formatter.Notation
	cache    *cache.Cache[*Expression]
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		if l != nil {
			rt.logger = l
		}
	}
}

// WithMaxVariables limits the number of variables in a table.
func WithMaxVariables(n int) Option {
	return func(rt *Runtime) {
		rt.limits.MaxVariables = n
	}
}

// WithWorkers sets the number of goroutines used to build tables.
func WithWorkers(n int) Option {
	return func(rt *Runtime) {
		rt.workers = n
	}
}

// WithOrder sets the row order.
func WithOrder(o truthtable.Order) Option {
	return func(rt *Runtime) {
		rt.order = o
	}
}

// WithNotation sets the notation used for labels.
func WithNotation(n formatter.Notation) Option {
	return func(rt *Runtime) {
		rt.notation = n
	}
}

// WithCacheSize sets the number of compiled expressions kept.
func WithCacheSize(n int) Option {
	return func(rt *Runtime) {
		rt.cache = cache.New[*Expression](n)
	}
}

// WithConfig applies a validated config. Unknown names keep the current
// setting.
func WithConfig(cfg *config.Config) Option {
	return func(rt *Runtime) {
		rt.limits.MaxVariables = cfg.MaxVariables
		rt.workers = cfg.Workers
		if o, err := truthtable.ParseOrder(cfg.Order); err == nil {
			rt.order = o
		}
		if n, err := formatter.LookupNotation(cfg.Notation); err == nil {
			rt.notation = n
		}
		if cfg.CacheSize > 0 {
			rt.cache = cache.New[*Expression](cfg.CacheSize)
		}
	}
}

// New creates a new Runtime with the given options.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		logger:   slog.Default(),
		notation: formatter.Symbols,
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.cache == nil {
		rt.cache = cache.New[*Expression](cache.DefaultCapacity)
	}
	return rt
}

// Notation returns the notation used for labels.
func (rt *Runtime) Notation() formatter.Notation {
	return rt.notation
}

// Order returns the row order used for tables.
func (rt *Runtime) Order() truthtable.Order {
	return rt.order
}

// Compile tokenizes, parses, partitions and validates source. Results are
// cached by source text.
func (rt *Runtime) Compile(source string) (*Expression, error) {
	hit := true
	expr, err := rt.cache.GetOrCompile(source, func() (*Expression, error) {
		hit = false
		rt.logger.Debug("cache miss", "source", source)
		return rt.compile(source)
	})
	switch {
	case err != nil:
		rt.logger.Debug("compile failed", "source", source, "error", err)
		return nil, err
	case hit:
		rt.logger.Debug("cache hit", "source", source)
	default:
		rt.logger.Debug("compiled", "source", source, "variables", len(expr.Variables), "groups", len(expr.Groups))
	}
	return expr, nil
}

func (rt *Runtime) compile(source string) (*Expression, error) {
	tokens := lexer.Tokenize(source)
	if lexer.IsEmpty(tokens) {
		return nil, ErrEmptyInput
	}

	c := parser.Compile(tokens)
	if !c.OK() {
		return nil, &DiagnosticError{Source: source, Diagnostics: []diagnostics.Diagnostic{tokenDiag(c.ErrorToken)}}
	}

	groups := program.Build(c.Tree)
	if diags := validator.Validate(groups, len(c.Variables)); len(diags) > 0 {
		return nil, &DiagnosticError{Source: source, Diagnostics: diags}
	}

	return &Expression{
		Source:    source,
		Variables: c.Variables,
		Tree:      c.Tree,
		Groups:    groups,
		Labels:    formatter.RenderWith(groups, c.Variables, rt.notation),
	}, nil
}

func tokenDiag(tok *lexer.Token) diagnostics.Diagnostic {
	switch tok.Type {
	case lexer.TokError:
		return diagnostics.AtToken(diagnostics.ELex, tok.Value, tok.Span, hintLex)
	case lexer.TokEOF:
		return diagnostics.AtToken(diagnostics.EParse, tok.Value, tok.Span, hintEOF)
	case lexer.TokVariable, lexer.TokLiteral:
		return diagnostics.AtToken(diagnostics.EParse, tok.Value, tok.Span, hintOperator)
	}
	return diagnostics.AtToken(diagnostics.EParse, tok.Value, tok.Span, hintParse)
}

// Check compiles source and returns its diagnostics, if any.
func (rt *Runtime) Check(source string) []diagnostics.Diagnostic {
	_, err := rt.Compile(source)
	if err == nil {
		return nil
	}
	var de *DiagnosticError
	if errors.As(err, &de) {
		return de.Diagnostics
	}
	if errors.Is(err, ErrEmptyInput) {
		span := ast.Span{Start: len(source), End: len(source)}
		return []diagnostics.Diagnostic{diagnostics.AtToken(diagnostics.EParse, lexer.EOFLexeme, span, hintEOF)}
	}
	return []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EProgram, err.Error(), nil, "")}
}

// Format compiles source and returns the fully parenthesised rendering of
// the whole expression.
func (rt *Runtime) Format(source string) (string, error) {
	expr, err := rt.Compile(source)
	if err != nil {
		return "", err
	}
	return expr.Label(), nil
}

// Table compiles source and evaluates it for every assignment.
func (rt *Runtime) Table(ctx context.Context, source string) (*Expression, *truthtable.Table, error) {
	expr, err := rt.Compile(source)
	if err != nil {
		return nil, nil, err
	}

	t, err := truthtable.Build(ctx, expr.Groups, expr.Variables, expr.Labels, truthtable.Options{
		Order:   rt.order,
		Workers: rt.workers,
		Limits:  rt.limits,
	})
	if errors.Is(err, truthtable.ErrTooManyVariables) {
		return expr, nil, &DiagnosticError{
			Source:      source,
			Diagnostics: []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.ELimit, err.Error(), nil, "raise --max-vars or split the expression")},
			Err:         err,
		}
	}
	if err != nil {
		return expr, nil, err
	}

	rt.logger.Debug("table built",
		"rows", t.Stats.Rows,
		"workers", t.Stats.Workers,
		"elapsed", t.Stats.Elapsed,
	)
	return expr, t, nil
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Source      string
	Diagnostics []diagnostics.Diagnostic
	// Err is the underlying cause, if any.
	Err error
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}

func (e *DiagnosticError) Unwrap() error {
	return e.Err
}

// Code returns the code of the first diagnostic.
func (e *DiagnosticError) Code() string {
	if len(e.Diagnostics) == 0 {
		return ""
	}
	return e.Diagnostics[0].Code
}
