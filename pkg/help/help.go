// Package help holds the ttbl quick reference and guide topics.
package help

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/thomasrohde/ttbl/pkg/ast"
)

// QUICKREF is printed by `ttbl guide` without a topic.
const QUICKREF = `ttbl v0.3 - truth tables for boolean expressions

Usage:
  ttbl                       start the REPL
  ttbl EXPR...               print the truth table of EXPR
  ttbl eval [--summary] EXPR print the truth table, optionally classified
  ttbl check EXPR            report errors only
  ttbl fmt EXPR              print every braced group fully parenthesised
  ttbl ast EXPR              dump the syntax tree and groups
  ttbl config                print the effective configuration
  ttbl guide TOPIC           read a topic

Expression:
  p & q | !r                 and, or, not (also: and, or, not, ~)
  p => q   p <=> q           implication, biconditional
  T F true false             literals (case-insensitive)
  ( ... )                    grouping
  { ... }                    grouping with its own output column

Topics: syntax, operators, braces, formats, config, repl, diagnostics, examples
`

// Topics maps topic names to their text.
var Topics = map[string]string{
	"syntax": `Syntax

An expression is built from variables, literals, operators and brackets.
Blanks separate tokens and are otherwise ignored.

  variable   letter or _ followed by letters, digits or _   p  q0  left_side
  literal    true false t f, any letter case                   T  False
  operator   & | ! ~ => <=>  and the words and, or, not
  bracket    ( )  { }

The words and, or and not are operators only in lower case. Every other
word is a variable, so "AND" is a variable name.
`,
	"operators": `Operators

See the table below. Operators with a higher precedence bind tighter:
p | q & r is p | (q & r). A chain of operators with equal precedence
nests to the right: p => q => r is p => (q => r).

` + OperatorIndex(),
	"braces": `Braces

Parentheses only group. Braces group and also give the enclosed
subexpression its own output column, labelled with its rendering:

  >>> (p or q) and not {p and q}

prints a column for (p & q) before the column for the whole expression.
Braces may nest; {{p}} is the same as {p}. The whole expression always
gets the last column.
`,
	"formats": `Output formats

  table      boxed table (default); long labels wrap
  markdown   pipe table for documents
  csv        comma-separated, header row first
  json       variables, labels, rows and the classification

Rows start with every variable true. Use --order false-first to count up
in binary instead. Cell marks default to T and F; set trueMark and
falseMark in the config file to change them.
`,
	"config": `Configuration

Settings are read from the first file found:

  ./.ttbl.json             project
  ~/.ttbl/config.json      user

Fields: format, notation, order, trueMark, falseMark, wrapWidth,
maxVariables, workers, cacheSize, historyFile. Command-line flags
override the file. "ttbl config" prints the effective settings.
`,
	"repl": `REPL

Each line is compiled and its truth table printed. History is kept in
~/.ttbl_history. Ctrl+C clears the line, Ctrl+D leaves.

  :help              this text
  :quit, :exit       leave
  :vars              variables of the last expression
  :groups            groups of the last expression
  :notation NAME     symbol, keyword or unicode
  :format NAME       table, markdown, csv or json
  :order NAME        true-first or false-first
`,
	"diagnostics": `Diagnostics

  E_LEX       a character that starts no token, such as $ or a lone =
  E_PARSE     a token in the wrong place, or the input ended too early
  E_PROGRAM   the compiler produced an invalid program (a bug)
  E_LIMIT     too many variables for the configured limit
  E_CONFIG    a config file or flag value is invalid
  E_IO        a file could not be read or written

Errors name the first offending token: Error at token: "&".
--pretty prints them for humans with a caret under the token.
Exit codes: 0 ok, 1 usage or I/O, 2 diagnostics, 3 limit.
`,
	"examples": `Examples

  ttbl 'p & q'
  ttbl eval --summary '(p => q) <=> (!q => !p)'
  ttbl --format markdown '{a | b} & !{a & b}'
  ttbl fmt 'not a or b and c'
  ttbl --order false-first --format csv 'x <=> y'
`,
}

// TopicList is the ordered list of topic names.
var TopicList = []string{"syntax", "operators", "braces", "formats", "config", "repl", "diagnostics", "examples"}

// OperatorIndex returns a table of operators by descending precedence.
func OperatorIndex() string {
	ops := []ast.Operator{ast.OpNot, ast.OpAnd, ast.OpCndl, ast.OpBiCndl, ast.OpOr}
	sort.SliceStable(ops, func(i, j int) bool { return ops[i].Precedence() > ops[j].Precedence() })

	spelling := map[ast.Operator]string{
		ast.OpNot:    "!  ~  not",
		ast.OpAnd:    "&  and",
		ast.OpCndl:   "=>",
		ast.OpBiCndl: "<=>",
		ast.OpOr:     "|  or",
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  %-8s %-12s %-6s %s\n", "name", "spelling", "prec", "arity")
	for _, op := range ops {
		arity := "binary"
		if op.Unary() {
			arity = "unary"
		}
		fmt.Fprintf(&b, "  %-8s %-12s %-6d %s\n", op, spelling[op], op.Precedence(), arity)
	}
	return b.String()
}

// MatchTopic finds a topic by exact name, then by unique prefix. Unknown
// names get a suggestion when one is close.
func MatchTopic(query string) (string, string, error) {
	if content, ok := Topics[query]; ok {
		return query, content, nil
	}

	var matches []string
	for _, name := range TopicList {
		if strings.HasPrefix(name, query) {
			matches = append(matches, name)
		}
	}
	if len(matches) == 1 {
		return matches[0], Topics[matches[0]], nil
	}
	if len(matches) > 1 {
		return "", "", fmt.Errorf("ambiguous topic %q: could be %s", query, strings.Join(matches, ", "))
	}

	if s := Suggest(query, TopicList); s != "" {
		return "", "", fmt.Errorf("unknown topic %q, did you mean %q?", query, s)
	}
	return "", "", fmt.Errorf("unknown topic %q", query)
}

// Suggest returns the closest candidate to target, or "" when nothing is
// close.
func Suggest(target string, candidates []string) string {
	if target == "" || len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}
