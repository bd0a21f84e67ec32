// Command ttbl prints truth tables for boolean expressions.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/thomasrohde/ttbl/pkg/config"
	"github.com/thomasrohde/ttbl/pkg/diagnostics"
	"github.com/thomasrohde/ttbl/pkg/formatter"
	"github.com/thomasrohde/ttbl/pkg/help"
	"github.com/thomasrohde/ttbl/pkg/report"
	"github.com/thomasrohde/ttbl/pkg/runtime"
)

const version = "0.3.0"

// Exit codes.
const (
	exitOK    = 0
	exitUsage = 1
	exitDiag  = 2
	exitLimit = 3
)

func main() {
	app := newApp(os.Stdout, os.Stderr)
	os.Exit(exitCode(app.Run(os.Args)))
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return exitUsage
}

// state is the per-invocation setup shared by all commands.
type state struct {
	cfg    *config.Config
	source string
	rt     *runtime.Runtime
	logger *slog.Logger
	pretty bool
	stdout io.Writer
	stderr io.Writer
}

func newApp(stdout, stderr io.Writer) *cli.App {
	st := &state{stdout: stdout, stderr: stderr}

	return &cli.App{
		Name:            "ttbl",
		Usage:           "print truth tables for boolean expressions",
		UsageText:       "ttbl [global options] [command] [EXPR...]",
		Version:         version,
		Writer:          stdout,
		ErrWriter:       stderr,
		HideHelpCommand: true,
		// exit codes are returned to main, never acted on inside Run
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "output format: table, markdown, csv or json"},
			&cli.StringFlag{Name: "notation", Aliases: []string{"n"}, Usage: "label notation: symbol, keyword or unicode"},
			&cli.StringFlag{Name: "order", Usage: "row order: true-first or false-first"},
			&cli.IntFlag{Name: "workers", Usage: "goroutines used to evaluate rows (0 = all CPUs)"},
			&cli.IntFlag{Name: "max-vars", Usage: "refuse expressions with more variables than this"},
			&cli.StringFlag{Name: "config", Usage: "read settings from `FILE` instead of the usual locations"},
			&cli.BoolFlag{Name: "pretty", Usage: "print diagnostics for humans instead of JSON"},
			&cli.BoolFlag{Name: "verbose", Usage: "log debug information to stderr"},
		},
		Before: st.setup,
		Action: func(c *cli.Context) error {
			if c.Args().Len() == 0 {
				return st.repl(c)
			}
			return st.eval(c, strings.Join(c.Args().Slice(), " "), false)
		},
		Commands: []*cli.Command{
			{
				Name:      "eval",
				Usage:     "print the truth table of an expression",
				ArgsUsage: "EXPR...",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "summary", Aliases: []string{"s"}, Usage: "append the classification of the expression"},
				},
				Action: func(c *cli.Context) error {
					src, err := st.expression(c)
					if err != nil {
						return err
					}
					return st.eval(c, src, c.Bool("summary"))
				},
			},
			{
				Name:      "check",
				Usage:     "report errors without evaluating",
				ArgsUsage: "EXPR...",
				Action:    st.check,
			},
			{
				Name:      "fmt",
				Usage:     "print every group fully parenthesised",
				ArgsUsage: "EXPR...",
				Action:    st.format,
			},
			{
				Name:      "ast",
				Usage:     "dump the syntax tree and groups",
				ArgsUsage: "EXPR...",
				Action:    st.dump,
			},
			{
				Name:      "guide",
				Usage:     "show the quick reference or a topic",
				ArgsUsage: "[TOPIC]",
				Action:    st.guide,
			},
			{
				Name:   "config",
				Usage:  "print the effective configuration",
				Action: st.showConfig,
			},
			{
				Name:   "repl",
				Usage:  "start the interactive prompt",
				Action: st.repl,
			},
		},
	}
}

// setup loads the config, applies flags and builds the runtime.
func (st *state) setup(c *cli.Context) error {
	st.pretty = c.Bool("pretty")

	var err error
	if path := c.String("config"); path != "" {
		st.cfg, err = config.LoadFile(path)
		st.source = path
	} else {
		cwd, _ := os.Getwd()
		st.cfg, st.source, err = config.Load(cwd)
	}
	if err != nil {
		return st.report(diagnostics.MakeDiag(diagnostics.EConfig, err.Error(), nil, ""), exitUsage)
	}

	if c.IsSet("format") {
		st.cfg.Format = c.String("format")
	}
	if c.IsSet("notation") {
		st.cfg.Notation = c.String("notation")
	}
	if c.IsSet("order") {
		st.cfg.Order = c.String("order")
	}
	if c.IsSet("workers") {
		st.cfg.Workers = c.Int("workers")
	}
	if c.IsSet("max-vars") {
		st.cfg.MaxVariables = c.Int("max-vars")
	}
	if err := st.cfg.Validate(); err != nil {
		return st.report(diagnostics.MakeDiag(diagnostics.EConfig, err.Error(), nil, "see: ttbl guide config"), exitUsage)
	}

	level := slog.LevelWarn
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	st.logger = slog.New(slog.NewTextHandler(st.stderr, &slog.HandlerOptions{Level: level}))
	st.logger.Debug("config loaded", "source", st.source)

	st.rebuild()
	return nil
}

// rebuild recreates the runtime after the config changed.
func (st *state) rebuild() {
	st.rt = runtime.New(runtime.WithConfig(st.cfg), runtime.WithLogger(st.logger))
}

// expression joins the command arguments into one source line.
func (st *state) expression(c *cli.Context) (string, error) {
	if c.Args().Len() == 0 {
		fmt.Fprintf(st.stderr, "usage: ttbl %s EXPR...\n", c.Command.Name)
		return "", cli.Exit("", exitUsage)
	}
	return strings.Join(c.Args().Slice(), " "), nil
}

// report prints one diagnostic and returns the matching exit error.
func (st *state) report(d diagnostics.Diagnostic, code int) error {
	fmt.Fprintln(st.stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{d}, st.pretty))
	return cli.Exit("", code)
}

// fail prints err and returns the matching exit error.
func (st *state) fail(err error) error {
	var de *runtime.DiagnosticError
	switch {
	case errors.As(err, &de):
		if st.pretty {
			for _, d := range de.Diagnostics {
				if d.Span != nil {
					fmt.Fprintln(st.stderr, diagnostics.Underline(de.Source, *d.Span))
				}
			}
		}
		fmt.Fprintln(st.stderr, diagnostics.FormatDiagnostics(de.Diagnostics, st.pretty))
		if de.Code() == diagnostics.ELimit {
			return cli.Exit("", exitLimit)
		}
		return cli.Exit("", exitDiag)
	case errors.Is(err, runtime.ErrEmptyInput):
		fmt.Fprintln(st.stderr, "empty expression")
		return cli.Exit("", exitUsage)
	}
	fmt.Fprintln(st.stderr, err)
	return cli.Exit("", exitUsage)
}

func (st *state) eval(c *cli.Context, src string, summary bool) error {
	_, t, err := st.rt.Table(c.Context, src)
	if err != nil {
		return st.fail(err)
	}
	if err := report.Write(st.stdout, t, st.cfg.ReportOptions()); err != nil {
		return st.report(diagnostics.MakeDiag(diagnostics.EIO, err.Error(), nil, ""), exitUsage)
	}
	if summary {
		if err := report.Summary(st.stdout, t); err != nil {
			return st.report(diagnostics.MakeDiag(diagnostics.EIO, err.Error(), nil, ""), exitUsage)
		}
	}
	return nil
}

func (st *state) check(c *cli.Context) error {
	src, err := st.expression(c)
	if err != nil {
		return err
	}
	if diags := st.rt.Check(src); len(diags) > 0 {
		if st.pretty {
			for _, d := range diags {
				if d.Span != nil {
					fmt.Fprintln(st.stderr, diagnostics.Underline(src, *d.Span))
				}
			}
		}
		fmt.Fprintln(st.stderr, diagnostics.FormatDiagnostics(diags, st.pretty))
		return cli.Exit("", exitDiag)
	}

	if st.pretty {
		fmt.Fprintln(st.stdout, "No errors found.")
	} else {
		fmt.Fprintln(st.stdout, "[]")
	}
	return nil
}

func (st *state) format(c *cli.Context) error {
	src, err := st.expression(c)
	if err != nil {
		return err
	}
	expr, err := st.rt.Compile(src)
	if err != nil {
		return st.fail(err)
	}
	fmt.Fprint(st.stdout, formatter.Listing(expr.Labels))
	return nil
}

func (st *state) dump(c *cli.Context) error {
	src, err := st.expression(c)
	if err != nil {
		return err
	}
	expr, err := st.rt.Compile(src)
	if err != nil {
		return st.fail(err)
	}

	fmt.Fprintln(st.stdout, expr.Tree.Dump(expr.Variables))
	fmt.Fprintln(st.stdout)
	for i, grp := range expr.Groups {
		fmt.Fprintf(st.stdout, "group %d: %v\n", i, grp)
	}
	fmt.Fprintln(st.stdout)
	fmt.Fprint(st.stdout, formatter.Listing(expr.Labels))
	return nil
}

func (st *state) guide(c *cli.Context) error {
	if c.Args().Len() == 0 {
		fmt.Fprint(st.stdout, help.QUICKREF)
		return nil
	}
	_, content, err := help.MatchTopic(c.Args().First())
	if err != nil {
		fmt.Fprintf(st.stderr, "%s\nAvailable topics: %s\n", err, strings.Join(help.TopicList, ", "))
		return cli.Exit("", exitUsage)
	}
	fmt.Fprint(st.stdout, content)
	return nil
}

func (st *state) showConfig(*cli.Context) error {
	out := struct {
		Source string         `json:"source"`
		Config *config.Config `json:"config"`
	}{st.source, st.cfg}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return st.fail(err)
	}
	fmt.Fprintln(st.stdout, string(b))
	return nil
}
