package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/peterh/liner"
	"github.com/urfave/cli/v2"

	"github.com/thomasrohde/ttbl/pkg/diagnostics"
	"github.com/thomasrohde/ttbl/pkg/formatter"
	"github.com/thomasrohde/ttbl/pkg/help"
	"github.com/thomasrohde/ttbl/pkg/report"
	"github.com/thomasrohde/ttbl/pkg/runtime"
	"github.com/thomasrohde/ttbl/pkg/truthtable"
)

const (
	banner = "Welcome to ttbl! Type :help for commands, Ctrl+D to leave."
	prompt = ">>> "
)

// replCommands maps each REPL command to its argument completions.
var replCommands = map[string][]string{
	":help":     nil,
	":quit":     nil,
	":exit":     nil,
	":vars":     nil,
	":groups":   nil,
	":notation": {"symbol", "keyword", "unicode"},
	":format":   {"table", "markdown", "csv", "json"},
	":order":    {"true-first", "false-first"},
}

func commandNames() []string {
	names := make([]string, 0, len(replCommands))
	for name := range replCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// session holds REPL state between lines.
type session struct {
	st   *state
	last *runtime.Expression
}

func (st *state) repl(c *cli.Context) error {
	fmt.Fprintln(st.stdout, banner)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(complete)

	var save func()
	if path := st.cfg.HistoryFile; path != "" {
		if f, err := os.Open(path); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		save = saveHistoryOnce(ln, path, st.logger)
		defer save()
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM)
	defer signal.Stop(sigc)
	go func() {
		if _, ok := <-sigc; ok {
			if save != nil {
				save()
			}
			ln.Close()
			os.Exit(130)
		}
	}()

	s := &session{st: st}
	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(st.stdout)
			return nil
		}
		if err != nil {
			return st.fail(err)
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)
		if s.handle(c.Context, line) {
			return nil
		}
	}
}

// complete offers command names and their arguments.
func complete(line string) []string {
	if !strings.HasPrefix(line, ":") {
		return nil
	}
	var out []string
	if cmd, arg, found := strings.Cut(line, " "); found {
		for _, candidate := range replCommands[cmd] {
			if strings.HasPrefix(candidate, arg) {
				out = append(out, cmd+" "+candidate)
			}
		}
		return out
	}
	for _, name := range commandNames() {
		if strings.HasPrefix(name, line) {
			out = append(out, name)
		}
	}
	return out
}

// handle processes one line and reports whether the REPL should stop.
func (s *session) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, ":") {
		return s.command(line)
	}

	st := s.st
	expr, t, err := st.rt.Table(ctx, line)
	if err != nil {
		s.printError(err)
		return false
	}
	s.last = expr
	if err := report.Write(st.stdout, t, st.cfg.ReportOptions()); err != nil {
		fmt.Fprintln(st.stderr, err)
	}
	return false
}

func (s *session) printError(err error) {
	st := s.st
	var de *runtime.DiagnosticError
	if !errors.As(err, &de) {
		fmt.Fprintln(st.stderr, err)
		return
	}
	for _, d := range de.Diagnostics {
		if d.Span != nil {
			fmt.Fprintln(st.stderr, diagnostics.Underline(de.Source, *d.Span))
		}
		fmt.Fprintln(st.stderr, d.Message)
	}
}

func (s *session) command(line string) bool {
	st := s.st
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ":quit", ":exit":
		return true
	case ":help":
		fmt.Fprint(st.stdout, help.Topics["repl"])
	case ":vars":
		if s.last == nil {
			fmt.Fprintln(st.stdout, "no expression yet")
			return false
		}
		fmt.Fprintln(st.stdout, strings.Join(s.last.Variables, " "))
	case ":groups":
		if s.last == nil {
			fmt.Fprintln(st.stdout, "no expression yet")
			return false
		}
		fmt.Fprint(st.stdout, formatter.Listing(s.last.Labels))
	case ":notation":
		s.set(arg, func(v string) error {
			if _, err := formatter.LookupNotation(v); err != nil {
				return err
			}
			st.cfg.Notation = v
			return nil
		})
	case ":format":
		s.set(arg, func(v string) error {
			if _, err := report.ParseFormat(v); err != nil {
				return err
			}
			st.cfg.Format = v
			return nil
		})
	case ":order":
		s.set(arg, func(v string) error {
			if _, err := truthtable.ParseOrder(v); err != nil {
				return err
			}
			st.cfg.Order = v
			return nil
		})
	default:
		msg := fmt.Sprintf("unknown command %s", name)
		if suggestion := help.Suggest(name, commandNames()); suggestion != "" {
			msg += fmt.Sprintf(", did you mean %s?", suggestion)
		}
		fmt.Fprintln(st.stderr, msg)
	}
	return false
}

// set applies a setting and rebuilds the runtime so labels and row order
// follow it.
func (s *session) set(value string, apply func(string) error) {
	if value == "" {
		fmt.Fprintln(s.st.stderr, "missing value")
		return
	}
	if err := apply(value); err != nil {
		fmt.Fprintln(s.st.stderr, err)
		return
	}
	s.st.rebuild()
	s.last = nil
}

type historyWriter interface {
	WriteHistory(w io.Writer) (int, error)
}

// saveHistoryOnce returns a func that writes the history to path on its
// first call only. The SIGTERM handler and the normal exit path both call it.
func saveHistoryOnce(h historyWriter, path string, logger *slog.Logger) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			if err := writeHistory(h, path); err != nil {
				logger.Debug("history not saved", "path", path, "error", err)
			}
		})
	}
}

func writeHistory(h historyWriter, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := h.WriteHistory(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
