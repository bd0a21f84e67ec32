package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thomasrohde/ttbl/pkg/config"
)

// run executes the CLI with an empty home directory and returns stdout,
// stderr and the exit code.
func run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	var stdout, stderr bytes.Buffer
	app := newApp(&stdout, &stderr)
	code := exitCode(app.Run(append([]string{"ttbl"}, args...)))
	return stdout.String(), stderr.String(), code
}

func TestEvalCSV(t *testing.T) {
	out, errOut, code := run(t, "--format", "csv", "eval", "p & q")
	if code != exitOK {
		t.Fatalf("exit %d, stderr: %s", code, errOut)
	}
	want := "p,q,(p & q)\nT,T,T\nT,F,F\nF,T,F\nF,F,F\n"
	if out != want {
		t.Errorf("got:\n%s\nwant:\n%s", out, want)
	}
}

func TestDefaultActionEvaluatesArgs(t *testing.T) {
	out, _, code := run(t, "--format", "csv", "--order", "false-first", "!p")
	if code != exitOK {
		t.Fatalf("exit %d", code)
	}
	if out != "p,!(p)\nF,T\nT,F\n" {
		t.Errorf("got:\n%s", out)
	}
}

func TestEvalSummary(t *testing.T) {
	out, _, code := run(t, "--format", "csv", "eval", "--summary", "p | !p")
	if code != exitOK {
		t.Fatalf("exit %d", code)
	}
	if !strings.HasSuffix(out, "tautology: 2 of 2 rows true\n") {
		t.Errorf("got:\n%s", out)
	}
}

func TestEvalBoxTable(t *testing.T) {
	out, _, code := run(t, "(p or q) and not {p and q}")
	if code != exitOK {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(out, "(p & q)") || !strings.Contains(out, "+") {
		t.Errorf("got:\n%s", out)
	}
}

func TestCheck(t *testing.T) {
	out, _, code := run(t, "check", "p => q")
	if code != exitOK || out != "[]\n" {
		t.Errorf("exit %d, got %q", code, out)
	}

	out, _, code = run(t, "--pretty", "check", "p => q")
	if code != exitOK || out != "No errors found.\n" {
		t.Errorf("exit %d, got %q", code, out)
	}
}

func TestCheckErrors(t *testing.T) {
	_, errOut, code := run(t, "check", "p & & q")
	if code != exitDiag {
		t.Fatalf("exit %d, want %d", code, exitDiag)
	}
	if !strings.Contains(errOut, `"code":"E_PARSE"`) || !strings.Contains(errOut, `"lexeme":"\u0026"`) {
		t.Errorf("got stderr: %s", errOut)
	}

	_, errOut, code = run(t, "--pretty", "check", "p $ q")
	if code != exitDiag {
		t.Fatalf("exit %d, want %d", code, exitDiag)
	}
	if !strings.Contains(errOut, "p $ q\n  ^") || !strings.Contains(errOut, "error[E_LEX]") {
		t.Errorf("got stderr: %s", errOut)
	}
}

func TestLimitExitCode(t *testing.T) {
	_, errOut, code := run(t, "--max-vars", "2", "a & b & c")
	if code != exitLimit {
		t.Fatalf("exit %d, want %d", code, exitLimit)
	}
	if !strings.Contains(errOut, "E_LIMIT") {
		t.Errorf("got stderr: %s", errOut)
	}
}

func TestBadFlagValue(t *testing.T) {
	_, errOut, code := run(t, "--format", "xml", "p")
	if code != exitUsage {
		t.Fatalf("exit %d, want %d", code, exitUsage)
	}
	if !strings.Contains(errOut, "E_CONFIG") {
		t.Errorf("got stderr: %s", errOut)
	}
}

func TestMissingExpression(t *testing.T) {
	_, errOut, code := run(t, "check")
	if code != exitUsage {
		t.Fatalf("exit %d, want %d", code, exitUsage)
	}
	if !strings.Contains(errOut, "usage: ttbl check") {
		t.Errorf("got stderr: %s", errOut)
	}
}

func TestFmt(t *testing.T) {
	out, _, code := run(t, "--notation", "keyword", "fmt", "{a} | b & !c")
	if code != exitOK {
		t.Fatalf("exit %d", code)
	}
	want := "  0 a\n  = (a or (b and not(c)))\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestAst(t *testing.T) {
	out, _, code := run(t, "ast", "!(p & q)")
	if code != exitOK {
		t.Fatalf("exit %d", code)
	}
	for _, want := range []string{"NOT", "VAR(p)", "group 0:", "= !((p & q))"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestGuide(t *testing.T) {
	out, _, code := run(t, "guide")
	if code != exitOK || !strings.Contains(out, "ttbl v0.3") {
		t.Errorf("exit %d, got:\n%s", code, out)
	}

	out, _, code = run(t, "guide", "brace")
	if code != exitOK || !strings.HasPrefix(out, "Braces") {
		t.Errorf("exit %d, got:\n%s", code, out)
	}

	_, errOut, code := run(t, "guide", "synax")
	if code != exitUsage || !strings.Contains(errOut, `did you mean "syntax"`) {
		t.Errorf("exit %d, stderr:\n%s", code, errOut)
	}
}

func TestConfigCommand(t *testing.T) {
	out, _, code := run(t, "--workers", "3", "config")
	if code != exitOK {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(out, `"source": "defaults"`) || !strings.Contains(out, `"workers": 3`) {
		t.Errorf("got:\n%s", out)
	}
}

// ---- REPL ----

func newSession(t *testing.T) (*session, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cfg := config.Defaults()
	cfg.Format = "csv"
	st := &state{
		cfg:    cfg,
		source: config.SourceDefaults,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		stdout: &stdout,
		stderr: &stderr,
	}
	st.rebuild()
	return &session{st: st}, &stdout, &stderr
}

func TestSessionEvaluatesLines(t *testing.T) {
	s, out, _ := newSession(t)
	if s.handle(context.Background(), "p & q") {
		t.Fatal("expression must not end the session")
	}
	if !strings.HasPrefix(out.String(), "p,q,(p & q)\n") {
		t.Errorf("got:\n%s", out)
	}
}

func TestSessionReportsErrors(t *testing.T) {
	s, _, errOut := newSession(t)
	s.handle(context.Background(), "p & & q")
	want := "p & & q\n    ^\nError at token: \"&\"\n"
	if errOut.String() != want {
		t.Errorf("got %q, want %q", errOut.String(), want)
	}
}

func TestSessionCommands(t *testing.T) {
	s, out, _ := newSession(t)
	ctx := context.Background()

	s.handle(ctx, ":vars")
	if out.String() != "no expression yet\n" {
		t.Errorf("got %q", out.String())
	}

	s.handle(ctx, "(p or q) and not {p and q}")
	out.Reset()
	s.handle(ctx, ":vars")
	if out.String() != "p q\n" {
		t.Errorf("got %q", out.String())
	}

	out.Reset()
	s.handle(ctx, ":groups")
	if out.String() != "  0 (p & q)\n  = ((p | q) & !((p & q)))\n" {
		t.Errorf("got %q", out.String())
	}

	if !s.handle(ctx, ":quit") || !s.handle(ctx, ":exit") {
		t.Error(":quit and :exit must end the session")
	}
}

func TestSessionSettings(t *testing.T) {
	s, out, errOut := newSession(t)
	ctx := context.Background()

	s.handle(ctx, ":notation unicode")
	s.handle(ctx, ":order false-first")
	out.Reset()
	s.handle(ctx, "p & q")
	if !strings.HasPrefix(out.String(), "p,q,(p ∧ q)\nF,F,F\n") {
		t.Errorf("got:\n%s", out)
	}

	s.handle(ctx, ":format yaml")
	if !strings.Contains(errOut.String(), "unknown format") {
		t.Errorf("got stderr %q", errOut.String())
	}
	if s.st.cfg.Format != "csv" {
		t.Errorf("invalid format must not be applied, got %q", s.st.cfg.Format)
	}
}

func TestSessionUnknownCommand(t *testing.T) {
	s, _, errOut := newSession(t)
	s.handle(context.Background(), ":qit")
	if !strings.Contains(errOut.String(), "did you mean :quit?") {
		t.Errorf("got %q", errOut.String())
	}
}

func TestComplete(t *testing.T) {
	got := complete(":no")
	if len(got) != 1 || got[0] != ":notation" {
		t.Errorf("got %v", got)
	}
	got = complete(":order f")
	if len(got) != 1 || got[0] != ":order false-first" {
		t.Errorf("got %v", got)
	}
	if got := complete("p &"); got != nil {
		t.Errorf("expressions get no completion, got %v", got)
	}
}

type fakeHistory struct {
	lines []string
	calls int
}

func (h *fakeHistory) WriteHistory(w io.Writer) (int, error) {
	h.calls++
	for _, l := range h.lines {
		if _, err := io.WriteString(w, l+"\n"); err != nil {
			return 0, err
		}
	}
	return len(h.lines), nil
}

func TestSaveHistoryOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	h := &fakeHistory{lines: []string{"p & q", ":vars"}}
	save := saveHistoryOnce(h, path, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// signal handler and deferred exit path both fire
	save()
	save()

	if h.calls != 1 {
		t.Errorf("history written %d times, want 1", h.calls)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "p & q\n:vars\n" {
		t.Errorf("got history %q", got)
	}
}

func TestSaveHistoryBadPath(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	path := filepath.Join(t.TempDir(), "missing", "history")

	saveHistoryOnce(&fakeHistory{}, path, logger)()
	if !strings.Contains(logs.String(), "history not saved") {
		t.Errorf("expected a debug log, got:\n%s", logs.String())
	}
}
