// Package runnertest provides a scriptable runner.Runner for tests. The
// default handlers emulate pandoc, latexmk and rsvg-convert closely enough
// for the pipeline to run end to end without the real toolchain.
package runnertest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/alnah/go-scholar/internal/runner"
)

// Handler produces the outcome of one invocation.
type Handler func(cmd runner.Command) (*runner.Result, error)

// Fake records invocations and dispatches them to handlers keyed by the
// base name of the program.
type Fake struct {
	mu       sync.Mutex
	handlers map[string]Handler
	calls    []runner.Command
}

// New returns a Fake with no handlers. Unhandled programs exit 127.
func New() *Fake {
	return &Fake{handlers: make(map[string]Handler)}
}

// NewToolchain returns a Fake preloaded with Pandoc, Latexmk and RsvgConvert.
func NewToolchain() *Fake {
	f := New()
	f.Handle("pandoc", Pandoc)
	f.Handle("latexmk", Latexmk)
	f.Handle("rsvg-convert", RsvgConvert)
	return f
}

// Handle registers h for program name.
func (f *Fake) Handle(name string, h Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[name] = h
}

// Run implements runner.Runner.
func (f *Fake) Run(ctx context.Context, cmd runner.Command) (*runner.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	h := f.handlers[filepath.Base(cmd.Name)]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &runner.Result{Command: cmd.String(), ExitCode: -1}, err
	}
	if h == nil {
		return &runner.Result{Command: cmd.String(), ExitCode: 127, Stderr: cmd.Name + ": not handled"}, nil
	}
	res, err := h(cmd)
	if res != nil && res.Command == "" {
		res.Command = cmd.String()
	}
	return res, err
}

// Calls returns a copy of the recorded invocations.
func (f *Fake) Calls() []runner.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runner.Command(nil), f.calls...)
}

// CallsTo returns the recorded invocations of one program.
func (f *Fake) CallsTo(name string) []runner.Command {
	var out []runner.Command
	for _, c := range f.Calls() {
		if filepath.Base(c.Name) == name {
			out = append(out, c)
		}
	}
	return out
}

// Fail returns a handler that exits with code and prints stderr.
func Fail(code int, stderr string) Handler {
	return func(runner.Command) (*runner.Result, error) {
		return &runner.Result{ExitCode: code, Stderr: stderr}, nil
	}
}

// Pandoc writes a small placeholder to the --output path, or echoes a LaTeX
// rendering of stdin when no output is given.
func Pandoc(cmd runner.Command) (*runner.Result, error) {
	out := ArgValue(cmd.Args, "--output")
	if out == "" {
		return &runner.Result{Stdout: "\\emph{" + strings.TrimSpace(cmd.Stdin) + "}\n"}, nil
	}
	content := "\\documentclass{article}\n"
	if ArgValue(cmd.Args, "--to") == "json" {
		content = `{"pandoc-api-version":[1,23,1],"meta":{},"blocks":[]}`
	}
	if err := write(out, content); err != nil {
		return &runner.Result{ExitCode: 1, Stderr: err.Error()}, nil
	}
	return &runner.Result{}, nil
}

// Latexmk writes <output-directory>/<base>.pdf for the last argument.
func Latexmk(cmd runner.Command) (*runner.Result, error) {
	var dir string
	for _, a := range cmd.Args {
		if v, ok := strings.CutPrefix(a, "-output-directory="); ok {
			dir = v
		}
	}
	if len(cmd.Args) == 0 || dir == "" {
		return &runner.Result{ExitCode: 2, Stdout: "latexmk: missing arguments"}, nil
	}
	input := cmd.Args[len(cmd.Args)-1]
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if err := write(filepath.Join(dir, base+".pdf"), "%PDF-1.5\n"); err != nil {
		return &runner.Result{ExitCode: 1, Stdout: err.Error()}, nil
	}
	return &runner.Result{}, nil
}

// RsvgConvert writes a placeholder PDF to the --output path.
func RsvgConvert(cmd runner.Command) (*runner.Result, error) {
	out := ArgValue(cmd.Args, "--output")
	if out == "" {
		return &runner.Result{ExitCode: 1, Stderr: "rsvg-convert: no output"}, nil
	}
	if err := write(out, "%PDF-1.5 svg\n"); err != nil {
		return &runner.Result{ExitCode: 1, Stderr: err.Error()}, nil
	}
	return &runner.Result{}, nil
}

// ArgValue returns the value following flag in args, or "".
func ArgValue(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func write(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// Compile-time interface check.
var _ runner.Runner = (*Fake)(nil)
