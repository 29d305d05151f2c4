// Package runner executes external programs (pandoc, latexmk, rsvg-convert)
// and reports their outcome as an explicit Result instead of an exception-like
// error, so callers branch on the exit code with plain control flow.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-scholar/internal/process"
)

// Sentinel errors for command execution.
var (
	// ErrNotFound indicates the executable could not be located.
	ErrNotFound = errors.New("executable not found")

	// ErrStart indicates the process could not be started.
	ErrStart = errors.New("failed to start process")

	// ErrTimeout indicates the process exceeded its deadline and was killed.
	ErrTimeout = errors.New("process timed out")
)

// waitDelay bounds how long Wait blocks on output pipes after a kill.
const waitDelay = 2 * time.Second

// Command describes one external program invocation.
type Command struct {
	Name  string
	Args  []string
	Stdin string // fed to the process when non-empty
	Dir   string // working directory; empty means the current one
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quote(c.Name))
	for _, a := range c.Args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"'\\$") {
		return strconv.Quote(s)
	}
	return s
}

// Result is the outcome of a finished process.
type Result struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// OK reports whether the process exited with status zero.
func (r *Result) OK() bool {
	return r != nil && r.ExitCode == 0
}

// Tail returns the last n non-empty lines of stderr, or of stdout when stderr
// is empty. latexmk reports most errors on stdout.
func (r *Result) Tail(n int) string {
	if r == nil {
		return ""
	}
	src := r.Stderr
	if strings.TrimSpace(src) == "" {
		src = r.Stdout
	}
	lines := strings.Split(strings.TrimRight(src, "\n"), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, "\n")
}

// Runner abstracts command execution to enable testing without real subprocesses.
//
// Run returns a non-nil error only when the process could not run to
// completion (missing executable, start failure, cancellation, timeout).
// A process that ran and exited non-zero yields a Result with OK() == false
// and a nil error.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner implements Runner using os/exec.
type ExecRunner struct {
	// Timeout bounds each process. Zero means no deadline.
	Timeout time.Duration

	// Echo, when set, receives a copy of the process output as it is produced.
	Echo io.Writer
}

// NewExecRunner creates an ExecRunner with the given per-process timeout.
func NewExecRunner(timeout time.Duration, echo io.Writer) *ExecRunner {
	return &ExecRunner{Timeout: timeout, Echo: echo}
}

// Run starts the command in its own process group and waits for it.
// On cancellation or timeout the whole group is killed.
func (r *ExecRunner) Run(ctx context.Context, c Command) (*Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...) // #nosec G204 -- program names come from settings
	cmd.Dir = c.Dir
	process.Isolate(cmd)
	cmd.Cancel = func() error {
		process.KillProcessGroup(cmd.Process.Pid)
		return nil
	}
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if r.Echo != nil {
		cmd.Stdout = io.MultiWriter(&stdout, r.Echo)
		cmd.Stderr = io.MultiWriter(&stderr, r.Echo)
	}
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}

	res := &Result{Command: c.String(), ExitCode: -1}
	start := time.Now()

	if err := cmd.Start(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, fmt.Errorf("%s: %w", c.Name, ctxErr)
		}
		if errors.Is(err, exec.ErrNotFound) {
			return res, fmt.Errorf("%w: %s", ErrNotFound, c.Name)
		}
		return res, fmt.Errorf("%w: %s: %v", ErrStart, c.Name, err)
	}

	waitErr := cmd.Wait()
	res.Duration = time.Since(start)
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return res, fmt.Errorf("%w after %s: %s", ErrTimeout, r.Timeout, c.Name)
		}
		return res, fmt.Errorf("%s: %w", c.Name, ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
		res.ExitCode = 0
	case errors.As(waitErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return res, fmt.Errorf("waiting for %s: %w", c.Name, waitErr)
	}

	return res, nil
}

// Compile-time interface check.
var _ Runner = (*ExecRunner)(nil)
