package stage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alnah/go-scholar/internal/runner"
)

// Sentinel errors identifying the failing step.
var (
	// ErrContentGeneration indicates pandoc failed to read the document.
	ErrContentGeneration = errors.New("content generation failed")

	// ErrRender indicates pandoc failed to merge metadata and render LaTeX.
	ErrRender = errors.New("LaTeX render failed")

	// ErrBibliography indicates a reference could not be converted.
	ErrBibliography = errors.New("bibliography generation failed")

	// ErrUnsafeLaTeXPath indicates a path with characters that LaTeX would
	// interpret. Such paths are never spliced into the template.
	ErrUnsafeLaTeXPath = errors.New("path is not safe to pass to LaTeX")

	// ErrFilter indicates a native filter failed.
	ErrFilter = errors.New("filter failed")

	// ErrTypeset indicates latexmk failed or produced no PDF.
	ErrTypeset = errors.New("typesetting failed")

	// ErrPrepare indicates the stage inputs could not be prepared.
	ErrPrepare = errors.New("preparing stage inputs failed")
)

// tailLines is how much tool output a StageError keeps.
const tailLines = 12

// Error is a typed stage failure. Err is one of the sentinels above; Result
// is set when an external process ran and exited non-zero.
type Error struct {
	Stage  Name
	Err    error
	Result *runner.Result
	Cause  error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s stage: %v", e.Stage, e.Err)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	if e.Result != nil {
		fmt.Fprintf(&b, ": exit code %d\n  command: %s", e.Result.ExitCode, e.Result.Command)
		if tail := e.Result.Tail(tailLines); tail != "" {
			for _, line := range strings.Split(tail, "\n") {
				b.WriteString("\n  | ")
				b.WriteString(line)
			}
		}
	}
	return b.String()
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func failed(stage Name, sentinel error, res *runner.Result) *Error {
	return &Error{Stage: stage, Err: sentinel, Result: res}
}

func wrap(stage Name, sentinel, cause error) *Error {
	return &Error{Stage: stage, Err: sentinel, Cause: cause}
}
