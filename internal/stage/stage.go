// Package stage implements the two conversion stages: Markdown to LaTeX and
// LaTeX to PDF. Each stage builds commands for an external tool, prepares
// the inputs that tool needs, runs it and returns the path of its output.
//
// Outputs live in the stage's cache directory and are never written next
// to the source document. A failing external process yields an *Error
// carrying the process Result; nothing is returned for later stages.
package stage

import (
	"context"
	"time"

	"github.com/alnah/go-scholar/internal/report"
	"github.com/alnah/go-scholar/internal/runner"
)

// Name identifies a stage in errors and progress output.
type Name string

const (
	MarkdownToLaTeXName Name = "markdown-to-latex"
	LaTeXToPDFName      Name = "latex-to-pdf"
)

// Converter is one stage.
type Converter interface {
	Name() Name
	Convert(ctx context.Context, input string) (string, error)
}

// execute runs cmd and reports the command line at detail level.
func execute(ctx context.Context, r runner.Runner, rep report.Reporter, cmd runner.Command) (*runner.Result, error) {
	rep.Detail("%s", cmd.String())
	res, err := r.Run(ctx, cmd)
	if res != nil {
		rep.Detail("exit code %d after %s", res.ExitCode, res.Duration.Round(time.Millisecond))
	}
	return res, err
}

func reporterOrNop(r report.Reporter) report.Reporter {
	if r == nil {
		return report.Nop{}
	}
	return r
}
