package stage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alnah/go-scholar/internal/fileutil"
	"github.com/alnah/go-scholar/internal/report"
	"github.com/alnah/go-scholar/internal/runner"
	"github.com/alnah/go-scholar/internal/settings"
	"github.com/alnah/go-scholar/internal/workspace"
)

// engineFlags maps a LaTeX engine to the latexmk option selecting it.
var engineFlags = map[string]string{
	"xelatex":  "-xelatex",
	"lualatex": "-lualatex",
	"pdflatex": "-pdf",
}

// LaTeXToPDF typesets a .tex file with latexmk, which reruns the engine and
// biber until references and cross-references settle.
type LaTeXToPDF struct {
	Runner   runner.Runner
	Settings settings.Settings
	Layout   workspace.Layout

	// CWD is where latexmk runs. Relative paths in the .tex file produced
	// by MarkdownToLaTeX are relative to it.
	CWD string

	Reporter report.Reporter
}

// Name implements Converter.
func (c *LaTeXToPDF) Name() Name { return LaTeXToPDFName }

// OutputFor returns the PDF path latexmk writes for input.
func (c *LaTeXToPDF) OutputFor(input string) string {
	return filepath.Join(c.Layout.LatexmkOutput, fileutil.ReplaceExt(input, ".pdf"))
}

// Args returns the latexmk arguments for input.
func (c *LaTeXToPDF) Args(input string) ([]string, error) {
	flag, ok := engineFlags[c.Settings.LaTeX.Engine]
	if !ok {
		return nil, fmt.Errorf("unknown LaTeX engine %q", c.Settings.LaTeX.Engine)
	}
	args := []string{
		flag,
		"-bibtex",
		"-interaction=nonstopmode",
		"-halt-on-error",
		"-file-line-error",
		"-quiet",
	}
	if c.Settings.LaTeX.ShellEscape {
		args = append(args, "-shell-escape")
	}
	return append(args, "-output-directory="+c.Layout.LatexmkOutput, input), nil
}

// Convert implements Converter. It returns the path of the PDF.
func (c *LaTeXToPDF) Convert(ctx context.Context, input string) (string, error) {
	rep := reporterOrNop(c.Reporter)

	args, err := c.Args(input)
	if err != nil {
		return "", wrap(LaTeXToPDFName, ErrTypeset, err)
	}
	if err := os.MkdirAll(c.Layout.LatexmkOutput, fileutil.DirPerm); err != nil {
		return "", wrap(LaTeXToPDFName, ErrPrepare, err)
	}
	if c.Settings.LaTeX.ShellEscape {
		rep.Warn("shell escape is enabled: LaTeX may run arbitrary commands from %s", input)
	}

	out := c.OutputFor(input)
	// latexmk would otherwise report success for an up-to-date stale PDF.
	_ = os.Remove(out)

	rep.Step("Running latexmk to generate PDF from LaTeX")
	res, err := execute(ctx, c.Runner, rep, runner.Command{
		Name: c.Settings.Tools.Latexmk,
		Args: args,
		Dir:  c.CWD,
	})
	if err != nil {
		return "", wrap(LaTeXToPDFName, ErrTypeset, err)
	}
	if !res.OK() {
		return "", failed(LaTeXToPDFName, ErrTypeset, res)
	}
	if !fileutil.FileExists(out) {
		return "", &Error{Stage: LaTeXToPDFName, Err: ErrTypeset, Cause: fmt.Errorf("latexmk wrote no %s", out)}
	}
	return out, nil
}

// Compile-time interface check.
var _ Converter = (*LaTeXToPDF)(nil)
