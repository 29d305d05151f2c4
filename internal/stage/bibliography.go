package stage

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-scholar/internal/fileutil"
	"github.com/alnah/go-scholar/internal/pandoc"
	"github.com/alnah/go-scholar/internal/runner"
)

// defaultBibliographyWorkers bounds concurrent pandoc runs for references.
const defaultBibliographyWorkers = 4

// bibEntry renders one biblatex entry of the custom @scholar type the
// template declares.
func bibEntry(id, tex string) string {
	return "@scholar{" + id + ",\n    text = {" + tex + "}\n}\n"
}

// renderBibliography converts every reference from Markdown to LaTeX and
// writes the biblatex file to path. Entries follow the order of ids.
// An empty reference set still produces an (empty) file. Errors are *Error.
func (c *MarkdownToLaTeX) renderBibliography(ctx context.Context, ids []string, path string) error {
	texts := make([]string, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers())
	for i, id := range ids {
		g.Go(func() error {
			tex, res, err := c.referenceToLaTeX(gctx, c.Settings.References[id])
			if err != nil {
				return wrap(MarkdownToLaTeXName, ErrBibliography, fmt.Errorf("reference %q: %w", id, err))
			}
			if !res.OK() {
				return &Error{Stage: MarkdownToLaTeXName, Err: ErrBibliography, Result: res, Cause: fmt.Errorf("reference %q", id)}
			}
			texts[i] = tex
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	entries := make([]string, len(ids))
	for i, id := range ids {
		entries[i] = bibEntry(id, texts[i])
	}
	if err := fileutil.WriteFileAtomic(path, []byte(strings.Join(entries, "\n"))); err != nil {
		return wrap(MarkdownToLaTeXName, ErrBibliography, err)
	}
	return nil
}

func (c *MarkdownToLaTeX) referenceToLaTeX(ctx context.Context, markdown string) (string, *runner.Result, error) {
	args := []string{"--from", pandoc.MarkdownFormat(), "--to", pandoc.FormatLaTeX}
	args = append(args, pandoc.ReaderArgs(c.Layout.ExtractedResources)...)
	args = append(args, pandoc.WriterArgs()...)

	res, err := execute(ctx, c.Runner, c.reporter(), runner.Command{
		Name:  c.Settings.Tools.Pandoc,
		Args:  args,
		Stdin: markdown,
	})
	if err != nil || !res.OK() {
		return "", res, err
	}
	// pandoc may pad its output with whitespace the input never had.
	return strings.TrimSpace(res.Stdout), res, nil
}

func (c *MarkdownToLaTeX) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return defaultBibliographyWorkers
}
