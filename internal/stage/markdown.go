package stage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-scholar/internal/artifact"
	"github.com/alnah/go-scholar/internal/assets"
	"github.com/alnah/go-scholar/internal/fileutil"
	"github.com/alnah/go-scholar/internal/filters"
	"github.com/alnah/go-scholar/internal/frontmatter"
	"github.com/alnah/go-scholar/internal/pandoc"
	"github.com/alnah/go-scholar/internal/report"
	"github.com/alnah/go-scholar/internal/runner"
	"github.com/alnah/go-scholar/internal/settings"
	"github.com/alnah/go-scholar/internal/workspace"
)

// MarkdownToLaTeX converts a Markdown document into a standalone .tex file.
//
// Steps, each a precondition for the next:
//  1. materialize the template and filters, copy the title page, render
//     the bibliography;
//  2. write the metadata document derived from the settings;
//  3. run pandoc on the document body to get the content document,
//     extracting media, then apply the native filters to it;
//  4. run pandoc again on content and metadata (metadata last, so its keys
//     win) with the Lua and JSON filters and the template.
type MarkdownToLaTeX struct {
	Runner   runner.Runner
	Settings settings.Settings
	Layout   workspace.Layout

	// CWD is where latexmk will run; template paths are relative to it.
	CWD string

	// Assets overrides the template and filter source. Nil resolves
	// assets from Settings.Assets.Dir with embedded fallback.
	Assets assets.AssetLoader

	// Chain overrides the filter chain. Nil uses filters.Default.
	Chain filters.Chain

	// Cache stores converted images. Nil uses a cache rooted at
	// Layout.GeneratedResources.
	Cache *artifact.Cache

	Reporter report.Reporter

	// Workers bounds concurrent bibliography conversions.
	Workers int
}

// Name implements Converter.
func (c *MarkdownToLaTeX) Name() Name { return MarkdownToLaTeXName }

// Outputs lists the files Convert writes for input.
type Outputs struct {
	Body     string // document body without front matter
	Metadata string
	Content  string
	LaTeX    string
}

// OutputsFor returns the output paths for input inside the stage directory.
func (c *MarkdownToLaTeX) OutputsFor(input string) Outputs {
	dir := c.Layout.PandocOutput
	return Outputs{
		Body:     filepath.Join(dir, fileutil.ReplaceExt(input, ".body.md")),
		Metadata: filepath.Join(dir, fileutil.ReplaceExt(input, ".metadata.json")),
		Content:  filepath.Join(dir, fileutil.ReplaceExt(input, ".content.json")),
		LaTeX:    filepath.Join(dir, fileutil.ReplaceExt(input, ".tex")),
	}
}

// Convert implements Converter. It returns the path of the .tex file.
func (c *MarkdownToLaTeX) Convert(ctx context.Context, input string) (string, error) {
	rep := c.reporter()
	out := c.OutputsFor(input)

	if err := c.Layout.Ensure(); err != nil {
		return "", wrap(MarkdownToLaTeXName, ErrPrepare, err)
	}

	style, err := c.Settings.ResolveStyle()
	if err != nil {
		return "", wrap(MarkdownToLaTeXName, ErrPrepare, err)
	}

	loader, err := c.loader()
	if err != nil {
		return "", wrap(MarkdownToLaTeXName, ErrPrepare, err)
	}
	rep.Step("Preparing template and filters")
	mat, err := assets.Materialize(loader, c.Layout.ScholarOutput, style.Template, filters.LuaFilterNames())
	if err != nil {
		return "", wrap(MarkdownToLaTeXName, ErrPrepare, err)
	}

	chain := c.chain(input, mat.FilterDir)
	if err := chain.Validate(); err != nil {
		return "", wrap(MarkdownToLaTeXName, ErrPrepare, err)
	}
	if missing := chain.MissingPrograms(); len(missing) > 0 {
		return "", wrap(MarkdownToLaTeXName, ErrPrepare, fmt.Errorf("filter programs not found: %s", strings.Join(missing, ", ")))
	}

	if c.Settings.TitlePage != "" {
		rep.Step("Extracting the title page")
		if err := fileutil.CopyFile(c.Settings.TitlePage, c.Layout.TitlePageFile()); err != nil {
			return "", wrap(MarkdownToLaTeXName, ErrPrepare, err)
		}
	}

	rep.Step("Generating BibLaTeX from references")
	if err := c.renderBibliography(ctx, c.Settings.ReferenceIDs(), c.Layout.BibliographyFile()); err != nil {
		return "", asStageError(MarkdownToLaTeXName, ErrBibliography, err)
	}

	rep.Step("Generating Pandoc JSON from settings")
	meta, err := buildMetadata(metadataInput{
		Settings:  c.Settings,
		Style:     style,
		Layout:    c.Layout,
		CWD:       c.CWD,
		TitlePage: c.Settings.TitlePage != "",
	})
	if err != nil {
		return "", wrap(MarkdownToLaTeXName, ErrUnsafeLaTeXPath, err)
	}
	if err := writeMetadata(out.Metadata, meta); err != nil {
		return "", wrap(MarkdownToLaTeXName, ErrPrepare, err)
	}

	if err := c.writeBody(input, out.Body); err != nil {
		return "", wrap(MarkdownToLaTeXName, ErrPrepare, err)
	}

	rep.Step("Running Pandoc to generate Pandoc JSON from content")
	if err := c.generateContent(ctx, input, out); err != nil {
		return "", err
	}

	if len(chain.Native()) > 0 {
		rep.Step("Applying filters to Pandoc JSON")
		if err := chain.ApplyNative(ctx, out.Content); err != nil {
			return "", wrap(MarkdownToLaTeXName, ErrFilter, err)
		}
		if hits, misses := c.cache().Stats(); hits+misses > 0 {
			rep.Detail("converted images: %d reused, %d generated", hits, misses)
		}
	}
	if err := pandoc.SyncAPIVersion(out.Metadata, out.Content); err != nil {
		return "", wrap(MarkdownToLaTeXName, ErrContentGeneration, err)
	}

	rep.Step("Running Pandoc to generate LaTeX from Pandoc JSONs")
	if err := c.render(ctx, mat.Template, chain, out); err != nil {
		return "", err
	}
	return out.LaTeX, nil
}

// writeBody writes the document without its front matter. Blank lines
// replace the removed block so pandoc diagnostics keep source line numbers.
func (c *MarkdownToLaTeX) writeBody(input, path string) error {
	doc, err := os.ReadFile(input) // #nosec G304 -- user-selected input document
	if err != nil {
		return err
	}
	_, body, err := frontmatter.Split(doc)
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}
	return fileutil.WriteFileAtomic(path, body)
}

func (c *MarkdownToLaTeX) generateContent(ctx context.Context, input string, out Outputs) error {
	args := []string{"--from", pandoc.MarkdownFormat(), "--to", pandoc.FormatJSON}
	args = append(args, pandoc.ReaderArgs(c.Layout.ExtractedResources)...)
	args = append(args,
		"--resource-path", strings.Join(c.resourceDirs(input), string(filepath.ListSeparator)),
		"--output", out.Content,
		out.Body,
	)

	// A stale content document must not survive a failed run.
	_ = os.Remove(out.Content)
	res, err := execute(ctx, c.Runner, c.reporter(), runner.Command{Name: c.Settings.Tools.Pandoc, Args: args})
	if err != nil {
		return wrap(MarkdownToLaTeXName, ErrContentGeneration, err)
	}
	if !res.OK() {
		return failed(MarkdownToLaTeXName, ErrContentGeneration, res)
	}
	if !fileutil.FileExists(out.Content) {
		return wrap(MarkdownToLaTeXName, ErrContentGeneration, fmt.Errorf("pandoc wrote no %s", out.Content))
	}
	return nil
}

func (c *MarkdownToLaTeX) render(ctx context.Context, template string, chain filters.Chain, out Outputs) error {
	args := []string{
		"--from", pandoc.FormatJSON,
		"--to", pandoc.FormatLaTeX,
		"--standalone",
		"--template", template,
	}
	args = append(args, pandoc.WriterArgs()...)
	args = append(args, chain.Args()...)
	// The last input wins for keys present in both documents.
	args = append(args, "--output", out.LaTeX, out.Content, out.Metadata)

	_ = os.Remove(out.LaTeX)
	res, err := execute(ctx, c.Runner, c.reporter(), runner.Command{Name: c.Settings.Tools.Pandoc, Args: args})
	if err != nil {
		return wrap(MarkdownToLaTeXName, ErrRender, err)
	}
	if !res.OK() {
		_ = os.Remove(out.LaTeX)
		return failed(MarkdownToLaTeXName, ErrRender, res)
	}
	if !fileutil.FileExists(out.LaTeX) {
		return wrap(MarkdownToLaTeXName, ErrRender, fmt.Errorf("pandoc wrote no %s", out.LaTeX))
	}
	return nil
}

// resourceDirs are searched for images referenced by relative paths.
func (c *MarkdownToLaTeX) resourceDirs(input string) []string {
	dirs := []string{filepath.Dir(input)}
	if c.CWD != "" && !fileutil.SameFile(c.CWD, dirs[0]) {
		dirs = append(dirs, c.CWD)
	}
	return dirs
}

func (c *MarkdownToLaTeX) loader() (assets.AssetLoader, error) {
	if c.Assets != nil {
		return c.Assets, nil
	}
	return assets.NewAssetResolver(c.Settings.Assets.Dir)
}

func (c *MarkdownToLaTeX) cache() *artifact.Cache {
	if c.Cache == nil {
		c.Cache = artifact.New(c.Layout.GeneratedResources)
	}
	return c.Cache
}

func (c *MarkdownToLaTeX) chain(input, filterDir string) filters.Chain {
	if c.Chain != nil {
		return c.Chain
	}
	rep := c.reporter()
	svg := &filters.SVGToPDF{
		Cache:        c.cache(),
		Runner:       c.Runner,
		Program:      c.Settings.Tools.RsvgConvert,
		DPI:          c.Settings.SVG.DPI,
		ResourceDirs: append([]string{c.Layout.ExtractedResources}, c.resourceDirs(input)...),
		OnConvert: func(res *runner.Result) {
			rep.Detail("%s (exit code %d)", res.Command, res.ExitCode)
		},
	}
	return filters.Default(filterDir, svg)
}

func (c *MarkdownToLaTeX) reporter() report.Reporter {
	return reporterOrNop(c.Reporter)
}

// asStageError returns err as is when it already is an *Error, and wraps
// it with sentinel otherwise.
func asStageError(stage Name, sentinel, err error) error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return wrap(stage, sentinel, err)
}

// Compile-time interface check.
var _ Converter = (*MarkdownToLaTeX)(nil)
