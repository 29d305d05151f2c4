// Package workspace lays out the cache directory tree shared by both stages:
//
//	{root}/                          default <cwd>/.scholar
//	  md-to-tex-cache/
//	    scholar-output/              template, filters, bibliography, title page
//	    pandoc-output/               metadata, content and .tex documents
//	    extracted-resources/         media extracted by pandoc
//	    generated-resources/         artifact cache (converted images)
//	  tex-to-pdf-cache/
//	    latexmk-output/              latexmk build directory
//
// Directories are created on demand; none must exist beforehand.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alnah/go-scholar/internal/fileutil"
)

// Layout holds the absolute paths of the cache tree.
type Layout struct {
	Root string

	MarkdownToLaTeX    string
	ScholarOutput      string
	PandocOutput       string
	ExtractedResources string
	GeneratedResources string

	LaTeXToPDF    string
	LatexmkOutput string
}

// New computes the layout under root without touching the filesystem.
func New(root string) Layout {
	md := filepath.Join(root, "md-to-tex-cache")
	tex := filepath.Join(root, "tex-to-pdf-cache")
	return Layout{
		Root:               root,
		MarkdownToLaTeX:    md,
		ScholarOutput:      filepath.Join(md, "scholar-output"),
		PandocOutput:       filepath.Join(md, "pandoc-output"),
		ExtractedResources: filepath.Join(md, "extracted-resources"),
		GeneratedResources: filepath.Join(md, "generated-resources"),
		LaTeXToPDF:         tex,
		LatexmkOutput:      filepath.Join(tex, "latexmk-output"),
	}
}

// BibliographyFile is the generated biblatex resource.
func (l Layout) BibliographyFile() string {
	return filepath.Join(l.ScholarOutput, "bibliography.bib")
}

// TitlePageFile is where the configured title page is copied.
func (l Layout) TitlePageFile() string {
	return filepath.Join(l.ScholarOutput, "title-page.pdf")
}

// Dirs returns every leaf directory of the layout.
func (l Layout) Dirs() []string {
	return []string{
		l.ScholarOutput,
		l.PandocOutput,
		l.ExtractedResources,
		l.GeneratedResources,
		l.LatexmkOutput,
	}
}

// Ensure creates every directory of the layout. It is idempotent.
func (l Layout) Ensure() error {
	for _, d := range l.Dirs() {
		if err := os.MkdirAll(d, fileutil.DirPerm); err != nil {
			return fmt.Errorf("creating cache directory %s: %w", d, err)
		}
	}
	return nil
}

// EnsureWritable creates the layout and verifies files can be written in
// its root. Used by diagnostics.
func (l Layout) EnsureWritable() error {
	if err := l.Ensure(); err != nil {
		return err
	}
	f, err := os.CreateTemp(l.Root, ".write-check-*")
	if err != nil {
		return fmt.Errorf("cache directory %s is not writable: %w", l.Root, err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
