// Package preflight scans a Markdown document for constructs that pandoc
// or LaTeX will reject or silently drop, before any external tool runs.
//
// The scan is advisory: it never fails a conversion. Findings carry the
// source line so they can be reported next to the document.
package preflight

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/alnah/go-scholar/internal/fileutil"
)

// Kind classifies a finding.
type Kind string

const (
	MissingImage     Kind = "missing-image"
	UnsupportedImage Kind = "unsupported-image"
	RawHTML          Kind = "raw-html"
	UnknownLanguage  Kind = "unknown-language"
	NoHighlighting   Kind = "no-highlighting"
	MissingInclude   Kind = "missing-include"
	DemotedHeading   Kind = "demoted-heading"
)

// Finding is one problem found in the document.
type Finding struct {
	Line    int // 1-based; 0 when the finding concerns the whole document
	Kind    Kind
	Message string
}

func (f Finding) String() string {
	if f.Line == 0 {
		return f.Message
	}
	return fmt.Sprintf("line %d: %s", f.Line, f.Message)
}

// Options configure a scan.
type Options struct {
	// ResourceDirs resolve relative image targets, first match wins.
	ResourceDirs []string

	// CWD resolves the include attribute of code blocks.
	CWD string

	// ShellEscape reports whether code blocks will be highlighted by
	// minted, which rejects unknown languages.
	ShellEscape bool
}

// imageExts are the formats the LaTeX engines include directly, plus SVG
// which is converted before typesetting.
var imageExts = []string{".pdf", ".png", ".jpg", ".jpeg", ".eps", ".svg"}

// Scanner parses documents with the CommonMark extensions pandoc is
// configured with. It is safe for concurrent use.
type Scanner struct {
	md goldmark.Markdown
}

// NewScanner creates a Scanner.
func NewScanner() *Scanner {
	return &Scanner{md: goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.Footnote,
		),
	)}
}

// Scan returns the findings for source, ordered by line.
func (s *Scanner) Scan(ctx context.Context, source []byte, opts Options) ([]Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := s.md.Parser().Parse(text.NewReader(source))
	w := &walker{src: source, opts: opts}

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if err := ctx.Err(); err != nil {
			return ast.WalkStop, err
		}
		w.visit(n)
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	if w.codeBlocks > 0 && !opts.ShellEscape {
		w.add(0, NoHighlighting, fmt.Sprintf("%d code block(s) will be typeset without syntax highlighting", w.codeBlocks))
	}
	slices.SortStableFunc(w.findings, func(a, b Finding) int { return a.Line - b.Line })
	return w.findings, nil
}

type walker struct {
	src        []byte
	opts       Options
	findings   []Finding
	codeBlocks int
	blocks     int
}

func (w *walker) add(line int, kind Kind, msg string) {
	w.findings = append(w.findings, Finding{Line: line, Kind: kind, Message: msg})
}

func (w *walker) visit(n ast.Node) {
	if n.Type() == ast.TypeBlock && n.Parent() != nil && n.Parent().Kind() == ast.KindDocument {
		w.blocks++
	}

	switch n := n.(type) {
	case *ast.Heading:
		// Pandoc runs with --shift-heading-level-by -1: a leading level-1
		// heading becomes the title, later ones become paragraphs.
		if n.Level == 1 && w.blocks > 1 {
			w.add(w.line(n), DemotedHeading, "level-1 heading after the document start is rendered as a paragraph; use ## for sections")
		}
	case *ast.FencedCodeBlock:
		w.codeBlock(n)
	case *ast.CodeBlock:
		w.codeBlocks++
	case *ast.Image:
		w.image(w.line(n), string(n.Destination))
	case *ast.HTMLBlock:
		var raw bytes.Buffer
		for i := 0; i < n.Lines().Len(); i++ {
			seg := n.Lines().At(i)
			raw.Write(seg.Value(w.src))
		}
		w.html(w.line(n), raw.String())
	case *ast.RawHTML:
		var raw bytes.Buffer
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			raw.Write(seg.Value(w.src))
		}
		w.html(w.line(n), raw.String())
	}
}

func (w *walker) codeBlock(n *ast.FencedCodeBlock) {
	w.codeBlocks++
	line := w.line(n)
	var info string
	if n.Info != nil {
		info = strings.TrimSpace(string(n.Info.Segment.Value(w.src)))
	}
	lang, attrs := parseInfo(info)

	if include, ok := attrs["include"]; ok {
		p := include
		if !filepath.IsAbs(p) && w.opts.CWD != "" {
			p = filepath.Join(w.opts.CWD, p)
		}
		if !fileutil.FileExists(p) {
			w.add(line, MissingInclude, fmt.Sprintf("included file %s not found", include))
		}
	}
	if lang != "" && w.opts.ShellEscape && lexers.Get(lang) == nil {
		w.add(line, UnknownLanguage, fmt.Sprintf("no highlighter for code block language %q", lang))
	}
}

func (w *walker) image(line int, target string) {
	if target == "" || isRemote(target) {
		return
	}
	p, err := url.PathUnescape(target)
	if err != nil {
		p = target
	}
	ext := strings.ToLower(filepath.Ext(p))
	if !slices.Contains(imageExts, ext) {
		w.add(line, UnsupportedImage, fmt.Sprintf("image %s: format %q cannot be included by LaTeX", target, ext))
	}
	if _, ok := resolve(p, w.opts.ResourceDirs); !ok {
		w.add(line, MissingImage, fmt.Sprintf("image %s not found", target))
	}
}

func (w *walker) html(line int, raw string) {
	images := htmlImages(raw)
	for _, src := range images {
		w.add(line, RawHTML, fmt.Sprintf("HTML image %s is dropped from LaTeX output; use Markdown image syntax", src))
	}
	if len(images) == 0 && !ignorableHTML(raw) {
		w.add(line, RawHTML, "raw HTML is dropped from LaTeX output")
	}
}

// line returns the first source line of n, walking up to the enclosing
// block for inline nodes.
func (w *walker) line(n ast.Node) int {
	for cur := n; cur != nil; cur = cur.Parent() {
		if fc, ok := cur.(*ast.FencedCodeBlock); ok && fc.Info != nil {
			return lineOf(w.src, fc.Info.Segment.Start)
		}
		if cur.Type() == ast.TypeBlock && cur.Lines().Len() > 0 {
			return lineOf(w.src, cur.Lines().At(0).Start)
		}
	}
	return 0
}

func lineOf(src []byte, offset int) int {
	if offset > len(src) {
		offset = len(src)
	}
	return bytes.Count(src[:offset], []byte("\n")) + 1
}

// parseInfo splits a fence info string into the language and the
// key=value attributes of pandoc's {.lang key=value} form.
func parseInfo(info string) (string, map[string]string) {
	attrs := map[string]string{}
	if !strings.HasPrefix(info, "{") {
		lang, _, _ := strings.Cut(info, " ")
		return lang, attrs
	}
	var lang string
	for _, tok := range strings.Fields(strings.Trim(info, "{}")) {
		switch {
		case strings.HasPrefix(tok, ".") && lang == "":
			lang = tok[1:]
		case strings.Contains(tok, "="):
			k, v, _ := strings.Cut(tok, "=")
			attrs[k] = strings.Trim(v, `"'`)
		}
	}
	return lang, attrs
}

func resolve(target string, dirs []string) (string, bool) {
	p := filepath.FromSlash(target)
	if filepath.IsAbs(p) {
		return p, fileutil.FileExists(p)
	}
	for _, d := range dirs {
		if c := filepath.Join(d, p); fileutil.FileExists(c) {
			return c, true
		}
	}
	return "", false
}

func isRemote(target string) bool {
	u, err := url.Parse(target)
	return err == nil && len(u.Scheme) > 1
}

// ignorableHTML reports comments and closing tags, whose opening
// counterpart is already reported.
func ignorableHTML(raw string) bool {
	s := strings.TrimSpace(raw)
	return s == "" || strings.HasPrefix(s, "</") ||
		(strings.HasPrefix(s, "<!--") && strings.HasSuffix(s, "-->"))
}
