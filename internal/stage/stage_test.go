package stage

// Notes:
// - External tools are emulated by runnertest; every test gets its own
//   working directory and cache tree under t.TempDir().
// - Metadata assertions query the written JSON with gjson paths.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"

	"github.com/alnah/go-scholar/internal/filters"
	"github.com/alnah/go-scholar/internal/runner"
	"github.com/alnah/go-scholar/internal/runner/runnertest"
	"github.com/alnah/go-scholar/internal/settings"
	"github.com/alnah/go-scholar/internal/workspace"
)

type recorder struct {
	mu     sync.Mutex
	steps  []string
	warns  []string
	detail []string
}

func (r *recorder) Step(f string, a ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, fmt.Sprintf(f, a...))
}

func (r *recorder) Warn(f string, a ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warns = append(r.warns, fmt.Sprintf(f, a...))
}

func (r *recorder) Detail(f string, a ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detail = append(r.detail, fmt.Sprintf(f, a...))
}

type fixture struct {
	cwd    string
	input  string
	fake   *runnertest.Fake
	rep    *recorder
	layout workspace.Layout
	set    settings.Settings
}

func newFixture(t *testing.T, doc string) *fixture {
	t.Helper()
	cwd := t.TempDir()
	input := filepath.Join(cwd, "thesis.md")
	if err := os.WriteFile(input, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return &fixture{
		cwd:    cwd,
		input:  input,
		fake:   runnertest.NewToolchain(),
		rep:    &recorder{},
		layout: workspace.New(settings.DefaultCacheDir(cwd)),
		set:    settings.Default(cwd),
	}
}

func (f *fixture) markdown() *MarkdownToLaTeX {
	return &MarkdownToLaTeX{
		Runner:   f.fake,
		Settings: f.set,
		Layout:   f.layout,
		CWD:      f.cwd,
		Reporter: f.rep,
	}
}

func (f *fixture) latex() *LaTeXToPDF {
	return &LaTeXToPDF{
		Runner:   f.fake,
		Settings: f.set,
		Layout:   f.layout,
		CWD:      f.cwd,
		Reporter: f.rep,
	}
}

func pandocCall(t *testing.T, fake *runnertest.Fake, to string) runner.Command {
	t.Helper()
	for _, c := range fake.CallsTo("pandoc") {
		if runnertest.ArgValue(c.Args, "--to") == to && runnertest.ArgValue(c.Args, "--output") != "" {
			return c
		}
	}
	t.Fatalf("no pandoc run writing %s", to)
	return runner.Command{}
}

// failWhen wraps the default pandoc emulation, failing runs matching pred.
func failWhen(pred func(runner.Command) bool) runnertest.Handler {
	return func(cmd runner.Command) (*runner.Result, error) {
		if pred(cmd) {
			return &runner.Result{ExitCode: 64, Stderr: "pandoc: boom\nline 2"}, nil
		}
		return runnertest.Pandoc(cmd)
	}
}

// ---------------------------------------------------------------------------
// TestMarkdownToLaTeX - Markdown to LaTeX stage
// ---------------------------------------------------------------------------

func TestMarkdownToLaTeX_Convert(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "---\ntitle: Ignored here\n---\n# Intro\n\nText.\n")
	f.set.Title = "Thesis"
	f.set.References = map[string]string{"knuth": "Knuth, *TAOCP*", "abel": "Abel"}

	c := f.markdown()
	tex, err := c.Convert(context.Background(), f.input)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	out := c.OutputsFor(f.input)
	if tex != out.LaTeX || filepath.Dir(tex) != f.layout.PandocOutput {
		t.Errorf("Convert() = %s, want %s", tex, out.LaTeX)
	}
	if _, err := os.Stat(tex); err != nil {
		t.Errorf(".tex not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(f.cwd, "thesis.tex")); !os.IsNotExist(err) {
		t.Error("stage wrote next to the source document")
	}

	body, err := os.ReadFile(out.Body)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(body), "title:") || !strings.HasPrefix(string(body), "\n\n\n# Intro") {
		t.Errorf("body keeps front matter or line count:\n%q", body)
	}

	// Two bibliography runs plus content and render.
	if got := len(f.fake.CallsTo("pandoc")); got != 4 {
		t.Errorf("pandoc called %d times, want 4", got)
	}

	content := pandocCall(t, f.fake, "json")
	if runnertest.ArgValue(content.Args, "--extract-media") != f.layout.ExtractedResources {
		t.Errorf("content run args = %v", content.Args)
	}
	if content.Args[len(content.Args)-1] != out.Body {
		t.Errorf("content run reads %s, want body", content.Args[len(content.Args)-1])
	}

	render := pandocCall(t, f.fake, "latex")
	n := len(render.Args)
	if diff := cmp.Diff([]string{out.Content, out.Metadata}, render.Args[n-2:]); diff != "" {
		t.Errorf("render inputs mismatch (-want +got):\n%s", diff)
	}
	if tpl := runnertest.ArgValue(render.Args, "--template"); filepath.Base(tpl) != "scholar.tex" {
		t.Errorf("template = %s", tpl)
	}
	var lua int
	for _, a := range render.Args {
		if a == "--lua-filter" {
			lua++
		}
	}
	if lua != 12 {
		t.Errorf("render run has %d lua filters, want 12", lua)
	}
	if runnertest.ArgValue(render.Args, "--metadata") != "csquotes=true" {
		t.Error("render run lacks csquotes metadata")
	}

	meta, err := os.ReadFile(out.Metadata)
	if err != nil {
		t.Fatal(err)
	}
	checks := map[string]string{
		"meta.scholar.c.constants.c.biblatex_bibresource.c": ".scholar/md-to-tex-cache/scholar-output/bibliography.bib",
		"meta.scholar.c.settings.c.title.c":                 "Thesis",
		"meta.scholar.c.style.c.name.c":                     "gost_thesis",
		"meta.lang.c":                                       "ru",
		"meta.minted-package-option-outputdir.c":            ".scholar/tex-to-pdf-cache/latexmk-output",
	}
	for path, want := range checks {
		if got := gjson.GetBytes(meta, path).String(); got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
	if gjson.GetBytes(meta, "meta.scholar.c.constants.c.includepdf_title_page").Exists() {
		t.Error("title page constant set without a title page")
	}
}

func TestMarkdownToLaTeX_Bibliography(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "# Doc\n")
	f.set.References = map[string]string{"b": "Second", "a": "First"}

	if _, err := f.markdown().Convert(context.Background(), f.input); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(f.layout.BibliographyFile())
	if err != nil {
		t.Fatal(err)
	}
	want := "@scholar{a,\n    text = {\\emph{First}}\n}\n\n@scholar{b,\n    text = {\\emph{Second}}\n}\n"
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("bibliography mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkdownToLaTeX_EmptyBibliography(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "# Doc\n")
	if _, err := f.markdown().Convert(context.Background(), f.input); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(f.layout.BibliographyFile())
	if err != nil {
		t.Fatalf("bibliography not written: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("empty reference set wrote %d bytes", info.Size())
	}
}

func TestMarkdownToLaTeX_TitlePage(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "# Doc\n")
	titlePage := filepath.Join(f.cwd, "cover.pdf")
	if err := os.WriteFile(titlePage, []byte("%PDF-1.4 cover"), 0o644); err != nil {
		t.Fatal(err)
	}
	f.set.TitlePage = titlePage

	c := f.markdown()
	if _, err := c.Convert(context.Background(), f.input); err != nil {
		t.Fatal(err)
	}
	copied, err := os.ReadFile(f.layout.TitlePageFile())
	if err != nil || string(copied) != "%PDF-1.4 cover" {
		t.Errorf("title page not copied: %v", err)
	}
	meta, _ := os.ReadFile(c.OutputsFor(f.input).Metadata)
	got := gjson.GetBytes(meta, "meta.scholar.c.constants.c.includepdf_title_page.c").String()
	if got != ".scholar/md-to-tex-cache/scholar-output/title-page.pdf" {
		t.Errorf("includepdf_title_page = %q", got)
	}
}

func TestMarkdownToLaTeX_Failures(t *testing.T) {
	t.Parallel()

	isTo := func(to string) func(runner.Command) bool {
		return func(c runner.Command) bool {
			return runnertest.ArgValue(c.Args, "--to") == to && runnertest.ArgValue(c.Args, "--output") != ""
		}
	}
	isReference := func(c runner.Command) bool { return c.Stdin == "Broken" }

	tests := []struct {
		name    string
		fail    func(runner.Command) bool
		refs    map[string]string
		wantErr error
		wantMsg string
	}{
		{"content", isTo("json"), nil, ErrContentGeneration, "pandoc: boom"},
		{"render", isTo("latex"), nil, ErrRender, "exit code 64"},
		{"bibliography", isReference, map[string]string{"ok": "Fine", "bad": "Broken"}, ErrBibliography, `reference "bad"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, "# Doc\n")
			f.set.References = tt.refs
			f.fake.Handle("pandoc", failWhen(tt.fail))

			c := f.markdown()
			tex, err := c.Convert(context.Background(), f.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Convert() error = %v, want %v", err, tt.wantErr)
			}
			if tex != "" {
				t.Errorf("Convert() returned %q on failure", tex)
			}
			var se *Error
			if !errors.As(err, &se) {
				t.Fatalf("error %T is not *Error", err)
			}
			if se.Stage != MarkdownToLaTeXName || se.Result == nil || se.Result.ExitCode != 64 {
				t.Errorf("stage error = %+v", se)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q lacks %q", err, tt.wantMsg)
			}
			if _, err := os.Stat(c.OutputsFor(f.input).LaTeX); !os.IsNotExist(err) {
				t.Error("failed stage left a .tex file")
			}
		})
	}
}

func TestMarkdownToLaTeX_UnsafeCachePath(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "# Doc\n")
	f.layout = workspace.New(filepath.Join(f.cwd, "my cache"))

	_, err := f.markdown().Convert(context.Background(), f.input)
	if !errors.Is(err, ErrUnsafeLaTeXPath) {
		t.Fatalf("Convert() error = %v, want ErrUnsafeLaTeXPath", err)
	}
	if len(f.fake.CallsTo("pandoc")) != 0 {
		t.Error("pandoc ran despite an unsafe path")
	}
}

func TestMarkdownToLaTeX_UnknownStyle(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "# Doc\n")
	f.set.Style = "no_such_style"
	if _, err := f.markdown().Convert(context.Background(), f.input); !errors.Is(err, ErrPrepare) {
		t.Errorf("Convert() error = %v, want ErrPrepare", err)
	}
}

func TestMarkdownToLaTeX_MissingFilterProgram(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "# Doc\n")
	conv := f.markdown()
	conv.Chain = filters.Chain{{Name: "crossref", Kind: filters.JSON, Program: filepath.Join(f.cwd, "missing-filter")}}

	_, err := conv.Convert(context.Background(), f.input)
	if !errors.Is(err, ErrPrepare) || !strings.Contains(err.Error(), "missing-filter") {
		t.Errorf("Convert() error = %v, want ErrPrepare naming the program", err)
	}
	if len(f.fake.CallsTo("pandoc")) != 0 {
		t.Error("pandoc ran with an incomplete filter chain")
	}
}

func TestMarkdownToLaTeX_Canceled(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "# Doc\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.markdown().Convert(ctx, f.input)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Convert() error = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// TestLaTeXToPDF - latexmk stage
// ---------------------------------------------------------------------------

func TestLaTeXToPDF_Args(t *testing.T) {
	t.Parallel()

	tests := []struct {
		engine      string
		shellEscape bool
		wantFlag    string
	}{
		{"xelatex", false, "-xelatex"},
		{"lualatex", true, "-lualatex"},
		{"pdflatex", false, "-pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.engine, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, "")
			f.set.LaTeX.Engine = tt.engine
			f.set.LaTeX.ShellEscape = tt.shellEscape
			c := f.latex()

			args, err := c.Args("doc.tex")
			if err != nil {
				t.Fatal(err)
			}
			want := []string{tt.wantFlag, "-bibtex", "-interaction=nonstopmode", "-halt-on-error", "-file-line-error", "-quiet"}
			if tt.shellEscape {
				want = append(want, "-shell-escape")
			}
			want = append(want, "-output-directory="+f.layout.LatexmkOutput, "doc.tex")
			if diff := cmp.Diff(want, args); diff != "" {
				t.Errorf("Args() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLaTeXToPDF_UnknownEngine(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	f.set.LaTeX.Engine = "context"
	if _, err := f.latex().Convert(context.Background(), "doc.tex"); !errors.Is(err, ErrTypeset) {
		t.Errorf("Convert() error = %v, want ErrTypeset", err)
	}
}

func TestLaTeXToPDF_Convert(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	tex := filepath.Join(f.cwd, "thesis.tex")
	c := f.latex()

	pdf, err := c.Convert(context.Background(), tex)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if pdf != filepath.Join(f.layout.LatexmkOutput, "thesis.pdf") {
		t.Errorf("Convert() = %s", pdf)
	}
	calls := f.fake.CallsTo("latexmk")
	if len(calls) != 1 || calls[0].Dir != f.cwd {
		t.Fatalf("latexmk calls = %+v", calls)
	}
	for _, a := range calls[0].Args {
		if a == "-shell-escape" {
			t.Error("shell escape passed without opt-in")
		}
	}
	if len(f.rep.warns) != 0 {
		t.Errorf("unexpected warnings: %v", f.rep.warns)
	}
}

func TestLaTeXToPDF_ShellEscapeWarns(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	f.set.LaTeX.ShellEscape = true
	if _, err := f.latex().Convert(context.Background(), filepath.Join(f.cwd, "a.tex")); err != nil {
		t.Fatal(err)
	}
	if len(f.rep.warns) != 1 || !strings.Contains(f.rep.warns[0], "shell escape") {
		t.Errorf("warnings = %v, want one shell escape warning", f.rep.warns)
	}
}

func TestLaTeXToPDF_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler runnertest.Handler
		wantMsg string
	}{
		{
			name: "non-zero exit",
			handler: func(runner.Command) (*runner.Result, error) {
				return &runner.Result{ExitCode: 12, Stdout: "./thesis.tex:3: Undefined control sequence."}, nil
			},
			wantMsg: "Undefined control sequence",
		},
		{
			name: "no pdf",
			handler: func(runner.Command) (*runner.Result, error) {
				return &runner.Result{}, nil
			},
			wantMsg: "latexmk wrote no",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, "")
			f.fake.Handle("latexmk", tt.handler)
			_, err := f.latex().Convert(context.Background(), filepath.Join(f.cwd, "thesis.tex"))
			if !errors.Is(err, ErrTypeset) {
				t.Fatalf("Convert() error = %v, want ErrTypeset", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) || !strings.HasPrefix(err.Error(), "latex-to-pdf stage:") {
				t.Errorf("error %q", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestError - Stage error rendering
// ---------------------------------------------------------------------------

func TestError_Message(t *testing.T) {
	t.Parallel()

	res := &runner.Result{Command: "pandoc --to json in.md", ExitCode: 2, Stderr: "a\n\nb\n"}
	err := &Error{Stage: MarkdownToLaTeXName, Err: ErrContentGeneration, Result: res}
	want := "markdown-to-latex stage: content generation failed: exit code 2\n  command: pandoc --to json in.md\n  | a\n  | b"
	if diff := cmp.Diff(want, err.Error()); diff != "" {
		t.Errorf("Error() mismatch (-want +got):\n%s", diff)
	}

	cause := errors.New("disk full")
	wrapped := wrap(LaTeXToPDFName, ErrPrepare, cause)
	if !errors.Is(wrapped, ErrPrepare) || !errors.Is(wrapped, cause) {
		t.Error("wrap() must expose sentinel and cause")
	}
}

func TestLatexPath(t *testing.T) {
	t.Parallel()

	cwd := filepath.FromSlash("/work")
	tests := []struct {
		target  string
		want    string
		wantErr bool
	}{
		{"/work/.scholar/a.bib", ".scholar/a.bib", false},
		{"/work/sub dir/a.bib", "", true},
		{"/work/a%b.bib", "", true},
		{"/elsewhere/x.pdf", "../elsewhere/x.pdf", false},
	}
	for _, tt := range tests {
		got, err := latexPath(cwd, filepath.FromSlash(tt.target), "test")
		if (err != nil) != tt.wantErr {
			t.Errorf("latexPath(%s) error = %v, wantErr %v", tt.target, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrUnsafeLaTeXPath) {
			t.Errorf("latexPath(%s) error = %v, want ErrUnsafeLaTeXPath", tt.target, err)
		}
		if got != tt.want {
			t.Errorf("latexPath(%s) = %q, want %q", tt.target, got, tt.want)
		}
	}
}
