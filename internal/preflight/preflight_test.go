package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type hit struct {
	Line int
	Kind Kind
}

func hits(findings []Finding) []hit {
	out := make([]hit, 0, len(findings))
	for _, f := range findings {
		out = append(out, hit{f.Line, f.Kind})
	}
	return out
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// document lines are numbered in the comments.
var document = strings.Join([]string{
	"# Title",                                            // 1
	"",                                                   // 2
	"Intro ![a](fig.png) and ![r](https://x.org/y.png).", // 3
	"",                                                   // 4
	"![missing](gone.svg)",                               // 5
	"",                                                   // 6
	"![gif](anim.gif)",                                   // 7
	"",                                                   // 8
	"```python",                                          // 9
	"print(1)",                                           // 10
	"```",                                                // 11
	"",                                                   // 12
	"```{.nosuchlang include=missing.py}",                // 13
	"x",                                                  // 14
	"```",                                                // 15
	"",                                                   // 16
	"<div>raw</div>",                                     // 17
	"",                                                   // 18
	`<img src="pic.png">`,                                // 19
	"",                                                   // 20
	"# Second",                                           // 21
	"",
}, "\n")

func TestScan(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, "fig.png", "anim.gif")

	tests := []struct {
		name        string
		shellEscape bool
		want        []hit
	}{
		{
			name:        "with shell escape",
			shellEscape: true,
			want: []hit{
				{5, MissingImage},
				{7, UnsupportedImage},
				{13, MissingInclude},
				{13, UnknownLanguage},
				{17, RawHTML},
				{19, RawHTML},
				{21, DemotedHeading},
			},
		},
		{
			name: "without shell escape",
			want: []hit{
				{0, NoHighlighting},
				{5, MissingImage},
				{7, UnsupportedImage},
				{13, MissingInclude},
				{17, RawHTML},
				{19, RawHTML},
				{21, DemotedHeading},
			},
		},
	}

	s := NewScanner()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := s.Scan(context.Background(), []byte(document), Options{
				ResourceDirs: []string{dir},
				CWD:          dir,
				ShellEscape:  tt.shellEscape,
			})
			if err != nil {
				t.Fatalf("Scan() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, hits(got)); diff != "" {
				t.Errorf("findings mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScan_Clean(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, "a.pdf", "code.go")
	doc := "# Title\n\n## Part\n\n![a](a.pdf)\n\n```{.go include=code.go}\n```\n\n<!-- note -->\n"

	got, err := NewScanner().Scan(context.Background(), []byte(doc), Options{
		ResourceDirs: []string{dir},
		CWD:          dir,
		ShellEscape:  true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("Scan() = %v, want no findings", got)
	}
}

func TestScan_ResourceDirOrder(t *testing.T) {
	t.Parallel()

	first, second := t.TempDir(), t.TempDir()
	writeFiles(t, second, "only-here.png")

	got, err := NewScanner().Scan(context.Background(), []byte("![x](only-here.png)\n"), Options{
		ResourceDirs: []string{first, second},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("image in a later resource dir reported: %v", got)
	}
}

func TestScan_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewScanner().Scan(ctx, []byte("# x\n"), Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Scan() error = %v, want context.Canceled", err)
	}
}

func TestParseInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		info      string
		wantLang  string
		wantAttrs map[string]string
	}{
		{"", "", map[string]string{}},
		{"python", "python", map[string]string{}},
		{"go linenos", "go", map[string]string{}},
		{"{.lua include=f.lua start-line=2}", "lua", map[string]string{"include": "f.lua", "start-line": "2"}},
		{`{.c .numberLines include="src/a.c"}`, "c", map[string]string{"include": "src/a.c"}},
	}
	for _, tt := range tests {
		lang, attrs := parseInfo(tt.info)
		if lang != tt.wantLang {
			t.Errorf("parseInfo(%q) lang = %q, want %q", tt.info, lang, tt.wantLang)
		}
		if diff := cmp.Diff(tt.wantAttrs, attrs); diff != "" {
			t.Errorf("parseInfo(%q) attrs mismatch (-want +got):\n%s", tt.info, diff)
		}
	}
}

func TestHTMLImages(t *testing.T) {
	t.Parallel()

	got := htmlImages(`<p><img src="a.png"><span><img alt="x" src="b.jpg"></span><img></p>`)
	if diff := cmp.Diff([]string{"a.png", "b.jpg"}, got); diff != "" {
		t.Errorf("htmlImages() mismatch (-want +got):\n%s", diff)
	}
	if got := htmlImages("<div>text</div>"); len(got) != 0 {
		t.Errorf("htmlImages() = %v, want none", got)
	}
}

func TestFindingString(t *testing.T) {
	t.Parallel()

	if got := (Finding{Line: 4, Message: "m"}).String(); got != "line 4: m" {
		t.Errorf("String() = %q", got)
	}
	if got := (Finding{Message: "m"}).String(); got != "m" {
		t.Errorf("String() = %q", got)
	}
}
