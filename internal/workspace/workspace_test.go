package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Parallel()

	root := filepath.Join("/work", ".scholar")
	l := New(root)

	want := map[string]string{
		l.ScholarOutput:      "md-to-tex-cache/scholar-output",
		l.PandocOutput:       "md-to-tex-cache/pandoc-output",
		l.ExtractedResources: "md-to-tex-cache/extracted-resources",
		l.GeneratedResources: "md-to-tex-cache/generated-resources",
		l.LatexmkOutput:      "tex-to-pdf-cache/latexmk-output",
		l.BibliographyFile(): "md-to-tex-cache/scholar-output/bibliography.bib",
		l.TitlePageFile():    "md-to-tex-cache/scholar-output/title-page.pdf",
	}
	for got, rel := range want {
		if got != filepath.Join(root, filepath.FromSlash(rel)) {
			t.Errorf("path %s, want %s under root", got, rel)
		}
	}
}

func TestEnsure(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "nested", ".scholar")
	l := New(root)

	for i := 0; i < 2; i++ {
		if err := l.Ensure(); err != nil {
			t.Fatalf("Ensure() call %d error = %v", i+1, err)
		}
	}
	for _, d := range l.Dirs() {
		info, err := os.Stat(d)
		if err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", d, err)
		}
		if !strings.HasPrefix(d, root) {
			t.Errorf("%s outside root", d)
		}
	}
}

func TestEnsureWritable(t *testing.T) {
	t.Parallel()

	l := New(filepath.Join(t.TempDir(), ".scholar"))
	if err := l.EnsureWritable(); err != nil {
		t.Fatalf("EnsureWritable() error = %v", err)
	}
	entries, _ := os.ReadDir(l.Root)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".write-check-") {
			t.Errorf("probe file %s left behind", e.Name())
		}
	}
}

func TestEnsure_RootIsFile(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), ".scholar")
	if err := os.WriteFile(root, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := New(root).Ensure(); err == nil {
		t.Error("Ensure() succeeded with a file in place of the root")
	}
}
