//go:build integration

package scholar

// Notes:
// - Runs the real toolchain; each test skips when a program is missing.
// - The full conversion needs a TeX distribution with the packages the
//   template loads (extsizes, fontspec, biblatex).

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const integrationTimeout = 5 * time.Minute

func requireTools(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not found on PATH", name)
		}
	}
}

func writeDoc(t *testing.T, dir string) string {
	t.Helper()
	doc := "---\ntitle: Integration\nauthor: Tester\n---\n\n# Introduction\n\nPlain text with *emphasis*.\n"
	p := filepath.Join(dir, "doc.md")
	if err := os.WriteFile(p, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// ---------------------------------------------------------------------------
// TestIntegration - Real pandoc and latexmk
// ---------------------------------------------------------------------------

func TestIntegration_ToTeX(t *testing.T) {
	requireTools(t, "pandoc")

	dir := t.TempDir()
	input := writeDoc(t, dir)
	conv, err := NewConverter(WithWorkingDir(dir), WithLookupEnv(func(string) (string, bool) { return "", false }))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), integrationTimeout)
	defer cancel()

	res, err := conv.Convert(ctx, Request{Input: input, Mode: ModeToTeX})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	tex, err := os.ReadFile(res.Output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(tex), `\begin{document}`) {
		t.Error("output is not a standalone LaTeX document")
	}
}

func TestIntegration_Full(t *testing.T) {
	requireTools(t, "pandoc", "latexmk", "xelatex")

	dir := t.TempDir()
	input := writeDoc(t, dir)
	conv, err := NewConverter(WithWorkingDir(dir), WithLookupEnv(func(string) (string, bool) { return "", false }))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), integrationTimeout)
	defer cancel()

	res, err := conv.Convert(ctx, Request{Input: input})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	pdf, err := os.ReadFile(res.Output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(pdf), "%PDF-") {
		t.Error("output does not start with a PDF header")
	}
}
