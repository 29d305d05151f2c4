package settings

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/alnah/go-scholar/internal/fileutil"
	"github.com/alnah/go-scholar/internal/styles"
)

const (
	minDPI = 1
	maxDPI = 2400
)

// referenceIDPattern restricts bibliography keys to what biblatex accepts
// without escaping.
var referenceIDPattern = regexp.MustCompile(`^[A-Za-z0-9_:.\-]+$`)

// Validate checks s against the rules that hold for every run in cwd.
// All problems are reported together.
func Validate(s Settings, cwd string) error {
	var issues []string
	add := func(format string, args ...any) {
		issues = append(issues, fmt.Sprintf(format, args...))
	}

	if _, err := styles.Lookup(s.Style); err != nil {
		add("style: unknown style %q (available: %s)", s.Style, strings.Join(styles.Names(), ", "))
	}

	if want := DefaultCacheDir(cwd); !samePath(s.Paths.CacheDir, want, cwd) {
		add("paths.cache_dir: %v: got %q, want %q", ErrUnsupportedCacheDir, s.Paths.CacheDir, want)
	}

	if !slices.Contains(Engines, s.LaTeX.Engine) {
		add("latex.engine: unsupported engine %q (want one of %s)", s.LaTeX.Engine, strings.Join(Engines, ", "))
	}

	if s.SVG.DPI < minDPI || s.SVG.DPI > maxDPI {
		add("svg.dpi: %d out of range %d-%d", s.SVG.DPI, minDPI, maxDPI)
	}

	if s.TitlePage != "" {
		p := s.TitlePage
		if !filepath.IsAbs(p) {
			p = filepath.Join(cwd, p)
		}
		switch {
		case !strings.EqualFold(filepath.Ext(p), ".pdf"):
			add("title_page: %q is not a PDF file", s.TitlePage)
		case !fileutil.FileExists(p):
			add("title_page: %q does not exist", s.TitlePage)
		}
	}

	for _, id := range s.ReferenceIDs() {
		if !referenceIDPattern.MatchString(id) {
			add("references: invalid id %q (allowed: letters, digits, _ : . -)", id)
		}
	}

	if s.Timeout < 0 {
		add("timeout: must not be negative, got %s", s.Timeout)
	}

	for key, v := range map[string]string{
		"tools.pandoc":       s.Tools.Pandoc,
		"tools.latexmk":      s.Tools.Latexmk,
		"tools.rsvg_convert": s.Tools.RsvgConvert,
	} {
		if strings.TrimSpace(v) == "" {
			add("%s: must not be empty", key)
		}
	}

	if len(issues) == 0 {
		return nil
	}
	slices.Sort(issues)
	return &ValidationError{Issues: issues}
}

func samePath(got, want, cwd string) bool {
	if got == "" {
		return false
	}
	if !filepath.IsAbs(got) {
		got = filepath.Join(cwd, got)
	}
	return filepath.Clean(got) == filepath.Clean(want)
}
