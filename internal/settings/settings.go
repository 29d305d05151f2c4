// Package settings resolves scholar's settings from an ordered list of
// sources (programmatic overrides, CLI, environment, secrets, document
// front matter, config file, defaults).
//
// # Precedence
//
// Sources are folded highest precedence first. The first source to set a
// leaf key wins; nested groups merge key by key. Every source is recorded,
// in order, so failures can name the sources that contributed data.
//
// # Unknown keys
//
// Keys outside the schema are found by a recursive diff against the schema
// tree. Depending on the Policy they either fail validation (Strict) or
// produce one warning per dotted path and are ignored (Permissive).
//
// A resolved Settings value is never modified afterwards; its maps must be
// treated as read-only by consumers.
package settings

import (
	"path/filepath"
	"slices"
	"time"

	"github.com/alnah/go-scholar/internal/styles"
)

// CacheDirName is the cache root created in the working directory.
const CacheDirName = ".scholar"

// Engines lists the LaTeX engines latexmk can drive.
var Engines = []string{"xelatex", "lualatex", "pdflatex"}

// Settings is the fully resolved configuration of one conversion.
type Settings struct {
	Style      string            `mapstructure:"style"`
	Title      string            `mapstructure:"title"`
	Subtitle   string            `mapstructure:"subtitle"`
	Author     []string          `mapstructure:"author"`
	Date       string            `mapstructure:"date"`
	Lang       string            `mapstructure:"lang"`
	TitlePage  string            `mapstructure:"title_page"`
	References map[string]string `mapstructure:"references"`
	Paths      Paths             `mapstructure:"paths"`
	Tools      Tools             `mapstructure:"tools"`
	LaTeX      LaTeX             `mapstructure:"latex"`
	SVG        SVG               `mapstructure:"svg"`
	Layout     Layout            `mapstructure:"layout"`
	Assets     Assets            `mapstructure:"assets"`
	Timeout    time.Duration     `mapstructure:"timeout"`
}

// Paths groups filesystem locations.
type Paths struct {
	CacheDir string `mapstructure:"cache_dir"`
}

// Tools names the external executables.
type Tools struct {
	Pandoc      string `mapstructure:"pandoc"`
	Latexmk     string `mapstructure:"latexmk"`
	RsvgConvert string `mapstructure:"rsvg_convert"`
}

// LaTeX configures the typesetting stage.
type LaTeX struct {
	Engine      string `mapstructure:"engine"`
	ShellEscape bool   `mapstructure:"shell_escape"`
}

// SVG configures vector image conversion.
type SVG struct {
	DPI int `mapstructure:"dpi"`
}

// Layout overrides style variables. Nil keeps the style's value.
type Layout struct {
	DisableMainSectionNumbering   *bool `mapstructure:"disable_main_section_numbering"`
	DisableSectionPageBreaks      *bool `mapstructure:"disable_section_page_breaks"`
	DisableNumberingWithinSection *bool `mapstructure:"disable_numbering_within_section"`
}

// Assets points at an optional directory overriding embedded assets.
type Assets struct {
	Dir string `mapstructure:"dir"`
}

// DefaultCacheDir returns the only supported cache root for cwd.
func DefaultCacheDir(cwd string) string {
	return filepath.Join(cwd, CacheDirName)
}

// Default returns the settings used when no source sets a value.
func Default(cwd string) Settings {
	return Settings{
		Style:      styles.Default,
		Lang:       "ru",
		References: map[string]string{},
		Paths:      Paths{CacheDir: DefaultCacheDir(cwd)},
		Tools: Tools{
			Pandoc:      "pandoc",
			Latexmk:     "latexmk",
			RsvgConvert: "rsvg-convert",
		},
		LaTeX: LaTeX{Engine: "xelatex"},
		SVG:   SVG{DPI: 72},
	}
}

// ResolveStyle returns the configured style with layout overrides applied.
func (s Settings) ResolveStyle() (styles.Style, error) {
	st, err := styles.Lookup(s.Style)
	if err != nil {
		return styles.Style{}, err
	}
	return st.With(styles.Overrides{
		DisableMainSectionNumbering:   s.Layout.DisableMainSectionNumbering,
		DisableSectionPageBreaks:      s.Layout.DisableSectionPageBreaks,
		DisableNumberingWithinSection: s.Layout.DisableNumberingWithinSection,
	}), nil
}

// ReferenceIDs returns the bibliography ids in sorted order.
func (s Settings) ReferenceIDs() []string {
	ids := make([]string, 0, len(s.References))
	for id := range s.References {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Map renders the settings as a nested map keyed like the config file.
// Unset layout overrides are omitted.
func (s Settings) Map() map[string]any {
	refs := make(map[string]any, len(s.References))
	for k, v := range s.References {
		refs[k] = v
	}
	authors := make([]any, 0, len(s.Author))
	for _, a := range s.Author {
		authors = append(authors, a)
	}
	layout := map[string]any{}
	putBool(layout, "disable_main_section_numbering", s.Layout.DisableMainSectionNumbering)
	putBool(layout, "disable_section_page_breaks", s.Layout.DisableSectionPageBreaks)
	putBool(layout, "disable_numbering_within_section", s.Layout.DisableNumberingWithinSection)

	return map[string]any{
		"style":      s.Style,
		"title":      s.Title,
		"subtitle":   s.Subtitle,
		"author":     authors,
		"date":       s.Date,
		"lang":       s.Lang,
		"title_page": s.TitlePage,
		"references": refs,
		"paths":      map[string]any{"cache_dir": s.Paths.CacheDir},
		"tools": map[string]any{
			"pandoc":       s.Tools.Pandoc,
			"latexmk":      s.Tools.Latexmk,
			"rsvg_convert": s.Tools.RsvgConvert,
		},
		"latex": map[string]any{
			"engine":       s.LaTeX.Engine,
			"shell_escape": s.LaTeX.ShellEscape,
		},
		"svg":     map[string]any{"dpi": s.SVG.DPI},
		"layout":  layout,
		"assets":  map[string]any{"dir": s.Assets.Dir},
		"timeout": s.Timeout.String(),
	}
}

func putBool(m map[string]any, key string, v *bool) {
	if v != nil {
		m[key] = *v
	}
}
