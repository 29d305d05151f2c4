// Package styles defines the document style presets. Every preset is a
// GOST layout built by the same constructor and differs only in its
// layout variables.
package styles

import (
	"errors"
	"fmt"
	"slices"
)

// ErrStyleNotFound indicates the requested style is not registered.
var ErrStyleNotFound = errors.New("style not found")

// Default is the style used when none is configured.
const Default = "gost_thesis"

// TemplateName is the embedded pandoc template shared by all presets.
const TemplateName = "scholar"

// Variables are the layout switches forwarded to the template.
type Variables struct {
	DisableMainSectionNumbering   bool
	DisableSectionPageBreaks      bool
	DisableNumberingWithinSection bool
}

// Map returns the variables keyed by their template names.
func (v Variables) Map() map[string]any {
	return map[string]any{
		"disable_main_section_numbering":   v.DisableMainSectionNumbering,
		"disable_section_page_breaks":      v.DisableSectionPageBreaks,
		"disable_numbering_within_section": v.DisableNumberingWithinSection,
	}
}

// Overrides selectively replaces variables; nil fields keep the preset value.
type Overrides struct {
	DisableMainSectionNumbering   *bool
	DisableSectionPageBreaks      *bool
	DisableNumberingWithinSection *bool
}

// Style is a named preset.
type Style struct {
	Name      string
	Template  string
	Variables Variables
}

// With returns a copy of s with o applied.
func (s Style) With(o Overrides) Style {
	if o.DisableMainSectionNumbering != nil {
		s.Variables.DisableMainSectionNumbering = *o.DisableMainSectionNumbering
	}
	if o.DisableSectionPageBreaks != nil {
		s.Variables.DisableSectionPageBreaks = *o.DisableSectionPageBreaks
	}
	if o.DisableNumberingWithinSection != nil {
		s.Variables.DisableNumberingWithinSection = *o.DisableNumberingWithinSection
	}
	return s
}

func gost(name string, v Variables) Style {
	return Style{Name: name, Template: TemplateName, Variables: v}
}

var registry = map[string]Style{
	"gost_thesis": gost("gost_thesis", Variables{}),
	"gost_report": gost("gost_report", Variables{
		DisableMainSectionNumbering:   true,
		DisableSectionPageBreaks:      true,
		DisableNumberingWithinSection: true,
	}),
}

// Lookup returns the preset registered under name.
func Lookup(name string) (Style, error) {
	s, ok := registry[name]
	if !ok {
		return Style{}, fmt.Errorf("%w: %q", ErrStyleNotFound, name)
	}
	return s, nil
}

// Names returns the registered style names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
