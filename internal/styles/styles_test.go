package styles

import (
	"errors"
	"slices"
	"testing"
)

// ---------------------------------------------------------------------------
// TestLookup - Preset variables
// ---------------------------------------------------------------------------

func TestLookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want Variables
	}{
		{name: "gost_thesis", want: Variables{}},
		{name: "gost_report", want: Variables{
			DisableMainSectionNumbering:   true,
			DisableSectionPageBreaks:      true,
			DisableNumberingWithinSection: true,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := Lookup(tt.name)
			if err != nil {
				t.Fatalf("Lookup(%q) error = %v", tt.name, err)
			}
			if s.Variables != tt.want {
				t.Errorf("Variables = %+v, want %+v", s.Variables, tt.want)
			}
			if s.Template != TemplateName {
				t.Errorf("Template = %q, want %q", s.Template, TemplateName)
			}
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	t.Parallel()

	_, err := Lookup("apa")
	if !errors.Is(err, ErrStyleNotFound) {
		t.Errorf("Lookup(apa) error = %v, want ErrStyleNotFound", err)
	}
}

func TestDefaultIsRegistered(t *testing.T) {
	t.Parallel()

	if !slices.Contains(Names(), Default) {
		t.Errorf("Names() = %v, missing default %q", Names(), Default)
	}
	if !slices.IsSorted(Names()) {
		t.Errorf("Names() = %v, want sorted", Names())
	}
}

// ---------------------------------------------------------------------------
// TestStyle_With - Variable overrides
// ---------------------------------------------------------------------------

func TestStyle_With(t *testing.T) {
	t.Parallel()

	yes := true
	base, _ := Lookup("gost_thesis")
	got := base.With(Overrides{DisableSectionPageBreaks: &yes})

	if !got.Variables.DisableSectionPageBreaks {
		t.Error("DisableSectionPageBreaks override not applied")
	}
	if got.Variables.DisableMainSectionNumbering || got.Variables.DisableNumberingWithinSection {
		t.Error("unset overrides must keep preset values")
	}
	if base.Variables.DisableSectionPageBreaks {
		t.Error("With must not mutate the registered preset")
	}
}

func TestVariables_Map(t *testing.T) {
	t.Parallel()

	m := Variables{DisableMainSectionNumbering: true}.Map()
	if m["disable_main_section_numbering"] != true {
		t.Errorf("disable_main_section_numbering = %v", m["disable_main_section_numbering"])
	}
	if len(m) != 3 {
		t.Errorf("len(Map()) = %d, want 3", len(m))
	}
}
