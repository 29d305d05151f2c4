package assets

import (
	"fmt"
	"strings"
)

// AssetLoader loads templates and filters by bare name.
type AssetLoader interface {
	// LoadTemplate loads a pandoc template by name (without .tex).
	LoadTemplate(name string) (string, error)

	// LoadFilter loads a Lua filter by name (without .lua).
	LoadFilter(name string) (string, error)
}

const (
	templatesDir = "templates"
	filtersDir   = "filters"
	templateExt  = ".tex"
	filterExt    = ".lua"
)

// checkName rejects names that are not a bare file stem. Loaders append
// the extension themselves, so a dot is never legitimate.
func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, `/\.`) {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
