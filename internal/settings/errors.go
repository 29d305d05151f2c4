package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alnah/go-scholar/internal/hints"
)

// Sentinel errors for settings resolution.
var (
	// ErrConfigNotFound indicates an explicitly requested config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigLoad indicates a config file exists but could not be read or parsed.
	ErrConfigLoad = errors.New("failed to load config file")

	// ErrInvalidSettings indicates the merged settings failed validation.
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrInvalidAssignment indicates a malformed key=value override.
	ErrInvalidAssignment = errors.New("invalid settings assignment")

	// ErrUnsupportedCacheDir indicates paths.cache_dir differs from the computed default.
	ErrUnsupportedCacheDir = errors.New("overriding the cache directory is not supported")
)

// ValidationError lists every problem found in one resolution.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return e.Issues[0]
	}
	return "\n  - " + strings.Join(e.Issues, "\n  - ")
}

// SettingsError reports a failed resolution together with the sources that
// contributed data, so users can tell where a bad value came from.
type SettingsError struct {
	Err     error
	Sources []SourceRecord
}

func (e *SettingsError) Error() string {
	return fmt.Sprintf("%s: %v%s", ErrInvalidSettings, e.Err, hints.ForSettingsSources(e.Contributors()))
}

func (e *SettingsError) Unwrap() []error {
	return []error{ErrInvalidSettings, e.Err}
}

// Contributors returns the names of the sources that provided non-empty data,
// in resolution order. Defaults always has data, so it comes last.
func (e *SettingsError) Contributors() []string {
	var names []string
	for _, s := range e.Sources {
		if len(s.Data) > 0 {
			names = append(names, s.Name)
		}
	}
	return names
}
