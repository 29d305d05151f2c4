// Package yamlutil wraps YAML parsing to isolate the external dependency.
// Settings documents are decoded into generic maps so that several sources
// can be merged before the typed decode.
package yamlutil

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits YAML input to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

var (
	ErrInputTooLarge = errors.New("yamlutil: input exceeds maximum size")
	ErrNotMapping    = errors.New("yamlutil: top-level value is not a mapping")
)

func checkSize(data []byte) error {
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	return nil
}

// UnmarshalMap decodes a YAML mapping document into a generic map.
// An empty or null document yields an empty map.
func UnmarshalMap(data []byte) (map[string]any, error) {
	if err := checkSize(data); err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	if doc == nil {
		return map[string]any{}, nil
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotMapping, doc)
	}
	return m, nil
}

// Marshal encodes v as YAML.
func Marshal(v any) ([]byte, error) {
	result, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	return result, nil
}
