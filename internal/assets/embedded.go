package assets

import (
	"embed"
	"fmt"
)

//go:embed templates/*.tex filters/*.lua
var embedded embed.FS

// EmbeddedLoader loads the assets compiled into the binary.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// LoadTemplate implements AssetLoader.
func (e *EmbeddedLoader) LoadTemplate(name string) (string, error) {
	return e.load(templatesDir, name, templateExt, ErrTemplateNotFound)
}

// LoadFilter implements AssetLoader.
func (e *EmbeddedLoader) LoadFilter(name string) (string, error) {
	return e.load(filtersDir, name, filterExt, ErrFilterNotFound)
}

func (e *EmbeddedLoader) load(dir, name, ext string, notFound error) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	content, err := embedded.ReadFile(dir + "/" + name + ext)
	if err != nil {
		return "", fmt.Errorf("%w: %q", notFound, name)
	}
	return string(content), nil
}

// Compile-time interface check.
var _ AssetLoader = (*EmbeddedLoader)(nil)
