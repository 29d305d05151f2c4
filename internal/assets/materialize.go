package assets

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alnah/go-scholar/internal/fileutil"
)

// Materialized locates assets written to disk for pandoc.
type Materialized struct {
	Template  string // path of the .tex template
	FilterDir string // directory holding the .lua filters
}

// Materialize writes the template and filters loaded from l under dir:
// dir/template/{template}.tex and dir/filters/{name}.lua. Files whose
// content is unchanged are not rewritten, so their modification times
// stay stable between runs.
func Materialize(l AssetLoader, dir, template string, filters []string) (Materialized, error) {
	m := Materialized{
		Template:  filepath.Join(dir, "template", template+templateExt),
		FilterDir: filepath.Join(dir, filtersDir),
	}

	content, err := l.LoadTemplate(template)
	if err != nil {
		return Materialized{}, err
	}
	if err := writeIfChanged(m.Template, content); err != nil {
		return Materialized{}, err
	}

	for _, name := range filters {
		content, err := l.LoadFilter(name)
		if err != nil {
			return Materialized{}, err
		}
		if err := writeIfChanged(filepath.Join(m.FilterDir, name+filterExt), content); err != nil {
			return Materialized{}, err
		}
	}
	return m, nil
}

func writeIfChanged(path, content string) error {
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, []byte(content)) { // #nosec G304 -- path built from validated names
		return nil
	}
	if err := fileutil.WriteFileAtomic(path, []byte(content)); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
