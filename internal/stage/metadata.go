package stage

import (
	"fmt"
	"regexp"

	"github.com/alnah/go-scholar/internal/fileutil"
	"github.com/alnah/go-scholar/internal/pandoc"
	"github.com/alnah/go-scholar/internal/settings"
	"github.com/alnah/go-scholar/internal/styles"
	"github.com/alnah/go-scholar/internal/workspace"
)

// safeLaTeXPath matches paths the template can splice verbatim.
var safeLaTeXPath = regexp.MustCompile(`^[A-Za-z0-9._\-/]+$`)

// latexPath returns target relative to cwd with forward slashes, or
// ErrUnsafeLaTeXPath when the result contains characters LaTeX interprets.
func latexPath(cwd, target, purpose string) (string, error) {
	rel, err := fileutil.RelativeSlash(cwd, target)
	if err != nil {
		return "", fmt.Errorf("%w: %s for %s: %w", ErrUnsafeLaTeXPath, target, purpose, err)
	}
	if !safeLaTeXPath.MatchString(rel) {
		return "", fmt.Errorf("%w: %q for %s", ErrUnsafeLaTeXPath, rel, purpose)
	}
	return rel, nil
}

// metadataInput gathers what the metadata document describes.
type metadataInput struct {
	Settings  settings.Settings
	Style     styles.Style
	Layout    workspace.Layout
	CWD       string
	TitlePage bool
}

// buildMetadata returns the metadata map passed to pandoc alongside the
// content. Paths the template splices into LaTeX are made relative to the
// working directory, where latexmk runs, and checked for safety.
func buildMetadata(in metadataInput) (map[string]any, error) {
	bib, err := latexPath(in.CWD, in.Layout.BibliographyFile(), `\addbibresource`)
	if err != nil {
		return nil, err
	}
	minted, err := latexPath(in.CWD, in.Layout.LatexmkOutput, "the minted outputdir option")
	if err != nil {
		return nil, err
	}
	var titlePage any
	if in.TitlePage {
		p, err := latexPath(in.CWD, in.Layout.TitlePageFile(), `\includepdf`)
		if err != nil {
			return nil, err
		}
		titlePage = p
	}

	style := in.Style.Variables.Map()
	style["name"] = in.Style.Name

	return map[string]any{
		"scholar": map[string]any{
			"settings": in.Settings.Map(),
			"style":    style,
			"constants": map[string]any{
				"biblatex_bibresource":  bib,
				"includepdf_title_page": titlePage,
			},
		},
		"lang":                            in.Settings.Lang,
		"generated-resources-directory":   in.Layout.GeneratedResources,
		"minted-package-option-outputdir": minted,
	}, nil
}

// writeMetadata writes the metadata document to path.
func writeMetadata(path string, meta map[string]any) error {
	return pandoc.NewMetadataDoc(meta).WriteFile(path)
}
