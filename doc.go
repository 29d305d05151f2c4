// Package scholar converts Markdown documents to PDF through LaTeX, using
// pandoc for the first stage and latexmk for the second.
//
// # Quick Start
//
// Create a converter and convert a document:
//
//	conv, err := scholar.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := conv.Convert(ctx, scholar.Request{
//	    Input:  "thesis.md",
//	    Output: "build/",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("wrote", res.Output)
//
// # Conversion Pipeline
//
// A conversion runs up to two stages, strictly in sequence:
//
//  1. Markdown to LaTeX: pandoc reads the document body into its JSON
//     representation, native filters rewrite it (SVG images become PDFs
//     through a content-addressed cache), and a second pandoc run merges it
//     with a metadata document built from the settings, applies the Lua
//     filters and renders the LaTeX template.
//  2. LaTeX to PDF: latexmk drives the LaTeX engine and biber until the
//     document is stable.
//
// Mode selects a bypass: ModeToTeX stops after the first stage and
// ModeFromTeX starts from an existing .tex file. Intermediate files live in
// the cache directory (.scholar under the working directory); only the
// final artifact is copied to the requested destination.
//
// # Settings
//
// Settings are resolved per conversion from, highest precedence first:
// programmatic overrides (WithSettingsOverrides), CLI values
// (WithCLISettings), SCHOLAR_* environment variables, the document's front
// matter, a config file, and defaults. The first source that sets a key
// wins. Failures name the sources that contributed data:
//
//	invalid settings: unknown style "gost_paper"
//	  hint: sources with data: cli, front_matter, defaults
//
// # Error Handling
//
// Stage failures are returned as *StageError, which unwraps to one of
// ErrContentGeneration, ErrRender, ErrBibliography, ErrFilter or ErrTypeset
// and carries the failed command with the tail of its output:
//
//	if errors.Is(err, scholar.ErrTypeset) {
//	    var se *scholar.StageError
//	    errors.As(err, &se)
//	    fmt.Println(se.Result.Command)
//	}
//
// Settings failures unwrap to ErrInvalidSettings, ErrConfigNotFound or
// ErrConfigLoad.
package scholar
