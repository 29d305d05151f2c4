package pandoc

import "strings"

// MarkdownExtensions are enabled on top of commonmark when reading documents.
var MarkdownExtensions = []string{
	// GFM
	"autolink_bare_uris",
	"pipe_tables",
	"strikeout",
	"task_lists",
	// required by the filters
	"attributes",
	"tex_math_dollars",
	// convenience
	"fenced_divs",
	"bracketed_spans",
	"implicit_figures",
	"smart",
}

// Format builds a pandoc format string such as "commonmark+smart-raw_html".
func Format(base string, enabled, disabled []string) string {
	var b strings.Builder
	b.WriteString(base)
	for _, e := range enabled {
		b.WriteByte('+')
		b.WriteString(e)
	}
	for _, d := range disabled {
		b.WriteByte('-')
		b.WriteString(d)
	}
	return b.String()
}

// MarkdownFormat is the reader format for scholar documents.
func MarkdownFormat() string {
	return Format("commonmark", MarkdownExtensions, nil)
}

// Output formats.
const (
	FormatJSON  = "json"
	FormatLaTeX = "latex"
)

// ReaderArgs are the reader options shared by every Markdown input:
// headings shift up one level so "#" is the document title level.
func ReaderArgs(extractDir string) []string {
	return []string{"--shift-heading-level-by", "-1", "--extract-media", extractDir}
}

// WriterArgs are the LaTeX writer options shared by every render.
func WriterArgs() []string {
	return []string{"--metadata", "csquotes=true"}
}
