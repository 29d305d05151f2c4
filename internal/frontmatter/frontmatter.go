// Package frontmatter separates a settings block at the head of a Markdown
// document from its body. YAML blocks are fenced by "---" (closed by "---"
// or "..."), TOML blocks by "+++".
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrUnterminated indicates an opening fence without a closing one.
var ErrUnterminated = errors.New("front matter block is not terminated")

// Block is an extracted front matter block.
type Block struct {
	Format string // "yaml" or "toml"
	Raw    []byte
	Lines  int // lines consumed, fences included
}

var bom = []byte("\xef\xbb\xbf")

// Split returns the front matter block (nil when absent) and the body.
// The body keeps one empty line per consumed line so that line numbers in
// later diagnostics still match the source file.
func Split(doc []byte) (*Block, []byte, error) {
	data := bytes.TrimPrefix(doc, bom)
	lines := bytes.SplitAfter(data, []byte("\n"))
	if len(lines) == 0 {
		return nil, doc, nil
	}

	var format string
	var closers [][]byte
	switch string(trimLine(lines[0])) {
	case "---":
		format, closers = "yaml", [][]byte{[]byte("---"), []byte("...")}
	case "+++":
		format, closers = "toml", [][]byte{[]byte("+++")}
	default:
		return nil, doc, nil
	}

	for i := 1; i < len(lines); i++ {
		line := trimLine(lines[i])
		for _, c := range closers {
			if !bytes.Equal(line, c) {
				continue
			}
			raw := bytes.Join(lines[1:i], nil)
			consumed := i + 1
			body := append(bytes.Repeat([]byte("\n"), consumed), bytes.Join(lines[consumed:], nil)...)
			return &Block{Format: format, Raw: raw, Lines: consumed}, body, nil
		}
	}

	return nil, nil, fmt.Errorf("%w: opened with %q on line 1", ErrUnterminated, trimLine(lines[0]))
}

func trimLine(b []byte) []byte {
	return bytes.TrimRight(b, " \t\r\n")
}
