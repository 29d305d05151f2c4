package settings

import (
	"slices"
	"strings"
)

// node is one entry of the declared schema. A node without children is a
// leaf; a free node accepts arbitrary keys below it.
type node struct {
	children map[string]*node
	free     bool
}

func leaf() *node { return &node{} }

func free() *node { return &node{free: true} }

func group(children map[string]*node) *node { return &node{children: children} }

func (n *node) isGroup() bool { return n.children != nil }

// schema mirrors the mapstructure tags of Settings.
var schema = group(map[string]*node{
	"style":      leaf(),
	"title":      leaf(),
	"subtitle":   leaf(),
	"author":     leaf(),
	"date":       leaf(),
	"lang":       leaf(),
	"title_page": leaf(),
	"references": free(),
	"paths": group(map[string]*node{
		"cache_dir": leaf(),
	}),
	"tools": group(map[string]*node{
		"pandoc":       leaf(),
		"latexmk":      leaf(),
		"rsvg_convert": leaf(),
	}),
	"latex": group(map[string]*node{
		"engine":       leaf(),
		"shell_escape": leaf(),
	}),
	"svg": group(map[string]*node{
		"dpi": leaf(),
	}),
	"layout": group(map[string]*node{
		"disable_main_section_numbering":   leaf(),
		"disable_section_page_breaks":      leaf(),
		"disable_numbering_within_section": leaf(),
	}),
	"assets": group(map[string]*node{
		"dir": leaf(),
	}),
	"timeout": leaf(),
})

// LeafPaths returns every dotted leaf path of the schema in sorted order.
// Free-form maps are not expanded.
func LeafPaths() []string {
	var out []string
	var walk func(prefix string, n *node)
	walk = func(prefix string, n *node) {
		for k, child := range n.children {
			p := joinPath(prefix, k)
			if child.isGroup() {
				walk(p, child)
				continue
			}
			if !child.free {
				out = append(out, p)
			}
		}
	}
	walk("", schema)
	slices.Sort(out)
	return out
}

// UnknownKeys returns the dotted paths of doc that the schema does not
// declare, sorted. Values under free-form maps are never reported.
func UnknownKeys(doc map[string]any) []string {
	var out []string
	diff("", doc, schema, &out)
	slices.Sort(out)
	return out
}

func diff(prefix string, doc map[string]any, n *node, out *[]string) {
	for k, v := range doc {
		p := joinPath(prefix, k)
		child, ok := n.children[k]
		if !ok {
			*out = append(*out, p)
			continue
		}
		if !child.isGroup() {
			continue
		}
		if sub, ok := v.(map[string]any); ok {
			diff(p, sub, child, out)
		}
	}
}

// prune returns a copy of doc without the given dotted paths.
func prune(doc map[string]any, paths []string) map[string]any {
	out := deepCopyMap(doc)
	for _, p := range paths {
		parts := strings.Split(p, ".")
		m := out
		for i, part := range parts {
			if i == len(parts)-1 {
				delete(m, part)
				break
			}
			next, ok := m[part].(map[string]any)
			if !ok {
				break
			}
			m = next
		}
	}
	return out
}

// lookupPath returns the value at a dotted path in doc.
func lookupPath(doc map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	m := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			return nil, false
		}
		m = next
	}
	v, ok := m[parts[len(parts)-1]]
	return v, ok
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
