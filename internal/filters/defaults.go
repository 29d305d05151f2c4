package filters

import "path/filepath"

// SVGFilterName is the native filter converting SVG images to PDF.
const SVGFilterName = "convert_image_from_svg_to_pdf"

// codeBlockTag marks code blocks synthesized by include_code_block.
const codeBlockTag = "code-block"

type luaFilter struct {
	name     string
	provides []string
	requires []string
}

// luaChain is the Lua part of the default chain, in application order.
var luaChain = []luaFilter{
	{name: "render_table"},
	{name: "render_image"},
	{name: "render_math"},
	{name: "include_code_block", provides: []string{codeBlockTag}},
	{name: "trim_code_block", requires: []string{codeBlockTag}},
	{name: "render_code_block", requires: []string{codeBlockTag}},
	{name: "render_code"},
	{name: "render_link_reference"},
	{name: "render_link_citation"},
	{name: "render_div_list_of_references"},
	{name: "render_div_table_of_contents"},
	{name: "make_and_render_sections"},
}

// LuaFilterNames returns the default Lua filter names in application order.
func LuaFilterNames() []string {
	names := make([]string, len(luaChain))
	for i, f := range luaChain {
		names[i] = f.name
	}
	return names
}

// Default returns the standard chain: the native SVG conversion followed by
// the Lua filters found in luaDir as <name>.lua.
func Default(luaDir string, svg NativeFilter) Chain {
	chain := Chain{{Name: SVGFilterName, Kind: Native, Impl: svg}}
	for _, f := range luaChain {
		chain = append(chain, Spec{
			Name:     f.name,
			Kind:     Lua,
			Program:  filepath.Join(luaDir, f.name+".lua"),
			Provides: f.provides,
			Requires: f.requires,
		})
	}
	return chain
}
