// Package pandoc models the parts of pandoc's JSON document format that
// scholar produces or rewrites: metadata values, the document envelope,
// format strings and image targets inside the block tree.
//
// Documents are handled as generic JSON trees. Scholar only touches
// metadata and Image nodes; everything else is passed through untouched.
package pandoc

import (
	"fmt"
	"sort"
)

// Metadata value tags.
const (
	MetaMapTag    = "MetaMap"
	MetaListTag   = "MetaList"
	MetaBoolTag   = "MetaBool"
	MetaStringTag = "MetaString"
)

// MetaValue is a tagged pandoc metadata value. C holds a map[string]MetaValue,
// a []MetaValue, a bool or a string depending on T.
type MetaValue struct {
	T string `json:"t"`
	C any    `json:"c"`
}

// MetaString wraps s.
func MetaString(s string) MetaValue { return MetaValue{T: MetaStringTag, C: s} }

// MetaBool wraps b.
func MetaBool(b bool) MetaValue { return MetaValue{T: MetaBoolTag, C: b} }

// MetaList wraps items.
func MetaList(items ...MetaValue) MetaValue {
	if items == nil {
		items = []MetaValue{}
	}
	return MetaValue{T: MetaListTag, C: items}
}

// MetaMap wraps m.
func MetaMap(m map[string]MetaValue) MetaValue {
	if m == nil {
		m = map[string]MetaValue{}
	}
	return MetaValue{T: MetaMapTag, C: m}
}

// ToMeta converts a plain Go value into a metadata value. Maps become
// MetaMap, slices MetaList, booleans MetaBool and every other scalar is
// rendered as MetaString. Nil values, including nil entries inside maps
// and slices, are dropped; ok is false when v itself is nil.
func ToMeta(v any) (mv MetaValue, ok bool) {
	switch x := v.(type) {
	case nil:
		return MetaValue{}, false
	case MetaValue:
		return x, true
	case map[string]any:
		out := make(map[string]MetaValue, len(x))
		for _, k := range sortedKeys(x) {
			if m, ok := ToMeta(x[k]); ok {
				out[k] = m
			}
		}
		return MetaMap(out), true
	case map[string]string:
		out := make(map[string]MetaValue, len(x))
		for k, s := range x {
			out[k] = MetaString(s)
		}
		return MetaMap(out), true
	case []any:
		out := make([]MetaValue, 0, len(x))
		for _, item := range x {
			if m, ok := ToMeta(item); ok {
				out = append(out, m)
			}
		}
		return MetaList(out...), true
	case []string:
		out := make([]MetaValue, 0, len(x))
		for _, s := range x {
			out = append(out, MetaString(s))
		}
		return MetaList(out...), true
	case bool:
		return MetaBool(x), true
	case *bool:
		if x == nil {
			return MetaValue{}, false
		}
		return MetaBool(*x), true
	case string:
		return MetaString(x), true
	case *string:
		if x == nil {
			return MetaValue{}, false
		}
		return MetaString(*x), true
	case fmt.Stringer:
		return MetaString(x.String()), true
	default:
		return MetaString(fmt.Sprint(x)), true
	}
}

// MetaFromMap converts the top level of a metadata document.
func MetaFromMap(m map[string]any) map[string]MetaValue {
	mv, _ := ToMeta(m)
	return mv.C.(map[string]MetaValue)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
