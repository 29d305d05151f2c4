package settings

import (
	"fmt"
	"strings"
)

// mergeFirstWins copies src into dst without overwriting leaves that dst
// already holds. Nested maps merge recursively; nil values count as unset.
// origins receives the source name of every leaf src contributes.
func mergeFirstWins(dst, src map[string]any, prefix, source string, origins map[string]string) {
	for k, v := range src {
		if v == nil {
			continue
		}
		p := joinPath(prefix, k)
		existing, ok := dst[k]
		if !ok {
			dst[k] = deepCopy(v)
			recordLeaves(origins, p, v, source)
			continue
		}
		em, eok := existing.(map[string]any)
		sm, sok := v.(map[string]any)
		if eok && sok {
			mergeFirstWins(em, sm, p, source, origins)
		}
	}
}

func recordLeaves(origins map[string]string, path string, v any, source string) {
	if m, ok := v.(map[string]any); ok {
		for k, sub := range m {
			if sub != nil {
				recordLeaves(origins, joinPath(path, k), sub, source)
			}
		}
		return
	}
	origins[path] = source
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	default:
		return v
	}
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopy(v)
	}
	return out
}

// normalize converts nested map types produced by decoders (for example
// map[any]any) into map[string]any so merging and diffing see one shape.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	default:
		return v
	}
}

// SetPath stores value at a dotted path, creating intermediate maps.
// An intermediate scalar is replaced by a map.
func SetPath(m map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[part] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

// ParseAssignments turns "key.path=value" strings into a nested map.
// Values stay strings; decoding converts them to the schema types.
func ParseAssignments(assignments []string) (map[string]any, error) {
	out := map[string]any{}
	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" || strings.HasPrefix(key, ".") || strings.HasSuffix(key, ".") || strings.Contains(key, "..") {
			return nil, fmt.Errorf("%w: %q (want key.path=value)", ErrInvalidAssignment, a)
		}
		SetPath(out, key, value)
	}
	return out, nil
}
