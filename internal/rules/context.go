// Package rules decides which email rules fire for a submission and renders
// their templates. Everything here is pure: no I/O, no logging, no clocks.
package rules

import "sort"

// DataContext is the flattened view of one submission that conditions and
// templates are evaluated against. It is built once per run and only read
// afterwards.
type DataContext map[string]any

// Get returns the value stored under key. Keys holding nil count as absent.
func (c DataContext) Get(key string) (any, bool) {
	v, ok := c[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Clone returns a shallow copy of the context
func (c DataContext) Clone() DataContext {
	out := make(DataContext, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// sortedKeys returns the keys of m in lexical order for deterministic scans
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// asMap unwraps the nested object shapes a context value can take
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case DataContext:
		return map[string]any(m), true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}
