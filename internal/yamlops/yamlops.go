// Package yamlops implements the parse/dump/merge/flatten primitives shared
// by the resolver and secret processor: C6 in spec.md §4.6.
//
// All trees are represented as map[string]any after parsing; YAML maps with
// non-string keys are coerced to strings (gopkg.in/yaml.v3 already decodes
// block-style YAML keys as strings in the common case, so this is a
// defensive normalization rather than the common path).
package yamlops

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes one or more YAML documents into a single merged tree. Empty
// or null input yields an empty map. Multiple documents are deep-merged in
// document order, later documents overriding earlier ones, matching the
// "possibly multi-document" configuration file shape of spec.md §3.
func Parse(text string) (map[string]any, error) {
	if strings.TrimSpace(text) == "" {
		return map[string]any{}, nil
	}

	dec := yaml.NewDecoder(strings.NewReader(text))
	result := map[string]any{}
	sawDoc := false
	for {
		var doc map[string]any
		err := dec.Decode(&doc)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		sawDoc = true
		if doc == nil {
			continue
		}
		result = DeepMerge(result, normalize(doc).(map[string]any))
	}
	if !sawDoc {
		return map[string]any{}, nil
	}
	return result, nil
}

// normalize walks a decoded tree and coerces map[any]any / nested structures
// produced by some yaml.v3 decode paths into map[string]any consistently.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[toString(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

// toString handles the rare case of a non-string scalar mapping key (e.g. a
// YAML document using a bare number as a key). yaml.v3 decodes ordinary
// string keys directly, so this path is defensive, not the common case.
func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Dump renders a tree in block style with 2-space indentation.
func Dump(tree map[string]any) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(tree); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// DeepMerge recursively merges source into target. When both sides of a key
// are maps, the merge recurses; otherwise source overwrites target
// (spec.md §4.6). Neither argument is mutated; a new map is returned.
func DeepMerge(target, source map[string]any) map[string]any {
	out := make(map[string]any, len(target)+len(source))
	for k, v := range target {
		out[k] = v
	}
	for k, sv := range source {
		tv, exists := out[k]
		if !exists {
			out[k] = sv
			continue
		}
		tMap, tIsMap := tv.(map[string]any)
		sMap, sIsMap := sv.(map[string]any)
		if tIsMap && sIsMap {
			out[k] = DeepMerge(tMap, sMap)
		} else {
			out[k] = sv
		}
	}
	return out
}

// Flatten produces a single-level map whose keys are dot-joined path
// strings. Nested lists are treated as leaves, never expanded (spec.md
// §4.6).
func Flatten(tree map[string]any) map[string]any {
	out := map[string]any{}
	flattenInto(tree, "", out)
	return out
}

func flattenInto(node map[string]any, prefix string, out map[string]any) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok {
			if len(child) == 0 {
				out[key] = child
				continue
			}
			flattenInto(child, key, out)
			continue
		}
		out[key] = v
	}
}

// Unflatten reverses Flatten: dot-joined keys become nested maps.
func Unflatten(flat map[string]any) map[string]any {
	out := map[string]any{}
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys) // deterministic insertion order for reproducible dumps

	for _, key := range keys {
		parts := strings.Split(key, ".")
		cursor := out
		for i, p := range parts {
			if i == len(parts)-1 {
				cursor[p] = flat[key]
				break
			}
			next, ok := cursor[p].(map[string]any)
			if !ok {
				next = map[string]any{}
				cursor[p] = next
			}
			cursor = next
		}
	}
	return out
}
