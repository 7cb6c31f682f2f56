package store

import (
	"encoding/json"
	"fmt"
	"github.com/saylorsolutions/fluentecs/pkg/entries"
	"sort"
	"strconv"
	"strings"
)

const pathSep = "."

// Flatten decodes a JSON document into column values keyed by the dotted path of each leaf.
// Numbers are stored as integers or floats, and arrays as JSON text.
func Flatten(data []byte) (map[string]any, error) {
	doc, err := entries.Decode(data)
	if err != nil {
		return nil, err
	}
	flat := map[string]any{}
	if err := flatten(flat, "", doc); err != nil {
		return nil, err
	}
	return flat, nil
}

func flatten(flat map[string]any, prefix string, obj map[string]any) error {
	for k, v := range obj {
		path := k
		if prefix != "" {
			path = prefix + pathSep + k
		}
		if nested, ok := v.(map[string]any); ok && len(nested) > 0 {
			if err := flatten(flat, path, nested); err != nil {
				return err
			}
			continue
		}
		val, err := columnValue(v)
		if err != nil {
			return fmt.Errorf("field %s: %w", path, err)
		}
		flat[path] = val
	}
	return nil
}

func columnValue(v any) (any, error) {
	switch val := v.(type) {
	case nil, string, bool:
		return val, nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, nil
		}
		return val.Float64()
	}
	data, err := entries.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Unflatten rebuilds a document from column values keyed by dotted paths.
// Text that holds a JSON array or object is decoded back into it.
// Paths are placed in sorted order, and a path that runs through a leaf already set is kept as a top level key.
func Unflatten(flat map[string]any) entries.LogEntry {
	paths := make([]string, 0, len(flat))
	for path := range flat {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	doc := entries.LogEntry{}
	for _, path := range paths {
		v := flat[path]
		if v == nil {
			continue
		}
		parts := strings.Split(path, pathSep)
		cur := map[string]any(doc)
		placed := true
		for _, part := range parts[:len(parts)-1] {
			next, exists := cur[part]
			if !exists {
				m := map[string]any{}
				cur[part] = m
				cur = m
				continue
			}
			m, ok := next.(map[string]any)
			if !ok {
				placed = false
				break
			}
			cur = m
		}
		if !placed {
			doc[path] = leafValue(v)
			continue
		}
		cur[parts[len(parts)-1]] = leafValue(v)
	}
	return doc
}

func leafValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return leafValue(string(val))
	case string:
		if strings.HasPrefix(val, "[") || strings.HasPrefix(val, "{") {
			if decoded, err := entries.DecodeValue([]byte(val)); err == nil {
				return decoded
			}
		}
		return val
	case int64:
		return json.Number(strconv.FormatInt(val, 10))
	case float64:
		return json.Number(strconv.FormatFloat(val, 'f', -1, 64))
	}
	return v
}
