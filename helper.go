// File: lixenwraith/yacman/helper.go
package yacman

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
)

// flattenMap converts a nested map[string]any to a flat map[string]any with dot-notation paths.
func flattenMap(nested map[string]any, prefix string) map[string]any {
	flat := make(map[string]any)

	for key, value := range nested {
		newPath := key
		if prefix != "" {
			newPath = prefix + "." + key
		}

		if nestedMap, isMap := value.(map[string]any); isMap && len(nestedMap) > 0 {
			for subPath, subValue := range flattenMap(nestedMap, newPath) {
				flat[subPath] = subValue
			}
		} else {
			flat[newPath] = value
		}
	}

	return flat
}

// setNestedValue sets a value in a nested map using a dot-notation path.
// It creates intermediate maps if they don't exist.
// If a segment exists but is not a map, it will be overwritten by a new map.
func setNestedValue(nested map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	current := nested

	for i := 0; i < len(segments)-1; i++ {
		segment := segments[i]

		next, exists := current[segment]
		if nextMap, isMap := next.(map[string]any); exists && isMap {
			current = nextMap
			continue
		}

		newMap := make(map[string]any)
		current[segment] = newMap
		current = newMap
	}

	current[segments[len(segments)-1]] = value
}

// deleteNestedValue removes the value at a dot-notation path.
// It returns false if any segment along the path is missing.
func deleteNestedValue(nested map[string]any, path string) bool {
	segments := strings.Split(path, ".")
	current := nested

	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			return false
		}
		current = next
	}

	last := segments[len(segments)-1]
	if _, exists := current[last]; !exists {
		return false
	}
	delete(current, last)
	return true
}

// navigateToPath traverses nested map to reach the specified path
func navigateToPath(nested map[string]any, path string) (any, bool) {
	path = strings.TrimSuffix(path, ".")
	if path == "" {
		return nested, true
	}

	current := any(nested)
	for _, segment := range strings.Split(path, ".") {
		currentMap, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		value, exists := currentMap[segment]
		if !exists {
			return nil, false
		}
		current = value
	}

	return current, true
}

// lookup resolves a key: a literal top-level key wins over a dotted path.
func lookup(tree map[string]any, key string) (any, bool) {
	if v, ok := tree[key]; ok {
		return v, true
	}
	if !strings.Contains(key, ".") {
		return nil, false
	}
	return navigateToPath(tree, key)
}

// mergeMaps overlays src onto dst recursively. Maps present on both sides are
// merged; any other value in src replaces the one in dst.
func mergeMaps(dst, src map[string]any) {
	for key, srcVal := range src {
		srcMap, srcIsMap := srcVal.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			mergeMaps(dstMap, srcMap)
			continue
		}
		dst[key] = deepCopyValue(srcVal)
	}
}

// fillMissing copies keys from defaults that dst does not have.
func fillMissing(dst, defaults map[string]any) {
	for key, defVal := range defaults {
		existing, exists := dst[key]
		if !exists {
			dst[key] = deepCopyValue(defVal)
			continue
		}
		existingMap, ok1 := existing.(map[string]any)
		defMap, ok2 := defVal.(map[string]any)
		if ok1 && ok2 {
			fillMissing(existingMap, defMap)
		}
	}
}

// deepCopyMap copies maps and slices so callers cannot alias handle state.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return v
	}
}

// normalizeValue converts decoded values to one canonical shape: string map
// keys, []any sequences, int for integers that fit and float64 for floats.
// Parsers disagree on these (TOML yields int64, JSON yields json.Number,
// YAML yields map[any]any for non-string keys).
func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return normalizeValue(i)
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case float32:
		return float64(val)
	case time.Duration:
		return val.String()
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		if i >= math.MinInt && i <= math.MaxInt {
			return int(i)
		}
		return i
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u <= math.MaxInt {
			return int(u)
		}
		return u
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v // []byte stays binary
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalizeValue(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = normalizeValue(iter.Value().Interface())
		}
		return out
	}

	return v
}
