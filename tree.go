// FILE: lixenwraith/yacman/tree.go
package yacman

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Get retrieves a value by key. A literal top-level key is tried first, then
// the key as a dot-separated path into nested maps.
func (h *Handle) Get(key string) (any, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	v, ok := lookup(h.data, key)
	if !ok {
		return nil, false
	}
	return deepCopyValue(v), true
}

// Has reports whether key resolves to a value.
func (h *Handle) Has(key string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := lookup(h.data, key)
	return ok
}

// Set assigns value at key. An existing literal top-level key is replaced;
// otherwise dots in key create or descend into nested maps.
func (h *Handle) Set(key string, value any) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, literal := h.data[key]; literal || !strings.Contains(key, ".") {
		h.data[key] = normalizeValue(value)
		return nil
	}

	segments := strings.Split(key, ".")
	current := h.data
	for i, segment := range segments {
		if segment == "" {
			return fmt.Errorf("invalid empty segment in key %q", key)
		}
		if i == len(segments)-1 || current == nil {
			continue
		}
		next, exists := current[segment]
		if !exists {
			current = nil
			continue
		}
		nextMap, isMap := next.(map[string]any)
		if !isMap {
			return fmt.Errorf("%w: %q in key %q holds %T", ErrNotMap, segment, key, next)
		}
		current = nextMap
	}
	setNestedValue(h.data, key, normalizeValue(value))
	return nil
}

// Delete removes key and reports whether it was present.
func (h *Handle) Delete(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, literal := h.data[key]; literal {
		delete(h.data, key)
		return true
	}
	if !strings.Contains(key, ".") {
		return false
	}
	return deleteNestedValue(h.data, key)
}

// Update merges entries into the tree. Nested maps are merged, other values replaced.
func (h *Handle) Update(entries map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	mergeMaps(h.data, normalizeValue(entries).(map[string]any))
}

// Keys returns the sorted top-level keys.
func (h *Handle) Keys() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	keys := make([]string, 0, len(h.data))
	for k := range h.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of top-level keys.
func (h *Handle) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.data)
}

// Data returns a deep copy of the tree.
func (h *Handle) Data() map[string]any {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return deepCopyMap(h.data)
}

// Flatten returns the tree's leaves keyed by dotted path.
func (h *Handle) Flatten() map[string]any {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return flattenMap(deepCopyMap(h.data), "")
}

// Range calls fn for each top-level key in sorted order until fn returns false.
// fn receives copies and may call other methods on the handle.
func (h *Handle) Range(fn func(key string, value any) bool) {
	snapshot := h.Data()

	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !fn(k, snapshot[k]) {
			return
		}
	}
}

// Equal compares the user data of two handles. Lock state, paths and
// aliases are not part of the comparison.
func (h *Handle) Equal(other *Handle) bool {
	if other == nil {
		return false
	}
	if h == other {
		return true
	}
	return EqualData(h.Data(), other.Data())
}

// EqualData compares two trees after normalizing numeric and container types.
func EqualData(a, b map[string]any) bool {
	return reflect.DeepEqual(normalizeValue(a), normalizeValue(b))
}

// Render serializes the tree in format. FormatAuto uses the format the
// bound file was read with, falling back to YAML.
func (h *Handle) Render(format Format) ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if format == "" || format == FormatAuto {
		format = h.format
	}
	return serializeDocument(h.data, format)
}
