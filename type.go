// File: lixenwraith/yacman/type.go
package yacman

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// value fetches key for the typed accessors.
func (h *Handle) value(key string) (any, error) {
	val, found := h.Get(key)
	if !found {
		return nil, fmt.Errorf("key not found: %s", key)
	}
	return val, nil
}

// String retrieves a string value, converting scalars where possible.
func (h *Handle) String(key string) (string, error) {
	val, err := h.value(key)
	if err != nil {
		return "", err
	}
	if val == nil {
		return "", nil // Treat nil as empty string for convenience
	}

	s, err := cast.ToStringE(val)
	if err != nil {
		return "", fmt.Errorf("cannot convert type %T to string for key %s: %w", val, key, err)
	}
	return s, nil
}

// Int64 retrieves an int64 value from numeric types, parsable strings and booleans.
func (h *Handle) Int64(key string) (int64, error) {
	val, err := h.value(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return 0, fmt.Errorf("value for key %s is nil, cannot convert to int64", key)
	}

	i, err := cast.ToInt64E(val)
	if err != nil {
		return 0, fmt.Errorf("cannot convert type %T to int64 for key %s: %w", val, key, err)
	}
	return i, nil
}

// Bool retrieves a boolean value (0=false, non-zero=true, parsable strings).
func (h *Handle) Bool(key string) (bool, error) {
	val, err := h.value(key)
	if err != nil {
		return false, err
	}
	if val == nil {
		return false, fmt.Errorf("value for key %s is nil, cannot convert to bool", key)
	}

	b, err := cast.ToBoolE(val)
	if err != nil {
		return false, fmt.Errorf("cannot convert type %T to bool for key %s: %w", val, key, err)
	}
	return b, nil
}

// Float64 retrieves a float64 value from numeric types, parsable strings and booleans.
func (h *Handle) Float64(key string) (float64, error) {
	val, err := h.value(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return 0, fmt.Errorf("value for key %s is nil, cannot convert to float64", key)
	}

	f, err := cast.ToFloat64E(val)
	if err != nil {
		return 0, fmt.Errorf("cannot convert type %T to float64 for key %s: %w", val, key, err)
	}
	return f, nil
}

// Duration retrieves a duration from strings like "1m30s" or integer nanoseconds.
func (h *Handle) Duration(key string) (time.Duration, error) {
	val, err := h.value(key)
	if err != nil {
		return 0, err
	}

	d, err := cast.ToDurationE(val)
	if err != nil {
		return 0, fmt.Errorf("cannot convert type %T to duration for key %s: %w", val, key, err)
	}
	return d, nil
}

// StringSlice retrieves a sequence of strings.
func (h *Handle) StringSlice(key string) ([]string, error) {
	val, err := h.value(key)
	if err != nil {
		return nil, err
	}

	s, err := cast.ToStringSliceE(val)
	if err != nil {
		return nil, fmt.Errorf("cannot convert type %T to []string for key %s: %w", val, key, err)
	}
	return s, nil
}

// StringMap retrieves a nested mapping.
func (h *Handle) StringMap(key string) (map[string]any, error) {
	val, err := h.value(key)
	if err != nil {
		return nil, err
	}

	m, err := cast.ToStringMapE(val)
	if err != nil {
		return nil, fmt.Errorf("cannot convert type %T to map for key %s: %w", val, key, err)
	}
	return m, nil
}
