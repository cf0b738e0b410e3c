// FILE: lixenwraith/yacman/defaults.go
package yacman

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// entriesFromStruct converts a struct of defaults into a nested tree.
// Field names come from tagName tags (`yaml:"port"`), falling back to the
// field name; "-" skips a field. Nested structs become nested maps and nil
// struct pointers are skipped.
func entriesFromStruct(structWithDefaults any, tagName string) (map[string]any, error) {
	v := reflect.ValueOf(structWithDefaults)

	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, fmt.Errorf("defaults require a non-nil struct pointer or value")
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("defaults require a struct or struct pointer, got %T", structWithDefaults)
	}

	tree := make(map[string]any)
	var errs []string
	collectFields(v, tagName, "", tree, &errs)

	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to register %d field(s): %s", len(errs), strings.Join(errs, "; "))
	}
	return tree, nil
}

// collectFields walks the struct recursively, filling tree.
func collectFields(v reflect.Value, tagName, fieldPath string, tree map[string]any, errs *[]string) {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get(tagName)
		if tag == "-" {
			continue
		}

		key := field.Name
		if tag != "" {
			parts := strings.Split(tag, ",")
			if parts[0] != "" {
				key = parts[0]
			}
		}
		if strings.Contains(key, ".") {
			*errs = append(*errs, fmt.Sprintf("field %s%s: key %q must not contain dots", fieldPath, field.Name, key))
			continue
		}

		switch fv := fieldValue.Interface().(type) {
		case time.Duration:
			tree[key] = fv.String()
			continue
		case encoding.TextMarshaler:
			if fieldValue.Kind() == reflect.Ptr && fieldValue.IsNil() {
				continue
			}
			text, err := fv.MarshalText()
			if err != nil {
				*errs = append(*errs, fmt.Sprintf("field %s%s: %v", fieldPath, field.Name, err))
				continue
			}
			tree[key] = string(text)
			continue
		}

		isStruct := fieldValue.Kind() == reflect.Struct
		isPtrToStruct := fieldValue.Kind() == reflect.Ptr && fieldValue.Type().Elem().Kind() == reflect.Struct

		if isStruct || isPtrToStruct {
			nestedValue := fieldValue
			if isPtrToStruct {
				if fieldValue.IsNil() {
					continue
				}
				nestedValue = fieldValue.Elem()
			}

			nested := make(map[string]any)
			collectFields(nestedValue, tagName, fieldPath+field.Name+".", nested, errs)
			tree[key] = nested
			continue
		}

		tree[key] = normalizeValue(fieldValue.Interface())
	}
}
