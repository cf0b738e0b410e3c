// FILE: lixenwraith/yacman/validate.go
package yacman

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/afero"
)

// inlineSchemaURL names schemas compiled from in-memory documents.
const inlineSchemaURL = "file:///yacman/inline-schema.json"

// Schema is a compiled JSON Schema used to gate construction and writes.
type Schema struct {
	source   string
	compiled *jsonschema.Schema
}

// LoadSchema compiles the schema document at path from the OS filesystem.
// The document may be JSON, YAML or TOML.
func LoadSchema(path string) (*Schema, error) {
	return LoadSchemaFs(afero.NewOsFs(), path)
}

// LoadSchemaFs compiles the schema document at path from fs.
func LoadSchemaFs(fs afero.Fs, path string) (*Schema, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema '%s': %w", path, err)
	}

	format := resolveFormat(FormatAuto, path, raw)
	doc, err := parseDocument(raw, format)
	if err != nil {
		return nil, fmt.Errorf("schema '%s': %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schema path '%s': %w", path, err)
	}
	return compileSchema(abs, doc)
}

// CompileSchema compiles an in-memory schema document.
func CompileSchema(doc map[string]any) (*Schema, error) {
	return compileSchema(inlineSchemaURL, doc)
}

func compileSchema(location string, doc map[string]any) (*Schema, error) {
	jsonDoc, err := toJSONValue(doc)
	if err != nil {
		return nil, fmt.Errorf("schema '%s': %w", location, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(location, jsonDoc); err != nil {
		return nil, fmt.Errorf("failed to add schema '%s': %w", location, err)
	}
	compiled, err := compiler.Compile(location)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema '%s': %w", location, err)
	}

	return &Schema{source: location, compiled: compiled}, nil
}

// Source returns where the schema was loaded from.
func (s *Schema) Source() string {
	return s.source
}

// Validate checks tree against the schema. Failures wrap ErrValidation and
// the validator's detailed error.
func (s *Schema) Validate(tree map[string]any) error {
	inst, err := toJSONValue(tree)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := s.compiled.Validate(inst); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

// toJSONValue converts a tree to the value shapes the validator expects
// (json.Number numbers, []any, map[string]any).
func toJSONValue(tree map[string]any) (any, error) {
	raw, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to convert tree to JSON: %w", err)
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}

// Validate checks the current tree against the handle's schema.
// A handle without a schema always passes.
func (h *Handle) Validate() error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.schema == nil {
		return nil
	}
	return h.schema.Validate(h.data)
}
