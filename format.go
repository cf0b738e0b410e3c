// FILE: lixenwraith/yacman/format.go
package yacman

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format names a document encoding.
type Format string

const (
	// FormatAuto picks the format from the file extension, then from content
	FormatAuto Format = "auto"
	// FormatYAML is the default format
	FormatYAML Format = "yaml"
	// FormatJSON accepts comments and trailing commas on input
	FormatJSON Format = "json"
	// FormatTOML is TOML v1.0
	FormatTOML Format = "toml"
)

// ParseFormat converts a user-provided format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json", "jsonc":
		return FormatJSON, nil
	case "toml", "tml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// detectFileFormat determines format from file extension
func detectFileFormat(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json", ".jsonc":
		return FormatJSON
	case ".toml", ".tml":
		return FormatTOML
	default:
		return ""
	}
}

// detectFormatFromContent attempts to detect format by parsing.
// YAML accepts almost any text as a scalar, so it is tried last and only
// counts when the document is a mapping.
func detectFormatFromContent(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return FormatYAML
	}

	if trimmed[0] == '{' {
		var jsonTest map[string]any
		if err := json.Unmarshal(jsonc.ToJSON(trimmed), &jsonTest); err == nil {
			return FormatJSON
		}
	}

	var tomlTest map[string]any
	if err := toml.Unmarshal(trimmed, &tomlTest); err == nil {
		return FormatTOML
	}

	var yamlTest any
	if err := yaml.Unmarshal(trimmed, &yamlTest); err == nil {
		switch yamlTest.(type) {
		case map[string]any, map[any]any, nil:
			return FormatYAML
		}
	}

	return ""
}

// resolveFormat picks the codec for a document: explicit setting, then
// path extension, then content.
func resolveFormat(explicit Format, path string, data []byte) Format {
	if explicit != "" && explicit != FormatAuto {
		return explicit
	}
	if f := detectFileFormat(path); f != "" {
		return f
	}
	if data != nil {
		return detectFormatFromContent(data)
	}
	return FormatYAML
}

// parseDocument decodes data into a tree with string keys throughout.
// An empty document yields an empty tree.
func parseDocument(data []byte, format Format) (map[string]any, error) {
	tree := make(map[string]any)
	if len(bytes.TrimSpace(data)) == 0 {
		return tree, nil
	}

	switch format {
	case FormatYAML:
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w as YAML: %w", ErrParse, err)
		}
		if raw == nil {
			return tree, nil
		}
		m, ok := normalizeValue(raw).(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: YAML document is a %T, not a mapping", ErrParse, raw)
		}
		return m, nil

	case FormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.UseNumber() // Preserve number precision
		if err := decoder.Decode(&tree); err != nil {
			return nil, fmt.Errorf("%w as JSON: %w", ErrParse, err)
		}

	case FormatTOML:
		if err := toml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("%w as TOML: %w", ErrParse, err)
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	return normalizeValue(tree).(map[string]any), nil
}

// serializeDocument encodes a tree in the given format.
func serializeDocument(tree map[string]any, format Format) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case FormatYAML, "", FormatAuto:
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(tree); err != nil {
			return nil, fmt.Errorf("failed to marshal data to YAML: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return nil, fmt.Errorf("failed to flush YAML encoder: %w", err)
		}

	case FormatJSON:
		encoder := json.NewEncoder(&buf)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(tree); err != nil {
			return nil, fmt.Errorf("failed to marshal data to JSON: %w", err)
		}

	case FormatTOML:
		encoder := toml.NewEncoder(&buf)
		if err := encoder.Encode(tree); err != nil {
			return nil, fmt.Errorf("failed to marshal data to TOML: %w", err)
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	return buf.Bytes(), nil
}
