// Package loader reads and writes rule files in JSON, YAML and TOML and
// discovers the rule files of other character profiles.
package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a rule file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ruleFile is the wrapped multi-rule layout. TOML has no top-level arrays,
// so it is always written this way.
type ruleFile[T any] struct {
	Rules []T `json:"rules" yaml:"rules" toml:"rules"`
}

// LoadError describes a rule file that could not be parsed.
type LoadError struct {
	FilePath string `json:"file_path"`
	Error    string `json:"error"`
}

// ParseFormat resolves a format name such as "yml".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("unsupported format: %s", name)
}

// Extension returns the file extension for the format, dot included.
func (f Format) Extension() string {
	return "." + string(f)
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// ParseFile reads the rule file at path.
func ParseFile[T any](path string) ([]T, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse[T](data, format)
}

// Parse decodes rules from data. JSON and YAML accept either a bare list
// or a {rules: [...]} wrapper. Blank input is an empty rule set.
func Parse[T any](data []byte, format Format) ([]T, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}

	switch format {
	case FormatJSON:
		return parseJSON[T](data)
	case FormatYAML:
		return parseYAML[T](data)
	case FormatTOML:
		var file ruleFile[T]
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
		return nonNil(file.Rules), nil
	}
	return nil, fmt.Errorf("unsupported format: %s", format)
}

func parseJSON[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if trimmed[0] == '[' {
		var rules []T
		if err := json.Unmarshal(trimmed, &rules); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		return nonNil(rules), nil
	}

	var file ruleFile[T]
	if err := json.Unmarshal(trimmed, &file); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nonNil(file.Rules), nil
}

func parseYAML[T any](data []byte) ([]T, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(doc.Content) == 0 {
		return []T{}, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var rules []T
		if err := root.Decode(&rules); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		return nonNil(rules), nil
	case yaml.MappingNode:
		var file ruleFile[T]
		if err := root.Decode(&file); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		return nonNil(file.Rules), nil
	}
	return nil, fmt.Errorf("failed to parse YAML: line %d: expected a list of rules", root.Line)
}

// Encode serializes rules. JSON is written as an indented bare list.
func Encode[T any](rules []T, format Format) ([]byte, error) {
	rules = nonNil(rules)
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(rules, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal rules to JSON: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(ruleFile[T]{Rules: rules})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal rules to YAML: %w", err)
		}
		return data, nil
	case FormatTOML:
		data, err := toml.Marshal(ruleFile[T]{Rules: rules})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal rules to TOML: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("unsupported format: %s", format)
}

func nonNil[T any](rules []T) []T {
	if rules == nil {
		return []T{}
	}
	return rules
}
