package config

import (
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadWithWarnings parses matrix data and returns any unknown field warnings.
func LoadWithWarnings(data []byte) (*Matrix, []string, error) {
	var m Matrix
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, nil, fmt.Errorf("failed to parse matrix file: %w", err)
	}

	warnings := detectUnknownFields(data)

	return &m, warnings, nil
}

// detectUnknownFields compares raw YAML keys with known struct fields.
// Note: called after successful Matrix parsing, so a parse failure here
// would indicate an unexpected internal inconsistency.
func detectUnknownFields(data []byte) []string {
	var warnings []string

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		// Should never happen since the data was already parsed successfully.
		return []string{"internal: failed to re-parse matrix for unknown field detection"}
	}

	knownTopLevel := yamlFields(reflect.TypeOf(Matrix{}))
	for key := range raw {
		if !knownTopLevel[key] {
			warnings = append(warnings, fmt.Sprintf("unknown field %q at root level (ignored)", key))
		}
	}

	if groupsRaw, ok := raw["groups"].([]any); ok {
		warnings = append(warnings, checkGroupUnknownFields(groupsRaw)...)
	}

	return warnings
}

func checkGroupUnknownFields(groups []any) []string {
	var warnings []string

	knownGroupFields := yamlFields(reflect.TypeOf(GroupConfig{}))
	for i, g := range groups {
		fields, ok := g.(map[string]any)
		if !ok {
			continue
		}
		name := fmt.Sprintf("#%d", i)
		if n, ok := fields["name"].(string); ok && n != "" {
			name = n
		}
		for key := range fields {
			if !knownGroupFields[key] {
				warnings = append(warnings, fmt.Sprintf("unknown field %q in group %q (ignored)", key, name))
			}
		}
	}

	return warnings
}

// yamlFields returns a map of known YAML field names for a struct type.
func yamlFields(t reflect.Type) map[string]bool {
	fields := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("yaml")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if name != "" {
			fields[name] = true
		}
	}
	return fields
}
