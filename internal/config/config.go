package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a matrix document.
func Load(path string) (*Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read matrix file: %w", err)
	}

	var m Matrix
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse matrix file: %w", err)
	}

	return &m, nil
}

// LoadWithDefaults reads a matrix document and applies default values.
func LoadWithDefaults(path string) (*Matrix, error) {
	m, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyDefaults(m)
	return m, nil
}

// LoadAndValidate reads a matrix document, applies defaults, validates,
// and returns warnings.
func LoadAndValidate(path string) (*Matrix, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read matrix file: %w", err)
	}

	m, unknownWarnings, err := LoadWithWarnings(data)
	if err != nil {
		return nil, nil, err
	}

	applyDefaults(m)

	validationWarnings, err := Validate(m)

	// Combine warnings from both sources.
	allWarnings := make([]string, 0, len(unknownWarnings)+len(validationWarnings))
	allWarnings = append(allWarnings, unknownWarnings...)
	allWarnings = append(allWarnings, validationWarnings...)

	if err != nil {
		return nil, allWarnings, err
	}

	return m, allWarnings, nil
}
