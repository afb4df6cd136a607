package registry

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Suite is a named collection of cases loaded from a YAML file.
// Suites replace the built-in catalog rather than extending it, so a
// suite file fully determines what runs.
type Suite struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Cases       []Case `yaml:"cases"`
}

// LoadSuite reads, schema-checks, and decodes a suite file.
//
// The document is validated against the embedded schema before
// decoding, so type and enum mistakes are reported with field paths.
// Unknown YAML fields are rejected to catch typos early.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}
	return ParseSuite(data)
}

// ParseSuite validates and decodes a raw suite document.
func ParseSuite(data []byte) (*Suite, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, err
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var suite Suite
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("failed to parse suite YAML: %w", err)
	}

	if err := validateSuite(&suite); err != nil {
		return nil, err
	}
	return &suite, nil
}

// validateSuite applies the structural rules the schema cannot express:
// path locality, cross-field requirements, and name uniqueness.
func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("suite name is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("suite %q has no cases", s.Name)
	}

	seen := make(map[string]bool)
	for i := range s.Cases {
		c := &s.Cases[i]
		if err := c.Validate(); err != nil {
			return fmt.Errorf("suite %q: cases[%d]: %w", s.Name, i, err)
		}
		if seen[c.Name] {
			return fmt.Errorf("suite %q: duplicate case name %q", s.Name, c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}
