package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/treemig/internal/ir"
	"github.com/roach88/treemig/internal/predicate"
)

// Suite is a named set of fixture cases.
type Suite struct {
	// Name uniquely identifies this suite.
	Name string `yaml:"name"`

	// Description explains what the suite covers.
	Description string `yaml:"description,omitempty"`

	// Options apply to every case unless the case overrides them.
	Options Options `yaml:"options,omitempty"`

	Cases []Case `yaml:"cases"`
}

// Case is one fixture.
type Case struct {
	Name string `yaml:"name"`

	// Kind is KindTree (default) or KindPredicate.
	Kind string `yaml:"kind,omitempty"`

	Input JSONText `yaml:"input"`

	// Options override the suite options field by field.
	Options *Options `yaml:"options,omitempty"`

	Expect Expect `yaml:"expect"`
}

// Options mirror the migrator options.
type Options struct {
	StrictComplement *bool `yaml:"strict_complement,omitempty"`
	MaxDepth         *int  `yaml:"max_depth,omitempty"`
	Verify           *bool `yaml:"verify,omitempty"`
}

// Expect holds exactly one of Output or Error.
type Expect struct {
	// Output is the expected new-form JSON.
	Output JSONText `yaml:"output,omitempty"`

	// Error is the expected predicate error code, or SchemaViolation.
	Error string `yaml:"error,omitempty"`

	// Reason, if set, must be a substring of the error message.
	Reason string `yaml:"reason,omitempty"`

	// Path, if set, must equal the error path.
	Path *string `yaml:"path,omitempty"`
}

// Case kinds.
const (
	KindTree      = "tree"
	KindPredicate = "predicate"
)

// SchemaViolation is the expected error for output rejected by verification.
const SchemaViolation = "SCHEMA_VIOLATION"

var validErrors = []string{
	string(predicate.ErrCodeUnsupportedPredicate),
	string(predicate.ErrCodeIncompatiblePredicates),
	string(predicate.ErrCodeStructural),
	SchemaViolation,
}

// JSONText is JSON read from YAML. A string scalar is taken as JSON text
// verbatim; any other node is converted to JSON.
type JSONText []byte

// UnmarshalYAML implements yaml.Unmarshaler.
func (j *JSONText) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!str" {
		*j = JSONText(node.Value)
		return nil
	}

	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	irv, err := ir.FromAny(normalizeYAML(v))
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	data, err := ir.MarshalIRValue(irv)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*j = data
	return nil
}

// normalizeYAML converts the map[any]any yaml produces for non-string
// keys into map[string]any.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalizeYAML(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[fmt.Sprint(k)] = normalizeYAML(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalizeYAML(e)
		}
		return out
	default:
		return v
	}
}

// LoadSuite reads and parses a suite YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}
	return ParseSuite(data)
}

// ParseSuite parses suite YAML.
func ParseSuite(data []byte) (*Suite, error) {
	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateSuite(&suite); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}
	return &suite, nil
}

// validateSuite checks that required fields are present and valid.
func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Cases))
	for i := range s.Cases {
		c := &s.Cases[i]
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate name %q", i, c.Name)
		}
		seen[c.Name] = true

		if c.Kind == "" {
			c.Kind = KindTree
		}
		if c.Kind != KindTree && c.Kind != KindPredicate {
			return fmt.Errorf("cases[%d]: unknown kind %q", i, c.Kind)
		}
		if len(c.Input) == 0 {
			return fmt.Errorf("cases[%d]: input is required", i)
		}

		hasOutput, hasError := len(c.Expect.Output) > 0, c.Expect.Error != ""
		if hasOutput == hasError {
			return fmt.Errorf("cases[%d]: expect needs exactly one of output or error", i)
		}
		if hasOutput && !json.Valid(c.Expect.Output) {
			return fmt.Errorf("cases[%d]: expect.output is not valid JSON", i)
		}
		if hasError && !slices.Contains(validErrors, c.Expect.Error) {
			return fmt.Errorf("cases[%d]: unknown error code %q", i, c.Expect.Error)
		}
		if hasOutput && (c.Expect.Reason != "" || c.Expect.Path != nil) {
			return fmt.Errorf("cases[%d]: reason and path only apply to expected errors", i)
		}
	}
	return nil
}

// effective merges case options over suite options.
func effective(suite, override *Options) Options {
	out := *suite
	if override == nil {
		return out
	}
	if override.StrictComplement != nil {
		out.StrictComplement = override.StrictComplement
	}
	if override.MaxDepth != nil {
		out.MaxDepth = override.MaxDepth
	}
	if override.Verify != nil {
		out.Verify = override.Verify
	}
	return out
}
