// Package schema checks response text against a JSON Schema document.
package schema

import (
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

// ErrNotJSON is returned when the document being checked is not JSON.
var ErrNotJSON = errors.New("document is not valid JSON")

// Schema is a compiled JSON Schema.
type Schema struct {
	source string
	schema *gojsonschema.Schema
}

// Load reads and compiles the schema at path.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	s, err := Compile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.source = path
	return s, nil
}

// Compile compiles schema bytes.
func Compile(data []byte) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Schema{source: "inline", schema: compiled}, nil
}

// Source is the file the schema was loaded from, or "inline".
func (s *Schema) Source() string {
	return s.source
}

// Validate checks text and returns one message per violation. An empty
// slice means text matches.
func (s *Schema) Validate(text string) ([]string, error) {
	if !gjson.Valid(text) {
		return nil, ErrNotJSON
	}

	result, err := s.schema.Validate(gojsonschema.NewStringLoader(text))
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	var violations []string
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return violations, nil
}
