package fixtures

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed descriptor.schema.json
var schemaJSON []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// SchemaError lists every schema violation found in a descriptor.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidDescriptor, strings.Join(e.Problems, "; "))
}

func (e *SchemaError) Unwrap() error { return ErrInvalidDescriptor }

// Validate checks a decoded descriptor document against the schema.
func Validate(doc any) error {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = compileSchema()
	})
	if schemaErr != nil {
		return fmt.Errorf("schema compilation error: %w", schemaErr)
	}

	// Round-trip through JSON so YAML-decoded values have JSON types.
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}
	var normalized any
	if err := json.Unmarshal(data, &normalized); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}

	if err := compiledSchema.Validate(normalized); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			result := &SchemaError{}
			collectProblems(validationErr, result)
			return result
		}
		return fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}
	return nil
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	if err := compiler.AddResource("descriptor.schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	return compiler.Compile("descriptor.schema.json")
}

// collectProblems flattens the leaf causes of a validation error.
func collectProblems(err *jsonschema.ValidationError, result *SchemaError) {
	if len(err.Causes) == 0 {
		location := err.InstanceLocation
		if location == "" {
			location = "/"
		}
		result.Problems = append(result.Problems, location+": "+err.Message)
		return
	}
	for _, cause := range err.Causes {
		collectProblems(cause, result)
	}
}
