package report

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ResultSchema is the JSON Schema of the structured output.
//
//go:embed result.schema.json
var ResultSchema []byte

const schemaURL = "result.schema.json"

// SchemaErrors is every violation found in a document.
type SchemaErrors []error

// Error implements the error interface.
func (se SchemaErrors) Error() string {
	if len(se) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, err := range se {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

func compileResultSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(ResultSchema)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return schema, nil
}

// Validate checks a structured result document against ResultSchema.
//
// A document that is not JSON returns a plain error; schema violations
// return SchemaErrors listing each failing location.
func Validate(data []byte) error {
	schema, err := compileResultSchema()
	if err != nil {
		return err
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return flatten(verr)
		}
		return SchemaErrors{err}
	}
	return nil
}

// flatten collects the leaf causes of a validation error.
func flatten(err *jsonschema.ValidationError) SchemaErrors {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return SchemaErrors{fmt.Errorf("%s: %s", loc, err.Message)}
	}

	var out SchemaErrors
	for _, cause := range err.Causes {
		out = append(out, flatten(cause)...)
	}
	return out
}
