package batches

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// compileFieldSchema compiles the submission's field schema, rejecting
// submissions whose schema is not a valid JSON Schema document.
func compileFieldSchema(raw json.RawMessage) (*jsonschema.Schema, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty schema", ErrInvalidSchema)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("field_schema.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}

	schema, err := compiler.Compile("field_schema.json")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	return schema, nil
}
