package generator

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// definitionMetaSchema is the structural contract for user-supplied schema
// definitions. Semantic rules (duplicate names, ranges, weights) are
// enforced afterwards by Schema.Validate.
const definitionMetaSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["kind", "fields"],
  "properties": {
    "kind": {"type": "string", "minLength": 1, "pattern": "^[a-z][a-z0-9_]*$"},
    "description": {"type": "string"},
    "fields": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "type"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "type": {"type": "string"},
          "nullable": {"type": "boolean"},
          "null_rate": {"type": "number"},
          "min": {"type": "number"},
          "max": {"type": "number"},
          "precision": {"type": "integer"},
          "true_rate": {"type": "number"},
          "choices": {"type": "array", "items": {"type": "string"}},
          "weights": {"type": "array", "items": {"type": "number"}},
          "from": {"type": "string"},
          "to": {"type": "string"},
          "pool_size": {"type": "integer"},
          "hint": {"type": "string"}
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`

var definitionSchema = jsonschema.MustCompileString("schema_definition.json", definitionMetaSchema)

// ParseDefinition validates a raw custom schema definition and returns the
// frozen Schema it describes.
func ParseDefinition(raw []byte) (*Schema, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: not valid JSON: %v", ErrInvalidDefinition, err)
	}
	if err := definitionSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}

	var s Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Resolve returns the frozen schema for a job: the captured custom
// definition when present, the registry builtin otherwise.
func Resolve(reg *Registry, kind string, definition []byte) (*Schema, error) {
	if len(definition) > 0 {
		return ParseDefinition(definition)
	}
	return reg.Resolve(kind)
}
