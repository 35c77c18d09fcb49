package validation

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaValidator validates catalog documents before they enter the
// in-memory snapshot. The ingestion pipeline writes these rows; this
// side only decides whether a row is usable.
type SchemaValidator struct {
	instances *gojsonschema.Schema
}

// instancesSchema describes the JSONB instances column of the
// conferences table: a list of yearly instances, each with a timeline.
const instancesSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["year", "timeline"],
		"properties": {
			"year": {"type": "integer", "minimum": 1990, "maximum": 2100},
			"date": {"type": "string"},
			"place": {"type": "string"},
			"timezone": {"type": "string"},
			"link": {"type": "string"},
			"timeline": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["deadline"],
					"properties": {
						"deadline": {"type": "string", "minLength": 1},
						"abstract_deadline": {"type": "string"},
						"comment": {"type": "string"}
					}
				}
			}
		}
	}
}`

func NewSchemaValidator() (*SchemaValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(instancesSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile instances schema: %w", err)
	}
	return &SchemaValidator{instances: schema}, nil
}

// ValidateInstances checks a raw instances document. A non-nil error
// means the row should be skipped, not that the load should fail.
func (sv *SchemaValidator) ValidateInstances(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("instances document is not valid JSON")
	}

	result, err := sv.instances.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("instances validation failed: %w", err)
	}

	if !result.Valid() {
		errs := result.Errors()
		if len(errs) > 0 {
			return fmt.Errorf("invalid instances document: %s", errs[0].String())
		}
		return fmt.Errorf("invalid instances document")
	}

	return nil
}
