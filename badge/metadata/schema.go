package metadata

import (
	_ "embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed badge_metadata_schema.json
var schemaJSON []byte

// validateDocument validates a built document against the embedded badge
// metadata schema.
func validateDocument(doc Document) error {
	schemaLoader := gojsonschema.NewBytesLoader(schemaJSON)
	documentLoader := gojsonschema.NewGoLoader(map[string]interface{}(doc))

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate metadata schema: %w", err)
	}
	if !result.Valid() {
		return fmt.Errorf("metadata document failed schema validation: %v", result.Errors())
	}
	return nil
}
