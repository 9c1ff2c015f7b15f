package material

import (
	"embed"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/template.schema.json
var schemaFS embed.FS

var (
	schemaOnce sync.Once
	schemaErr  error
	schema     *gojsonschema.Schema
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		data, err := schemaFS.ReadFile("schema/template.schema.json")
		if err != nil {
			schemaErr = fmt.Errorf("read template schema: %w", err)
			return
		}
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile template schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// ValidateShape checks a filled document against the template JSON Schema
// and returns a description per violation. Violations are advisory: the
// generation pipeline logs them and continues, consistent with the
// best-effort repair policy. The error return covers schema machinery
// failures only.
func ValidateShape(doc map[string]any) ([]string, error) {
	s, err := loadSchema()
	if err != nil {
		return nil, err
	}

	result, err := s.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate template document: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		violations = append(violations, e.String())
	}
	return violations, nil
}
