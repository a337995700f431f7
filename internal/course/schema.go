package course

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/submission.json
var submissionSchemaJSON string

// rootField is how gojsonschema names the document itself.
const rootField = "(root)"

var submissionSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(submissionSchemaJSON))
})

// ValidationError lists the fields of a request body that violate the schema.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid submission: %s", strings.Join(names, ", "))
}

// ValidateSubmission checks a raw publish body against the submission schema.
func ValidateSubmission(body []byte) error {
	schema, err := submissionSchema()
	if err != nil {
		return fmt.Errorf("compiling submission schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &ValidationError{Fields: map[string]string{rootField: "body is not valid JSON"}}
	}
	if result.Valid() {
		return nil
	}

	fields := make(map[string]string, len(result.Errors()))
	for _, re := range result.Errors() {
		field := re.Field()
		if re.Type() == "required" {
			if prop, ok := re.Details()["property"].(string); ok {
				if field == rootField {
					field = prop
				} else {
					field += "." + prop
				}
			}
		}
		if _, seen := fields[field]; !seen {
			fields[field] = re.Description()
		}
	}
	return &ValidationError{Fields: fields}
}
