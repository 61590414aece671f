package ranking

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// assignmentSchema describes the array the model must return. Ids may arrive
// as numbers because Scorecard ids are numeric; they are canonicalized after
// validation. Everything else must already have the right type.
const assignmentSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "rank", "cost_rating", "fit_score", "analysis"],
    "properties": {
      "id":          {"type": ["string", "integer"]},
      "rank":        {"type": "integer", "minimum": 1},
      "cost_rating": {"type": "string", "enum": ["Excellent", "Good", "Fair"]},
      "fit_score":   {"type": "number", "minimum": 0, "maximum": 100},
      "analysis":    {"type": "string"}
    }
  }
}`

var compiledSchema = mustCompileSchema(assignmentSchema)

func mustCompileSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("invalid assignment schema: %v", err))
	}
	return schema
}

// validateAssignments checks raw JSON against the assignment schema and
// returns a combined description of every violation.
func validateAssignments(raw string) error {
	result, err := compiledSchema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema violations: %s", strings.Join(msgs, "; "))
}
