package applications

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"pet-adoption-api/internal/platform/validation"
)

const formSchemaJSON = `{
  "type": "object",
  "required": ["address", "household", "experience", "reference", "consent"],
  "properties": {
    "address": {"type": "string", "minLength": 5, "maxLength": 500},
    "household": {
      "type": "object",
      "required": ["adults"],
      "properties": {
        "adults": {"type": "integer", "minimum": 1, "maximum": 20},
        "children": {"type": "integer", "minimum": 0, "maximum": 20},
        "housing": {"type": "string", "enum": ["apartment", "house", "farm", "other"]},
        "other_pets": {"type": "string", "maxLength": 500}
      }
    },
    "experience": {"type": "string", "minLength": 1, "maxLength": 2000},
    "reference": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": {"type": "string", "minLength": 1, "maxLength": 120},
        "phone": {"type": "string", "minLength": 6, "maxLength": 40},
        "email": {"type": "string", "format": "email"}
      },
      "anyOf": [{"required": ["phone"]}, {"required": ["email"]}]
    },
    "consent": {"type": "boolean", "enum": [true]}
  }
}`

var formSchema = mustSchema(formSchemaJSON)

func mustSchema(raw string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("applications: invalid form schema: %v", err))
	}
	return s
}

// validateForm devuelve validation.Errors con claves form_data.<campo>.
func validateForm(form map[string]any) error {
	if form == nil {
		return validation.Errors{"form_data": "is required"}
	}

	result, err := formSchema.Validate(gojsonschema.NewGoLoader(form))
	if err != nil {
		return fmt.Errorf("validate form: %w", err)
	}
	if result.Valid() {
		return nil
	}

	errs := validation.Errors{}
	for _, desc := range result.Errors() {
		errs.Add(fieldOf(desc), desc.Description())
	}
	return errs.Err()
}

func fieldOf(desc gojsonschema.ResultError) string {
	field := desc.Field()
	if desc.Type() == "required" {
		// según la versión, el contexto ya incluye la propiedad faltante o no.
		if prop, ok := desc.Details()["property"].(string); ok && prop != "" && !strings.HasSuffix(field, prop) {
			if field == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY {
				field = prop
			} else {
				field = field + "." + prop
			}
		}
	}
	if field == "" || field == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY {
		return "form_data"
	}
	return "form_data." + strings.TrimPrefix(field, ".")
}
