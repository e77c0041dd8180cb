package schema

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/cv-tailor/internal/agent"
	"github.com/jonathan/cv-tailor/internal/types"
)

// canonicalSchema is the closed JSON Schema for the canonical resume.
// additionalProperties is false everywhere, so synonyms and stray fields
// (level on skills, issuer/date on certificates) are structural violations
// once data is at rest.
const canonicalSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["basics"],
  "additionalProperties": false,
  "properties": {
    "basics": {
      "type": "object",
      "required": ["name", "email"],
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "email": {"type": "string", "minLength": 3},
        "phone": {"type": "string"},
        "url": {"type": "string"},
        "summary": {"type": "string"},
        "location": {"type": "string"},
        "profiles": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["network"],
            "additionalProperties": false,
            "properties": {
              "network": {"type": "string"},
              "username": {"type": "string"},
              "url": {"type": "string"}
            }
          }
        }
      }
    },
    "work": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["company", "position", "startDate", "endDate"],
        "additionalProperties": false,
        "properties": {
          "company": {"type": "string"},
          "position": {"type": "string"},
          "location": {"type": "string"},
          "startDate": {"type": "string"},
          "endDate": {"type": "string"},
          "description": {"type": "string"},
          "highlights": {"type": ["array", "null"], "items": {"type": "string"}}
        }
      }
    },
    "education": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["institution", "area", "studyType", "startDate", "endDate"],
        "additionalProperties": false,
        "properties": {
          "institution": {"type": "string"},
          "area": {"type": "string"},
          "studyType": {"type": "string"},
          "startDate": {"type": "string"},
          "endDate": {"type": "string"},
          "gpa": {"type": "string"},
          "honors": {"type": "string"}
        }
      }
    },
    "skills": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["name", "keywords"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string"},
          "keywords": {"type": ["array", "null"], "items": {"type": "string"}}
        }
      }
    },
    "projects": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["name", "description"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string"},
          "description": {"type": ["array", "null"], "items": {"type": "string"}},
          "url": {"type": "string"}
        }
      }
    },
    "certificates": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["name", "details"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string"},
          "details": {"type": ["array", "null"], "items": {"type": "string"}}
        }
      }
    }
  }
}`

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a typed resume against both the struct tags (required
// identity fields, email-shaped email) and the closed canonical JSON
// Schema. All violations surface as SchemaError.
func Validate(r *types.CanonicalResume) error {
	if r == nil {
		return agent.Errorf(agent.KindSchema, "resume is nil")
	}

	if err := validate.Struct(r); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace())
			}
			return agent.Errorf(agent.KindSchema, "invalid fields: %s", strings.Join(fields, ", "))
		}
		return agent.Errorf(agent.KindSchema, "struct validation failed: %v", err)
	}

	doc, err := json.Marshal(r)
	if err != nil {
		return agent.Errorf(agent.KindSchema, "marshaling resume: %v", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(canonicalSchema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return agent.Errorf(agent.KindSchema, "schema validation failed to run: %v", err)
	}
	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			details = append(details, field+": "+desc.Description())
		}
		return agent.Errorf(agent.KindSchema, "canonical schema violations: %s", strings.Join(details, "; "))
	}
	return nil
}

// ParseCandidate decodes and validates an untrusted resume document, such
// as LLM-tailored output, in one step.
func ParseCandidate(raw json.RawMessage) (*types.CanonicalResume, error) {
	resume, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	NormalizeResume(resume)
	if err := Validate(resume); err != nil {
		return nil, err
	}
	return resume, nil
}
