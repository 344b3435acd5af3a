package rubric

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// JSON-schema validation for inbound payloads: teacher rubrics and extracted
// student answers. Catching a malformed payload here keeps the grading path
// free of nil checks on half-decoded structures.

const testSchema = `{
  "type": "object",
  "required": ["rubric"],
  "properties": {
    "id": {"type": "string"},
    "title": {"type": "string"},
    "rubric": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["question_id", "key_points"],
        "properties": {
          "question_id": {"type": "string"},
          "max_marks": {"type": "number"},
          "key_points": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["id", "concept", "type", "marks"],
              "properties": {
                "id": {"type": "string"},
                "concept": {"type": "string"},
                "type": {"enum": ["node_check", "connection_check", "text", "equation", "final_answer"]},
                "marks": {"type": "number"},
                "acceptable_modalities": {"type": "array", "items": {"type": "string"}}
              }
            }
          }
        }
      }
    }
  }
}`

const answersSchema = `{
  "type": "object",
  "required": ["answers"],
  "properties": {
    "answers": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["question_id"],
        "properties": {
          "question_id": {"type": "string"},
          "text": {"type": "array", "items": {"type": "string"}},
          "equations": {"type": "array", "items": {"type": "string"}},
          "final_answer": {"type": ["string", "null"]},
          "flowcharts": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {
                "nodes": {
                  "type": "array",
                  "items": {
                    "type": "object",
                    "required": ["id", "text"],
                    "properties": {
                      "id": {"type": "string"},
                      "text": {"type": "string"},
                      "shape": {"type": "string"}
                    }
                  }
                },
                "edges": {
                  "type": "array",
                  "items": {
                    "type": "object",
                    "required": ["source", "target"],
                    "properties": {
                      "source": {"type": "string"},
                      "target": {"type": "string"},
                      "label": {"type": "string"}
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	testCompiled   *jsonschema.Schema
	answerCompiled *jsonschema.Schema
	schemaErr      error
)

func compileSchemas() {
	testCompiled, schemaErr = compile("test.json", testSchema)
	if schemaErr != nil {
		return
	}
	answerCompiled, schemaErr = compile("answers.json", answersSchema)
}

func compile(name, def string) (*jsonschema.Schema, error) {
	var parsed any
	if err := json.Unmarshal([]byte(def), &parsed); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", name, err)
	}
	c := jsonschema.NewCompiler()
	url := "schema://" + name
	if err := c.AddResource(url, parsed); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	return c.Compile(url)
}

// ValidateTestPayload checks a rubric payload against the rubric schema.
func ValidateTestPayload(raw []byte) error {
	return validate(raw, func() *jsonschema.Schema { return testCompiled })
}

// ValidateAnswersPayload checks an extracted-answers payload against the
// answer schema.
func ValidateAnswersPayload(raw []byte) error {
	return validate(raw, func() *jsonschema.Schema { return answerCompiled })
}

func validate(raw []byte, pick func() *jsonschema.Schema) error {
	schemaOnce.Do(compileSchemas)
	if schemaErr != nil {
		return schemaErr
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := pick().Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
