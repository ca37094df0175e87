// Package schema validates the JSON documents the language model returns.
// Model output is untrusted input: every structured reply is checked against
// a fixed schema before the pipeline builds on it.
package schema

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const syllabusSchemaJSON = `{
	"type": "object",
	"required": ["modules"],
	"properties": {
		"course_code": {"type": "string"},
		"course_name": {"type": "string"},
		"modules": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["module_name", "topics"],
				"properties": {
					"module_number": {"type": "string"},
					"module_name": {"type": "string"},
					"weightage": {"type": "number", "minimum": 0, "maximum": 1},
					"topics": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["name"],
							"properties": {
								"name": {"type": "string"},
								"subtopics": {"type": "array", "items": {"type": "object"}}
							}
						}
					}
				}
			}
		}
	}
}`

const pyqSchemaJSON = `{
	"type": "object",
	"required": ["questions"],
	"properties": {
		"questions": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["question", "topic", "marks"],
				"properties": {
					"question": {"type": "string", "minLength": 1},
					"topic": {"type": "string"},
					"subtopic": {"type": "string"},
					"marks": {"type": "integer", "minimum": 1},
					"year": {"type": "string"}
				}
			}
		}
	}
}`

const blueprintSchemaJSON = `{
	"type": "object",
	"required": ["total_marks", "sections"],
	"properties": {
		"total_marks": {"type": "integer", "minimum": 1},
		"sections": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["name", "marks", "questions"],
				"properties": {
					"name": {"type": "string"},
					"marks": {"type": "integer", "minimum": 1},
					"questions": {
						"type": "array",
						"minItems": 1,
						"items": {
							"type": "object",
							"required": ["question_number", "topic", "marks"],
							"properties": {
								"question_number": {"type": "string"},
								"module": {"type": "string"},
								"topic": {"type": "string"},
								"subtopic": {"type": "string"},
								"marks": {"type": "integer", "minimum": 1}
							}
						}
					}
				}
			}
		}
	}
}`

// ValidationError reports every schema violation found in one document.
type ValidationError struct {
	Document string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schema: %s document invalid: %s", e.Document, strings.Join(e.Problems, "; "))
}

func validate(name, schemaJSON, document string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	documentLoader := gojsonschema.NewStringLoader(document)
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema: validate %s document: %w", name, err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return &ValidationError{Document: name, Problems: problems}
}

// ValidateSyllabus checks a structured-syllabus reply.
func ValidateSyllabus(document string) error {
	return validate("syllabus", syllabusSchemaJSON, document)
}

// ValidatePYQ checks an extracted prior-year-questions reply.
func ValidatePYQ(document string) error {
	return validate("pyq", pyqSchemaJSON, document)
}

// ValidateBlueprint checks a paper-blueprint reply.
func ValidateBlueprint(document string) error {
	return validate("blueprint", blueprintSchemaJSON, document)
}
