package tools

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/genai"
)

// allowAdditional lifts the closed-object constraint jsonschema.For puts
// on structs. Models sometimes send extra keys; they are ignored.
func allowAdditional(s *jsonschema.Schema) {
	if s == nil {
		return
	}
	s.AdditionalProperties = nil
	for _, p := range s.Properties {
		allowAdditional(p)
	}
	allowAdditional(s.Items)
}

// schemaType returns the JSON type of s, skipping "null" in a type union.
func schemaType(s *jsonschema.Schema) (typ string, nullable bool) {
	if s.Type != "" {
		return s.Type, false
	}
	for _, t := range s.Types {
		if t == "null" {
			nullable = true
			continue
		}
		if typ == "" {
			typ = t
		}
	}
	return typ, nullable
}

func geminiConvSchema(schema *jsonschema.Schema) *genai.Schema {
	if schema == nil {
		return nil
	}

	var enums []string
	for _, v := range schema.Enum {
		enums = append(enums, fmt.Sprintf("%v", v))
	}

	gs := genai.Schema{
		Format:      schema.Format,
		Description: schema.Description,
		Enum:        enums,
		Items:       geminiConvSchema(schema.Items),
		Required:    schema.Required,
	}
	if n := len(schema.Properties); n > 0 {
		gs.Properties = make(map[string]*genai.Schema, n)
		for k, prop := range schema.Properties {
			gs.Properties[k] = geminiConvSchema(prop)
		}
		gs.PropertyOrdering = schema.PropertyOrder
	}

	typ, _ := schemaType(schema)
	switch typ {
	case "object":
		gs.Type = genai.TypeObject
	case "array":
		gs.Type = genai.TypeArray
	case "string":
		gs.Type = genai.TypeString
	case "number":
		gs.Type = genai.TypeNumber
	case "integer":
		gs.Type = genai.TypeInteger
	case "boolean":
		gs.Type = genai.TypeBoolean
	}
	return &gs
}
