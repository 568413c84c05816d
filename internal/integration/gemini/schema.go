package gemini

import (
	"google.golang.org/genai"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/llm"
)

var schemaTypes = map[llm.SchemaType]genai.Type{
	llm.TypeObject:  genai.TypeObject,
	llm.TypeArray:   genai.TypeArray,
	llm.TypeString:  genai.TypeString,
	llm.TypeBoolean: genai.TypeBoolean,
}

// convertSchema maps an llm.Schema tree onto the SDK schema type.
func convertSchema(s *llm.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        schemaTypes[s.Type],
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
		Items:       convertSchema(s.Items),
	}

	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = convertSchema(p)
		}
	}

	return out
}
