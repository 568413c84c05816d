package llm

// SchemaType is the JSON type of a schema node.
type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
	TypeString  SchemaType = "string"
	TypeBoolean SchemaType = "boolean"
)

// Schema is an adapter-neutral subset of JSON schema used to constrain
// structured responses.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	Required    []string
	Items       *Schema
	Enum        []string
}

// FeatureMatrixSchema describes the feature list returned when comparing two
// codebases.
func FeatureMatrixSchema() *Schema {
	return &Schema{
		Type:        TypeArray,
		Description: "Features found across both codebases.",
		Items: &Schema{
			Type: TypeObject,
			Properties: map[string]*Schema{
				"name":        {Type: TypeString, Description: "Short unique feature name."},
				"description": {Type: TypeString, Description: "What the feature does."},
				"source": {
					Type:        TypeString,
					Description: "Where the feature is implemented.",
					Enum:        []string{"unique_a", "unique_b", "common"},
				},
			},
			Required: []string{"name", "description", "source"},
		},
	}
}

// CommitMessageSchema describes a conventional commit message.
func CommitMessageSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"subject": {Type: TypeString, Description: "Imperative summary under 72 characters."},
			"body":    {Type: TypeString, Description: "Wrapped explanation of the change."},
		},
		Required: []string{"subject", "body"},
	}
}
