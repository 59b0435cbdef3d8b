package assistant

import "fmt"

// Schema types understood by every provider adapter.
const (
	TypeObject  = "object"
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
)

// Schema is a provider-neutral parameter declaration for a tool. Each LLM
// adapter converts it to its SDK's native schema type, keeping the core
// package free of provider dependencies.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

// ObjectSchema builds an object schema from named properties.
func ObjectSchema(properties map[string]*Schema, required ...string) *Schema {
	return &Schema{
		Type:       TypeObject,
		Properties: properties,
		Required:   required,
	}
}

// StringParam builds a string property schema.
func StringParam(description string) *Schema {
	return &Schema{Type: TypeString, Description: description}
}

// IntParam builds an integer property schema.
func IntParam(description string) *Schema {
	return &Schema{Type: TypeInteger, Description: description}
}

// BoolParam builds a boolean property schema.
func BoolParam(description string) *Schema {
	return &Schema{Type: TypeBoolean, Description: description}
}

// Validate checks the schema for structural problems.
func (s *Schema) Validate() error {
	if s == nil {
		return fmt.Errorf("schema cannot be nil")
	}
	switch s.Type {
	case TypeObject, TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeArray:
	default:
		return fmt.Errorf("unknown schema type: %s", s.Type)
	}
	for _, req := range s.Required {
		if _, ok := s.Properties[req]; !ok {
			return fmt.Errorf("required property %q not declared", req)
		}
	}
	for name, prop := range s.Properties {
		if err := prop.Validate(); err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
	}
	if s.Type == TypeArray && s.Items != nil {
		if err := s.Items.Validate(); err != nil {
			return fmt.Errorf("items: %w", err)
		}
	}
	return nil
}
