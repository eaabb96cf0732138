// Package contract defines the versioned input/output contracts that modules
// publish, and the strict validator that enforces them at step boundaries.
package contract

import (
	"fmt"
)

// Kind identifies the shape a schema node describes
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindEnum    Kind = "enum"
	KindObject  Kind = "object"
	KindArray   Kind = "array"
)

// Schema is a recursive description of a value shape. Object schemas are
// closed-world: keys not declared in Fields are validation errors.
type Schema struct {
	Kind        Kind   `yaml:"kind"`
	Description string `yaml:"description,omitempty"`

	// Object
	Fields   map[string]*Schema `yaml:"fields,omitempty"`
	Required []string           `yaml:"required,omitempty"`

	// Array
	Elem     *Schema `yaml:"elem,omitempty"`
	MinItems int     `yaml:"minItems,omitempty"`

	// Enum (case-sensitive literals)
	Values []string `yaml:"values,omitempty"`

	// Number bounds, inclusive when set
	Min *float64 `yaml:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty"`
}

// String returns a string schema node
func String() *Schema {
	return &Schema{Kind: KindString}
}

// Number returns a number schema node
func Number() *Schema {
	return &Schema{Kind: KindNumber}
}

// NumberRange returns a number schema node with inclusive bounds
func NumberRange(min, max float64) *Schema {
	return &Schema{Kind: KindNumber, Min: &min, Max: &max}
}

// Boolean returns a boolean schema node
func Boolean() *Schema {
	return &Schema{Kind: KindBoolean}
}

// Enum returns an enum schema node over the given literals
func Enum(values ...string) *Schema {
	return &Schema{Kind: KindEnum, Values: values}
}

// Array returns a sequence schema node over elem
func Array(elem *Schema) *Schema {
	return &Schema{Kind: KindArray, Elem: elem}
}

// ArrayMin returns a sequence schema node requiring at least min elements
func ArrayMin(elem *Schema, min int) *Schema {
	return &Schema{Kind: KindArray, Elem: elem, MinItems: min}
}

// Object returns an object schema node; required lists the field names that
// must be present
func Object(fields map[string]*Schema, required ...string) *Schema {
	return &Schema{Kind: KindObject, Fields: fields, Required: required}
}

// Check verifies that the schema tree itself is well formed
func (s *Schema) Check() error {
	return s.check("$")
}

func (s *Schema) check(path string) error {
	if s == nil {
		return fmt.Errorf("%s: schema node is nil", path)
	}
	switch s.Kind {
	case KindString, KindNumber, KindBoolean:
		return nil
	case KindEnum:
		if len(s.Values) == 0 {
			return fmt.Errorf("%s: enum schema declares no values", path)
		}
		return nil
	case KindObject:
		for _, name := range s.Required {
			if _, ok := s.Fields[name]; !ok {
				return fmt.Errorf("%s: required field %q is not declared", path, name)
			}
		}
		for name, child := range s.Fields {
			if err := child.check(path + "." + name); err != nil {
				return err
			}
		}
		return nil
	case KindArray:
		if s.Elem == nil {
			return fmt.Errorf("%s: array schema has no element schema", path)
		}
		if s.MinItems < 0 {
			return fmt.Errorf("%s: minItems must not be negative", path)
		}
		return s.Elem.check(path + "[]")
	default:
		return fmt.Errorf("%s: unknown schema kind %q", path, s.Kind)
	}
}

// isRequired reports whether name is in the object schema's required list
func (s *Schema) isRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}
