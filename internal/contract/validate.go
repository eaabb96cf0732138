package contract

import (
	"fmt"
	"sort"
)

// Direction marks which side of a step boundary is being validated. It only
// selects the error code a failure is reported under, never the algorithm.
type Direction string

const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

// FieldError describes one validation failure at a dotted path
type FieldError struct {
	Path   string `yaml:"path"`
	Reason string `yaml:"reason"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// ValidationResult is the outcome of validating a value against a schema
type ValidationResult struct {
	OK        bool
	Direction Direction
	Errors    []FieldError
}

// First returns the first recorded error, or a zero FieldError when OK
func (r ValidationResult) First() FieldError {
	if len(r.Errors) == 0 {
		return FieldError{}
	}
	return r.Errors[0]
}

// Validate checks value against schema by structural recursive descent. It
// never mutates value, never coerces types and never substitutes defaults;
// missing required fields and undeclared extra fields are both failures.
func Validate(schema *Schema, value any, direction Direction) ValidationResult {
	errs := descend(schema, value, "$")
	return ValidationResult{
		OK:        len(errs) == 0,
		Direction: direction,
		Errors:    errs,
	}
}

func descend(schema *Schema, value any, path string) []FieldError {
	switch schema.Kind {
	case KindString:
		if _, ok := value.(string); !ok {
			return []FieldError{{Path: path, Reason: fmt.Sprintf("expected string, got %s", typeName(value))}}
		}
		return nil

	case KindBoolean:
		if _, ok := value.(bool); !ok {
			return []FieldError{{Path: path, Reason: fmt.Sprintf("expected boolean, got %s", typeName(value))}}
		}
		return nil

	case KindNumber:
		n, ok := numericValue(value)
		if !ok {
			return []FieldError{{Path: path, Reason: fmt.Sprintf("expected number, got %s", typeName(value))}}
		}
		var errs []FieldError
		if schema.Min != nil && n < *schema.Min {
			errs = append(errs, FieldError{Path: path, Reason: fmt.Sprintf("value %v is below minimum %v", n, *schema.Min)})
		}
		if schema.Max != nil && n > *schema.Max {
			errs = append(errs, FieldError{Path: path, Reason: fmt.Sprintf("value %v is above maximum %v", n, *schema.Max)})
		}
		return errs

	case KindEnum:
		s, ok := value.(string)
		if !ok {
			return []FieldError{{Path: path, Reason: fmt.Sprintf("expected enum string, got %s", typeName(value))}}
		}
		for _, allowed := range schema.Values {
			if s == allowed {
				return nil
			}
		}
		return []FieldError{{Path: path, Reason: fmt.Sprintf("value %q is not one of %v", s, schema.Values)}}

	case KindObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return []FieldError{{Path: path, Reason: fmt.Sprintf("expected object, got %s", typeName(value))}}
		}
		var errs []FieldError

		// Missing required fields first, in declared order.
		for _, name := range schema.Required {
			if _, present := obj[name]; !present {
				errs = append(errs, FieldError{Path: path + "." + name, Reason: "missing required field"})
			}
		}

		// Declared fields validate; undeclared fields are recorded, never
		// dropped. Keys are walked sorted so error order is stable.
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child, declared := schema.Fields[k]
			if !declared {
				errs = append(errs, FieldError{Path: path + "." + k, Reason: "unexpected field"})
				continue
			}
			errs = append(errs, descend(child, obj[k], path+"."+k)...)
		}
		return errs

	case KindArray:
		seq, ok := value.([]any)
		if !ok {
			return []FieldError{{Path: path, Reason: fmt.Sprintf("expected sequence, got %s", typeName(value))}}
		}
		var errs []FieldError
		if len(seq) < schema.MinItems {
			errs = append(errs, FieldError{Path: path, Reason: fmt.Sprintf("sequence has %d elements, minimum is %d", len(seq), schema.MinItems)})
		}
		for i, elem := range seq {
			errs = append(errs, descend(schema.Elem, elem, fmt.Sprintf("%s[%d]", path, i))...)
		}
		return errs

	default:
		return []FieldError{{Path: path, Reason: fmt.Sprintf("unknown schema kind %q", schema.Kind)}}
	}
}

// numericValue accepts the numeric representations produced by yaml.v3 and
// encoding/json decoding into any
func numericValue(value any) (float64, bool) {
	switch n := value.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, float32, float64:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "sequence"
	default:
		return fmt.Sprintf("%T", value)
	}
}
