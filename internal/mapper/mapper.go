package mapper

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// MissingPathError is returned when a mapping rule references a path that has
// never been written and declares no literal
type MissingPathError struct {
	Path string
}

func (e *MissingPathError) Error() string {
	return fmt.Sprintf("context path %q has not been written by any earlier step or seed", e.Path)
}

// AmbiguousMappingError is returned when two rules of one step write the same
// target path
type AmbiguousMappingError struct {
	Path string
}

func (e *AmbiguousMappingError) Error() string {
	return fmt.Sprintf("path %q is written by more than one rule in the same step", e.Path)
}

// InputRule maps one target path in a module's input to either a context
// path (From) or a literal constant (Value) embedded in the workflow file
type InputRule struct {
	Target string `yaml:"target"`
	From   string `yaml:"from,omitempty"`
	Value  any    `yaml:"value,omitempty"`

	hasValue bool
}

// UnmarshalYAML records whether a literal value key was present, so that an
// explicit `value: null` is distinguishable from no literal at all
func (r *InputRule) UnmarshalYAML(node *yaml.Node) error {
	type plain InputRule
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*r = InputRule(p)
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "value" {
			r.hasValue = true
		}
	}
	return nil
}

// FromContext builds a rule sourcing target from a context path
func FromContext(target, from string) InputRule {
	return InputRule{Target: target, From: from}
}

// Literal builds a rule sourcing target from a constant
func Literal(target string, value any) InputRule {
	return InputRule{Target: target, Value: value, hasValue: true}
}

// HasLiteral reports whether the rule declares a literal value
func (r InputRule) HasLiteral() bool {
	return r.hasValue
}

// OutputRule copies the value at From inside a module's result to the
// Context path in the execution context
type OutputRule struct {
	Context string `yaml:"context"`
	From    string `yaml:"from"`
}

// Project builds a module input value by resolving every rule against the
// context. The result is a nested object shaped by the rules' target paths.
func Project(ctx *Context, rules []InputRule) (map[string]any, error) {
	input := make(map[string]any)
	seen := make(map[string]bool, len(rules))

	for _, rule := range rules {
		if rule.Target == "" {
			return nil, fmt.Errorf("input rule has no target path")
		}
		if seen[rule.Target] {
			return nil, &AmbiguousMappingError{Path: rule.Target}
		}
		seen[rule.Target] = true

		var v any
		if rule.HasLiteral() {
			v = rule.Value
		} else {
			if rule.From == "" {
				return nil, fmt.Errorf("input rule for %q declares neither a source path nor a literal", rule.Target)
			}
			var ok bool
			v, ok = ctx.Get(rule.From)
			if !ok {
				return nil, &MissingPathError{Path: rule.From}
			}
		}

		if err := setPath(input, rule.Target, v); err != nil {
			return nil, err
		}
	}
	return input, nil
}

// Merge writes each rule's slice of the module result into the context.
// Within one step a context path may be written by only one rule; across
// steps writes are last-write-wins.
func Merge(ctx *Context, rules []OutputRule, result map[string]any) error {
	seen := make(map[string]bool, len(rules))
	for _, rule := range rules {
		if rule.Context == "" {
			return fmt.Errorf("output rule has no context path")
		}
		if seen[rule.Context] {
			return &AmbiguousMappingError{Path: rule.Context}
		}
		seen[rule.Context] = true
	}

	// Resolve every source before writing anything, so a failed merge does
	// not leave the context partially updated.
	resolved := make([]any, len(rules))
	for i, rule := range rules {
		v, ok := resultPath(result, rule.From)
		if !ok {
			return fmt.Errorf("module result has no value at path %q", rule.From)
		}
		resolved[i] = v
	}

	for i, rule := range rules {
		ctx.Set(rule.Context, resolved[i])
	}
	return nil
}

// resultPath reads a dotted path out of a module result; an empty path means
// the whole result
func resultPath(result map[string]any, path string) (any, bool) {
	if path == "" {
		return result, true
	}
	return lookupPath(result, strings.Split(path, "."))
}

// setPath writes v into nested maps at a dotted path, creating intermediate
// objects as needed
func setPath(m map[string]any, path string, v any) error {
	segments := strings.Split(path, ".")
	current := m
	for _, seg := range segments[:len(segments)-1] {
		next, ok := current[seg]
		if !ok {
			child := make(map[string]any)
			current[seg] = child
			current = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("target path %q collides with a non-object value at %q", path, seg)
		}
		current = child
	}
	current[segments[len(segments)-1]] = v
	return nil
}
