// Package workflow loads declarative pipeline definitions and executes them
// step by step against the module registry, producing an execution report.
package workflow

import (
	"fmt"
	"os"
	"time"

	"github.com/trendflow/trendflow/internal/mapper"
	"gopkg.in/yaml.v3"
)

// ErrorPolicy declares how a run reacts to a failed step
type ErrorPolicy string

const (
	// StopOnFirstError halts the run at the first failed step
	StopOnFirstError ErrorPolicy = "stop-on-first-error"
	// ContinueWithFallback records the failure and keeps executing later
	// steps; a later step needing the missing output fails on its own
	ContinueWithFallback ErrorPolicy = "continue-with-fallback"
)

// RetryPolicy configures per-step retries with multiplicative backoff
type RetryPolicy struct {
	MaxRetries        int     `yaml:"maxRetries"`
	BackoffMS         int     `yaml:"backoffMS"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

const (
	defaultBackoffMS  = 1000
	defaultMultiplier = 2.0
)

// Delay returns the pause before the given retry (1-based)
func (p RetryPolicy) Delay(retry int) time.Duration {
	base := p.BackoffMS
	if base <= 0 {
		base = defaultBackoffMS
	}
	multiplier := p.BackoffMultiplier
	if multiplier <= 0 {
		multiplier = defaultMultiplier
	}
	d := float64(base)
	for i := 1; i < retry; i++ {
		d *= multiplier
	}
	return time.Duration(d) * time.Millisecond
}

// Step configures one module invocation within a definition
type Step struct {
	Name      string              `yaml:"name"`
	Module    string              `yaml:"module"`
	Version   string              `yaml:"version,omitempty"` // semver range, empty matches any
	Input     []mapper.InputRule  `yaml:"input,omitempty"`
	Output    []mapper.OutputRule `yaml:"output,omitempty"`
	Retry     RetryPolicy         `yaml:"retry,omitempty"`
	TimeoutMS int                 `yaml:"timeoutMS,omitempty"`
}

// Definition is a complete declarative pipeline, loaded wholesale before a
// run starts and treated as read-only input by the engine
type Definition struct {
	Name          string         `yaml:"name"`
	Description   string         `yaml:"description,omitempty"`
	ErrorPolicy   ErrorPolicy    `yaml:"errorPolicy,omitempty"`
	MaxDurationMS int            `yaml:"maxDurationMS,omitempty"`
	Seed          map[string]any `yaml:"seed,omitempty"`
	Steps         []Step         `yaml:"steps"`
}

// LoadDefinition loads a workflow definition from a YAML file
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}
	return ParseDefinition(data)
}

// ParseDefinition parses and structurally validates a YAML definition
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse workflow YAML: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workflow definition: %w", err)
	}
	return &def, nil
}

// Validate checks the definition's structure without touching the registry
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("workflow name is required")
	}
	if len(d.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}

	switch d.ErrorPolicy {
	case "", StopOnFirstError, ContinueWithFallback:
	default:
		return fmt.Errorf("unknown error policy %q", d.ErrorPolicy)
	}

	names := make(map[string]bool, len(d.Steps))
	for i, step := range d.Steps {
		if step.Module == "" {
			return fmt.Errorf("step %d: module name is required", i+1)
		}
		name := step.Name
		if name == "" {
			return fmt.Errorf("step %d: step name is required", i+1)
		}
		if names[name] {
			return fmt.Errorf("step name %q is used more than once", name)
		}
		names[name] = true

		if step.Retry.MaxRetries < 0 {
			return fmt.Errorf("step %q: maxRetries must not be negative", name)
		}
		for _, rule := range step.Input {
			if rule.Target == "" {
				return fmt.Errorf("step %q: input rule has no target", name)
			}
			if rule.From == "" && !rule.HasLiteral() {
				return fmt.Errorf("step %q: input rule for %q has neither a source path nor a value", name, rule.Target)
			}
			if rule.From != "" && rule.HasLiteral() {
				return fmt.Errorf("step %q: input rule for %q declares both a source path and a value", name, rule.Target)
			}
		}
		seen := make(map[string]bool, len(step.Output))
		for _, rule := range step.Output {
			if rule.Context == "" {
				return fmt.Errorf("step %q: output rule has no context path", name)
			}
			if seen[rule.Context] {
				return fmt.Errorf("step %q: context path %q is written by more than one output rule", name, rule.Context)
			}
			seen[rule.Context] = true
		}
	}
	return nil
}

// Policy returns the effective error policy, defaulting to stop-on-first-error
func (d *Definition) Policy() ErrorPolicy {
	if d.ErrorPolicy == "" {
		return StopOnFirstError
	}
	return d.ErrorPolicy
}
