// Package modules defines the adapter interface every processing unit in the
// pipeline implements, plus shared input parsing helpers.
package modules

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/trendflow/trendflow/internal/contract"
)

// Adapter wraps one processing unit. Adapters own no orchestration logic:
// they never retry and never validate their own input or output, both are the
// engine's job. Applying internal defaults before returning is allowed.
type Adapter interface {
	// Name returns the module's unique identifier
	Name() string

	// Contract returns the module's published input/output contract
	Contract() *contract.Contract

	// Execute runs the module against an input already validated by the
	// engine and returns a result for the engine to validate
	Execute(ctx context.Context, input map[string]any) (map[string]any, error)
}

// ParseInput converts a generic input map to a module-specific struct
func ParseInput(input map[string]any, target any) error {
	if input == nil {
		return fmt.Errorf("input cannot be nil")
	}
	if target == nil {
		return fmt.Errorf("target cannot be nil")
	}

	if reflect.ValueOf(target).Kind() != reflect.Ptr {
		return fmt.Errorf("target must be a pointer to a struct")
	}
	if reflect.ValueOf(target).Elem().Kind() != reflect.Struct {
		return fmt.Errorf("target must be a pointer to a struct")
	}

	data, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("error marshaling input: %w", err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("error unmarshaling input: %w", err)
	}

	return nil
}

// Output converts a module-specific result struct to the generic map shape
// the engine validates. Numbers come back as float64 and nested structs as
// map[string]any, matching what the strict validator accepts.
func Output(result any) (map[string]any, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("error marshaling result: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("error unmarshaling result: %w", err)
	}
	return out, nil
}
