package workflow

import "fmt"

// Code classifies a step failure in the execution report
type Code string

const (
	CodeInputInvalid       Code = "INPUT_INVALID"
	CodeOutputInvalid      Code = "OUTPUT_INVALID"
	CodeUnknownModule      Code = "UNKNOWN_MODULE"
	CodeDuplicateContract  Code = "DUPLICATE_CONTRACT"
	CodeMissingContextPath Code = "MISSING_CONTEXT_PATH"
	CodeAmbiguousMapping   Code = "AMBIGUOUS_MAPPING"
	CodeExecutionFailed    Code = "EXECUTION_FAILED"
	CodeTimeout            Code = "TIMEOUT"
	CodeRetriesExhausted   Code = "RETRIES_EXHAUSTED"
)

// StepError is the detailed record of one step failure. Retryable is decided
// where the error is raised: module execution, timeouts and non-conforming
// output can change between attempts; registry lookups and mapping rule
// conflicts cannot, so retrying them would only burn attempts.
type StepError struct {
	Code    Code   `yaml:"code"`
	Path    string `yaml:"path,omitempty"`
	Message string `yaml:"message"`

	retryable bool
}

func (e *StepError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s at %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Retryable reports whether the step's retry policy applies to this failure
func (e *StepError) Retryable() bool {
	return e.retryable
}

func newStepError(code Code, path, message string, retryable bool) *StepError {
	return &StepError{Code: code, Path: path, Message: message, retryable: retryable}
}
