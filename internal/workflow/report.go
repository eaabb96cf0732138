package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// RunStatus is the lifecycle state of a run. Terminal states are never
// changed once the run ends.
type RunStatus string

const (
	RunPending            RunStatus = "pending"
	RunRunning            RunStatus = "running"
	RunSucceeded          RunStatus = "succeeded"
	RunFailed             RunStatus = "failed"
	RunPartiallySucceeded RunStatus = "partially-succeeded"
)

// StepStatus records how one step ended
type StepStatus string

const (
	// StepSucceeded means the step passed on its first attempt
	StepSucceeded StepStatus = "succeeded"
	// StepRetried means the step passed after one or more retries
	StepRetried StepStatus = "retried"
	// StepFailed means all attempts were used without success
	StepFailed StepStatus = "failed"
	// StepSkipped means the step was never attempted because the run halted
	StepSkipped StepStatus = "skipped"
)

// Succeeded reports whether the step produced a merged output
func (s StepStatus) Succeeded() bool {
	return s == StepSucceeded || s == StepRetried
}

// StepReport is the per-step record in the execution report
type StepReport struct {
	Name       string     `yaml:"name"`
	Module     string     `yaml:"module"`
	Status     StepStatus `yaml:"status"`
	Attempts   int        `yaml:"attempts"`
	StartTime  time.Time  `yaml:"startTime,omitempty"`
	DurationMS int64      `yaml:"durationMS"`
	// Error holds the first validation or execution error of the step
	Error *StepError `yaml:"error,omitempty"`
	// Exhausted is set when a retryable failure used up every attempt
	Exhausted bool `yaml:"retriesExhausted,omitempty"`
}

// Report is the orchestrator's terminal output for one run: the only surface
// through which failures are visible. Immutable once the run ends.
type Report struct {
	ID        string       `yaml:"id"`
	Workflow  string       `yaml:"workflow"`
	Status    RunStatus    `yaml:"status"`
	Message   string       `yaml:"message,omitempty"`
	StartTime time.Time    `yaml:"startTime"`
	EndTime   time.Time    `yaml:"endTime"`
	Steps     []StepReport `yaml:"steps"`
	// Context is the final execution context snapshot, preserved for
	// inspection even when the run fails partway
	Context map[string]any `yaml:"context,omitempty"`
}

// SucceededSteps counts steps that produced merged output
func (r *Report) SucceededSteps() int {
	n := 0
	for _, s := range r.Steps {
		if s.Status.Succeeded() {
			n++
		}
	}
	return n
}

// FailedSteps counts steps that used all attempts without success
func (r *Report) FailedSteps() int {
	n := 0
	for _, s := range r.Steps {
		if s.Status == StepFailed {
			n++
		}
	}
	return n
}

// StepByName returns the report entry for a step name
func (r *Report) StepByName(name string) *StepReport {
	for i := range r.Steps {
		if r.Steps[i].Name == name {
			return &r.Steps[i]
		}
	}
	return nil
}

// Save writes the report as YAML, creating the directory if needed
func (r *Report) Save(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
