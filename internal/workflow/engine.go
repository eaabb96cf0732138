package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/trendflow/trendflow/internal/contract"
	"github.com/trendflow/trendflow/internal/mapper"
	"github.com/trendflow/trendflow/internal/modules"
	"github.com/trendflow/trendflow/internal/registry"
	"github.com/trendflow/trendflow/internal/utils"
)

// DefaultStepTimeout bounds a module invocation when the step declares none
const DefaultStepTimeout = 5 * time.Minute

// Engine executes workflow definitions against a module registry. One engine
// may serve many concurrent runs; each run owns its context and report, so
// runs never share mutable state.
type Engine struct {
	registry    *registry.Registry
	stepTimeout time.Duration
}

// NewEngine creates an engine over the given registry
func NewEngine(reg *registry.Registry) *Engine {
	return &Engine{registry: reg, stepTimeout: DefaultStepTimeout}
}

// Run executes the definition against a context seeded from the definition's
// seed block plus the caller's seed. It always returns a report and never
// lets a module failure or panic escape: the report is the sole failure
// surface.
func (e *Engine) Run(ctx context.Context, def *Definition, seed map[string]any) *Report {
	report := &Report{
		ID:        uuid.New().String(),
		Workflow:  def.Name,
		Status:    RunRunning,
		StartTime: time.Now(),
	}

	if err := def.Validate(); err != nil {
		report.Status = RunFailed
		report.Message = err.Error()
		report.EndTime = time.Now()
		return report
	}

	runCtx := ctx
	if def.MaxDurationMS > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(def.MaxDurationMS)*time.Millisecond)
		defer cancel()
	}

	ectx := mapper.NewContext()
	ectx.Seed(def.Seed)
	ectx.Seed(seed)

	utils.LogInfo("Starting workflow: %s", def.Name)

	halted := false
	for _, step := range def.Steps {
		if halted || runCtx.Err() != nil {
			report.Steps = append(report.Steps, StepReport{
				Name:   step.Name,
				Module: step.Module,
				Status: StepSkipped,
			})
			continue
		}

		utils.LogInfo("Executing %s (module: %s)", step.Name, step.Module)
		sr := e.runStep(runCtx, step, ectx)
		report.Steps = append(report.Steps, sr)

		switch {
		case sr.Status.Succeeded():
			utils.LogSuccess("Completed %s", step.Name)
		default:
			utils.LogError("Step %s failed: %v", step.Name, sr.Error)
			if def.Policy() == StopOnFirstError {
				halted = true
			}
		}
	}

	report.Context = ectx.Snapshot()
	report.EndTime = time.Now()
	report.Status = terminalStatus(def, report, runCtx)

	switch report.Status {
	case RunSucceeded:
		utils.LogSuccess("Workflow completed: %s", def.Name)
	case RunPartiallySucceeded:
		utils.LogWarning("Workflow partially succeeded: %s (%d of %d steps failed)",
			def.Name, report.FailedSteps(), len(report.Steps))
	default:
		utils.LogError("Workflow failed: %s", def.Name)
	}
	return report
}

// terminalStatus folds the per-step outcomes into the run's terminal state
func terminalStatus(def *Definition, report *Report, runCtx context.Context) RunStatus {
	if runCtx.Err() != nil {
		report.Message = "run exceeded its maximum duration"
		return RunFailed
	}
	failed := report.FailedSteps()
	succeeded := report.SucceededSteps()
	switch {
	case failed == 0 && succeeded == len(report.Steps):
		return RunSucceeded
	case def.Policy() == StopOnFirstError:
		return RunFailed
	case succeeded > 0:
		return RunPartiallySucceeded
	default:
		return RunFailed
	}
}

// runStep resolves the step's module and drives its attempt/retry loop
func (e *Engine) runStep(ctx context.Context, step Step, ectx *mapper.Context) StepReport {
	sr := StepReport{
		Name:      step.Name,
		Module:    step.Module,
		StartTime: time.Now(),
	}
	defer func() {
		sr.DurationMS = time.Since(sr.StartTime).Milliseconds()
	}()

	c, adapter, err := e.registry.Resolve(step.Module, step.Version)
	if err != nil {
		// Registry state cannot change mid-run, so lookup failures are
		// never retried.
		sr.Status = StepFailed
		sr.Attempts = 1
		sr.Error = newStepError(CodeUnknownModule, "", err.Error(), false)
		return sr
	}

	maxAttempts := 1 + step.Retry.MaxRetries
	var firstErr *StepError

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sr.Attempts = attempt

		stepErr := e.attempt(ctx, step, c, adapter, ectx)
		if stepErr == nil {
			if attempt == 1 {
				sr.Status = StepSucceeded
			} else {
				sr.Status = StepRetried
			}
			return sr
		}

		if firstErr == nil {
			firstErr = stepErr
		}
		if !stepErr.Retryable() {
			break
		}
		if attempt == maxAttempts {
			if step.Retry.MaxRetries > 0 {
				sr.Exhausted = true
				utils.LogWarning("Step %s: %s after %d attempts", step.Name, CodeRetriesExhausted, attempt)
			}
			break
		}

		delay := step.Retry.Delay(attempt)
		utils.LogVerbose("Step %s attempt %d failed (%s), retrying in %s", step.Name, attempt, stepErr.Code, delay)
		if !sleepOrDone(ctx, delay) {
			break
		}
	}

	sr.Status = StepFailed
	sr.Error = firstErr
	return sr
}

// attempt performs one full project/validate/execute/validate/merge cycle.
// The context is only written after the output validated, so a failed
// attempt never leaves partial state behind.
func (e *Engine) attempt(ctx context.Context, step Step, c *contract.Contract, adapter modules.Adapter, ectx *mapper.Context) *StepError {
	input, err := mapper.Project(ectx, step.Input)
	if err != nil {
		var missing *mapper.MissingPathError
		var ambiguous *mapper.AmbiguousMappingError
		switch {
		case errors.As(err, &missing):
			return newStepError(CodeMissingContextPath, missing.Path, err.Error(), false)
		case errors.As(err, &ambiguous):
			return newStepError(CodeAmbiguousMapping, ambiguous.Path, err.Error(), false)
		default:
			return newStepError(CodeInputInvalid, "", err.Error(), false)
		}
	}

	if res := contract.Validate(c.InputSchema, any(input), contract.DirectionInput); !res.OK {
		first := res.First()
		return newStepError(CodeInputInvalid, first.Path, first.Reason, true)
	}

	timeout := e.stepTimeout
	if step.TimeoutMS > 0 {
		timeout = time.Duration(step.TimeoutMS) * time.Millisecond
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	output, err := invoke(execCtx, adapter, input)
	if err != nil {
		if execCtx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return newStepError(CodeTimeout, "", fmt.Sprintf("module %s exceeded its deadline: %v", step.Module, err), true)
		}
		return newStepError(CodeExecutionFailed, "", err.Error(), true)
	}

	if res := contract.Validate(c.OutputSchema, any(output), contract.DirectionOutput); !res.OK {
		first := res.First()
		return newStepError(CodeOutputInvalid, first.Path, first.Reason, true)
	}

	if err := mapper.Merge(ectx, step.Output, output); err != nil {
		var ambiguous *mapper.AmbiguousMappingError
		if errors.As(err, &ambiguous) {
			return newStepError(CodeAmbiguousMapping, ambiguous.Path, err.Error(), false)
		}
		// The output validated against the contract, so a missing result
		// path means the mapping references a field outside the contract.
		return newStepError(CodeOutputInvalid, "", err.Error(), false)
	}
	return nil
}

// invoke calls the adapter, converting a panic into a step failure so that a
// misbehaving module can never take the run down
func invoke(ctx context.Context, adapter modules.Adapter, input map[string]any) (output map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("module panicked: %v", r)
		}
	}()
	return adapter.Execute(ctx, input)
}

// sleepOrDone pauses for d, returning false if the run context ended first
func sleepOrDone(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
