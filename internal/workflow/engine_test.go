package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trendflow/trendflow/internal/contract"
	"github.com/trendflow/trendflow/internal/mapper"
	"github.com/trendflow/trendflow/internal/registry"
)

// fakeAdapter is a scriptable module for engine tests
type fakeAdapter struct {
	name     string
	contract *contract.Contract
	execute  func(ctx context.Context, input map[string]any) (map[string]any, error)
	calls    int
}

func (a *fakeAdapter) Name() string                 { return a.name }
func (a *fakeAdapter) Contract() *contract.Contract { return a.contract }
func (a *fakeAdapter) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	a.calls++
	return a.execute(ctx, input)
}

// echoContract accepts {value: string} and promises {value: string}
func echoContract(t *testing.T, name string) *contract.Contract {
	t.Helper()
	shape := contract.Object(map[string]*contract.Schema{
		"value": contract.String(),
	}, "value")
	c, err := contract.New(name, "1.0.0", shape, shape)
	require.NoError(t, err)
	return c
}

// echoAdapter passes its input value through to its output
func echoAdapter(t *testing.T, name string) *fakeAdapter {
	t.Helper()
	return &fakeAdapter{
		name:     name,
		contract: echoContract(t, name),
		execute: func(ctx context.Context, input map[string]any) (map[string]any, error) {
			return map[string]any{"value": input["value"].(string) + "+" + name}, nil
		},
	}
}

func newTestEngine(t *testing.T, adapters ...*fakeAdapter) *Engine {
	t.Helper()
	reg := registry.New()
	for _, a := range adapters {
		require.NoError(t, reg.Register(a.contract, a))
	}
	return NewEngine(reg)
}

// echoStep wires a module's value input from a context path and merges its
// value output back to another
func echoStep(name, module, from, to string) Step {
	return Step{
		Name:   name,
		Module: module,
		Input:  []mapper.InputRule{mapper.FromContext("value", from)},
		Output: []mapper.OutputRule{{Context: to, From: "value"}},
	}
}

func TestEngine_SuccessfulRun(t *testing.T) {
	engine := newTestEngine(t, echoAdapter(t, "first"), echoAdapter(t, "second"), echoAdapter(t, "third"))

	def := &Definition{
		Name: "chain",
		Steps: []Step{
			echoStep("one", "first", "seed.value", "a"),
			echoStep("two", "second", "a", "b"),
			echoStep("three", "third", "b", "c"),
		},
	}

	report := engine.Run(context.Background(), def, map[string]any{
		"seed": map[string]any{"value": "start"},
	})

	assert.Equal(t, RunSucceeded, report.Status)
	assert.NotEmpty(t, report.ID)
	require.Len(t, report.Steps, 3)
	for _, sr := range report.Steps {
		assert.Equal(t, StepSucceeded, sr.Status)
		assert.Equal(t, 1, sr.Attempts)
		assert.Nil(t, sr.Error)
	}
	assert.Equal(t, "start+first+second+third", report.Context["c"])
}

func TestEngine_RetryThenSucceed(t *testing.T) {
	flaky := echoAdapter(t, "flaky")
	failures := 1
	inner := flaky.execute
	flaky.execute = func(ctx context.Context, input map[string]any) (map[string]any, error) {
		if failures > 0 {
			failures--
			return nil, errors.New("transient upstream error")
		}
		return inner(ctx, input)
	}

	engine := newTestEngine(t, flaky)
	step := echoStep("one", "flaky", "seed", "out")
	step.Retry = RetryPolicy{MaxRetries: 2, BackoffMS: 1}
	def := &Definition{Name: "retry", Steps: []Step{step}}

	report := engine.Run(context.Background(), def, map[string]any{"seed": "x"})

	assert.Equal(t, RunSucceeded, report.Status)
	sr := report.StepByName("one")
	require.NotNil(t, sr)
	assert.Equal(t, StepRetried, sr.Status)
	assert.Equal(t, 2, sr.Attempts)
	assert.False(t, sr.Exhausted)
	assert.Nil(t, sr.Error)
}

func TestEngine_OutputInvalidExhaustsRetries(t *testing.T) {
	broken := echoAdapter(t, "broken")
	broken.execute = func(ctx context.Context, input map[string]any) (map[string]any, error) {
		// Violates the contract's output schema every time.
		return map[string]any{"value": 42}, nil
	}

	engine := newTestEngine(t, echoAdapter(t, "first"), broken, echoAdapter(t, "third"))

	brokenStep := echoStep("two", "broken", "a", "b")
	brokenStep.Retry = RetryPolicy{MaxRetries: 2, BackoffMS: 1}
	def := &Definition{
		Name:        "pipeline",
		ErrorPolicy: StopOnFirstError,
		Steps: []Step{
			echoStep("one", "first", "seed", "a"),
			brokenStep,
			echoStep("three", "third", "b", "c"),
		},
	}

	report := engine.Run(context.Background(), def, map[string]any{"seed": "x"})

	assert.Equal(t, RunFailed, report.Status)
	require.Len(t, report.Steps, 3)

	assert.Equal(t, StepSucceeded, report.Steps[0].Status)

	sr := report.Steps[1]
	assert.Equal(t, StepFailed, sr.Status)
	assert.Equal(t, 3, sr.Attempts)
	assert.True(t, sr.Exhausted)
	require.NotNil(t, sr.Error)
	assert.Equal(t, CodeOutputInvalid, sr.Error.Code)
	assert.Equal(t, "$.value", sr.Error.Path)

	// The halted run still accounts for the step it never attempted.
	assert.Equal(t, StepSkipped, report.Steps[2].Status)
	assert.Equal(t, 3, broken.calls)

	// First step's output is preserved for inspection.
	assert.Equal(t, "x+first", report.Context["a"])
}

func TestEngine_ContinueWithFallback(t *testing.T) {
	failing := echoAdapter(t, "failing")
	failing.execute = func(ctx context.Context, input map[string]any) (map[string]any, error) {
		return nil, errors.New("boom")
	}

	engine := newTestEngine(t, echoAdapter(t, "first"), failing, echoAdapter(t, "third"))

	def := &Definition{
		Name:        "fallback",
		ErrorPolicy: ContinueWithFallback,
		Steps: []Step{
			echoStep("one", "first", "seed", "a"),
			echoStep("two", "failing", "a", "b"),
			// Independent of step two, so it can still succeed.
			echoStep("three", "third", "a", "c"),
		},
	}

	report := engine.Run(context.Background(), def, map[string]any{"seed": "x"})

	assert.Equal(t, RunPartiallySucceeded, report.Status)
	assert.Equal(t, StepSucceeded, report.Steps[0].Status)
	assert.Equal(t, StepFailed, report.Steps[1].Status)
	assert.Equal(t, CodeExecutionFailed, report.Steps[1].Error.Code)
	assert.Equal(t, StepSucceeded, report.Steps[2].Status)
	assert.Equal(t, "x+first+third", report.Context["c"])
}

func TestEngine_MissingDependencyDownstream(t *testing.T) {
	failing := echoAdapter(t, "failing")
	failing.execute = func(ctx context.Context, input map[string]any) (map[string]any, error) {
		return nil, errors.New("boom")
	}

	engine := newTestEngine(t, echoAdapter(t, "first"), failing, echoAdapter(t, "third"))

	def := &Definition{
		Name:        "dependent",
		ErrorPolicy: ContinueWithFallback,
		Steps: []Step{
			echoStep("one", "first", "seed", "a"),
			echoStep("two", "failing", "a", "b"),
			// Depends on the failed step's output.
			echoStep("three", "third", "b", "c"),
		},
	}

	report := engine.Run(context.Background(), def, map[string]any{"seed": "x"})

	assert.Equal(t, RunPartiallySucceeded, report.Status)
	assert.Equal(t, 2, report.FailedSteps())

	sr := report.StepByName("three")
	require.NotNil(t, sr)
	assert.Equal(t, StepFailed, sr.Status)
	require.NotNil(t, sr.Error)
	assert.Equal(t, CodeMissingContextPath, sr.Error.Code)
	assert.Equal(t, "b", sr.Error.Path)
	// Mapping failures are not retryable, so a single attempt is made.
	assert.Equal(t, 1, sr.Attempts)
}

func TestEngine_UnknownModule(t *testing.T) {
	engine := newTestEngine(t, echoAdapter(t, "first"))

	step := echoStep("one", "nonexistent", "seed", "a")
	step.Retry = RetryPolicy{MaxRetries: 5, BackoffMS: 1}
	def := &Definition{Name: "unknown", Steps: []Step{step}}

	report := engine.Run(context.Background(), def, map[string]any{"seed": "x"})

	assert.Equal(t, RunFailed, report.Status)
	sr := report.Steps[0]
	assert.Equal(t, StepFailed, sr.Status)
	assert.Equal(t, 1, sr.Attempts)
	assert.False(t, sr.Exhausted)
	assert.Equal(t, CodeUnknownModule, sr.Error.Code)
}

func TestEngine_UnsatisfiableVersionRange(t *testing.T) {
	engine := newTestEngine(t, echoAdapter(t, "first"))

	step := echoStep("one", "first", "seed", "a")
	step.Version = ">=9.0.0"
	def := &Definition{Name: "version", Steps: []Step{step}}

	report := engine.Run(context.Background(), def, map[string]any{"seed": "x"})

	assert.Equal(t, RunFailed, report.Status)
	assert.Equal(t, CodeUnknownModule, report.Steps[0].Error.Code)
}

func TestEngine_InputInvalidFromLiteral(t *testing.T) {
	adapter := echoAdapter(t, "strict")
	engine := newTestEngine(t, adapter)

	step := Step{
		Name:   "one",
		Module: "strict",
		Input:  []mapper.InputRule{mapper.Literal("value", 99)},
		Retry:  RetryPolicy{MaxRetries: 1, BackoffMS: 1},
	}
	def := &Definition{Name: "badinput", Steps: []Step{step}}

	report := engine.Run(context.Background(), def, nil)

	assert.Equal(t, RunFailed, report.Status)
	sr := report.Steps[0]
	assert.Equal(t, CodeInputInvalid, sr.Error.Code)
	assert.Equal(t, "$.value", sr.Error.Path)
	// Validation happens before execution, so the module never ran.
	assert.Equal(t, 0, adapter.calls)
	// Input validation failures consume the retry budget.
	assert.Equal(t, 2, sr.Attempts)
	assert.True(t, sr.Exhausted)
}

func TestEngine_AmbiguousInputMapping(t *testing.T) {
	adapter := echoAdapter(t, "strict")
	engine := newTestEngine(t, adapter)

	step := Step{
		Name:   "one",
		Module: "strict",
		Input: []mapper.InputRule{
			mapper.Literal("value", "a"),
			mapper.Literal("value", "b"),
		},
		Retry: RetryPolicy{MaxRetries: 3, BackoffMS: 1},
	}
	def := &Definition{Name: "ambiguous", Steps: []Step{step}}

	report := engine.Run(context.Background(), def, nil)

	assert.Equal(t, RunFailed, report.Status)
	sr := report.Steps[0]
	assert.Equal(t, CodeAmbiguousMapping, sr.Error.Code)
	assert.Equal(t, 1, sr.Attempts)
	assert.Equal(t, 0, adapter.calls)
}

func TestEngine_StepTimeout(t *testing.T) {
	slow := echoAdapter(t, "slow")
	slow.execute = func(ctx context.Context, input map[string]any) (map[string]any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(500 * time.Millisecond):
			return map[string]any{"value": "late"}, nil
		}
	}

	engine := newTestEngine(t, slow)
	step := echoStep("one", "slow", "seed", "a")
	step.TimeoutMS = 20
	def := &Definition{Name: "deadline", Steps: []Step{step}}

	report := engine.Run(context.Background(), def, map[string]any{"seed": "x"})

	assert.Equal(t, RunFailed, report.Status)
	assert.Equal(t, CodeTimeout, report.Steps[0].Error.Code)
}

func TestEngine_PanicBecomesStepFailure(t *testing.T) {
	panicky := echoAdapter(t, "panicky")
	panicky.execute = func(ctx context.Context, input map[string]any) (map[string]any, error) {
		panic("module bug")
	}

	engine := newTestEngine(t, panicky)
	def := &Definition{Name: "panics", Steps: []Step{echoStep("one", "panicky", "seed", "a")}}

	var report *Report
	require.NotPanics(t, func() {
		report = engine.Run(context.Background(), def, map[string]any{"seed": "x"})
	})

	assert.Equal(t, RunFailed, report.Status)
	sr := report.Steps[0]
	assert.Equal(t, CodeExecutionFailed, sr.Error.Code)
	assert.Contains(t, sr.Error.Message, "module bug")
}

func TestEngine_RunMaxDuration(t *testing.T) {
	slow := echoAdapter(t, "slow")
	slow.execute = func(ctx context.Context, input map[string]any) (map[string]any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(500 * time.Millisecond):
			return map[string]any{"value": "late"}, nil
		}
	}

	engine := newTestEngine(t, slow, echoAdapter(t, "second"))
	def := &Definition{
		Name:          "bounded",
		MaxDurationMS: 30,
		Steps: []Step{
			echoStep("one", "slow", "seed", "a"),
			echoStep("two", "second", "a", "b"),
		},
	}

	report := engine.Run(context.Background(), def, map[string]any{"seed": "x"})

	assert.Equal(t, RunFailed, report.Status)
	assert.Equal(t, "run exceeded its maximum duration", report.Message)
	assert.Equal(t, StepSkipped, report.Steps[1].Status)
}

func TestEngine_InvalidDefinition(t *testing.T) {
	engine := newTestEngine(t)
	def := &Definition{Name: "", Steps: []Step{{Name: "one", Module: "m"}}}

	report := engine.Run(context.Background(), def, nil)

	assert.Equal(t, RunFailed, report.Status)
	assert.Contains(t, report.Message, "workflow name is required")
	assert.Empty(t, report.Steps)
}

func TestEngine_AllStepsFailedUnderContinuePolicy(t *testing.T) {
	failing := echoAdapter(t, "failing")
	failing.execute = func(ctx context.Context, input map[string]any) (map[string]any, error) {
		return nil, fmt.Errorf("boom")
	}

	engine := newTestEngine(t, failing)
	def := &Definition{
		Name:        "hopeless",
		ErrorPolicy: ContinueWithFallback,
		Steps: []Step{
			echoStep("one", "failing", "seed", "a"),
			echoStep("two", "failing", "seed", "b"),
		},
	}

	report := engine.Run(context.Background(), def, map[string]any{"seed": "x"})

	// Nothing succeeded, so the run is failed rather than partial.
	assert.Equal(t, RunFailed, report.Status)
}

func TestEngine_SeedPrecedence(t *testing.T) {
	engine := newTestEngine(t, echoAdapter(t, "first"))
	def := &Definition{
		Name: "seeded",
		Seed: map[string]any{"seed": "from-definition"},
		Steps: []Step{
			echoStep("one", "first", "seed", "a"),
		},
	}

	// The caller's seed overrides the definition's seed.
	report := engine.Run(context.Background(), def, map[string]any{"seed": "from-caller"})

	assert.Equal(t, RunSucceeded, report.Status)
	assert.Equal(t, "from-caller+first", report.Context["a"])
}
