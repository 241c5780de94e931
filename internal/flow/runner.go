package flow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Step is one node instance within a dependency chain. Variable is the
// caller-assigned context key its result is stored under; empty means the
// result is not merged back.
type Step struct {
	Node           string         `json:"node" validate:"required"`
	Properties     map[string]any `json:"properties"`
	InputVariables []string       `json:"inputVariables"`
	Variable       string         `json:"variable"`
}

type StepResult struct {
	Node     string         `json:"node"`
	Variable string         `json:"variable,omitempty"`
	Output   map[string]any `json:"output"`
}

type RunResult struct {
	RunID      string         `json:"runId"`
	Steps      []StepResult   `json:"steps"`
	Context    map[string]any `json:"context"`
	DurationMs int64          `json:"durationMs"`
}

// Runner executes one dependency chain sequentially, merging each step's
// result into the shared run context for downstream steps. Independent
// branches are the orchestrator's concern; the runner promises ordering
// only within the chain it is given.
type Runner struct {
	dispatcher *Dispatcher
	logger     zerolog.Logger
}

func NewRunner(dispatcher *Dispatcher, logger zerolog.Logger) *Runner {
	return &Runner{dispatcher: dispatcher, logger: logger}
}

// Run executes steps in order. On failure the branch halts; the partial
// result up to the failing step is returned alongside the classified
// failure so callers can surface execution traces.
func (r *Runner) Run(ctx context.Context, steps []Step, resolver SecretResolver, seed map[string]any) (*RunResult, error) {
	runID := uuid.NewString()
	runCtx := NewRunContext(seed)
	started := time.Now()

	result := &RunResult{RunID: runID, Steps: make([]StepResult, 0, len(steps))}

	for i, step := range steps {
		out, err := r.dispatcher.Execute(ctx, Request{
			Node:           step.Node,
			Properties:     step.Properties,
			InputVariables: step.InputVariables,
			Resolver:       resolver,
			Context:        runCtx,
		})
		if err != nil {
			r.logger.Warn().Str("runId", runID).Int("step", i).Str("node", step.Node).Err(err).Msg("Run halted")
			result.Context = runCtx.Snapshot()
			result.DurationMs = time.Since(started).Milliseconds()
			return result, err
		}

		if step.Variable != "" {
			runCtx.Set(step.Variable, out)
		}
		result.Steps = append(result.Steps, StepResult{Node: step.Node, Variable: step.Variable, Output: out})
	}

	result.Context = runCtx.Snapshot()
	result.DurationMs = time.Since(started).Milliseconds()
	r.logger.Info().Str("runId", runID).Int("steps", len(steps)).Int64("durationMs", result.DurationMs).Msg("Run completed")
	return result, nil
}
