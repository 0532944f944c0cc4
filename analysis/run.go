package analysis

import (
	"context"
	"fmt"

	"github.com/hupe1980/cyclemesh/core"
	"github.com/hupe1980/cyclemesh/logging"
	"github.com/hupe1980/cyclemesh/session"
)

// DefaultOutputs is the standard output set reported when a caller names
// none. Cycle types that do not declare a name simply report it as null.
var DefaultOutputs = []string{"Fn", "TSFC", "eff", "power"}

// RunResult carries the outcome of one converged solve.
type RunResult struct {
	Outputs      map[string]any `json:"outputs"`
	Iterations   int            `json:"iterations"`
	ResidualNorm float64        `json:"residual_norm"`
	Messages     []string       `json:"messages,omitempty"`
}

// RunnerOptions holds overrides passed to NewRunner.
type RunnerOptions struct {
	// DefaultOutputs replaces the package default output set.
	DefaultOutputs []string
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Runner triggers single convergence solves and reports selected outputs.
type Runner struct {
	registry       *session.Registry
	defaultOutputs []string
	logger         logging.Logger
}

// NewRunner constructs the execution orchestrator.
func NewRunner(registry *session.Registry, optFns ...func(o *RunnerOptions)) *Runner {
	opts := RunnerOptions{
		DefaultOutputs: DefaultOutputs,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runner{
		registry:       registry,
		defaultOutputs: opts.DefaultOutputs,
		logger:         opts.Logger,
	}
}

// Run executes exactly one convergence solve and returns the requested
// outputs, defaulting to the standard set. Non-convergence surfaces as
// ExecutionError and is never retried here: a failed thermodynamic solve is a
// reported condition, not a transient fault.
func (r *Runner) Run(ctx context.Context, sessionID string, outputs []string) (*RunResult, error) {
	handle, err := r.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	handle.Lock()
	defer handle.Unlock()

	return r.runLocked(ctx, handle, outputs)
}

// runLocked is the core of Run for callers already holding the handle lock
// (the sweep orchestrator holds it across many solves).
func (r *Runner) runLocked(ctx context.Context, handle *core.Handle, outputs []string) (*RunResult, error) {
	stats, err := handle.Instance().Run(ctx)
	if err != nil {
		r.logger.Warn("solve failed", "session_id", handle.ID, "error", err)
		return nil, core.ErrExecution(err)
	}
	handle.MarkRun()

	if len(outputs) == 0 {
		outputs = r.defaultOutputs
	}

	result := &RunResult{
		Outputs:      make(map[string]any, len(outputs)),
		Iterations:   stats.Iterations,
		ResidualNorm: stats.ResidualNorm,
	}

	catalog := handle.Catalog()
	instance := handle.Instance()
	for _, name := range outputs {
		if err := catalog.Output(name); err != nil {
			result.Outputs[name] = nil
			result.Messages = append(result.Messages, fmt.Sprintf("no output %s in catalog", name))
			continue
		}
		v, err := instance.Get(name)
		if err != nil {
			result.Outputs[name] = nil
			result.Messages = append(result.Messages, fmt.Sprintf("failed to read %s: %s", name, err))
			continue
		}
		result.Outputs[name] = v
	}

	return result, nil
}
