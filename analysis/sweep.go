package analysis

import (
	"context"

	"github.com/hupe1980/cyclemesh/core"
	"github.com/hupe1980/cyclemesh/internal/util"
	"github.com/hupe1980/cyclemesh/logging"
	"github.com/hupe1980/cyclemesh/session"
	"github.com/hupe1980/cyclemesh/variable"
)

// DefaultMaxPoints bounds sweep grids; grid sizes are caller-controlled, so
// an unbounded product would be unbounded compute.
const DefaultMaxPoints = 1000

// SweepVariable is one swept input with its ordered value sequence.
type SweepVariable struct {
	Name   string `json:"name"`
	Values []any  `json:"values"`
}

// SweepSpec declares a Cartesian grid over input variables plus the outputs
// of interest at every point.
type SweepSpec struct {
	Variables []SweepVariable `json:"variables"`
	Outputs   []string        `json:"outputs,omitempty"`
}

// SweepPoint is the outcome at one grid point. Failed points carry the error
// text instead of outputs; Index is the zero-based position in iteration
// order.
type SweepPoint struct {
	Index   int            `json:"index"`
	Inputs  map[string]any `json:"inputs"`
	Success bool           `json:"success"`
	Outputs map[string]any `json:"outputs,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// SweepResult aggregates all evaluated points in deterministic row-major
// order over the declared variable order (last declared variable varies
// fastest). Completed is false when a cancellation stopped the sweep early;
// the points evaluated up to that moment are still returned.
type SweepResult struct {
	Points    []SweepPoint `json:"points"`
	GridShape []int        `json:"grid_shape"`
	Total     int          `json:"total"`
	Completed bool         `json:"completed"`
}

// SweeperOptions holds overrides passed to NewSweeper.
type SweeperOptions struct {
	// MaxPoints caps the grid size; zero means DefaultMaxPoints.
	MaxPoints int
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Sweeper evaluates a model across a Cartesian grid of input combinations.
type Sweeper struct {
	registry  *session.Registry
	runner    *Runner
	maxPoints int
	logger    logging.Logger
}

// NewSweeper constructs the sweep orchestrator around an execution runner.
func NewSweeper(registry *session.Registry, runner *Runner, optFns ...func(o *SweeperOptions)) *Sweeper {
	opts := SweeperOptions{
		MaxPoints: DefaultMaxPoints,
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxPoints <= 0 {
		opts.MaxPoints = DefaultMaxPoints
	}
	return &Sweeper{
		registry:  registry,
		runner:    runner,
		maxPoints: opts.MaxPoints,
		logger:    opts.Logger,
	}
}

// Run validates the sweep, then evaluates every grid point under a single
// hold of the per-session lock. One point's failure never aborts the sweep;
// the model is left at the last evaluated point, not restored. Oversized
// grids fail before any engine call. Cancellation via ctx stops between
// points and returns the points already computed.
func (s *Sweeper) Run(ctx context.Context, sessionID string, spec SweepSpec) (*SweepResult, error) {
	handle, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	sizes, err := s.validate(handle, spec)
	if err != nil {
		return nil, err
	}

	total, _ := util.GridSize(sizes)

	handle.Lock()
	defer handle.Unlock()

	result := &SweepResult{
		Points:    make([]SweepPoint, 0, total),
		GridShape: sizes,
		Total:     total,
		Completed: true,
	}

	idx := make([]int, len(sizes))
	for i := 0; i < total; i++ {
		if ctx.Err() != nil {
			s.logger.Info("sweep cancelled", "session_id", sessionID, "evaluated", i, "total", total)
			result.Completed = false
			break
		}

		inputs := make(map[string]any, len(spec.Variables))
		for axis, v := range spec.Variables {
			inputs[v.Name] = v.Values[idx[axis]]
		}

		result.Points = append(result.Points, s.evaluate(ctx, handle, i, inputs, spec.Outputs))
		util.Advance(idx, sizes)
	}

	return result, nil
}

// validate checks the grid shape and every swept name before any engine
// interaction, returning the per-axis sizes.
func (s *Sweeper) validate(handle *core.Handle, spec SweepSpec) ([]int, error) {
	if len(spec.Variables) == 0 {
		return nil, core.NewError(core.KindValidation, "sweep must include at least one variable")
	}

	catalog := handle.Catalog()
	seen := make(map[string]bool, len(spec.Variables))
	sizes := make([]int, len(spec.Variables))
	for i, v := range spec.Variables {
		if seen[v.Name] {
			return nil, core.NewError(core.KindValidation, "variable %q is swept twice", v.Name)
		}
		seen[v.Name] = true

		if err := catalog.Input(v.Name); err != nil {
			return nil, err
		}
		if len(v.Values) == 0 {
			return nil, core.NewError(core.KindValidation, "variable %q has no values", v.Name)
		}
		sizes[i] = len(v.Values)
	}

	total, ok := util.GridSize(sizes)
	if !ok || total > s.maxPoints {
		if !ok {
			// Product overflowed; it is certainly beyond any configured limit.
			return nil, core.NewError(core.KindSweepTooLarge, "sweep grid size overflows, limit is %d", s.maxPoints)
		}
		return nil, core.ErrSweepTooLarge(total, s.maxPoints)
	}

	return sizes, nil
}

// evaluate applies one input combination and solves, capturing failure in the
// point instead of propagating it.
func (s *Sweeper) evaluate(ctx context.Context, handle *core.Handle, index int, inputs map[string]any, outputs []string) SweepPoint {
	point := SweepPoint{Index: index, Inputs: inputs}

	if err := variable.ApplyInputs(handle, inputs); err != nil {
		point.Error = err.Error()
		return point
	}

	run, err := s.runner.runLocked(ctx, handle, outputs)
	if err != nil {
		point.Error = err.Error()
		return point
	}

	point.Success = true
	point.Outputs = run.Outputs
	return point
}
