// Package cyclemesh provides a high-level façade over the session registry,
// variable access layer and analysis orchestrators, enabling rapid
// construction of cycle-model tool servers. Most applications interact with
// this package by:
//  1. Creating a Mesh via New() with an engine builder
//  2. Dispatching tool calls by name (Dispatch), or handing the Dispatcher
//     to a transport from the server package
//  3. Closing sessions (or the whole mesh) when done
//
// The façade delegates per-tool behavior to the tool package while keeping
// setup ergonomics concise. All defaults are safe for local development;
// production deployments typically supply a real engine builder and a
// structured logger.
package cyclemesh

import (
	"context"

	"github.com/hupe1980/cyclemesh/analysis"
	"github.com/hupe1980/cyclemesh/core"
	"github.com/hupe1980/cyclemesh/logging"
	"github.com/hupe1980/cyclemesh/session"
	"github.com/hupe1980/cyclemesh/tool"
	"github.com/hupe1980/cyclemesh/variable"
)

// Options configures the Mesh instance.
type Options struct {
	// CustomBuilders resolves cycle_type=custom sessions by builder name.
	CustomBuilders map[string]core.Builder

	// SweepMaxPoints caps the grid size accepted by run_sweep. Zero keeps
	// the analysis package default.
	SweepMaxPoints int

	// DefaultOutputs replaces the output set reported when a run names none.
	DefaultOutputs []string

	// MaxVariables caps variable listings when a request names no cap.
	MaxVariables int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Mesh is the high-level façade aggregating the registry, access layer,
// orchestrators and tool dispatcher.
type Mesh struct {
	opts       Options
	registry   *session.Registry
	dispatcher *tool.Dispatcher
}

// New creates a Mesh around an engine builder with optional overrides. The
// full builtin tool surface is registered before New returns.
func New(builder core.Builder, optFns ...func(o *Options)) (*Mesh, error) {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	registry := session.NewRegistry(builder, func(o *session.Options) {
		o.CustomBuilders = opts.CustomBuilders
		o.Logger = opts.Logger
	})

	access := variable.New(registry, func(o *variable.Options) {
		if opts.MaxVariables > 0 {
			o.MaxVariables = opts.MaxVariables
		}
		o.Logger = opts.Logger
	})

	runner := analysis.NewRunner(registry, func(o *analysis.RunnerOptions) {
		if len(opts.DefaultOutputs) > 0 {
			o.DefaultOutputs = opts.DefaultOutputs
		}
		o.Logger = opts.Logger
	})

	sweeper := analysis.NewSweeper(registry, runner, func(o *analysis.SweeperOptions) {
		if opts.SweepMaxPoints > 0 {
			o.MaxPoints = opts.SweepMaxPoints
		}
		o.Logger = opts.Logger
	})

	totals := analysis.NewTotals(registry, func(o *analysis.TotalsOptions) {
		o.Logger = opts.Logger
	})

	dispatcher := tool.NewDispatcher(func(o *tool.Options) {
		o.Logger = opts.Logger
	})
	if err := tool.RegisterBuiltins(dispatcher, tool.Services{
		Registry: registry,
		Access:   access,
		Runner:   runner,
		Sweeper:  sweeper,
		Totals:   totals,
	}); err != nil {
		return nil, err
	}

	return &Mesh{opts: opts, registry: registry, dispatcher: dispatcher}, nil
}

// Dispatcher exposes the underlying dispatcher for transports.
func (m *Mesh) Dispatcher() *tool.Dispatcher { return m.dispatcher }

// Registry exposes the session registry for direct embedding.
func (m *Mesh) Registry() *session.Registry { return m.registry }

// Dispatch invokes a tool by name, returning the uniform envelope.
func (m *Mesh) Dispatch(ctx context.Context, name string, payload map[string]any) tool.Envelope {
	return m.dispatcher.Dispatch(ctx, name, payload)
}

// Tools lists the registered tool definitions in registration order.
func (m *Mesh) Tools() []tool.Definition { return m.dispatcher.Definitions() }

// Close releases every live session.
func (m *Mesh) Close() {
	m.registry.CloseAll()
}
