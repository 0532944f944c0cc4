package tool

import (
	"context"
	"testing"

	"github.com/hupe1980/cyclemesh/analysis"
	"github.com/hupe1980/cyclemesh/core"
	"github.com/hupe1980/cyclemesh/internal/cycletest"
	"github.com/hupe1980/cyclemesh/session"
	"github.com/hupe1980/cyclemesh/variable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatcher(t *testing.T) *Dispatcher {
	t.Helper()

	registry := session.NewRegistry(cycletest.NewBuilder())
	runner := analysis.NewRunner(registry)

	d := NewDispatcher()
	require.NoError(t, RegisterBuiltins(d, Services{
		Registry: registry,
		Access:   variable.New(registry),
		Runner:   runner,
		Sweeper:  analysis.NewSweeper(registry, runner),
		Totals:   analysis.NewTotals(registry),
	}))
	return d
}

func createSession(t *testing.T, d *Dispatcher) string {
	t.Helper()

	env := d.Dispatch(context.Background(), "create_cycle_model", map[string]any{
		"cycle_type": "turbofan",
		"mode":       "design",
	})
	require.True(t, env.OK, "create failed: %s", env.Message)

	result, ok := env.Result.(createResult)
	require.True(t, ok)
	require.NotEmpty(t, result.SessionID)
	return result.SessionID
}

func TestBuiltinSurface(t *testing.T) {
	d := newDispatcher(t)

	names := make([]string, 0)
	for _, def := range d.Definitions() {
		names = append(names, def.Name)
	}
	assert.Equal(t, []string{
		"create_cycle_model",
		"close_cycle_model",
		"get_cycle_summary",
		"list_sessions",
		"list_variables",
		"set_inputs",
		"get_outputs",
		"run_cycle",
		"run_sweep",
		"compute_derivatives",
		"ping",
	}, names)

	for _, def := range d.Definitions() {
		assert.NotEmpty(t, def.Description, "tool %s has no description", def.Name)
		assert.NotNil(t, def.InputSchema, "tool %s has no schema", def.Name)
	}
}

func TestCreateCycleModel(t *testing.T) {
	d := newDispatcher(t)

	env := d.Dispatch(context.Background(), "create_cycle_model", map[string]any{
		"cycle_type": "turbofan",
		"mode":       "design",
	})
	require.True(t, env.OK)

	result := env.Result.(createResult)
	assert.Equal(t, "HBTF", result.ModelName)
	assert.Equal(t, core.CycleTurbofan, result.CycleType)
	assert.Equal(t, "design", result.Mode)
	assert.Equal(t, 4, result.Inputs)
	assert.Equal(t, 4, result.Outputs)

	t.Run("unsupported cycle type is rejected by schema", func(t *testing.T) {
		env := d.Dispatch(context.Background(), "create_cycle_model", map[string]any{
			"cycle_type": "ramjet",
			"mode":       "design",
		})
		require.False(t, env.OK)
		assert.Equal(t, string(core.KindValidation), env.ErrorKind)
	})

	t.Run("missing mode", func(t *testing.T) {
		env := d.Dispatch(context.Background(), "create_cycle_model", map[string]any{
			"cycle_type": "turbojet",
		})
		require.False(t, env.OK)
		assert.Equal(t, string(core.KindValidation), env.ErrorKind)
	})
}

func TestRunCycleRoundTrip(t *testing.T) {
	d := newDispatcher(t)
	id := createSession(t, d)

	env := d.Dispatch(context.Background(), "set_inputs", map[string]any{
		"session_id": id,
		"values":     map[string]any{"comp.PR": 28.0, "fc.MN": 0.82},
	})
	require.True(t, env.OK, env.Message)
	assert.Equal(t, map[string]any{"updated": []string{"comp.PR", "fc.MN"}}, env.Result)

	env = d.Dispatch(context.Background(), "run_cycle", map[string]any{
		"session_id":          id,
		"outputs_of_interest": []any{"Fn"},
	})
	require.True(t, env.OK, env.Message)

	run := env.Result.(*analysis.RunResult)
	require.Contains(t, run.Outputs, "Fn")
	// bias 4000 + FAR 0.03*200000 + PR 28*120 + alt 35000*-0.04 + MN 0.82*-1500
	assert.InDelta(t, 10730.0, run.Outputs["Fn"], 1e-9)
	assert.Equal(t, 6, run.Iterations)

	env = d.Dispatch(context.Background(), "get_outputs", map[string]any{
		"session_id": id,
		"names":      []any{"Fn"},
	})
	require.True(t, env.OK, env.Message)
	values := env.Result.(map[string]any)["values"].(map[string]any)
	assert.InDelta(t, 10730.0, values["Fn"], 1e-9)
}

func TestListVariables(t *testing.T) {
	d := newDispatcher(t)
	id := createSession(t, d)

	env := d.Dispatch(context.Background(), "list_variables", map[string]any{
		"session_id":  id,
		"kind":        "inputs",
		"name_filter": "fc.",
	})
	require.True(t, env.OK, env.Message)

	vars := env.Result.(map[string]any)["variables"].([]core.VariableMeta)
	require.Len(t, vars, 2)
	assert.Equal(t, "fc.MN", vars[0].Name)
	assert.Equal(t, "fc.alt", vars[1].Name)

	t.Run("invalid kind rejected by schema", func(t *testing.T) {
		env := d.Dispatch(context.Background(), "list_variables", map[string]any{
			"session_id": id,
			"kind":       "sideways",
		})
		require.False(t, env.OK)
		assert.Equal(t, string(core.KindValidation), env.ErrorKind)
	})
}

func TestRunSweepTool(t *testing.T) {
	d := newDispatcher(t)
	id := createSession(t, d)

	env := d.Dispatch(context.Background(), "run_sweep", map[string]any{
		"session_id": id,
		"sweep": []any{
			map[string]any{"name": "fc.MN", "values": []any{0.7, 0.8}},
			map[string]any{"name": "comp.PR", "values": []any{20.0, 24.0, 28.0}},
		},
		"outputs_of_interest": []any{"Fn"},
	})
	require.True(t, env.OK, env.Message)

	sweep := env.Result.(*analysis.SweepResult)
	assert.Equal(t, []int{2, 3}, sweep.GridShape)
	assert.Equal(t, 6, sweep.Total)
	assert.True(t, sweep.Completed)
	require.Len(t, sweep.Points, 6)
	// last declared variable varies fastest
	assert.Equal(t, map[string]any{"fc.MN": 0.7, "comp.PR": 20.0}, sweep.Points[0].Inputs)
	assert.Equal(t, map[string]any{"fc.MN": 0.7, "comp.PR": 24.0}, sweep.Points[1].Inputs)
	assert.Equal(t, map[string]any{"fc.MN": 0.8, "comp.PR": 20.0}, sweep.Points[3].Inputs)
}

func TestComputeDerivativesTool(t *testing.T) {
	d := newDispatcher(t)
	id := createSession(t, d)

	t.Run("requires a prior run", func(t *testing.T) {
		env := d.Dispatch(context.Background(), "compute_derivatives", map[string]any{
			"session_id": id,
			"of":         []any{"Fn"},
			"wrt":        []any{"fc.MN"},
		})
		require.False(t, env.OK)
		assert.Equal(t, string(core.KindExecution), env.ErrorKind)
	})

	env := d.Dispatch(context.Background(), "run_cycle", map[string]any{"session_id": id})
	require.True(t, env.OK, env.Message)

	t.Run("by pair default", func(t *testing.T) {
		env := d.Dispatch(context.Background(), "compute_derivatives", map[string]any{
			"session_id": id,
			"of":         []any{"Fn"},
			"wrt":        []any{"fc.MN", "comp.PR"},
		})
		require.True(t, env.OK, env.Message)

		jac := env.Result.(map[string]any)["jacobian"].(map[string]map[string]any)
		assert.InDelta(t, -1500.0, jac["Fn"]["fc.MN"], 1e-9)
		assert.InDelta(t, 120.0, jac["Fn"]["comp.PR"], 1e-9)
	})

	t.Run("dense layout", func(t *testing.T) {
		env := d.Dispatch(context.Background(), "compute_derivatives", map[string]any{
			"session_id":    id,
			"of":            []any{"Fn", "TSFC"},
			"wrt":           []any{"fc.MN"},
			"return_format": "dense",
		})
		require.True(t, env.OK, env.Message)

		jac := env.Result.(map[string]any)["jacobian"].(*analysis.DenseJacobian)
		assert.Equal(t, []string{"Fn", "TSFC"}, jac.Of)
		assert.Equal(t, []string{"fc.MN"}, jac.Wrt)
		require.Len(t, jac.Data, 2)
		assert.InDelta(t, -1500.0, jac.Data[0][0], 1e-9)
	})
}

func TestGetCycleSummaryTool(t *testing.T) {
	d := newDispatcher(t)
	id := createSession(t, d)

	env := d.Dispatch(context.Background(), "get_cycle_summary", map[string]any{"session_id": id})
	require.True(t, env.OK, env.Message)

	summary := env.Result.(summaryResult)
	assert.Equal(t, "HBTF", summary.ModelName)
	assert.Equal(t, core.CycleTurbofan, summary.CycleType)
	require.Len(t, summary.KeyInputs, 4)
	require.Len(t, summary.KeyOutputs, 4)

	byName := make(map[string]any, len(summary.KeyInputs))
	for _, v := range summary.KeyInputs {
		byName[v.Name] = v.CurrentValue
	}
	assert.InDelta(t, 0.8, byName["fc.MN"], 1e-9)
}

func TestSessionLifecycleTools(t *testing.T) {
	d := newDispatcher(t)
	id := createSession(t, d)

	env := d.Dispatch(context.Background(), "list_sessions", nil)
	require.True(t, env.OK)
	sessions := env.Result.(map[string]any)["sessions"].([]core.SessionMeta)
	require.Len(t, sessions, 1)
	assert.Equal(t, id, sessions[0].SessionID)

	env = d.Dispatch(context.Background(), "close_cycle_model", map[string]any{"session_id": id})
	require.True(t, env.OK)
	assert.Equal(t, map[string]any{"success": true}, env.Result)

	t.Run("closed session is gone", func(t *testing.T) {
		env := d.Dispatch(context.Background(), "run_cycle", map[string]any{"session_id": id})
		require.False(t, env.OK)
		assert.Equal(t, string(core.KindSessionNotFound), env.ErrorKind)
	})
}

func TestPingTool(t *testing.T) {
	d := newDispatcher(t)

	env := d.Dispatch(context.Background(), "ping", nil)
	require.True(t, env.OK)
	assert.Equal(t, map[string]any{"server": "cyclemesh", "status": "ok"}, env.Result)

	env = d.Dispatch(context.Background(), "ping", map[string]any{"message": "hi"})
	require.True(t, env.OK)
	assert.Equal(t, "hi", env.Result.(map[string]any)["message"])
}
