package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cyclemesh/core"
	"github.com/hupe1980/cyclemesh/internal/cycletest"
	"github.com/hupe1980/cyclemesh/session"
)

func newSession(t *testing.T, optFns ...func(o *cycletest.Options)) (*cycletest.Builder, *session.Registry, string) {
	t.Helper()
	builder := cycletest.NewBuilder(optFns...)
	reg := session.NewRegistry(builder)
	h, err := reg.Create(context.Background(), session.CreateSpec{CycleType: core.CycleTurbofan, Mode: "design"})
	require.NoError(t, err)
	return builder, reg, h.ID
}

func TestRunReportsRequestedOutputs(t *testing.T) {
	_, reg, id := newSession(t)
	runner := NewRunner(reg)

	result, err := runner.Run(context.Background(), id, []string{"Fn", "TSFC"})
	require.NoError(t, err)

	require.Len(t, result.Outputs, 2)
	// Fn at construction defaults: 4000 + 200000*0.03 + 120*24 - 0.04*35000 - 1500*0.8.
	assert.InDelta(t, 10280.0, result.Outputs["Fn"].(float64), 1e-9)
	assert.Equal(t, 6, result.Iterations)
	assert.InDelta(t, 1e-8, result.ResidualNorm, 1e-12)
}

func TestRunDefaultOutputs(t *testing.T) {
	_, reg, id := newSession(t)
	runner := NewRunner(reg)

	result, err := runner.Run(context.Background(), id, nil)
	require.NoError(t, err)
	assert.Len(t, result.Outputs, len(DefaultOutputs))
	for _, name := range DefaultOutputs {
		assert.Contains(t, result.Outputs, name)
	}
}

func TestRunMissingOutputReportedNotFatal(t *testing.T) {
	_, reg, id := newSession(t)
	runner := NewRunner(reg)

	result, err := runner.Run(context.Background(), id, []string{"Fn", "Wfuel"})
	require.NoError(t, err)
	assert.Nil(t, result.Outputs["Wfuel"])
	assert.NotEmpty(t, result.Messages)
}

func TestRunNonConvergence(t *testing.T) {
	_, reg, id := newSession(t, func(o *cycletest.Options) {
		o.RunErr = errors.New("newton solver diverged")
	})
	runner := NewRunner(reg)

	_, err := runner.Run(context.Background(), id, nil)
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindExecution))
	assert.Contains(t, err.Error(), "diverged")
}

func TestRunUnknownSession(t *testing.T) {
	_, reg, _ := newSession(t)
	runner := NewRunner(reg)

	_, err := runner.Run(context.Background(), "gone", nil)
	assert.True(t, core.IsKind(err, core.KindSessionNotFound))
}

func TestRunMarksHandle(t *testing.T) {
	_, reg, id := newSession(t)
	runner := NewRunner(reg)

	h, err := reg.Get(id)
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), id, nil)
	require.NoError(t, err)

	h.Lock()
	ran := h.HasRun()
	h.Unlock()
	assert.True(t, ran)
}
