package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) Catalog {
	t.Helper()
	c, err := NewCatalog([]VariableMeta{
		{Name: "fc.MN", Direction: DirectionInput, Units: "", Desc: "flight Mach number"},
		{Name: "fc.alt", Direction: DirectionInput, Units: "ft"},
		{Name: "comp.PR", Direction: DirectionInput},
		{Name: "Fn", Direction: DirectionOutput, Units: "lbf", Desc: "net thrust"},
		{Name: "TSFC", Direction: DirectionOutput, Units: "lbm/(h*lbf)"},
	})
	require.NoError(t, err)
	return c
}

func TestCatalogDuplicateName(t *testing.T) {
	_, err := NewCatalog([]VariableMeta{
		{Name: "Fn", Direction: DirectionOutput},
		{Name: "Fn", Direction: DirectionOutput},
	})
	assert.Error(t, err)
}

func TestCatalogDirectionChecks(t *testing.T) {
	c := testCatalog(t)

	assert.NoError(t, c.Input("fc.MN"))
	assert.NoError(t, c.Output("Fn"))

	err := c.Input("Fn")
	assert.True(t, IsKind(err, KindUnknownVariable))

	err = c.Output("nope")
	assert.True(t, IsKind(err, KindUnknownVariable))
}

func TestCatalogList(t *testing.T) {
	c := testCatalog(t)

	inputs := c.List(KindInputs, "")
	require.Len(t, inputs, 3)
	// Sorted by name.
	assert.Equal(t, "comp.PR", inputs[0].Name)
	assert.Equal(t, "fc.MN", inputs[1].Name)

	filtered := c.List(KindBoth, "FC.")
	require.Len(t, filtered, 2)

	outputs := c.List(KindOutputs, "tsfc")
	require.Len(t, outputs, 1)
	assert.Equal(t, "TSFC", outputs[0].Name)
}

func TestParseCycleType(t *testing.T) {
	ct, err := ParseCycleType("turbofan")
	require.NoError(t, err)
	assert.Equal(t, CycleTurbofan, ct)

	_, err = ParseCycleType("ramjet")
	assert.True(t, IsKind(err, KindConfiguration))
}

func TestParseVariableKind(t *testing.T) {
	k, err := ParseVariableKind("")
	require.NoError(t, err)
	assert.Equal(t, KindBoth, k)

	_, err = ParseVariableKind("neither")
	assert.True(t, IsKind(err, KindValidation))
}
