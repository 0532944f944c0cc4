package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestToolsCommand(t *testing.T) {
	out, err := execute(t, "tools")
	require.NoError(t, err)
	assert.Contains(t, out, "create_cycle_model")
	assert.Contains(t, out, "run_sweep")
	assert.Contains(t, out, "ping")
}

func TestToolsCommandJSON(t *testing.T) {
	out, err := execute(t, "tools", "--json")
	require.NoError(t, err)

	var infos []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	assert.Len(t, infos, 11)
}

func TestCallCommand(t *testing.T) {
	t.Run("ping", func(t *testing.T) {
		out, err := execute(t, "call", "ping")
		require.NoError(t, err)

		var env map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &env))
		assert.Equal(t, true, env["ok"])
	})

	t.Run("create model", func(t *testing.T) {
		out, err := execute(t, "call", "create_cycle_model",
			"--payload", `{"cycle_type":"turbojet","mode":"design"}`)
		require.NoError(t, err)
		assert.Contains(t, out, "session_id")
	})

	t.Run("failed dispatch exits non-zero", func(t *testing.T) {
		_, err := execute(t, "call", "no_such_tool")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "UnknownToolError")
	})

	t.Run("bad payload json", func(t *testing.T) {
		_, err := execute(t, "call", "ping", "--payload", "{nope")
		require.Error(t, err)
	})
}

func TestBadConfigPath(t *testing.T) {
	_, err := execute(t, "tools", "--config", "/does/not/exist.yaml")
	require.Error(t, err)
}
