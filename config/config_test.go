package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "stdio", cfg.Transport)
	assert.Equal(t, 8385, cfg.Port)
	assert.Equal(t, 1000, cfg.SweepMaxPoints)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
transport: http
port: 9000
log_level: debug
sweep_max_points: 50
default_outputs: [Fn, TSFC]
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http", cfg.Transport)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 50, cfg.SweepMaxPoints)
	assert.Equal(t, []string{"Fn", "TSFC"}, cfg.DefaultOutputs)

	// untouched fields keep defaults
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultMaxVariables, cfg.MaxVariables)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad transport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("transport: grpc"), 0644))
		_, err := Load(path)
		assert.ErrorContains(t, err, "unknown transport")
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("port: [nope"), 0644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	want := DefaultConfig()
	want.Transport = "http"
	want.DefaultOutputs = []string{"Fn"}

	require.NoError(t, Save(path, want))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAddr(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "127.0.0.1:8385", cfg.Addr())
}
