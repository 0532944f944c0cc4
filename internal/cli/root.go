// Package cli implements the cyclemesh command tree. The binary embeds the
// development surrogate engine; deployments with a real engine build their
// own main around the cyclemesh façade.
package cli

import (
	"fmt"

	"github.com/hupe1980/cyclemesh"
	"github.com/hupe1980/cyclemesh/config"
	"github.com/hupe1980/cyclemesh/internal/cycletest"
	"github.com/hupe1980/cyclemesh/logging"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
}

// NewRootCommand creates the root command for the cyclemesh CLI.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "cyclemesh",
		Short:   "Session-oriented tool server for thermodynamic cycle models",
		Version: version,
		Long: `cyclemesh exposes cycle-model construction, execution, parameter sweeps
and derivative computation as a uniform tool surface over the Model
Context Protocol.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "log format (json|text)")

	cmd.AddCommand(NewServeCommand(opts, version))
	cmd.AddCommand(NewCallCommand(opts))
	cmd.AddCommand(NewToolsCommand(opts))

	return cmd
}

// loadConfig layers flag overrides on top of the file or default config.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if o.ConfigPath != "" {
		loaded, err := config.Load(o.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.LogFormat = o.LogFormat
	}
	return cfg, nil
}

// newLogger builds the process logger. Always stderr: in stdio mode the
// protocol framing owns stdout.
func newLogger(cfg *config.Config) logging.Logger {
	return logging.New(logging.Config{
		Level:     logging.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: "cyclemesh",
	})
}

// newMesh assembles a mesh around the surrogate engine from config.
func newMesh(cfg *config.Config, logger logging.Logger) (*cyclemesh.Mesh, error) {
	mesh, err := cyclemesh.New(cycletest.NewBuilder(), func(o *cyclemesh.Options) {
		o.SweepMaxPoints = cfg.SweepMaxPoints
		o.DefaultOutputs = cfg.DefaultOutputs
		o.MaxVariables = cfg.MaxVariables
		o.Logger = logger
	})
	if err != nil {
		return nil, fmt.Errorf("assemble mesh: %w", err)
	}
	return mesh, nil
}
