package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/hupe1980/cyclemesh/server"
	"github.com/spf13/cobra"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Transport string
	Host      string
	Port      int
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions, version string) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tool surface over MCP",
		Long: `Serve the tool surface over the Model Context Protocol.

In stdio mode (the default) the server speaks the protocol on
stdin/stdout and logs to stderr, suitable for subprocess embedding.
In http mode it listens on host:port using the streamable HTTP
transport.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts, version)
		},
	}

	cmd.Flags().StringVar(&opts.Transport, "transport", "", "transport (stdio|http)")
	cmd.Flags().StringVar(&opts.Host, "host", "", "http listen host")
	cmd.Flags().IntVar(&opts.Port, "port", 0, "http listen port")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions, version string) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if opts.Transport != "" {
		cfg.Transport = opts.Transport
	}
	if opts.Host != "" {
		cfg.Host = opts.Host
	}
	if opts.Port != 0 {
		cfg.Port = opts.Port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg)
	mesh, err := newMesh(cfg, logger)
	if err != nil {
		return err
	}
	defer mesh.Close()

	srv := server.New(mesh.Dispatcher(), func(o *server.Options) {
		o.Version = version
		o.Logger = logger
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cfg.Transport {
	case "http":
		return srv.ServeHTTP(ctx, cfg.Addr())
	case "stdio":
		return srv.ServeStdio(ctx)
	default:
		return fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}
