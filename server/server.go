package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hupe1980/cyclemesh/logging"
	"github.com/hupe1980/cyclemesh/tool"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// DefaultName is the server name announced during the MCP handshake.
	DefaultName = "cyclemesh"

	// DefaultVersion is announced when the build injects no version.
	DefaultVersion = "dev"

	shutdownGrace = 5 * time.Second
)

// Options holds overrides passed to New.
type Options struct {
	// Name overrides the announced server name.
	Name string
	// Version overrides the announced server version.
	Version string
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Server bridges a tool dispatcher onto MCP transports.
type Server struct {
	dispatcher *tool.Dispatcher
	name       string
	version    string
	logger     logging.Logger
}

// New wraps a dispatcher for serving. The dispatcher's registered tools are
// snapshotted per connection, so register everything before serving.
func New(dispatcher *tool.Dispatcher, optFns ...func(o *Options)) *Server {
	opts := Options{
		Name:    DefaultName,
		Version: DefaultVersion,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Server{
		dispatcher: dispatcher,
		name:       opts.Name,
		version:    opts.Version,
		logger:     opts.Logger,
	}
}

// build assembles an MCP server advertising every dispatcher tool. The
// declared input schema is passed through verbatim; the dispatcher enforces
// it again on every call.
func (s *Server) build() *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    s.name,
		Version: s.version,
	}, nil)

	for _, def := range s.dispatcher.Definitions() {
		name := def.Name
		mcp.AddTool(srv, &mcp.Tool{
			Name:        def.Name,
			Title:       def.Title,
			Description: def.Description,
			InputSchema: def.InputSchema,
			Annotations: &mcp.ToolAnnotations{
				Title:           def.Title,
				ReadOnlyHint:    def.ReadOnly,
				DestructiveHint: ptr(def.Destructive),
			},
		}, func(ctx context.Context, _ *mcp.CallToolRequest, payload map[string]any) (*mcp.CallToolResult, tool.Envelope, error) {
			return nil, s.dispatcher.Dispatch(ctx, name, payload), nil
		})
	}

	return srv
}

// ServeStdio serves a single MCP session over stdin/stdout and blocks until
// the client disconnects or ctx is cancelled. Logging must go to stderr in
// this mode; stdout carries the protocol framing.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Info("serving on stdio", "name", s.name, "version", s.version)
	return s.build().Run(ctx, &mcp.StdioTransport{})
}

// ServeHTTP serves MCP over streamable HTTP on addr and blocks until ctx is
// cancelled. Each connection gets its own protocol session against the same
// dispatcher, so sessions created by one client are visible to all.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.build()
	}, nil)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving on http", "addr", addr, "name", s.name)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func ptr[T any](v T) *T {
	return &v
}
