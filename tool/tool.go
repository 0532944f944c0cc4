package tool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/cyclemesh/core"
	"github.com/hupe1980/cyclemesh/internal/util"
	"github.com/hupe1980/cyclemesh/logging"
)

// HandlerFunc is the function signature for tool handlers. The payload has
// already been validated against the tool's schema when a handler runs.
type HandlerFunc func(ctx context.Context, payload map[string]any) (any, error)

// Definition declares one dispatchable tool: its wire name, documentation,
// payload schema and handler. The schema is declared to the transport and
// enforced here independently of how it is advertised.
type Definition struct {
	Name        string
	Title       string
	Description string
	InputSchema map[string]any
	// ReadOnly marks tools that never mutate model state.
	ReadOnly bool
	// Destructive marks tools that irreversibly release resources.
	Destructive bool
	Handler     HandlerFunc
}

// Envelope is the uniform dispatch outcome. Exactly one of Result or the
// error fields is populated.
type Envelope struct {
	OK        bool   `json:"ok"`
	Result    any    `json:"result,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Message   string `json:"message,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// Ok wraps a successful result.
func Ok(result any) Envelope {
	return Envelope{OK: true, Result: result}
}

// Fail wraps an error, extracting the kind and bare message from typed
// errors so the envelope never double-prefixes the kind.
func Fail(err error) Envelope {
	var ce *core.Error
	if errors.As(err, &ce) {
		return Envelope{OK: false, ErrorKind: string(ce.Kind), Message: ce.Message, Details: ce.Details}
	}
	return Envelope{OK: false, ErrorKind: string(core.KindExecution), Message: err.Error()}
}

// Options holds overrides passed to NewDispatcher.
type Options struct {
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Dispatcher maps tool names to registered operations. Safe for concurrent
// use; dispatch itself holds no lock while a handler runs, so calls against
// distinct sessions proceed independently.
type Dispatcher struct {
	logger logging.Logger

	mu    sync.RWMutex
	tools map[string]Definition
	order []string
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(optFns ...func(o *Options)) *Dispatcher {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Dispatcher{
		logger: opts.Logger,
		tools:  make(map[string]Definition),
	}
}

// Register adds a tool definition. Names are unique; re-registering is a
// wiring bug and fails loudly.
func (d *Dispatcher) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool %q has no handler", def.Name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.tools[def.Name]; exists {
		return fmt.Errorf("tool %q already registered", def.Name)
	}
	d.tools[def.Name] = def
	d.order = append(d.order, def.Name)
	return nil
}

// Definitions returns all registered tools in registration order.
func (d *Dispatcher) Definitions() []Definition {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Definition, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.tools[name])
	}
	return out
}

// Dispatch resolves a tool by name, validates the payload shape against the
// tool's declared schema and invokes the handler, wrapping every outcome in
// an Envelope. Unknown tool names fail with UnknownToolError.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, payload map[string]any) Envelope {
	d.mu.RLock()
	def, ok := d.tools[name]
	d.mu.RUnlock()

	if !ok {
		d.logger.Warn("unknown tool", "tool", name)
		return Fail(core.ErrUnknownTool(name))
	}

	if payload == nil {
		payload = map[string]any{}
	}

	if def.InputSchema != nil {
		if err := util.ValidateParameters(payload, def.InputSchema); err != nil {
			d.logger.Debug("payload rejected", "tool", name, "error", err)
			return Fail(core.NewError(core.KindValidation, "%s", err.Error()))
		}
	}

	result, err := def.Handler(ctx, payload)
	if err != nil {
		d.logger.Debug("tool failed", "tool", name, "error", err)
		return Fail(err)
	}

	d.logger.Debug("tool dispatched", "tool", name)
	return Ok(result)
}
