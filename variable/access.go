package variable

import (
	"sort"

	"github.com/hupe1980/cyclemesh/core"
	"github.com/hupe1980/cyclemesh/logging"
	"github.com/hupe1980/cyclemesh/session"
)

// DefaultMaxVariables caps list responses so a large variable tree cannot
// flood the transport.
const DefaultMaxVariables = 200

// Options holds overrides passed to New.
type Options struct {
	// MaxVariables replaces DefaultMaxVariables as the listing cap applied
	// when a request names no cap of its own.
	MaxVariables int
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Access is the variable access layer over the session registry.
type Access struct {
	registry *session.Registry
	maxVars  int
	logger   logging.Logger
}

// New constructs the access layer.
func New(registry *session.Registry, optFns ...func(o *Options)) *Access {
	opts := Options{
		MaxVariables: DefaultMaxVariables,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Access{registry: registry, maxVars: opts.MaxVariables, logger: opts.Logger}
}

// ListSpec narrows a variable listing.
type ListSpec struct {
	Kind VariableKindFilter
	// NameFilter keeps only names containing the substring, case-insensitive.
	NameFilter string
	// MaxVariables truncates the listing; zero falls back to the access
	// layer's configured cap.
	MaxVariables int
}

// VariableKindFilter aliases the core filter for callers of this package.
type VariableKindFilter = core.VariableKind

// List returns catalog metadata for a session, filtered and truncated. It
// reads only the cached catalog, never the engine.
func (a *Access) List(sessionID string, spec ListSpec) ([]core.VariableMeta, error) {
	handle, err := a.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	kind := spec.Kind
	if kind == "" {
		kind = core.KindBoth
	}
	maxVars := spec.MaxVariables
	if maxVars <= 0 {
		maxVars = a.maxVars
	}

	vars := handle.Catalog().List(kind, spec.NameFilter)
	if len(vars) > maxVars {
		vars = vars[:maxVars]
	}
	return vars, nil
}

// SetInputs validates that every name is a declared input and then writes the
// values to the engine. Validation completes for all names before any engine
// write, so a request naming one unknown variable applies nothing.
func (a *Access) SetInputs(sessionID string, values map[string]any) error {
	handle, err := a.registry.Get(sessionID)
	if err != nil {
		return err
	}

	handle.Lock()
	defer handle.Unlock()

	return ApplyInputs(handle, values)
}

// ApplyInputs is the lock-free core of SetInputs, used by orchestrators that
// already hold the handle lock for a longer operation.
func ApplyInputs(handle *core.Handle, values map[string]any) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	// Deterministic validation and write order. On multiple unknown names the
	// error consistently names the first in sorted order.
	sort.Strings(names)

	catalog := handle.Catalog()
	for _, name := range names {
		if err := catalog.Input(name); err != nil {
			return err
		}
	}

	instance := handle.Instance()
	for _, name := range names {
		if err := instance.Set(name, values[name]); err != nil {
			return core.ErrExecution(err)
		}
	}
	return nil
}

// GetOutputs validates that every name is a declared output and reads the
// current values from the engine.
func (a *Access) GetOutputs(sessionID string, names []string) (map[string]any, error) {
	handle, err := a.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	handle.Lock()
	defer handle.Unlock()

	catalog := handle.Catalog()
	for _, name := range names {
		if err := catalog.Output(name); err != nil {
			return nil, err
		}
	}

	instance := handle.Instance()
	values := make(map[string]any, len(names))
	for _, name := range names {
		v, err := instance.Get(name)
		if err != nil {
			return nil, core.ErrExecution(err)
		}
		values[name] = v
	}
	return values, nil
}
