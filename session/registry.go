package session

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/hupe1980/cyclemesh/core"
	"github.com/hupe1980/cyclemesh/logging"
)

// CreateSpec describes one model construction request.
type CreateSpec struct {
	CycleType core.CycleType
	Mode      string
	// CycleBuilder selects a registered custom builder when CycleType is
	// custom. Ignored otherwise.
	CycleBuilder string
	// Options are engine construction settings, passed through opaquely.
	Options map[string]any
}

// Options holds dependency + configuration overrides passed to NewRegistry.
type Options struct {
	// CustomBuilders resolves cycle_type=custom requests by name.
	CustomBuilders map[string]core.Builder
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Registry maps session identifiers to live model handles. Safe for
// concurrent use; operations on distinct sessions never block each other.
type Registry struct {
	builder core.Builder
	custom  map[string]core.Builder
	logger  logging.Logger

	mu      sync.RWMutex
	handles map[string]*core.Handle
}

// NewRegistry constructs a registry around the default engine builder.
func NewRegistry(builder core.Builder, optFns ...func(o *Options)) *Registry {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Registry{
		builder: builder,
		custom:  opts.CustomBuilders,
		logger:  opts.Logger,
		handles: make(map[string]*core.Handle),
	}
}

// Create constructs a new model via the engine capability, registers it under
// a fresh identifier and returns the handle. Construction faults and
// unsupported cycle/mode combinations surface as ConfigurationError.
func (r *Registry) Create(ctx context.Context, spec CreateSpec) (*core.Handle, error) {
	builder, err := r.resolveBuilder(spec)
	if err != nil {
		return nil, err
	}

	instance, err := builder.Construct(ctx, spec.CycleType, spec.Mode, spec.Options)
	if err != nil {
		return nil, core.NewError(core.KindConfiguration, "failed to construct %s model: %s", spec.CycleType, err)
	}

	modelName := string(spec.CycleType)
	if named, ok := instance.(interface{ ModelName() string }); ok {
		modelName = named.ModelName()
	}

	handle := core.NewHandle(uuid.NewString(), spec.CycleType, spec.Mode, modelName, spec.Options, instance)

	r.mu.Lock()
	r.handles[handle.ID] = handle
	r.mu.Unlock()

	r.logger.Info("session created", "session_id", handle.ID, "cycle_type", spec.CycleType, "mode", spec.Mode)

	return handle, nil
}

func (r *Registry) resolveBuilder(spec CreateSpec) (core.Builder, error) {
	if spec.CycleType != core.CycleCustom {
		if r.builder == nil {
			return nil, core.NewError(core.KindConfiguration, "no engine builder configured")
		}
		return r.builder, nil
	}
	if spec.CycleBuilder == "" {
		return nil, core.NewError(core.KindConfiguration, "cycle_builder is required for custom cycles")
	}
	builder, ok := r.custom[spec.CycleBuilder]
	if !ok {
		return nil, core.NewError(core.KindConfiguration, "no custom builder registered as %q", spec.CycleBuilder)
	}
	return builder, nil
}

// Get resolves a session identifier to its handle.
func (r *Registry) Get(sessionID string) (*core.Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handle, ok := r.handles[sessionID]
	if !ok {
		return nil, core.ErrSessionNotFound(sessionID)
	}
	return handle, nil
}

// Close releases the engine resources of a session and removes it. A second
// close on the same identifier fails with SessionNotFoundError so callers can
// detect double-close bugs; destroyed sessions are removed, not tombstoned.
func (r *Registry) Close(sessionID string) error {
	r.mu.Lock()
	handle, ok := r.handles[sessionID]
	if ok {
		delete(r.handles, sessionID)
	}
	r.mu.Unlock()

	if !ok {
		return core.ErrSessionNotFound(sessionID)
	}

	// Wait for any in-flight operation on this session before releasing the
	// engine. The handle is already unreachable, so no new operation can
	// start.
	handle.Lock()
	defer handle.Unlock()

	if err := handle.Instance().Close(); err != nil {
		r.logger.Warn("engine close failed", "session_id", sessionID, "error", err)
	}

	r.logger.Info("session closed", "session_id", sessionID)

	return nil
}

// List returns a read-only snapshot of all live sessions ordered by creation
// time. It reads cached catalogs only, never the engine.
func (r *Registry) List() []core.SessionMeta {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.SessionMeta, 0, len(r.handles))
	for _, h := range r.handles {
		out = append(out, h.Meta())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Created.Equal(out[j].Created) {
			return out[i].SessionID < out[j].SessionID
		}
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// CloseAll tears down every live session. Used at process shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	handles := make([]*core.Handle, 0, len(r.handles))
	for _, h := range r.handles {
		handles = append(handles, h)
	}
	r.handles = make(map[string]*core.Handle)
	r.mu.Unlock()

	for _, h := range handles {
		h.Lock()
		if err := h.Instance().Close(); err != nil {
			r.logger.Warn("engine close failed", "session_id", h.ID, "error", err)
		}
		h.Unlock()
	}
}
