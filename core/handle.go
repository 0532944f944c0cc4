package core

import (
	"sync"
	"time"
)

// Handle binds one live engine instance to its session metadata. It is owned
// exclusively by the session registry; all other components receive it by
// lookup and must serialize engine access through Lock/Unlock.
//
// The embedded mutex is the per-session exclusion required by the engine's
// mutable solver state. Multi-step analyses (sweeps, derivative batches) hold
// it for their entire duration so no interleaved set/run call can observe an
// in-progress batch.
type Handle struct {
	ID        string
	CycleType CycleType
	Mode      string
	ModelName string
	Options   map[string]any
	Created   time.Time

	instance Instance
	catalog  Catalog

	mu  sync.Mutex
	ran bool
}

// NewHandle wraps a constructed instance with its session metadata. The
// catalog is read once here and cached; it never changes afterwards.
func NewHandle(id string, cycleType CycleType, mode, modelName string, options map[string]any, instance Instance) *Handle {
	return &Handle{
		ID:        id,
		CycleType: cycleType,
		Mode:      mode,
		ModelName: modelName,
		Options:   options,
		Created:   time.Now(),
		instance:  instance,
		catalog:   instance.Catalog(),
	}
}

// Lock acquires the per-session exclusive lock.
func (h *Handle) Lock() { h.mu.Lock() }

// Unlock releases the per-session exclusive lock.
func (h *Handle) Unlock() { h.mu.Unlock() }

// Instance returns the underlying engine instance. Callers must hold the
// handle lock for any Set/Get/Run/Derivatives call.
func (h *Handle) Instance() Instance { return h.instance }

// Catalog returns the cached variable catalog. The catalog is immutable, so
// reads need no lock.
func (h *Handle) Catalog() Catalog { return h.catalog }

// HasRun reports whether the model has completed at least one converged
// solve. Caller must hold the handle lock.
func (h *Handle) HasRun() bool { return h.ran }

// MarkRun records a completed solve. Caller must hold the handle lock.
func (h *Handle) MarkRun() { h.ran = true }

// SessionMeta is a read-only snapshot of a handle for listings.
type SessionMeta struct {
	SessionID string    `json:"session_id"`
	CycleType CycleType `json:"cycle_type"`
	Mode      string    `json:"mode"`
	ModelName string    `json:"model_name"`
	Created   time.Time `json:"created"`
	Inputs    int       `json:"inputs"`
	Outputs   int       `json:"outputs"`
}

// Meta returns a snapshot of the handle's metadata. It reads only the cached
// catalog, never the engine.
func (h *Handle) Meta() SessionMeta {
	inputs, outputs := h.catalog.CountByDirection()
	return SessionMeta{
		SessionID: h.ID,
		CycleType: h.CycleType,
		Mode:      h.Mode,
		ModelName: h.ModelName,
		Created:   h.Created,
		Inputs:    inputs,
		Outputs:   outputs,
	}
}
