package core

import "context"

// Builder constructs engine instances for a cycle type and mode. It is the
// single seam between cyclemesh and a concrete simulation engine.
//
// Contract:
//   - Construct must return a fully set up instance whose catalog is final.
//   - Unsupported cycle type / mode combinations and construction faults are
//     reported as errors, never as half-built instances.
//   - Implementations must be safe for concurrent Construct calls.
type Builder interface {
	Construct(ctx context.Context, cycleType CycleType, mode string, config map[string]any) (Instance, error)
}

// BuilderFunc adapts a plain function to the Builder interface.
type BuilderFunc func(ctx context.Context, cycleType CycleType, mode string, config map[string]any) (Instance, error)

// Construct implements Builder.
func (f BuilderFunc) Construct(ctx context.Context, cycleType CycleType, mode string, config map[string]any) (Instance, error) {
	return f(ctx, cycleType, mode, config)
}

// RunStats reports solver metadata for one converged solve.
type RunStats struct {
	Iterations   int     `json:"iterations"`
	ResidualNorm float64 `json:"residual_norm"`
}

// DerivativePair names one (response, design) derivative of interest.
type DerivativePair struct {
	Of  string `json:"of"`
	Wrt string `json:"wrt"`
}

// Instance is one live simulation model. Instances hold mutable solver state
// and are NOT safe for concurrent use; the session Handle serializes access.
//
// Contract:
//   - Catalog is fixed for the lifetime of the instance.
//   - Run executes exactly one convergence solve and returns an error on
//     non-convergence or internal fault. No retries happen below this line.
//   - Derivatives requires a prior successful Run; engines signal a never
//     solved model with an error.
//   - Close releases engine resources; the instance is unusable afterwards.
type Instance interface {
	Catalog() Catalog
	Set(name string, value any) error
	Get(name string) (any, error)
	Run(ctx context.Context) (RunStats, error)
	Derivatives(ctx context.Context, of, wrt []string) (map[DerivativePair]any, error)
	Close() error
}
