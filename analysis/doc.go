// Package analysis contains the orchestrators that execute models: single
// converged solves, parametric sweeps over Cartesian input grids and total
// derivative batches. All three resolve sessions through the registry,
// validate variable names against the cached catalog before touching the
// engine, and hold the per-session lock for their entire duration so no
// interleaved call can observe an in-progress batch.
package analysis
