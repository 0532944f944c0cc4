// Package cycletest provides a deterministic surrogate implementation of the
// core engine capability contract. Each cycle type exposes a small catalog
// whose outputs are linear functions of the inputs, so solves, sweeps and
// total derivatives have exact expected values in tests. Failure injection
// hooks cover construction faults, non-convergence and derivative errors.
//
// The surrogate is also wired into cmd/cyclemesh as the development engine;
// production deployments embed cyclemesh as a library and supply their own
// core.Builder adapter.
package cycletest
