// Package core defines the domain contracts shared by every cyclemesh
// component: the simulation engine capability interface (Builder / Instance),
// the variable catalog a constructed model exposes, the session Handle that
// binds an engine instance to its metadata, and the typed error envelope used
// across the tool surface.
//
// The orchestration layers (session, variable, analysis, tool) depend only on
// the interfaces declared here, never on a concrete engine. Any engine able to
// construct a model for a cycle type, accept named-variable writes, execute a
// converged solve, report named-variable values and compute total derivatives
// can be plugged in as a Builder implementation.
package core
