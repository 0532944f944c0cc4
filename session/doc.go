// Package session implements the registry that owns every live model handle.
// The registry is the sole authority for creating, looking up and destroying
// handles; all other components resolve a session identifier through it and
// never hold handles across requests.
//
// The registry is an explicitly owned, injectable component rather than a
// module-level singleton, so tests construct isolated registries per case and
// the process wires exactly one at startup with a matching CloseAll teardown.
package session
