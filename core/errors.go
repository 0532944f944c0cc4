package core

import (
	"errors"
	"fmt"
)

// ErrorKind is the high-level category attached to every reported failure.
// The set of kinds is part of the tool surface: callers branch on it, so new
// kinds are additive and existing names never change.
type ErrorKind string

const (
	// KindConfiguration covers unsupported cycle types or modes and engine
	// construction failures.
	KindConfiguration ErrorKind = "ConfigurationError"
	// KindSessionNotFound is returned for lookups of absent (or already
	// closed) session identifiers.
	KindSessionNotFound ErrorKind = "SessionNotFoundError"
	// KindUnknownVariable is returned when a variable name is missing from
	// the catalog or has the wrong direction for the operation.
	KindUnknownVariable ErrorKind = "UnknownVariableError"
	// KindUnknownTool is returned by dispatch for unregistered tool names.
	KindUnknownTool ErrorKind = "UnknownToolError"
	// KindSweepTooLarge is returned when a sweep grid exceeds the configured
	// maximum before any point is evaluated.
	KindSweepTooLarge ErrorKind = "SweepTooLargeError"
	// KindExecution covers solver non-convergence and internal engine faults.
	KindExecution ErrorKind = "ExecutionError"
	// KindValidation covers malformed tool payloads rejected at the dispatch
	// boundary (missing fields, wrong primitive types).
	KindValidation ErrorKind = "ValidationError"
)

// Error is the typed failure envelope shared by all components. It carries a
// kind for programmatic handling, a human readable message and optional
// details for debugging.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError creates an Error of the given kind with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithDetails returns a copy of the error carrying extra context.
func (e *Error) WithDetails(details any) *Error {
	clone := *e
	clone.Details = details
	return &clone
}

// ErrSessionNotFound builds the canonical error for an absent session id.
func ErrSessionNotFound(sessionID string) *Error {
	return NewError(KindSessionNotFound, "session %q not found", sessionID)
}

// ErrUnknownVariable builds the canonical error for a variable that is not in
// the catalog, or not usable in the requested direction.
func ErrUnknownVariable(name, reason string) *Error {
	return NewError(KindUnknownVariable, "variable %q: %s", name, reason)
}

// ErrUnknownTool builds the canonical error for an unregistered tool name.
func ErrUnknownTool(name string) *Error {
	return NewError(KindUnknownTool, "tool %q is not registered", name)
}

// ErrSweepTooLarge builds the canonical error for an oversized sweep grid.
func ErrSweepTooLarge(size, limit int) *Error {
	return NewError(KindSweepTooLarge, "sweep grid has %d points, limit is %d", size, limit)
}

// ErrExecution wraps an engine fault as an execution failure.
func ErrExecution(err error) *Error {
	return NewError(KindExecution, "%s", err.Error())
}

// KindOf extracts the ErrorKind from an error chain. Errors that are not a
// *core.Error are reported as execution failures, since by the time an error
// reaches the envelope the payload and session have already been validated.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindExecution
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
