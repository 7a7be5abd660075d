package invoke

import "errors"

// Sentinel errors for the invocation layer.
var (
	// ErrMethodNotFound indicates the wire method name maps to no operation
	// of the underlying client.
	ErrMethodNotFound = errors.New("invoke: method not found")

	// ErrBadArgument indicates a supplied value cannot be coerced to the
	// declared parameter type.
	ErrBadArgument = errors.New("invoke: bad argument")
)
