package cdcstream

import "github.com/pingcap/errors"

// Class distinguishes the error taxonomy of spec.md §7.
type Class int

const (
	ClassConfiguration Class = iota
	ClassConnection
	ClassProtocol
	ClassCapability
	ClassState
)

func (c Class) String() string {
	switch c {
	case ClassConfiguration:
		return "ConfigurationError"
	case ClassConnection:
		return "ConnectionError"
	case ClassProtocol:
		return "ProtocolError"
	case ClassCapability:
		return "CapabilityError"
	case ClassState:
		return "StateError"
	default:
		return "UnknownError"
	}
}

// StreamError is the error type surfaced across every Stream method
// boundary. It carries a Class so callers can branch on the taxonomy of
// §7 without string-matching messages.
type StreamError struct {
	class Class
	cause error
}

func newError(class Class, cause error) *StreamError {
	return &StreamError{class: class, cause: errors.Trace(cause)}
}

func (e *StreamError) Error() string {
	return e.class.String() + ": " + e.cause.Error()
}

func (e *StreamError) Unwrap() error { return e.cause }

// Class reports which branch of the §7 taxonomy this error belongs to.
func (e *StreamError) Class() Class { return e.class }

func configErrorf(format string, args ...any) *StreamError {
	return newError(ClassConfiguration, errors.Errorf(format, args...))
}

func connectionErrorf(format string, args ...any) *StreamError {
	return newError(ClassConnection, errors.Errorf(format, args...))
}

func protocolErrorf(format string, args ...any) *StreamError {
	return newError(ClassProtocol, errors.Errorf(format, args...))
}

func capabilityErrorf(format string, args ...any) *StreamError {
	return newError(ClassCapability, errors.Errorf(format, args...))
}

func stateErrorf(format string, args ...any) *StreamError {
	return newError(ClassState, errors.Errorf(format, args...))
}
