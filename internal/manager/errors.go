package manager

import (
	"errors"
	"net/http"
)

// invalidStateError signals a command issued in the wrong Action (409).
type invalidStateError struct {
	msg    string
	action Action
}

func (e invalidStateError) Error() string   { return e.msg }
func (e invalidStateError) StatusCode() int { return http.StatusConflict }

// IsInvalidState reports whether err was caused by a wrong lifecycle state.
func IsInvalidState(err error) bool {
	var e invalidStateError
	return errors.As(err, &e)
}

// resourceUnavailableError signals a missing model, vocabulary or session (503).
type resourceUnavailableError struct{ msg string }

func (e resourceUnavailableError) Error() string   { return e.msg }
func (e resourceUnavailableError) StatusCode() int { return http.StatusServiceUnavailable }

// IsResourceUnavailable reports whether err indicates a handle that is not installed.
func IsResourceUnavailable(err error) bool {
	var e resourceUnavailableError
	return errors.As(err, &e)
}

// errManagerClosed rejects handle installation once the manager is closed.
var errManagerClosed = resourceUnavailableError{msg: "model manager is closed"}

// ErrOperationCancelled is returned when a checkpoint observes a cancel request.
var ErrOperationCancelled = errors.New("the operation was cancelled by the user")

// IsCancelled reports whether err is a cooperative cancellation.
func IsCancelled(err error) bool { return errors.Is(err, ErrOperationCancelled) }

// engineFailureError wraps an error reported by the engine independent of cancellation.
type engineFailureError struct {
	op  string
	err error
}

func (e engineFailureError) Error() string   { return e.op + ": " + e.err.Error() }
func (e engineFailureError) Unwrap() error   { return e.err }
func (e engineFailureError) StatusCode() int { return http.StatusInternalServerError }

// IsEngineFailure reports whether err came from the engine.
func IsEngineFailure(err error) bool {
	var e engineFailureError
	return errors.As(err, &e)
}

// dependencyUnavailableError signals a missing external dependency (e.g., llama.cpp)
// so the HTTP layer can return 503 Service Unavailable instead of 500.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string   { return e.msg }
func (e dependencyUnavailableError) StatusCode() int { return http.StatusServiceUnavailable }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e)
}

// ErrorKind classifies err for the UI: invalid_state, resource_unavailable,
// cancelled, dependency_unavailable, engine_failure or "" when unknown.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsInvalidState(err):
		return "invalid_state"
	case IsResourceUnavailable(err):
		return "resource_unavailable"
	case IsCancelled(err):
		return "cancelled"
	case IsDependencyUnavailable(err):
		return "dependency_unavailable"
	case IsEngineFailure(err):
		return "engine_failure"
	default:
		return ""
	}
}
