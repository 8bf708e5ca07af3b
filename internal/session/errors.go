package session

import (
	"errors"

	"github.com/san-kum/modalstream/internal/stream"
)

var (
	// ErrConfigurationInvalid blocks a start before any connection is opened.
	ErrConfigurationInvalid = errors.New("session: configuration invalid")

	// ErrTransport covers failed dials, dropped connections and malformed frames.
	ErrTransport = errors.New("session: transport failure")

	// ErrServerReported wraps an explicit ERROR frame from the simulation service.
	ErrServerReported = errors.New("session: server reported an error")

	// ErrReconciliationMismatch marks a modal summary with unusable periods.
	ErrReconciliationMismatch = errors.New("session: modal summary mismatch")

	// ErrDisposed is returned by every operation after Dispose.
	ErrDisposed = errors.New("session: controller disposed")
)

// FailureError is what the user sees when a running session fails.
type FailureError struct {
	Kind    stream.FailureKind
	Message string
	Err     error
}

func (e *FailureError) Error() string {
	if e.Kind == stream.FailureServer {
		return "server: " + e.Message
	}
	return e.Kind.String() + ": " + e.Message
}

// Unwrap exposes both the category sentinel and the underlying cause.
func (e *FailureError) Unwrap() []error {
	category := ErrTransport
	if e.Kind == stream.FailureServer {
		category = ErrServerReported
	}
	if e.Err == nil {
		return []error{category}
	}
	return []error{category, e.Err}
}
