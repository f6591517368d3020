package pipe

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidName is returned for an empty or reserved pipe name.
	ErrInvalidName = errors.New("invalid pipe name")

	// ErrNotReady is returned when an operation needs a live pipe handle
	// and the endpoint does not have one.
	ErrNotReady = errors.New("pipe handle not available")

	// ErrNotAsync is returned when a context-cancellable wait is requested
	// on an endpoint that was not created with the Overlapped option.
	ErrNotAsync = errors.New("endpoint not created in overlapped mode")

	// ErrNotConnected is returned when an operation requires an attached
	// client and there is none.
	ErrNotConnected = errors.New("no client connected")

	// ErrAlreadyConnected signals a double accept: the native layer
	// reported a connected client while the endpoint already was Connected.
	ErrAlreadyConnected = errors.New("client already connected")

	// ErrPendingConnection is returned when a second connection wait, or a
	// disconnect, is attempted while a wait is still outstanding.
	ErrPendingConnection = errors.New("connection wait already pending")

	// ErrNoClientData is returned by impersonation and username lookup
	// before the connected client has written anything. Callers are
	// expected to retry after the client writes.
	ErrNoClientData = errors.New("client has not written to the pipe yet")

	// ErrClosed is returned for operations on a closed endpoint.
	ErrClosed = errors.New("pipe endpoint closed")
)

// ArgumentError reports a configuration value that is out of range, naming
// the offending parameter.
type ArgumentError struct {
	Name  string
	Value any
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Name, e.Value)
}

// ImpersonationError reports a failure to assume the connected client's
// identity. The caller's work did not run.
type ImpersonationError struct {
	Err error
}

func (e *ImpersonationError) Error() string {
	return "impersonate pipe client: " + e.Err.Error()
}

func (e *ImpersonationError) Unwrap() error { return e.Err }

// RevertError reports a failure to drop the client's identity after the
// caller's work ran. The thread's token state is suspect.
type RevertError struct {
	Err error
}

func (e *RevertError) Error() string {
	return "revert impersonation: " + e.Err.Error()
}

func (e *RevertError) Unwrap() error { return e.Err }
