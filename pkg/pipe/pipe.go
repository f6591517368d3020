// Package pipe implements the server side of Windows named pipes: endpoint
// creation with configurable direction, transmission mode and access
// restrictions, blocking and context-cancellable connection waits over
// overlapped I/O, disconnect-and-reuse of a single pipe instance, and
// execution of work under the connected client's security identity.
//
// On non-Windows platforms the package compiles but every operation that
// touches a pipe handle returns an error; name resolution and configuration
// validation work everywhere.
package pipe

// State describes where an endpoint is in its connect/disconnect cycle.
// State only advances after the corresponding native call has returned.
type State int

const (
	// Created means the native handle exists but no wait has been issued.
	Created State = iota
	// WaitingToConnect means a connection wait has been issued at least
	// once since creation or the last disconnect.
	WaitingToConnect
	// Connected means a client is attached to this pipe instance.
	Connected
	// Disconnected means the previous client was detached and the endpoint
	// can wait for a new one without being recreated.
	Disconnected
	// Broken means the client went away mid-stream; the endpoint must be
	// disconnected before it can be reused.
	Broken
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case WaitingToConnect:
		return "waiting-to-connect"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case Broken:
		return "broken"
	default:
		return "unknown"
	}
}
