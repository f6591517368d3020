//go:build windows

package pipe

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"

	"golang.org/x/sys/windows"
)

// Endpoint is one server instance of a named pipe. It owns exactly one
// native handle, released only by Close. A single Endpoint services one
// client at a time; after Disconnect it can wait for the next client
// without being recreated.
type Endpoint struct {
	path  string
	async bool

	mu      sync.Mutex
	handle  windows.Handle
	state   State
	pending bool
	closed  bool
}

// Create resolves name, validates cfg and creates the native pipe instance.
func Create(name string, cfg Config) (*Endpoint, error) {
	path, err := ResolvePath(name)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	p16, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, &ArgumentError{Name: "pipe name", Value: name}
	}
	sa, err := securityAttributes(&cfg)
	if err != nil {
		return nil, err
	}
	h, err := windows.CreateNamedPipe(
		p16,
		cfg.openMode(),
		cfg.pipeMode(),
		cfg.nativeInstances(),
		cfg.OutBufferSize,
		cfg.InBufferSize,
		0, // default WaitNamedPipe timeout
		sa,
	)
	// The descriptor backing sa must stay reachable for the duration of
	// the native call and no longer.
	runtime.KeepAlive(sa)
	if err != nil {
		return nil, fmt.Errorf("CreateNamedPipeW %s: %w", path, err)
	}
	return &Endpoint{path: path, async: cfg.overlapped(), handle: h, state: Created}, nil
}

// Path returns the fully qualified pipe path.
func (e *Endpoint) Path() string { return e.path }

// State returns the current connection state.
func (e *Endpoint) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Endpoint) validHandle() bool {
	return e.handle != 0 && e.handle != windows.InvalidHandle
}

// beginWait reserves the single outstanding connection wait.
func (e *Endpoint) beginWait(needAsync bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || !e.validHandle() {
		return ErrNotReady
	}
	if needAsync && !e.async {
		return ErrNotAsync
	}
	if e.pending {
		return ErrPendingConnection
	}
	e.pending = true
	if e.state == Created || e.state == Disconnected {
		e.state = WaitingToConnect
	}
	return nil
}

// abandonWait clears the pending wait without touching the state, for
// paths that never produced a native accept result.
func (e *Endpoint) abandonWait() {
	e.mu.Lock()
	e.pending = false
	e.mu.Unlock()
}

// resolveWait translates the native accept result and clears the pending
// wait. ERROR_PIPE_CONNECTED while already Connected is the double-accept
// race; ERROR_PIPE_CONNECTED otherwise means a client attached in the
// window before the accept call and counts as success.
func (e *Endpoint) resolveWait(err error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = false
	if e.closed {
		return ErrClosed
	}
	if err != nil && err != windows.ERROR_PIPE_CONNECTED {
		return fmt.Errorf("ConnectNamedPipe: %w", err)
	}
	if err == windows.ERROR_PIPE_CONNECTED && e.state == Connected {
		return ErrAlreadyConnected
	}
	e.state = Connected
	return nil
}

// WaitForConnection blocks until a client connects. On an endpoint created
// with the Overlapped option the wait runs through the asynchronous path,
// since a blocking accept is not permitted on an overlapped handle.
func (e *Endpoint) WaitForConnection() error {
	if e.async {
		return e.WaitForConnectionContext(context.Background())
	}
	if err := e.beginWait(false); err != nil {
		return err
	}
	return e.resolveWait(windows.ConnectNamedPipe(e.handle, nil))
}

// WaitForConnectionContext waits for a client and honors ctx cancellation.
// The endpoint must have been created with the Overlapped option. A cancel
// that loses the race against the client connecting has no effect: the
// natural completion wins and the wait resolves as connected.
func (e *Endpoint) WaitForConnectionContext(ctx context.Context) error {
	if err := e.beginWait(true); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		// Already canceled: no native accept is issued.
		e.abandonWait()
		return err
	}
	ev, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		e.abandonWait()
		return fmt.Errorf("CreateEvent: %w", err)
	}
	defer windows.CloseHandle(ev)
	o := &windows.Overlapped{HEvent: ev}

	err = windows.ConnectNamedPipe(e.handle, o)
	if err != windows.ERROR_IO_PENDING {
		// Synchronous resolution: hard failure or ERROR_PIPE_CONNECTED.
		return e.resolveWait(err)
	}

	done := make(chan error, 1)
	go func() {
		var n uint32
		done <- windows.GetOverlappedResult(e.handle, o, &n, true)
	}()
	select {
	case err = <-done:
	case <-ctx.Done():
		// Best-effort abort of this specific operation. If the completion
		// already latched, the abort is a no-op and the result below is
		// the successful accept.
		_ = windows.CancelIoEx(e.handle, o)
		err = <-done
		if err == windows.ERROR_OPERATION_ABORTED {
			e.abandonWait()
			return ctx.Err()
		}
	}
	return e.resolveWait(err)
}

// Disconnect detaches the current client and returns the endpoint to a
// listenable state. The same handle can then accept a new client.
func (e *Endpoint) Disconnect() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || !e.validHandle() {
		return ErrNotConnected
	}
	if e.pending {
		return ErrPendingConnection
	}
	if e.state != Connected && e.state != Broken {
		return ErrNotConnected
	}
	if err := windows.DisconnectNamedPipe(e.handle); err != nil {
		return fmt.Errorf("DisconnectNamedPipe: %w", err)
	}
	e.state = Disconnected
	return nil
}

// Close cancels any outstanding I/O and releases the native handle.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	h := e.handle
	e.handle = windows.InvalidHandle
	if h != 0 && h != windows.InvalidHandle {
		_ = windows.CancelIoEx(h, nil)
		return windows.CloseHandle(h)
	}
	return nil
}

// ioHandle checks the byte-stream preconditions and snapshots the handle.
func (e *Endpoint) ioHandle() (windows.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, ErrClosed
	}
	if !e.validHandle() {
		return 0, ErrNotReady
	}
	if e.state != Connected {
		return 0, ErrNotConnected
	}
	return e.handle, nil
}

func (e *Endpoint) markBroken() {
	e.mu.Lock()
	if !e.closed && e.state == Connected {
		e.state = Broken
	}
	e.mu.Unlock()
}

// Read reads from the connected client.
func (e *Endpoint) Read(p []byte) (int, error) {
	h, err := e.ioHandle()
	if err != nil {
		return 0, err
	}
	var n uint32
	if !e.async {
		err = windows.ReadFile(h, p, &n, nil)
		return e.finishRead(int(n), err)
	}
	ev, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		return 0, fmt.Errorf("CreateEvent: %w", err)
	}
	defer windows.CloseHandle(ev)
	o := &windows.Overlapped{HEvent: ev}
	err = windows.ReadFile(h, p, &n, o)
	if err == windows.ERROR_IO_PENDING {
		err = windows.GetOverlappedResult(h, o, &n, true)
	}
	return e.finishRead(int(n), err)
}

func (e *Endpoint) finishRead(n int, err error) (int, error) {
	switch err {
	case nil:
		return n, nil
	case windows.ERROR_MORE_DATA:
		// Message mode with a short buffer; the remainder stays queued.
		return n, nil
	case windows.ERROR_BROKEN_PIPE:
		e.markBroken()
		return n, io.EOF
	default:
		return n, fmt.Errorf("read pipe: %w", err)
	}
}

// Write writes to the connected client.
func (e *Endpoint) Write(p []byte) (int, error) {
	h, err := e.ioHandle()
	if err != nil {
		return 0, err
	}
	var n uint32
	if !e.async {
		err = windows.WriteFile(h, p, &n, nil)
		return e.finishWrite(int(n), err)
	}
	ev, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		return 0, fmt.Errorf("CreateEvent: %w", err)
	}
	defer windows.CloseHandle(ev)
	o := &windows.Overlapped{HEvent: ev}
	err = windows.WriteFile(h, p, &n, o)
	if err == windows.ERROR_IO_PENDING {
		err = windows.GetOverlappedResult(h, o, &n, true)
	}
	return e.finishWrite(int(n), err)
}

func (e *Endpoint) finishWrite(n int, err error) (int, error) {
	if err == nil {
		return n, nil
	}
	if err == windows.ERROR_BROKEN_PIPE || err == windows.ERROR_NO_DATA {
		e.markBroken()
	}
	return n, fmt.Errorf("write pipe: %w", err)
}
