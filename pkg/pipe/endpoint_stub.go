//go:build !windows

package pipe

import (
	"context"
	"errors"
)

var errUnsupported = errors.New("named pipes only available on Windows")

// Endpoint is only functional on Windows.
type Endpoint struct{}

// Create validates its inputs everywhere but cannot create a pipe off
// Windows.
func Create(name string, cfg Config) (*Endpoint, error) {
	if _, err := ResolvePath(name); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return nil, errUnsupported
}

func (e *Endpoint) Path() string { return "" }
func (e *Endpoint) State() State { return Created }
func (e *Endpoint) Close() error { return nil }

func (e *Endpoint) WaitForConnection() error { return errUnsupported }

func (e *Endpoint) WaitForConnectionContext(ctx context.Context) error {
	return errUnsupported
}

func (e *Endpoint) Disconnect() error { return errUnsupported }

func (e *Endpoint) Read(p []byte) (int, error)  { return 0, errUnsupported }
func (e *Endpoint) Write(p []byte) (int, error) { return 0, errUnsupported }

func (e *Endpoint) RunAsClient(fn func() error) error { return errUnsupported }

func (e *Endpoint) ImpersonatedUserName() (string, error) {
	return "", errUnsupported
}
