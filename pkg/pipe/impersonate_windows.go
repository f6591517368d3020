//go:build windows

package pipe

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/windows"
)

var (
	modAdvapi32 = windows.NewLazySystemDLL("advapi32.dll")

	// Not exported by x/sys/windows.
	procImpersonateNamedPipeClient = modAdvapi32.NewProc("ImpersonateNamedPipeClient")
)

// userNameMaxLength bounds the username lookup buffer (UNLEN).
const userNameMaxLength = 256

// impersonationContext records the two independent failure slots of one
// RunAsClient invocation.
type impersonationContext struct {
	impersonateErr error
	revertErr      error
}

// err surfaces the impersonation failure over the revert failure: it came
// first, and it means the work may not have run under the client identity.
func (ic *impersonationContext) err() error {
	if ic.impersonateErr != nil {
		return &ImpersonationError{Err: ic.impersonateErr}
	}
	if ic.revertErr != nil {
		return &RevertError{Err: ic.revertErr}
	}
	return nil
}

func impersonateClient(h windows.Handle) error {
	r, _, err := procImpersonateNamedPipeClient.Call(uintptr(h))
	if r == 0 {
		return err
	}
	return nil
}

// clientHandle checks the shared precondition for impersonation and
// username lookup: a live handle with an attached client.
func (e *Endpoint) clientHandle() (windows.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, ErrClosed
	}
	if !e.validHandle() || e.state != Connected {
		return 0, ErrNotConnected
	}
	return e.handle, nil
}

// RunAsClient runs fn under the connected client's security token and
// restores the original identity afterwards, whether fn returns normally
// or panics. If acquiring the client token fails, fn never runs and an
// *ImpersonationError is returned; if restoring the identity fails, a
// *RevertError is returned; otherwise fn's own error propagates.
//
// The client must have written to the pipe at least once, or the native
// layer refuses the token with ERROR_CANNOT_IMPERSONATE.
func (e *Endpoint) RunAsClient(fn func() error) error {
	h, err := e.clientHandle()
	if err != nil {
		return err
	}
	var ic impersonationContext
	fnErr := func() error {
		// The token swap applies to the calling thread only.
		runtime.LockOSThread()
		if ic.impersonateErr = impersonateClient(h); ic.impersonateErr != nil {
			runtime.UnlockOSThread()
			return nil
		}
		defer func() {
			ic.revertErr = windows.RevertToSelf()
			if ic.revertErr == nil {
				// A thread whose revert failed still carries the client
				// token; keep it out of the scheduler.
				runtime.UnlockOSThread()
			}
		}()
		return fn()
	}()
	if err := ic.err(); err != nil {
		return err
	}
	return fnErr
}

// ImpersonatedUserName returns the username of the connected client at
// impersonation level. Before the client's first write the lookup is not
// possible yet and ErrNoClientData is returned; callers should retry after
// the client has sent data.
func (e *Endpoint) ImpersonatedUserName() (string, error) {
	h, err := e.clientHandle()
	if err != nil {
		return "", err
	}
	var buf [userNameMaxLength + 1]uint16
	err = windows.GetNamedPipeHandleState(h, nil, nil, nil, nil, &buf[0], uint32(len(buf)))
	if err != nil {
		if err == windows.ERROR_CANNOT_IMPERSONATE {
			return "", ErrNoClientData
		}
		return "", fmt.Errorf("GetNamedPipeHandleState: %w", err)
	}
	return windows.UTF16ToString(buf[:]), nil
}
