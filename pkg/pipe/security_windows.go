//go:build windows

package pipe

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// securityAttributes builds the SECURITY_ATTRIBUTES for pipe creation.
// CurrentUserOnly overrides any caller-supplied descriptor with one that
// grants full control solely to the calling identity. Returns nil when
// there is nothing to apply.
func securityAttributes(cfg *Config) (*windows.SecurityAttributes, error) {
	sddl := cfg.SecurityDescriptor
	if cfg.Options&CurrentUserOnly != 0 {
		var err error
		sddl, err = currentUserSDDL()
		if err != nil {
			return nil, err
		}
	}
	if sddl == "" && !cfg.Inheritable {
		return nil, nil
	}
	sa := &windows.SecurityAttributes{}
	sa.Length = uint32(unsafe.Sizeof(*sa))
	if cfg.Inheritable {
		sa.InheritHandle = 1
	}
	if sddl != "" {
		sd, err := windows.SecurityDescriptorFromString(sddl)
		if err != nil {
			return nil, fmt.Errorf("parse security descriptor %q: %w", sddl, err)
		}
		sa.SecurityDescriptor = sd
	}
	return sa, nil
}

// currentUserSDDL returns a protected DACL granting GENERIC_ALL to the
// calling token's user and nobody else. Other same-user server instances
// can still be created; other principals cannot reach the pipe.
func currentUserSDDL() (string, error) {
	u, err := windows.GetCurrentProcessToken().GetTokenUser()
	if err != nil {
		return "", fmt.Errorf("query token user: %w", err)
	}
	return fmt.Sprintf("D:P(A;;GA;;;%s)", u.User.Sid.String()), nil
}
