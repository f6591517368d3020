package pipe

import (
	"fmt"
	"strings"
)

// pipePrefix is the local named-pipe namespace root.
const pipePrefix = `\\.\pipe\`

// reservedName is the path component reserved for anonymous pipes.
const reservedName = "anonymous"

// ResolvePath builds the fully qualified pipe path for a short pipe name.
// The empty name and the reserved name "anonymous" (any case) are rejected
// with ErrInvalidName.
func ResolvePath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty pipe name: %w", ErrInvalidName)
	}
	if strings.EqualFold(name, reservedName) {
		return "", fmt.Errorf("pipe name %q is reserved: %w", name, ErrInvalidName)
	}
	return pipePrefix + name, nil
}
