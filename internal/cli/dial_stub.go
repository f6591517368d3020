//go:build !windows

package cli

import (
	"fmt"
	"net"
	"time"
)

func dialPipe(path string, timeout time.Duration) (net.Conn, error) {
	return nil, fmt.Errorf("named pipes only available on Windows")
}
