//go:build windows

package cli

import (
	"net"
	"time"

	winio "github.com/Microsoft/go-winio"
)

func dialPipe(path string, timeout time.Duration) (net.Conn, error) {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return winio.DialPipe(path, &timeout)
}
