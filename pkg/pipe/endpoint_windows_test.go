//go:build windows

package pipe

import (
	"context"
	"net"
	"testing"
	"time"

	winio "github.com/Microsoft/go-winio"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dialTimeout = 5 * time.Second

func newTestEndpoint(t *testing.T, cfg Config) (*Endpoint, string) {
	t.Helper()
	name := "pipehost-test-" + uuid.NewString()
	ep, err := Create(name, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { ep.Close() })
	return ep, ep.Path()
}

func dial(t *testing.T, path string) net.Conn {
	t.Helper()
	timeout := dialTimeout
	conn, err := winio.DialPipe(path, &timeout)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func asyncConfig() Config {
	cfg := validConfig()
	cfg.Options = Overlapped
	return cfg
}

func TestConnectDisconnectCycle(t *testing.T) {
	ep, path := newTestEndpoint(t, asyncConfig())
	assert.Equal(t, Created, ep.State())

	for i := 0; i < 2; i++ {
		waitErr := make(chan error, 1)
		go func() {
			waitErr <- ep.WaitForConnectionContext(context.Background())
		}()
		conn := dial(t, path)

		require.NoError(t, <-waitErr)
		assert.Equal(t, Connected, ep.State())

		_, err := conn.Write([]byte("ping"))
		require.NoError(t, err)
		buf := make([]byte, 4)
		_, err = ep.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, "ping", string(buf))

		conn.Close()
		require.NoError(t, ep.Disconnect())
		assert.Equal(t, Disconnected, ep.State())
	}
}

func TestWaitPreCanceled(t *testing.T) {
	ep, _ := newTestEndpoint(t, asyncConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ep.WaitForConnectionContext(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitCanceledWhilePending(t *testing.T) {
	ep, _ := newTestEndpoint(t, asyncConfig())
	ctx, cancel := context.WithCancel(context.Background())

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- ep.WaitForConnectionContext(ctx)
	}()
	time.Sleep(100 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-waitErr, context.Canceled)

	// The endpoint stays usable after a canceled wait.
	go func() {
		waitErr <- ep.WaitForConnectionContext(context.Background())
	}()
	dial(t, ep.Path())
	require.NoError(t, <-waitErr)
}

func TestCancelAfterClientConnected(t *testing.T) {
	ep, path := newTestEndpoint(t, asyncConfig())
	ctx, cancel := context.WithCancel(context.Background())

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- ep.WaitForConnectionContext(ctx)
	}()
	// Dial returns once the server side completed the accept; a cancel
	// after that point must not turn the result into Canceled.
	dial(t, path)
	cancel()

	require.NoError(t, <-waitErr)
	assert.Equal(t, Connected, ep.State())
}

func TestBlockingWait(t *testing.T) {
	ep, path := newTestEndpoint(t, validConfig())

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- ep.WaitForConnection()
	}()
	dial(t, path)
	require.NoError(t, <-waitErr)
	assert.Equal(t, Connected, ep.State())
}

func TestDoubleWaitAlreadyConnected(t *testing.T) {
	ep, path := newTestEndpoint(t, validConfig())

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- ep.WaitForConnection()
	}()
	dial(t, path)
	require.NoError(t, <-waitErr)

	assert.ErrorIs(t, ep.WaitForConnection(), ErrAlreadyConnected)
}

func TestEarlyClientCountsAsAccept(t *testing.T) {
	ep, path := newTestEndpoint(t, validConfig())

	// Client connects in the window between creation and the accept call.
	dial(t, path)
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, ep.WaitForConnection())
	assert.Equal(t, Connected, ep.State())
}

func TestWaitContextOnSyncEndpoint(t *testing.T) {
	ep, _ := newTestEndpoint(t, validConfig())
	err := ep.WaitForConnectionContext(context.Background())
	assert.ErrorIs(t, err, ErrNotAsync)
}

func TestWaitAfterClose(t *testing.T) {
	ep, _ := newTestEndpoint(t, asyncConfig())
	require.NoError(t, ep.Close())
	assert.ErrorIs(t, ep.WaitForConnection(), ErrNotReady)
}

func TestSecondWaitWhilePending(t *testing.T) {
	ep, _ := newTestEndpoint(t, asyncConfig())

	waitErr := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		waitErr <- ep.WaitForConnectionContext(ctx)
	}()
	time.Sleep(100 * time.Millisecond)

	assert.ErrorIs(t, ep.WaitForConnectionContext(ctx), ErrPendingConnection)
	assert.ErrorIs(t, ep.Disconnect(), ErrPendingConnection)

	cancel()
	assert.ErrorIs(t, <-waitErr, context.Canceled)
}

func TestDisconnectWithoutClient(t *testing.T) {
	ep, _ := newTestEndpoint(t, asyncConfig())
	assert.ErrorIs(t, ep.Disconnect(), ErrNotConnected)
}

func TestMessageMode(t *testing.T) {
	cfg := asyncConfig()
	cfg.Mode = Message
	ep, path := newTestEndpoint(t, cfg)

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- ep.WaitForConnectionContext(context.Background())
	}()
	conn := dial(t, path)
	require.NoError(t, <-waitErr)

	_, err := conn.Write([]byte("one message"))
	require.NoError(t, err)
	buf := make([]byte, 64)
	n, err := ep.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "one message", string(buf[:n]))
}

func TestCurrentUserOnly(t *testing.T) {
	cfg := asyncConfig()
	cfg.Options |= CurrentUserOnly
	ep, path := newTestEndpoint(t, cfg)

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- ep.WaitForConnectionContext(context.Background())
	}()
	// Same-user client must still get in.
	dial(t, path)
	require.NoError(t, <-waitErr)
}
