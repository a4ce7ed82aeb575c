//go:build linux

package transport_test

import (
	"net"
	"testing"
	"time"

	"github.com/momentics/hioload-relay/api"
	"github.com/momentics/hioload-relay/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// acceptEventually polls the non-blocking listener until a connection shows up.
func acceptEventually(t *testing.T, ln *transport.Listener) *transport.Conn {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c, err := ln.Accept()
		if err == nil {
			return c
		}
		require.ErrorIs(t, err, api.ErrWouldBlock)
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no connection accepted")
	return nil
}

func TestListen_EphemeralPortAndWouldBlock(t *testing.T) {
	ln, err := transport.Listen("127.0.0.1", 0)
	require.NoError(t, err)
	defer ln.Close()

	assert.NotZero(t, ln.Addr().Port)
	assert.True(t, ln.Addr().IP.Equal(net.IPv4(127, 0, 0, 1)))

	_, err = ln.Accept()
	assert.ErrorIs(t, err, api.ErrWouldBlock)
}

func TestListen_InvalidArguments(t *testing.T) {
	_, err := transport.Listen("not-an-ip", 0)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
	_, err = transport.Listen("127.0.0.1", 70000)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestConn_ReadWriteAndEndOfStream(t *testing.T) {
	ln, err := transport.Listen("127.0.0.1", 0)
	require.NoError(t, err)
	defer ln.Close()

	peer, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)

	c := acceptEventually(t, ln)
	defer c.Close()
	assert.NotEmpty(t, c.RemoteAddr())

	buf := make([]byte, 16)
	_, err = c.Read(buf)
	assert.ErrorIs(t, err, api.ErrWouldBlock, "no data yet on a non-blocking socket")

	_, err = peer.Write([]byte("hello"))
	require.NoError(t, err)

	var n int
	require.Eventually(t, func() bool {
		n, err = c.Read(buf)
		return err == nil
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, "hello", string(buf[:n]))

	n, err = c.Write([]byte("back"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	got := make([]byte, 4)
	require.NoError(t, peer.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = peer.Read(got)
	require.NoError(t, err)
	assert.Equal(t, "back", string(got))

	require.NoError(t, peer.Close())
	require.Eventually(t, func() bool {
		n, err = c.Read(buf)
		return err == nil && n == 0
	}, 2*time.Second, time.Millisecond, "zero-byte read marks end-of-stream")

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close(), "close is idempotent")
}
