package network

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenerAcceptsAndInvokesHandler(t *testing.T) {
	done := make(chan string, 1)
	l := NewListener("127.0.0.1:0", func(c *Connection) {
		done <- c.ID()
		buf := make([]byte, 16)
		n, _ := c.Read(buf)
		_, _ = c.Write(buf[:n])
		c.Close()
	})

	require.NoError(t, l.Start())
	defer l.Close()

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("ping"))
	require.NoError(t, err)

	select {
	case id := <-done:
		assert.NotEmpty(t, id)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was never invoked")
	}

	buf := make([]byte, 16)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))
}

func TestConnectionCloseIsIdempotentAndSignalsCloseChan(t *testing.T) {
	srvDone := make(chan struct{})
	l := NewListener("127.0.0.1:0", func(c *Connection) {
		require.NoError(t, c.Close())
		require.NoError(t, c.Close())
		<-c.CloseChan()
		close(srvDone)
	})
	require.NoError(t, l.Start())
	defer l.Close()

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	select {
	case <-srvDone:
	case <-time.After(2 * time.Second):
		t.Fatal("close chan never signaled")
	}
}
