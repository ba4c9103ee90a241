// Package network wraps the raw TCP plumbing: accepting connections,
// tuning their socket options, and tracking which ones are still
// pending a CONNECT versus already bound to a Client.
package network

import (
	"net"
	"sync"
)

// Connection wraps a single accepted net.Conn with the bookkeeping the
// broker needs: a stable id to key it by, and a close signal other
// goroutines (the writer feeding this connection, the engine recording
// its demise) can select on.
type Connection struct {
	id   string
	conn net.Conn

	closeOnce sync.Once
	closeCh   chan struct{}
}

// NewConnection wraps conn, tuning TCP_NODELAY and SO_KEEPALIVE the way
// the broker requires of every accepted socket.
func NewConnection(id string, conn net.Conn) *Connection {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
		_ = tcpConn.SetKeepAlive(true)
		_ = tcpConn.SetKeepAlivePeriod(defaultKeepAlivePeriod)
	}

	return &Connection{
		id:      id,
		conn:    conn,
		closeCh: make(chan struct{}),
	}
}

// ID returns the connection's stable identifier.
func (c *Connection) ID() string { return c.id }

// RemoteAddr returns the peer's network address.
func (c *Connection) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// Read reads raw bytes off the socket; callers (the reader goroutine)
// own framing and buffering.
func (c *Connection) Read(b []byte) (int, error) { return c.conn.Read(b) }

// Write writes raw bytes to the socket, blocking until the whole buffer
// is flushed or an error occurs.
func (c *Connection) Write(b []byte) (int, error) { return c.conn.Write(b) }

// Close closes the underlying socket and signals CloseChan exactly once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

// CloseChan is closed once the connection has been closed, letting a
// writer goroutine bound to this connection stop selecting on it.
func (c *Connection) CloseChan() <-chan struct{} { return c.closeCh }
