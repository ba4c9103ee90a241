package engine

import (
	"github.com/axmq/relaybroker/internal/client"
	"github.com/axmq/relaybroker/internal/frame"
	"github.com/axmq/relaybroker/internal/network"
)

// startWriter launches the per-connection writer goroutine that drains
// c's outbound queue whenever it becomes writable. It replaces the
// readiness loop's "mark descriptor writable, demote once drained"
// dance with a goroutine that blocks between drains instead of being
// re-armed by a poller.
func (e *Engine) startWriter(c *client.Client, conn *network.Connection) {
	go func() {
		for {
			select {
			case <-c.Writable():
				e.drain(c, conn)
			case <-conn.CloseChan():
				return
			}
		}
	}()
}

// drain flushes c's outbound queue onto conn in BufferSize chunks until
// empty or a write fails. A write failure means the connection is gone;
// the reader goroutine on the same connection will observe the same
// failure and report closedEvent.
func (e *Engine) drain(c *client.Client, conn *network.Connection) {
	for {
		chunk, remaining := c.DequeueChunk(frame.BufferSize)
		if len(chunk) > 0 {
			if _, err := conn.Write(chunk); err != nil {
				return
			}
		}
		if remaining == 0 {
			return
		}
	}
}
