// Package client implements the broker's per-session state: the Client
// record (name, binding, subscriptions, outbound queue) and the Table
// that tracks every connected and lost client by name.
package client

import (
	"sync"
	"time"
)

// MaxStreamSize bounds a client's outbound queue. A write that would
// overflow it is silently dropped for that recipient only.
const MaxStreamSize = 10 * 1024

// MaxNameLength is the longest a client name may be.
const MaxNameLength = 64

// Client is a session record. Membership fields (name, subscriptions,
// binding) are mutated exclusively by the engine's single command-processing
// goroutine and therefore need no lock; the outbound queue is also drained
// by that client's own writer goroutine, so it carries a narrow mutex of
// its own.
type Client struct {
	name string

	connID    string
	connected bool
	lostAt    time.Time

	subs map[string]struct{}

	outMu    sync.Mutex
	outbound []byte
	writable chan struct{}
}

// New creates a freshly connected Client bound to connID.
func New(name, connID string) *Client {
	return &Client{
		name:      name,
		connID:    connID,
		connected: true,
		subs:      make(map[string]struct{}),
		writable:  make(chan struct{}, 1),
	}
}

// Name returns the client's name.
func (c *Client) Name() string { return c.name }

// ConnID returns the identifier of the connection this client is
// currently bound to. Empty when the client is lost.
func (c *Client) ConnID() string { return c.connID }

// Connected reports whether the client has a live bound connection.
func (c *Client) Connected() bool { return c.connected }

// LostAt returns the timestamp the client was marked lost.
func (c *Client) LostAt() time.Time { return c.lostAt }

// MarkLost transitions the client to the lost state, recording when the
// transition happened. Subscriptions and the outbound queue survive.
func (c *Client) MarkLost(at time.Time) {
	c.connected = false
	c.connID = ""
	c.lostAt = at
}

// Restore rebinds a lost client to a new connection, promoting it back
// to connected.
func (c *Client) Restore(connID string) {
	c.connID = connID
	c.connected = true
	c.lostAt = time.Time{}
}

// Subscribe adds topic to the client's subscription set. Reports true if
// it was newly added.
func (c *Client) Subscribe(topic string) bool {
	if _, ok := c.subs[topic]; ok {
		return false
	}
	c.subs[topic] = struct{}{}
	return true
}

// Unsubscribe removes topic from the client's subscription set. Reports
// true if it was present.
func (c *Client) Unsubscribe(topic string) bool {
	if _, ok := c.subs[topic]; !ok {
		return false
	}
	delete(c.subs, topic)
	return true
}

// Subscriptions returns the client's current subscription topics. The
// returned order is the map's native iteration order.
func (c *Client) Subscriptions() []string {
	topics := make([]string, 0, len(c.subs))
	for t := range c.subs {
		topics = append(topics, t)
	}
	return topics
}

// Enqueue appends b to the outbound queue and returns the queue's new
// length. If accepting b would exceed MaxStreamSize, the write is a
// no-op and the returned length equals the length before the call —
// callers compare the two to detect a first-queued-message transition
// and arm writability accordingly.
func (c *Client) Enqueue(b []byte) int {
	c.outMu.Lock()
	before := len(c.outbound)
	if before+len(b) > MaxStreamSize {
		c.outMu.Unlock()
		return before
	}
	c.outbound = append(c.outbound, b...)
	after := len(c.outbound)
	c.outMu.Unlock()

	if before == 0 && after > 0 {
		select {
		case c.writable <- struct{}{}:
		default:
		}
	}
	return after
}

// DequeueChunk slices up to max bytes off the front of the outbound
// queue, returning the chunk and the number of bytes still queued.
func (c *Client) DequeueChunk(max int) (chunk []byte, remaining int) {
	c.outMu.Lock()
	defer c.outMu.Unlock()

	n := len(c.outbound)
	if n > max {
		n = max
	}
	chunk = append([]byte(nil), c.outbound[:n]...)
	c.outbound = c.outbound[n:]
	return chunk, len(c.outbound)
}

// HasQueuedBytes reports whether the outbound queue is non-empty.
func (c *Client) HasQueuedBytes() bool {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	return len(c.outbound) > 0
}

// QueueLen returns the current outbound queue length, for callers that
// need to tell an overflow-rejected Enqueue apart from one that legitimately
// left the queue unchanged.
func (c *Client) QueueLen() int {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	return len(c.outbound)
}

// Writable signals whenever a publish or restore transitions the
// outbound queue from empty to non-empty; a connection's writer
// goroutine blocks on it between drains.
func (c *Client) Writable() <-chan struct{} {
	return c.writable
}

// Nudge wakes the writer goroutine without a length transition, used
// after Restore when the client already has queued bytes from before
// it went lost.
func (c *Client) Nudge() {
	if c.HasQueuedBytes() {
		select {
		case c.writable <- struct{}{}:
		default:
		}
	}
}
