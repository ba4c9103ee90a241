package client

import (
	"errors"
	"time"
)

// LostTimeout is how long a lost client's session is retained awaiting
// reconnect under the same name.
const LostTimeout = 60 * time.Second

// ErrNameTaken is returned by ConnectNew when name already belongs to a
// client, connected or lost.
var ErrNameTaken = errors.New("name already taken")

// Table tracks every client known to the broker, connected or lost, by
// name. It is mutated exclusively by the engine's single command-processing
// goroutine, so it carries no lock of its own — the same property the
// teacher's session manager achieves with a mutex, here achieved by
// confining all writes to one goroutine instead.
type Table struct {
	byName map[string]*Client
	byConn map[string]*Client
}

// NewTable creates an empty client table.
func NewTable() *Table {
	return &Table{
		byName: make(map[string]*Client),
		byConn: make(map[string]*Client),
	}
}

// Lookup returns the client registered under name, connected or lost.
func (t *Table) Lookup(name string) (*Client, bool) {
	c, ok := t.byName[name]
	return c, ok
}

// ByConn returns the client currently bound to connID.
func (t *Table) ByConn(connID string) (*Client, bool) {
	c, ok := t.byConn[connID]
	return c, ok
}

// ConnectNew registers a brand-new client under name, bound to connID.
// Returns ErrNameTaken if any client, connected or lost, already holds
// that name; a lost client is brought back with Restore instead.
func (t *Table) ConnectNew(name, connID string) (*Client, error) {
	if _, ok := t.byName[name]; ok {
		return nil, ErrNameTaken
	}

	c := New(name, connID)
	t.byName[name] = c
	t.byConn[connID] = c
	return c, nil
}

// Restore promotes a lost client back to connected, rebinding it to
// connID. The caller must have already checked the client is lost.
func (t *Table) Restore(c *Client, connID string) {
	c.Restore(connID)
	t.byConn[connID] = c
}

// MarkLost transitions a connected client to lost, dropping its
// connection binding from the by-connection index while retaining its
// name and subscriptions.
func (t *Table) MarkLost(c *Client, at time.Time) {
	delete(t.byConn, c.ConnID())
	c.MarkLost(at)
}

// Remove permanently deletes a client from the table, by name and by
// connection binding (if any).
func (t *Table) Remove(c *Client) {
	if c.Connected() {
		delete(t.byConn, c.ConnID())
	}
	delete(t.byName, c.Name())
}

// Sweep returns every lost client whose retention window has expired as
// of now, for the caller to permanently remove. The sweep itself does
// not mutate the table.
func (t *Table) Sweep(now time.Time) []*Client {
	var expired []*Client
	for _, c := range t.byName {
		if c.Connected() {
			continue
		}
		if now.Sub(c.LostAt()) > LostTimeout {
			expired = append(expired, c)
		}
	}
	return expired
}

// HasLost reports whether any client is currently in the lost state —
// the engine only bothers sweeping when this is true.
func (t *Table) HasLost() bool {
	for _, c := range t.byName {
		if !c.Connected() {
			return true
		}
	}
	return false
}

// ConnectedCount returns the number of currently connected clients, for
// the metrics snapshot.
func (t *Table) ConnectedCount() int {
	return len(t.byConn)
}

// LostCount returns the number of clients currently in the lost state,
// for the metrics snapshot.
func (t *Table) LostCount() int {
	n := 0
	for _, c := range t.byName {
		if !c.Connected() {
			n++
		}
	}
	return n
}
