package network

// entry is a connection's raw state as tracked by the connection table:
// the socket wrapper itself, its framing residual bytes, and whether it
// has completed a CONNECT yet. Subscription/name state lives in
// internal/client.Table instead — Table only ever needs to answer "is
// this connID still pending?" and "what's its leftover frame buffer?".
type entry struct {
	conn    *Connection
	pending bool
	residual []byte
}

// Table tracks every connection the broker currently has open, pending
// or bound, along with the residual bytes left over from the last
// complete frame extraction on that connection.
//
// Like the client table, it is owned and mutated exclusively by the
// engine's single command-processing goroutine.
type Table struct {
	conns map[string]*entry
}

// NewTable creates an empty connection table.
func NewTable() *Table {
	return &Table{conns: make(map[string]*entry)}
}

// AddPending registers a freshly accepted connection in the pending state.
func (t *Table) AddPending(conn *Connection) {
	t.conns[conn.ID()] = &entry{conn: conn, pending: true}
}

// Get returns the tracked Connection for connID, if any.
func (t *Table) Get(connID string) (*Connection, bool) {
	e, ok := t.conns[connID]
	if !ok {
		return nil, false
	}
	return e.conn, true
}

// IsPending reports whether connID has not yet completed a CONNECT.
func (t *Table) IsPending(connID string) bool {
	e, ok := t.conns[connID]
	return ok && e.pending
}

// Promote marks connID as bound to a Client once it has completed a
// successful CONNECT.
func (t *Table) Promote(connID string) {
	if e, ok := t.conns[connID]; ok {
		e.pending = false
	}
}

// Residual returns connID's leftover framing bytes from the previous read.
func (t *Table) Residual(connID string) []byte {
	if e, ok := t.conns[connID]; ok {
		return e.residual
	}
	return nil
}

// SetResidual replaces connID's leftover framing bytes.
func (t *Table) SetResidual(connID string, residual []byte) {
	if e, ok := t.conns[connID]; ok {
		e.residual = residual
	}
}

// Remove drops all record of connID, e.g. once its socket has closed.
func (t *Table) Remove(connID string) {
	delete(t.conns, connID)
}

// PendingCount returns the number of connections awaiting CONNECT.
func (t *Table) PendingCount() int {
	n := 0
	for _, e := range t.conns {
		if e.pending {
			n++
		}
	}
	return n
}

// Count returns the total number of tracked connections, pending or bound.
func (t *Table) Count() int {
	return len(t.conns)
}
