// Package engine is the broker's session/command processor and event
// loop: it owns the client table, topic index and connection table
// outright, and is the only goroutine that ever mutates them. Every
// other goroutine (one reader per connection, one writer per bound
// connection) only ever sends events into it.
package engine

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/axmq/relaybroker/internal/client"
	"github.com/axmq/relaybroker/internal/frame"
	"github.com/axmq/relaybroker/internal/hook"
	"github.com/axmq/relaybroker/internal/metrics"
	"github.com/axmq/relaybroker/internal/network"
	"github.com/axmq/relaybroker/internal/topic"
	"github.com/axmq/relaybroker/pkg/logger"
)

// reason distinguishes why a client is being permanently removed, for
// the hook fired and the log line written.
type reason int

const (
	reasonDisconnect reason = iota
	reasonExpire
)

// Engine is the broker's command processor and readiness-loop
// replacement. Construct with New, wire it to a network.Listener via
// AcceptHandler, then call Run on its own goroutine.
type Engine struct {
	clients *client.Table
	topics  *topic.Index
	conns   *network.Table

	hooks   *hook.Manager
	metrics *metrics.Registry
	log     logger.Logger

	lostTimeout   time.Duration
	sweepInterval time.Duration

	events    chan event
	stop      chan struct{}
	startedAt time.Time
	lastSweep time.Time

	// Snapshot counters, written only by refreshGauges on the engine's
	// own goroutine and read by Snapshot from any goroutine — the
	// client table itself is not safe for that.
	connectedCount atomic.Int64
	lostCount      atomic.Int64
	topicsCount    atomic.Int64
}

// New constructs an Engine. hooks and reg may be nil; a nil Registry
// disables metrics updates.
func New(log logger.Logger, reg *metrics.Registry, hooks *hook.Manager, lostTimeout, sweepInterval time.Duration) *Engine {
	if hooks == nil {
		hooks = hook.NewManager()
	}
	return &Engine{
		clients:       client.NewTable(),
		topics:        topic.NewIndex(),
		conns:         network.NewTable(),
		hooks:         hooks,
		metrics:       reg,
		log:           log,
		lostTimeout:   lostTimeout,
		sweepInterval: sweepInterval,
		events:        make(chan event, 256),
		stop:          make(chan struct{}),
	}
}

// AcceptHandler returns the network.Handler to pass to network.Listener.
func (e *Engine) AcceptHandler() network.Handler {
	return e.handleConn
}

// Run processes events until Stop is called. It blocks and should run
// on its own goroutine.
func (e *Engine) Run(addr string) {
	e.startedAt = time.Now()
	e.lastSweep = e.startedAt
	e.hooks.FireStarted(addr)
	e.log.Info("engine started", "addr", addr)

	ticker := time.NewTicker(e.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-e.events:
			e.dispatchEvent(ev)
		case now := <-ticker.C:
			e.handleSweep(now)
		case <-e.stop:
			e.hooks.FireStopped(nil)
			e.log.Info("engine stopped")
			return
		}
	}
}

// Stop signals Run to return.
func (e *Engine) Stop() {
	close(e.stop)
}

func (e *Engine) dispatchEvent(ev event) {
	switch v := ev.(type) {
	case acceptEvent:
		e.handleAccept(v.conn)
	case frameEvent:
		e.handleFrameBytes(v.connID, v.data)
	case closedEvent:
		e.handleClosed(v.connID)
	}
}

// handleConn is the per-connection goroutine: it announces the new
// connection, then blocks reading raw bytes off the socket for the rest
// of the connection's life, handing everything to the engine's single
// event channel.
func (e *Engine) handleConn(conn *network.Connection) {
	e.events <- acceptEvent{conn: conn}

	buf := make([]byte, frame.BufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			data := append([]byte(nil), buf[:n]...)
			e.events <- frameEvent{connID: conn.ID(), data: data}
		}
		if err != nil {
			e.events <- closedEvent{connID: conn.ID()}
			return
		}
	}
}

func (e *Engine) handleAccept(conn *network.Connection) {
	e.conns.AddPending(conn)
	if e.metrics != nil {
		e.metrics.ConnectionsAccepted.Inc()
	}
}

func (e *Engine) handleFrameBytes(connID string, data []byte) {
	residual := e.conns.Residual(connID)

	// Check the combined buffer before ever splitting on EOM: an oversized
	// chunk is dropped wholesale, even if it happens to contain a
	// complete, well-formed message earlier in the blob.
	if len(residual)+len(data) > frame.MaxRequestSize {
		e.conns.SetResidual(connID, nil)
		return
	}

	messages, residual := frame.Append(residual, data)
	e.conns.SetResidual(connID, residual)

	for _, msg := range messages {
		e.dispatchCommand(connID, ParseCommand(msg))
	}
}

func (e *Engine) dispatchCommand(connID string, cmd Command) {
	if e.conns.IsPending(connID) {
		e.handlePendingCommand(connID, cmd)
		return
	}

	c, ok := e.clients.ByConn(connID)
	if !ok {
		return
	}
	e.handleConnectedCommand(c, cmd)
}

func (e *Engine) handlePendingCommand(connID string, cmd Command) {
	if cmd.Kind != KindConnect || cmd.Name == "" || len(cmd.Name) > client.MaxNameLength {
		e.closeConn(connID)
		return
	}

	name := cmd.Name
	conn, ok := e.conns.Get(connID)
	if !ok {
		return
	}

	if existing, found := e.clients.Lookup(name); found {
		if existing.Connected() {
			e.reply(conn, "ERROR: Name already taken")
			if e.metrics != nil {
				e.metrics.NameCollisions.Inc()
			}
			e.hooks.FireNameCollision(name)
			e.log.Warn("name collision", "name", name, "conn", connID)
			e.closeConn(connID)
			return
		}

		e.clients.Restore(existing, connID)
		e.conns.Promote(connID)
		topics := existing.Subscriptions()
		e.replyRestore(conn, name, topics)
		existing.Nudge()
		e.startWriter(existing, conn)
		e.hooks.FireRestore(hook.ClientInfo{Name: name, Subscriptions: topics})
		e.log.Info("client restored", "name", name, "conn", connID)
		e.refreshGauges()
		return
	}

	newClient, err := e.clients.ConnectNew(name, connID)
	if err != nil {
		e.reply(conn, "ERROR: Name already taken")
		e.closeConn(connID)
		return
	}

	e.conns.Promote(connID)
	e.reply(conn, "OK: Conn accepted")
	e.startWriter(newClient, conn)
	e.hooks.FireConnect(hook.ClientInfo{Name: name})
	e.log.Info("client connected", "name", name, "conn", connID)
	e.refreshGauges()
}

func (e *Engine) handleConnectedCommand(c *client.Client, cmd Command) {
	switch cmd.Kind {
	case KindDisconnect:
		e.removeClient(c, reasonDisconnect)
	case KindPublish:
		if cmd.Topic == "" {
			return
		}
		e.publish(cmd.Topic, cmd.Data)
	case KindSubscribe:
		if cmd.Topic == "" {
			return
		}
		if c.Subscribe(cmd.Topic) {
			e.topics.Add(cmd.Topic, c)
			e.hooks.FireSubscribe(clientInfo(c), cmd.Topic)
			e.refreshGauges()
		}
	case KindUnsubscribe:
		if cmd.Topic == "" {
			return
		}
		if c.Unsubscribe(cmd.Topic) {
			e.topics.Remove(cmd.Topic, c)
			e.hooks.FireUnsubscribe(clientInfo(c), cmd.Topic)
			e.refreshGauges()
		}
	default:
		// unknown commands are silently ignored
	}
}

func (e *Engine) publish(topicName, data string) {
	subscribers := e.topics.Subscribers(topicName)
	payload := frame.Out([]byte(topicName + " " + data))

	for _, sub := range subscribers {
		before := sub.QueueLen()
		after := sub.Enqueue(payload)

		dropped := after == before && before+len(payload) > client.MaxStreamSize
		if dropped {
			if e.metrics != nil {
				e.metrics.MessagesDropped.Inc()
			}
			e.hooks.FirePublishDropped(sub.Name(), topicName)
			continue
		}
		if e.metrics != nil {
			e.metrics.MessagesDelivered.Inc()
		}
	}

	if e.metrics != nil {
		e.metrics.MessagesPublished.Inc()
	}
	e.hooks.FirePublish(hook.PublishInfo{Topic: topicName, Subscribers: len(subscribers)})
}

// handleClosed processes a peer disconnect reported by a connection's
// reader goroutine: a bound client becomes lost, a still-pending
// connection is simply forgotten.
func (e *Engine) handleClosed(connID string) {
	if conn, ok := e.conns.Get(connID); ok {
		_ = conn.Close()
	}

	if c, ok := e.clients.ByConn(connID); ok {
		e.clients.MarkLost(c, time.Now())
		e.conns.Remove(connID)
		e.hooks.FireLost(clientInfo(c))
		e.log.Info("client lost", "name", c.Name(), "conn", connID)
		e.refreshGauges()
		return
	}

	e.conns.Remove(connID)
}

// handleSweep runs the lost-client expiry scan at most once per
// sweepInterval, guarding against the ticker firing back-to-back after
// a stall from processing the backlog all at once.
func (e *Engine) handleSweep(now time.Time) {
	if !e.clients.HasLost() {
		return
	}
	if now.Sub(e.lastSweep) < e.sweepInterval {
		return
	}
	e.lastSweep = now

	// client.Table.Sweep measures expiry against client.LostTimeout;
	// shifting the sweep time by the difference applies e.lostTimeout.
	for _, c := range e.clients.Sweep(now.Add(client.LostTimeout - e.lostTimeout)) {
		e.removeClient(c, reasonExpire)
	}
}

// removeClient performs the permanent removal described for DISCONNECT,
// eviction and lost-window expiry alike: drop from the name index, drop
// from every topic set, and if still connected, close its socket.
func (e *Engine) removeClient(c *client.Client, r reason) {
	topics := c.Subscriptions()
	e.topics.RemoveClient(c, topics)

	wasConnected := c.Connected()
	connID := c.ConnID()
	e.clients.Remove(c)

	if wasConnected {
		if conn, ok := e.conns.Get(connID); ok {
			_ = conn.Close()
		}
		e.conns.Remove(connID)
	}

	info := hook.ClientInfo{Name: c.Name(), Subscriptions: topics}
	switch r {
	case reasonDisconnect:
		e.hooks.FireDisconnect(info)
		e.log.Info("client disconnected", "name", c.Name())
	case reasonExpire:
		e.hooks.FireExpire(info)
		if e.metrics != nil {
			e.metrics.ClientsExpired.Inc()
		}
		e.log.Info("client expired", "name", c.Name())
	}
	e.refreshGauges()
}

func (e *Engine) closeConn(connID string) {
	if conn, ok := e.conns.Get(connID); ok {
		_ = conn.Close()
	}
	e.conns.Remove(connID)
}

func (e *Engine) reply(conn *network.Connection, msg string) {
	if conn == nil {
		return
	}
	_, _ = conn.Write(frame.Out([]byte(msg)))
}

// replyRestore sends both RESTORED frames in a single Write so they
// arrive as one TCP send, matching the wire protocol's requirement that
// a reconnecting client's two-frame parser never observes them split
// across reads.
func (e *Engine) replyRestore(conn *network.Connection, name string, topics []string) {
	if conn == nil {
		return
	}
	buf := append([]byte(nil), frame.Out([]byte("RESTORED "+name))...)
	buf = append(buf, frame.Out([]byte(strings.Join(topics, " ")))...)
	_, _ = conn.Write(buf)
}

// refreshGauges runs on the engine goroutine after any mutation that
// changes a count the admin surface reports. It updates both the
// Prometheus gauges and the atomic snapshot counters Snapshot reads,
// since client.Table itself carries no lock and must not be touched
// from outside the engine goroutine.
func (e *Engine) refreshGauges() {
	connected := e.clients.ConnectedCount()
	lost := e.clients.LostCount()
	topics := e.topics.TopicCount()

	e.connectedCount.Store(int64(connected))
	e.lostCount.Store(int64(lost))
	e.topicsCount.Store(int64(topics))

	if e.metrics == nil {
		return
	}
	e.metrics.ClientsConnected.Set(float64(connected))
	e.metrics.ClientsLost.Set(float64(lost))
	e.metrics.TopicsActive.Set(float64(topics))
}

// Snapshot reports the current broker counts, for the admin /stats
// endpoint and periodic History recording. Safe to call from any
// goroutine.
func (e *Engine) Snapshot() metrics.Snapshot {
	return metrics.Snapshot{
		ClientsConnected: int(e.connectedCount.Load()),
		ClientsLost:      int(e.lostCount.Load()),
		TopicsActive:     int(e.topicsCount.Load()),
		Uptime:           time.Since(e.startedAt).String(),
		StartedAt:        e.startedAt,
		CapturedAt:       time.Now(),
	}
}

func clientInfo(c *client.Client) hook.ClientInfo {
	return hook.ClientInfo{Name: c.Name(), Subscriptions: c.Subscriptions()}
}
