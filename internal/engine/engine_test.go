package engine

import (
	"bufio"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/axmq/relaybroker/internal/frame"
	"github.com/axmq/relaybroker/internal/network"
	"github.com/axmq/relaybroker/pkg/logger"
	"github.com/stretchr/testify/require"
)

// testBroker wires an Engine to a real loopback listener, the way
// cmd/relaybrokerd does, so these tests exercise the full accept →
// frame → command → fan-out path over actual sockets.
type testBroker struct {
	t        *testing.T
	engine   *Engine
	listener *network.Listener
}

func startTestBroker(t *testing.T) *testBroker {
	t.Helper()
	log := logger.New(slog.LevelError + 4) // effectively silent
	e := New(log, nil, nil, 60*time.Second, 20*time.Millisecond)

	l := network.NewListener("127.0.0.1:0", e.AcceptHandler())
	require.NoError(t, l.Start())

	go e.Run(l.Addr().String())

	tb := &testBroker{t: t, engine: e, listener: l}
	t.Cleanup(func() {
		e.Stop()
		_ = l.Close()
	})
	return tb
}

func (tb *testBroker) dial() *testConn {
	tb.t.Helper()
	conn, err := net.Dial("tcp", tb.listener.Addr().String())
	require.NoError(tb.t, err)
	return &testConn{t: tb.t, conn: conn, r: bufio.NewReader(conn)}
}

type testConn struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func (c *testConn) send(s string) {
	c.t.Helper()
	_, err := c.conn.Write(frame.Out([]byte(s)))
	require.NoError(c.t, err)
}

// readFrame reads one EOM-delimited frame body, blocking until it
// arrives or the deadline trips.
func (c *testConn) readFrame() string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var out strings.Builder
	delim := []byte(frame.EOM)
	matched := 0
	for {
		b, err := c.r.ReadByte()
		if err != nil {
			require.NoError(c.t, err, "reading frame: %v, got so far: %q", err, out.String())
		}
		if b == delim[matched] {
			matched++
			if matched == len(delim) {
				return out.String()
			}
			continue
		}
		for i := 0; i < matched; i++ {
			out.WriteByte(delim[i])
		}
		matched = 0
		if b == delim[0] {
			matched = 1
			continue
		}
		out.WriteByte(b)
	}
}

func (c *testConn) expectEOF() {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 16)
	_, err := c.conn.Read(buf)
	require.ErrorIs(c.t, err, io.EOF)
}

func (c *testConn) close() {
	_ = c.conn.Close()
}

func TestS1BasicRelay(t *testing.T) {
	tb := startTestBroker(t)

	a := tb.dial()
	defer a.close()
	a.send("CONNECT alice")
	require.Equal(t, "OK: Conn accepted", a.readFrame())

	b := tb.dial()
	defer b.close()
	b.send("CONNECT bob")
	require.Equal(t, "OK: Conn accepted", b.readFrame())

	b.send("SUBSCRIBE weather")
	a.send("PUBLISH weather sunny")

	require.Equal(t, "weather sunny", b.readFrame())
}

func TestS2DuplicateName(t *testing.T) {
	tb := startTestBroker(t)

	a := tb.dial()
	defer a.close()
	a.send("CONNECT alice")
	require.Equal(t, "OK: Conn accepted", a.readFrame())

	c := tb.dial()
	defer c.close()
	c.send("CONNECT alice")
	require.Equal(t, "ERROR: Name already taken", c.readFrame())
	c.expectEOF()
}

func TestS3ReconnectWindow(t *testing.T) {
	tb := startTestBroker(t)

	b1 := tb.dial()
	b1.send("CONNECT bob")
	require.Equal(t, "OK: Conn accepted", b1.readFrame())
	b1.send("SUBSCRIBE weather")
	b1.send("SUBSCRIBE sports")
	time.Sleep(50 * time.Millisecond)
	b1.close()

	time.Sleep(100 * time.Millisecond)

	b2 := tb.dial()
	defer b2.close()
	b2.send("CONNECT bob")
	require.Equal(t, "RESTORED bob", b2.readFrame())

	topics := strings.Fields(b2.readFrame())
	require.ElementsMatch(t, []string{"weather", "sports"}, topics)

	a := tb.dial()
	defer a.close()
	a.send("CONNECT alice")
	require.Equal(t, "OK: Conn accepted", a.readFrame())
	a.send("PUBLISH weather windy")

	require.Equal(t, "weather windy", b2.readFrame())
}

func TestS4ExpiredLost(t *testing.T) {
	log := logger.New(slog.LevelError + 4)
	e := New(log, nil, nil, 80*time.Millisecond, 20*time.Millisecond)
	l := network.NewListener("127.0.0.1:0", e.AcceptHandler())
	require.NoError(t, l.Start())
	go e.Run(l.Addr().String())
	t.Cleanup(func() { e.Stop(); _ = l.Close() })

	tb := &testBroker{t: t, engine: e, listener: l}

	b1 := tb.dial()
	b1.send("CONNECT bob")
	require.Equal(t, "OK: Conn accepted", b1.readFrame())
	b1.send("SUBSCRIBE weather")
	time.Sleep(30 * time.Millisecond)
	b1.close()

	time.Sleep(200 * time.Millisecond)

	b2 := tb.dial()
	defer b2.close()
	b2.send("CONNECT bob")
	require.Equal(t, "OK: Conn accepted", b2.readFrame())
}

func TestS5PartialFraming(t *testing.T) {
	tb := startTestBroker(t)

	a := tb.dial()
	defer a.close()
	a.send("CONNECT alice")
	require.Equal(t, "OK: Conn accepted", a.readFrame())

	b := tb.dial()
	defer b.close()
	b.send("CONNECT bob")
	require.Equal(t, "OK: Conn accepted", b.readFrame())
	b.send("SUBSCRIBE t")

	full := append([]byte("PUBLISH t hello"), frame.EOM...)
	split := len(full) - 1
	_, err := a.conn.Write(full[:split])
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = a.conn.Write(full[split:])
	require.NoError(t, err)

	require.Equal(t, "t hello", b.readFrame())
}

func TestS6TopicCleanup(t *testing.T) {
	tb := startTestBroker(t)

	b := tb.dial()
	defer b.close()
	b.send("CONNECT bob")
	require.Equal(t, "OK: Conn accepted", b.readFrame())
	b.send("SUBSCRIBE q")
	b.send("UNSUBSCRIBE q")
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, 0, tb.engine.topics.TopicCount())

	a := tb.dial()
	defer a.close()
	a.send("CONNECT alice")
	require.Equal(t, "OK: Conn accepted", a.readFrame())
	a.send("PUBLISH q x")

	_ = b.conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	buf := make([]byte, 16)
	_, err := b.conn.Read(buf)
	require.Error(t, err)
}
