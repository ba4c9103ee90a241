// Package frame implements the wire framing used by the broker: messages
// are delimited by a fixed three-byte end-of-message marker so that a
// single TCP read (or write) may carry zero, one, or many messages.
package frame

import (
	"bytes"
	"unicode/utf8"
)

// EOM is the end-of-message delimiter terminating every framed message.
const EOM = "\n\nx"

// MaxRequestSize bounds a connection's inbound framing buffer. Exceeding
// it resets the buffer (dropping any partial message) without closing
// the connection.
const MaxRequestSize = 10 * 1024

// MaxStreamSize bounds a client's outbound queue. Writes that would
// overflow it are silently dropped for that recipient.
const MaxStreamSize = 10 * 1024

// BufferSize is the chunk size used for both inbound reads and outbound
// dequeue_chunk calls.
const BufferSize = 1024

// Append concatenates buf with chunk, splits the result on EOM, and
// returns every complete message together with the residual bytes that
// should seed the next call. A residual that ends up empty means the
// concatenation ended exactly on an EOM boundary.
//
// Empty messages and messages that fail UTF-8 validation are dropped
// silently; corrupt input from a misbehaving peer is tolerated, not
// reported.
func Append(buf, chunk []byte) (messages [][]byte, residual []byte) {
	combined := buf
	if len(chunk) > 0 {
		combined = append(append([]byte(nil), buf...), chunk...)
	}

	delim := []byte(EOM)
	start := 0
	for {
		idx := bytes.Index(combined[start:], delim)
		if idx < 0 {
			break
		}
		idx += start

		msg := combined[start:idx]
		if len(msg) > 0 && utf8.Valid(msg) {
			messages = append(messages, append([]byte(nil), msg...))
		}

		start = idx + len(delim)
	}

	if start >= len(combined) {
		return messages, nil
	}
	return messages, append([]byte(nil), combined[start:]...)
}

// Out wraps payload with the EOM delimiter for transmission.
func Out(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+len(EOM))
	out = append(out, payload...)
	out = append(out, EOM...)
	return out
}
