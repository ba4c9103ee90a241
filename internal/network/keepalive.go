package network

import "time"

// defaultKeepAlivePeriod is the OS-level keepalive probe interval
// installed on every accepted connection. It is independent of the
// lost-client retention window: keepalive detects
// a genuinely dead peer the TCP stack hasn't noticed yet, while the
// lost-client window covers a peer that reconnects deliberately.
const defaultKeepAlivePeriod = 30 * time.Second
