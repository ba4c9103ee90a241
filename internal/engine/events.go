package engine

import "github.com/axmq/relaybroker/internal/network"

// event is the sum type funneled through Engine's single command
// channel; every state mutation in the broker happens while processing
// one of these, on the one goroutine that owns the client table,
// connection table and topic index.
type event interface{ isEvent() }

type acceptEvent struct{ conn *network.Connection }

type frameEvent struct {
	connID string
	data   []byte
}

type closedEvent struct{ connID string }

func (acceptEvent) isEvent() {}
func (frameEvent) isEvent()  {}
func (closedEvent) isEvent() {}
