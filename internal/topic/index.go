// Package topic implements the broker's topic subscription index: an
// exact-match mapping from topic string to the set of clients currently
// subscribed to it. Wildcard matching is out of scope for this broker.
package topic

import (
	"sync"

	"github.com/axmq/relaybroker/internal/client"
)

// Index maps topic names to their current subscribers. It is mutated by
// the engine's single command-processing goroutine; unlike the client
// table it carries its own lock, so its read methods are also safe to
// call from other goroutines.
type Index struct {
	mu     sync.RWMutex
	topics map[string]map[*client.Client]struct{}
}

// NewIndex creates an empty topic index.
func NewIndex() *Index {
	return &Index{topics: make(map[string]map[*client.Client]struct{})}
}

// Add subscribes c to topic, creating the topic entry if this is its
// first subscriber.
func (idx *Index) Add(topic string, c *client.Client) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	set, ok := idx.topics[topic]
	if !ok {
		set = make(map[*client.Client]struct{})
		idx.topics[topic] = set
	}
	set[c] = struct{}{}
}

// Remove unsubscribes c from topic, deleting the topic entry if c was
// its last subscriber.
func (idx *Index) Remove(topic string, c *client.Client) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	set, ok := idx.topics[topic]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(idx.topics, topic)
	}
}

// RemoveClient removes c from every topic it appears in, used during
// permanent client removal. Accepts the client's own subscription list
// so callers don't need to scan the whole index.
func (idx *Index) RemoveClient(c *client.Client, topics []string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, topic := range topics {
		set, ok := idx.topics[topic]
		if !ok {
			continue
		}
		delete(set, c)
		if len(set) == 0 {
			delete(idx.topics, topic)
		}
	}
}

// Subscribers returns the current subscribers of topic. A missing topic
// yields an empty, non-nil slice. Iteration order follows the
// underlying map's native order, which is unspecified.
func (idx *Index) Subscribers(topic string) []*client.Client {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	set, ok := idx.topics[topic]
	if !ok {
		return []*client.Client{}
	}

	out := make([]*client.Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// TopicCount reports the number of non-empty topics currently indexed,
// for the metrics snapshot.
func (idx *Index) TopicCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.topics)
}
