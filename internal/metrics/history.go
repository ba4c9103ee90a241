package metrics

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/axmq/relaybroker/internal/store"
)

// History retains a bounded window of periodic Snapshots keyed by their
// capture time, backed by a generic store.Store so it can be swapped
// for a persistent implementation without touching the admin server.
type History struct {
	backing  store.Store[Snapshot]
	capacity int

	mu   sync.Mutex
	keys []string
}

// NewHistory wraps backing with retention limited to capacity entries.
func NewHistory(backing store.Store[Snapshot], capacity int) *History {
	return &History{backing: backing, capacity: capacity}
}

// Record saves snap under a timestamp key, evicting the oldest entry if
// capacity is exceeded.
func (h *History) Record(snap Snapshot) {
	ctx := context.Background()
	captured := snap.CapturedAt
	if captured.IsZero() {
		captured = time.Now()
	}
	key := captured.Format(time.RFC3339Nano)

	h.mu.Lock()
	defer h.mu.Unlock()

	_ = h.backing.Save(ctx, key, snap)
	h.keys = append(h.keys, key)
	sort.Strings(h.keys)

	for len(h.keys) > h.capacity {
		oldest := h.keys[0]
		h.keys = h.keys[1:]
		_ = h.backing.Delete(ctx, oldest)
	}
}

// Recent returns up to n most recent snapshots, oldest first.
func (h *History) Recent(n int) []Snapshot {
	ctx := context.Background()

	h.mu.Lock()
	keys := append([]string(nil), h.keys...)
	h.mu.Unlock()

	if n > 0 && len(keys) > n {
		keys = keys[len(keys)-n:]
	}

	out := make([]Snapshot, 0, len(keys))
	for _, k := range keys {
		snap, err := h.backing.Load(ctx, k)
		if err != nil {
			continue
		}
		out = append(out, snap)
	}
	return out
}
