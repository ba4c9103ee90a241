// Package store provides a small generic key-value abstraction used
// wherever the broker needs to retain more than the current value under
// a key — currently just the admin server's bounded history of periodic
// stats snapshots. It intentionally has nothing to do with session or
// subscription state, which the engine owns directly under the
// single-goroutine ownership described in internal/client and
// internal/topic.
package store

import "context"

// Store is a generic key-value store. ctx is threaded through every
// method for parity with implementations that might block (a future
// disk- or network-backed Store); MemoryStore never does.
type Store[T any] interface {
	// Save stores or overwrites value under key.
	Save(ctx context.Context, key string, value T) error

	// Load retrieves the value stored under key.
	Load(ctx context.Context, key string) (T, error)

	// Delete removes key, if present.
	Delete(ctx context.Context, key string) error

	// Keys returns every key currently stored, in no particular order.
	Keys(ctx context.Context) ([]string, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)
}
