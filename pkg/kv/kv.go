// Package kv is a small key-value abstraction with TTLs. The bridge uses it
// as a replay ledger for signed webhooks; Redis backs it in deployments with
// more than one process, memory otherwise.
package kv

import (
	"context"
	"time"
)

// Store is a set of expiring keys. SetNX claims a key, Delete gives it back.
type Store interface {
	// SetNX sets a value only if the key doesn't exist (atomic).
	// Returns true if the key was set, false if it already existed.
	// A zero TTL means the key does not expire.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Delete removes a key. Returns nil if key doesn't exist.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}
