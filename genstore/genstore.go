// Package genstore tracks a generation per persisted cache. store.Store bumps
// it on every save and delete and rejects persisted content written at any
// other generation, so a stale copy left by another writer reads as absent.
package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where generations live.
// Use Local for a single process, or Redis when several processes share persisted caches.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, key string) (uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, key string) (uint64, error)
	// Cleanup prunes old metadata if applicable (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
