// Package provider defines the byte stores persisted cache contents live in.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key (no prepended/appended
// metadata, no re-encoding, no mutation). If a store performs internal transforms
// (e.g., compression), they MUST be fully reversed so that the bytes returned by
// Get are identical to the bytes provided to Set.
package provider

import "context"

// Key addresses one persisted cache: Root groups caches (a directory, a
// key prefix), Name is the cache name.
type Key struct {
	Root string
	Name string
}

// String is the flat form used by key/value stores.
func (k Key) String() string { return "cachewrap:" + k.Root + ":" + k.Name }

// Provider is a minimal byte store. Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key Key) ([]byte, bool, error)

	// Set stores value. Returns ok=false when the store rejected the write
	// under pressure.
	Set(ctx context.Context, key Key, value []byte) (ok bool, err error)

	// Del removes a key. Deleting a missing key is not an error.
	Del(ctx context.Context, key Key) error

	// Close releases resources.
	Close(ctx context.Context) error
}
