// Package storage defines the byte-store abstraction behind durable
// snapshots and the cross-instance broadcast bus.
//
// Implementations MUST be byte-for-byte transparent: Get must return
// exactly the same []byte that was previously passed to Set for a key (no
// prepended/appended metadata, no re-encoding, no mutation). If a store
// performs internal transforms (e.g., compression), they MUST be fully
// reversed so that the bytes returned by Get are identical to the bytes
// provided to Set.
//
// The keyspaces "snapshot:" and the broadcast key are owned by entsync.
// External code MUST NOT write values under them; foreign writes may be
// dropped as corrupt by the codecs reading them back.
package storage

import "context"

// Store is a minimal keyed byte store. Must be safe for concurrent use.
// Within one process, Set and Del are synchronous: when they return, the
// value is (un)readable by every sibling sharing the origin.
type Store interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value durably under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Del removes a key (best-effort; removing a missing key is not an error).
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// Watcher is implemented by stores that can report key changes to sibling
// instances sharing the same origin. fn receives the new value after a Set
// and nil after a Del. Delivery is best-effort; the bytes must be treated
// as untrusted.
type Watcher interface {
	Watch(key string, fn func(value []byte)) (stop func(), err error)
}

// WatchableStore is a store that can carry the broadcast bus.
type WatchableStore interface {
	Store
	Watcher
}
