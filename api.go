package entsync

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/entsync/codec"
	st "github.com/unkn0wn-root/entsync/storage"
)

// Record is implemented by domain entity types. WithVersion returns a copy
// of the record carrying the given optimistic-concurrency token; it must not
// mutate the receiver.
type Record[T any] interface {
	RecordID() string
	Version() int64
	WithVersion(v int64) T
}

// Mapping converts between the remote wire shape W (server field names,
// nullable) and the domain shape T used by the UI. Both directions must be
// total (never panic) and idempotent: mapping a record wire->domain->wire
// round-trips every field the server persists, with defaults substituted
// for nulls exactly once.
type Mapping[T any, W any] struct {
	FromWire func(W) T
	ToWire   func(T) W
}

// Query shapes a list call against the remote collection.
type Query struct {
	Search string
	Page   int
	Limit  int
}

// Collection is the slice of the remote API one store consumes.
// remote.Collection[W] implements it; tests substitute fakes.
type Collection[W any] interface {
	List(ctx context.Context, q Query) ([]W, error)
	Get(ctx context.Context, id string) (W, error)
	Create(ctx context.Context, rec W) (W, error)
	Update(ctx context.Context, id string, rec W) (W, error)
	Remove(ctx context.Context, id string) error
}

// State is an observable snapshot of a store. Items preserve load/creation
// order; they are not sorted by any business key.
type State[T any] struct {
	Items        []T
	Loading      bool
	Loaded       bool
	Err          error
	LastLoadedAt time.Time // zero => never successfully loaded
}

type LoadOptions struct {
	// Force bypasses the freshness short-circuit. It does not bypass the
	// single-flight guard.
	Force bool
}

// Store owns the authoritative client-side snapshot for one entity kind.
type Store[T Record[T]] interface {
	// Load fetches the collection through the gateway unless a load is
	// already in flight or the cached snapshot is still fresh (and Force is
	// unset); in both of those cases it returns the current items without a
	// network call. On failure the error is recorded in State and returned;
	// the store stays usable on whatever snapshot it has.
	Load(ctx context.Context, q Query, opts LoadOptions) ([]T, error)

	// Create confirms the record with the server, then appends it.
	Create(ctx context.Context, item T) (T, error)
	// Update carries the current rowVersion so the server can detect
	// conflicts, then replaces the matching item. A CONFLICT failure
	// propagates as-is; nothing is retried or merged locally.
	Update(ctx context.Context, id string, item T) (T, error)
	// Remove deletes the record server-side, then filters it out.
	Remove(ctx context.Context, id string) error

	State() State[T]
	Get(id string) (T, bool)

	// Stale reports whether the last successful load is older than the TTL
	// (or never happened).
	Stale() bool
	// MarkStale resets the last-load stamp so the next Load bypasses the
	// freshness short-circuit. This is the reaction to a sibling-instance
	// invalidation envelope.
	MarkStale()

	// Subscribe registers fn for every state change. The returned capability
	// deregisters it.
	Subscribe(fn func(State[T])) (unsub func())

	// Close detaches the broadcast subscription. The durable snapshot
	// already written stays behind.
	Close() error
}

// Options tune one entity store. Entity, Source and Map are required;
// everything else has a working default (no persistence, no broadcast,
// no logging, 5 minute TTL).
type Options[T Record[T], W any] struct {
	// Required
	Entity string // entity kind, e.g. "product"; names the snapshot key and envelopes
	Source Collection[W]
	Map    Mapping[T, W]

	Snapshots st.Store     // durable fallback snapshot; nil disables persistence
	Codec     c.Codec[[]T] // snapshot serialization; nil => codec.JSON
	Broadcast Broadcaster  // cross-instance invalidation; nil disables
	Logger    Logger       // nil => NopLogger
	Notifier  Notifier     // host UI channel; nil => NopNotifier
	TTL       time.Duration
	Now       func() time.Time // clock override for tests; nil => time.Now
}

func New[T Record[T], W any](opts Options[T, W]) (Store[T], error) {
	return newStore(opts)
}
